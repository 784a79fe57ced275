// =============================================================================
// SUNAT Detracciones - Field Formatting Helpers
// =============================================================================
//
// Shared helpers used by the parser and both detail encoders. Every fixed-width
// field in the bank file is produced with one of these functions:
//   - TextUpper     : accent strip + upper case (plain ASCII-range output)
//   - Digits        : keep only decimal digits
//   - PadLeft/Right : pad to a width (never truncates)
//   - FitLeft       : truncate to width, then pad right (text fields)
//   - FitRight      : keep the LAST width runes, then pad left (numeric fields)
//   - Cents/Money15 : exact money to integer cents, round-half-up
//
// =============================================================================

package format

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// TEXT NORMALIZATION
// =============================================================================

// StripAccents removes combining marks after NFKD decomposition, so "Ñ"
// becomes "N", "á" becomes "a" and "º" becomes "o".
func StripAccents(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// asciiFold replaces the non-ASCII letters and punctuation that survive
// decomposition. Any other rune above 0x7F is dropped.
var asciiFold = map[rune]string{
	'Æ': "AE", 'Œ': "OE", 'Ø': "O", 'Ł': "L", 'Đ': "D", 'Ð': "D", 'Þ': "TH", 'ß': "SS", 'ẞ': "SS",
	'‘': "'", '’': "'", '‚': "'", '´': "'",
	'“': "\"", '”': "\"", '„': "\"", '«': "\"", '»': "\"",
	'–': "-", '—': "-", '‐': "-", '‑': "-",
	'\u00a0': " ",
}

// TextUpper is the normalization applied to every name and series field.
// The result is plain ASCII, so its byte length equals its rune count.
func TextUpper(s string) string {
	upper := strings.ToUpper(StripAccents(s))

	var b strings.Builder
	b.Grow(len(upper))
	for _, r := range upper {
		switch {
		case r < utf8.RuneSelf:
			b.WriteRune(r)
		case asciiFold[r] != "":
			b.WriteString(asciiFold[r])
		}
	}
	return b.String()
}

// Digits keeps only the ASCII digits of s.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DocType returns the SUNAT identity document type for a digits-only number:
// "6" (RUC) when it has exactly 11 digits, "1" otherwise.
func DocType(docNum string) string {
	if len(docNum) == 11 {
		return "6"
	}
	return "1"
}

// IsDigits reports whether s is non-empty and made only of ASCII digits.
func IsDigits(s string) bool {
	return s != "" && Digits(s) == s
}

// =============================================================================
// PADDING
// =============================================================================

// PadLeft pads s on the left with padChar up to length runes.
func PadLeft(s string, length int, padChar rune) string {
	n := len([]rune(s))
	if n >= length {
		return s
	}
	return strings.Repeat(string(padChar), length-n) + s
}

// PadRight pads s on the right with padChar up to length runes.
func PadRight(s string, length int, padChar rune) string {
	n := len([]rune(s))
	if n >= length {
		return s
	}
	return s + strings.Repeat(string(padChar), length-n)
}

// FitLeft keeps the first width runes of s and pads on the right.
func FitLeft(s string, width int, padChar rune) string {
	r := []rune(s)
	if len(r) > width {
		r = r[:width]
	}
	return PadRight(string(r), width, padChar)
}

// FitRight keeps the last width runes of s and pads on the left.
func FitRight(s string, width int, padChar rune) string {
	r := []rune(s)
	if len(r) > width {
		r = r[len(r)-width:]
	}
	return PadLeft(string(r), width, padChar)
}

// Head returns the first n runes of s.
func Head(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}

// =============================================================================
// MONEY
// =============================================================================

// RoundCents rounds to 2 decimals, half away from zero. For the non-negative
// amounts handled here that is round-half-up.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Cents converts an amount to an integer count of cents after rounding.
func Cents(d decimal.Decimal) int64 {
	return RoundCents(d).Shift(2).IntPart()
}

// FromCents is the inverse of Cents.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// Money15 renders an amount as 15 zero-padded digits of cents.
func Money15(d decimal.Decimal) string {
	return PadLeft(RoundCents(d).Shift(2).StringFixed(0), 15, '0')
}

// Amount2 renders an amount with exactly two decimals for reports.
func Amount2(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// ParseAmount parses a decimal amount. A comma is accepted as decimal
// separator. ok is false for blank or malformed input.
func ParseAmount(s string) (d decimal.Decimal, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
