package format

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTextUpper(t *testing.T) {
	assert.Equal(t, "COMPANIA NUNEZ", TextUpper("Compañía Núñez"))
	assert.Equal(t, "CAFE", TextUpper("café"))
	assert.Equal(t, "", TextUpper(""))
}

func TestTextUpperIsASCII(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"D’ONOFRIO S.A.", "D'ONOFRIO S.A."},
		{"INVERSIONES Nº 1 S.A.C.", "INVERSIONES NO 1 S.A.C."},
		{"Ångström Æro SAC", "ANGSTROM AERO SAC"},
		{"Łódź Trading", "LODZ TRADING"},
		{"Grifo 25° – Norte", "GRIFO 25 - NORTE"},
		{"Straße ☃", "STRASSE "},
	}
	for _, tt := range tests {
		got := TextUpper(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, len([]rune(got)), len(got), "one byte per rune for %q", tt.in)
	}
}

func TestDigits(t *testing.T) {
	assert.Equal(t, "20123456789", Digits("RUC: 20-123456789"))
	assert.Equal(t, "", Digits("abc"))
	assert.True(t, IsDigits("202503"))
	assert.False(t, IsDigits("2025-3"))
	assert.False(t, IsDigits(""))
}

func TestDocType(t *testing.T) {
	assert.Equal(t, "6", DocType("20123456789"))
	assert.Equal(t, "1", DocType("45678901"))
	assert.Equal(t, "1", DocType(""))
}

func TestPadding(t *testing.T) {
	assert.Equal(t, "00042", PadLeft("42", 5, '0'))
	assert.Equal(t, "123456", PadLeft("123456", 5, '0'), "PadLeft never truncates")
	assert.Equal(t, "AB   ", PadRight("AB", 5, ' '))

	assert.Equal(t, "ABCD", FitLeft("ABCDEF", 4, ' '))
	assert.Equal(t, "AB  ", FitLeft("AB", 4, ' '))
	assert.Equal(t, "3456", FitRight("123456", 4, '0'))
	assert.Equal(t, "0012", FitRight("12", 4, '0'))
	assert.Equal(t, "AB", Head("ABCDEF", 2))
}

func TestMoney15(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"700.00", "000000000070000"},
		{"50", "000000000005000"},
		{"0.005", "000000000000001"},
		{"0.004", "000000000000000"},
		{"12.345", "000000000001235"},
		{"1234567.891", "000000123456789"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Money15(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestCentsRoundTrip(t *testing.T) {
	d := decimal.RequireFromString("700.00")
	cents := Cents(d)
	assert.Equal(t, int64(70000), cents)
	assert.True(t, FromCents(cents).Equal(d))
	assert.Equal(t, "12.35", Amount2(FromCents(Cents(decimal.RequireFromString("12.345")))))
}

func TestParseAmount(t *testing.T) {
	d, ok := ParseAmount(" 120,50 ")
	assert.True(t, ok)
	assert.Equal(t, "120.50", Amount2(d))

	_, ok = ParseAmount("")
	assert.False(t, ok)

	_, ok = ParseAmount("1.000,00")
	assert.False(t, ok)
}
