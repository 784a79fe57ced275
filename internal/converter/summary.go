package converter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ginjaninja78/sunat-detracciones/internal/types"
)

// ReasonCount is one line of the rejection summary.
type ReasonCount struct {
	Reason string
	Count  int
}

// TopReasons returns the n most frequent rejection reasons, by count
// descending; ties keep the order in which the reason first appeared.
func TopReasons(rejections []types.Rejection, n int) []ReasonCount {
	index := make(map[string]int)
	var counts []ReasonCount
	for _, r := range rejections {
		reason := r.Reason
		if reason == "" {
			reason = "(sin motivo)"
		}
		if i, ok := index[reason]; ok {
			counts[i].Count++
			continue
		}
		index[reason] = len(counts)
		counts = append(counts, ReasonCount{Reason: reason, Count: 1})
	}

	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })
	if n > 0 && len(counts) > n {
		counts = counts[:n]
	}
	return counts
}

// Summarize renders the top reasons as
// "Motivos principales: reason → n; reason → n".
func Summarize(rejections []types.Rejection, n int) string {
	if len(rejections) == 0 {
		return "No hay registros en omitidos."
	}
	top := TopReasons(rejections, n)
	parts := make([]string, len(top))
	for i, rc := range top {
		parts[i] = fmt.Sprintf("%s → %d", rc.Reason, rc.Count)
	}
	return "Motivos principales: " + strings.Join(parts, "; ")
}
