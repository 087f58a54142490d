package funnel

import (
	"strconv"
	"strings"

	"github.com/Shetty-boy/Omnichannel-Agent-AI/internal/domain"
)

// ParseSelection maps free text to one of the recommendations previously
// shown to the customer. Rules, in order:
//
//  1. A plain base-10 integer n with 1 <= n <= len(recs) picks the n-th
//     entry (1-indexed for display, 0-indexed in storage). Out-of-range
//     numbers fall through instead of erroring.
//  2. Otherwise the first recommendation whose name is a case-insensitive
//     substring of the text wins.
//
// Returns nil when nothing matches.
func ParseSelection(text string, recs []domain.Product) *domain.Product {
	trimmed := strings.TrimSpace(text)

	if n, err := strconv.Atoi(trimmed); err == nil {
		if n >= 1 && n <= len(recs) {
			return &recs[n-1]
		}
	}

	lower := strings.ToLower(text)
	for i := range recs {
		if name := strings.ToLower(recs[i].Name); name != "" && strings.Contains(lower, name) {
			return &recs[i]
		}
	}
	return nil
}
