// Package funnel implements the conversation orchestration state machine:
// it resolves free-text customer messages into funnel actions, sequences the
// catalog/inventory/order/payment/loyalty collaborators, and guarantees the
// session never ends a turn in an inconsistent stage.
package funnel

import (
	"strconv"
	"strings"

	"github.com/Shetty-boy/Omnichannel-Agent-AI/internal/domain"
)

// categoryEntry pairs a catalog category with the keywords that map to it.
// The table is an ordered slice, not a map: resolution walks entries top to
// bottom and the first category with a matching keyword wins, so the result
// is identical across runs. Order matters — "running shoes" must hit
// Sportswear before the generic "shoes" entry under Footwear.
type categoryEntry struct {
	category string
	keywords []string
}

var categoryTable = []categoryEntry{
	{"Sportswear", []string{"running shoes", "sneakers", "trainers", "gym", "sports", "jogging", "activewear"}},
	{"Ethnic Wear", []string{"kurta", "saree", "lehenga", "ethnic", "festive"}},
	{"Formal Wear", []string{"blazer", "suit", "formal", "office wear", "tie"}},
	{"Casual Wear", []string{"t-shirt", "tshirt", "jeans", "hoodie", "casual", "shirt"}},
	{"Footwear", []string{"shoes", "sandals", "boots", "slippers", "footwear"}},
	{"Accessories", []string{"watch", "belt", "wallet", "stole", "scarf", "sunglasses", "handbag", "accessories"}},
}

// ResolveCategory maps free text to a catalog category using the ordered
// keyword table. Returns false when no keyword matches. No side effects.
func ResolveCategory(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, entry := range categoryTable {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.category, true
			}
		}
	}
	return "", false
}

// affirmationWords are short tokens treated as context-dependent
// confirmations rather than new intent. Matched on whole words, not
// substrings: "look" must not count because it contains "ok".
var affirmationWords = map[string]bool{
	"yes": true, "yeah": true, "yep": true, "sure": true,
	"ok": true, "okay": true, "confirm": true, "proceed": true,
}

var affirmationPhrases = []string{"go ahead", "please do", "sounds good"}

func isAffirmation(text string) bool {
	lower := strings.ToLower(text)
	for _, field := range strings.Fields(lower) {
		if affirmationWords[strings.Trim(field, ".,!?")] {
			return true
		}
	}
	for _, p := range affirmationPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// storeKeywords trigger an availability/stock check for the selected product.
var storeKeywords = []string{
	"store", "nearby", "location", "mall", "in-store", "branch", "pickup", "pick up", "availability", "available",
}

func mentionsStore(text string) bool {
	lower := strings.ToLower(text)
	for _, w := range storeKeywords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// postPurchaseIntent maps post-purchase keywords to a request type. Checked
// before every other rule: post-purchase is orthogonal to the funnel and
// reachable from any stage once an order exists. Track wins over return wins
// over feedback when several keywords appear.
func postPurchaseIntent(text string) (domain.PostPurchaseType, bool) {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "track"):
		return domain.PostPurchaseTrack, true
	case strings.Contains(lower, "return"), strings.Contains(lower, "refund"), strings.Contains(lower, "exchange"):
		return domain.PostPurchaseReturn, true
	case strings.Contains(lower, "feedback"), strings.Contains(lower, "review"), strings.Contains(lower, "rating"):
		return domain.PostPurchaseFeedback, true
	}
	return "", false
}

// parseRating pulls a 1-5 rating out of a feedback message, defaulting to 5.
func parseRating(text string) int {
	for _, field := range strings.Fields(text) {
		if n, err := strconv.Atoi(strings.Trim(field, ".,!/")); err == nil && n >= 1 && n <= 5 {
			return n
		}
	}
	return 5
}
