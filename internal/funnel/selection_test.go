package funnel_test

import (
	"testing"

	"github.com/Shetty-boy/Omnichannel-Agent-AI/internal/domain"
	"github.com/Shetty-boy/Omnichannel-Agent-AI/internal/funnel"
)

var recs = []domain.Product{
	{ProductID: "P1", Name: "Festive Kurta", Price: 2499},
	{ProductID: "P2", Name: "Ethnic Jacket", Price: 3999},
	{ProductID: "P3", Name: "Silk Saree", Price: 5499},
}

func TestParseSelection_ByOrdinal(t *testing.T) {
	got := funnel.ParseSelection("2", recs)
	if got == nil || got.Name != "Ethnic Jacket" {
		t.Fatalf("expected Ethnic Jacket, got %+v", got)
	}
}

func TestParseSelection_OrdinalOutOfRange(t *testing.T) {
	if got := funnel.ParseSelection("0", recs); got != nil {
		t.Errorf("expected nil for 0, got %+v", got)
	}
	if got := funnel.ParseSelection("4", recs); got != nil {
		t.Errorf("expected nil for 4, got %+v", got)
	}
}

func TestParseSelection_ByNameCaseInsensitive(t *testing.T) {
	got := funnel.ParseSelection("I'll take the FESTIVE kurta please", recs)
	if got == nil || got.ProductID != "P1" {
		t.Fatalf("expected P1, got %+v", got)
	}
}

func TestParseSelection_NoMatch(t *testing.T) {
	if got := funnel.ParseSelection("the blue one", recs); got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestParseSelection_EmptyRecommendations(t *testing.T) {
	if got := funnel.ParseSelection("1", nil); got != nil {
		t.Errorf("expected nil with no recommendations, got %+v", got)
	}
}
