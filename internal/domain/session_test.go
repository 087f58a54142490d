package domain_test

import (
	"testing"

	"github.com/Shetty-boy/Omnichannel-Agent-AI/internal/domain"
)

func TestStage_Valid(t *testing.T) {
	valid := []domain.Stage{
		domain.StageBrowsing, domain.StageAwaitingSelection, domain.StageAvailability,
		domain.StageConfirmReservation, domain.StageLoyalty, domain.StagePayment,
		domain.StageCompleted, domain.StagePostPurchase,
	}
	for _, s := range valid {
		if !s.Valid() {
			t.Errorf("expected %s to be valid", s)
		}
	}
	if domain.Stage("CHECKOUT").Valid() {
		t.Error("expected CHECKOUT to be invalid")
	}
}

func TestSession_AdvanceHappyPath(t *testing.T) {
	sess := domain.NewSession("cust-1")
	path := []domain.Stage{
		domain.StageAwaitingSelection,
		domain.StageAvailability,
		domain.StageConfirmReservation,
		domain.StageLoyalty,
		domain.StagePayment,
		domain.StageCompleted,
	}
	for _, next := range path {
		if err := sess.Advance(next); err != nil {
			t.Fatalf("advance to %s: %v", next, err)
		}
	}
	if sess.Stage != domain.StageCompleted {
		t.Errorf("expected COMPLETED, got %s", sess.Stage)
	}
}

func TestSession_AdvanceRejectsSkips(t *testing.T) {
	sess := domain.NewSession("cust-1")
	if err := sess.Advance(domain.StagePayment); err == nil {
		t.Fatal("expected error for BROWSING -> PAYMENT")
	}
	if sess.Stage != domain.StageBrowsing {
		t.Errorf("failed advance must not change stage, got %s", sess.Stage)
	}
}

func TestSession_AdvanceRejectsUnknownStage(t *testing.T) {
	sess := domain.NewSession("cust-1")
	if err := sess.Advance(domain.Stage("LIMBO")); err == nil {
		t.Fatal("expected error for unknown stage")
	}
}

func TestSession_AdvanceSameStageIsNoop(t *testing.T) {
	sess := domain.NewSession("cust-1")
	if err := sess.Advance(domain.StageBrowsing); err != nil {
		t.Fatalf("same-stage advance should be a no-op, got %v", err)
	}
}

func TestSession_ResetDiscoveryKeepsOrder(t *testing.T) {
	sess := domain.NewSession("cust-1")
	sess.Stage = domain.StageAvailability
	sess.LastCategory = "Sportswear"
	sess.Recommendations = []domain.Product{{ProductID: "P1", Name: "Trail Runner"}}
	sess.Selected = &sess.Recommendations[0]
	sess.OrderID = "ORD-12345678"

	sess.ResetDiscovery()

	if sess.Stage != domain.StageBrowsing {
		t.Errorf("expected BROWSING, got %s", sess.Stage)
	}
	if sess.Recommendations != nil || sess.Selected != nil || sess.LastCategory != "" {
		t.Error("expected discovery state to be cleared")
	}
	if sess.OrderID != "ORD-12345678" {
		t.Error("reset must keep the order id for post-purchase")
	}
}

func TestNewSession_DefaultsToGuest(t *testing.T) {
	sess := domain.NewSession("")
	if sess.CustomerID != domain.GuestCustomerID {
		t.Errorf("expected guest sentinel, got %s", sess.CustomerID)
	}
	if sess.Stage != domain.StageBrowsing {
		t.Errorf("expected BROWSING, got %s", sess.Stage)
	}
}
