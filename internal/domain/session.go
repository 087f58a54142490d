package domain

import (
	"fmt"
	"time"
)

// GuestCustomerID is the identity used for unauthenticated shoppers.
const GuestCustomerID = "CUST_GUEST"

// Stage is the current step of the purchase funnel for a session.
// It is a closed enum: every transition goes through Session.Advance,
// which rejects anything not in the transition table.
type Stage string

const (
	StageBrowsing           Stage = "BROWSING"
	StageAwaitingSelection  Stage = "AWAITING_SELECTION"
	StageAvailability       Stage = "AVAILABILITY"
	StageConfirmReservation Stage = "CONFIRM_RESERVATION"
	StageLoyalty            Stage = "LOYALTY"
	StagePayment            Stage = "PAYMENT"
	StageCompleted          Stage = "COMPLETED"
	StagePostPurchase       Stage = "POST_PURCHASE"
)

// Valid reports whether s is one of the enumerated stages.
func (s Stage) Valid() bool {
	switch s {
	case StageBrowsing, StageAwaitingSelection, StageAvailability,
		StageConfirmReservation, StageLoyalty, StagePayment,
		StageCompleted, StagePostPurchase:
		return true
	}
	return false
}

// stageTransitions is the set of legal funnel moves. BROWSING is always a
// legal target: any stage can be reset back to discovery on a topic change.
var stageTransitions = map[Stage][]Stage{
	StageBrowsing:           {StageAwaitingSelection},
	StageAwaitingSelection:  {StageAvailability, StageBrowsing},
	StageAvailability:       {StageConfirmReservation, StageBrowsing},
	StageConfirmReservation: {StageLoyalty, StageBrowsing},
	StageLoyalty:            {StagePayment, StageBrowsing},
	StagePayment:            {StageCompleted, StageBrowsing},
	StageCompleted:          {StageBrowsing},
	StagePostPurchase:       {StageBrowsing},
}

// Session is the per-customer conversation state, mutated once per turn and
// persisted by the session store between turns. The orchestrator never
// destroys a session; expiry belongs to the store.
type Session struct {
	CustomerID      string    `json:"customer_id"`
	Stage           Stage     `json:"stage"`
	LastCategory    string    `json:"last_category,omitempty"`
	Recommendations []Product `json:"recommendations,omitempty"`
	Selected        *Product  `json:"selected_product,omitempty"`
	OrderID         string    `json:"order_id,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewSession returns a fresh session at the start of the funnel.
func NewSession(customerID string) *Session {
	if customerID == "" {
		customerID = GuestCustomerID
	}
	return &Session{
		CustomerID: customerID,
		Stage:      StageBrowsing,
	}
}

// Advance moves the session to the given stage, validating the move against
// the transition table. Same-stage "advances" are no-ops.
func (s *Session) Advance(to Stage) error {
	if !to.Valid() {
		return fmt.Errorf("unknown stage %q", to)
	}
	if s.Stage == "" {
		s.Stage = StageBrowsing
	}
	if s.Stage == to {
		return nil
	}
	for _, allowed := range stageTransitions[s.Stage] {
		if allowed == to {
			s.Stage = to
			return nil
		}
	}
	return fmt.Errorf("illegal stage transition %s -> %s", s.Stage, to)
}

// ResetDiscovery clears the current discovery round and returns the session
// to BROWSING. Used on topic changes so a stale recommendation list cannot
// swallow a new query. OrderID is deliberately kept: post-purchase remains
// reachable after a reset.
func (s *Session) ResetDiscovery() {
	s.Recommendations = nil
	s.Selected = nil
	s.LastCategory = ""
	s.Stage = StageBrowsing
}
