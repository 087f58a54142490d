package domain

// Fulfillment types accepted by the order collaborator.
const (
	FulfillmentPickup   = "PICKUP"
	FulfillmentDelivery = "DELIVERY"
)

// OrderRequest asks the order collaborator to reserve stock and create an
// order record.
type OrderRequest struct {
	ProductID       string  `json:"product_id"`
	ProductName     string  `json:"product_name"`
	UnitPrice       float64 `json:"unit_price"`
	Quantity        int     `json:"quantity"`
	FulfillmentType string  `json:"fulfillment_type"`
	Location        string  `json:"location"`
	CustomerID      string  `json:"customer_id"`
}

// OrderResult carries the outcome of an order placement. OrderID is the
// authoritative identifier; Raw keeps the collaborator's human-readable
// confirmation for collaborators that only produce text.
type OrderResult struct {
	OrderID string  `json:"order_id,omitempty"`
	Total   float64 `json:"total,omitempty"`
	Raw     string  `json:"raw"`
}

// PaymentResult is the outcome of a payment capture. Pay is idempotent per
// order id: paying an already-paid order returns the prior PaymentID.
type PaymentResult struct {
	PaymentID string  `json:"payment_id,omitempty"`
	Amount    float64 `json:"amount,omitempty"`
	Succeeded bool    `json:"succeeded"`
	Message   string  `json:"message"`
}

// PricingRequest asks the loyalty collaborator for a final price.
type PricingRequest struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	BasePrice   float64 `json:"base_price"`
	CustomerID  string  `json:"customer_id"`
	CouponCode  string  `json:"coupon_code,omitempty"`
	UsePoints   bool    `json:"use_points"`
}

// PriceBreakdown is the loyalty collaborator's answer: applied adjustments,
// final payable price and total savings.
type PriceBreakdown struct {
	Original float64  `json:"original"`
	Final    float64  `json:"final"`
	Savings  float64  `json:"savings"`
	Lines    []string `json:"lines,omitempty"`
}

// PostPurchaseType selects the post-purchase action.
type PostPurchaseType string

const (
	PostPurchaseTrack    PostPurchaseType = "TRACK"
	PostPurchaseReturn   PostPurchaseType = "RETURN"
	PostPurchaseFeedback PostPurchaseType = "FEEDBACK"
)

// PostPurchaseRequest is a track/return/feedback request for an existing
// order. Rating applies to FEEDBACK only.
type PostPurchaseRequest struct {
	Type    PostPurchaseType `json:"type"`
	OrderID string           `json:"order_id"`
	Details string           `json:"details,omitempty"`
	Rating  int              `json:"rating,omitempty"`
}
