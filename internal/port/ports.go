// Package port defines the interfaces (ports) for external collaborators.
// Following hexagonal architecture, these ports decouple the funnel
// orchestrator from concrete implementations: the core never knows whether
// the catalog is Mongo, a fixture, or a remote API.
package port

import (
	"context"

	"github.com/Shetty-boy/Omnichannel-Agent-AI/internal/domain"
)

// SessionStore loads and persists per-customer funnel sessions. Load returns
// a fresh session when the id is unknown; expiry is the store's concern, as
// is write coordination for racing turns on the same session id.
type SessionStore interface {
	Load(ctx context.Context, sessionID string) (*domain.Session, error)
	Save(ctx context.Context, sessionID string, sess *domain.Session) error
}

// Catalog searches products for a discovery round. Category and query are
// both optional; limit caps the result size.
type Catalog interface {
	Search(ctx context.Context, category, query string, limit int) ([]domain.Product, error)
}

// Inventory checks real-time stock for a product.
type Inventory interface {
	Check(ctx context.Context, productID string) (*domain.StockReport, error)
}

// Orders places an order and reserves stock.
type Orders interface {
	Place(ctx context.Context, req *domain.OrderRequest) (*domain.OrderResult, error)
}

// Payments captures payment for an order. Implementations must be idempotent
// per order id: a second capture returns the prior payment instead of
// charging twice.
type Payments interface {
	Pay(ctx context.Context, orderID, method string) (*domain.PaymentResult, error)
}

// Loyalty calculates the final price after coupons and loyalty points.
type Loyalty interface {
	Price(ctx context.Context, req *domain.PricingRequest) (*domain.PriceBreakdown, error)
}

// PostPurchase handles track/return/feedback requests for an existing order.
// RETURN restocks the order's items as a side effect owned by the
// implementation.
type PostPurchase interface {
	Act(ctx context.Context, req *domain.PostPurchaseRequest) (string, error)
}

// ReplyPhraser turns the orchestrator's structured decision into natural
// prose. Optional: the funnel falls back to its canonical reply when the
// phraser is absent or fails.
type ReplyPhraser interface {
	Phrase(ctx context.Context, facts *domain.ReplyFacts) (string, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
