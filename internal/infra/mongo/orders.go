package mongo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Shetty-boy/Omnichannel-Agent-AI/internal/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Order lifecycle statuses.
const (
	orderStatusConfirmed = "CONFIRMED"
	orderStatusPaid      = "PAID"
	orderStatusReturned  = "RETURNED"
)

type orderItem struct {
	ProductID string  `bson:"productId"`
	Name      string  `bson:"name"`
	Qty       int     `bson:"qty"`
	Price     float64 `bson:"price"`
}

type orderFulfillment struct {
	Type     string `bson:"type"`
	Location string `bson:"location"`
}

type orderDoc struct {
	OrderID     string           `bson:"orderId"`
	CustomerID  string           `bson:"customerId"`
	Items       []orderItem      `bson:"items"`
	TotalAmount float64          `bson:"totalAmount"`
	Status      string           `bson:"status"`
	PaymentID   string           `bson:"paymentId,omitempty"`
	Fulfillment orderFulfillment `bson:"fulfillment"`
	OrderDate   time.Time        `bson:"orderDate"`
}

// OrderStore implements port.Orders over the orders collection.
type OrderStore struct {
	orders *mongo.Collection
	logger *zap.Logger
}

// NewOrderStore creates the order placement collaborator.
func NewOrderStore(db *mongo.Database, logger *zap.Logger) *OrderStore {
	return &OrderStore{
		orders: db.Collection(collOrders),
		logger: logger,
	}
}

func newOrderID() string {
	return "ORD-" + strings.ToUpper(uuid.NewString()[:8])
}

// Place creates a confirmed order record and returns its identifier along
// with a human-readable confirmation.
func (s *OrderStore) Place(ctx context.Context, req *domain.OrderRequest) (*domain.OrderResult, error) {
	if req.Quantity <= 0 {
		return nil, &domain.ErrValidation{Field: "quantity", Message: "must be positive"}
	}

	opCtx, cancel := opContext(ctx)
	defer cancel()

	customerID := req.CustomerID
	if customerID == "" {
		customerID = domain.GuestCustomerID
	}

	doc := orderDoc{
		OrderID:    newOrderID(),
		CustomerID: customerID,
		Items: []orderItem{{
			ProductID: req.ProductID,
			Name:      req.ProductName,
			Qty:       req.Quantity,
			Price:     req.UnitPrice,
		}},
		TotalAmount: req.UnitPrice * float64(req.Quantity),
		Status:      orderStatusConfirmed,
		Fulfillment: orderFulfillment{
			Type:     strings.ToUpper(req.FulfillmentType),
			Location: req.Location,
		},
		OrderDate: time.Now().UTC(),
	}

	if _, err := s.orders.InsertOne(opCtx, doc); err != nil {
		return nil, &domain.ErrExternalService{Service: "orders", Err: err}
	}

	s.logger.Info("order placed",
		zap.String("order_id", doc.OrderID),
		zap.String("customer_id", doc.CustomerID),
		zap.Float64("total", doc.TotalAmount),
	)
	return &domain.OrderResult{
		OrderID: doc.OrderID,
		Total:   doc.TotalAmount,
		Raw: fmt.Sprintf("ORDER CONFIRMED\nOrder ID: %s\nTotal: ₹%.2f\nNext step: Payment",
			doc.OrderID, doc.TotalAmount),
	}, nil
}

// findOrder is shared with the payment and post-purchase stores.
func findOrder(ctx context.Context, orders *mongo.Collection, orderID string) (*orderDoc, error) {
	var doc orderDoc
	err := orders.FindOne(ctx, bson.M{"orderId": orderID}).Decode(&doc)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}
