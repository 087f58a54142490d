package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Shetty-boy/Omnichannel-Agent-AI/internal/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type paymentDoc struct {
	PaymentID string    `bson:"paymentId"`
	OrderID   string    `bson:"orderId"`
	Amount    float64   `bson:"amount"`
	Method    string    `bson:"method"`
	Status    string    `bson:"status"`
	Timestamp time.Time `bson:"timestamp"`
}

// PaymentStore implements port.Payments over the orders and payments
// collections.
type PaymentStore struct {
	orders   *mongo.Collection
	payments *mongo.Collection
	logger   *zap.Logger
}

// NewPaymentStore creates the payment collaborator.
func NewPaymentStore(db *mongo.Database, logger *zap.Logger) *PaymentStore {
	return &PaymentStore{
		orders:   db.Collection(collOrders),
		payments: db.Collection(collPayments),
		logger:   logger,
	}
}

func newPaymentID() string {
	return "PAY-" + strings.ToUpper(uuid.NewString()[:8])
}

// authorize is the mock payment gateway. The method label comes straight
// from the customer's message.
func authorize(method string) (bool, string) {
	m := strings.ToLower(method)
	switch {
	case strings.Contains(m, "pos"):
		return true, "Authorized by POS terminal"
	case strings.Contains(m, "upi"):
		return true, "UPI payment successful"
	case strings.Contains(m, "card"):
		return true, "Card authorized"
	}
	return false, "Unsupported payment method"
}

// Pay captures payment for an order. Idempotent per order id: an order that
// is already PAID returns its existing payment id instead of charging again.
func (s *PaymentStore) Pay(ctx context.Context, orderID, method string) (*domain.PaymentResult, error) {
	opCtx, cancel := opContext(ctx)
	defer cancel()

	order, err := findOrder(opCtx, s.orders, orderID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &domain.PaymentResult{
			Succeeded: false,
			Message:   fmt.Sprintf("Payment failed: order %s not found.", orderID),
		}, nil
	}
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "payments", Err: err}
	}

	if order.Status == orderStatusPaid {
		return &domain.PaymentResult{
			PaymentID: order.PaymentID,
			Amount:    order.TotalAmount,
			Succeeded: true,
			Message:   fmt.Sprintf("This order is already paid. Payment ID: %s", order.PaymentID),
		}, nil
	}

	ok, gatewayMsg := authorize(method)
	doc := paymentDoc{
		PaymentID: newPaymentID(),
		OrderID:   orderID,
		Amount:    order.TotalAmount,
		Method:    method,
		Status:    "SUCCESS",
		Timestamp: time.Now().UTC(),
	}
	if !ok {
		doc.Status = "FAILED"
	}
	if _, err := s.payments.InsertOne(opCtx, doc); err != nil {
		return nil, &domain.ErrExternalService{Service: "payments", Err: err}
	}

	if !ok {
		return &domain.PaymentResult{
			Succeeded: false,
			Message:   fmt.Sprintf("Payment failed: %s. You can try UPI, card, or POS.", gatewayMsg),
		}, nil
	}

	_, err = s.orders.UpdateOne(opCtx,
		bson.M{"orderId": orderID},
		bson.M{"$set": bson.M{"status": orderStatusPaid, "paymentId": doc.PaymentID}},
	)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "payments", Err: err}
	}

	s.logger.Info("payment captured",
		zap.String("order_id", orderID),
		zap.String("payment_id", doc.PaymentID),
		zap.Float64("amount", doc.Amount),
	)
	return &domain.PaymentResult{
		PaymentID: doc.PaymentID,
		Amount:    doc.Amount,
		Succeeded: true,
		Message: fmt.Sprintf("PAYMENT SUCCESS\nPayment ID: %s\nAmount: ₹%.2f\n%s",
			doc.PaymentID, doc.Amount, gatewayMsg),
	}, nil
}
