package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shetty-boy/Omnichannel-Agent-AI/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// PostPurchaseStore implements port.PostPurchase: tracking, returns (with
// restock) and feedback for existing orders.
type PostPurchaseStore struct {
	orders    *mongo.Collection
	inventory *mongo.Collection
	feedback  *mongo.Collection
	logger    *zap.Logger
}

// NewPostPurchaseStore creates the post-purchase collaborator.
func NewPostPurchaseStore(db *mongo.Database, logger *zap.Logger) *PostPurchaseStore {
	return &PostPurchaseStore{
		orders:    db.Collection(collOrders),
		inventory: db.Collection(collInventory),
		feedback:  db.Collection(collFeedback),
		logger:    logger,
	}
}

// Act dispatches a TRACK, RETURN or FEEDBACK request for the order.
func (s *PostPurchaseStore) Act(ctx context.Context, req *domain.PostPurchaseRequest) (string, error) {
	opCtx, cancel := opContext(ctx)
	defer cancel()

	order, err := findOrder(opCtx, s.orders, req.OrderID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Sprintf("I couldn't find order %s. Please double-check the order ID.", req.OrderID), nil
	}
	if err != nil {
		return "", &domain.ErrExternalService{Service: "post_purchase", Err: err}
	}

	switch req.Type {
	case domain.PostPurchaseTrack:
		return fmt.Sprintf("Order %s is %s, fulfillment: %s at %s.",
			order.OrderID, order.Status, order.Fulfillment.Type, order.Fulfillment.Location), nil

	case domain.PostPurchaseReturn:
		return s.processReturn(opCtx, order, req.Details)

	case domain.PostPurchaseFeedback:
		rating := req.Rating
		if rating == 0 {
			rating = 5
		}
		_, err := s.feedback.InsertOne(opCtx, bson.M{
			"orderId":    order.OrderID,
			"customerId": order.CustomerID,
			"rating":     rating,
			"comment":    req.Details,
			"date":       time.Now().UTC(),
		})
		if err != nil {
			return "", &domain.ErrExternalService{Service: "post_purchase", Err: err}
		}
		return fmt.Sprintf("Thanks for your feedback (%d/5)!", rating), nil
	}

	return "I can help you track an order, arrange a return, or take feedback — which would you like?", nil
}

// processReturn marks the order returned and restocks its items at the
// fulfillment location.
func (s *PostPurchaseStore) processReturn(ctx context.Context, order *orderDoc, reason string) (string, error) {
	if order.Status == orderStatusReturned {
		return fmt.Sprintf("Order %s has already been returned.", order.OrderID), nil
	}

	_, err := s.orders.UpdateOne(ctx,
		bson.M{"orderId": order.OrderID},
		bson.M{"$set": bson.M{
			"status":       orderStatusReturned,
			"returnReason": reason,
			"returnDate":   time.Now().UTC(),
		}},
	)
	if err != nil {
		return "", &domain.ErrExternalService{Service: "post_purchase", Err: err}
	}

	for _, item := range order.Items {
		_, err := s.inventory.UpdateOne(ctx,
			bson.M{
				"productId":                  item.ProductID,
				"stockByLocation.locationId": order.Fulfillment.Location,
			},
			bson.M{"$inc": bson.M{"stockByLocation.$.qty": item.Qty}},
		)
		if err != nil {
			// The return itself went through; a restock miss is an
			// inventory reconciliation problem, not the customer's.
			s.logger.Warn("restock failed",
				zap.String("order_id", order.OrderID),
				zap.String("product_id", item.ProductID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("return processed", zap.String("order_id", order.OrderID))
	return fmt.Sprintf("Return processed for order %s. Your refund will follow the original payment method.", order.OrderID), nil
}
