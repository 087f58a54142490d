package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shetty-boy/Omnichannel-Agent-AI/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxPointCoverage caps how much of the running price loyalty points may
// cover.
const maxPointCoverage = 0.50

type promoDoc struct {
	PromoID  string  `bson:"promoId"`
	Name     string  `bson:"name"`
	Discount float64 `bson:"discount"` // percentage
}

type loyaltyAccountDoc struct {
	CustomerID string  `bson:"customerId"`
	Points     float64 `bson:"points"`
}

// LoyaltyStore implements port.Loyalty over the promotions and
// loyalty_accounts collections.
type LoyaltyStore struct {
	promos   *mongo.Collection
	accounts *mongo.Collection
	logger   *zap.Logger
}

// NewLoyaltyStore creates the loyalty/pricing collaborator.
func NewLoyaltyStore(db *mongo.Database, logger *zap.Logger) *LoyaltyStore {
	return &LoyaltyStore{
		promos:   db.Collection(collPromos),
		accounts: db.Collection(collLoyalty),
		logger:   logger,
	}
}

// Price applies the coupon (if any) and then loyalty points, capped at half
// the running price. An unknown coupon is reported in the breakdown lines,
// not as an error. Promotion and balance lookups run concurrently.
func (s *LoyaltyStore) Price(ctx context.Context, req *domain.PricingRequest) (*domain.PriceBreakdown, error) {
	opCtx, cancel := opContext(ctx)
	defer cancel()

	var (
		promo   *promoDoc
		balance float64
	)
	g, gCtx := errgroup.WithContext(opCtx)

	if req.CouponCode != "" {
		g.Go(func() error {
			var doc promoDoc
			err := s.promos.FindOne(gCtx, bson.M{"$or": bson.A{
				bson.M{"promoId": req.CouponCode},
				bson.M{"name": bson.M{"$regex": req.CouponCode, "$options": "i"}},
			}}).Decode(&doc)
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil
			}
			if err != nil {
				return err
			}
			promo = &doc
			return nil
		})
	}
	if req.UsePoints {
		g.Go(func() error {
			var acc loyaltyAccountDoc
			err := s.accounts.FindOne(gCtx, bson.M{"customerId": req.CustomerID}).Decode(&acc)
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil
			}
			if err != nil {
				return err
			}
			balance = acc.Points
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, &domain.ErrExternalService{Service: "loyalty", Err: err}
	}

	breakdown := &domain.PriceBreakdown{
		Original: req.BasePrice,
		Final:    req.BasePrice,
	}

	if req.CouponCode != "" {
		if promo != nil && promo.Discount > 0 {
			amount := req.BasePrice * promo.Discount / 100
			breakdown.Final -= amount
			breakdown.Savings += amount
			breakdown.Lines = append(breakdown.Lines,
				fmt.Sprintf("Coupon %s: -₹%.2f", promo.Name, amount))
		} else {
			breakdown.Lines = append(breakdown.Lines,
				fmt.Sprintf("Coupon %s is not valid", req.CouponCode))
		}
	}

	if req.UsePoints && balance > 0 {
		maxRedeem := breakdown.Final * maxPointCoverage
		redeem := balance
		if redeem > maxRedeem {
			redeem = maxRedeem
		}
		if redeem > 0 {
			breakdown.Final -= redeem
			breakdown.Savings += redeem
			breakdown.Lines = append(breakdown.Lines,
				fmt.Sprintf("Loyalty points applied: -₹%.2f", redeem))
		}
	}

	s.logger.Debug("price calculated",
		zap.String("customer_id", req.CustomerID),
		zap.Float64("original", breakdown.Original),
		zap.Float64("final", breakdown.Final),
	)
	return breakdown, nil
}
