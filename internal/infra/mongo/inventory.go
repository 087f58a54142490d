package mongo

import (
	"context"
	"errors"

	"github.com/Shetty-boy/Omnichannel-Agent-AI/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// stockEntry is one element of an inventory document's stockByLocation array.
type stockEntry struct {
	LocationID string `bson:"locationId"`
	Qty        int    `bson:"qty"`
}

type inventoryDoc struct {
	ProductID       string       `bson:"productId"`
	StockByLocation []stockEntry `bson:"stockByLocation"`
}

// InventoryStore implements port.Inventory over the products and inventory
// collections.
type InventoryStore struct {
	products  *mongo.Collection
	inventory *mongo.Collection
	logger    *zap.Logger
}

// NewInventoryStore creates the inventory collaborator.
func NewInventoryStore(db *mongo.Database, logger *zap.Logger) *InventoryStore {
	return &InventoryStore{
		products:  db.Collection(collProducts),
		inventory: db.Collection(collInventory),
		logger:    logger,
	}
}

// Check reports stock for the product: overall status, total quantity and
// the per-location breakdown. An unknown product is a not_found report, not
// an error; a missing inventory document means out of stock.
func (s *InventoryStore) Check(ctx context.Context, productID string) (*domain.StockReport, error) {
	opCtx, cancel := opContext(ctx)
	defer cancel()

	var product domain.Product
	err := s.products.FindOne(opCtx, bson.M{"productId": productID}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &domain.StockReport{Status: domain.StockNotFound}, nil
	}
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "inventory", Err: err}
	}

	var inv inventoryDoc
	err = s.inventory.FindOne(opCtx, bson.M{"productId": productID}).Decode(&inv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &domain.StockReport{
			Status: domain.StockOutOfStock,
			Name:   product.Name,
			Price:  product.Price,
		}, nil
	}
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "inventory", Err: err}
	}

	report := &domain.StockReport{
		Name:      product.Name,
		Price:     product.Price,
		Locations: make(map[string]int, len(inv.StockByLocation)),
	}
	for _, entry := range inv.StockByLocation {
		report.TotalQty += entry.Qty
		report.Locations[entry.LocationID] = entry.Qty
	}
	if report.TotalQty > 0 {
		report.Status = domain.StockInStock
	} else {
		report.Status = domain.StockOutOfStock
	}

	s.logger.Debug("inventory check",
		zap.String("product_id", productID),
		zap.String("status", string(report.Status)),
		zap.Int("total_qty", report.TotalQty),
	)
	return report, nil
}
