package mongo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Shetty-boy/Omnichannel-Agent-AI/internal/domain"
	"github.com/Shetty-boy/Omnichannel-Agent-AI/internal/infra/observability"
	"github.com/Shetty-boy/Omnichannel-Agent-AI/internal/port"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// CatalogStore implements port.Catalog over the products collection. Search
// results for a (category, query) pair are TTL-cached: discovery rounds for
// popular categories repeat constantly.
type CatalogStore struct {
	products *mongo.Collection
	cache    port.Cache[[]domain.Product]
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewCatalogStore creates the catalog collaborator.
func NewCatalogStore(db *mongo.Database, cache port.Cache[[]domain.Product], metrics *observability.Metrics, logger *zap.Logger) *CatalogStore {
	return &CatalogStore{
		products: db.Collection(collProducts),
		cache:    cache,
		metrics:  metrics,
		logger:   logger,
	}
}

// Search returns up to limit products matching the category and/or free-text
// query, in stable catalog order.
func (s *CatalogStore) Search(ctx context.Context, category, query string, limit int) ([]domain.Product, error) {
	cacheKey := fmt.Sprintf("search:%s:%s:%d", strings.ToLower(category), strings.ToLower(query), limit)
	if cached, ok := s.cache.Get(cacheKey); ok {
		s.metrics.IncrCacheHit("product")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("product")

	filter := bson.M{}
	if category != "" {
		filter["category"] = bson.M{"$regex": category, "$options": "i"}
	}
	if query != "" {
		filter["$or"] = bson.A{
			bson.M{"name": bson.M{"$regex": query, "$options": "i"}},
			bson.M{"tags": bson.M{"$regex": query, "$options": "i"}},
			bson.M{"description": bson.M{"$regex": query, "$options": "i"}},
		}
	}

	opCtx, cancel := opContext(ctx)
	defer cancel()

	findOpts := options.Find().
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := s.products.Find(opCtx, filter, findOpts)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "catalog", Err: err}
	}
	defer cursor.Close(opCtx)

	var products []domain.Product
	if err := cursor.All(opCtx, &products); err != nil {
		return nil, &domain.ErrExternalService{Service: "catalog", Err: err}
	}

	s.logger.Debug("catalog search",
		zap.String("category", category),
		zap.Int("results", len(products)),
	)
	s.cache.Set(cacheKey, products)
	return products, nil
}
