// Package mongo implements the catalog, inventory, order, payment, loyalty
// and post-purchase collaborators on top of MongoDB. The funnel orchestrator
// only ever sees these through the port interfaces.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names shared by the collaborator stores.
const (
	collProducts  = "products"
	collInventory = "inventory"
	collOrders    = "orders"
	collPayments  = "payments"
	collPromos    = "promotions"
	collLoyalty   = "loyalty_accounts"
	collFeedback  = "feedback"
)

const opTimeout = 5 * time.Second

// Connect dials MongoDB and verifies the connection with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

func opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, opTimeout)
}
