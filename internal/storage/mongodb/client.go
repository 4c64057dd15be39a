// Package mongodb implements the product and order repositories on MongoDB.
package mongodb

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names.
const (
	ProductsCollection = "products"
	OrdersCollection   = "orders"
)

// Config holds connection settings for the document store.
type Config struct {
	URI            string
	ConnectTimeout time.Duration
	// QueryTimeout bounds every operation issued through the client.
	// Zero leaves operations bounded only by the caller's context.
	QueryTimeout time.Duration
}

// Connect creates a client with the decimal-aware registry and verifies the
// deployment is reachable. The client is safe for concurrent use and should
// be created once per process.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetRegistry(NewRegistry())
	if cfg.QueryTimeout > 0 {
		opts.SetTimeout(cfg.QueryTimeout)
	}

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "connect")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "ping")
	}
	return client, nil
}

// EnsureIndexes creates the indexes used by the listing queries.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(OrdersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "_id", Value: -1}},
	})
	if err != nil {
		return errors.Wrap(err, "create orders index")
	}

	_, err = db.Collection(ProductsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}},
		{Keys: bson.D{{Key: "sizes.size", Value: 1}}},
	})
	if err != nil {
		return errors.Wrap(err, "create products indexes")
	}
	return nil
}
