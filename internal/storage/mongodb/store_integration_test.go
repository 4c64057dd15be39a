//go:build integration

package mongodb

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/xenking/storefront-api/internal/domain/order"
	"github.com/xenking/storefront-api/internal/domain/page"
	"github.com/xenking/storefront-api/internal/domain/product"
)

// newTestDatabase starts a disposable MongoDB and returns a fresh database.
func newTestDatabase(t *testing.T) *mongo.Database {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	ctr, err := tcmongo.Run(ctx, "mongo:7")
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	uri, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := Connect(ctx, Config{URI: uri, ConnectTimeout: 30 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Disconnect(context.Background())
	})

	db := client.Database(fmt.Sprintf("shop_%d", time.Now().UnixNano()))
	require.NoError(t, EnsureIndexes(ctx, db))
	return db
}

type fixture struct {
	db       *mongo.Database
	products *ProductRepository
	orders   *OrderRepository
	placer   *order.Service
	lister   *order.Lister
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := newTestDatabase(t)
	products := NewProductRepository(db)
	orders := NewOrderRepository(db)
	placer, err := order.NewService(products, orders, order.Options{})
	require.NoError(t, err)

	return &fixture{
		db:       db,
		products: products,
		orders:   orders,
		placer:   placer,
		lister:   order.NewLister(orders),
	}
}

func (f *fixture) addProduct(t *testing.T, name, price string) primitive.ObjectID {
	t.Helper()

	id, err := f.products.Create(context.Background(), &product.Product{
		Name:  name,
		Price: decimal.RequireFromString(price),
		Sizes: []product.Size{{Size: "M", Quantity: 5}, {Size: "L", Quantity: 0}},
	})
	require.NoError(t, err)
	return id
}

func (f *fixture) placeOrder(t *testing.T, userID string, items ...order.ItemRequest) primitive.ObjectID {
	t.Helper()

	id, err := f.placer.PlaceOrder(context.Background(), order.PlaceOrderRequest{UserID: userID, Items: items})
	require.NoError(t, err)
	return id
}

func (f *fixture) deleteProduct(t *testing.T, id primitive.ObjectID) {
	t.Helper()

	_, err := f.db.Collection(ProductsCollection).DeleteOne(context.Background(), bson.D{{Key: "_id", Value: id}})
	require.NoError(t, err)
}

func (f *fixture) countOrders(t *testing.T) int64 {
	t.Helper()

	n, err := f.db.Collection(OrdersCollection).CountDocuments(context.Background(), bson.D{})
	require.NoError(t, err)
	return n
}

func TestProductRepository(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	shirt := f.addProduct(t, "Blue Shirt", "19.99")
	f.addProduct(t, "Red Shirt", "21.50")
	f.addProduct(t, "Hat", "5.00")

	t.Run("GetByID", func(t *testing.T) {
		p, err := f.products.GetByID(ctx, shirt)
		require.NoError(t, err)
		assert.Equal(t, "Blue Shirt", p.Name)
		assert.True(t, decimal.RequireFromString("19.99").Equal(p.Price))
		assert.Len(t, p.Sizes, 2)
	})

	t.Run("GetByID_NotFound", func(t *testing.T) {
		_, err := f.products.GetByID(ctx, primitive.NewObjectID())
		require.ErrorIs(t, err, product.ErrNotFound)
	})

	t.Run("List_NameFilterCaseInsensitive", func(t *testing.T) {
		got, err := f.products.List(ctx, product.Filter{Name: "shirt"}, page.Request{Limit: 10})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Nil(t, got[0].Sizes, "sizes are projected out")
	})

	t.Run("List_NameFilterIsLiteral", func(t *testing.T) {
		got, err := f.products.List(ctx, product.Filter{Name: ".*"}, page.Request{Limit: 10})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("List_SizeFilter", func(t *testing.T) {
		got, err := f.products.List(ctx, product.Filter{Size: "L"}, page.Request{Limit: 10})
		require.NoError(t, err)
		assert.Len(t, got, 3)

		got, err = f.products.List(ctx, product.Filter{Size: "XXL"}, page.Request{Limit: 10})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("List_Window", func(t *testing.T) {
		got, err := f.products.List(ctx, product.Filter{}, page.Request{Limit: 2, Offset: 1})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Red Shirt", got[0].Name)
	})

	t.Run("UpsertByName", func(t *testing.T) {
		created, err := f.products.UpsertByName(ctx, &product.Product{Name: "Hat", Price: decimal.RequireFromString("6.00")})
		require.NoError(t, err)
		assert.False(t, created)

		created, err = f.products.UpsertByName(ctx, &product.Product{Name: "Scarf", Price: decimal.RequireFromString("9.00")})
		require.NoError(t, err)
		assert.True(t, created)
	})
}

func TestPlaceOrder_TotalAndNoPartialWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shirt := f.addProduct(t, "Shirt", "19.99")

	id := f.placeOrder(t, "u1", order.ItemRequest{ProductID: shirt.Hex(), Quantity: 3})

	var stored orderDoc
	require.NoError(t, f.db.Collection(OrdersCollection).FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&stored))
	assert.True(t, decimal.RequireFromString("59.97").Equal(stored.Total), "got %s", stored.Total)
	assert.Equal(t, "u1", stored.UserID)

	_, err := f.placer.PlaceOrder(ctx, order.PlaceOrderRequest{
		UserID: "u1",
		Items:  []order.ItemRequest{{ProductID: "bogus", Quantity: 1}},
	})
	var invErr *product.InvalidIDError
	require.ErrorAs(t, err, &invErr)

	_, err = f.placer.PlaceOrder(ctx, order.PlaceOrderRequest{
		UserID: "u1",
		Items: []order.ItemRequest{
			{ProductID: shirt.Hex(), Quantity: 1},
			{ProductID: primitive.NewObjectID().Hex(), Quantity: 1},
		},
	})
	var pnfErr *order.ProductNotFoundError
	require.ErrorAs(t, err, &pnfErr)

	assert.Equal(t, int64(1), f.countOrders(t))
}

func TestListByUser_DropsOrdersWithOnlyMissingProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	shirt := f.addProduct(t, "Shirt", "10.00")
	hat := f.addProduct(t, "Hat", "4.00")
	doomed := f.addProduct(t, "Doomed", "1.00")

	first := f.placeOrder(t, "u1", order.ItemRequest{ProductID: shirt.Hex(), Quantity: 1})
	f.placeOrder(t, "u1", order.ItemRequest{ProductID: doomed.Hex(), Quantity: 2})
	third := f.placeOrder(t, "u1",
		order.ItemRequest{ProductID: hat.Hex(), Quantity: 1},
		order.ItemRequest{ProductID: doomed.Hex(), Quantity: 1},
	)
	f.placeOrder(t, "someone-else", order.ItemRequest{ProductID: shirt.Hex(), Quantity: 1})

	f.deleteProduct(t, doomed)

	orders, p, err := f.lister.ListByUser(ctx, "u1", page.Request{Limit: 10})
	require.NoError(t, err)
	require.Len(t, orders, 2)

	// Newest first; the partially dangling order keeps its surviving item
	// and its stored total.
	assert.Equal(t, third.Hex(), orders[0].ID)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, "Hat", orders[0].Items[0].Product.Name)
	assert.Equal(t, hat.Hex(), orders[0].Items[0].Product.ID)
	assert.True(t, decimal.RequireFromString("5.00").Equal(orders[0].Total))

	assert.Equal(t, first.Hex(), orders[1].ID)
	assert.False(t, p.HasNext())
	assert.False(t, p.HasPrevious())
}

func TestListByUser_NoOrders(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.lister.ListByUser(context.Background(), "nobody", page.Request{Limit: 10})

	var noErr *order.NoOrdersFoundError
	require.ErrorAs(t, err, &noErr)
	assert.Equal(t, "nobody", noErr.UserID)
}

func TestListByUser_Pagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shirt := f.addProduct(t, "Shirt", "1.00")

	var ids []string
	for i := range 15 {
		id := f.placeOrder(t, "u1", order.ItemRequest{ProductID: shirt.Hex(), Quantity: i + 1})
		ids = append(ids, id.Hex())
	}

	firstPage, p, err := f.lister.ListByUser(ctx, "u1", page.Request{Limit: 10, Offset: 0})
	require.NoError(t, err)
	require.Len(t, firstPage, 10)
	require.True(t, p.HasNext())
	assert.Equal(t, 10, *p.Next)
	assert.False(t, p.HasPrevious())
	assert.Equal(t, ids[14], firstPage[0].ID)
	assert.Equal(t, ids[5], firstPage[9].ID)

	secondPage, p, err := f.lister.ListByUser(ctx, "u1", page.Request{Limit: 10, Offset: 10})
	require.NoError(t, err)
	require.Len(t, secondPage, 5)
	assert.False(t, p.HasNext())
	require.True(t, p.HasPrevious())
	assert.Equal(t, 0, *p.Previous)
	assert.Equal(t, ids[0], secondPage[4].ID)
}

func TestListByUser_TotalNotRecomputed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shirt := f.addProduct(t, "Shirt", "19.99")

	f.placeOrder(t, "u1", order.ItemRequest{ProductID: shirt.Hex(), Quantity: 3})

	_, err := f.products.UpsertByName(ctx, &product.Product{Name: "Shirt", Price: decimal.RequireFromString("99.00")})
	require.NoError(t, err)

	orders, _, err := f.lister.ListByUser(ctx, "u1", page.Request{Limit: 10})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.True(t, decimal.RequireFromString("59.97").Equal(orders[0].Total), "got %s", orders[0].Total)
	assert.Equal(t, 3, orders[0].Items[0].Quantity)
}

func TestListByUser_LegacyDoubleTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pid := primitive.NewObjectID()
	_, err := f.db.Collection(ProductsCollection).InsertOne(ctx, bson.D{
		{Key: "_id", Value: pid},
		{Key: "name", Value: "Legacy"},
		{Key: "price", Value: 2.5},
		{Key: "sizes", Value: bson.A{}},
	})
	require.NoError(t, err)
	_, err = f.db.Collection(OrdersCollection).InsertOne(ctx, bson.D{
		{Key: "userId", Value: "u1"},
		{Key: "items", Value: bson.A{bson.D{{Key: "productId", Value: pid}, {Key: "qty", Value: 2}}}},
		{Key: "total", Value: 5.0},
	})
	require.NoError(t, err)

	orders, _, err := f.lister.ListByUser(ctx, "u1", page.Request{Limit: 10})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.True(t, decimal.NewFromInt(5).Equal(orders[0].Total))

	p, err := f.products.GetByID(ctx, pid)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("2.5").Equal(p.Price))
}
