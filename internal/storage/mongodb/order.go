package mongodb

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/xenking/storefront-api/internal/domain/order"
	"github.com/xenking/storefront-api/internal/domain/page"
)

var _ order.Repository = (*OrderRepository)(nil)

type orderDoc struct {
	ID     primitive.ObjectID `bson:"_id,omitempty"`
	UserID string             `bson:"userId"`
	Items  []orderItemDoc     `bson:"items"`
	Total  decimal.Decimal    `bson:"total"`
}

type orderItemDoc struct {
	ProductID primitive.ObjectID `bson:"productId"`
	Qty       int                `bson:"qty"`
}

// enrichedOrderDoc is the shape produced by listByUserPipeline.
type enrichedOrderDoc struct {
	ID    primitive.ObjectID `bson:"_id"`
	Total decimal.Decimal    `bson:"total"`
	Items []struct {
		Qty            int `bson:"qty"`
		ProductDetails struct {
			ID   primitive.ObjectID `bson:"id"`
			Name string             `bson:"name"`
		} `bson:"productDetails"`
	} `bson:"items"`
}

// OrderRepository implements order.Repository backed by the orders
// collection, joining products with an aggregation pipeline.
type OrderRepository struct {
	coll *mongo.Collection
}

// NewOrderRepository returns an OrderRepository over db.
func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{coll: db.Collection(OrdersCollection)}
}

// Create persists a new order and returns its generated identifier.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) (primitive.ObjectID, error) {
	items := make([]orderItemDoc, len(o.Items))
	for i, item := range o.Items {
		items[i] = orderItemDoc{ProductID: item.ProductID, Qty: item.Quantity}
	}

	res, err := r.coll.InsertOne(ctx, orderDoc{
		ID:     o.ID,
		UserID: o.UserID,
		Items:  items,
		Total:  o.Total,
	})
	if err != nil {
		return primitive.NilObjectID, errors.Wrapf(err, "insert order for user %q", o.UserID)
	}
	return insertedID(res)
}

// ListByUser runs listByUserPipeline and maps the result to domain orders.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string, req page.Request) ([]order.EnrichedOrder, error) {
	cur, err := r.coll.Aggregate(ctx, listByUserPipeline(userID, req))
	if err != nil {
		return nil, errors.Wrapf(err, "aggregate orders for user %q", userID)
	}

	var docs []enrichedOrderDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decode orders")
	}

	out := make([]order.EnrichedOrder, len(docs))
	for i, doc := range docs {
		items := make([]order.EnrichedItem, len(doc.Items))
		for j, item := range doc.Items {
			items[j] = order.EnrichedItem{
				Quantity: item.Qty,
				Product: order.ProductDetails{
					ID:   item.ProductDetails.ID.Hex(),
					Name: item.ProductDetails.Name,
				},
			}
		}
		out[i] = order.EnrichedOrder{
			ID:    doc.ID.Hex(),
			Total: doc.Total,
			Items: items,
		}
	}
	return out, nil
}

// listByUserPipeline selects the req window of userID's orders, newest first,
// then joins every item to its product.
//
// The window is cut before $unwind, so it counts orders rather than items.
// $unwind of the lookup result drops items whose product no longer exists;
// an order that loses all of its items produces no group and disappears from
// the window. $group does not keep input order, hence the second $sort.
func listByUserPipeline(userID string, req page.Request) mongo.Pipeline {
	newestFirst := bson.D{{Key: "_id", Value: -1}}

	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "userId", Value: userID}}}},
		{{Key: "$sort", Value: newestFirst}},
		{{Key: "$skip", Value: int64(req.Offset)}},
		{{Key: "$limit", Value: int64(req.Limit)}},
		{{Key: "$unwind", Value: "$items"}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: ProductsCollection},
			{Key: "localField", Value: "items.productId"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "productDetails"},
		}}},
		{{Key: "$unwind", Value: "$productDetails"}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$_id"},
			{Key: "total", Value: bson.D{{Key: "$first", Value: "$total"}}},
			{Key: "items", Value: bson.D{{Key: "$push", Value: bson.D{
				{Key: "qty", Value: "$items.qty"},
				{Key: "productDetails", Value: bson.D{
					{Key: "id", Value: "$productDetails._id"},
					{Key: "name", Value: "$productDetails.name"},
				}},
			}}}},
		}}},
		{{Key: "$sort", Value: newestFirst}},
	}
}
