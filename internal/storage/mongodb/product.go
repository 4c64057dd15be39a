package mongodb

import (
	"context"
	"regexp"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/xenking/storefront-api/internal/domain/page"
	"github.com/xenking/storefront-api/internal/domain/product"
)

var _ product.Repository = (*ProductRepository)(nil)

type productDoc struct {
	ID    primitive.ObjectID `bson:"_id,omitempty"`
	Name  string             `bson:"name"`
	Price decimal.Decimal    `bson:"price"`
	Sizes []sizeDoc          `bson:"sizes"`
}

type sizeDoc struct {
	Size     string `bson:"size"`
	Quantity int    `bson:"quantity"`
}

// ProductRepository implements product.Repository backed by the products
// collection.
type ProductRepository struct {
	coll *mongo.Collection
}

// NewProductRepository returns a ProductRepository over db.
func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{coll: db.Collection(ProductsCollection)}
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*product.Product, error) {
	var doc productDoc
	err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "find product %s", id.Hex())
	}

	p := doc.toDomain()
	return &p, nil
}

// Create inserts p and returns the generated identifier.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) (primitive.ObjectID, error) {
	res, err := r.coll.InsertOne(ctx, newProductDoc(p))
	if err != nil {
		return primitive.NilObjectID, errors.Wrapf(err, "insert product %q", p.Name)
	}
	return insertedID(res)
}

// UpsertByName replaces the price and sizes of the product named p.Name,
// inserting it when absent. It reports whether a new document was created.
func (r *ProductRepository) UpsertByName(ctx context.Context, p *product.Product) (bool, error) {
	doc := newProductDoc(p)
	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "name", Value: doc.Name}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "price", Value: doc.Price},
			{Key: "sizes", Value: doc.Sizes},
		}}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, errors.Wrapf(err, "upsert product %q", p.Name)
	}
	return res.UpsertedCount > 0, nil
}

// List returns one window of products matching f in insertion order.
// The sizes field is not loaded.
func (r *ProductRepository) List(ctx context.Context, f product.Filter, req page.Request) ([]product.Product, error) {
	filter := bson.D{}
	if f.Name != "" {
		filter = append(filter, bson.E{Key: "name", Value: primitive.Regex{
			Pattern: regexp.QuoteMeta(f.Name),
			Options: "i",
		}})
	}
	if f.Size != "" {
		filter = append(filter, bson.E{Key: "sizes.size", Value: f.Size})
	}

	opts := options.Find().
		SetProjection(bson.D{{Key: "sizes", Value: 0}}).
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(int64(req.Offset)).
		SetLimit(int64(req.Limit))

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "find products")
	}

	var docs []productDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decode products")
	}

	out := make([]product.Product, len(docs))
	for i, doc := range docs {
		out[i] = doc.toDomain()
	}
	return out, nil
}

func newProductDoc(p *product.Product) productDoc {
	sizes := make([]sizeDoc, len(p.Sizes))
	for i, s := range p.Sizes {
		sizes[i] = sizeDoc{Size: s.Size, Quantity: s.Quantity}
	}
	return productDoc{
		ID:    p.ID,
		Name:  p.Name,
		Price: p.Price,
		Sizes: sizes,
	}
}

func (d productDoc) toDomain() product.Product {
	var sizes []product.Size
	if d.Sizes != nil {
		sizes = make([]product.Size, len(d.Sizes))
		for i, s := range d.Sizes {
			sizes[i] = product.Size{Size: s.Size, Quantity: s.Quantity}
		}
	}
	return product.Product{
		ID:    d.ID,
		Name:  d.Name,
		Price: d.Price,
		Sizes: sizes,
	}
}

func insertedID(res *mongo.InsertOneResult) (primitive.ObjectID, error) {
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return id, nil
}
