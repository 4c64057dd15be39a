package main

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/xenking/storefront-api/db"
	"github.com/xenking/storefront-api/internal/domain/product"
	"github.com/xenking/storefront-api/internal/storage/mongodb"
)

type seedOptions struct {
	URI      string
	Database string
	File     string
}

type catalogEntry struct {
	Name  string `yaml:"name"`
	Price string `yaml:"price"`
	Sizes []struct {
		Size     string `yaml:"size"`
		Quantity int    `yaml:"quantity"`
	} `yaml:"sizes"`
}

// parseCatalog decodes a YAML product list into validated domain products.
func parseCatalog(data []byte) ([]product.Product, error) {
	var entries []catalogEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, errors.Wrap(err, "decode catalog")
	}

	products := make([]product.Product, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		if e.Name == "" {
			return nil, errors.Errorf("entry %d: %s", i, product.ErrNameRequired)
		}
		if _, dup := seen[e.Name]; dup {
			return nil, errors.Errorf("entry %d: duplicate name %q", i, e.Name)
		}
		seen[e.Name] = struct{}{}

		price, err := decimal.NewFromString(e.Price)
		if err != nil {
			return nil, errors.Wrapf(err, "entry %q: price", e.Name)
		}
		if price.IsNegative() {
			return nil, errors.Errorf("entry %q: %s", e.Name, product.ErrNegativePrice)
		}
		if !product.AmountInRange(price) {
			return nil, errors.Errorf("entry %q: %s", e.Name, product.ErrPriceRange)
		}

		sizes := make([]product.Size, 0, len(e.Sizes))
		for _, sz := range e.Sizes {
			if sz.Quantity < 0 {
				return nil, errors.Wrapf(&product.InvalidSizeError{Size: sz.Size}, "entry %q", e.Name)
			}
			sizes = append(sizes, product.Size{Size: sz.Size, Quantity: sz.Quantity})
		}

		products = append(products, product.Product{Name: e.Name, Price: price, Sizes: sizes})
	}
	return products, nil
}

// loadCatalog returns the embedded catalog, or the file at path. Files
// ending in .gz are decompressed.
func loadCatalog(path string) ([]byte, error) {
	if path == "" {
		return db.Products, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open catalog file")
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip stream")
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read catalog file")
	}
	return data, nil
}

func run(ctx context.Context, lg *zap.Logger, opts seedOptions) error {
	data, err := loadCatalog(opts.File)
	if err != nil {
		return err
	}
	products, err := parseCatalog(data)
	if err != nil {
		return err
	}

	lg.Info("Connecting", zap.String("database", opts.Database))
	client, err := mongodb.Connect(ctx, mongodb.Config{
		URI:            opts.URI,
		ConnectTimeout: 10 * time.Second,
		QueryTimeout:   5 * time.Second,
	})
	if err != nil {
		return errors.Wrap(err, "connect mongo")
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	database := client.Database(opts.Database)
	if err := mongodb.EnsureIndexes(ctx, database); err != nil {
		return errors.Wrap(err, "ensure indexes")
	}

	repo := mongodb.NewProductRepository(database)
	var created int
	for i := range products {
		p := &products[i]
		inserted, err := repo.UpsertByName(ctx, p)
		if err != nil {
			return errors.Wrapf(err, "upsert product %q", p.Name)
		}
		if inserted {
			created++
		}
		lg.Debug("Upserted product",
			zap.String("name", p.Name),
			zap.Stringer("price", p.Price),
			zap.Bool("inserted", inserted),
		)
	}

	lg.Info("Seed completed",
		zap.Int("products", len(products)),
		zap.Int("inserted", created),
		zap.Int("updated", len(products)-created),
	)
	return nil
}
