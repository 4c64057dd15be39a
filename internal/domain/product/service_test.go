package product

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/xenking/storefront-api/internal/domain/page"
)

type mockRepo struct {
	created  *Product
	listed   []Product
	gotFilt  Filter
	gotPage  page.Request
	err      error
	createID primitive.ObjectID
}

func (m *mockRepo) GetByID(_ context.Context, _ primitive.ObjectID) (*Product, error) {
	return nil, ErrNotFound
}

func (m *mockRepo) Create(_ context.Context, p *Product) (primitive.ObjectID, error) {
	m.created = p
	return m.createID, m.err
}

func (m *mockRepo) List(_ context.Context, f Filter, req page.Request) ([]Product, error) {
	m.gotFilt = f
	m.gotPage = req
	return m.listed, m.err
}

func TestParseID(t *testing.T) {
	id := primitive.NewObjectID()

	got, err := ParseID(id.Hex())
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ParseID("not-an-id")
	var invErr *InvalidIDError
	require.ErrorAs(t, err, &invErr)
	assert.Equal(t, "not-an-id", invErr.ID)
	assert.Contains(t, err.Error(), "not-an-id")
}

func TestCreate_Valid(t *testing.T) {
	repo := &mockRepo{createID: primitive.NewObjectID()}
	svc := NewService(repo)

	id, err := svc.Create(context.Background(), Product{
		Name:  "Sneaker",
		Price: decimal.RequireFromString("49.90"),
		Sizes: []Size{{Size: "42", Quantity: 3}},
	})

	require.NoError(t, err)
	assert.Equal(t, repo.createID, id)
	require.NotNil(t, repo.created)
	assert.Equal(t, "Sneaker", repo.created.Name)
}

func TestCreate_NilSizesStoredEmpty(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), Product{Name: "Cap", Price: decimal.NewFromInt(5)})
	require.NoError(t, err)
	assert.NotNil(t, repo.created.Sizes)
	assert.Empty(t, repo.created.Sizes)
}

func TestCreate_Validation(t *testing.T) {
	svc := NewService(&mockRepo{})
	ctx := context.Background()

	_, err := svc.Create(ctx, Product{Price: decimal.NewFromInt(1)})
	require.ErrorIs(t, err, ErrNameRequired)

	_, err = svc.Create(ctx, Product{Name: "x", Price: decimal.NewFromInt(-1)})
	require.ErrorIs(t, err, ErrNegativePrice)

	_, err = svc.Create(ctx, Product{
		Name:  "x",
		Price: decimal.NewFromInt(1),
		Sizes: []Size{{Size: "M", Quantity: -2}},
	})
	var sizeErr *InvalidSizeError
	require.ErrorAs(t, err, &sizeErr)
	assert.Equal(t, "M", sizeErr.Size)
}

func TestCreate_RepoError(t *testing.T) {
	svc := NewService(&mockRepo{err: errors.New("insert failed")})

	_, err := svc.Create(context.Background(), Product{Name: "x", Price: decimal.Zero})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create product")
}

func TestList_Paging(t *testing.T) {
	repo := &mockRepo{listed: []Product{{Name: "a"}, {Name: "b"}}}
	svc := NewService(repo)

	products, p, err := svc.List(context.Background(), Filter{Name: "sh", Size: "L"}, page.Request{Limit: 2, Offset: 4})
	require.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Equal(t, Filter{Name: "sh", Size: "L"}, repo.gotFilt)
	assert.Equal(t, page.Request{Limit: 2, Offset: 4}, repo.gotPage)
	require.True(t, p.HasNext())
	assert.Equal(t, 6, *p.Next)
	require.True(t, p.HasPrevious())
	assert.Equal(t, 2, *p.Previous)
}

func TestList_InvalidPage(t *testing.T) {
	svc := NewService(&mockRepo{})

	_, _, err := svc.List(context.Background(), Filter{}, page.Request{Limit: 0})
	require.ErrorIs(t, err, page.ErrInvalidLimit)
}

func TestAmountInRange(t *testing.T) {
	tests := []struct {
		amount string
		want   bool
	}{
		{"19.99", true},
		{"0", true},
		{"9999999999999999999999999999999999e6111", true},
		{"1e6144", true},
		{"1e6145", false},
		{"1e7000", false},
		{"1e1000000000", false},
		{"1e-6176", true},
		{"1e-6177", false},
		{"0.1234567890123456789012345678901234", true},
		{"0.12345678901234567890123456789012345", false},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, AmountInRange(decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestCreate_PriceOutOfRange(t *testing.T) {
	for _, price := range []string{"1e7000", "1e1000000000", "0.12345678901234567890123456789012345"} {
		t.Run(price, func(t *testing.T) {
			repo := &mockRepo{}
			svc := NewService(repo)

			_, err := svc.Create(context.Background(), Product{Name: "x", Price: decimal.RequireFromString(price)})
			require.ErrorIs(t, err, ErrPriceRange)
			assert.Nil(t, repo.created)
		})
	}
}
