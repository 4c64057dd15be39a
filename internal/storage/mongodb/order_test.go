package mongodb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/xenking/storefront-api/internal/domain/page"
)

func stageNames(p []bson.D) []string {
	names := make([]string, len(p))
	for i, stage := range p {
		names[i] = stage[0].Key
	}
	return names
}

func TestListByUserPipeline_Stages(t *testing.T) {
	p := listByUserPipeline("u1", page.Request{Limit: 10, Offset: 20})

	assert.Equal(t, []string{
		"$match", "$sort", "$skip", "$limit",
		"$unwind", "$lookup", "$unwind",
		"$group", "$sort",
	}, stageNames(p))

	assert.Equal(t, bson.D{{Key: "userId", Value: "u1"}}, p[0][0].Value)
	assert.Equal(t, int64(20), p[2][0].Value)
	assert.Equal(t, int64(10), p[3][0].Value)
}

func TestListByUserPipeline_InnerJoin(t *testing.T) {
	p := listByUserPipeline("u1", page.Request{Limit: 1})

	lookup, ok := p[5][0].Value.(bson.D)
	require.True(t, ok)
	assert.Contains(t, lookup, bson.E{Key: "from", Value: ProductsCollection})
	assert.Contains(t, lookup, bson.E{Key: "as", Value: "productDetails"})

	// A plain string $unwind has preserveNullAndEmptyArrays=false, which is
	// what drops items with a missing product.
	assert.Equal(t, "$productDetails", p[6][0].Value)
}
