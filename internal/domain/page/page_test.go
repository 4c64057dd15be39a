package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequest_Validate(t *testing.T) {
	require.NoError(t, Request{Limit: 1, Offset: 0}.Validate())
	require.ErrorIs(t, Request{Limit: 0}.Validate(), ErrInvalidLimit)
	require.ErrorIs(t, Request{Limit: 5, Offset: -1}.Validate(), ErrInvalidOffset)
}

func TestNew_FirstFullPage(t *testing.T) {
	p := New(Request{Limit: 10, Offset: 0}, 10)

	require.True(t, p.HasNext())
	assert.Equal(t, 10, *p.Next)
	assert.False(t, p.HasPrevious())
	assert.Equal(t, 10, p.Limit)
}

func TestNew_LastPartialPage(t *testing.T) {
	p := New(Request{Limit: 10, Offset: 10}, 5)

	assert.False(t, p.HasNext())
	require.True(t, p.HasPrevious())
	assert.Equal(t, 0, *p.Previous)
}

func TestNew_PreviousClampedAtZero(t *testing.T) {
	p := New(Request{Limit: 10, Offset: 3}, 2)

	require.True(t, p.HasPrevious())
	assert.Equal(t, 0, *p.Previous)
}

func TestNew_MiddlePage(t *testing.T) {
	p := New(Request{Limit: 5, Offset: 20}, 5)

	require.True(t, p.HasNext())
	require.True(t, p.HasPrevious())
	assert.Equal(t, 25, *p.Next)
	assert.Equal(t, 15, *p.Previous)
}
