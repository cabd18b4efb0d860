package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityaaa08012006/decivue-sub004/internal/domain"
	"github.com/adityaaa08012006/decivue-sub004/internal/store"
)

type countingStore struct {
	fakeCollaboratorsStore
	gets int
}

func (c *countingStore) GetDecision(ctx context.Context, orgID, decisionID string) (*domain.Decision, error) {
	c.gets++
	return c.fakeCollaboratorsStore.GetDecision(ctx, orgID, decisionID)
}

func TestCachedStore_SecondGetIsCacheHit(t *testing.T) {
	inner := &countingStore{fakeCollaboratorsStore: fakeCollaboratorsStore{
		decisions: map[string]domain.Decision{
			"org1:d1": {ID: "d1", Organization: "org1", Title: "first"},
		},
	}}
	c, err := store.NewCachedStore(inner, 10, nil)
	require.NoError(t, err)

	d1, err := c.GetDecision(context.Background(), "org1", "d1")
	require.NoError(t, err)
	assert.Equal(t, "first", d1.Title)

	d2, err := c.GetDecision(context.Background(), "org1", "d1")
	require.NoError(t, err)
	assert.Equal(t, "first", d2.Title)

	assert.Equal(t, 1, inner.gets)
}

func TestCachedStore_SaveDecisionInvalidatesCache(t *testing.T) {
	inner := &countingStore{fakeCollaboratorsStore: fakeCollaboratorsStore{
		decisions: map[string]domain.Decision{
			"org1:d1": {ID: "d1", Organization: "org1", Title: "first"},
		},
	}}
	c, err := store.NewCachedStore(inner, 10, nil)
	require.NoError(t, err)

	_, err = c.GetDecision(context.Background(), "org1", "d1")
	require.NoError(t, err)

	require.NoError(t, c.SaveDecision(context.Background(), domain.Decision{ID: "d1", Organization: "org1", Title: "updated"}))

	d2, err := c.GetDecision(context.Background(), "org1", "d1")
	require.NoError(t, err)
	assert.Equal(t, "updated", d2.Title)
	assert.Equal(t, 2, inner.gets)
}
