package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchAllJoinsCollections(t *testing.T) {
	_, client := newFakeBackend(t)
	ctx := context.Background()

	created, err := client.CreateBill(ctx, draft())
	require.NoError(t, err)

	snap, err := client.FetchAll(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Bills(), 1)
	assert.Len(t, snap.Customers(), 1)
	assert.Len(t, snap.Services(), 2)
	assert.False(t, snap.FetchedAt().IsZero())

	svc, ok := snap.Service(2)
	require.True(t, ok)
	assert.Equal(t, "Banner print", svc.Name)

	bill, ok := snap.Enriched(created.ID)
	require.True(t, ok)
	assert.Equal(t, "nimal@example.lk", bill.CustomerEmail)

	_, ok = snap.Enriched(12345)
	assert.False(t, ok)
}

func TestFetchAllFailsAsAWhole(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.failWith.Store(http.StatusInternalServerError)

	snap, err := client.FetchAll(context.Background())
	assert.Nil(t, snap)
	assert.ErrorIs(t, err, ErrApplication)
}

func TestRefreshKeepsPreviousDataOnFailure(t *testing.T) {
	fb, client := newFakeBackend(t)
	ctx := context.Background()

	_, err := client.CreateBill(ctx, draft())
	require.NoError(t, err)

	snap, err := client.FetchAll(ctx)
	require.NoError(t, err)
	before := snap.FetchedAt()

	fb.failWith.Store(http.StatusInternalServerError)
	err = snap.Refresh(ctx, client)
	require.Error(t, err)
	assert.Len(t, snap.Bills(), 1)
	assert.Equal(t, before, snap.FetchedAt())

	fb.failWith.Store(0)
	_, err = client.CreateBill(ctx, draft())
	require.NoError(t, err)
	require.NoError(t, snap.Refresh(ctx, client))
	assert.Len(t, snap.Bills(), 2)
}
