package share

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var result = json.RawMessage(`{"filename":"sales.csv","insights":["ok"]}`)

func TestClampHours(t *testing.T) {
	assert.Equal(t, DefaultHours, ClampHours(0))
	assert.Equal(t, MinHours, ClampHours(-5))
	assert.Equal(t, MaxHours, ClampHours(500))
	assert.Equal(t, 12, ClampHours(12))
}

func TestNewRejectsEmpty(t *testing.T) {
	_, err := New("x.csv", nil, 1, time.Now())
	assert.ErrorIs(t, err, ErrEmptyResult)
	_, err = New("x.csv", json.RawMessage(`{broken`), 1, time.Now())
	assert.Error(t, err)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemoryStore()
	m.now = func() time.Time { return now }

	s, err := New("sales.csv", result, 2, now)
	require.NoError(t, err)
	require.NoError(t, m.Put(ctx, s))

	got, err := m.Get(ctx, s.Token)
	require.NoError(t, err)
	assert.JSONEq(t, string(result), string(got.Result))

	now = now.Add(3 * time.Hour)
	_, err = m.Get(ctx, s.Token)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, m.Len())
}

func TestMemoryStoreCleanup(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	m := NewMemoryStore()
	short, _ := New("a.csv", result, 1, now)
	long, _ := New("b.csv", result, 48, now)
	require.NoError(t, m.Put(ctx, short))
	require.NoError(t, m.Put(ctx, long))

	m.now = func() time.Time { return now.Add(2 * time.Hour) }
	n, err := m.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = m.Get(ctx, long.Token)
	assert.NoError(t, err)
	assert.ErrorIs(t, m.Delete(ctx, short.Token), ErrNotFound)
}

func TestFSStoreRoundTripAndCleanup(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := NewFSStore(t.TempDir())

	s, err := New("sales.csv", result, 1, now)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, s))

	got, err := store.Get(ctx, s.Token)
	require.NoError(t, err)
	assert.Equal(t, "sales.csv", got.Filename)

	_, err = store.Get(ctx, "../../etc/passwd")
	assert.ErrorIs(t, err, ErrNotFound)

	store.now = func() time.Time { return now.Add(90 * time.Minute) }
	n, err := store.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = store.Get(ctx, s.Token)
	assert.ErrorIs(t, err, ErrNotFound)
}
