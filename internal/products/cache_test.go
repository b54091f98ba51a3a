package products

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ariefcatur/ferremas-api/internal/apperr"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T) (*Cache, *MockStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	store := new(MockStore)
	return NewCache(store, rdb), store, mr
}

func TestCache_GetReadsThroughOnce(t *testing.T) {
	c, store, mr := newCache(t)
	ctx := context.Background()
	hammer := &Product{ID: 42, Name: "Martillo", Category: "herramientas", Price: decimal.NewFromInt(8990), WarehouseStock: 10}
	store.On("Get", mock.Anything, int64(42)).Return(hammer, nil).Once()

	got, err := c.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "Martillo", got.Name)
	assert.True(t, mr.Exists("products:42"))

	again, err := c.Get(ctx, 42)
	require.NoError(t, err)
	assert.True(t, hammer.Price.Equal(again.Price))
	store.AssertExpectations(t)
}

func TestCache_WriteInvalidates(t *testing.T) {
	c, store, mr := newCache(t)
	ctx := context.Background()
	store.On("List", mock.Anything).Return([]Product{{ID: 1, Name: "Taladro"}}, nil).Once()
	_, err := c.List(ctx)
	require.NoError(t, err)
	require.True(t, mr.Exists("products:all"))

	name := "Taladro percutor"
	store.On("Update", mock.Anything, int64(1), UpdateInput{Name: &name}).
		Return(&Product{ID: 1, Name: name}, nil).Once()
	_, err = c.Update(ctx, 1, UpdateInput{Name: &name})
	require.NoError(t, err)
	assert.False(t, mr.Exists("products:all"))
	store.AssertExpectations(t)
}

func TestCache_ErrorsAreNotCached(t *testing.T) {
	c, store, mr := newCache(t)
	store.On("Get", mock.Anything, int64(9)).Return(nil, apperr.NotFound("product", 9)).Twice()

	_, err := c.Get(context.Background(), 9)
	require.ErrorIs(t, err, apperr.ErrNotFound)
	assert.False(t, mr.Exists("products:9"))
	_, err = c.Get(context.Background(), 9)
	require.ErrorIs(t, err, apperr.ErrNotFound)
	store.AssertExpectations(t)
}

func TestCache_RedisDownFallsBackToStore(t *testing.T) {
	c, store, mr := newCache(t)
	mr.Close()
	store.On("ListByCategory", mock.Anything, "pinturas").Return([]Product{{ID: 3}}, nil).Once()

	got, err := c.ListByCategory(context.Background(), "pinturas")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestCache_CancelledCallerDoesNotFailTheFill(t *testing.T) {
	c, store, mr := newCache(t)
	hammer := &Product{ID: 42, Name: "Martillo", Price: decimal.NewFromInt(8990)}
	started, release := make(chan struct{}), make(chan struct{})
	loadErr := make(chan error, 1)
	store.On("Get", mock.Anything, int64(42)).Run(func(args mock.Arguments) {
		close(started)
		<-release
		loadErr <- args.Get(0).(context.Context).Err()
	}).Return(hammer, nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Get(ctx, 42)
		done <- err
	}()
	<-started
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	close(release)
	require.Eventually(t, func() bool { return mr.Exists("products:42") }, time.Second, 5*time.Millisecond)
	assert.NoError(t, <-loadErr)

	got, err := c.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "Martillo", got.Name)
	store.AssertExpectations(t)
}
