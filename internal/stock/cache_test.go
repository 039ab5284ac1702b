package stock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*SummaryCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewSummaryCache(client, time.Minute), mr
}

func TestSummaryCacheServesFromRedisOnSecondCall(t *testing.T) {
	cache, _ := newTestCache(t)

	calls := 0
	fetch := func() ([]ItemSummary, error) {
		calls++
		return []ItemSummary{{ItemType: ItemTypeMaterial, ItemID: 1, SKU: "RM-001", Stock: 9}}, nil
	}

	first, err := cache.Get(context.Background(), fetch)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := cache.Get(context.Background(), fetch)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, calls)
}

func TestSummaryCacheInvalidateForcesRefetch(t *testing.T) {
	cache, _ := newTestCache(t)

	stock := int64(5)
	fetch := func() ([]ItemSummary, error) {
		return []ItemSummary{{ItemType: ItemTypeProduct, ItemID: 2, Stock: stock}}, nil
	}

	items, err := cache.Get(context.Background(), fetch)
	require.NoError(t, err)
	require.Equal(t, int64(5), items[0].Stock)

	stock = 3
	cache.Invalidate(context.Background())

	items, err = cache.Get(context.Background(), fetch)
	require.NoError(t, err)
	require.Equal(t, int64(3), items[0].Stock)
}

func TestSummaryCachePropagatesFetchError(t *testing.T) {
	cache, _ := newTestCache(t)

	boom := errors.New("query failed")
	_, err := cache.Get(context.Background(), func() ([]ItemSummary, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
}

func TestSummaryCacheNilClientFallsThrough(t *testing.T) {
	cache := NewSummaryCache(nil, time.Minute)

	calls := 0
	fetch := func() ([]ItemSummary, error) {
		calls++
		return nil, nil
	}

	_, err := cache.Get(context.Background(), fetch)
	require.NoError(t, err)
	_, err = cache.Get(context.Background(), fetch)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}
