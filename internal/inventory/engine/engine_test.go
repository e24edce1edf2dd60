package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestEngine(t *testing.T) (*Engine, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewEngine(client, zap.NewNop()), mr
}

func TestReserve_DecrementsStock(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.InitializeStock(ctx, "p1", 10))

	res, err := eng.Reserve(ctx, "p1", 3)
	require.NoError(t, err)
	require.True(t, res.Accepted)
	require.Equal(t, int64(7), res.Remaining)

	stock, err := eng.GetStock(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, int64(7), stock)
}

func TestReserve_RejectsWhenInsufficient(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.InitializeStock(ctx, "p1", 2))

	res, err := eng.Reserve(ctx, "p1", 3)
	require.NoError(t, err)
	require.False(t, res.Accepted)
	require.Equal(t, int64(2), res.Remaining)

	// Rejection must not touch the counter.
	stock, err := eng.GetStock(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, int64(2), stock)
}

func TestReserve_MissingKeyReadsAsZero(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	res, err := eng.Reserve(ctx, "unknown", 1)
	require.NoError(t, err)
	require.False(t, res.Accepted)
	require.Equal(t, int64(0), res.Remaining)
}

func TestReserve_InvalidQuantity(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.Reserve(ctx, "p1", 0)
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = eng.Reserve(ctx, "p1", -5)
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestReserve_ExactlyStockAcceptsAndHitsZero(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.InitializeStock(ctx, "p1", 5))

	res, err := eng.Reserve(ctx, "p1", 5)
	require.NoError(t, err)
	require.True(t, res.Accepted)
	require.Equal(t, int64(0), res.Remaining)

	res, err = eng.Reserve(ctx, "p1", 1)
	require.NoError(t, err)
	require.False(t, res.Accepted)
}

func TestReserve_ConcurrentContendersNeverOversell(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	const (
		contenders = 64
		stock      = 10
	)

	require.NoError(t, eng.InitializeStock(ctx, "p1", stock))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		errs     []error
	)

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			res, err := eng.Reserve(ctx, "p1", 1)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			if res.Accepted {
				accepted++
			}
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	require.Equal(t, stock, accepted)

	remaining, err := eng.GetStock(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, int64(0), remaining)
}

func TestReserve_TwoContendersForLastUnit(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.InitializeStock(ctx, "p1", 1))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []Reservation
		errs    []error
	)

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			res, err := eng.Reserve(ctx, "p1", 1)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			results = append(results, res)
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	require.Len(t, results, 2)

	// Whichever ordering the CAS loop lands on, exactly one contender
	// wins the last unit and both observe the drained counter.
	winners := 0
	for _, res := range results {
		if res.Accepted {
			winners++
		}
		require.Equal(t, int64(0), res.Remaining)
	}
	require.Equal(t, 1, winners)

	remaining, err := eng.GetStock(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, int64(0), remaining)
}

func TestSetStock_Overrides(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.InitializeStock(ctx, "p1", 3))

	res, err := eng.Reserve(ctx, "p1", 3)
	require.NoError(t, err)
	require.True(t, res.Accepted)

	require.NoError(t, eng.SetStock(ctx, "p1", 100))

	stock, err := eng.GetStock(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, int64(100), stock)

	res, err = eng.Reserve(ctx, "p1", 1)
	require.NoError(t, err)
	require.True(t, res.Accepted)
	require.Equal(t, int64(99), res.Remaining)
}
