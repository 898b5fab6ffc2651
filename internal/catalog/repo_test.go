package catalog

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KavishaPerera/Wash-TUB-sub000/internal/migrate"
)

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, migrate.Run(ctx, pool))
	return pool
}

func createTestService(t *testing.T, repo *PGRepo, price string) *Service {
	t.Helper()
	s := &Service{
		Name:     fmt.Sprintf("svc-%d", time.Now().UnixNano()),
		UnitType: UnitWeight,
	}
	require.NoError(t, repo.Create(context.Background(), s, price))
	return s
}

func TestPGRepo_CreateOpensFirstInterval(t *testing.T) {
	repo := NewPGRepo(testPool(t))
	ctx := context.Background()

	s := createTestService(t, repo, "100.00")

	p, err := repo.CurrentPrice(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "100.00", p.Price)
	assert.Nil(t, p.EffectiveTo)

	history, err := repo.PriceHistory(ctx, s.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestPGRepo_UpdatePriceClosesAndOpens(t *testing.T) {
	repo := NewPGRepo(testPool(t))
	ctx := context.Background()

	s := createTestService(t, repo, "100.00")
	require.NoError(t, repo.UpdatePrice(ctx, s.ID, "120.00"))
	require.NoError(t, repo.UpdatePrice(ctx, s.ID, "90.00"))

	history, err := repo.PriceHistory(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "90.00", history[0].Price)
	assert.Nil(t, history[0].EffectiveTo)
	for _, closed := range history[1:] {
		require.NotNil(t, closed.EffectiveTo)
		assert.False(t, closed.EffectiveTo.Before(closed.EffectiveFrom))
	}
	// Intervals do not overlap.
	for i := 1; i < len(history); i++ {
		assert.False(t, history[i].EffectiveTo.After(history[i-1].EffectiveFrom))
	}

	p, err := repo.CurrentPrice(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "90.00", p.Price)

	assert.ErrorIs(t, repo.UpdatePrice(ctx, -1, "10.00"), ErrNotFound)
}

// Exactly one open interval survives any number of concurrent updates.
func TestPGRepo_ConcurrentPriceUpdates(t *testing.T) {
	pool := testPool(t)
	repo := NewPGRepo(pool)
	ctx := context.Background()

	s := createTestService(t, repo, "100.00")

	const n = 10
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.UpdatePrice(ctx, s.ID, fmt.Sprintf("%d.00", 100+i))
		}(i)
	}
	wg.Wait()
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
	}

	var open int
	require.NoError(t, pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM service_price_history
		WHERE service_id=$1 AND effective_to IS NULL
	`, s.ID).Scan(&open))
	assert.Equal(t, 1, open)

	history, err := repo.PriceHistory(ctx, s.ID)
	require.NoError(t, err)
	assert.Len(t, history, n+1)
}

func TestPGRepo_DeleteCascadesHistory(t *testing.T) {
	pool := testPool(t)
	repo := NewPGRepo(pool)
	ctx := context.Background()

	s := createTestService(t, repo, "100.00")
	require.NoError(t, repo.UpdatePrice(ctx, s.ID, "110.00"))

	ok, err := repo.Delete(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	var rows int
	require.NoError(t, pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM service_price_history WHERE service_id=$1
	`, s.ID).Scan(&rows))
	assert.Zero(t, rows)

	ok, err = repo.Delete(ctx, s.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPGRepo_SetActiveAndList(t *testing.T) {
	repo := NewPGRepo(testPool(t))
	ctx := context.Background()

	s := createTestService(t, repo, "100.00")
	require.NoError(t, repo.SetActive(ctx, s.ID, false))

	list, err := repo.ListActive(ctx)
	require.NoError(t, err)
	for _, got := range list {
		assert.NotEqual(t, s.ID, got.ID, "inactive service listed")
	}
}
