package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/mcprogress/internal/db"
	"github.com/vbonduro/mcprogress/internal/domain"
)

func TestCategoryStoreCreate(t *testing.T) {
	categories := NewCategoryStore(openTestDB(t))
	ctx := context.Background()

	c, err := categories.Create(ctx, "Ores")
	require.NoError(t, err)
	assert.NotZero(t, c.ID)
	assert.Equal(t, "Ores", c.Name)

	_, err = categories.Create(ctx, "Ores")
	assert.ErrorIs(t, err, ErrCategoryExists)
}

func TestCategoryStoreEnsure(t *testing.T) {
	categories := NewCategoryStore(openTestDB(t))
	ctx := context.Background()

	created, err := categories.Ensure(ctx, "Ores")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = categories.Ensure(ctx, "Ores")
	require.NoError(t, err)
	assert.False(t, created)

	names, err := categories.ListNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ores"}, names)
}

func TestCategoryStoreEnsure_Concurrent(t *testing.T) {
	d, err := db.Open(filepath.Join(t.TempDir(), "categories.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, d.Close()) })
	categories := NewCategoryStore(d)
	ctx := context.Background()

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		errs    []error
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := categories.Ensure(ctx, "Ores")
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
			}
			if ok {
				created++
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, errs)
	assert.Equal(t, 1, created)

	names, err := categories.ListNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ores"}, names)
}

func TestCategoryStoreListNames_CaseInsensitiveOrder(t *testing.T) {
	categories := NewCategoryStore(openTestDB(t))
	ctx := context.Background()

	for _, name := range []string{"tools", "Blocks", "ores"} {
		_, err := categories.Create(ctx, name)
		require.NoError(t, err)
	}

	names, err := categories.ListNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Blocks", "ores", "tools"}, names)
}

func TestCategoryStoreExists(t *testing.T) {
	categories := NewCategoryStore(openTestDB(t))
	ctx := context.Background()

	ok, err := categories.Exists(ctx, "Mobs")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = categories.Create(ctx, "Mobs")
	require.NoError(t, err)

	ok, err = categories.Exists(ctx, "Mobs")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCategoryStoreDelete_ReassignsItems(t *testing.T) {
	d := openTestDB(t)
	categories := NewCategoryStore(d)
	items := NewItemStore(d)
	ctx := context.Background()

	_, err := categories.Create(ctx, "Food")
	require.NoError(t, err)
	bread, err := items.Create(ctx, "Bread", "Food", "", "")
	require.NoError(t, err)

	require.NoError(t, categories.Delete(ctx, "Food"))

	got, err := items.GetByID(ctx, bread.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultCategory, got.Category)

	ok, err := categories.Exists(ctx, "Food")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Error(t, categories.Delete(ctx, "Food"))
}
