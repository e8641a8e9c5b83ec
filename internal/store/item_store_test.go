package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/mcprogress/internal/domain"
)

func TestItemStoreCreate(t *testing.T) {
	items := NewItemStore(openTestDB(t))
	ctx := context.Background()

	item, err := items.Create(ctx, "Iron Ore", "Ores", "smelt it", "/uploads/iron.png")
	require.NoError(t, err)
	assert.NotZero(t, item.ID)
	assert.Equal(t, "Iron Ore", item.Name)
	assert.Equal(t, "Ores", item.Category)
	assert.Equal(t, "smelt it", item.Description)
	assert.Equal(t, "/uploads/iron.png", item.IconPath)
	assert.False(t, item.CreatedAt.IsZero())
}

func TestItemStoreCreate_EmptyCategoryIsDefault(t *testing.T) {
	items := NewItemStore(openTestDB(t))

	item, err := items.Create(context.Background(), "Thing", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultCategory, item.Category)
}

func TestItemStoreGetByID_NotFound(t *testing.T) {
	items := NewItemStore(openTestDB(t))

	item, err := items.GetByID(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, item)
}

func TestItemStoreFindByNameCategory(t *testing.T) {
	items := NewItemStore(openTestDB(t))
	ctx := context.Background()

	first, err := items.Create(ctx, "Stone", "Blocks", "", "")
	require.NoError(t, err)
	_, err = items.Create(ctx, "Stone", "Blocks", "duplicate", "")
	require.NoError(t, err)

	found, err := items.FindByNameCategory(ctx, "Stone", "Blocks")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, first.ID, found.ID)

	// Matching is exact: different case or category does not match.
	found, err = items.FindByNameCategory(ctx, "stone", "Blocks")
	require.NoError(t, err)
	assert.Nil(t, found)

	found, err = items.FindByNameCategory(ctx, "Stone", "Ores")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestItemStoreListByIDs(t *testing.T) {
	items := NewItemStore(openTestDB(t))
	ctx := context.Background()

	a, err := items.Create(ctx, "A", "", "", "")
	require.NoError(t, err)
	b, err := items.Create(ctx, "B", "", "", "")
	require.NoError(t, err)
	_, err = items.Create(ctx, "C", "", "", "")
	require.NoError(t, err)

	list, err := items.ListByIDs(ctx, []int64{b.ID, 4242, a.ID})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, b.ID, list[1].ID)

	list, err = items.ListByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestItemStoreSearch(t *testing.T) {
	items := NewItemStore(openTestDB(t))
	ctx := context.Background()

	_, err := items.Create(ctx, "Iron Ore", "Ores", "", "")
	require.NoError(t, err)
	_, err = items.Create(ctx, "Gold Ore", "Ores", "", "")
	require.NoError(t, err)
	_, err = items.Create(ctx, "Iron Pickaxe", "Tools", "mines ore", "")
	require.NoError(t, err)

	list, err := items.Search(ctx, "iron", "")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = items.Search(ctx, "ore", "Ores")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = items.Search(ctx, "ore", "All")
	require.NoError(t, err)
	assert.Len(t, list, 3)

	list, err = items.Search(ctx, "", "Tools")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Iron Pickaxe", list[0].Name)
}

func TestItemStoreUpdateAndSetIcon(t *testing.T) {
	items := NewItemStore(openTestDB(t))
	ctx := context.Background()

	item, err := items.Create(ctx, "Bread", "Food", "", "")
	require.NoError(t, err)

	require.NoError(t, items.Update(ctx, item.ID, "Cake", "", "sweet", ""))
	require.NoError(t, items.SetIcon(ctx, item.ID, "/uploads/cake.png"))

	got, err := items.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cake", got.Name)
	assert.Equal(t, domain.DefaultCategory, got.Category)
	assert.Equal(t, "sweet", got.Description)
	assert.Equal(t, "/uploads/cake.png", got.IconPath)
}

func TestItemStoreSetIcon_NotFound(t *testing.T) {
	items := NewItemStore(openTestDB(t))

	err := items.SetIcon(context.Background(), 999, "/uploads/x.png")
	assert.Error(t, err)
}

func TestItemStoreDelete(t *testing.T) {
	items := NewItemStore(openTestDB(t))
	ctx := context.Background()

	item, err := items.Create(ctx, "Creeper", "Mobs", "", "")
	require.NoError(t, err)

	require.NoError(t, items.Delete(ctx, item.ID))

	got, err := items.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.Error(t, items.Delete(ctx, item.ID))
}

func TestItemStoreCountWithIcon(t *testing.T) {
	items := NewItemStore(openTestDB(t))
	ctx := context.Background()

	_, err := items.Create(ctx, "Iron Ore", "Ores", "", "/uploads/ore.png")
	require.NoError(t, err)
	_, err = items.Create(ctx, "Gold Ore", "Ores", "", "/uploads/ore.png")
	require.NoError(t, err)
	_, err = items.Create(ctx, "Stone", "Blocks", "", "")
	require.NoError(t, err)

	n, err := items.CountWithIcon(ctx, "/uploads/ore.png")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = items.CountWithIcon(ctx, "/uploads/none.png")
	require.NoError(t, err)
	assert.Zero(t, n)
}
