package scenepack

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/mcprogress/internal/domain"
)

// stubItems is an in-memory ItemWriter.
type stubItems struct {
	nextID  int64
	items   map[int64]*domain.Item
	created []string
	failOn  string
}

func newStubItems(start int64) *stubItems {
	return &stubItems{nextID: start, items: make(map[int64]*domain.Item)}
}

func (s *stubItems) Create(_ context.Context, name, category, description, iconPath string) (*domain.Item, error) {
	if name == s.failOn {
		return nil, errors.New("insert failed")
	}
	s.nextID++
	item := &domain.Item{ID: s.nextID, Name: name, Category: category, Description: description, IconPath: iconPath, CreatedAt: time.Now()}
	s.items[item.ID] = item
	s.created = append(s.created, name)
	return item, nil
}

func (s *stubItems) SetIcon(_ context.Context, id int64, iconPath string) error {
	item, ok := s.items[id]
	if !ok {
		return fmt.Errorf("item %d not found", id)
	}
	item.IconPath = iconPath
	return nil
}

// stubIcons is an in-memory IconWriter.
type stubIcons struct {
	saved map[string][]byte
	n     int
}

func newStubIcons() *stubIcons {
	return &stubIcons{saved: make(map[string][]byte)}
}

func (s *stubIcons) Save(_ context.Context, ext string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.n++
	iconPath := fmt.Sprintf("/uploads/new%d%s", s.n, ext)
	s.saved[iconPath] = data
	return iconPath, nil
}

// memAssets is an in-memory AssetSource keyed by icon path.
type memAssets map[string][]byte

func (m memAssets) Lookup(iconPath string) ([]byte, bool, error) {
	data, ok := m[iconPath]
	return data, ok, nil
}

func TestReconcile_EmptyLibraryCreatesEverything(t *testing.T) {
	items := newStubItems(100)
	icons := newStubIcons()
	r := NewReconciler(items, icons, nil)

	incoming := []ItemRecord{
		{ID: 7, Name: "Iron Ore", Category: "Ores", Description: "smelt", IconPath: "/uploads/iron.png"},
		{ID: 8, Name: "Stone", Category: "Blocks"},
	}
	res, err := r.Reconcile(context.Background(), incoming, nil, memAssets{"/uploads/iron.png": []byte("png")})
	require.NoError(t, err)

	assert.Equal(t, map[int64]int64{7: 101, 8: 102}, res.Mapping)
	assert.Equal(t, []int64{101, 102}, res.Created)
	assert.Empty(t, res.Reused)
	require.Len(t, res.WrittenIcons, 1)

	iron := items.items[101]
	assert.Equal(t, "Iron Ore", iron.Name)
	assert.Equal(t, "Ores", iron.Category)
	assert.Equal(t, "smelt", iron.Description)
	assert.Equal(t, res.WrittenIcons[0], iron.IconPath)
	assert.NotEqual(t, "/uploads/iron.png", iron.IconPath)
	assert.Equal(t, []byte("png"), icons.saved[iron.IconPath])
	assert.Equal(t, "", items.items[102].IconPath)
}

func TestReconcile_ExactMatchReusesExisting(t *testing.T) {
	items := newStubItems(100)
	r := NewReconciler(items, newStubIcons(), nil)

	existing := []*domain.Item{
		{ID: 1, Name: "Iron Ore", Category: "Ores", Description: "local", IconPath: "/uploads/local.png"},
		{ID: 2, Name: "Stone", Category: "Blocks"},
	}
	incoming := []ItemRecord{
		{ID: 7, Name: "Iron Ore", Category: "Ores", Description: "remote"},
		{ID: 8, Name: "Stone", Category: "Blocks"},
	}

	res, err := r.Reconcile(context.Background(), incoming, existing, memAssets{})
	require.NoError(t, err)
	assert.Equal(t, map[int64]int64{7: 1, 8: 2}, res.Mapping)
	assert.Empty(t, res.Created)
	assert.Equal(t, []int64{1, 2}, res.Reused)
	assert.Empty(t, items.created)
	assert.Equal(t, "local", existing[0].Description)
}

func TestReconcile_MatchIsCaseSensitiveAndCategoryScoped(t *testing.T) {
	items := newStubItems(100)
	r := NewReconciler(items, newStubIcons(), nil)

	existing := []*domain.Item{{ID: 1, Name: "Stone", Category: "Blocks"}}
	incoming := []ItemRecord{
		{ID: 7, Name: "stone", Category: "Blocks"},
		{ID: 8, Name: "Stone", Category: "Ores"},
	}

	res, err := r.Reconcile(context.Background(), incoming, existing, nil)
	require.NoError(t, err)
	assert.Equal(t, map[int64]int64{7: 101, 8: 102}, res.Mapping)
	assert.Equal(t, []string{"stone", "Stone"}, items.created)
}

func TestReconcile_BackfillsMissingIcon(t *testing.T) {
	items := newStubItems(100)
	icons := newStubIcons()
	r := NewReconciler(items, icons, nil)

	bare := &domain.Item{ID: 1, Name: "Bread", Category: "Food"}
	items.items[1] = bare
	existing := []*domain.Item{bare}

	incoming := []ItemRecord{{ID: 9, Name: "Bread", Category: "Food", IconPath: "/uploads/bread.webp"}}
	res, err := r.Reconcile(context.Background(), incoming, existing, memAssets{"/uploads/bread.webp": []byte("webp")})
	require.NoError(t, err)

	assert.Equal(t, map[int64]int64{9: 1}, res.Mapping)
	assert.Equal(t, []int64{1}, res.Backfilled)
	require.Len(t, res.WrittenIcons, 1)
	assert.Equal(t, res.WrittenIcons[0], items.items[1].IconPath)
	assert.Contains(t, items.items[1].IconPath, ".webp")
}

func TestReconcile_KeepsExistingIcon(t *testing.T) {
	items := newStubItems(100)
	icons := newStubIcons()
	r := NewReconciler(items, icons, nil)

	existing := []*domain.Item{{ID: 1, Name: "Bread", Category: "Food", IconPath: "/uploads/mine.png"}}
	incoming := []ItemRecord{{ID: 9, Name: "Bread", Category: "Food", IconPath: "/uploads/theirs.png"}}

	res, err := r.Reconcile(context.Background(), incoming, existing, memAssets{"/uploads/theirs.png": []byte("x")})
	require.NoError(t, err)
	assert.Empty(t, res.Backfilled)
	assert.Empty(t, res.WrittenIcons)
	assert.Empty(t, icons.saved)
}

func TestReconcile_MissingAssetMeansNoIcon(t *testing.T) {
	items := newStubItems(100)
	icons := newStubIcons()
	r := NewReconciler(items, icons, nil)

	incoming := []ItemRecord{{ID: 3, Name: "Creeper", Category: "Mobs", IconPath: "/uploads/lost.png"}}
	res, err := r.Reconcile(context.Background(), incoming, nil, memAssets{})
	require.NoError(t, err)

	assert.Equal(t, map[int64]int64{3: 101}, res.Mapping)
	assert.Equal(t, "", items.items[101].IconPath)
	assert.Empty(t, icons.saved)
}

func TestReconcile_DuplicatesInPackageShareOneItem(t *testing.T) {
	items := newStubItems(100)
	r := NewReconciler(items, newStubIcons(), nil)

	incoming := []ItemRecord{
		{ID: 1, Name: "Stone", Category: "Blocks"},
		{ID: 2, Name: "Stone", Category: "Blocks"},
	}
	res, err := r.Reconcile(context.Background(), incoming, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, map[int64]int64{1: 101, 2: 101}, res.Mapping)
	assert.Equal(t, []string{"Stone"}, items.created)
}

func TestReconcile_EmptyCategoryIsDefault(t *testing.T) {
	items := newStubItems(100)
	r := NewReconciler(items, newStubIcons(), nil)

	existing := []*domain.Item{{ID: 5, Name: "Thing", Category: domain.DefaultCategory}}
	res, err := r.Reconcile(context.Background(), []ItemRecord{{ID: 1, Name: "Thing"}}, existing, nil)
	require.NoError(t, err)
	assert.Equal(t, map[int64]int64{1: 5}, res.Mapping)
}

func TestReconcile_OldestDuplicateWins(t *testing.T) {
	r := NewReconciler(newStubItems(100), newStubIcons(), nil)

	existing := []*domain.Item{
		{ID: 9, Name: "Stone", Category: "Blocks"},
		{ID: 4, Name: "Stone", Category: "Blocks"},
	}
	res, err := r.Reconcile(context.Background(), []ItemRecord{{ID: 1, Name: "Stone", Category: "Blocks"}}, existing, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.Mapping[1])
}

func TestReconcile_ErrorReportsWrittenIcons(t *testing.T) {
	items := newStubItems(100)
	items.failOn = "Broken"
	r := NewReconciler(items, newStubIcons(), nil)

	incoming := []ItemRecord{
		{ID: 1, Name: "Fine", Category: "A", IconPath: "/uploads/a.png"},
		{ID: 2, Name: "Broken", Category: "A", IconPath: "/uploads/b.png"},
	}
	res, err := r.Reconcile(context.Background(), incoming, nil, memAssets{
		"/uploads/a.png": []byte("a"),
		"/uploads/b.png": []byte("b"),
	})
	require.Error(t, err)
	assert.Len(t, res.WrittenIcons, 2)
}
