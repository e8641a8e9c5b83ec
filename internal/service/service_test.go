package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/mcprogress/internal/db"
	"github.com/vbonduro/mcprogress/internal/domain"
	"github.com/vbonduro/mcprogress/internal/iconstore"
	"github.com/vbonduro/mcprogress/internal/iconstore/local"
	"github.com/vbonduro/mcprogress/internal/store"
)

var testNow = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

// testEnv is one isolated library: database, icon directory and services.
type testEnv struct {
	db      *sql.DB
	uow     *store.TxManager
	icons   iconstore.IconStore
	iconDir string
	pkg     *PackageService
	lib     *LibraryService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return newTestEnvOn(t, d, PackageOptions{ExportAllWhenUnreferenced: true})
}

func newTestEnvOn(t *testing.T, d *sql.DB, opts PackageOptions) *testEnv {
	t.Helper()
	iconDir := t.TempDir()
	icons, err := local.NewLocalIconStore(iconDir)
	require.NoError(t, err)
	return newTestEnvWithIcons(t, d, icons, iconDir, opts)
}

func newTestEnvWithIcons(t *testing.T, d *sql.DB, icons iconstore.IconStore, iconDir string, opts PackageOptions) *testEnv {
	t.Helper()
	uow := store.NewTxManager(d)
	return &testEnv{
		db:      d,
		uow:     uow,
		icons:   icons,
		iconDir: iconDir,
		pkg:     NewPackageService(uow, icons, clockwork.NewFakeClockAt(testNow), opts, slog.Default()),
		lib:     NewLibraryService(uow, icons, slog.Default()),
	}
}

func (e *testEnv) createItem(t *testing.T, name, category, iconPath string) *domain.Item {
	t.Helper()
	item, err := store.NewItemStore(e.db).Create(context.Background(), name, category, "", iconPath)
	require.NoError(t, err)
	return item
}

func (e *testEnv) createScene(t *testing.T, name string, nodes []string, edges []string) *domain.Scene {
	t.Helper()
	ctx := context.Background()
	scene, err := e.lib.CreateScene(ctx, name)
	require.NoError(t, err)
	require.NoError(t, e.lib.PutGraph(ctx, scene.ID, diagramOf(nodes, edges)))
	return scene
}

func (e *testEnv) items(t *testing.T) []*domain.Item {
	t.Helper()
	items, err := store.NewItemStore(e.db).List(context.Background())
	require.NoError(t, err)
	return items
}

func (e *testEnv) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, e.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func diagramOf(nodes []string, edges []string) domain.Diagram {
	d := domain.EmptyDiagram()
	for _, n := range nodes {
		d.Nodes = append(d.Nodes, json.RawMessage(n))
	}
	for _, e := range edges {
		d.Edges = append(d.Edges, json.RawMessage(e))
	}
	return d
}
