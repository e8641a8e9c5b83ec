package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/mcprogress/internal/domain"
)

func TestSceneStoreCreateAndGet(t *testing.T) {
	scenes := NewSceneStore(openTestDB(t))
	ctx := context.Background()

	scene, err := scenes.Create(ctx, "Base")
	require.NoError(t, err)
	assert.NotZero(t, scene.ID)
	assert.Equal(t, "Base", scene.Name)

	got, err := scenes.GetByID(ctx, scene.ID)
	require.NoError(t, err)
	assert.Equal(t, scene, got)

	missing, err := scenes.GetByID(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSceneStoreListAndCount(t *testing.T) {
	scenes := NewSceneStore(openTestDB(t))
	ctx := context.Background()

	n, err := scenes.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	first, err := scenes.Create(ctx, "One")
	require.NoError(t, err)
	second, err := scenes.Create(ctx, "Two")
	require.NoError(t, err)

	list, err := scenes.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	// Same-second timestamps fall back to id order, newest first.
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	n, err = scenes.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSceneStoreDelete_CascadesDiagram(t *testing.T) {
	d := openTestDB(t)
	scenes := NewSceneStore(d)
	diagrams := NewDiagramStore(d)
	ctx := context.Background()

	scene, err := scenes.Create(ctx, "Doomed")
	require.NoError(t, err)
	require.NoError(t, diagrams.Put(ctx, scene.ID, diagramOf(t, `{"nodes":[{"id":"n1"}],"edges":[],"meta":{}}`)))

	require.NoError(t, scenes.Delete(ctx, scene.ID))

	got, err := diagrams.Get(ctx, scene.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.Error(t, scenes.Delete(ctx, scene.ID))
}

func diagramOf(t *testing.T, raw string) domain.Diagram {
	t.Helper()
	var d domain.Diagram
	require.NoError(t, json.Unmarshal([]byte(raw), &d))
	return d
}

func TestSceneStoreFindByNameAndRename(t *testing.T) {
	scenes := NewSceneStore(openTestDB(t))
	ctx := context.Background()

	scene, err := scenes.Create(ctx, "Nether")
	require.NoError(t, err)

	found, err := scenes.FindByName(ctx, "Nether")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, scene.ID, found.ID)

	missing, err := scenes.FindByName(ctx, "nether")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, scenes.Rename(ctx, scene.ID, "The End"))
	got, err := scenes.GetByID(ctx, scene.ID)
	require.NoError(t, err)
	assert.Equal(t, "The End", got.Name)

	assert.Error(t, scenes.Rename(ctx, 999, "Nowhere"))
}
