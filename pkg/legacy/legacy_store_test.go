package legacy

import (
	"context"
	"nutrition-catalog/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(id, name string) domain.CatalogItem {
	return domain.CatalogItem{
		ID:               id,
		Name:             name,
		Category:         domain.CategoryPrepared,
		Calories:         120,
		ServingSizeGrams: 50,
	}
}

func exercise(t *testing.T, scoper Scoper) {
	t.Helper()
	ctx := context.Background()
	alice := scoper.For("alice")
	bob := scoper.For("bob")

	items, err := alice.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	require.NoError(t, Add(ctx, alice, item("l1", "Grandma's Soup")))
	require.NoError(t, Add(ctx, alice, item("l2", "Pierogi")))
	updated := item("l1", "Grandma's Soup")
	updated.Calories = 140
	require.NoError(t, Add(ctx, alice, updated))

	items, err = alice.Load(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 140.0, items[0].Calories)
	assert.Equal(t, "Pierogi", items[1].Name)

	items, err = bob.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	require.NoError(t, alice.Save(ctx, nil))
	items, err = alice.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMemoryStore(t *testing.T) {
	exercise(t, NewMemoryStore())
}

func TestPebbleStore(t *testing.T) {
	st, err := NewPebbleStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	exercise(t, st)
}

func TestPebbleStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	st, err := NewPebbleStore(dir)
	require.NoError(t, err)
	require.NoError(t, Add(context.Background(), st.For(""), item("l1", "Kvass")))
	require.NoError(t, st.Close())

	st, err = NewPebbleStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	items, err := st.For("").Load(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Kvass", items[0].Name)
}
