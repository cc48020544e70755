package reference

import (
	"io"
	"nutrition-catalog/domain"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValidAndUnique(t *testing.T) {
	items := Default()
	require.NotEmpty(t, items)

	ids := map[string]bool{}
	keys := map[string]bool{}
	for _, item := range items {
		require.NoError(t, item.Validate(), item.ID)
		assert.Equal(t, domain.SourceReference, item.Source)
		assert.False(t, ids[item.ID], "duplicate id %s", item.ID)
		assert.False(t, keys[item.IdentityKey()], "duplicate key %s", item.IdentityKey())
		ids[item.ID] = true
		keys[item.IdentityKey()] = true
	}
}

func TestDefault_ReturnsCopy(t *testing.T) {
	a := Default()
	a[0].Name = "changed"
	assert.NotEqual(t, "changed", Default()[0].Name)
}

func TestLoadParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reference.parquet")
	rows := []Row{
		{ID: "p1", Name: "Kefir", Category: "dairy", Calories: 41, Protein: 3.4, Carbs: 4.5, Fat: 1, ServingSizeGrams: 100},
		{ID: "p2", Name: "Moon Rock", Category: "minerals", ServingSizeGrams: 1},
		{ID: "p3", Name: "Air", Category: "other", Calories: 5, ServingSizeGrams: 0},
		{ID: "p4", Name: "Sauerkraut", Category: "Vegetables", Calories: 19, Protein: 0.9, Carbs: 4.3, Fat: 0.1, Fiber: 2.9, ServingSizeGrams: 100, Barcode: "482000"},
	}
	require.NoError(t, parquet.WriteFile(path, rows))

	items, err := LoadParquet(path)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Kefir", items[0].Name)
	assert.Equal(t, domain.CategoryVegetables, items[1].Category)
	assert.Equal(t, "sauerkraut|482000", items[1].IdentityKey())
	assert.Equal(t, domain.SourceReference, items[1].Source)
}

func TestLoadParquet_MissingFile(t *testing.T) {
	_, err := LoadParquet(filepath.Join(t.TempDir(), "nope.parquet"))
	assert.Error(t, err)
}

func TestLoadParquet_TruncatedFile(t *testing.T) {
	dir := t.TempDir()
	full := filepath.Join(dir, "full.parquet")
	rows := make([]Row, 0, 500)
	for i := 0; i < 500; i++ {
		rows = append(rows, Row{ID: "k" + strconv.Itoa(i), Name: "Kefir", Category: "dairy", Calories: 41, ServingSizeGrams: 100})
	}
	require.NoError(t, parquet.WriteFile(full, rows))

	raw, err := os.ReadFile(full)
	require.NoError(t, err)
	cut := filepath.Join(dir, "cut.parquet")
	require.NoError(t, os.WriteFile(cut, raw[:len(raw)/2], 0o644))

	items, err := LoadParquet(cut)
	assert.Error(t, err)
	assert.Nil(t, items)
}

// brokenRows yields one batch of rows and then fails the way a cut-off
// stream does.
type brokenRows struct {
	batch []Row
	err   error
	done  bool
}

func (b *brokenRows) Read(rows []Row) (int, error) {
	if b.done {
		return 0, b.err
	}
	b.done = true
	return copy(rows, b.batch), nil
}

func TestReadItems_ReadErrorDiscardsPartialSet(t *testing.T) {
	reader := &brokenRows{
		batch: []Row{{ID: "p1", Name: "Kefir", Category: "dairy", Calories: 41, ServingSizeGrams: 100}},
		err:   io.ErrUnexpectedEOF,
	}
	items, err := readItems(reader)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Nil(t, items)
}

func TestReadItems_EOFEndsDataset(t *testing.T) {
	reader := &brokenRows{
		batch: []Row{{ID: "p1", Name: "Kefir", Category: "dairy", Calories: 41, ServingSizeGrams: 100}},
		err:   io.EOF,
	}
	items, err := readItems(reader)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Kefir", items[0].Name)
}
