package catalog

import (
	"nutrition-catalog/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func food(id, name string, source domain.Source) domain.CatalogItem {
	return domain.CatalogItem{
		ID:               id,
		Name:             name,
		Category:         domain.CategoryFruits,
		Calories:         50,
		ServingSizeGrams: 100,
		Source:           source,
	}
}

func TestMerge_HigherPriorityWinsRegardlessOfOrder(t *testing.T) {
	ref := []domain.CatalogItem{food("r1", "Banana", domain.SourceReference)}
	appr := []domain.CatalogItem{food("a1", "banana", domain.SourceApproved)}
	leg := []domain.CatalogItem{food("l1", " BANANA ", domain.SourceLegacyLocal)}
	pend := []domain.CatalogItem{food("p1", "Banana", domain.SourceOwnPending)}

	orders := [][][]domain.CatalogItem{
		{ref, appr, leg, pend},
		{pend, leg, appr, ref},
		{appr, pend, ref, leg},
		{leg, ref, pend, appr},
	}
	for _, batches := range orders {
		merged := Merge(batches...)
		require.Len(t, merged, 1)
		assert.Equal(t, "r1", merged[0].ID)
	}

	merged := Merge(pend, leg, appr)
	require.Len(t, merged, 1)
	assert.Equal(t, "a1", merged[0].ID)

	merged = Merge(pend, leg)
	require.Len(t, merged, 1)
	assert.Equal(t, "l1", merged[0].ID)
}

func TestMerge_BarcodeIsPartOfIdentity(t *testing.T) {
	plain := food("r1", "Milk", domain.SourceReference)
	coded := food("a1", "milk", domain.SourceApproved)
	coded.Barcode = "4820000"
	sameCode := food("p1", "Milk ", domain.SourceOwnPending)
	sameCode.Barcode = "4820000"

	merged := Merge([]domain.CatalogItem{plain}, []domain.CatalogItem{coded, sameCode})
	require.Len(t, merged, 2)
	ids := []string{merged[0].ID, merged[1].ID}
	assert.ElementsMatch(t, []string{"r1", "a1"}, ids)
}

func TestMerge_SortsByNameThenID(t *testing.T) {
	merged := Merge([]domain.CatalogItem{
		food("3", "oats", domain.SourceReference),
		food("2", "Apple", domain.SourceApproved),
		food("9", "Écrevisse", domain.SourceReference),
		food("1", "banana", domain.SourceOwnPending),
	}, []domain.CatalogItem{
		withBarcode(food("b", "Apple", domain.SourceReference), "1"),
	})
	var names []string
	var ids []string
	for _, item := range merged {
		names = append(names, item.Name)
		ids = append(ids, item.ID)
	}
	assert.Equal(t, []string{"Apple", "Apple", "banana", "Écrevisse", "oats"}, names)
	assert.Equal(t, []string{"2", "b", "1", "9", "3"}, ids)
}

func withBarcode(item domain.CatalogItem, barcode string) domain.CatalogItem {
	item.Barcode = barcode
	return item
}

func TestMerge_NoTransliteration(t *testing.T) {
	merged := Merge([]domain.CatalogItem{
		food("r1", "Kefir", domain.SourceReference),
		food("r2", "Кефир", domain.SourceReference),
	})
	assert.Len(t, merged, 2)
}

func TestFilter(t *testing.T) {
	items := []domain.CatalogItem{
		food("1", "Banana", domain.SourceReference),
		food("2", "Banana Bread", domain.SourceReference),
		food("3", "Apple", domain.SourceReference),
	}
	items[1].Category = domain.CategoryPrepared

	tests := []struct {
		name     string
		category domain.Category
		search   string
		want     []string
	}{
		{"everything", "", "", []string{"1", "2", "3"}},
		{"case insensitive search", "", "BANANA", []string{"1", "2"}},
		{"substring", "", "ppl", []string{"3"}},
		{"category only", domain.CategoryPrepared, "", []string{"2"}},
		{"category and search", domain.CategoryFruits, "ban", []string{"1"}},
		{"no match", domain.CategoryDairy, "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, item := range Filter(items, tt.category, tt.search) {
				got = append(got, item.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
