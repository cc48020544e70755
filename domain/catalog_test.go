package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityKey(t *testing.T) {
	tests := []struct {
		name string
		item CatalogItem
		want string
	}{
		{"name only", CatalogItem{Name: "  Banana "}, "banana"},
		{"with barcode", CatalogItem{Name: "Milk", Barcode: "4820000"}, "milk|4820000"},
		{"empty barcode", CatalogItem{Name: "MILK", Barcode: ""}, "milk"},
		{"no transliteration", CatalogItem{Name: "Кефир"}, "кефир"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.item.IdentityKey())
		})
	}
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory(" Dairy ")
	require.NoError(t, err)
	assert.Equal(t, CategoryDairy, c)

	_, err = ParseCategory("spaceship")
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestValidate(t *testing.T) {
	ok := CatalogItem{Name: "Oats", Category: CategoryGrains, Calories: 389, ServingSizeGrams: 100}
	require.NoError(t, ok.Validate())

	zeroEverything := CatalogItem{Name: "Water", Category: CategoryBeverages}
	assert.NoError(t, zeroEverything.Validate())

	noServing := ok
	noServing.ServingSizeGrams = 0
	assert.ErrorIs(t, noServing.Validate(), ErrInvalidServingSize)

	negative := ok
	negative.Fat = -1
	assert.Error(t, negative.Validate())

	noName := ok
	noName.Name = " "
	assert.Error(t, noName.Validate())

	badCategory := ok
	badCategory.Category = "rocks"
	assert.ErrorIs(t, badCategory.Validate(), ErrInvalidCategory)
}

func TestScale_Linear(t *testing.T) {
	item := CatalogItem{Calories: 89, Protein: 1.1, Carbs: 22.8, Fat: 0.3, Fiber: 2.6, Sugar: 12.2, ServingSizeGrams: 118}
	weights := [][2]float64{{1, 1}, {50, 68}, {0.3, 1234.5}, {118, 118}, {7.77, 0.01}}
	for _, w := range weights {
		whole := Scale(item, w[0]+w[1])
		parts := Scale(item, w[0]).Add(Scale(item, w[1]))
		assertClose(t, whole, parts)
	}

	full := Scale(item, 118)
	assertClose(t, item.Nutrients(), full)
}

func TestScale_ZeroServingSize(t *testing.T) {
	assert.Equal(t, Nutrients{}, Scale(CatalogItem{Calories: 10}, 100))
}

func assertClose(t *testing.T, want, got Nutrients) {
	t.Helper()
	const eps = 1e-9
	pairs := [][2]float64{
		{want.Calories, got.Calories},
		{want.Protein, got.Protein},
		{want.Carbs, got.Carbs},
		{want.Fat, got.Fat},
		{want.Fiber, got.Fiber},
		{want.Sugar, got.Sugar},
	}
	for _, p := range pairs {
		assert.LessOrEqual(t, math.Abs(p[0]-p[1]), eps*math.Max(1, math.Abs(p[0])))
	}
}

func TestSubmitFoodRequest_ToCatalogItem(t *testing.T) {
	item := SubmitFoodRequest{
		Name:             "  Kvass ",
		Category:         "Beverages",
		Calories:         27,
		ServingSizeGrams: 100,
		Barcode:          " 460 ",
	}.ToCatalogItem()
	assert.Equal(t, "Kvass", item.Name)
	assert.Equal(t, CategoryBeverages, item.Category)
	assert.Equal(t, "460", item.Barcode)
	require.NoError(t, item.Validate())
}

func TestPendingSubmissionStatus(t *testing.T) {
	p := PendingSubmission{}
	assert.Equal(t, StatusPending, p.Status())
	assert.False(t, p.Terminal())

	p.Verified = true
	assert.Equal(t, StatusApproved, p.Status())
	assert.True(t, p.Terminal())
}
