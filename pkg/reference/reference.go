// Package reference provides the static reference food set. It is built in
// and can be replaced by a parquet dataset at startup.
package reference

import (
	"errors"
	"fmt"
	"io"
	"nutrition-catalog/domain"
	"os"

	"github.com/gofiber/fiber/v2/log"
	"github.com/parquet-go/parquet-go"
)

// Row is one record of a reference parquet dataset.
type Row struct {
	ID                 string  `parquet:"id"`
	Name               string  `parquet:"name"`
	Category           string  `parquet:"category"`
	Calories           float64 `parquet:"calories"`
	Protein            float64 `parquet:"protein"`
	Carbs              float64 `parquet:"carbs"`
	Fat                float64 `parquet:"fat"`
	Fiber              float64 `parquet:"fiber,optional"`
	Sugar              float64 `parquet:"sugar,optional"`
	ServingSizeGrams   float64 `parquet:"serving_size_grams"`
	ServingDescription string  `parquet:"serving_description,optional"`
	Barcode            string  `parquet:"barcode,optional"`
}

func (r Row) toItem() (domain.CatalogItem, error) {
	category, err := domain.ParseCategory(r.Category)
	if err != nil {
		return domain.CatalogItem{}, fmt.Errorf("%s: %w", r.ID, err)
	}
	item := domain.CatalogItem{
		ID:                 r.ID,
		Name:               r.Name,
		Category:           category,
		Calories:           r.Calories,
		Protein:            r.Protein,
		Carbs:              r.Carbs,
		Fat:                r.Fat,
		Fiber:              r.Fiber,
		Sugar:              r.Sugar,
		ServingSizeGrams:   r.ServingSizeGrams,
		ServingDescription: r.ServingDescription,
		Barcode:            r.Barcode,
		Source:             domain.SourceReference,
	}
	if item.ID == "" {
		return domain.CatalogItem{}, fmt.Errorf("%q: missing id", r.Name)
	}
	if err := item.Validate(); err != nil {
		return domain.CatalogItem{}, fmt.Errorf("%s: %w", r.ID, err)
	}
	return item, nil
}

// LoadParquet reads a reference dataset. Invalid rows are skipped.
func LoadParquet(path string) ([]domain.CatalogItem, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[Row](pf)
	defer reader.Close()

	items, err := readItems(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet %s: %w", path, err)
	}
	log.Infof("loaded %d reference items from %s", len(items), path)
	return items, nil
}

type rowReader interface {
	Read(rows []Row) (int, error)
}

// readItems drains reader. Only io.EOF ends the dataset; any other error
// discards what was read so far.
func readItems(reader rowReader) ([]domain.CatalogItem, error) {
	var items []domain.CatalogItem
	rows := make([]Row, 128)
	for {
		n, err := reader.Read(rows)
		for _, row := range rows[:n] {
			item, convErr := row.toItem()
			if convErr != nil {
				log.Warnf("skipping reference row: %v", convErr)
				continue
			}
			items = append(items, item)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
	}
	return items, nil
}

// Default returns a fresh copy of the built-in reference set. Values are per
// the declared serving.
func Default() []domain.CatalogItem {
	items := make([]domain.CatalogItem, len(defaults))
	copy(items, defaults)
	for i := range items {
		items[i].Source = domain.SourceReference
	}
	return items
}

var defaults = []domain.CatalogItem{
	{ID: "ref-apple", Name: "Apple", Category: domain.CategoryFruits, Calories: 52, Protein: 0.3, Carbs: 13.8, Fat: 0.2, Fiber: 2.4, Sugar: 10.4, ServingSizeGrams: 100, ServingDescription: "100 g"},
	{ID: "ref-banana", Name: "Banana", Category: domain.CategoryFruits, Calories: 89, Protein: 1.1, Carbs: 22.8, Fat: 0.3, Fiber: 2.6, Sugar: 12.2, ServingSizeGrams: 100, ServingDescription: "100 g"},
	{ID: "ref-orange", Name: "Orange", Category: domain.CategoryFruits, Calories: 47, Protein: 0.9, Carbs: 11.8, Fat: 0.1, Fiber: 2.4, Sugar: 9.4, ServingSizeGrams: 100, ServingDescription: "100 g"},
	{ID: "ref-broccoli", Name: "Broccoli", Category: domain.CategoryVegetables, Calories: 34, Protein: 2.8, Carbs: 6.6, Fat: 0.4, Fiber: 2.6, Sugar: 1.7, ServingSizeGrams: 100, ServingDescription: "100 g"},
	{ID: "ref-carrot", Name: "Carrot", Category: domain.CategoryVegetables, Calories: 41, Protein: 0.9, Carbs: 9.6, Fat: 0.2, Fiber: 2.8, Sugar: 4.7, ServingSizeGrams: 100, ServingDescription: "100 g"},
	{ID: "ref-potato", Name: "Potato", Category: domain.CategoryVegetables, Calories: 77, Protein: 2, Carbs: 17, Fat: 0.1, Fiber: 2.2, Sugar: 0.8, ServingSizeGrams: 100, ServingDescription: "100 g"},
	{ID: "ref-rice-white", Name: "White Rice, cooked", Category: domain.CategoryGrains, Calories: 130, Protein: 2.7, Carbs: 28, Fat: 0.3, Fiber: 0.4, Sugar: 0.1, ServingSizeGrams: 100, ServingDescription: "100 g"},
	{ID: "ref-oats", Name: "Rolled Oats", Category: domain.CategoryGrains, Calories: 389, Protein: 16.9, Carbs: 66.3, Fat: 6.9, Fiber: 10.6, ServingSizeGrams: 100, ServingDescription: "100 g"},
	{ID: "ref-buckwheat", Name: "Buckwheat, cooked", Category: domain.CategoryGrains, Calories: 92, Protein: 3.4, Carbs: 19.9, Fat: 0.6, Fiber: 2.7, Sugar: 0.9, ServingSizeGrams: 100, ServingDescription: "100 g"},
	{ID: "ref-bread-rye", Name: "Rye Bread", Category: domain.CategoryGrains, Calories: 259, Protein: 8.5, Carbs: 48.3, Fat: 3.3, Fiber: 5.8, Sugar: 3.9, ServingSizeGrams: 100, ServingDescription: "100 g"},
	{ID: "ref-chicken-breast", Name: "Chicken Breast, roasted", Category: domain.CategoryProtein, Calories: 165, Protein: 31, Fat: 3.6, ServingSizeGrams: 100, ServingDescription: "100 g"},
	{ID: "ref-egg", Name: "Egg", Category: domain.CategoryProtein, Calories: 78, Protein: 6.3, Carbs: 0.6, Fat: 5.3, Sugar: 0.6, ServingSizeGrams: 50, ServingDescription: "1 large"},
	{ID: "ref-salmon", Name: "Salmon, baked", Category: domain.CategoryProtein, Calories: 206, Protein: 22, Fat: 12, ServingSizeGrams: 100, ServingDescription: "100 g"},
	{ID: "ref-lentils", Name: "Lentils, boiled", Category: domain.CategoryProtein, Calories: 116, Protein: 9, Carbs: 20, Fat: 0.4, Fiber: 7.9, Sugar: 1.8, ServingSizeGrams: 100, ServingDescription: "100 g"},
	{ID: "ref-milk", Name: "Milk 2.5%", Category: domain.CategoryDairy, Calories: 124, Protein: 8.1, Carbs: 11.7, Fat: 5, Sugar: 11.7, ServingSizeGrams: 244, ServingDescription: "1 cup"},
	{ID: "ref-cottage-cheese", Name: "Cottage Cheese", Category: domain.CategoryDairy, Calories: 98, Protein: 11.1, Carbs: 3.4, Fat: 4.3, Sugar: 2.7, ServingSizeGrams: 100, ServingDescription: "100 g"},
	{ID: "ref-yogurt", Name: "Plain Yogurt", Category: domain.CategoryDairy, Calories: 61, Protein: 3.5, Carbs: 4.7, Fat: 3.3, Sugar: 4.7, ServingSizeGrams: 100, ServingDescription: "100 g"},
	{ID: "ref-almonds", Name: "Almonds", Category: domain.CategorySnacks, Calories: 164, Protein: 6, Carbs: 6.1, Fat: 14.2, Fiber: 3.5, Sugar: 1.2, ServingSizeGrams: 28, ServingDescription: "1 oz"},
	{ID: "ref-dark-chocolate", Name: "Dark Chocolate 70%", Category: domain.CategorySnacks, Calories: 598, Protein: 7.8, Carbs: 45.9, Fat: 42.6, Fiber: 10.9, Sugar: 24, ServingSizeGrams: 100, ServingDescription: "100 g"},
	{ID: "ref-orange-juice", Name: "Orange Juice", Category: domain.CategoryBeverages, Calories: 112, Protein: 1.7, Carbs: 25.8, Fat: 0.5, Fiber: 0.5, Sugar: 20.8, ServingSizeGrams: 248, ServingDescription: "1 cup"},
	{ID: "ref-coffee", Name: "Black Coffee", Category: domain.CategoryBeverages, Calories: 2, Protein: 0.3, ServingSizeGrams: 240, ServingDescription: "1 cup"},
	{ID: "ref-borscht", Name: "Borscht", Category: domain.CategoryPrepared, Calories: 49, Protein: 1.7, Carbs: 6.8, Fat: 1.8, Fiber: 1.4, Sugar: 3.6, ServingSizeGrams: 100, ServingDescription: "100 g"},
	{ID: "ref-pizza-margherita", Name: "Pizza Margherita", Category: domain.CategoryPrepared, Calories: 250, Protein: 10.6, Carbs: 31, Fat: 9.4, Fiber: 2, Sugar: 3.6, ServingSizeGrams: 100, ServingDescription: "100 g"},
	{ID: "ref-honey", Name: "Honey", Category: domain.CategoryOther, Calories: 64, Carbs: 17.3, Sugar: 17.2, ServingSizeGrams: 21, ServingDescription: "1 tbsp"},
	{ID: "ref-olive-oil", Name: "Olive Oil", Category: domain.CategoryOther, Calories: 119, Fat: 13.5, ServingSizeGrams: 13.5, ServingDescription: "1 tbsp"},
}
