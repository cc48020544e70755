package domain

import (
	"errors"
	"strings"
)

var (
	MessageSuccessGetCatalog   = "catalog retrieved successfully"
	MessageSuccessSubmitItem   = "food item submitted for review"
	MessageSuccessSavedLocally = "food item saved locally only"
	MessageSuccessScaleItem    = "nutrients scaled successfully"
	MessageSuccessMealTotals   = "meal totals calculated successfully"

	MessageFailedGetCatalog = "failed to retrieve catalog"
	MessageFailedSubmitItem = "failed to submit food item"
	MessageFailedScaleItem  = "failed to scale nutrients"
	MessageFailedMealTotals = "failed to calculate meal totals"

	ErrInvalidCategory    = errors.New("invalid category")
	ErrInvalidServingSize = errors.New("serving size must be positive when nutrients are set")
	ErrInvalidWeight      = errors.New("weight must be positive")
)

// Category is the closed set of food categories.
type Category string

const (
	CategoryFruits     Category = "fruits"
	CategoryVegetables Category = "vegetables"
	CategoryGrains     Category = "grains"
	CategoryProtein    Category = "protein"
	CategoryDairy      Category = "dairy"
	CategorySnacks     Category = "snacks"
	CategoryBeverages  Category = "beverages"
	CategoryPrepared   Category = "prepared"
	CategoryOther      Category = "other"
)

var Categories = []Category{
	CategoryFruits,
	CategoryVegetables,
	CategoryGrains,
	CategoryProtein,
	CategoryDairy,
	CategorySnacks,
	CategoryBeverages,
	CategoryPrepared,
	CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", ErrInvalidCategory
	}
	return c, nil
}

// Source identifies where a catalog item came from. Lower values win ties on
// the identity key.
type Source int

const (
	SourceReference Source = iota
	SourceApproved
	SourceLegacyLocal
	SourceOwnPending
)

func (s Source) String() string {
	switch s {
	case SourceReference:
		return "reference"
	case SourceApproved:
		return "approved"
	case SourceLegacyLocal:
		return "legacy_local"
	case SourceOwnPending:
		return "own_pending"
	default:
		return "unknown"
	}
}

type (
	CatalogItem struct {
		ID                 string   `json:"id"`
		Name               string   `json:"name"`
		Category           Category `json:"category"`
		Calories           float64  `json:"calories"`
		Protein            float64  `json:"protein"`
		Carbs              float64  `json:"carbs"`
		Fat                float64  `json:"fat"`
		Fiber              float64  `json:"fiber"`
		Sugar              float64  `json:"sugar"`
		ServingSizeGrams   float64  `json:"serving_size_grams"`
		ServingDescription string   `json:"serving_description,omitempty"`
		ImageRef           string   `json:"image_ref,omitempty"`
		Barcode            string   `json:"barcode,omitempty"`
		CreatorUserID      string   `json:"creator_user_id,omitempty"`
		CreatorEmail       string   `json:"creator_email,omitempty"`

		// Source is set by the aggregator and never persisted.
		Source Source `json:"-"`
	}

	Nutrients struct {
		Calories float64 `json:"calories"`
		Protein  float64 `json:"protein"`
		Carbs    float64 `json:"carbs"`
		Fat      float64 `json:"fat"`
		Fiber    float64 `json:"fiber"`
		Sugar    float64 `json:"sugar"`
	}

	SubmitFoodRequest struct {
		Name               string  `json:"name" form:"name" validate:"required,max=120"`
		Category           string  `json:"category" form:"category" validate:"required,oneof=fruits vegetables grains protein dairy snacks beverages prepared other"`
		Calories           float64 `json:"calories" form:"calories" validate:"gte=0"`
		Protein            float64 `json:"protein" form:"protein" validate:"gte=0"`
		Carbs              float64 `json:"carbs" form:"carbs" validate:"gte=0"`
		Fat                float64 `json:"fat" form:"fat" validate:"gte=0"`
		Fiber              float64 `json:"fiber" form:"fiber" validate:"gte=0"`
		Sugar              float64 `json:"sugar" form:"sugar" validate:"gte=0"`
		ServingSizeGrams   float64 `json:"serving_size_grams" form:"serving_size_grams" validate:"required,gt=0"`
		ServingDescription string  `json:"serving_description" form:"serving_description" validate:"omitempty,max=120"`
		Barcode            string  `json:"barcode" form:"barcode" validate:"omitempty,max=64"`
		PhotoBase64        string  `json:"photo_base64" form:"photo_base64" validate:"omitempty,base64"`
	}

	CatalogItemResponse struct {
		ID                 string  `json:"id"`
		Name               string  `json:"name"`
		Category           string  `json:"category"`
		Calories           float64 `json:"calories"`
		Protein            float64 `json:"protein"`
		Carbs              float64 `json:"carbs"`
		Fat                float64 `json:"fat"`
		Fiber              float64 `json:"fiber"`
		Sugar              float64 `json:"sugar"`
		ServingSizeGrams   float64 `json:"serving_size_grams"`
		ServingDescription string  `json:"serving_description,omitempty"`
		ImageRef           string  `json:"image_ref,omitempty"`
		Barcode            string  `json:"barcode,omitempty"`
		Source             string  `json:"source"`
	}

	CatalogResponse struct {
		Version uint64                `json:"version"`
		Total   int                   `json:"total"`
		Items   []CatalogItemResponse `json:"items"`
	}

	ScaleResponse struct {
		ID        string    `json:"id"`
		Grams     float64   `json:"grams"`
		Nutrients Nutrients `json:"nutrients"`
	}

	MealPortion struct {
		ItemID string  `json:"item_id" validate:"required"`
		Grams  float64 `json:"grams" validate:"required,gt=0"`
	}

	MealRequest struct {
		Portions []MealPortion `json:"portions" validate:"required,min=1,max=50,dive"`
	}

	MealResponse struct {
		Portions []ScaleResponse `json:"portions"`
		Total    Nutrients       `json:"total"`
	}
)

// NormalizeName lower-cases and trims. No accent or script folding is applied.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// IdentityKey is the dedup key for the item.
func (i CatalogItem) IdentityKey() string {
	key := NormalizeName(i.Name)
	if i.Barcode != "" {
		key += "|" + i.Barcode
	}
	return key
}

func (i CatalogItem) Nutrients() Nutrients {
	return Nutrients{
		Calories: i.Calories,
		Protein:  i.Protein,
		Carbs:    i.Carbs,
		Fat:      i.Fat,
		Fiber:    i.Fiber,
		Sugar:    i.Sugar,
	}
}

// Validate checks the closed category set, non-negative nutrients and the
// serving size invariant.
func (i CatalogItem) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return errors.New("name is required")
	}
	if !i.Category.Valid() {
		return ErrInvalidCategory
	}
	n := i.Nutrients()
	for _, v := range []float64{n.Calories, n.Protein, n.Carbs, n.Fat, n.Fiber, n.Sugar} {
		if v < 0 {
			return errors.New("nutrient values must not be negative")
		}
	}
	if i.ServingSizeGrams <= 0 && n != (Nutrients{}) {
		return ErrInvalidServingSize
	}
	return nil
}

// Scale returns the nutrients for the requested weight in grams.
func Scale(item CatalogItem, grams float64) Nutrients {
	if item.ServingSizeGrams <= 0 {
		return Nutrients{}
	}
	ratio := grams / item.ServingSizeGrams
	return Nutrients{
		Calories: item.Calories * ratio,
		Protein:  item.Protein * ratio,
		Carbs:    item.Carbs * ratio,
		Fat:      item.Fat * ratio,
		Fiber:    item.Fiber * ratio,
		Sugar:    item.Sugar * ratio,
	}
}

func (n Nutrients) Add(o Nutrients) Nutrients {
	return Nutrients{
		Calories: n.Calories + o.Calories,
		Protein:  n.Protein + o.Protein,
		Carbs:    n.Carbs + o.Carbs,
		Fat:      n.Fat + o.Fat,
		Fiber:    n.Fiber + o.Fiber,
		Sugar:    n.Sugar + o.Sugar,
	}
}

func (r SubmitFoodRequest) ToCatalogItem() CatalogItem {
	return CatalogItem{
		Name:               strings.TrimSpace(r.Name),
		Category:           Category(strings.ToLower(r.Category)),
		Calories:           r.Calories,
		Protein:            r.Protein,
		Carbs:              r.Carbs,
		Fat:                r.Fat,
		Fiber:              r.Fiber,
		Sugar:              r.Sugar,
		ServingSizeGrams:   r.ServingSizeGrams,
		ServingDescription: r.ServingDescription,
		Barcode:            strings.TrimSpace(r.Barcode),
	}
}

func ToCatalogItemResponse(item CatalogItem) CatalogItemResponse {
	return CatalogItemResponse{
		ID:                 item.ID,
		Name:               item.Name,
		Category:           string(item.Category),
		Calories:           item.Calories,
		Protein:            item.Protein,
		Carbs:              item.Carbs,
		Fat:                item.Fat,
		Fiber:              item.Fiber,
		Sugar:              item.Sugar,
		ServingSizeGrams:   item.ServingSizeGrams,
		ServingDescription: item.ServingDescription,
		ImageRef:           item.ImageRef,
		Barcode:            item.Barcode,
		Source:             item.Source.String(),
	}
}
