// Package record converts remote document-store records to and from the
// typed catalog shapes. Untyped maps stop here.
package record

import (
	"fmt"
	"nutrition-catalog/domain"
	"nutrition-catalog/pkg/docstore"
	"strconv"
	"strings"
	"time"
)

// Wire field names shared by the pending and approved collections.
const (
	FieldID                 = "id"
	FieldName               = "name"
	FieldCategory           = "category"
	FieldCalories           = "calories"
	FieldProtein            = "protein"
	FieldCarbs              = "carbs"
	FieldFat                = "fat"
	FieldFiber              = "fiber"
	FieldSugar              = "sugar"
	FieldServingSize        = "servingSize"
	FieldServingDescription = "servingDescription"
	FieldImageID            = "imageId"
	FieldBarcode            = "barcode"
	FieldCreatedBy          = "createdBy"
	FieldCreatorEmail       = "creatorEmail"

	FieldUserID          = "userId"
	FieldUserEmail       = "userEmail"
	FieldCreatedAt       = "createdAt"
	FieldStatus          = "status"
	FieldVerified        = "verified"
	FieldVerifiedBy      = "verifiedBy"
	FieldVerifiedAt      = "verifiedAt"
	FieldRejectedBy      = "rejectedBy"
	FieldRejectedAt      = "rejectedAt"
	FieldRejectionReason = "rejectionReason"

	FieldSubmissionID         = "submissionId"
	FieldOriginalCreatorID    = "originalCreatorId"
	FieldOriginalCreatorEmail = "originalCreatorEmail"
	FieldApprovedAt           = "approvedAt"
)

// RequiredApproved lists the fields an approved record cannot be used without.
var RequiredApproved = []string{
	FieldID, FieldName, FieldCategory, FieldCalories, FieldProtein, FieldCarbs, FieldFat,
}

// RequiredPending lists the fields a pending record cannot be used without.
var RequiredPending = []string{
	FieldName, FieldCategory, FieldUserID,
}

func EncodeItem(item domain.CatalogItem) docstore.Record {
	rec := docstore.Record{
		FieldName:        item.Name,
		FieldCategory:    string(item.Category),
		FieldCalories:    item.Calories,
		FieldProtein:     item.Protein,
		FieldCarbs:       item.Carbs,
		FieldFat:         item.Fat,
		FieldFiber:       item.Fiber,
		FieldSugar:       item.Sugar,
		FieldServingSize: item.ServingSizeGrams,
	}
	if item.ID != "" {
		rec[FieldID] = item.ID
	}
	if item.ServingDescription != "" {
		rec[FieldServingDescription] = item.ServingDescription
	}
	if item.ImageRef != "" {
		rec[FieldImageID] = item.ImageRef
	}
	if item.Barcode != "" {
		rec[FieldBarcode] = item.Barcode
	}
	if item.CreatorUserID != "" {
		rec[FieldCreatedBy] = item.CreatorUserID
	}
	if item.CreatorEmail != "" {
		rec[FieldCreatorEmail] = item.CreatorEmail
	}
	return rec
}

// DecodeItem builds a CatalogItem from a document. Missing optional fields
// default to zero values; a missing required field or an unknown category
// yields ErrMalformedRecord.
func DecodeItem(doc docstore.Document, required []string) (domain.CatalogItem, error) {
	rec := doc.Data
	for _, field := range required {
		if field == FieldID && doc.ID != "" {
			continue
		}
		if !present(rec, field) {
			return domain.CatalogItem{}, fmt.Errorf("%s: missing %q: %w", doc.ID, field, domain.ErrMalformedRecord)
		}
	}

	id, _ := String(rec, FieldID)
	if id == "" {
		id = doc.ID
	}
	name, _ := String(rec, FieldName)
	categoryRaw, _ := String(rec, FieldCategory)
	category, err := domain.ParseCategory(categoryRaw)
	if err != nil {
		return domain.CatalogItem{}, fmt.Errorf("%s: category %q: %w", doc.ID, categoryRaw, domain.ErrMalformedRecord)
	}

	item := domain.CatalogItem{
		ID:       id,
		Name:     name,
		Category: category,
	}
	var ok bool
	for field, dst := range map[string]*float64{
		FieldCalories:    &item.Calories,
		FieldProtein:     &item.Protein,
		FieldCarbs:       &item.Carbs,
		FieldFat:         &item.Fat,
		FieldFiber:       &item.Fiber,
		FieldSugar:       &item.Sugar,
		FieldServingSize: &item.ServingSizeGrams,
	} {
		if *dst, ok = Float(rec, field); !ok && present(rec, field) {
			return domain.CatalogItem{}, fmt.Errorf("%s: %q is not numeric: %w", doc.ID, field, domain.ErrMalformedRecord)
		}
	}
	item.ServingDescription, _ = String(rec, FieldServingDescription)
	item.ImageRef, _ = String(rec, FieldImageID)
	item.Barcode, _ = String(rec, FieldBarcode)
	item.CreatorUserID, _ = String(rec, FieldCreatedBy)
	item.CreatorEmail, _ = String(rec, FieldCreatorEmail)

	if err := item.Validate(); err != nil {
		return domain.CatalogItem{}, fmt.Errorf("%s: %v: %w", doc.ID, err, domain.ErrMalformedRecord)
	}
	return item, nil
}

func present(rec docstore.Record, field string) bool {
	v, ok := rec[field]
	if !ok || v == nil {
		return false
	}
	if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
		return false
	}
	return true
}

func String(rec docstore.Record, field string) (string, bool) {
	switch v := rec[field].(type) {
	case string:
		return v, true
	case nil:
		return "", false
	default:
		return fmt.Sprint(v), true
	}
}

func Float(rec docstore.Record, field string) (float64, bool) {
	switch v := rec[field].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func Bool(rec docstore.Record, field string) bool {
	switch v := rec[field].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	default:
		return false
	}
}

// Time reads a unix-millisecond timestamp.
func Time(rec docstore.Record, field string) *time.Time {
	ms, ok := Float(rec, field)
	if !ok {
		return nil
	}
	t := time.UnixMilli(int64(ms)).UTC()
	return &t
}

func Millis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}
