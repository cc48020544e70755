package docstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// ErrConditionFailed is returned by UpdateIf when the record exists but does
// not match the condition.
var ErrConditionFailed = errors.New("update condition not met")

// Logical collections of the remote document store.
const (
	CollectionReferenceSubmissions = "reference_submissions"
	CollectionApproved             = "approved_foods"
	CollectionPending              = "pending_foods"
)

type (
	// Record is a flat key/value document as stored remotely. Records never
	// leave the repository layer undecoded.
	Record map[string]any

	Document struct {
		ID   string
		Data Record
	}

	Filter struct {
		Field string
		Value any
	}

	Query struct {
		Filters []Filter
		OrderBy string
		Desc    bool
	}

	Store interface {
		Create(ctx context.Context, collection string, rec Record) (string, error)
		Put(ctx context.Context, collection string, id string, rec Record) error
		Get(ctx context.Context, collection string, id string) (Document, error)
		Query(ctx context.Context, collection string, q Query) ([]Document, error)
		Update(ctx context.Context, collection string, id string, partial Record) error
		// UpdateIf applies partial only while cond still holds, as one atomic step.
		UpdateIf(ctx context.Context, collection string, id string, cond Filter, partial Record) error
		// Delete removes a record. A missing record is not an error.
		Delete(ctx context.Context, collection string, id string) error
	}
)

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validField(field string) error {
	if !fieldPattern.MatchString(field) {
		return fmt.Errorf("invalid field name %q", field)
	}
	return nil
}

// Where is shorthand for an equality filter.
func Where(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}
