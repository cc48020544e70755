package docstore

import (
	"context"
	"fmt"
	"nutrition-catalog/domain"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store used for local runs and tests.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string]Record)}
}

func (s *MemoryStore) Create(ctx context.Context, collection string, rec Record) (string, error) {
	id := uuid.New().String()
	if err := s.Put(ctx, collection, id, rec); err != nil {
		return "", err
	}
	return id, nil
}

func (s *MemoryStore) Put(ctx context.Context, collection string, id string, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]Record)
		s.collections[collection] = docs
	}
	docs[id] = copyRecord(rec)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, collection string, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.collections[collection][id]
	if !ok {
		return Document{}, fmt.Errorf("%s/%s: %w", collection, id, domain.ErrNotFound)
	}
	return Document{ID: id, Data: copyRecord(rec)}, nil
}

func (s *MemoryStore) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, f := range q.Filters {
		if err := validField(f.Field); err != nil {
			return nil, err
		}
	}
	s.mu.RLock()
	var out []Document
	for id, rec := range s.collections[collection] {
		if matches(rec, q.Filters) {
			out = append(out, Document{ID: id, Data: copyRecord(rec)})
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if q.OrderBy != "" {
		sort.SliceStable(out, func(i, j int) bool {
			c := compareValues(out[i].Data[q.OrderBy], out[j].Data[q.OrderBy])
			if q.Desc {
				return c > 0
			}
			return c < 0
		})
	}
	return out, nil
}

func (s *MemoryStore) Update(ctx context.Context, collection string, id string, partial Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.collections[collection][id]
	if !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, domain.ErrNotFound)
	}
	for k, v := range partial {
		rec[k] = v
	}
	return nil
}

func (s *MemoryStore) UpdateIf(ctx context.Context, collection string, id string, cond Filter, partial Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validField(cond.Field); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.collections[collection][id]
	if !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, domain.ErrNotFound)
	}
	if !matches(rec, []Filter{cond}) {
		return fmt.Errorf("%s/%s: %s: %w", collection, id, cond.Field, ErrConditionFailed)
	}
	for k, v := range partial {
		rec[k] = v
	}
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection string, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections[collection], id)
	return nil
}

func copyRecord(rec Record) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

func matches(rec Record, filters []Filter) bool {
	for _, f := range filters {
		v, ok := rec[f.Field]
		if !ok || compareValues(v, f.Value) != 0 {
			return false
		}
	}
	return true
}

// compareValues orders numbers numerically and everything else by its string
// form. A missing value sorts first.
func compareValues(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	fa, aNum := toFloat(a)
	fb, bNum := toFloat(b)
	if aNum && bNum {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}
	sa, sb := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	default:
		return 0
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
