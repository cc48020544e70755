// Package legacy holds custom foods saved on this node before they reached the
// moderation queue. Each owner has one list under a fixed key, read and
// written wholesale.
package legacy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"nutrition-catalog/domain"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/pebble"
)

// Key is the fixed key of the custom food list.
const Key = "legacy_custom_foods"

type (
	Store interface {
		Load(ctx context.Context) ([]domain.CatalogItem, error)
		Save(ctx context.Context, items []domain.CatalogItem) error
	}

	// Scoper hands out one list per owner.
	Scoper interface {
		For(owner string) Store
	}
)

// Add stores item in s, replacing an entry with the same id.
func Add(ctx context.Context, s Store, item domain.CatalogItem) error {
	items, err := s.Load(ctx)
	if err != nil {
		return err
	}
	replaced := false
	for i := range items {
		if items[i].ID == item.ID {
			items[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		items = append(items, item)
	}
	return s.Save(ctx, items)
}

func scopedKey(owner string) []byte {
	if owner == "" {
		return []byte(Key)
	}
	return []byte(Key + "/" + owner)
}

func encodeItems(items []domain.CatalogItem) ([]byte, error) {
	if items == nil {
		items = []domain.CatalogItem{}
	}
	return json.Marshal(items)
}

func decodeItems(val []byte) ([]domain.CatalogItem, error) {
	var items []domain.CatalogItem
	if err := json.Unmarshal(val, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", Key, err)
	}
	return items, nil
}

// PebbleStore keeps the lists in a pebble database.
type PebbleStore struct {
	db *pebble.DB
}

func NewPebbleStore(dir string) (*PebbleStore, error) {
	d, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("pebble open: %w", err)
	}
	return &PebbleStore{db: d}, nil
}

func (p *PebbleStore) Close() error { return p.db.Close() }

func (p *PebbleStore) For(owner string) Store {
	return &pebbleList{db: p.db, key: scopedKey(owner)}
}

type pebbleList struct {
	db  *pebble.DB
	key []byte
}

func (l *pebbleList) Load(_ context.Context) ([]domain.CatalogItem, error) {
	v, closer, err := l.db.Get(l.key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("pebble get: %w", err)
	}
	defer closer.Close()
	return decodeItems(v)
}

func (l *pebbleList) Save(_ context.Context, items []domain.CatalogItem) error {
	b, err := encodeItems(items)
	if err != nil {
		return err
	}
	if err := l.db.Set(l.key, b, pebble.Sync); err != nil {
		return fmt.Errorf("pebble set: %w", err)
	}
	return nil
}

// MemoryStore is an in-process Scoper used for local runs and tests. Values
// go through the same JSON encoding as the pebble lists.
type MemoryStore struct {
	mu    sync.RWMutex
	lists map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{lists: make(map[string][]byte)}
}

func (m *MemoryStore) For(owner string) Store {
	return &memoryList{parent: m, key: string(scopedKey(owner))}
}

type memoryList struct {
	parent *MemoryStore
	key    string
}

func (l *memoryList) Load(ctx context.Context) ([]domain.CatalogItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.parent.mu.RLock()
	v, ok := l.parent.lists[l.key]
	l.parent.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return decodeItems(v)
}

func (l *memoryList) Save(ctx context.Context, items []domain.CatalogItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := encodeItems(items)
	if err != nil {
		return err
	}
	l.parent.mu.Lock()
	l.parent.lists[l.key] = b
	l.parent.mu.Unlock()
	return nil
}
