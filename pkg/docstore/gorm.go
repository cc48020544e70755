package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"nutrition-catalog/domain"
	"nutrition-catalog/entities"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// gormStore keeps every collection in the documents table as jsonb rows.
type gormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Create(ctx context.Context, collection string, rec Record) (string, error) {
	id := uuid.New().String()
	if err := s.Put(ctx, collection, id, rec); err != nil {
		return "", err
	}
	return id, nil
}

func (s *gormStore) Put(ctx context.Context, collection string, id string, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	doc := &entities.Document{
		Collection: collection,
		ID:         id,
		Data:       string(data),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "collection"}, {Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).
		Create(doc).Error
}

func (s *gormStore) Get(ctx context.Context, collection string, id string) (Document, error) {
	var doc entities.Document
	if err := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Document{}, fmt.Errorf("%s/%s: %w", collection, id, domain.ErrNotFound)
		}
		return Document{}, err
	}
	return decodeDocument(doc)
}

func (s *gormStore) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	query := s.db.WithContext(ctx).Where("collection = ?", collection)
	for _, f := range q.Filters {
		if err := validField(f.Field); err != nil {
			return nil, err
		}
		query = query.Where("data->>? = ?", f.Field, fmt.Sprint(f.Value))
	}
	if q.OrderBy != "" {
		if err := validField(q.OrderBy); err != nil {
			return nil, err
		}
		dir := "ASC"
		if q.Desc {
			dir = "DESC"
		}
		query = query.Order(fmt.Sprintf("data->'%s' %s NULLS LAST", q.OrderBy, dir))
	}
	query = query.Order("id ASC")

	var docs []entities.Document
	if err := query.Find(&docs).Error; err != nil {
		return nil, err
	}

	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		doc, err := decodeDocument(d)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func (s *gormStore) Update(ctx context.Context, collection string, id string, partial Record) error {
	patch, err := json.Marshal(partial)
	if err != nil {
		return fmt.Errorf("encode patch %s/%s: %w", collection, id, err)
	}
	res := s.db.WithContext(ctx).
		Model(&entities.Document{}).
		Where("collection = ? AND id = ?", collection, id).
		Updates(map[string]interface{}{
			"data":       gorm.Expr("data || ?::jsonb", string(patch)),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, domain.ErrNotFound)
	}
	return nil
}

func decodeDocument(d entities.Document) (Document, error) {
	rec := Record{}
	if err := json.Unmarshal([]byte(d.Data), &rec); err != nil {
		return Document{}, fmt.Errorf("decode %s/%s: %w", d.Collection, d.ID, err)
	}
	return Document{ID: d.ID, Data: rec}, nil
}

func (s *gormStore) UpdateIf(ctx context.Context, collection string, id string, cond Filter, partial Record) error {
	if err := validField(cond.Field); err != nil {
		return err
	}
	patch, err := json.Marshal(partial)
	if err != nil {
		return fmt.Errorf("encode patch %s/%s: %w", collection, id, err)
	}
	res := s.db.WithContext(ctx).
		Model(&entities.Document{}).
		Where("collection = ? AND id = ?", collection, id).
		Where("data->>? = ?", cond.Field, fmt.Sprint(cond.Value)).
		Updates(map[string]interface{}{
			"data":       gorm.Expr("data || ?::jsonb", string(patch)),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	if _, err := s.Get(ctx, collection, id); err != nil {
		return err
	}
	return fmt.Errorf("%s/%s: %s: %w", collection, id, cond.Field, ErrConditionFailed)
}

func (s *gormStore) Delete(ctx context.Context, collection string, id string) error {
	return s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		Delete(&entities.Document{}).Error
}
