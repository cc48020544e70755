package approved

import (
	"context"
	"fmt"
	"nutrition-catalog/domain"
	"nutrition-catalog/internal/metrics"
	"nutrition-catalog/pkg/docstore"
	"nutrition-catalog/pkg/record"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

// approvedNamespace seeds the deterministic approved-record ids.
var approvedNamespace = uuid.MustParse("6f2b9c1e-4d7a-5b3e-9f10-2a8c7e4d1b55")

type (
	ApprovedRepository interface {
		FetchAll(ctx context.Context) ([]domain.CatalogItem, error)
		Put(ctx context.Context, rec domain.ApprovedRecord) error
		// Withdraw removes the approved record derived from submissionID.
		Withdraw(ctx context.Context, submissionID string) error
	}

	approvedRepository struct {
		store   docstore.Store
		metrics *metrics.Registry
	}
)

func NewApprovedRepository(store docstore.Store, m *metrics.Registry) ApprovedRepository {
	return &approvedRepository{store: store, metrics: m}
}

// IDForSubmission derives the approved-record id from a submission id, so
// approving the same submission twice overwrites one record.
func IDForSubmission(submissionID string) string {
	return uuid.NewSHA1(approvedNamespace, []byte(submissionID)).String()
}

// FetchAll returns every well-formed approved item, newest approval first.
// Malformed records are logged and skipped.
func (r *approvedRepository) FetchAll(ctx context.Context) ([]domain.CatalogItem, error) {
	docs, err := r.store.Query(ctx, docstore.CollectionApproved, docstore.Query{
		OrderBy: record.FieldApprovedAt,
		Desc:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRemoteReadFailed, err)
	}

	items := make([]domain.CatalogItem, 0, len(docs))
	for _, doc := range docs {
		item, err := record.DecodeItem(doc, record.RequiredApproved)
		if err != nil {
			log.Warnf("dropping approved record: %v", err)
			r.metrics.MalformedRecords.WithLabelValues(docstore.CollectionApproved).Inc()
			continue
		}
		item.Source = domain.SourceApproved
		items = append(items, item)
	}
	return items, nil
}

func (r *approvedRepository) Put(ctx context.Context, rec domain.ApprovedRecord) error {
	item := rec.Item
	item.ID = IDForSubmission(rec.SubmissionID)
	item.CreatorUserID = rec.OriginalCreatorID
	item.CreatorEmail = rec.OriginalCreatorEmail

	data := record.EncodeItem(item)
	data[record.FieldSubmissionID] = rec.SubmissionID
	data[record.FieldOriginalCreatorID] = rec.OriginalCreatorID
	data[record.FieldOriginalCreatorEmail] = rec.OriginalCreatorEmail
	data[record.FieldVerified] = true
	data[record.FieldVerifiedBy] = rec.VerifiedBy
	data[record.FieldVerifiedAt] = record.Millis(rec.VerifiedAt)
	data[record.FieldApprovedAt] = record.Millis(rec.VerifiedAt)

	if err := r.store.Put(ctx, docstore.CollectionApproved, item.ID, data); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRemoteWriteFailed, err)
	}
	return nil
}

func (r *approvedRepository) Withdraw(ctx context.Context, submissionID string) error {
	if err := r.store.Delete(ctx, docstore.CollectionApproved, IDForSubmission(submissionID)); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRemoteWriteFailed, err)
	}
	return nil
}
