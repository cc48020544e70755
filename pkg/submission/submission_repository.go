package submission

import (
	"context"
	"errors"
	"fmt"
	"nutrition-catalog/domain"
	"nutrition-catalog/internal/metrics"
	"nutrition-catalog/pkg/docstore"
	"nutrition-catalog/pkg/record"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

type (
	SubmissionRepository interface {
		Submit(ctx context.Context, draft domain.CatalogItem, ownerUserID string, ownerEmail string) (domain.PendingSubmission, error)
		ListMine(ctx context.Context, ownerUserID string) ([]domain.PendingSubmission, error)
		ListAllPending(ctx context.Context) ([]domain.PendingSubmission, error)
		Get(ctx context.Context, id string) (domain.PendingSubmission, error)
		MarkVerified(ctx context.Context, id string, moderatorID string, at time.Time) error
		MarkRejected(ctx context.Context, id string, moderatorID string, reason string, at time.Time) error
	}

	submissionRepository struct {
		store   docstore.Store
		metrics *metrics.Registry
		now     func() time.Time
	}
)

func NewSubmissionRepository(store docstore.Store, m *metrics.Registry) SubmissionRepository {
	return &submissionRepository{
		store:   store,
		metrics: m,
		now:     time.Now,
	}
}

func (r *submissionRepository) Submit(ctx context.Context, draft domain.CatalogItem, ownerUserID string, ownerEmail string) (domain.PendingSubmission, error) {
	if strings.TrimSpace(ownerUserID) == "" {
		return domain.PendingSubmission{}, domain.ErrAuthRequired
	}
	if err := draft.Validate(); err != nil {
		return domain.PendingSubmission{}, err
	}

	createdAt := r.now().UTC().Truncate(time.Millisecond)
	item := draft
	item.ID = ""
	item.CreatorUserID = ownerUserID
	item.CreatorEmail = ownerEmail

	rec := record.EncodeItem(item)
	rec[record.FieldUserID] = ownerUserID
	rec[record.FieldUserEmail] = ownerEmail
	rec[record.FieldCreatedAt] = record.Millis(createdAt)
	rec[record.FieldStatus] = string(domain.StatusPending)
	rec[record.FieldVerified] = false

	id, err := r.store.Create(ctx, docstore.CollectionPending, rec)
	if err != nil {
		return domain.PendingSubmission{}, fmt.Errorf("%w: %v", domain.ErrRemoteWriteFailed, err)
	}
	item.ID = id

	// immutable copy of the draft as the user sent it
	if err := r.store.Put(ctx, docstore.CollectionReferenceSubmissions, id, rec); err != nil {
		log.Warnf("submission %s: reference copy not written: %v", id, err)
	}

	return domain.PendingSubmission{
		Item:        item,
		OwnerUserID: ownerUserID,
		OwnerEmail:  ownerEmail,
		CreatedAt:   createdAt,
	}, nil
}

func (r *submissionRepository) ListMine(ctx context.Context, ownerUserID string) ([]domain.PendingSubmission, error) {
	if strings.TrimSpace(ownerUserID) == "" {
		return nil, domain.ErrAuthRequired
	}
	return r.listPending(ctx, docstore.Where(record.FieldUserID, ownerUserID))
}

func (r *submissionRepository) ListAllPending(ctx context.Context) ([]domain.PendingSubmission, error) {
	return r.listPending(ctx)
}

func (r *submissionRepository) listPending(ctx context.Context, filters ...docstore.Filter) ([]domain.PendingSubmission, error) {
	q := docstore.Query{
		Filters: append(filters, docstore.Where(record.FieldStatus, string(domain.StatusPending))),
		OrderBy: record.FieldCreatedAt,
		Desc:    true,
	}
	docs, err := r.store.Query(ctx, docstore.CollectionPending, q)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRemoteReadFailed, err)
	}

	subs := make([]domain.PendingSubmission, 0, len(docs))
	for _, doc := range docs {
		sub, err := decodePending(doc)
		if err != nil {
			log.Warnf("dropping pending record: %v", err)
			r.metrics.MalformedRecords.WithLabelValues(docstore.CollectionPending).Inc()
			continue
		}
		if sub.Terminal() {
			continue
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func (r *submissionRepository) Get(ctx context.Context, id string) (domain.PendingSubmission, error) {
	doc, err := r.store.Get(ctx, docstore.CollectionPending, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.PendingSubmission{}, err
		}
		return domain.PendingSubmission{}, fmt.Errorf("%w: %v", domain.ErrRemoteReadFailed, err)
	}
	return decodePending(doc)
}

func (r *submissionRepository) MarkVerified(ctx context.Context, id string, moderatorID string, at time.Time) error {
	return r.close(ctx, id, docstore.Record{
		record.FieldStatus:     string(domain.StatusApproved),
		record.FieldVerified:   true,
		record.FieldVerifiedBy: moderatorID,
		record.FieldVerifiedAt: record.Millis(at),
	})
}

func (r *submissionRepository) MarkRejected(ctx context.Context, id string, moderatorID string, reason string, at time.Time) error {
	return r.close(ctx, id, docstore.Record{
		record.FieldStatus:          string(domain.StatusRejected),
		record.FieldRejectedBy:      moderatorID,
		record.FieldRejectedAt:      record.Millis(at),
		record.FieldRejectionReason: reason,
	})
}

// close applies a terminal transition. The write only lands while the stored
// status is still pending, so of two concurrent decisions exactly one wins.
func (r *submissionRepository) close(ctx context.Context, id string, partial docstore.Record) error {
	current, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if current.Terminal() {
		return fmt.Errorf("submission %s is %s: %w", id, current.Status(), domain.ErrSubmissionClosed)
	}
	pending := docstore.Where(record.FieldStatus, string(domain.StatusPending))
	if err := r.store.UpdateIf(ctx, docstore.CollectionPending, id, pending, partial); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return err
		case errors.Is(err, docstore.ErrConditionFailed):
			return fmt.Errorf("submission %s decided concurrently: %w", id, domain.ErrSubmissionClosed)
		default:
			return fmt.Errorf("%w: %v", domain.ErrRemoteWriteFailed, err)
		}
	}
	return nil
}

func decodePending(doc docstore.Document) (domain.PendingSubmission, error) {
	item, err := record.DecodeItem(doc, record.RequiredPending)
	if err != nil {
		return domain.PendingSubmission{}, err
	}
	sub := domain.PendingSubmission{Item: item}
	sub.OwnerUserID, _ = record.String(doc.Data, record.FieldUserID)
	sub.OwnerEmail, _ = record.String(doc.Data, record.FieldUserEmail)
	if sub.Item.CreatorUserID == "" {
		sub.Item.CreatorUserID = sub.OwnerUserID
	}
	if sub.Item.CreatorEmail == "" {
		sub.Item.CreatorEmail = sub.OwnerEmail
	}
	if createdAt := record.Time(doc.Data, record.FieldCreatedAt); createdAt != nil {
		sub.CreatedAt = *createdAt
	}
	sub.Verified = record.Bool(doc.Data, record.FieldVerified)
	sub.VerifiedBy, _ = record.String(doc.Data, record.FieldVerifiedBy)
	sub.VerifiedAt = record.Time(doc.Data, record.FieldVerifiedAt)
	sub.RejectedBy, _ = record.String(doc.Data, record.FieldRejectedBy)
	sub.RejectedAt = record.Time(doc.Data, record.FieldRejectedAt)
	sub.RejectionReason, _ = record.String(doc.Data, record.FieldRejectionReason)
	return sub, nil
}
