package verification

import (
	"context"
	"errors"
	"fmt"
	"nutrition-catalog/domain"
	"nutrition-catalog/internal/events"
	"nutrition-catalog/internal/metrics"
	"nutrition-catalog/pkg/approved"
	"nutrition-catalog/pkg/submission"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

type (
	// VerificationService moves pending submissions to a terminal state. It
	// trusts its caller to have checked IsModerator.
	VerificationService interface {
		ListPending(ctx context.Context) ([]domain.PendingSubmission, error)
		Approve(ctx context.Context, submissionID string, moderator domain.Identity) (domain.ApprovedRecord, error)
		Reject(ctx context.Context, submissionID string, moderator domain.Identity, reason string) (domain.PendingSubmission, error)
		IsModerator(user domain.Identity) bool
	}

	Notifier interface {
		NotifyDecision(ctx context.Context, sub domain.PendingSubmission) error
	}

	// Moderators is the fixed allow-list, by user id or email.
	Moderators struct {
		ids    map[string]struct{}
		emails map[string]struct{}
	}

	verificationService struct {
		submissions submission.SubmissionRepository
		approved    approved.ApprovedRepository
		moderators  Moderators
		events      events.Writer
		notifier    Notifier
		metrics     *metrics.Registry
		now         func() time.Time
	}
)

func NewModerators(ids []string, emails []string) Moderators {
	m := Moderators{ids: map[string]struct{}{}, emails: map[string]struct{}{}}
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			m.ids[id] = struct{}{}
		}
	}
	for _, email := range emails {
		if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
			m.emails[email] = struct{}{}
		}
	}
	return m
}

func (m Moderators) Contains(user domain.Identity) bool {
	if user.ID != "" {
		if _, ok := m.ids[user.ID]; ok {
			return true
		}
	}
	if email := strings.ToLower(strings.TrimSpace(user.Email)); email != "" {
		if _, ok := m.emails[email]; ok {
			return true
		}
	}
	return false
}

// NewVerificationService wires the workflow. eventWriter and notifier may be nil.
func NewVerificationService(
	submissions submission.SubmissionRepository,
	approvedRepository approved.ApprovedRepository,
	moderators Moderators,
	eventWriter events.Writer,
	notifier Notifier,
	m *metrics.Registry,
) VerificationService {
	if eventWriter == nil {
		eventWriter = events.Discard{}
	}
	return &verificationService{
		submissions: submissions,
		approved:    approvedRepository,
		moderators:  moderators,
		events:      eventWriter,
		notifier:    notifier,
		metrics:     m,
		now:         time.Now,
	}
}

func (s *verificationService) IsModerator(user domain.Identity) bool {
	return s.moderators.Contains(user)
}

func (s *verificationService) ListPending(ctx context.Context) ([]domain.PendingSubmission, error) {
	return s.submissions.ListAllPending(ctx)
}

// Approve writes the approved record and then closes the submission. The close
// only lands on a still-pending record; when another decision got there first,
// a rejection withdraws the record written here and an approval is adopted.
func (s *verificationService) Approve(ctx context.Context, submissionID string, moderator domain.Identity) (domain.ApprovedRecord, error) {
	sub, err := s.submissions.Get(ctx, submissionID)
	if err != nil {
		return domain.ApprovedRecord{}, err
	}
	if sub.Status() == domain.StatusRejected {
		return domain.ApprovedRecord{}, fmt.Errorf("submission %s is rejected: %w", submissionID, domain.ErrSubmissionClosed)
	}

	rec := s.approvedRecord(sub, moderator.ID)
	if err := s.approved.Put(ctx, rec); err != nil {
		return domain.ApprovedRecord{}, err
	}
	if sub.Verified {
		log.Infof("submission %s already approved, approved record rewritten", submissionID)
		return rec, nil
	}

	if err := s.submissions.MarkVerified(ctx, submissionID, rec.VerifiedBy, rec.VerifiedAt); err != nil {
		if errors.Is(err, domain.ErrSubmissionClosed) {
			return s.settleLostApproval(ctx, submissionID, err)
		}
		return domain.ApprovedRecord{}, err
	}

	sub.Verified = true
	sub.VerifiedBy = rec.VerifiedBy
	sub.VerifiedAt = &rec.VerifiedAt
	s.afterDecision(ctx, sub, events.Decision{
		SubmissionID: submissionID,
		ApprovedID:   rec.Item.ID,
		Decision:     events.DecisionApproved,
		ModeratorID:  rec.VerifiedBy,
		OwnerUserID:  sub.OwnerUserID,
		ItemName:     sub.Item.Name,
		TS:           rec.VerifiedAt.UnixMilli(),
	})
	return rec, nil
}

// approvedRecord derives the approved record. A verified submission keeps its
// stored verifier and time.
func (s *verificationService) approvedRecord(sub domain.PendingSubmission, moderatorID string) domain.ApprovedRecord {
	verifiedBy := moderatorID
	verifiedAt := s.now().UTC().Truncate(time.Millisecond)
	if sub.Verified {
		verifiedBy = sub.VerifiedBy
		if sub.VerifiedAt != nil {
			verifiedAt = *sub.VerifiedAt
		}
	}

	rec := domain.ApprovedRecord{
		Item:                 sub.Item,
		SubmissionID:         sub.ID(),
		OriginalCreatorID:    sub.OwnerUserID,
		OriginalCreatorEmail: sub.OwnerEmail,
		VerifiedBy:           verifiedBy,
		VerifiedAt:           verifiedAt,
	}
	rec.Item.ID = approved.IDForSubmission(sub.ID())
	rec.Item.CreatorUserID = sub.OwnerUserID
	rec.Item.CreatorEmail = sub.OwnerEmail
	return rec
}

// settleLostApproval runs when the submission was decided between our read and
// our close. The approved collection is made to agree with the decision that won.
func (s *verificationService) settleLostApproval(ctx context.Context, submissionID string, closeErr error) (domain.ApprovedRecord, error) {
	winner, err := s.submissions.Get(ctx, submissionID)
	if err != nil {
		log.Errorf("submission %s decided concurrently, state unknown: %v", submissionID, err)
		return domain.ApprovedRecord{}, closeErr
	}
	if winner.Verified {
		rec := s.approvedRecord(winner, winner.VerifiedBy)
		if err := s.approved.Put(ctx, rec); err != nil {
			return domain.ApprovedRecord{}, err
		}
		return rec, nil
	}
	if err := s.approved.Withdraw(ctx, submissionID); err != nil {
		log.Errorf("submission %s was rejected but its approved record remains: %v", submissionID, err)
	}
	return domain.ApprovedRecord{}, closeErr
}

func (s *verificationService) Reject(ctx context.Context, submissionID string, moderator domain.Identity, reason string) (domain.PendingSubmission, error) {
	sub, err := s.submissions.Get(ctx, submissionID)
	if err != nil {
		return domain.PendingSubmission{}, err
	}
	if sub.Terminal() {
		return domain.PendingSubmission{}, fmt.Errorf("submission %s is %s: %w", submissionID, sub.Status(), domain.ErrSubmissionClosed)
	}

	reason = strings.TrimSpace(reason)
	at := s.now().UTC().Truncate(time.Millisecond)
	if err := s.submissions.MarkRejected(ctx, submissionID, moderator.ID, reason, at); err != nil {
		return domain.PendingSubmission{}, err
	}

	sub.RejectedBy = moderator.ID
	sub.RejectedAt = &at
	sub.RejectionReason = reason
	s.afterDecision(ctx, sub, events.Decision{
		SubmissionID: submissionID,
		Decision:     events.DecisionRejected,
		ModeratorID:  moderator.ID,
		OwnerUserID:  sub.OwnerUserID,
		ItemName:     sub.Item.Name,
		Reason:       reason,
		TS:           at.UnixMilli(),
	})
	return sub, nil
}

// afterDecision records the decision. Failures here never undo it.
func (s *verificationService) afterDecision(ctx context.Context, sub domain.PendingSubmission, d events.Decision) {
	s.metrics.Decisions.WithLabelValues(d.Decision).Inc()
	if err := s.events.Append(ctx, d); err != nil {
		log.Warnf("submission %s: decision event not written: %v", d.SubmissionID, err)
	}
	if s.notifier != nil {
		if err := s.notifier.NotifyDecision(ctx, sub); err != nil {
			log.Warnf("submission %s: owner not notified: %v", d.SubmissionID, err)
		}
	}
}
