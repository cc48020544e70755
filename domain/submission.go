package domain

import (
	"errors"
	"time"
)

var (
	MessageSuccessGetSubmissions = "submissions retrieved successfully"
	MessageSuccessApprove        = "submission approved"
	MessageSuccessReject         = "submission rejected"

	MessageFailedGetSubmissions = "failed to retrieve submissions"
	MessageFailedApprove        = "failed to approve submission"
	MessageFailedReject         = "failed to reject submission"

	ErrSubmissionClosed = errors.New("submission already decided")
	ErrNotModerator     = errors.New("moderator access required")
)

type SubmissionStatus string

const (
	StatusPending  SubmissionStatus = "pending"
	StatusApproved SubmissionStatus = "approved"
	StatusRejected SubmissionStatus = "rejected"
)

// SubmitOutcome tells the caller of SubmitNew which path the item took.
type SubmitOutcome string

const (
	OutcomeSubmitted    SubmitOutcome = "submitted"
	OutcomeSavedLocally SubmitOutcome = "saved_locally"
	OutcomeFailed       SubmitOutcome = "failed"
)

type (
	PendingSubmission struct {
		Item            CatalogItem `json:"item"`
		OwnerUserID     string      `json:"owner_user_id"`
		OwnerEmail      string      `json:"owner_email"`
		CreatedAt       time.Time   `json:"created_at"`
		Verified        bool        `json:"verified"`
		VerifiedBy      string      `json:"verified_by,omitempty"`
		VerifiedAt      *time.Time  `json:"verified_at,omitempty"`
		RejectedBy      string      `json:"rejected_by,omitempty"`
		RejectedAt      *time.Time  `json:"rejected_at,omitempty"`
		RejectionReason string      `json:"rejection_reason,omitempty"`
	}

	// ApprovedRecord is the approved-catalog row derived from a submission.
	ApprovedRecord struct {
		Item                 CatalogItem
		SubmissionID         string
		OriginalCreatorID    string
		OriginalCreatorEmail string
		VerifiedBy           string
		VerifiedAt           time.Time
	}

	SubmitResult struct {
		Outcome SubmitOutcome `json:"outcome"`
		Item    CatalogItem   `json:"item"`
		// Cause is the remote error that sent the item down the local path.
		Cause error `json:"-"`
	}

	RejectSubmissionRequest struct {
		Reason string `json:"reason" validate:"omitempty,max=500"`
	}

	SubmissionResponse struct {
		ID              string              `json:"id"`
		Item            CatalogItemResponse `json:"item"`
		OwnerUserID     string              `json:"owner_user_id"`
		OwnerEmail      string              `json:"owner_email"`
		Status          string              `json:"status"`
		CreatedAt       time.Time           `json:"created_at"`
		VerifiedBy      string              `json:"verified_by,omitempty"`
		VerifiedAt      *time.Time          `json:"verified_at,omitempty"`
		RejectedBy      string              `json:"rejected_by,omitempty"`
		RejectedAt      *time.Time          `json:"rejected_at,omitempty"`
		RejectionReason string              `json:"rejection_reason,omitempty"`
	}

	SubmitFoodResponse struct {
		Outcome string              `json:"outcome"`
		Item    CatalogItemResponse `json:"item"`
		Warning string              `json:"warning,omitempty"`
	}
)

func (p PendingSubmission) ID() string { return p.Item.ID }

func (p PendingSubmission) Status() SubmissionStatus {
	switch {
	case p.Verified:
		return StatusApproved
	case p.RejectedAt != nil:
		return StatusRejected
	default:
		return StatusPending
	}
}

func (p PendingSubmission) Terminal() bool {
	return p.Status() != StatusPending
}

func ToSubmissionResponse(p PendingSubmission) SubmissionResponse {
	return SubmissionResponse{
		ID:              p.ID(),
		Item:            ToCatalogItemResponse(p.Item),
		OwnerUserID:     p.OwnerUserID,
		OwnerEmail:      p.OwnerEmail,
		Status:          string(p.Status()),
		CreatedAt:       p.CreatedAt,
		VerifiedBy:      p.VerifiedBy,
		VerifiedAt:      p.VerifiedAt,
		RejectedBy:      p.RejectedBy,
		RejectedAt:      p.RejectedAt,
		RejectionReason: p.RejectionReason,
	}
}
