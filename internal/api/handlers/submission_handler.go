package handlers

import (
	"errors"
	"nutrition-catalog/domain"
	"nutrition-catalog/internal/api/presenters"
	"nutrition-catalog/pkg/submission"
	"nutrition-catalog/pkg/verification"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	SubmissionHandler interface {
		GetMySubmissions(c *fiber.Ctx) error
		GetPending(c *fiber.Ctx) error
		Approve(c *fiber.Ctx) error
		Reject(c *fiber.Ctx) error
	}

	submissionHandler struct {
		submissions  submission.SubmissionRepository
		verification verification.VerificationService
		validator    *validator.Validate
	}
)

func NewSubmissionHandler(
	submissions submission.SubmissionRepository,
	verificationService verification.VerificationService,
	validator *validator.Validate,
) SubmissionHandler {
	return &submissionHandler{
		submissions:  submissions,
		verification: verificationService,
		validator:    validator,
	}
}

func toSubmissionResponses(subs []domain.PendingSubmission) []domain.SubmissionResponse {
	res := make([]domain.SubmissionResponse, 0, len(subs))
	for _, sub := range subs {
		res = append(res, domain.ToSubmissionResponse(sub))
	}
	return res
}

func decisionStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrSubmissionClosed):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrAuthRequired):
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

func (h *submissionHandler) GetMySubmissions(c *fiber.Ctx) error {
	user := currentUser(c)
	subs, err := h.submissions.ListMine(c.UserContext(), user.ID)
	if err != nil {
		return presenters.ErrorResponse(c, decisionStatus(err), domain.MessageFailedGetSubmissions, err)
	}
	return presenters.SuccessResponse(c, toSubmissionResponses(subs), fiber.StatusOK, domain.MessageSuccessGetSubmissions)
}

func (h *submissionHandler) GetPending(c *fiber.Ctx) error {
	subs, err := h.verification.ListPending(c.UserContext())
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedGetSubmissions, err)
	}
	return presenters.SuccessResponse(c, toSubmissionResponses(subs), fiber.StatusOK, domain.MessageSuccessGetSubmissions)
}

func (h *submissionHandler) Approve(c *fiber.Ctx) error {
	rec, err := h.verification.Approve(c.UserContext(), c.Params("id"), currentUser(c))
	if err != nil {
		return presenters.ErrorResponse(c, decisionStatus(err), domain.MessageFailedApprove, err)
	}
	return presenters.SuccessResponse(c, domain.ToCatalogItemResponse(rec.Item), fiber.StatusOK, domain.MessageSuccessApprove)
}

func (h *submissionHandler) Reject(c *fiber.Ctx) error {
	req := new(domain.RejectSubmissionRequest)

	if len(c.Body()) > 0 {
		if err := c.BodyParser(req); err != nil {
			return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
		}
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedReject, err)
	}

	sub, err := h.verification.Reject(c.UserContext(), c.Params("id"), currentUser(c), req.Reason)
	if err != nil {
		return presenters.ErrorResponse(c, decisionStatus(err), domain.MessageFailedReject, err)
	}
	return presenters.SuccessResponse(c, domain.ToSubmissionResponse(sub), fiber.StatusOK, domain.MessageSuccessReject)
}
