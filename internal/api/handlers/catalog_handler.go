package handlers

import (
	"encoding/base64"
	"errors"
	"fmt"
	"nutrition-catalog/domain"
	"nutrition-catalog/internal/api/presenters"
	"nutrition-catalog/pkg/catalog"
	"nutrition-catalog/pkg/identity"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	CatalogHandler interface {
		GetCatalog(c *fiber.Ctx) error
		SubmitItem(c *fiber.Ctx) error
		ScaleItem(c *fiber.Ctx) error
		MealTotals(c *fiber.Ctx) error
	}

	catalogHandler struct {
		sessions  *catalog.Sessions
		validator *validator.Validate
	}
)

func NewCatalogHandler(sessions *catalog.Sessions, validator *validator.Validate) CatalogHandler {
	return &catalogHandler{
		sessions:  sessions,
		validator: validator,
	}
}

func currentUser(c *fiber.Ctx) domain.Identity {
	user, _ := identity.FromContext().CurrentUser(c.UserContext())
	return user
}

// snapshotFor loads the user's catalog on first use or when refresh is set.
// Version 0 is the reference-only snapshot every session starts with.
func (h *catalogHandler) snapshotFor(c *fiber.Ctx, refresh bool) (catalog.Aggregator, *catalog.Snapshot, error) {
	user := currentUser(c)
	agg := h.sessions.For(user)
	snap := agg.Snapshot()
	if snap.Version == 0 || refresh {
		var err error
		snap, err = agg.Load(c.UserContext(), user)
		if err != nil {
			return agg, snap, err
		}
	}
	return agg, snap, nil
}

func (h *catalogHandler) GetCatalog(c *fiber.Ctx) error {
	var category domain.Category
	if raw := c.Query("category"); raw != "" {
		parsed, err := domain.ParseCategory(raw)
		if err != nil {
			return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetCatalog, err)
		}
		category = parsed
	}

	_, snap, err := h.snapshotFor(c, c.QueryBool("refresh"))
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusServiceUnavailable, domain.MessageFailedGetCatalog, err)
	}

	items := catalog.Filter(snap.Items, category, c.Query("search"))
	res := domain.CatalogResponse{
		Version: snap.Version,
		Total:   len(items),
		Items:   make([]domain.CatalogItemResponse, 0, len(items)),
	}
	for _, item := range items {
		res.Items = append(res.Items, domain.ToCatalogItemResponse(item))
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetCatalog)
}

func (h *catalogHandler) SubmitItem(c *fiber.Ctx) error {
	req := new(domain.SubmitFoodRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedSubmitItem, err)
	}

	var photo []byte
	if req.PhotoBase64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(req.PhotoBase64)
		if err != nil {
			return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedSubmitItem, domain.ErrInvalidImageFormat)
		}
		photo = decoded
	}

	agg, _, err := h.snapshotFor(c, false)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusServiceUnavailable, domain.MessageFailedSubmitItem, err)
	}

	res, err := agg.SubmitNew(c.UserContext(), req.ToCatalogItem(), photo)
	if err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, domain.ErrInvalidCategory) ||
			errors.Is(err, domain.ErrInvalidServingSize) ||
			errors.Is(err, domain.ErrInvalidImageFormat) {
			status = fiber.StatusBadRequest
		}
		return presenters.ErrorResponse(c, status, domain.MessageFailedSubmitItem, err)
	}

	body := domain.SubmitFoodResponse{
		Outcome: string(res.Outcome),
		Item:    domain.ToCatalogItemResponse(res.Item),
	}
	if res.Outcome == domain.OutcomeSavedLocally {
		if res.Cause != nil {
			body.Warning = res.Cause.Error()
		}
		return presenters.SuccessResponse(c, body, fiber.StatusAccepted, domain.MessageSuccessSavedLocally)
	}

	return presenters.SuccessResponse(c, body, fiber.StatusCreated, domain.MessageSuccessSubmitItem)
}

func (h *catalogHandler) ScaleItem(c *fiber.Ctx) error {
	grams, err := strconv.ParseFloat(c.Query("grams"), 64)
	if err != nil || grams <= 0 {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedScaleItem, domain.ErrInvalidWeight)
	}

	agg, _, err := h.snapshotFor(c, false)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusServiceUnavailable, domain.MessageFailedScaleItem, err)
	}

	item, ok := agg.Find(c.Params("id"))
	if !ok {
		return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageFailedScaleItem, domain.ErrNotFound)
	}

	res := domain.ScaleResponse{
		ID:        item.ID,
		Grams:     grams,
		Nutrients: domain.Scale(item, grams),
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessScaleItem)
}

// MealTotals scales every portion and sums them. Any unknown item fails the
// whole request.
func (h *catalogHandler) MealTotals(c *fiber.Ctx) error {
	req := new(domain.MealRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedMealTotals, err)
	}

	agg, _, err := h.snapshotFor(c, false)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusServiceUnavailable, domain.MessageFailedMealTotals, err)
	}

	res := domain.MealResponse{Portions: make([]domain.ScaleResponse, 0, len(req.Portions))}
	for _, portion := range req.Portions {
		item, ok := agg.Find(portion.ItemID)
		if !ok {
			return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageFailedMealTotals,
				fmt.Errorf("item %s: %w", portion.ItemID, domain.ErrNotFound))
		}
		scaled := domain.Scale(item, portion.Grams)
		res.Portions = append(res.Portions, domain.ScaleResponse{ID: item.ID, Grams: portion.Grams, Nutrients: scaled})
		res.Total = res.Total.Add(scaled)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessMealTotals)
}
