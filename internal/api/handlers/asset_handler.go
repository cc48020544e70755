package handlers

import (
	"errors"
	"nutrition-catalog/domain"
	"nutrition-catalog/internal/api/presenters"
	"nutrition-catalog/internal/utils/storage"
	"nutrition-catalog/pkg/asset"

	"github.com/gofiber/fiber/v2"
)

type (
	AssetHandler interface {
		GetAsset(c *fiber.Ctx) error
	}

	assetHandler struct {
		assets asset.AssetStore
	}
)

func NewAssetHandler(assets asset.AssetStore) AssetHandler {
	return &assetHandler{assets: assets}
}

func (h *assetHandler) GetAsset(c *fiber.Ctx) error {
	data, err := h.assets.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, domain.ErrNotFound) {
			status = fiber.StatusNotFound
		}
		return presenters.ErrorResponse(c, status, domain.MessageFailedGetAsset, err)
	}

	contentType, _ := storage.DetectContentType(data, storage.AllowImage...)
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, "private, max-age=3600")
	return c.Status(fiber.StatusOK).Send(data)
}
