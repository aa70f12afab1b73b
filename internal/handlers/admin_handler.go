package handlers

import (
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/repository"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

// AdminHandler holds the operator endpoints that are not part of a
// resource's own handler.
type AdminHandler struct {
	catalogService *services.CatalogService
	logs           *repository.SystemLogStore
}

func NewAdminHandler(catalogService *services.CatalogService, logs *repository.SystemLogStore) *AdminHandler {
	return &AdminHandler{catalogService: catalogService, logs: logs}
}

func (h *AdminHandler) ImportAlbum(c *fiber.Ctx) error {
	var req dto.ImportAlbumRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	album, err := h.catalogService.ImportAlbum(c.UserContext(), req.ExternalID)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(album)
}

func (h *AdminHandler) Logs(c *fiber.Ctx) error {
	skip, limit := pageParams(c)
	page, err := h.logs.Recent(c.UserContext(), c.Query("level"), skip, limit)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(page)
}

func (h *AdminHandler) CatalogStats(c *fiber.Ctx) error {
	ctx := c.UserContext()
	genres, err := h.catalogService.GenreBreakdown(ctx, limitParam(c, "20"))
	if err != nil {
		return respondError(c, err)
	}
	added, err := h.catalogService.AddedOverTime(ctx, c.Query("unit"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"genres": genres, "added": added})
}
