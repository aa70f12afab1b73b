package handlers

import (
	"strconv"

	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

// AlbumHandler serves the read side of the music catalog.
type AlbumHandler struct {
	catalogService *services.CatalogService
}

func NewAlbumHandler(catalogService *services.CatalogService) *AlbumHandler {
	return &AlbumHandler{catalogService: catalogService}
}

func limitParam(c *fiber.Ctx, fallback string) int64 {
	limit, _ := strconv.ParseInt(c.Query("limit", fallback), 10, 64)
	_, limit = services.Bounds(0, limit)
	return limit
}

func (h *AlbumHandler) Get(c *fiber.Ctx) error {
	album, err := h.catalogService.Album(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(album)
}

func (h *AlbumHandler) Tracks(c *fiber.Ctx) error {
	tracks, err := h.catalogService.AlbumTracks(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"items": tracks})
}

func (h *AlbumHandler) Search(c *fiber.Ctx) error {
	results, err := h.catalogService.SearchAlbums(c.UserContext(), c.Query("q"), limitParam(c, "20"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"items": results})
}

func (h *AlbumHandler) ByGenre(c *fiber.Ctx) error {
	skip, limit := pageParams(c)
	page, err := h.catalogService.AlbumsByGenre(c.UserContext(), c.Params("slug"), skip, limit)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(page)
}

func (h *AlbumHandler) ByArtist(c *fiber.Ctx) error {
	skip, limit := pageParams(c)
	page, err := h.catalogService.AlbumsByArtist(c.UserContext(), c.Params("id"), skip, limit)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(page)
}

func (h *AlbumHandler) SearchArtists(c *fiber.Ctx) error {
	skip, limit := pageParams(c)
	page, err := h.catalogService.SearchArtists(c.UserContext(), c.Query("q"), skip, limit)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(page)
}

func (h *AlbumHandler) TopRated(c *fiber.Ctx) error {
	albums, err := h.catalogService.TopRated(c.UserContext(), limitParam(c, "10"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"items": albums})
}

func (h *AlbumHandler) Genre(c *fiber.Ctx) error {
	genre, children, err := h.catalogService.Genre(c.UserContext(), c.Params("slug"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"genre": genre, "children": children})
}

func (h *AlbumHandler) TrendingTags(c *fiber.Ctx) error {
	tags, err := h.catalogService.TrendingTags(c.UserContext(), limitParam(c, "10"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"items": tags})
}
