package handlers

import (
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ScratchHandler struct {
	scratchService *services.ScratchService
}

func NewScratchHandler(scratchService *services.ScratchService) *ScratchHandler {
	return &ScratchHandler{scratchService: scratchService}
}

func (h *ScratchHandler) Create(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req dto.CreateScratchRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	scratch, err := h.scratchService.Create(c.UserContext(), userID, &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(scratch)
}

func (h *ScratchHandler) Get(c *fiber.Ctx) error {
	scratch, err := h.scratchService.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(scratch)
}

func (h *ScratchHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateScratchRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	scratch, err := h.scratchService.Update(c.UserContext(), actor(c), c.Params("id"), &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(scratch)
}

func (h *ScratchHandler) Delete(c *fiber.Ctx) error {
	if err := h.scratchService.Delete(c.UserContext(), actor(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ScratchHandler) Restore(c *fiber.Ctx) error {
	scratch, err := h.scratchService.Restore(c.UserContext(), actor(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(scratch)
}

func (h *ScratchHandler) Like(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	scratch, err := h.scratchService.Like(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(scratch)
}

func (h *ScratchHandler) Unlike(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	scratch, err := h.scratchService.Unlike(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(scratch)
}

func (h *ScratchHandler) Comment(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req dto.CommentRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	comment, err := h.scratchService.Comment(c.UserContext(), userID, c.Params("id"), &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(comment)
}

func (h *ScratchHandler) Comments(c *fiber.Ctx) error {
	skip, limit := pageParams(c)
	page, err := h.scratchService.Comments(c.UserContext(), c.Params("id"), skip, limit)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(page)
}

func (h *ScratchHandler) DeleteComment(c *fiber.Ctx) error {
	if err := h.scratchService.DeleteComment(c.UserContext(), actor(c), c.Params("commentId")); err != nil {
		return respondError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ScratchHandler) AlbumFeed(c *fiber.Ctx) error {
	skip, limit := pageParams(c)
	page, err := h.scratchService.AlbumFeed(c.UserContext(), c.Params("id"), skip, limit)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(page)
}

func (h *ScratchHandler) ByAuthor(c *fiber.Ctx) error {
	authorID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	skip, limit := pageParams(c)
	page, err := h.scratchService.ByAuthor(c.UserContext(), authorID, skip, limit)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(page)
}

// Ratings returns the summary and the per-rating distribution of an album.
func (h *ScratchHandler) Ratings(c *fiber.Ctx) error {
	ctx := c.UserContext()
	summary, err := h.scratchService.RatingSummary(ctx, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	dist, err := h.scratchService.RatingDistribution(ctx, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"summary": summary, "distribution": dist})
}

func (h *ScratchHandler) Activity(c *fiber.Ctx) error {
	authorID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	from, to, err := timeRange(c)
	if err != nil {
		return err
	}

	buckets, err := h.scratchService.Activity(c.UserContext(), authorID, c.Query("unit"), from, to)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"items": buckets})
}
