package handlers

import (
	"strconv"

	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type PostHandler struct {
	postService *services.PostService
}

func NewPostHandler(postService *services.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

func (h *PostHandler) Create(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req dto.CreatePostRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	post, err := h.postService.Create(c.UserContext(), userID, &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

func (h *PostHandler) Get(c *fiber.Ctx) error {
	post, err := h.postService.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(post)
}

func (h *PostHandler) Edit(c *fiber.Ctx) error {
	var req dto.EditPostRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	post, err := h.postService.Edit(c.UserContext(), actor(c), c.Params("id"), &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(post)
}

func (h *PostHandler) Delete(c *fiber.Ctx) error {
	if err := h.postService.Delete(c.UserContext(), actor(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *PostHandler) Restore(c *fiber.Ctx) error {
	post, err := h.postService.Restore(c.UserContext(), actor(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(post)
}

func (h *PostHandler) AddComment(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req dto.CommentRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	comment, err := h.postService.AddComment(c.UserContext(), userID, c.Params("id"), &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(comment)
}

func (h *PostHandler) DeleteComment(c *fiber.Ctx) error {
	post, err := h.postService.DeleteComment(c.UserContext(), actor(c), c.Params("id"), c.Params("commentId"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(post)
}

func (h *PostHandler) Like(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	post, err := h.postService.Like(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(post)
}

func (h *PostHandler) Unlike(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	post, err := h.postService.Unlike(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(post)
}

func (h *PostHandler) Feed(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	skip, limit := pageParams(c)
	page, err := h.postService.Feed(c.UserContext(), userID, skip, limit)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(page)
}

func (h *PostHandler) Explore(c *fiber.Ctx) error {
	skip, limit := pageParams(c)
	page, err := h.postService.Explore(c.UserContext(), skip, limit)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(page)
}

func (h *PostHandler) ByAuthor(c *fiber.Ctx) error {
	authorID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	skip, limit := pageParams(c)
	page, err := h.postService.ByAuthor(c.UserContext(), authorID, skip, limit)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(page)
}

func (h *PostHandler) ByTag(c *fiber.Ctx) error {
	skip, limit := pageParams(c)
	page, err := h.postService.ByTag(c.UserContext(), c.Params("tag"), skip, limit)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(page)
}

func (h *PostHandler) Search(c *fiber.Ctx) error {
	_, limit := pageParams(c)
	results, err := h.postService.Search(c.UserContext(), c.Query("q"), limit)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"items": results})
}

func (h *PostHandler) TrendingTags(c *fiber.Ctx) error {
	limit, _ := strconv.ParseInt(c.Query("limit", "10"), 10, 64)
	_, limit = services.Bounds(0, limit)
	tags, err := h.postService.TrendingTags(c.UserContext(), limit)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"items": tags})
}

func (h *PostHandler) Activity(c *fiber.Ctx) error {
	authorID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	from, to, err := timeRange(c)
	if err != nil {
		return err
	}

	buckets, err := h.postService.Activity(c.UserContext(), authorID, c.Query("unit"), from, to)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"items": buckets})
}
