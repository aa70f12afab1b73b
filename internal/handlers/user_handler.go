package handlers

import (
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// publicView hides the email of accounts other than the caller's.
func publicView(c *fiber.Ctx, u *models.User) *models.User {
	if actor(c).Owns(u.ID) {
		return u
	}
	view := *u
	view.Email = ""
	return &view
}

func (h *UserHandler) Me(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	user, err := h.userService.Profile(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(user)
}

func (h *UserHandler) UpdateMe(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req dto.UpdateProfileRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.userService.UpdateProfile(c.UserContext(), userID, &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(user)
}

// Get accepts either an id or a username.
func (h *UserHandler) Get(c *fiber.Ctx) error {
	user, err := h.userService.Lookup(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(publicView(c, user))
}

func (h *UserHandler) Search(c *fiber.Ctx) error {
	skip, limit := pageParams(c)
	page, err := h.userService.Search(c.UserContext(), c.Query("q"), skip, limit)
	if err != nil {
		return respondError(c, err)
	}

	for i, u := range page.Items {
		page.Items[i] = publicView(c, u)
	}
	return c.JSON(page)
}

func (h *UserHandler) Follow(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	if err := h.userService.Follow(c.UserContext(), userID, c.Params("id")); err != nil {
		return respondError(c, err)
	}

	return message(c, "Followed")
}

func (h *UserHandler) Unfollow(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	if err := h.userService.Unfollow(c.UserContext(), userID, c.Params("id")); err != nil {
		return respondError(c, err)
	}

	return message(c, "Unfollowed")
}

func (h *UserHandler) FollowStatus(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	targetID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	following, err := h.userService.IsFollowing(c.UserContext(), userID, targetID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"following": following})
}

func (h *UserHandler) Followers(c *fiber.Ctx) error {
	userID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	skip, limit := pageParams(c)
	page, err := h.userService.Followers(c.UserContext(), userID, skip, limit)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(page)
}

func (h *UserHandler) Following(c *fiber.Ctx) error {
	userID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	skip, limit := pageParams(c)
	page, err := h.userService.Following(c.UserContext(), userID, skip, limit)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(page)
}

func (h *UserHandler) Badges(c *fiber.Ctx) error {
	badges, err := h.userService.Badges(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(badges)
}

func (h *UserHandler) CreateBadge(c *fiber.Ctx) error {
	var req dto.CreateBadgeRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	badge, err := h.userService.CreateBadge(c.UserContext(), &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(badge)
}

func (h *UserHandler) AwardBadge(c *fiber.Ctx) error {
	var req dto.AwardBadgeRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.userService.AwardBadge(c.UserContext(), &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(user)
}
