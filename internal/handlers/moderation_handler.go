package handlers

import (
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ModerationHandler struct {
	moderationService *services.ModerationService
}

func NewModerationHandler(moderationService *services.ModerationService) *ModerationHandler {
	return &ModerationHandler{moderationService: moderationService}
}

func (h *ModerationHandler) CreateReport(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req dto.CreateReportRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	report, err := h.moderationService.CreateReport(c.UserContext(), userID, &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(report)
}

func (h *ModerationHandler) BlockUser(c *fiber.Ctx) error {
	blockerID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req dto.BlockUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.moderationService.BlockUser(c.UserContext(), blockerID, req.BlockedID); err != nil {
		return respondError(c, err)
	}

	return message(c, "User blocked successfully")
}

func (h *ModerationHandler) UnblockUser(c *fiber.Ctx) error {
	blockerID, err := currentUser(c)
	if err != nil {
		return err
	}

	if err := h.moderationService.UnblockUser(c.UserContext(), blockerID, c.Params("id")); err != nil {
		return respondError(c, err)
	}

	return message(c, "User unblocked successfully")
}

func (h *ModerationHandler) BlockedUsers(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	ids, err := h.moderationService.GetBlockedIDs(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"blocked_ids": ids})
}

func (h *ModerationHandler) ListReports(c *fiber.Ctx) error {
	skip, limit := pageParams(c)
	page, err := h.moderationService.ListReports(c.UserContext(), c.Query("status", ""), skip, limit)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(page)
}

func (h *ModerationHandler) ActionReport(c *fiber.Ctx) error {
	var req dto.ActionReportRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	report, err := h.moderationService.ActionReport(c.UserContext(), c.Params("id"), &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(report)
}

// CheckContent runs the content filter without storing anything.
func (h *ModerationHandler) CheckContent(c *fiber.Ctx) error {
	var req struct {
		Text string `json:"text" validate:"max=5000"`
	}
	if err := bind(c, &req); err != nil {
		return err
	}
	ok, reason := h.moderationService.FilterContent(req.Text)
	resp := fiber.Map{"allowed": ok}
	if !ok {
		resp["reason"] = reason
		resp["message"] = services.RejectionMessage(reason)
	}
	return c.JSON(resp)
}
