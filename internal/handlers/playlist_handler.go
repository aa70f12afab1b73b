package handlers

import (
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type PlaylistHandler struct {
	playlistService *services.PlaylistService
}

func NewPlaylistHandler(playlistService *services.PlaylistService) *PlaylistHandler {
	return &PlaylistHandler{playlistService: playlistService}
}

func (h *PlaylistHandler) Create(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req dto.CreatePlaylistRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	playlist, err := h.playlistService.Create(c.UserContext(), userID, &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(playlist)
}

func (h *PlaylistHandler) Get(c *fiber.Ctx) error {
	playlist, err := h.playlistService.Get(c.UserContext(), actor(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(playlist)
}

func (h *PlaylistHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdatePlaylistRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	playlist, err := h.playlistService.Update(c.UserContext(), actor(c), c.Params("id"), &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(playlist)
}

func (h *PlaylistHandler) Delete(c *fiber.Ctx) error {
	if err := h.playlistService.Delete(c.UserContext(), actor(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *PlaylistHandler) AddTrack(c *fiber.Ctx) error {
	var req dto.AddTrackRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	playlist, err := h.playlistService.AddTrack(c.UserContext(), actor(c), c.Params("id"), &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(playlist)
}

func (h *PlaylistHandler) RemoveTrack(c *fiber.Ctx) error {
	playlist, err := h.playlistService.RemoveTrack(c.UserContext(), actor(c), c.Params("id"), c.Params("entryId"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(playlist)
}

func (h *PlaylistHandler) MoveTrack(c *fiber.Ctx) error {
	var req dto.MoveTrackRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	playlist, err := h.playlistService.MoveTrack(c.UserContext(), actor(c), c.Params("id"), c.Params("entryId"), &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(playlist)
}

// ByOwner lists a user's playlists; private ones only show up for the owner.
func (h *PlaylistHandler) ByOwner(c *fiber.Ctx) error {
	ownerID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	skip, limit := pageParams(c)
	page, err := h.playlistService.ByOwner(c.UserContext(), actor(c), ownerID, skip, limit)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(page)
}

func (h *PlaylistHandler) Public(c *fiber.Ctx) error {
	skip, limit := pageParams(c)
	page, err := h.playlistService.Public(c.UserContext(), skip, limit)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(page)
}
