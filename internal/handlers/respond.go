package handlers

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/catalog"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/repository"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/services"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

var statusByError = []struct {
	err    error
	status int
}{
	{services.ErrInvalidCredentials, fiber.StatusUnauthorized},
	{services.ErrInvalidToken, fiber.StatusUnauthorized},
	{services.ErrForbidden, fiber.StatusForbidden},

	{services.ErrUserNotFound, fiber.StatusNotFound},
	{services.ErrAlbumNotFound, fiber.StatusNotFound},
	{services.ErrArtistNotFound, fiber.StatusNotFound},
	{services.ErrGenreNotFound, fiber.StatusNotFound},
	{services.ErrTrackNotFound, fiber.StatusNotFound},
	{services.ErrPostNotFound, fiber.StatusNotFound},
	{services.ErrScratchNotFound, fiber.StatusNotFound},
	{services.ErrCommentNotFound, fiber.StatusNotFound},
	{services.ErrPlaylistNotFound, fiber.StatusNotFound},
	{services.ErrBadgeNotFound, fiber.StatusNotFound},
	{services.ErrNotificationNotFound, fiber.StatusNotFound},
	{services.ErrReportNotFound, fiber.StatusNotFound},

	{services.ErrEmailTaken, fiber.StatusConflict},
	{services.ErrUsernameTaken, fiber.StatusConflict},
	{services.ErrAlreadyFollowing, fiber.StatusConflict},
	{services.ErrNotFollowing, fiber.StatusConflict},
	{services.ErrAlreadyScratched, fiber.StatusConflict},
	{services.ErrAlreadyLiked, fiber.StatusConflict},
	{services.ErrNotLiked, fiber.StatusConflict},
	{services.ErrBadgeAwarded, fiber.StatusConflict},
	{services.ErrAlreadyBlocked, fiber.StatusConflict},
	{repository.ErrVersionConflict, fiber.StatusConflict},

	{services.ErrSelfFollow, fiber.StatusBadRequest},
	{services.ErrSelfBlock, fiber.StatusBadRequest},
	{services.ErrInvalidBucket, fiber.StatusBadRequest},
	{models.ErrSelfFollow, fiber.StatusBadRequest},
	{models.ErrBlankText, fiber.StatusBadRequest},
	{models.ErrRatingOutOfRange, fiber.StatusBadRequest},
	{models.ErrPositionOutOfRange, fiber.StatusBadRequest},
	{models.ErrInvalidReference, fiber.StatusBadRequest},
	{models.ErrInvalidReportStatus, fiber.StatusBadRequest},

	{catalog.ErrCatalogUnavailable, fiber.StatusServiceUnavailable},
}

// respondError maps a service error to its status. Anything unmapped is a
// 500 whose details are logged and reported, never sent.
func respondError(c *fiber.Ctx, err error) error {
	var rejected *services.RejectedError
	if errors.As(err, &rejected) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
			Error: true, Message: rejected.Message, Reason: rejected.Reason,
		})
	}
	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			return c.Status(m.status).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
		}
	}

	slog.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err,
		"request_id", c.GetRespHeader(fiber.HeaderXRequestID))
	if hub := sentryfiber.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: "Internal server error",
	})
}

// ErrorHandler is the app-level handler for errors that escape a route.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(dto.ErrorResponse{Error: true, Message: message})
}

// bind parses and validates a JSON body.
func bind(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := dto.Validate(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

func currentUser(c *fiber.Ctx) (bson.ObjectID, error) {
	id, err := middleware.UserID(c)
	if err != nil {
		return bson.NilObjectID, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}
	return id, nil
}

// actor is the caller for ownership checks. Anonymous callers get a zero id
// that owns nothing.
func actor(c *fiber.Ctx) services.Actor {
	id, _ := middleware.UserID(c)
	return services.Actor{ID: id, Admin: middleware.IsAdmin(c)}
}

func pageParams(c *fiber.Ctx) (int64, int64) {
	skip, _ := strconv.ParseInt(c.Query("skip", "0"), 10, 64)
	limit, _ := strconv.ParseInt(c.Query("limit", "20"), 10, 64)
	return services.Bounds(skip, limit)
}

func pathID(c *fiber.Ctx, name string) (bson.ObjectID, error) {
	id, ok := models.ParseID(c.Params(name))
	if !ok {
		return bson.NilObjectID, fiber.NewError(fiber.StatusBadRequest, "Invalid "+name)
	}
	return id, nil
}

func message(c *fiber.Ctx, msg string) error {
	return c.JSON(fiber.Map{"message": msg})
}

// timeParam reads an optional RFC 3339 query value.
func timeParam(c *fiber.Ctx, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid "+name+": expected RFC 3339")
	}
	return &t, nil
}

func timeRange(c *fiber.Ctx) (*time.Time, *time.Time, error) {
	from, err := timeParam(c, "from")
	if err != nil {
		return nil, nil, err
	}
	to, err := timeParam(c, "to")
	if err != nil {
		return nil, nil, err
	}
	return from, to, nil
}
