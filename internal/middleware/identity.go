package middleware

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const adminLocal = "is_admin"

var ErrNoIdentity = errors.New("no authenticated user")

func claims(c *fiber.Ctx) (jwt.MapClaims, bool) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok || token == nil {
		return nil, false
	}
	mc, ok := token.Claims.(jwt.MapClaims)
	return mc, ok
}

// UserID extracts the user id from the JWT sub claim.
func UserID(c *fiber.Ctx) (bson.ObjectID, error) {
	mc, ok := claims(c)
	if !ok {
		return bson.NilObjectID, ErrNoIdentity
	}
	sub, _ := mc["sub"].(string)
	id, ok := models.ParseID(sub)
	if !ok {
		return bson.NilObjectID, errors.New("invalid sub claim")
	}
	return id, nil
}

// IsAdmin reports whether AdminRequired admitted the request or the token
// carries the admin role.
func IsAdmin(c *fiber.Ctx) bool {
	if admin, ok := c.Locals(adminLocal).(bool); ok && admin {
		return true
	}
	mc, ok := claims(c)
	if !ok {
		return false
	}
	role, _ := mc["role"].(string)
	return role == models.RoleAdmin
}
