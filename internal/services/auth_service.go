package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/query"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	db     *database.Context
	stores *repository.Stores
	cfg    *config.Config
	now    func() time.Time
}

func NewAuthService(db *database.Context, stores *repository.Stores, cfg *config.Config) *AuthService {
	return &AuthService{db: db, stores: stores, cfg: cfg, now: models.Now}
}

func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if taken, err := s.stores.Users.EmailTaken(ctx, req.Email); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrEmailTaken
	}
	if taken, err := s.stores.Users.UsernameTaken(ctx, req.Username); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.NewUser(req.Email, req.Username, string(hash))
	if _, err := s.stores.Users.Create(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return s.generateTokenPair(ctx, user, "")
}

func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.stores.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if user == nil || user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	user.RecordLogin(s.now())
	if _, err := s.stores.Users.UpdatePartial(ctx, user.ID, query.NewUpdate().Set("lastLoginAt", *user.LastLoginAt)); err != nil {
		slog.Warn("failed to record login", "error", err, "user_id", user.ID.Hex())
	}
	return s.generateTokenPair(ctx, user, "")
}

// Refresh rotates a refresh token. Presenting a token that was already
// rotated revokes every token of its login, since one of the two holders
// is not the user.
func (s *AuthService) Refresh(ctx context.Context, req *dto.RefreshRequest) (*dto.AuthResponse, error) {
	hash := hashToken(req.RefreshToken)
	now := s.now()

	tok, err := s.stores.RefreshTokens.Consume(ctx, hash, now)
	if err != nil {
		return nil, err
	}
	if tok == nil {
		stale, err := s.stores.RefreshTokens.GetByHash(ctx, hash)
		if err != nil {
			return nil, err
		}
		if stale != nil && stale.Revoked {
			n, err := s.stores.RefreshTokens.RevokeFamily(ctx, stale.FamilyID, now)
			if err != nil {
				return nil, err
			}
			slog.Warn("refresh token reuse detected", "user_id", stale.UserID.Hex(), "revoked", n)
		}
		return nil, ErrInvalidToken
	}

	user, err := s.stores.Users.GetByID(ctx, tok.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return s.generateTokenPair(ctx, user, tok.FamilyID)
}

func (s *AuthService) Logout(ctx context.Context, req *dto.LogoutRequest) error {
	_, err := s.stores.RefreshTokens.Consume(ctx, hashToken(req.RefreshToken), s.now())
	return err
}

// DeleteAccount removes the user with their tokens, reports, blocks and
// follow edges in one transaction.
func (s *AuthService) DeleteAccount(ctx context.Context, userID bson.ObjectID, password string) error {
	user, err := s.stores.Users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}

	return s.db.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.stores.RefreshTokens.DeleteForUser(ctx, userID); err != nil {
			return err
		}
		if _, err := s.stores.Reports.DeleteByReporter(ctx, userID); err != nil {
			return err
		}
		if _, err := s.stores.Blocks.RemoveAllFor(ctx, userID); err != nil {
			return err
		}
		if _, err := s.stores.Follows.RemoveAllFor(ctx, userID); err != nil {
			return err
		}
		_, err := s.stores.Users.Delete(ctx, userID)
		return err
	})
}

func (s *AuthService) generateTokenPair(ctx context.Context, user *models.User, familyID string) (*dto.AuthResponse, error) {
	expiresAt := s.now().Add(s.cfg.JWTAccessExpiry)
	accessToken, err := s.generateAccessToken(user, expiresAt)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.generateRefreshToken(ctx, user, familyID)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
		User: dto.UserResponse{
			ID:       user.ID.Hex(),
			Email:    user.Email,
			Username: user.Username,
			Role:     user.Role,
		},
	}, nil
}

func (s *AuthService) generateAccessToken(user *models.User, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":      user.ID.Hex(),
		"email":    user.Email,
		"username": user.Username,
		"role":     user.Role,
		"jti":      uuid.NewString(),
		"iat":      s.now().Unix(),
		"exp":      expiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) generateRefreshToken(ctx context.Context, user *models.User, familyID string) (string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	rawToken := base64.URLEncoding.EncodeToString(rawBytes)
	if familyID == "" {
		familyID = uuid.NewString()
	}

	record := &models.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashToken(rawToken),
		FamilyID:  familyID,
		ExpiresAt: s.now().Add(s.cfg.JWTRefreshExpiry),
	}
	if _, err := s.stores.RefreshTokens.Create(ctx, record); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}
	return rawToken, nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}
