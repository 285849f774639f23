package handlers

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/database"
	"storefront/internal/middleware"
	"storefront/internal/models"
)

// AccountStore is the credential storage used by the auth handlers.
type AccountStore interface {
	FindUser(ctx context.Context, id primitive.ObjectID) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	InsertRefreshToken(ctx context.Context, token *models.RefreshToken) error
	FindActiveRefreshToken(ctx context.Context, hash string) (models.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, hash string, replacedBy *primitive.ObjectID) error
}

type AuthConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type RegisterRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	Phone     string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type issuedTokens struct {
	AccessToken    string `json:"accessToken"`
	RefreshToken   string `json:"refreshToken"`
	ExpiresIn      int64  `json:"expiresIn"`
	refreshTokenID primitive.ObjectID
}

func Register(store AccountStore, cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/register"
		defer handlePanic(c, route)

		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Println("[AUTH] [ERROR] register password hash failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "internal server error")
			return
		}

		now := time.Now()
		user := models.User{
			FirstName:    strings.TrimSpace(req.FirstName),
			LastName:     strings.TrimSpace(req.LastName),
			Email:        strings.ToLower(strings.TrimSpace(req.Email)),
			Phone:        strings.TrimSpace(req.Phone),
			PasswordHash: string(hash),
			Role:         models.RoleUser,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := store.CreateUser(c.Request.Context(), &user); err != nil {
			if errors.Is(err, database.ErrEmailTaken) {
				respondWithError(c, http.StatusConflict, route, "email already registered")
				return
			}
			log.Println("[AUTH] [ERROR] register insert failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "internal server error")
			return
		}

		log.Println("[AUTH] [INFO] user registered:", user.Email)
		respondOK(c, http.StatusCreated, user)
	}
}

func Login(store AccountStore, cfg AuthConfig) gin.HandlerFunc {
	return login(store, cfg, "POST /auth/login", "")
}

// AdminLogin is Login restricted to admin accounts.
func AdminLogin(store AccountStore, cfg AuthConfig) gin.HandlerFunc {
	return login(store, cfg, "POST /admin/login", models.RoleAdmin)
}

func login(store AccountStore, cfg AuthConfig, route, requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, route)

		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))
		user, err := store.FindByEmail(c.Request.Context(), email)
		if err != nil {
			if errors.Is(err, database.ErrUserNotFound) {
				respondWithError(c, http.StatusUnauthorized, route, "invalid credentials")
				return
			}
			log.Println("[AUTH] [ERROR] login lookup failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "internal server error")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			log.Println("[AUTH] [ERROR] login invalid credentials")
			respondWithError(c, http.StatusUnauthorized, route, "invalid credentials")
			return
		}
		if !user.IsActive {
			respondWithError(c, http.StatusForbidden, route, "user is inactive")
			return
		}
		if requiredRole != "" && user.Role != requiredRole {
			respondWithError(c, http.StatusUnauthorized, route, "invalid credentials")
			return
		}

		tokens, err := issueTokens(c.Request.Context(), store, user, cfg)
		if err != nil {
			log.Println("[AUTH] [ERROR] login token generation failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "internal server error")
			return
		}

		setTokenCookie(c, tokens.AccessToken, cfg.AccessTTL)
		log.Println("[AUTH] [INFO] login succeeded:", user.Email)
		respondOK(c, http.StatusOK, gin.H{
			"accessToken":  tokens.AccessToken,
			"refreshToken": tokens.RefreshToken,
			"expiresIn":    tokens.ExpiresIn,
			"user":         user,
		})
	}
}

// Refresh rotates a refresh token: the presented one is revoked and linked to
// its replacement.
func Refresh(store AccountStore, cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/refresh"
		defer handlePanic(c, route)

		var req RefreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx := c.Request.Context()
		hash := hashToken(strings.TrimSpace(req.RefreshToken))
		token, err := store.FindActiveRefreshToken(ctx, hash)
		if err != nil {
			if errors.Is(err, database.ErrTokenNotFound) {
				respondWithError(c, http.StatusUnauthorized, route, "invalid refresh token")
				return
			}
			log.Println("[AUTH] [ERROR] refresh lookup failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "internal server error")
			return
		}

		if time.Now().After(token.ExpiresAt) {
			_ = store.RevokeRefreshToken(ctx, hash, nil)
			respondWithError(c, http.StatusUnauthorized, route, "refresh token expired")
			return
		}

		user, err := store.FindUser(ctx, token.UserID)
		if err != nil {
			respondWithError(c, http.StatusUnauthorized, route, "user not found")
			return
		}
		if !user.IsActive {
			respondWithError(c, http.StatusForbidden, route, "user is inactive")
			return
		}

		tokens, err := issueTokens(ctx, store, user, cfg)
		if err != nil {
			log.Println("[AUTH] [ERROR] refresh token generation failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "internal server error")
			return
		}

		if err := store.RevokeRefreshToken(ctx, hash, &tokens.refreshTokenID); err != nil {
			// Lost a race with a concurrent refresh of the same token.
			_ = store.RevokeRefreshToken(ctx, hashToken(tokens.RefreshToken), nil)
			respondWithError(c, http.StatusUnauthorized, route, "invalid refresh token")
			return
		}

		setTokenCookie(c, tokens.AccessToken, cfg.AccessTTL)
		respondOK(c, http.StatusOK, tokens)
	}
}

func Logout(store AccountStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/logout"
		defer handlePanic(c, route)

		var req RefreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		err := store.RevokeRefreshToken(c.Request.Context(), hashToken(strings.TrimSpace(req.RefreshToken)), nil)
		if errors.Is(err, database.ErrTokenNotFound) {
			respondWithError(c, http.StatusUnauthorized, route, "invalid refresh token")
			return
		}
		if err != nil {
			log.Println("[AUTH] [ERROR] logout failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "internal server error")
			return
		}

		c.SetCookie(middleware.TokenCookie, "", -1, "/", "", false, true)
		respondMessage(c, http.StatusOK, "logged out")
	}
}

func GetMe(store AccountStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /auth/me"
		defer handlePanic(c, route)

		caller, ok := requireCaller(c, route)
		if !ok {
			return
		}

		user, err := store.FindUser(c.Request.Context(), caller.UserID)
		if err != nil {
			if errors.Is(err, database.ErrUserNotFound) {
				respondWithError(c, http.StatusNotFound, route, "user not found")
				return
			}
			log.Println("[AUTH] [ERROR] me lookup failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "internal server error")
			return
		}

		respondOK(c, http.StatusOK, user)
	}
}

func issueTokens(ctx context.Context, store AccountStore, user models.User, cfg AuthConfig) (issuedTokens, error) {
	accessToken, err := middleware.IssueAccessToken(cfg.Secret, user.ID, user.Email, user.Role, cfg.AccessTTL)
	if err != nil {
		return issuedTokens{}, err
	}

	plainRefresh, err := generateRefreshString()
	if err != nil {
		return issuedTokens{}, err
	}

	now := time.Now()
	refresh := models.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashToken(plainRefresh),
		ExpiresAt: now.Add(cfg.RefreshTTL),
		CreatedAt: now,
	}
	if err := store.InsertRefreshToken(ctx, &refresh); err != nil {
		return issuedTokens{}, err
	}

	return issuedTokens{
		AccessToken:    accessToken,
		RefreshToken:   plainRefresh,
		ExpiresIn:      int64(cfg.AccessTTL.Seconds()),
		refreshTokenID: refresh.ID,
	}, nil
}

func setTokenCookie(c *gin.Context, token string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, token, int(ttl.Seconds()), "/", "", c.Request.TLS != nil, true)
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func generateRefreshString() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
