package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/database"
	"storefront/internal/models"
	"storefront/internal/orders"
)

const (
	ctxUserID = "userId"
	ctxRole   = "role"

	// TokenCookie is the cookie the storefront sets alongside the bearer token.
	TokenCookie = "token"
)

// UserLookup resolves the account behind a token subject.
type UserLookup interface {
	FindUser(ctx context.Context, id primitive.ObjectID) (models.User, error)
}

// AuthGuard authenticates the request with a bearer token or the token cookie.
// When users is set the account must exist and be active, and its stored role
// wins over the role claim. With legacyUserID a userId query parameter is
// accepted in place of a token.
func AuthGuard(secret string, users UserLookup, legacyUserID bool, allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerOrCookie(c)
		if !ok {
			if legacyUserID && strings.TrimSpace(c.Query("userId")) != "" {
				legacyAuth(c, users, allowedRoles)
				return
			}
			log.Println("[AUTH] [ERROR] missing token")
			abort(c, http.StatusUnauthorized, "missing token")
			return
		}

		userID, role, err := parseToken(raw, secret)
		if err != nil {
			log.Println("[AUTH] [ERROR] token validation failed:", err)
			abort(c, http.StatusUnauthorized, "unauthorized")
			return
		}

		if users != nil {
			user, status := loadActiveUser(c, users, userID)
			if status != 0 {
				return
			}
			role = user.Role
		}

		if !roleAllowed(role, allowedRoles) {
			log.Printf("[AUTH] [ERROR] role %q not allowed", role)
			abort(c, http.StatusForbidden, "forbidden")
			return
		}

		c.Set(ctxUserID, userID)
		c.Set(ctxRole, role)
		c.Next()
	}
}

func UserAuth(secret string, users UserLookup) gin.HandlerFunc {
	return AuthGuard(secret, users, false)
}

func AdminAuth(secret string, users UserLookup, legacyUserID bool) gin.HandlerFunc {
	return AuthGuard(secret, users, legacyUserID, models.RoleAdmin)
}

// CallerFrom returns the identity set by AuthGuard.
func CallerFrom(c *gin.Context) (orders.Caller, bool) {
	value, ok := c.Get(ctxUserID)
	if !ok {
		return orders.Caller{}, false
	}
	userID, ok := value.(primitive.ObjectID)
	if !ok || userID.IsZero() {
		return orders.Caller{}, false
	}
	return orders.Caller{UserID: userID, Role: c.GetString(ctxRole)}, true
}

// IssueAccessToken signs an HS256 access token carrying sub and role.
func IssueAccessToken(secret string, userID primitive.ObjectID, email, role string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":   userID.Hex(),
		"role":  role,
		"email": email,
		"exp":   time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func bearerOrCookie(c *gin.Context) (string, bool) {
	if raw := strings.TrimSpace(c.GetHeader("Authorization")); raw != "" {
		parts := strings.Split(raw, " ")
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") && parts[1] != "" {
			return parts[1], true
		}
		return "", false
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil && strings.TrimSpace(cookie) != "" {
		return strings.TrimSpace(cookie), true
	}
	return "", false
}

func parseToken(raw, secret string) (primitive.ObjectID, string, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return primitive.NilObjectID, "", err
	}
	if !token.Valid {
		return primitive.NilObjectID, "", errors.New("token invalid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return primitive.NilObjectID, "", errors.New("token claims invalid")
	}

	subject, _ := claims["sub"].(string)
	userID, err := primitive.ObjectIDFromHex(strings.TrimSpace(subject))
	if err != nil {
		return primitive.NilObjectID, "", errors.New("sub claim invalid")
	}
	role, _ := claims["role"].(string)
	return userID, role, nil
}

// loadActiveUser writes the error response itself and returns its status.
func loadActiveUser(c *gin.Context, users UserLookup, id primitive.ObjectID) (models.User, int) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	user, err := users.FindUser(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			log.Println("[AUTH] [ERROR] user not found:", id.Hex())
			abort(c, http.StatusUnauthorized, "unauthorized")
			return models.User{}, http.StatusUnauthorized
		}
		log.Println("[AUTH] [ERROR] user lookup failed:", err)
		abort(c, http.StatusInternalServerError, "internal server error")
		return models.User{}, http.StatusInternalServerError
	}
	if !user.IsActive {
		log.Println("[AUTH] [ERROR] user inactive:", id.Hex())
		abort(c, http.StatusForbidden, "user is inactive")
		return models.User{}, http.StatusForbidden
	}
	return user, 0
}

// legacyAuth trusts the userId query parameter as the caller identity. This is
// impersonation by parameter and only runs behind LEGACY_USERID_AUTH.
func legacyAuth(c *gin.Context, users UserLookup, allowedRoles []string) {
	raw := strings.TrimSpace(c.Query("userId"))
	userID, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		abort(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	log.Printf("[AUTH] [WARN] legacy userId authorization for %s on %s %s", raw, c.Request.Method, c.FullPath())

	role := ""
	if users != nil {
		user, status := loadActiveUser(c, users, userID)
		if status != 0 {
			return
		}
		role = user.Role
	}
	if !roleAllowed(role, allowedRoles) {
		abort(c, http.StatusForbidden, "forbidden")
		return
	}

	c.Set(ctxUserID, userID)
	c.Set(ctxRole, role)
	c.Next()
}

func roleAllowed(role string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, r := range allowed {
		if role == r {
			return true
		}
	}
	return false
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}
