package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/database"
	"storefront/internal/models"
)

const testSecret = "test-secret"

type stubUsers map[primitive.ObjectID]models.User

func (s stubUsers) FindUser(_ context.Context, id primitive.ObjectID) (models.User, error) {
	user, ok := s[id]
	if !ok {
		return models.User{}, database.ErrUserNotFound
	}
	return user, nil
}

func newAuthRouter(guard gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", guard, func(c *gin.Context) {
		caller, ok := CallerFrom(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.JSON(http.StatusOK, gin.H{"userId": caller.UserID.Hex(), "role": caller.Role})
	})
	return r
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUserAuthAcceptsBearerAndCookie(t *testing.T) {
	id := primitive.NewObjectID()
	users := stubUsers{id: {ID: id, Role: models.RoleUser, IsActive: true}}
	r := newAuthRouter(UserAuth(testSecret, users))

	token, err := IssueAccessToken(testSecret, id, "a@example.com", models.RoleUser, time.Minute)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	if w := serve(r, req); w.Code != http.StatusOK {
		t.Fatalf("expected 200 with bearer, got %d: %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: token})
	if w := serve(r, req); w.Code != http.StatusOK {
		t.Fatalf("expected 200 with cookie, got %d: %s", w.Code, w.Body.String())
	}
}

func TestUserAuthRejectsBadTokens(t *testing.T) {
	id := primitive.NewObjectID()
	users := stubUsers{id: {ID: id, Role: models.RoleUser, IsActive: true}}
	r := newAuthRouter(UserAuth(testSecret, users))

	expired, _ := IssueAccessToken(testSecret, id, "", models.RoleUser, -time.Minute)
	wrongKey, _ := IssueAccessToken("other", id, "", models.RoleUser, time.Minute)
	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": id.Hex()}).SignedString([]byte(testSecret))

	cases := map[string]string{
		"missing":   "",
		"malformed": "Token abc",
		"expired":   "Bearer " + expired,
		"wrong key": "Bearer " + wrongKey,
		"no exp":    "Bearer " + noExp,
	}
	for name, header := range cases {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		if w := serve(r, req); w.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, w.Code)
		}
	}
}

func TestUserAuthRejectsInactiveAndUnknownUsers(t *testing.T) {
	inactive := primitive.NewObjectID()
	users := stubUsers{inactive: {ID: inactive, Role: models.RoleUser, IsActive: false}}
	r := newAuthRouter(UserAuth(testSecret, users))

	token, _ := IssueAccessToken(testSecret, inactive, "", models.RoleUser, time.Minute)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	if w := serve(r, req); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for inactive user, got %d", w.Code)
	}

	token, _ = IssueAccessToken(testSecret, primitive.NewObjectID(), "", models.RoleUser, time.Minute)
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	if w := serve(r, req); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown user, got %d", w.Code)
	}
}

func TestAdminAuthUsesStoredRole(t *testing.T) {
	id := primitive.NewObjectID()
	users := stubUsers{id: {ID: id, Role: models.RoleUser, IsActive: true}}
	r := newAuthRouter(AdminAuth(testSecret, users, false))

	forged, _ := IssueAccessToken(testSecret, id, "", models.RoleAdmin, time.Minute)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	if w := serve(r, req); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin account, got %d", w.Code)
	}
}

func TestLegacyUserIDOnlyWhenEnabled(t *testing.T) {
	admin := primitive.NewObjectID()
	users := stubUsers{admin: {ID: admin, Role: models.RoleAdmin, IsActive: true}}

	req := httptest.NewRequest(http.MethodGet, "/protected?userId="+admin.Hex(), nil)
	if w := serve(newAuthRouter(AdminAuth(testSecret, users, false)), req); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with legacy auth off, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/protected?userId="+admin.Hex(), nil)
	if w := serve(newAuthRouter(AdminAuth(testSecret, users, true)), req); w.Code != http.StatusOK {
		t.Fatalf("expected 200 with legacy auth on, got %d: %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/protected?userId="+primitive.NewObjectID().Hex(), nil)
	if w := serve(newAuthRouter(AdminAuth(testSecret, users, true)), req); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown legacy user, got %d", w.Code)
	}
}

func TestRequestIDIsStampedOrKept(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, RequestIDFrom(c)) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	minted := w.Header().Get(RequestIDHeader)
	if minted == "" || w.Body.String() != minted {
		t.Fatalf("expected minted id echoed, header=%q body=%q", minted, w.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, minted)
	if w := serve(r, req); w.Header().Get(RequestIDHeader) != minted {
		t.Fatal("expected incoming request id to be kept")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "<script>")
	if w := serve(r, req); w.Header().Get(RequestIDHeader) == "<script>" {
		t.Fatal("expected malformed request id to be replaced")
	}
}

func TestRateLimiterPerCaller(t *testing.T) {
	limiter := NewRateLimiter(2)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	if !limiter.Allow("a") || !limiter.Allow("a") {
		t.Fatal("expected burst of 2 to pass")
	}
	if limiter.Allow("a") {
		t.Fatal("expected third request to be limited")
	}
	if !limiter.Allow("b") {
		t.Fatal("expected other caller to have its own bucket")
	}

	now = now.Add(30 * time.Second)
	if !limiter.Allow("a") {
		t.Fatal("expected a token after refill")
	}
}

func TestRateLimiterMiddlewareReturns429(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/orders", NewRateLimiter(1).Middleware(), func(c *gin.Context) { c.Status(http.StatusCreated) })

	if w := serve(r, httptest.NewRequest(http.MethodPost, "/orders", nil)); w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	if w := serve(r, httptest.NewRequest(http.MethodPost, "/orders", nil)); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
}
