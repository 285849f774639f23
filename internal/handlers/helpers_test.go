package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/blob"
	"storefront/internal/database/inmemory"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/orders"
)

const testSecret = "handler-test-secret"

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []string        `json:"errors"`
}

type testEnv struct {
	t       *testing.T
	router  *gin.Engine
	store   *inmemory.Store
	product models.Product
}

func newTestEnv(t *testing.T, cfg orders.Config, blobs blob.Store) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if err := RegisterValidators(); err != nil {
		t.Fatalf("register validators: %v", err)
	}

	store := inmemory.NewStore()
	product := store.PutProduct(models.Product{
		Title:       "Linen Kurta",
		Brand:       "Zenax",
		Images:      models.StringList{"https://cdn.example.com/kurta.jpg"},
		Category:    models.CategoryEthnic,
		ActualPrice: 500,
		Status:      models.ProductStatusPublished,
		IsActive:    true,
		Sizes:       []models.SizeStock{{Size: "M", Stock: 5}, {Size: "L", Stock: 1}},
		CreatedAt:   time.Now(),
	})

	svc := orders.NewService(store, store, orders.NewNumberGenerator(store, nil), cfg)
	r := gin.New()
	RegisterRoutes(r, Deps{
		Orders:             svc,
		Products:           store,
		Blobs:              blobs,
		Auth:               AuthConfig{Secret: testSecret, AccessTTL: time.Minute, RefreshTTL: time.Hour},
		OrderRatePerMinute: 1000,
	})
	return &testEnv{t: t, router: r, store: store, product: product}
}

func tokenFor(t *testing.T, id primitive.ObjectID, role string) string {
	t.Helper()
	token, err := middleware.IssueAccessToken(testSecret, id, "someone@example.com", role, time.Minute)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func (e *testEnv) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	e.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			e.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			e.t.Fatalf("decode envelope: %v (%s)", err, w.Body.String())
		}
	}
	return w, env
}

func (e *testEnv) stock(size string) int {
	e.t.Helper()
	p, err := e.store.FindProduct(context.Background(), e.product.ID)
	if err != nil {
		e.t.Fatalf("find product: %v", err)
	}
	entry, _ := p.SizeStock(size)
	return entry.Stock
}

func orderBody(productID, size string, qty int, price, total float64) gin.H {
	return gin.H{
		"items": []gin.H{
			{"productId": productID, "size": size, "quantity": qty, "price": price},
		},
		"totalAmount": total,
		"shippingAddress": gin.H{
			"firstName":    "Asha",
			"lastName":     "Rao",
			"phone":        "9876543210",
			"email":        "asha@example.com",
			"addressLine1": "12 MG Road",
			"city":         "Bengaluru",
			"state":        "Karnataka",
			"pincode":      "560001",
		},
	}
}

func decodeData(t *testing.T, env envelope, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("decode data: %v (%s)", err, string(env.Data))
	}
}
