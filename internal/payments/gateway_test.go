package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrderPostsAmountAndReceipt(t *testing.T) {
	var got createOrderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key", user)
		assert.Equal(t, "secret", pass)
		assert.Equal(t, "/orders", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(RemoteOrder{ID: "order_abc", Amount: got.Amount, Currency: got.Currency, Receipt: got.Receipt, Status: "created"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", "key", "secret")
	receipt := NewReceipt()
	remote, err := client.CreateOrder(context.Background(), 100000, receipt)

	require.NoError(t, err)
	assert.Equal(t, "order_abc", remote.ID)
	assert.Equal(t, int64(100000), got.Amount)
	assert.Equal(t, "INR", got.Currency)
	assert.Equal(t, receipt, got.Receipt)
	assert.True(t, strings.HasPrefix(receipt, "rcpt_"))
}

func TestCreateOrderSurfacesGatewayErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad amount", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "key", "secret").CreateOrder(context.Background(), 100, "r1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")

	_, err = NewClient(srv.URL, "key", "secret").CreateOrder(context.Background(), 0, "r1")
	require.Error(t, err)
}

func TestVerifySignature(t *testing.T) {
	client := NewClient("http://unused", "key", "secret")
	sig := Sign("secret", "order_1", "pay_1")

	assert.True(t, client.VerifySignature("order_1", "pay_1", sig))
	assert.True(t, client.VerifySignature("order_1", "pay_1", strings.ToUpper(sig)))
	assert.False(t, client.VerifySignature("order_1", "pay_2", sig))
	assert.False(t, client.VerifySignature("order_1", "pay_1", ""))
	assert.False(t, client.VerifySignature("order_1", "pay_1", Sign("other", "order_1", "pay_1")))
}

func TestReceiptsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		r := NewReceipt()
		assert.False(t, seen[r])
		seen[r] = true
	}
}
