// Package payments talks to the remote payment gateway. Only two calls are
// used: creating a gateway order for an amount and verifying the signature the
// checkout widget hands back.
package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

type RemoteOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type Gateway interface {
	CreateOrder(ctx context.Context, amountMinor int64, receipt string) (RemoteOrder, error)
	VerifySignature(gatewayOrderID, paymentID, signature string) bool
}

// NewReceipt returns a unique, time-sortable receipt id.
func NewReceipt() string {
	return "rcpt_" + ulid.Make().String()
}

// Sign computes the hex HMAC-SHA256 of "orderID|paymentID".
func Sign(secret, gatewayOrderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

type Client struct {
	baseURL   string
	keyID     string
	keySecret string
	currency  string
	http      *http.Client
}

func NewClient(baseURL, keyID, keySecret string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		keyID:     keyID,
		keySecret: keySecret,
		currency:  "INR",
		http:      &http.Client{Timeout: 10 * time.Second},
	}
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

func (c *Client) CreateOrder(ctx context.Context, amountMinor int64, receipt string) (RemoteOrder, error) {
	if amountMinor <= 0 {
		return RemoteOrder{}, fmt.Errorf("amount must be positive, got %d", amountMinor)
	}

	body, err := json.Marshal(createOrderRequest{Amount: amountMinor, Currency: c.currency, Receipt: receipt})
	if err != nil {
		return RemoteOrder{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return RemoteOrder{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return RemoteOrder{}, fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return RemoteOrder{}, fmt.Errorf("gateway response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return RemoteOrder{}, fmt.Errorf("gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var remote RemoteOrder
	if err := json.Unmarshal(payload, &remote); err != nil {
		return RemoteOrder{}, fmt.Errorf("decode gateway order: %w", err)
	}
	if remote.ID == "" {
		return RemoteOrder{}, fmt.Errorf("gateway order has no id")
	}
	return remote, nil
}

func (c *Client) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	if gatewayOrderID == "" || paymentID == "" || signature == "" {
		return false
	}
	expected := Sign(c.keySecret, gatewayOrderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(signature))))
}
