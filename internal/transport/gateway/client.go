package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gympoint/gympoint-backend/internal/service"
)

// Client talks to the hosted-checkout payment vendor. Requests are
// authenticated with the shared secret; webhook callbacks are verified with
// an HMAC-SHA256 signature over the raw body using the same secret.
type Client struct {
	baseURL   string
	secretKey string
	returnURL string
	http      *http.Client
}

func NewClient(baseURL, secretKey, returnURL string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		returnURL: returnURL,
		http:      &http.Client{Timeout: 15 * time.Second},
	}
}

type initiateRequest struct {
	ReferenceID   string `json:"reference_id"`
	AmountCents   int64  `json:"amount_cents"`
	Currency      string `json:"currency"`
	CustomerEmail string `json:"customer_email"`
	ReturnURL     string `json:"return_url"`
}

type initiateResponse struct {
	TransactionRef string `json:"transaction_ref"`
	CheckoutURL    string `json:"checkout_url"`
}

func (c *Client) Initiate(ctx context.Context, req service.GatewayCharge) (*service.GatewayCheckout, error) {
	body, err := json.Marshal(initiateRequest{
		ReferenceID:   req.ReferenceID,
		AmountCents:   req.AmountCents,
		Currency:      req.Currency,
		CustomerEmail: req.CustomerEmail,
		ReturnURL:     c.returnURL,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/checkouts", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	var out initiateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("gateway response: %w", err)
	}
	if out.TransactionRef == "" || out.CheckoutURL == "" {
		return nil, fmt.Errorf("gateway response missing transaction_ref or checkout_url")
	}

	return &service.GatewayCheckout{
		GatewayRef:  out.TransactionRef,
		RedirectURL: out.CheckoutURL,
	}, nil
}

// VerifySignature checks the hex-encoded HMAC-SHA256 of the raw webhook body.
func (c *Client) VerifySignature(payload []byte, signature string) bool {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(c.secretKey))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}
