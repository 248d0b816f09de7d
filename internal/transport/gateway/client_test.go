package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gympoint/gympoint-backend/internal/service"
)

func TestInitiate(t *testing.T) {
	var got initiateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/checkouts" {
			t.Errorf("path = %q, want /v1/checkouts", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(initiateResponse{
			TransactionRef: "txn-123",
			CheckoutURL:    "https://pay.example.com/txn-123",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk-test", "https://app.gympoint.example/payments/return")
	checkout, err := client.Initiate(context.Background(), service.GatewayCharge{
		ReferenceID:   "pay-1",
		AmountCents:   4999,
		Currency:      "USD",
		CustomerEmail: "member@example.com",
	})
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if checkout.GatewayRef != "txn-123" {
		t.Errorf("gateway ref = %q, want txn-123", checkout.GatewayRef)
	}
	if checkout.RedirectURL != "https://pay.example.com/txn-123" {
		t.Errorf("redirect = %q", checkout.RedirectURL)
	}
	if got.ReferenceID != "pay-1" || got.AmountCents != 4999 {
		t.Errorf("request = %+v", got)
	}
	if got.ReturnURL != "https://app.gympoint.example/payments/return" {
		t.Errorf("return url = %q", got.ReturnURL)
	}
}

func TestInitiateGatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk-test", "")
	if _, err := client.Initiate(context.Background(), service.GatewayCharge{ReferenceID: "pay-1"}); err == nil {
		t.Fatal("expected an error for a non-2xx gateway response")
	}
}

func TestInitiateRejectsIncompleteResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(initiateResponse{TransactionRef: "txn-123"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk-test", "")
	if _, err := client.Initiate(context.Background(), service.GatewayCharge{ReferenceID: "pay-1"}); err == nil {
		t.Fatal("expected an error when checkout_url is missing")
	}
}

func TestVerifySignature(t *testing.T) {
	client := NewClient("https://gateway.example.com", "whsec-test", "")
	payload := []byte(`{"transaction_ref":"txn-123","status":"completed"}`)

	mac := hmac.New(sha256.New, []byte("whsec-test"))
	mac.Write(payload)
	signature := hex.EncodeToString(mac.Sum(nil))

	if !client.VerifySignature(payload, signature) {
		t.Fatal("a correct signature must verify")
	}
	if !client.VerifySignature(payload, strings.ToUpper(signature)) {
		t.Fatal("signature comparison must be case-insensitive")
	}
	if client.VerifySignature(payload, "deadbeef") {
		t.Fatal("a wrong signature must not verify")
	}
	if client.VerifySignature(payload, "") {
		t.Fatal("an empty signature must not verify")
	}
	if client.VerifySignature([]byte(`{"tampered":true}`), signature) {
		t.Fatal("a tampered payload must not verify")
	}
}
