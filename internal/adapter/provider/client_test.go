package provider

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewHTTPClient(server.URL, "secret", time.Second, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	return client
}

func TestVerifyParsesPayment(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/payments/pay_1" {
			t.Errorf("path = %q, want /payments/pay_1", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "PortOne secret" {
			t.Errorf("authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"paid","amount":{"total":79000},"transactionId":"tx_1"}`))
	})

	v, err := client.Verify(context.Background(), "pay_1")
	if err != nil {
		t.Fatal(err)
	}
	if !v.Status.Paid() {
		t.Errorf("status = %s, want paid", v.Status)
	}
	if v.Amount != 79000 {
		t.Errorf("amount = %d, want 79000", v.Amount)
	}
	if v.TransactionID != "tx_1" {
		t.Errorf("transaction id = %q, want tx_1", v.TransactionID)
	}
}

func TestVerifyLegacyFields(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"PAID","totalAmount":50000,"txId":"tx_legacy"}`))
	})

	v, err := client.Verify(context.Background(), "pay_1")
	if err != nil {
		t.Fatal(err)
	}
	if v.Amount != 50000 {
		t.Errorf("amount = %d, want legacy totalAmount 50000", v.Amount)
	}
	if v.TransactionID != "tx_legacy" {
		t.Errorf("transaction id = %q, want tx_legacy", v.TransactionID)
	}
}

func TestVerifyNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.Verify(context.Background(), "pay_missing")
	if !errors.Is(err, ErrPaymentNotFound) {
		t.Fatalf("err = %v, want ErrPaymentNotFound", err)
	}
}

func TestVerifyRateLimited(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "3")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Verify(context.Background(), "pay_1")
	var tooMany TooManyRequestsError
	if !errors.As(err, &tooMany) {
		t.Fatalf("err = %v, want TooManyRequestsError", err)
	}
	if tooMany.RetryAfter != 3*time.Second {
		t.Errorf("retry after = %v, want 3s", tooMany.RetryAfter)
	}
}

func TestVerifyServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if _, err := client.Verify(context.Background(), "pay_1"); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestVerifyWithoutSecret(t *testing.T) {
	client, err := NewHTTPClient("https://api.portone.io", "", time.Second, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	_, err = client.Verify(context.Background(), "pay_1")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}

func TestNewHTTPClientRejectsRelativeURL(t *testing.T) {
	if _, err := NewHTTPClient("/not/absolute", "secret", time.Second, testLogger()); err == nil {
		t.Fatal("expected error for relative url")
	}
}
