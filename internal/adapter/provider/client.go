package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/polarisedu/coursepay/internal/domain/model"
)

// ErrNotConfigured indicates the provider secret is absent; verification is
// skipped, never failed.
var ErrNotConfigured = errors.New("payment provider not configured")

// ErrPaymentNotFound indicates the provider doesn't know the payment id.
var ErrPaymentNotFound = errors.New("payment not found")

// TooManyRequestsError represents rate limiting signal from the provider API.
type TooManyRequestsError struct {
	RetryAfter time.Duration
}

func (e TooManyRequestsError) Error() string {
	return fmt.Sprintf("too many requests, retry after %s", e.RetryAfter)
}

// Client exposes the advisory payment verification call.
type Client interface {
	Verify(ctx context.Context, paymentID string) (*model.Verification, error)
}

// HTTPClient implements Client via the provider payment lookup API.
type HTTPClient struct {
	baseURL    *url.URL
	secret     string
	httpClient *http.Client
	logger     *slog.Logger
}

// response mirrors the provider payment payload. Older payloads carry
// totalAmount/txId instead of amount.total/transactionId.
type response struct {
	Status string `json:"status"`
	Amount struct {
		Total int64 `json:"total"`
	} `json:"amount"`
	TotalAmount   int64  `json:"totalAmount"`
	TransactionID string `json:"transactionId"`
	TxID          string `json:"txId"`
}

// NewHTTPClient creates provider client with bounded request timeout.
func NewHTTPClient(baseURL, secret string, timeout time.Duration, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse provider url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("provider url must be absolute")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPClient{
		baseURL: parsed,
		secret:  secret,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Verify fetches the provider's view of one payment.
func (c *HTTPClient) Verify(ctx context.Context, paymentID string) (*model.Verification, error) {
	if c.secret == "" {
		return nil, ErrNotConfigured
	}

	endpoint := *c.baseURL
	endpoint.Path = path.Join(endpoint.Path, "payments", paymentID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "PortOne "+c.secret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		var data response
		if err := json.Unmarshal(body, &data); err != nil {
			return nil, err
		}

		amount := data.Amount.Total
		if amount == 0 {
			amount = data.TotalAmount
		}
		txID := data.TransactionID
		if txID == "" {
			txID = data.TxID
		}

		return &model.Verification{
			PaymentID:     paymentID,
			Status:        model.ProviderStatus(strings.ToUpper(data.Status)),
			Amount:        amount,
			TransactionID: txID,
		}, nil
	case http.StatusNotFound:
		return nil, ErrPaymentNotFound
	case http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, TooManyRequestsError{RetryAfter: retryAfter}
	default:
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error("payment lookup failed", slog.Int("status", resp.StatusCode), slog.String("body", string(body)))
		return nil, fmt.Errorf("provider error: %s", resp.Status)
	}
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 5 * time.Second
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}
	return 5 * time.Second
}
