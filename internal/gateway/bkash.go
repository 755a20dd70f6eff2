package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/deshiwear/storefront/internal/config"
	"github.com/deshiwear/storefront/pkg/utils"
)

type BkashClient struct {
	logger *slog.Logger
	cfg    config.Gateway
	http   *http.Client
	tokens TokenStore
}

func NewBkashClient(logger *slog.Logger, cfg config.Gateway, tokens TokenStore) *BkashClient {
	return &BkashClient{
		logger: logger.With(slog.String("gateway", "bkash")),
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		tokens: tokens,
	}
}

type bkashTokenResponse struct {
	IDToken   string `json:"id_token"`
	TokenType string `json:"token_type"`
	ExpiresIn int    `json:"expires_in"`
}

// token returns a cached grant token, refreshing it when the validity
// window has elapsed. The grant call is retried; it is idempotent.
func (c *BkashClient) token(ctx context.Context) (string, error) {
	token, err := c.tokens.Get(ctx)
	if err != nil {
		c.logger.Warn("token cache read failed", slog.Any("error", err))
	}
	if token != "" {
		return token, nil
	}

	var res bkashTokenResponse
	grant := func() error {
		body := map[string]string{
			"app_key":    c.cfg.AppKey,
			"app_secret": c.cfg.AppSecret,
		}
		headers := map[string]string{
			"username": c.cfg.Username,
			"password": c.cfg.Password,
		}
		return c.post(ctx, "/tokenized/checkout/token/grant", headers, body, &res)
	}

	cfg := utils.RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 200 * time.Millisecond,
		Multiplier:   2,
	}
	if err := utils.Retry(cfg, grant); err != nil {
		return "", fmt.Errorf("bkash token grant failed: %w", err)
	}
	if res.IDToken == "" {
		return "", &Error{Gateway: "bkash", Detail: "grant response missing id_token"}
	}

	if err := c.tokens.Set(ctx, res.IDToken, c.cfg.TokenTTL); err != nil {
		c.logger.Warn("token cache write failed", slog.Any("error", err))
	}
	return res.IDToken, nil
}

type bkashCreateResponse struct {
	PaymentID string `json:"paymentID"`
	BkashURL  string `json:"bkashURL"`
}

// CreatePayment opens a tokenized checkout session and returns the URL the
// payer is redirected to.
func (c *BkashClient) CreatePayment(ctx context.Context, amount int64, orderID, callbackURL string) (PaymentSession, error) {
	token, err := c.token(ctx)
	if err != nil {
		return PaymentSession{}, err
	}

	body := map[string]string{
		"mode":                  "0011",
		"payerReference":        orderID,
		"callbackURL":           callbackURL,
		"amount":                FormatAmount(amount),
		"currency":              "BDT",
		"intent":                "sale",
		"merchantInvoiceNumber": orderID,
	}
	headers := map[string]string{
		"Authorization": token,
		"X-APP-Key":     c.cfg.AppKey,
	}

	var res bkashCreateResponse
	if err := c.post(ctx, "/tokenized/checkout/create", headers, body, &res); err != nil {
		return PaymentSession{}, fmt.Errorf("bkash payment creation failed: %w", err)
	}
	if res.PaymentID == "" {
		return PaymentSession{}, &Error{Gateway: "bkash", Detail: "create response missing paymentID"}
	}

	return PaymentSession{
		PaymentID:   res.PaymentID,
		RedirectURL: res.BkashURL,
		Amount:      amount,
		Currency:    "BDT",
	}, nil
}

type bkashExecuteResponse struct {
	TransactionStatus string `json:"transactionStatus"`
	TrxID             string `json:"trxID"`
	Amount            string `json:"amount"`
}

// ExecutePayment confirms a payment server-side after the payer approved it.
// Not retried: a second execute for the same paymentID is rejected by the provider.
func (c *BkashClient) ExecutePayment(ctx context.Context, paymentID string) (ExecuteResult, error) {
	token, err := c.token(ctx)
	if err != nil {
		return ExecuteResult{}, err
	}

	headers := map[string]string{
		"Authorization": token,
		"X-APP-Key":     c.cfg.AppKey,
	}
	body := map[string]string{"paymentID": paymentID}

	var res bkashExecuteResponse
	if err := c.post(ctx, "/tokenized/checkout/execute", headers, body, &res); err != nil {
		return ExecuteResult{}, fmt.Errorf("bkash payment execution failed: %w", err)
	}

	result := ExecuteResult{Status: res.TransactionStatus, TrxID: res.TrxID}
	if res.Amount != "" {
		amount, err := ParseAmount(res.Amount)
		if err != nil {
			return ExecuteResult{}, fmt.Errorf("bkash execute: %w", err)
		}
		result.Amount = amount
	}
	return result, nil
}

func (c *BkashClient) post(ctx context.Context, path string, headers map[string]string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if res.StatusCode >= http.StatusBadRequest {
		return &Error{Gateway: "bkash", StatusCode: res.StatusCode, Detail: string(data)}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
