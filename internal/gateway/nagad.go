package gateway

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/deshiwear/storefront/internal/config"
)

type NagadClient struct {
	logger *slog.Logger
	cfg    config.Gateway
	http   *http.Client
}

func NewNagadClient(logger *slog.Logger, cfg config.Gateway) *NagadClient {
	return &NagadClient{
		logger: logger.With(slog.String("gateway", "nagad")),
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
	}
}

type nagadSensitiveData struct {
	MerchantID  string `json:"merchantId"`
	Datetime    string `json:"datetime"`
	OrderID     string `json:"orderId"`
	Amount      string `json:"amount"`
	CallbackURL string `json:"callbackUrl"`
}

type nagadInitResponse struct {
	CallbackURL      string `json:"callbackUrl"`
	PaymentReference string `json:"paymentReferenceId"`
}

// CreatePayment initializes a Nagad checkout. The sensitive payload is
// encrypted with the merchant key and signed with HMAC-SHA256.
func (c *NagadClient) CreatePayment(ctx context.Context, amount int64, orderID, callbackURL string) (PaymentSession, error) {
	datetime := time.Now().UTC().Format("2006-01-02T15:04:05Z")

	sensitive := nagadSensitiveData{
		MerchantID:  c.cfg.MerchantID,
		Datetime:    datetime,
		OrderID:     orderID,
		Amount:      FormatAmount(amount),
		CallbackURL: callbackURL,
	}

	plain, err := json.Marshal(sensitive)
	if err != nil {
		return PaymentSession{}, fmt.Errorf("failed to marshal sensitive data: %w", err)
	}

	encrypted, err := encrypt(c.cfg.AppSecret, plain)
	if err != nil {
		return PaymentSession{}, fmt.Errorf("failed to encrypt sensitive data: %w", err)
	}

	body := map[string]string{
		"accountNumber": c.cfg.AppKey,
		"dateTime":      datetime,
		"sensitiveData": encrypted,
		"signature":     Sign(c.cfg.AppSecret, []byte(encrypted)),
	}

	path := fmt.Sprintf("/api/dfs/check-out/initialize/%s/%s", c.cfg.MerchantID, orderID)

	var res nagadInitResponse
	if err := c.do(ctx, http.MethodPost, path, body, &res); err != nil {
		return PaymentSession{}, fmt.Errorf("nagad payment creation failed: %w", err)
	}
	if res.CallbackURL == "" {
		return PaymentSession{}, &Error{Gateway: "nagad", Detail: "initialize response missing callbackUrl"}
	}

	return PaymentSession{
		PaymentID:   res.PaymentReference,
		RedirectURL: res.CallbackURL,
		Amount:      amount,
		Currency:    "BDT",
	}, nil
}

type nagadVerifyResponse struct {
	Status           string `json:"status"`
	IssuerPaymentRef string `json:"issuerPaymentRefNo"`
	Amount           string `json:"amount"`
}

// VerifyPayment confirms a payment server-side by its reference id.
func (c *NagadClient) VerifyPayment(ctx context.Context, paymentRefID string) (ExecuteResult, error) {
	path := fmt.Sprintf("/api/dfs/verify/payment/%s", paymentRefID)

	var res nagadVerifyResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return ExecuteResult{}, fmt.Errorf("nagad payment verification failed: %w", err)
	}

	result := ExecuteResult{Status: res.Status, TrxID: res.IssuerPaymentRef}
	if res.Amount != "" {
		amount, err := ParseAmount(res.Amount)
		if err != nil {
			return ExecuteResult{}, fmt.Errorf("nagad verify: %w", err)
		}
		result.Amount = amount
	}
	return result, nil
}

func (c *NagadClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-KM-Client-Type", "PC_WEB")

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
		return &Error{Gateway: "nagad", StatusCode: res.StatusCode, Detail: string(data)}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// encrypt seals plaintext with AES-256-GCM under a key derived from secret,
// returning base64(nonce || ciphertext).
func encrypt(secret string, plaintext []byte) (string, error) {
	key := sha256.Sum256([]byte(secret))

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}
