package gateway_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/deshiwear/storefront/internal/config"
	"github.com/deshiwear/storefront/internal/gateway"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nagadConfig(baseURL string) config.Gateway {
	return config.Gateway{
		BaseURL:    baseURL,
		AppKey:     "01712345678",
		AppSecret:  "merchant-private-key",
		MerchantID: "683002007104225",
		Timeout:    5 * time.Second,
	}
}

func TestNagadClient_CreatePayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/api/dfs/check-out/initialize/683002007104225/"))
		assert.Equal(t, "PC_WEB", r.Header.Get("X-KM-Client-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "01712345678", body["accountNumber"])
		assert.NotEmpty(t, body["dateTime"])
		assert.NotEmpty(t, body["sensitiveData"])

		// the signature must cover the encrypted payload
		assert.True(t, gateway.VerifySignature("merchant-private-key", []byte(body["sensitiveData"]), body["signature"]))

		// the encrypted payload must not leak the order id in the clear
		assert.NotContains(t, body["sensitiveData"], "ORD-1-001")

		json.NewEncoder(w).Encode(map[string]string{
			"callbackUrl":        "https://nagad.example/checkout/NGD001",
			"paymentReferenceId": "NGD001",
		})
	}))
	defer srv.Close()

	client := gateway.NewNagadClient(testLogger(), nagadConfig(srv.URL))

	session, err := client.CreatePayment(context.Background(), 2499, "ORD-1-001", "https://api.example.com/cb")
	require.NoError(t, err)
	assert.Equal(t, "NGD001", session.PaymentID)
	assert.Equal(t, "https://nagad.example/checkout/NGD001", session.RedirectURL)
	assert.Equal(t, int64(2499), session.Amount)
}

func TestNagadClient_VerifyPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/dfs/verify/payment/NGD001", r.URL.Path)

		json.NewEncoder(w).Encode(map[string]string{
			"status":             "Success",
			"issuerPaymentRefNo": "NTX7",
			"amount":             "2499.00",
		})
	}))
	defer srv.Close()

	client := gateway.NewNagadClient(testLogger(), nagadConfig(srv.URL))

	result, err := client.VerifyPayment(context.Background(), "NGD001")
	require.NoError(t, err)
	assert.Equal(t, gateway.NagadStatusSuccess, result.Status)
	assert.Equal(t, "NTX7", result.TrxID)
	assert.Equal(t, int64(2499), result.Amount)
}

func TestNagadClient_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"reason":"invalid merchant"}`))
	}))
	defer srv.Close()

	client := gateway.NewNagadClient(testLogger(), nagadConfig(srv.URL))

	_, err := client.VerifyPayment(context.Background(), "NGD001")

	var gwErr *gateway.Error
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "nagad", gwErr.Gateway)
	assert.Equal(t, http.StatusBadRequest, gwErr.StatusCode)
}
