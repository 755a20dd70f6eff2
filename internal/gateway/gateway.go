// Package gateway wraps the bKash and Nagad mobile-payment provider APIs.
package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
)

// Provider terminal statuses. Order state only moves to completed/confirmed
// when the provider reports one of these.
const (
	BkashStatusCompleted = "Completed"
	NagadStatusSuccess   = "Success"
)

// Error is a payment gateway failure carrying the provider's detail.
type Error struct {
	Gateway    string
	StatusCode int
	Detail     string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s gateway error (status %d): %s", e.Gateway, e.StatusCode, e.Detail)
}

// PaymentSession is the result of creating a remote payment, including the
// URL the payer is redirected to.
type PaymentSession struct {
	PaymentID   string
	RedirectURL string
	Amount      int64
	Currency    string
}

// ExecuteResult is the provider's answer to a server-side confirm call.
type ExecuteResult struct {
	Status string
	TrxID  string
	Amount int64
}

// FormatAmount renders an amount in taka with two decimal places, as both
// providers require.
func FormatAmount(amount int64) string {
	return fmt.Sprintf("%.2f", float64(amount))
}

// ParseAmount parses a provider-reported decimal amount into whole taka.
func ParseAmount(s string) (int64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return int64(math.Round(f)), nil
}

// Sign computes the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a webhook signature in constant time.
func VerifySignature(secret string, body []byte, signature string) bool {
	return hmac.Equal([]byte(Sign(secret, body)), []byte(signature))
}
