package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PaymentConfig holds card processor credentials and endpoints. BaseURL is
// overridable so tests can point the client at a local fake.
type PaymentConfig struct {
	SecretKey     string
	WebhookSecret string
	BaseURL       string
	Currency      string
}

// PaymentGateway talks to the card processor's payment-intent API.
type PaymentGateway struct {
	config     PaymentConfig
	httpClient *http.Client
}

func NewPaymentGateway(cfg PaymentConfig) *PaymentGateway {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.stripe.com"
	}
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	return &PaymentGateway{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// PaymentIntent is the processor-side object representing a charge.
type PaymentIntent struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	ClientSecret string `json:"client_secret"`
}

func (pg *PaymentGateway) Currency() string {
	return pg.config.Currency
}

// CreateIntent opens a new payment intent for the given amount in the
// smallest currency unit.
func (pg *PaymentGateway) CreateIntent(amountCents int64, metadata map[string]string) (*PaymentIntent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountCents, 10))
	form.Set("currency", pg.config.Currency)
	for k, v := range metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	req, err := http.NewRequest("POST", pg.config.BaseURL+"/v1/payment_intents",
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create intent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+pg.config.SecretKey)
	req.Header.Set("Idempotency-Key", uuid.NewString())

	var intent PaymentIntent
	if err := pg.do(req, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

// GetIntent fetches the current processor-side status of an intent.
func (pg *PaymentGateway) GetIntent(id string) (*PaymentIntent, error) {
	req, err := http.NewRequest("GET", pg.config.BaseURL+"/v1/payment_intents/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("get intent request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+pg.config.SecretKey)

	var intent PaymentIntent
	if err := pg.do(req, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

// Refund refunds the full amount of a succeeded intent.
func (pg *PaymentGateway) Refund(intentID string) error {
	form := url.Values{}
	form.Set("payment_intent", intentID)

	req, err := http.NewRequest("POST", pg.config.BaseURL+"/v1/refunds",
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("refund request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+pg.config.SecretKey)

	return pg.do(req, &struct{}{})
}

func (pg *PaymentGateway) do(req *http.Request, out interface{}) error {
	resp, err := pg.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("payment gateway request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read gateway response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("payment gateway error (status %d): %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode gateway response: %w", err)
	}
	return nil
}

// webhookTolerance bounds how stale a signed webhook timestamp may be.
const webhookTolerance = 5 * time.Minute

// VerifyWebhookSignature checks the "t=<unix>,v1=<hex>" signature header
// against HMAC-SHA256(secret, "<t>.<payload>"). Nothing in a webhook body is
// trusted before this passes.
func (pg *PaymentGateway) VerifyWebhookSignature(payload []byte, header string) bool {
	var ts, sig string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts = kv[1]
		case "v1":
			sig = kv[1]
		}
	}
	if ts == "" || sig == "" {
		return false
	}

	tsUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return false
	}
	age := time.Since(time.Unix(tsUnix, 0))
	if age > webhookTolerance || age < -webhookTolerance {
		return false
	}

	mac := hmac.New(sha256.New, []byte(pg.config.WebhookSecret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(sig))
}

// SignWebhookPayload produces a signature header for a payload; the webhook
// tests use it to build valid requests.
func SignWebhookPayload(secret string, payload []byte, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	return fmt.Sprintf("t=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

// IntentSucceeded reports whether a processor status means the charge is
// captured. Anything else is treated as not (yet) paid.
func IntentSucceeded(status string) bool {
	return status == "succeeded"
}
