package services

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SMSSender is what the notifier needs from an SMS backend. Tests substitute
// an in-memory fake.
type SMSSender interface {
	Send(to, body string) error
}

type SMSConfig struct {
	AccountID string
	AuthToken string
	From      string
	BaseURL   string
}

// SMSGateway sends transactional messages through the SMS provider's REST
// API. Outbound only; delivery retries live in the Notifier, not here.
type SMSGateway struct {
	config     SMSConfig
	httpClient *http.Client
}

func NewSMSGateway(cfg SMSConfig) *SMSGateway {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.twilio.com/2010-04-01"
	}
	return &SMSGateway{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (sg *SMSGateway) Send(to, body string) error {
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", sg.config.From)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", sg.config.BaseURL, sg.config.AccountID)
	req, err := http.NewRequest("POST", endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(sg.config.AccountID, sg.config.AuthToken)

	resp, err := sg.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("sms gateway error (status %d): %s", resp.StatusCode, string(respBody))
	}
	return nil
}
