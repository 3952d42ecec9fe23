package account

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/adonese/accountd/apperr"
	"github.com/adonese/accountd/models"
)

// HTTPSMSSender delivers messages through an HTTP SMS gateway. Gateway is
// the full endpoint URL; mobile, message, sender and api key travel as
// query parameters, which is what most regional gateways expect.
type HTTPSMSSender struct {
	Gateway string
	APIKey  string
	Sender  string
	HTTP    *http.Client
}

// NewSMSSender builds a sender from service configuration. Returns nil
// when no gateway is configured; the orchestrator treats a nil sender
// as "verification codes are logged, not delivered".
func NewSMSSender(cfg models.Config) *HTTPSMSSender {
	if cfg.SMSGateway == "" {
		return nil
	}
	return &HTTPSMSSender{Gateway: cfg.SMSGateway, APIKey: cfg.SMSAPIKey, Sender: cfg.SMSSender}
}

func (s *HTTPSMSSender) Send(ctx context.Context, mobile, message string) error {
	q := url.Values{}
	q.Set("to", mobile)
	q.Set("text", message)
	if s.Sender != "" {
		q.Set("from", s.Sender)
	}
	if s.APIKey != "" {
		q.Set("api_key", s.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.Gateway+"?"+q.Encode(), nil)
	if err != nil {
		return apperr.Wrap(err, apperr.ErrProvider, "")
	}
	client := s.HTTP
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return apperr.Wrap(err, apperr.ErrProvider, "")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return apperr.WithMessage(apperr.ErrProvider, fmt.Sprintf("sms gateway returned %d: %s", resp.StatusCode, string(body)))
	}
	return nil
}
