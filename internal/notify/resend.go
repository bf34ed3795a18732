package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// ResendSender posts email through the Resend HTTP API.
type ResendSender struct {
	client *http.Client
	url    string
	apiKey string
	from   string
	log    *zap.Logger
}

func NewResendSender(client *http.Client, url, apiKey, from string, log *zap.Logger) *ResendSender {
	return &ResendSender{
		client: client,
		url:    url,
		apiKey: apiKey,
		from:   from,
		log:    log.With(zap.String("sender", "resend")),
	}
}

func (s *ResendSender) Name() string { return "resend" }

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

func (s *ResendSender) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(resendRequest{
		From:    s.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return &DeliveryError{Provider: s.Name(), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return &DeliveryError{Provider: s.Name(), Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return &DeliveryError{Provider: s.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &DeliveryError{
			Provider: s.Name(),
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("resend api: %s", bytes.TrimSpace(body)),
		}
	}

	s.log.Debug("Email sent", zap.String("to", msg.To))
	return nil
}
