package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// TwilioSender sends SMS through the Twilio Messages API.
type TwilioSender struct {
	client     *http.Client
	baseURL    string
	accountSID string
	authToken  string
	from       string
	log        *zap.Logger
}

func NewTwilioSender(client *http.Client, baseURL, accountSID, authToken, from string, log *zap.Logger) *TwilioSender {
	return &TwilioSender{
		client:     client,
		baseURL:    strings.TrimRight(baseURL, "/"),
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		log:        log.With(zap.String("sender", "twilio")),
	}
}

func (s *TwilioSender) Name() string { return "twilio" }

func (s *TwilioSender) Send(ctx context.Context, msg Message) error {
	form := url.Values{}
	form.Set("From", s.from)
	form.Set("To", msg.To)
	form.Set("Body", msg.Text)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", s.baseURL, url.PathEscape(s.accountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return &DeliveryError{Provider: s.Name(), Err: err}
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

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
			Err:      fmt.Errorf("twilio api: %s", bytes.TrimSpace(body)),
		}
	}

	s.log.Debug("SMS sent", zap.String("to", msg.To))
	return nil
}
