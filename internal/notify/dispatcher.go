package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"pesa-smart-plan/internal/data/entity"
	"pesa-smart-plan/pkg/utils"

	"github.com/doyensec/safeurl"
	"go.uber.org/zap"
)

const codeSubject = "Your Verification Code"

var codeEmailTemplate = template.Must(template.New("code").Parse(`<div style="font-family: Arial, sans-serif; max-width: 500px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #2563eb; text-align: center;">Email Verification</h2>
  <p>Your verification code is:</p>
  <div style="background: #f3f4f6; padding: 20px; text-align: center; font-size: 32px; font-weight: bold; letter-spacing: 8px; margin: 20px 0;">{{.Code}}</div>
  <p style="color: #666; font-size: 14px;">This code will expire in {{.Minutes}} minutes.</p>
  <p style="color: #666; font-size: 14px;">If you didn't request this code, please ignore this email.</p>
</div>`))

// Dispatcher routes a verification code to the sender for its channel.
type Dispatcher struct {
	email Sender
	sms   Sender
	log   *zap.Logger
}

func NewDispatcher(email, sms Sender, log *zap.Logger) *Dispatcher {
	return &Dispatcher{email: email, sms: sms, log: log.With(zap.String("component", "notify"))}
}

// NewDispatcherFromConfig picks providers by the credentials present. Email
// prefers Resend, then SMTP; SMS uses Twilio. Anything missing falls back to
// the log sender.
func NewDispatcherFromConfig(email utils.EmailConfig, sms utils.SMSConfig, timeout time.Duration, log *zap.Logger) *Dispatcher {
	client := providerClient(timeout)
	fallback := NewLogSender(log)

	var emailSender Sender = fallback
	switch {
	case email.ResendAPIKey != "":
		emailSender = NewResendSender(client, email.ResendURL, email.ResendAPIKey, email.From, log)
	case email.Host != "":
		emailSender = NewSMTPSender(email.Host, email.Port, email.User, email.Password, email.From, log)
	}

	var smsSender Sender = fallback
	if sms.TwilioAccountSID != "" && sms.TwilioAuthToken != "" && sms.TwilioFrom != "" {
		smsSender = NewTwilioSender(client, sms.TwilioBaseURL, sms.TwilioAccountSID, sms.TwilioAuthToken, sms.TwilioFrom, log)
	}

	log.Info("Notification providers selected",
		zap.String("email", emailSender.Name()),
		zap.String("sms", smsSender.Name()),
	)
	return NewDispatcher(emailSender, smsSender, log)
}

// providerClient only talks to public https endpoints.
func providerClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes("https").
		SetAllowedPorts(443).
		Build()
	return safeurl.Client(config).Client
}

// Deliver sends code to contact over channel.
func (d *Dispatcher) Deliver(ctx context.Context, channel entity.Channel, contact, code string, ttl time.Duration) error {
	minutes := int(ttl / time.Minute)
	if minutes < 1 {
		minutes = 1
	}

	switch channel {
	case entity.ChannelEmail:
		var html bytes.Buffer
		if err := codeEmailTemplate.Execute(&html, struct {
			Code    string
			Minutes int
		}{code, minutes}); err != nil {
			return fmt.Errorf("render verification email: %w", err)
		}
		return d.email.Send(ctx, Message{
			To:      contact,
			Subject: codeSubject,
			Text:    fmt.Sprintf("Your verification code is: %s. This code expires in %d minutes.", code, minutes),
			HTML:    html.String(),
		})
	case entity.ChannelPhone:
		return d.sms.Send(ctx, Message{
			To:   contact,
			Text: fmt.Sprintf("Your Pesa Smart Plan verification code is: %s. This code expires in %d minutes.", code, minutes),
		})
	default:
		return fmt.Errorf("unsupported channel %q", channel)
	}
}
