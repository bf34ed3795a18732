package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"pesa-smart-plan/internal/data/entity"
	"pesa-smart-plan/internal/data/repository"
	"pesa-smart-plan/pkg/utils"

	"go.uber.org/zap"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type delivery struct {
	Channel entity.Channel
	Contact string
	Code    string
	CtxErr  error
}

// stubDeliverer records every code it is asked to deliver.
type stubDeliverer struct {
	mu   sync.Mutex
	sent []delivery
	err  error
}

func (d *stubDeliverer) Deliver(ctx context.Context, channel entity.Channel, contact, code string, _ time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, delivery{Channel: channel, Contact: contact, Code: code, CtxErr: ctx.Err()})
	return d.err
}

func (d *stubDeliverer) last(t *testing.T) delivery {
	t.Helper()
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.sent) == 0 {
		t.Fatal("no code delivered")
	}
	return d.sent[len(d.sent)-1]
}

func (d *stubDeliverer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sent)
}

// recorder counts metric events by name.
type recorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func newRecorder() *recorder { return &recorder{counts: map[string]int{}} }

func (r *recorder) inc(key string) {
	r.mu.Lock()
	r.counts[key]++
	r.mu.Unlock()
}

func (r *recorder) get(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[key]
}

func (r *recorder) CodeIssued(ch string)     { r.inc("issued:" + ch) }
func (r *recorder) DeliveryFailed(ch string) { r.inc("delivery_failed:" + ch) }
func (r *recorder) CodeVerified(ch string, ok bool) {
	if ok {
		r.inc("verified:" + ch)
		return
	}
	r.inc("rejected:" + ch)
}
func (r *recorder) RegistrationOutcome(o string) { r.inc("registration:" + o) }
func (r *recorder) LoginOutcome(o string)        { r.inc("login:" + o) }

func testConfig() *utils.Config {
	return &utils.Config{
		Session: utils.SessionConfig{ExpiryHours: 24},
		OTP: utils.OTPConfig{
			ExpiryMinutes:         5,
			ResendCooldownSeconds: 60,
			DeliveryTimeout:       time.Second,
		},
	}
}

type harness struct {
	repo     *repository.Repository
	svc      *Service
	clock    *clock
	notifier *stubDeliverer
	metrics  *recorder
	config   *utils.Config
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWith(t, testConfig(), repository.NewMemoryRepository())
}

func newHarnessWith(t *testing.T, config *utils.Config, repo *repository.Repository) *harness {
	t.Helper()

	h := &harness{
		repo:     repo,
		clock:    newClock(),
		notifier: &stubDeliverer{},
		metrics:  newRecorder(),
		config:   config,
	}
	h.svc = NewService(repo, h.notifier, config, h.metrics, zap.NewNop())

	h.svc.Account.(*accountService).now = h.clock.Now
	h.svc.Code.(*codeService).now = h.clock.Now
	h.svc.Registration.(*registrationService).now = h.clock.Now
	return h
}
