// Package notify delivers booking confirmations outside the dialogue turn.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rickd5991-stack/jenny-bot/internal/dialogue"
	"github.com/rickd5991-stack/jenny-bot/internal/messaging"
	"github.com/rickd5991-stack/jenny-bot/internal/observability/metrics"
	"github.com/rickd5991-stack/jenny-bot/pkg/logging"
)

const (
	defaultTimeout = 10 * time.Second
	emailSubject   = "Booking confirmed - poa beauty parlor"
)

// DispatcherConfig wires a Dispatcher. Both senders are optional.
type DispatcherConfig struct {
	SMS         messaging.SMSSender
	Email       EmailSender
	Timeout     time.Duration
	CountryCode string
	Metrics     *metrics.DialogueMetrics
	Logger      *logging.Logger
}

// Dispatcher sends booking confirmations in the background. Failures are
// logged and counted, never returned.
type Dispatcher struct {
	sms         messaging.SMSSender
	email       EmailSender
	timeout     time.Duration
	countryCode string
	metrics     *metrics.DialogueMetrics
	logger      *logging.Logger
	wg          sync.WaitGroup
}

var _ dialogue.Confirmer = (*Dispatcher)(nil)

func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	cc := cfg.CountryCode
	if cc == "" {
		cc = messaging.DefaultCountryCode
	}
	return &Dispatcher{
		sms:         cfg.SMS,
		email:       cfg.Email,
		timeout:     timeout,
		countryCode: cc,
		metrics:     cfg.Metrics,
		logger:      logger,
	}
}

// Confirm returns immediately; delivery runs on its own goroutine.
func (d *Dispatcher) Confirm(c dialogue.Confirmation) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("confirmation delivery panicked", "panic", fmt.Sprint(r), "booking_id", c.Booking.ID)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		d.deliver(ctx, c)
	}()
}

func (d *Dispatcher) deliver(ctx context.Context, c dialogue.Confirmation) {
	b := c.Booking
	log := d.logger.With("booking_id", b.ID)

	if d.sms != nil {
		to := messaging.NormalizeMSISDN(b.CallerPhone, d.countryCode)
		if to == "" {
			log.Warn("no caller phone for confirmation sms")
		} else {
			err := d.sms.Send(ctx, messaging.SMS{To: to, Body: c.Message})
			d.metrics.ObserveNotification("sms", err)
			if err != nil {
				log.Error("confirmation sms failed", "error", err, "to", to)
			}
		}
	}

	if d.email != nil && dialogue.IsEmail(b.Contact) {
		err := d.email.Send(ctx, EmailMessage{
			BookingID: b.ID,
			To:        b.Contact,
			ToName:    b.Name,
			Subject:   emailSubject,
			Body:      c.Message,
		})
		d.metrics.ObserveNotification("email", err)
		if err != nil {
			log.Error("confirmation email failed", "error", err, "to", b.Contact)
		}
	}
}

// Wait blocks until in-flight confirmations finish or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
