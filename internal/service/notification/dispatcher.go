// Package notification delivers booking confirmations outside the request path.
package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jwalitptl/clinic-api/internal/email"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/messaging"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

const (
	channelBroker = "broker"
	channelEmail  = "email"

	statusSent   = "sent"
	statusFailed = "failed"

	// MessageVisitBooked is the Message.Type published on messaging.ChannelVisitBooked.
	MessageVisitBooked = "visit.booked"

	defaultTimeout = 10 * time.Second
)

// Dispatcher publishes a visit.booked message and emails the patient for every booking.
// Each dispatch runs in its own goroutine on a context detached from the request,
// so a finished or cancelled request does not abort delivery. Failures are logged
// and counted, never retried.
type Dispatcher struct {
	broker  messaging.Broker
	email   email.Service
	metrics *metrics.Metrics
	logger  *logger.Logger
	timeout time.Duration
	now     func() time.Time
	wg      sync.WaitGroup
}

// NewDispatcher accepts a nil broker when messaging is disabled.
func NewDispatcher(broker messaging.Broker, emailSvc email.Service, m *metrics.Metrics, log *logger.Logger, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Dispatcher{
		broker:  broker,
		email:   emailSvc,
		metrics: m,
		logger:  log,
		timeout: timeout,
		now:     time.Now,
	}
}

// VisitBooked returns immediately.
func (d *Dispatcher) VisitBooked(ctx context.Context, visit *model.Visit, recipient string) {
	event := model.NewVisitBooked(visit, recipient)
	detached := context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error(fmt.Errorf("panic: %v", r), "notification dispatch panicked", "visit_id", event.VisitID.String())
			}
		}()

		ctx, cancel := context.WithTimeout(detached, d.timeout)
		defer cancel()
		d.dispatch(ctx, event)
	}()
}

// Wait blocks until every started dispatch has finished. Called on shutdown.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) dispatch(ctx context.Context, event model.VisitBooked) {
	if d.broker != nil {
		msg := messaging.Message{Type: MessageVisitBooked, OccurredAt: d.now().UTC(), Payload: event}
		err := d.broker.Publish(ctx, messaging.ChannelVisitBooked, msg)
		d.record(channelBroker, event, err)
	}

	if event.Recipient == "" {
		d.logger.Debug("no email address for patient, confirmation skipped", "patient_id", event.PatientID.String())
		return
	}
	err := d.email.SendVisitConfirmation(ctx, event.Recipient, event)
	d.record(channelEmail, event, err)
}

func (d *Dispatcher) record(channel string, event model.VisitBooked, err error) {
	if err != nil {
		d.metrics.Notifications.WithLabelValues(channel, statusFailed).Inc()
		d.logger.Error(err, "booking notification failed", "channel", channel, "visit_id", event.VisitID.String())
		return
	}
	d.metrics.Notifications.WithLabelValues(channel, statusSent).Inc()
}
