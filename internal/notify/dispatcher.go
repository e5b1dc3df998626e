package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"
)

var deliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "posintake_notifications_total",
	Help: "Notification delivery attempts by template, channel and outcome",
}, []string{"template", "channel", "outcome"})

// Dispatcher fans messages out to per-channel sinks in the background. It
// detaches from the request context so an HTTP timeout cannot abort an
// in-flight delivery, and records every attempt in the log store.
type Dispatcher struct {
	sinks  map[Channel]Sink
	logs   LogStore
	logger *slog.Logger
	wg     sync.WaitGroup
}

func NewDispatcher(sinks map[Channel]Sink, logs LogStore, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{sinks: sinks, logs: logs, logger: logger}
}

// Dispatch queues the messages for delivery and returns immediately.
func (d *Dispatcher) Dispatch(ctx context.Context, msgs ...Message) {
	if len(msgs) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		g, ctx := errgroup.WithContext(ctx)
		for _, msg := range msgs {
			g.Go(func() error {
				d.deliver(ctx, msg)
				return nil
			})
		}
		_ = g.Wait()
	}()
}

func (d *Dispatcher) deliver(ctx context.Context, msg Message) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	sink, ok := d.sinks[msg.Channel]
	outcome := OutcomeSent
	var sendErr error
	if !ok {
		outcome = OutcomeFailed
		d.logger.Warn("no sink for channel", "channel", string(msg.Channel))
	} else if sendErr = sink.Send(ctx, msg); sendErr != nil {
		outcome = OutcomeFailed
		d.logger.Error("notification delivery failed",
			"channel", string(msg.Channel),
			"template", msg.Template,
			"error", sendErr,
		)
	}
	deliveriesTotal.WithLabelValues(msg.Template, string(msg.Channel), outcome).Inc()

	entry := LogEntry{
		ID:            uuid.New(),
		ApplicationID: msg.ApplicationID,
		Channel:       msg.Channel,
		Recipient:     msg.Recipient,
		Template:      msg.Template,
		Subject:       msg.Subject,
		Outcome:       outcome,
		CreatedAt:     time.Now(),
	}
	if sendErr != nil {
		entry.Error = sendErr.Error()
	}
	if err := d.logs.Append(ctx, entry); err != nil {
		d.logger.Error("notification log append failed", "error", err)
	}
}

// Wait blocks until all queued deliveries finish. Used during shutdown and
// in tests.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
