package notifications

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/tradelink-backend/pkg/logger"
	"github.com/angelmondragon/tradelink-backend/pkg/metrics"
)

const defaultSendTimeout = 5 * time.Second

// Dispatcher sends notifications in the background. Callers never wait on
// delivery and never see its errors; failures are logged and counted.
type Dispatcher struct {
	notifier Notifier
	logg     *logger.Logger
	metrics  *metrics.EngineMetrics
	timeout  time.Duration
	wg       sync.WaitGroup
}

// NewDispatcher wires a dispatcher over notifier. A zero timeout uses the
// default.
func NewDispatcher(notifier Notifier, logg *logger.Logger, m *metrics.EngineMetrics, timeout time.Duration) (*Dispatcher, error) {
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return &Dispatcher{notifier: notifier, logg: logg, metrics: m, timeout: timeout}, nil
}

// Dispatch schedules msg for delivery. The send outlives the caller's request
// but is bounded by the dispatcher timeout.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) {
	if d == nil {
		return
	}
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				d.metrics.Notification(msg.Kind.String(), false)
				d.logg.Error(sendCtx, "notifier panicked", fmt.Errorf("panic: %v", r))
			}
		}()

		err := d.notifier.Send(sendCtx, msg)
		d.metrics.Notification(msg.Kind.String(), err == nil)
		if err != nil {
			logCtx := d.logg.WithField(sendCtx, "notification_kind", msg.Kind.String())
			d.logg.Warn(d.logg.WithField(logCtx, "error", err.Error()), "notification delivery failed")
		}
	}()
}

// Wait blocks until in-flight sends finish or ctx is done.
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
