package dispatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/librisys/loanservice/core"
	"github.com/librisys/loanservice/shell"
)

const (
	logMsgHandlerFailed    = "event handler failed"
	logMsgHandlerPanicked  = "event handler panicked"
	logMsgNoHandlers       = "no handlers registered for event"
	labelEventType         = "event_type"
	labelHandlerName       = "handler"
	payloadUnavailableNote = "<payload unavailable>"
)

// HandlerFunc reacts to one published event. A returned error is logged and
// swallowed at the dispatch boundary; it never reaches the publisher.
type HandlerFunc func(ctx context.Context, event core.DomainEvent) error

type subscription struct {
	name   string
	handle HandlerFunc
}

// Dispatcher routes events to the handlers registered for their type.
// Handlers for the same event run sequentially and independently: a failing
// or panicking handler is logged and the fan-out continues with the next
// one. Publish never fails its caller.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]subscription
	logger   shell.Logger
	metrics  shell.MetricsCollector
}

// DispatcherOption defines a functional option for configuring a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithMetrics sets the metrics collector recording dispatch failures.
func WithMetrics(metrics shell.MetricsCollector) DispatcherOption {
	return func(d *Dispatcher) {
		d.metrics = metrics
	}
}

// NewDispatcher creates a Dispatcher with no subscriptions.
func NewDispatcher(logger shell.Logger, options ...DispatcherOption) *Dispatcher {
	dispatcher := &Dispatcher{
		handlers: make(map[string][]subscription),
		logger:   logger,
	}

	for _, option := range options {
		option(dispatcher)
	}

	return dispatcher
}

// Subscribe registers a handler for an event type. The handler name appears
// in warning logs when the handler fails. Handlers run in subscription
// order.
func (d *Dispatcher) Subscribe(eventType string, handlerName string, handler HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers[eventType] = append(d.handlers[eventType], subscription{name: handlerName, handle: handler})
}

// Publish routes the event to every handler registered for its type. Each
// handler is isolated: failures and panics are logged as warnings with the
// event payload and the loop continues. Publish returns when all handlers
// have run.
func (d *Dispatcher) Publish(ctx context.Context, event core.DomainEvent) {
	d.mu.RLock()
	subscriptions := d.handlers[event.EventType()]
	d.mu.RUnlock()

	if len(subscriptions) == 0 {
		d.logger.Debug(logMsgNoHandlers, shell.LogAttrEventType, event.EventType())
		return
	}

	for _, sub := range subscriptions {
		d.invokeGuarded(ctx, sub, event)
	}
}

func (d *Dispatcher) invokeGuarded(ctx context.Context, sub subscription, event core.DomainEvent) {
	defer func() {
		if recovered := recover(); recovered != nil {
			d.logger.Warn(logMsgHandlerPanicked,
				shell.LogAttrHandlerName, sub.name,
				shell.LogAttrEventType, event.EventType(),
				shell.LogAttrEventPayload, d.renderPayload(event),
				shell.LogAttrError, fmt.Sprintf("%v", recovered),
			)
			d.recordFailure(sub, event)
		}
	}()

	if err := sub.handle(ctx, event); err != nil {
		d.logger.Warn(logMsgHandlerFailed,
			shell.LogAttrHandlerName, sub.name,
			shell.LogAttrEventType, event.EventType(),
			shell.LogAttrEventPayload, d.renderPayload(event),
			shell.LogAttrError, err.Error(),
		)
		d.recordFailure(sub, event)
	}
}

func (d *Dispatcher) recordFailure(sub subscription, event core.DomainEvent) {
	if d.metrics == nil {
		return
	}

	d.metrics.IncrementCounter(shell.DispatchFailuresMetric, map[string]string{
		labelEventType:   event.EventType(),
		labelHandlerName: sub.name,
	})
}

func (d *Dispatcher) renderPayload(event core.DomainEvent) string {
	payload, err := event.PayloadToJSON()
	if err != nil {
		return payloadUnavailableNote
	}

	return string(payload)
}
