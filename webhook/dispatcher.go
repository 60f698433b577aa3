package webhook

import (
	"context"
	"net/http"
	"sync"
	"time"

	credentials "github.com/goliatone/go-credentials"
	"golang.org/x/sync/errgroup"
)

// Dispatcher fans lifecycle events out to its sinks. Publish never blocks
// on delivery; each attempt runs with its own timeout and no attempt is
// retried.
type Dispatcher struct {
	sinks          []Sink
	logger         credentials.Logger
	onSettled      func(Delivery)
	maxConcurrency int
	now            func() time.Time

	wg sync.WaitGroup
}

var _ credentials.EventPublisher = (*Dispatcher)(nil)

// Option customizes the dispatcher.
type Option func(*Dispatcher)

// WithSinks appends delivery targets.
func WithSinks(sinks ...Sink) Option {
	return func(d *Dispatcher) {
		for _, s := range sinks {
			if s != nil {
				d.sinks = append(d.sinks, s)
			}
		}
	}
}

func WithLogger(l credentials.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithOnSettled registers an observer called once per settled attempt.
// It runs on the delivery goroutine and must not block for long.
func WithOnSettled(fn func(Delivery)) Option {
	return func(d *Dispatcher) {
		d.onSettled = fn
	}
}

// WithMaxConcurrency bounds parallel attempts per event. Zero means
// unbounded.
func WithMaxConcurrency(n int) Option {
	return func(d *Dispatcher) {
		if n >= 0 {
			d.maxConcurrency = n
		}
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) Option {
	return func(d *Dispatcher) {
		if clock != nil {
			d.now = clock
		}
	}
}

func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		logger: credentials.DefaultLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// NewFromConfig creates an HTTPSink per configured subscription. A
// disabled config yields a dispatcher with only the extra sinks in opts.
func NewFromConfig(cfg credentials.WebhooksConfig, client *http.Client, opts ...Option) *Dispatcher {
	d := New(opts...)
	if !cfg.Enabled {
		if len(cfg.Subscriptions) > 0 {
			d.logger.Warn("webhooks disabled, ignoring %d configured subscriptions", len(cfg.Subscriptions))
		}
		return d
	}
	if cfg.MaxConcurrency > 0 {
		d.maxConcurrency = cfg.MaxConcurrency
	}
	for _, sub := range cfg.Subscriptions {
		d.sinks = append(d.sinks, NewHTTPSink(sub, client, cfg.UserAgent))
	}
	return d
}

// Sinks returns the configured targets.
func (d *Dispatcher) Sinks() []Sink {
	out := make([]Sink, len(d.sinks))
	copy(out, d.sinks)
	return out
}

// Publish implements credentials.EventPublisher. It returns immediately;
// cancelling ctx afterwards does not abort the fan-out.
func (d *Dispatcher) Publish(ctx context.Context, event credentials.Event) {
	targets := d.targets(event.Name)
	if len(targets) == 0 {
		d.logger.Debug("no webhook targets for %s", event.Name)
		return
	}

	ctx = context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.fanOut(ctx, event, targets)
	}()
}

// Dispatch delivers event synchronously and returns one Delivery per
// matching target, in sink order.
func (d *Dispatcher) Dispatch(ctx context.Context, event credentials.Event) []Delivery {
	return d.fanOut(ctx, event, d.targets(event.Name))
}

// Wait blocks until every fan-out started by Publish has settled.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Shutdown waits for in-flight fan-outs or until ctx is done.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
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

func (d *Dispatcher) targets(name credentials.EventName) []Sink {
	var out []Sink
	for _, s := range d.sinks {
		if s.Accepts(name) {
			out = append(out, s)
		}
	}
	return out
}

func (d *Dispatcher) fanOut(ctx context.Context, event credentials.Event, targets []Sink) []Delivery {
	results := make([]Delivery, len(targets))

	// attempts never return errors to the group so none cancels another
	var g errgroup.Group
	if d.maxConcurrency > 0 {
		g.SetLimit(d.maxConcurrency)
	}
	for i, sink := range targets {
		g.Go(func() error {
			results[i] = d.attempt(ctx, event, sink)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if !r.OK() {
			failed++
		}
	}
	d.logger.Debug("event %s settled: %d targets, %d failed", event.Name, len(results), failed)
	return results
}

func (d *Dispatcher) attempt(ctx context.Context, event credentials.Event, sink Sink) Delivery {
	ctx, cancel := context.WithTimeout(ctx, sink.Timeout())
	defer cancel()

	start := d.now()
	status, err := sink.Deliver(ctx, NewEnvelope(event, sink.Name(), start))

	delivery := Delivery{
		Target:     sink.Name(),
		Event:      event.Name,
		StatusCode: status,
		Err:        err,
		StartedAt:  start,
		Duration:   d.now().Sub(start),
	}

	if err != nil {
		d.logger.Error("webhook %s delivery of %s failed: %v", delivery.Target, event.Name, err)
	} else {
		d.logger.Info("webhook %s delivered %s in %s", delivery.Target, event.Name, delivery.Duration)
	}

	if d.onSettled != nil {
		d.onSettled(delivery)
	}
	return delivery
}
