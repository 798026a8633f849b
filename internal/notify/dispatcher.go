// internal/notify/dispatcher.go
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alitto/pond"
	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/failsafe-go/failsafe-go/retrypolicy"

	"bidmarket/internal/domain"
	"bidmarket/internal/metrics"
)

// Config sizes the delivery pool and bounds redelivery.
type Config struct {
	Workers      int           `yaml:"workers"`
	Capacity     int           `yaml:"capacity"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryDelay   time.Duration `yaml:"retry_delay"`
	Timeout      time.Duration `yaml:"timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	BreakerDelay time.Duration `yaml:"breaker_delay"`
}

func (c *Config) withDefaults() {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.Capacity <= 0 {
		c.Capacity = 256
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 100 * time.Millisecond
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.BreakerDelay <= 0 {
		c.BreakerDelay = 10 * time.Second
	}
}

// Dispatcher hands committed intents to an Emitter off the request path.
// Delivery failures are logged and counted, never returned to the caller that committed the change.
type Dispatcher struct {
	pool     *pond.WorkerPool
	emitter  Emitter
	executor failsafe.Executor[any]
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics

	mu      sync.RWMutex
	stopped bool
}

// NewDispatcher starts the delivery pool.
func NewDispatcher(cfg Config, emitter Emitter, logger *slog.Logger, m *metrics.Metrics) *Dispatcher {
	cfg.withDefaults()
	logger = logger.With("component", "notify_dispatcher")

	retryPolicy := retrypolicy.NewBuilder[any]().
		HandleIf(func(_ any, err error) bool {
			return err != nil
		}).
		WithBackoff(cfg.RetryDelay, cfg.RetryDelay*20).
		WithMaxRetries(cfg.MaxRetries).
		ReturnLastFailure().
		Build()

	// Stop hammering the store when it is down; intents fail fast until it recovers.
	breaker := circuitbreaker.NewBuilder[any]().
		WithFailureThresholdRatio(5, 10).
		WithDelay(cfg.BreakerDelay).
		Build()

	pool := pond.New(
		cfg.Workers,
		cfg.Capacity,
		pond.MinWorkers(1),
		pond.IdleTimeout(cfg.IdleTimeout),
		pond.Strategy(pond.Balanced()),
		pond.PanicHandler(func(p interface{}) {
			logger.Error("Notification worker panic recovered", "panic", p)
		}),
	)

	return &Dispatcher{
		pool:     pool,
		emitter:  emitter,
		executor: failsafe.With[any](retryPolicy, breaker),
		timeout:  cfg.Timeout,
		logger:   logger,
		metrics:  m,
	}
}

// Dispatch queues intents for delivery. It must only be called after the change that produced them committed.
// It never blocks: when the queue is full or the dispatcher is stopped the intents are dropped and counted.
// The caller's cancellation does not abort delivery.
func (d *Dispatcher) Dispatch(ctx context.Context, intents []domain.NotificationIntent) {
	if len(intents) == 0 {
		return
	}

	batch := append([]domain.NotificationIntent(nil), intents...)
	deliveryCtx := context.WithoutCancel(ctx)

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		d.drop("dispatcher stopped", batch)
		return
	}
	if !d.pool.TrySubmit(func() { d.deliver(deliveryCtx, batch) }) {
		d.drop("delivery queue full", batch)
	}
}

func (d *Dispatcher) drop(reason string, intents []domain.NotificationIntent) {
	d.logger.Error("Dropping notifications",
		"reason", reason,
		"count", len(intents),
		"type", intents[0].Type,
		"related_id", intents[0].RelatedID)
	d.metrics.AddNotifications("dropped", len(intents))
}

func (d *Dispatcher) deliver(ctx context.Context, intents []domain.NotificationIntent) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	err := d.executor.WithContext(ctx).Run(func() error {
		return d.emitter.Emit(ctx, intents)
	})
	if err != nil {
		d.logger.Error("Failed to deliver notifications",
			"count", len(intents),
			"type", intents[0].Type,
			"related_id", intents[0].RelatedID,
			"error", err)
		d.metrics.AddNotifications("failed", len(intents))
		return
	}
	d.logger.Debug("Notifications delivered", "count", len(intents), "type", intents[0].Type)
	d.metrics.AddNotifications("stored", len(intents))
}

// Stop waits for queued deliveries to finish. Later Dispatch calls drop their intents.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	d.mu.Unlock()

	d.pool.StopAndWait()
}
