package sync

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"wardwatch/internal/core"
	"wardwatch/pkg/domain"
)

// Config tunes the coordinator. Zero values select the defaults.
type Config struct {
	// Interval between periodic pulls (default 5m).
	Interval time.Duration
	// QueueSize bounds the push queue (default 256). New notifications are
	// dropped once the queue is full; the next full pull reconciles the gap.
	QueueSize int
	Logger    *slog.Logger
	// Registerer receives the coordinator gauges; nil disables metrics.
	Registerer prometheus.Registerer
}

type pushItem struct {
	op      string
	id      string
	payload any
}

// recordID extracts the target record id for update and review pushes; the
// server receives it as the envelope's top-level id field.
func recordID(payload any) string {
	switch v := payload.(type) {
	case domain.Issue:
		return v.ID
	case domain.WardRegistration:
		return v.ID
	case domain.BonusRequest:
		return v.ID
	default:
		return ""
	}
}

// Coordinator runs the background reconciliation loops: a bounded worker
// draining push notifications and a ticker driving periodic pulls. Local
// writes never wait on it.
type Coordinator struct {
	service *core.Service
	client  *Client
	logger  *slog.Logger

	interval time.Duration
	queue    chan pushItem
	pullSeq  atomic.Uint64

	online  prometheus.Gauge
	dropped prometheus.Counter

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Compile-time check: the coordinator is the service's push hook.
var _ core.SyncNotifier = (*Coordinator)(nil)

// NewCoordinator constructs a coordinator; call Start to launch its loops.
func NewCoordinator(service *core.Service, client *Client, cfg Config) *Coordinator {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	c := &Coordinator{
		service:  service,
		client:   client,
		logger:   cfg.Logger,
		interval: cfg.Interval,
		queue:    make(chan pushItem, cfg.QueueSize),
		online: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wardwatch",
			Subsystem: "sync",
			Name:      "online",
			Help:      "1 when the last remote call succeeded, 0 otherwise.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wardwatch",
			Subsystem: "sync",
			Name:      "push_dropped_total",
			Help:      "Push notifications dropped because the queue was full.",
		}),
		stop: make(chan struct{}),
	}
	if cfg.Registerer != nil {
		cfg.Registerer.MustRegister(c.online, c.dropped)
	}
	return c
}

// Notify enqueues a push without ever blocking the caller. When the queue is
// full the notification is dropped; the periodic pull reconciles the gap.
func (c *Coordinator) Notify(operation string, payload any) {
	select {
	case c.queue <- pushItem{op: operation, id: recordID(payload), payload: payload}:
	default:
		c.dropped.Inc()
		c.logger.Warn("push queue full, dropping notification", "operation", operation)
	}
}

// Start launches the push worker and the periodic pull loop.
func (c *Coordinator) Start(ctx context.Context) {
	c.wg.Add(2)
	go c.pushLoop(ctx)
	go c.pullLoop(ctx)
}

// Stop terminates the loops and waits for them to drain.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
	c.wg.Wait()
}

func (c *Coordinator) pushLoop(ctx context.Context) {
	defer c.wg.Done()
	for {
		select {
		case <-c.stop:
			return
		case <-ctx.Done():
			return
		case item := <-c.queue:
			if err := c.client.Push(ctx, item.op, item.id, item.payload); err != nil {
				c.setOnline(false)
				c.logger.Warn("push failed", "operation", item.op, "error", err)
				continue
			}
			c.setOnline(true)
		}
	}
}

func (c *Coordinator) pullLoop(ctx context.Context) {
	defer c.wg.Done()
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.PullNow(ctx); err != nil {
				c.logger.Warn("periodic pull failed", "error", err)
			}
		}
	}
}

// PullNow fetches the remote record set and merges it into the local root.
// Each pull takes a monotonic sequence number; a response that arrives after
// a newer pull has started is discarded so a slow response can never clobber
// fresher data.
func (c *Coordinator) PullNow(ctx context.Context) error {
	seq := c.pullSeq.Add(1)
	data, err := c.client.FetchAll(ctx)
	if err != nil {
		c.setOnline(false)
		return err
	}
	c.setOnline(true)
	if c.pullSeq.Load() != seq {
		c.logger.Debug("discarding stale pull response", "seq", seq)
		return nil
	}
	return c.service.MergeRemoteData(ctx, data)
}

// Ping probes the server and updates the online gauge.
func (c *Coordinator) Ping(ctx context.Context) error {
	err := c.client.Ping(ctx)
	c.setOnline(err == nil)
	return err
}

func (c *Coordinator) setOnline(online bool) {
	if online {
		c.online.Set(1)
		return
	}
	c.online.Set(0)
}
