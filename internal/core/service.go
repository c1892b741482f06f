// Package core exposes the transactional services that implement the
// violation-tracking workflows on top of the persistent root store.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"wardwatch/internal/blob"
	"wardwatch/pkg/domain"
)

// SyncNotifier receives fire-and-forget push notifications after local
// mutations commit. Implementations must never block the caller.
type SyncNotifier interface {
	Notify(operation string, payload any)
}

type noopNotifier struct{}

func (noopNotifier) Notify(string, any) {}

// Service exposes the higher-level workflow operations. Every mutation runs
// inside a single store transaction and appends an audit entry before commit.
type Service struct {
	store    domain.PersistentStore
	blobs    blob.Store
	notifier SyncNotifier
	metrics  MetricsRecorder
	tracer   Tracer
	logger   *slog.Logger
	nowFn    func() time.Time
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithMetricsRecorder wires a metrics sink into the service.
func WithMetricsRecorder(rec MetricsRecorder) Option {
	return func(s *Service) {
		if rec != nil {
			s.metrics = rec
		}
	}
}

// WithTracer wires a tracer into the service.
func WithTracer(tracer Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithLogger wires a structured logger into the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithBlobStore wires the object store used to archive evidence payloads.
func WithBlobStore(store blob.Store) Option {
	return func(s *Service) { s.blobs = store }
}

// WithSyncNotifier wires the push-side sync hook.
func WithSyncNotifier(n SyncNotifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithClock overrides the service clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.nowFn = now
		}
	}
}

// NewService constructs a service backed by the supplied store.
func NewService(store domain.PersistentStore, opts ...Option) *Service {
	s := &Service{
		store:    store,
		notifier: noopNotifier{},
		metrics:  noopMetrics{},
		tracer:   noopTracer{},
		logger:   slog.Default(),
		nowFn:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying storage implementation.
func (s *Service) Store() domain.PersistentStore { return s.store }

// SetSyncNotifier late-binds the push hook. The sync coordinator is built
// around the service, so it cannot be supplied as a construction option.
func (s *Service) SetSyncNotifier(n SyncNotifier) {
	if n != nil {
		s.notifier = n
	}
}

// instrument wraps an operation with tracing, metrics and error logging.
func (s *Service) instrument(ctx context.Context, op string, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, op)
	start := time.Now()
	err := fn(ctx)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, time.Since(start))
	if err != nil {
		s.logger.Debug("operation failed", "operation", op, "error", err)
	}
	return err
}

// ErrNotFound is returned when reference validation fails within transactional helpers.
type ErrNotFound struct {
	Entity EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// EnsureSeedData inserts the fixed unit catalog into an empty root and
// returns the number of units inserted. Existing units are never overwritten,
// so repeated startups are idempotent.
func (s *Service) EnsureSeedData(ctx context.Context) (int, error) {
	inserted := 0
	err := s.instrument(ctx, "ensure_seed_data", func(ctx context.Context) error {
		_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			inserted = tx.SeedUnits(domain.SeedUnits())
			if inserted > 0 {
				tx.AppendAudit(domain.AuditEntry{
					ID:      uuid.NewString(),
					Actor:   "system",
					Action:  "seed_units",
					Details: fmt.Sprintf("seeded %d units", inserted),
				})
			}
			return nil
		})
		return err
	})
	return inserted, err
}

// MarkPersistent records whether the host granted durable storage.
func (s *Service) MarkPersistent(ctx context.Context, granted bool) error {
	return s.instrument(ctx, "mark_persistent", func(ctx context.Context) error {
		_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			tx.SetPersistent(granted)
			return nil
		})
		return err
	})
}

func audit(tx domain.Transaction, actor, action, targetID, details string) {
	tx.AppendAudit(domain.AuditEntry{
		ID:       uuid.NewString(),
		Actor:    actor,
		Action:   action,
		TargetID: targetID,
		Details:  details,
	})
}

func requireRole(actor domain.Unit, roles ...domain.Role) error {
	for _, role := range roles {
		if actor.Role == role {
			return nil
		}
	}
	return domain.ErrForbidden
}
