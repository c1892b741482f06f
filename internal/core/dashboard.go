package core

import (
	"context"

	"wardwatch/pkg/domain"
)

// Stats aggregates the dashboard counters and the full scoreboard from one
// consistent snapshot of the root.
func (s *Service) Stats(ctx context.Context) (domain.DashboardStats, error) {
	var stats domain.DashboardStats
	err := s.instrument(ctx, "stats", func(ctx context.Context) error {
		return s.store.View(ctx, func(snapshot domain.Snapshot) error {
			stats = domain.Stats(snapshot, s.nowFn())
			return nil
		})
	})
	return stats, err
}

// Scoreboard returns per-ward compliance scores sorted best first.
func (s *Service) Scoreboard(ctx context.Context) ([]domain.WardScore, error) {
	var scores []domain.WardScore
	err := s.store.View(ctx, func(snapshot domain.Snapshot) error {
		scores = domain.Scoreboard(snapshot)
		return nil
	})
	return scores, err
}

// WardScore computes the current score for a single ward.
func (s *Service) WardScore(ctx context.Context, wardID string) (domain.WardScore, error) {
	var out domain.WardScore
	err := s.store.View(ctx, func(snapshot domain.Snapshot) error {
		for _, ws := range domain.Scoreboard(snapshot) {
			if ws.WardID == wardID {
				out = ws
				return nil
			}
		}
		return ErrNotFound{Entity: EntityUnit, ID: wardID}
	})
	return out, err
}

// AuditLog returns the append-only audit trail.
func (s *Service) AuditLog(ctx context.Context) ([]domain.AuditEntry, error) {
	var entries []domain.AuditEntry
	err := s.store.View(ctx, func(snapshot domain.Snapshot) error {
		entries = snapshot.AuditLog
		return nil
	})
	return entries, err
}
