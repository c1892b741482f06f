package core

import (
	"context"
	"fmt"

	"wardwatch/pkg/domain"
)

// BonusInput carries a ward's discretionary bonus proposal.
type BonusInput struct {
	Month           string
	CriteriaID      string
	RequestedPoints float64
	Description     string
}

// SubmitBonusRequest files a pending bonus proposal against a fixed criteria
// entry. Requested points must stay within the criteria ceiling.
func (s *Service) SubmitBonusRequest(ctx context.Context, actor domain.Unit, in BonusInput) (domain.BonusRequest, error) {
	var created domain.BonusRequest
	err := s.instrument(ctx, "submit_bonus_request", func(ctx context.Context) error {
		if err := requireRole(actor, RoleWard); err != nil {
			return err
		}
		criteria, ok := domain.BonusCriteriaByID(in.CriteriaID)
		if !ok {
			return domain.ValidationError{Field: "criteria_id", Reason: fmt.Sprintf("unknown criteria %q", in.CriteriaID)}
		}
		if in.RequestedPoints <= 0 {
			return domain.ValidationError{Field: "requested_points", Reason: "must be positive"}
		}
		if in.RequestedPoints > criteria.MaxPoints {
			return domain.ValidationError{Field: "requested_points", Reason: fmt.Sprintf("exceeds ceiling %v for %s", criteria.MaxPoints, criteria.ID)}
		}
		_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var err error
			created, err = tx.CreateBonusRequest(domain.BonusRequest{
				WardID:          actor.ID,
				WardName:        actor.UnitName,
				Month:           in.Month,
				CriteriaID:      criteria.ID,
				CriteriaContent: criteria.Content,
				RequestedPoints: in.RequestedPoints,
				Description:     in.Description,
				Status:          ReviewPending,
			})
			if err != nil {
				return err
			}
			audit(tx, actor.ID, "submit_bonus_request", created.ID, criteria.ID)
			return nil
		})
		return err
	})
	if err != nil {
		return domain.BonusRequest{}, err
	}
	s.notifier.Notify("submitBonusRequest", created)
	return created, nil
}

// ReviewBonusRequest approves or rejects a pending bonus proposal. Approval
// fixes the awarded points at the requested amount; rejection never sets
// final points, so rejected requests contribute nothing to scores.
func (s *Service) ReviewBonusRequest(ctx context.Context, actor domain.Unit, id string, approve bool, note string) (domain.BonusRequest, error) {
	var reviewed domain.BonusRequest
	err := s.instrument(ctx, "review_bonus_request", func(ctx context.Context) error {
		if err := requireRole(actor, RoleAdmin, RoleReviewer); err != nil {
			return err
		}
		_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			req, found, err := tx.UpdateBonusRequest(id, func(b *domain.BonusRequest) error {
				if b.Status != ReviewPending {
					return domain.ValidationError{Field: "status", Reason: fmt.Sprintf("bonus request already %s", b.Status)}
				}
				now := s.nowFn()
				b.ReviewedBy = actor.ID
				b.ReviewedAt = &now
				b.ReviewerNote = note
				if approve {
					b.Status = ReviewApproved
					final := b.RequestedPoints
					b.FinalPoints = &final
				} else {
					b.Status = ReviewRejected
				}
				return nil
			})
			if err != nil {
				return err
			}
			if !found {
				return ErrNotFound{Entity: EntityBonusRequest, ID: id}
			}
			reviewed = req
			audit(tx, actor.ID, "review_bonus_request", id, string(reviewed.Status))
			return nil
		})
		return err
	})
	if err != nil {
		return domain.BonusRequest{}, err
	}
	s.notifier.Notify("reviewBonusRequest", reviewed)
	return reviewed, nil
}

// BonusRequests lists bonus requests visible to the actor, newest first.
func (s *Service) BonusRequests(ctx context.Context, actor domain.Unit) ([]domain.BonusRequest, error) {
	all := s.store.ListBonusRequests()
	if actor.Role != RoleWard {
		return all, nil
	}
	own := all[:0]
	for _, req := range all {
		if req.WardID == actor.ID {
			own = append(own, req)
		}
	}
	return own, nil
}
