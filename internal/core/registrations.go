package core

import (
	"context"
	"fmt"

	"wardwatch/pkg/domain"
)

// RegistrationInput carries a ward's proposed point baseline for a month.
type RegistrationInput struct {
	Month  string
	Points float64
	Note   string
}

// SubmitRegistration files a pending point-baseline registration for the
// acting ward. The proposed coefficient is derived from the tier table, never
// supplied by the caller.
func (s *Service) SubmitRegistration(ctx context.Context, actor domain.Unit, in RegistrationInput) (domain.WardRegistration, error) {
	var created domain.WardRegistration
	err := s.instrument(ctx, "submit_registration", func(ctx context.Context) error {
		if err := requireRole(actor, RoleWard); err != nil {
			return err
		}
		if in.Points < 0 {
			return domain.ValidationError{Field: "points", Reason: "must not be negative"}
		}
		tier := domain.AreaTier(in.Points)
		_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var err error
			created, err = tx.CreateRegistration(domain.WardRegistration{
				WardID:              actor.ID,
				WardName:            actor.UnitName,
				Month:               in.Month,
				Points:              in.Points,
				ProposedCoefficient: tier.Coefficient,
				Status:              ReviewPending,
				Note:                in.Note,
			})
			if err != nil {
				return err
			}
			audit(tx, actor.ID, "submit_registration", created.ID, fmt.Sprintf("points=%v", in.Points))
			return nil
		})
		return err
	})
	if err != nil {
		return domain.WardRegistration{}, err
	}
	s.notifier.Notify("submitRegistration", created)
	return created, nil
}

// ReviewRegistration approves or rejects a pending registration. Approval
// propagates the registered points, tier coefficient and base score to the
// ward unit within the same transaction, so scoring never observes a half
// applied registration.
func (s *Service) ReviewRegistration(ctx context.Context, actor domain.Unit, id string, approve bool, note string) (domain.WardRegistration, error) {
	var reviewed domain.WardRegistration
	err := s.instrument(ctx, "review_registration", func(ctx context.Context) error {
		if err := requireRole(actor, RoleAdmin, RoleReviewer); err != nil {
			return err
		}
		_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			reg, found, err := tx.UpdateRegistration(id, func(r *domain.WardRegistration) error {
				if r.Status != ReviewPending {
					return domain.ValidationError{Field: "status", Reason: fmt.Sprintf("registration already %s", r.Status)}
				}
				if approve {
					r.Status = ReviewApproved
				} else {
					r.Status = ReviewRejected
				}
				now := s.nowFn()
				r.ReviewedAt = &now
				if note != "" {
					r.Note = note
				}
				return nil
			})
			if err != nil {
				return err
			}
			if !found {
				return ErrNotFound{Entity: EntityRegistration, ID: id}
			}
			reviewed = reg
			if approve {
				tier := domain.AreaTier(reg.Points)
				_, wardFound, err := tx.UpdateUnit(reg.WardID, func(u *domain.Unit) error {
					u.TotalViolationPoints = reg.Points
					u.AreaCoefficient = tier.Coefficient
					u.BaseScore = tier.BaseScore
					return nil
				})
				if err != nil {
					return err
				}
				if !wardFound {
					return ErrNotFound{Entity: EntityUnit, ID: reg.WardID}
				}
			}
			audit(tx, actor.ID, "review_registration", id, string(reviewed.Status))
			return nil
		})
		return err
	})
	if err != nil {
		return domain.WardRegistration{}, err
	}
	s.notifier.Notify("reviewRegistration", reviewed)
	return reviewed, nil
}

// Registrations lists registrations visible to the actor, newest first.
func (s *Service) Registrations(ctx context.Context, actor domain.Unit) ([]domain.WardRegistration, error) {
	all := s.store.ListRegistrations()
	if actor.Role != RoleWard {
		return all, nil
	}
	own := all[:0]
	for _, reg := range all {
		if reg.WardID == actor.ID {
			own = append(own, reg)
		}
	}
	return own, nil
}
