package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"wardwatch/pkg/domain"
)

// CreateIssueInput carries the fields a recorder supplies for a new issue.
// PenaltyPoints defaults to the catalog value for the violation code.
type CreateIssueInput struct {
	CustomName          string
	WardID              string
	LocationDescription string
	ViolationCode       string
	PenaltyPoints       float64
	Source              string
	Note                string
	Evidence            []domain.MediaItem
}

// ReportInput carries a ward's resolution report.
type ReportInput struct {
	Content  string
	BBN      string
	Evidence []domain.MediaItem
}

// UpdateIssueInput carries optional detail edits; nil fields are unchanged.
type UpdateIssueInput struct {
	CustomName          *string
	LocationDescription *string
	Note                *string
}

func normalizeEvidence(items []domain.MediaItem) []domain.MediaItem {
	out := make([]domain.MediaItem, len(items))
	for i, item := range items {
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		if item.Kind == "" {
			item.Kind = domain.MediaImage
		}
		out[i] = item
	}
	return out
}

// CreateIssue records a new violation against a ward. The SLA deadline is
// fixed at creation time plus the review window and never changes afterwards.
func (s *Service) CreateIssue(ctx context.Context, actor domain.Unit, in CreateIssueInput) (domain.Issue, error) {
	var created domain.Issue
	err := s.instrument(ctx, "create_issue", func(ctx context.Context) error {
		if err := requireRole(actor, RoleAdmin, RoleReviewer); err != nil {
			return err
		}
		code, ok := domain.ViolationCodeByCode(in.ViolationCode)
		if !ok {
			return domain.ValidationError{Field: "violation_code", Reason: fmt.Sprintf("unknown code %q", in.ViolationCode)}
		}
		if !code.Active {
			return domain.ValidationError{Field: "violation_code", Reason: fmt.Sprintf("code %s is retired", code.Code)}
		}
		if in.PenaltyPoints <= 0 {
			return domain.ValidationError{Field: "penalty_points", Reason: "must be positive"}
		}
		_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			ward, ok := tx.FindUnit(in.WardID)
			if !ok || ward.Role != RoleWard {
				return domain.ValidationError{Field: "ward_id", Reason: fmt.Sprintf("no ward unit %q", in.WardID)}
			}
			issue := domain.Issue{
				CustomName:          in.CustomName,
				WardID:              ward.ID,
				WardName:            ward.UnitName,
				LocationDescription: in.LocationDescription,
				ViolationCode:       code.Code,
				PenaltyPoints:       in.PenaltyPoints,
				Source:              in.Source,
				Note:                in.Note,
				Evidence:            normalizeEvidence(in.Evidence),
				Status:              IssueNew,
			}
			var err error
			created, err = tx.CreateIssue(issue)
			if err != nil {
				return err
			}
			audit(tx, actor.ID, "create_issue", created.ID, code.Code)
			return nil
		})
		return err
	})
	if err != nil {
		return domain.Issue{}, err
	}
	s.notifier.Notify("createIssue", created)
	return created, nil
}

// transitionIssue applies a status change with version capture inside one
// transaction. Ownership and role checks happen before the mutator runs; the
// rules engine still validates the edge itself.
func (s *Service) transitionIssue(ctx context.Context, op string, actor domain.Unit, id string, next IssueStatus, reason string, extra func(*domain.Issue) error) (domain.Issue, error) {
	var updated domain.Issue
	err := s.instrument(ctx, op, func(ctx context.Context) error {
		_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			issue, found, err := tx.UpdateIssue(id, func(i *domain.Issue) error {
				if actor.Role == RoleWard && i.WardID != actor.ID {
					return domain.ErrForbidden
				}
				if extra != nil {
					if err := extra(i); err != nil {
						return err
					}
				}
				i.Status = next
				i.Versions = append(i.Versions, domain.IssueVersion{
					VersionID:    uuid.NewString(),
					UpdatedAt:    s.nowFn(),
					UpdatedBy:    actor.ID,
					OperatorName: actor.UnitName,
					ChangeReason: reason,
					Status:       next,
				})
				return nil
			})
			if err != nil {
				return err
			}
			if !found {
				return ErrNotFound{Entity: EntityIssue, ID: id}
			}
			updated = issue
			audit(tx, actor.ID, op, id, string(next))
			return nil
		})
		return err
	})
	if err != nil {
		return domain.Issue{}, err
	}
	s.notifier.Notify("updateIssue", updated)
	return updated, nil
}

// AcknowledgeIssue moves a new issue to received on behalf of its ward.
func (s *Service) AcknowledgeIssue(ctx context.Context, actor domain.Unit, id, reason string) (domain.Issue, error) {
	return s.transitionIssue(ctx, "acknowledge_issue", actor, id, IssueReceived, reason, nil)
}

// StartProcessing marks an issue as actively being worked by its ward.
func (s *Service) StartProcessing(ctx context.Context, actor domain.Unit, id, reason string) (domain.Issue, error) {
	return s.transitionIssue(ctx, "start_processing", actor, id, IssueProcessing, reason, nil)
}

// SubmitReport records the ward's resolution report and moves the issue to
// resolved, awaiting confirmation. Report content, the report identifier and
// at least one evidence item are mandatory.
func (s *Service) SubmitReport(ctx context.Context, actor domain.Unit, id string, in ReportInput) (domain.Issue, error) {
	if in.Content == "" {
		return domain.Issue{}, domain.ValidationError{Field: "report_content", Reason: "must not be empty"}
	}
	if strings.TrimSpace(in.BBN) == "" {
		return domain.Issue{}, domain.ValidationError{Field: "report_bbn", Reason: "must not be empty"}
	}
	if len(in.Evidence) == 0 {
		return domain.Issue{}, domain.ValidationError{Field: "report_evidence", Reason: "at least one item required"}
	}
	now := s.nowFn()
	return s.transitionIssue(ctx, "submit_report", actor, id, IssueResolved, "resolution report submitted", func(i *domain.Issue) error {
		i.ReportContent = in.Content
		i.ReportBBN = in.BBN
		i.ReportEvidence = normalizeEvidence(in.Evidence)
		i.ReportTime = &now
		i.ResolvedTime = &now
		return nil
	})
}

// ReviewIssue confirms or rejects a resolved issue. Rejection returns the
// issue to the ward for rework.
func (s *Service) ReviewIssue(ctx context.Context, actor domain.Unit, id string, approve bool, note string) (domain.Issue, error) {
	if err := requireRole(actor, RoleAdmin, RoleReviewer); err != nil {
		return domain.Issue{}, err
	}
	next := IssueRejected
	op := "reject_issue"
	if approve {
		next = IssueConfirmed
		op = "confirm_issue"
	}
	return s.transitionIssue(ctx, op, actor, id, next, note, nil)
}

// CloseIssue administratively terminates an issue from any non-terminal state.
func (s *Service) CloseIssue(ctx context.Context, actor domain.Unit, id, reason string) (domain.Issue, error) {
	if err := requireRole(actor, RoleAdmin); err != nil {
		return domain.Issue{}, err
	}
	return s.transitionIssue(ctx, "close_issue", actor, id, IssueClosed, reason, nil)
}

// UpdateIssueDetails edits descriptive fields without touching the workflow
// state or the immutable deadline.
func (s *Service) UpdateIssueDetails(ctx context.Context, actor domain.Unit, id string, in UpdateIssueInput) (domain.Issue, error) {
	var updated domain.Issue
	err := s.instrument(ctx, "update_issue_details", func(ctx context.Context) error {
		if err := requireRole(actor, RoleAdmin, RoleReviewer); err != nil {
			return err
		}
		_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			issue, found, err := tx.UpdateIssue(id, func(i *domain.Issue) error {
				if in.CustomName != nil {
					i.CustomName = *in.CustomName
				}
				if in.LocationDescription != nil {
					i.LocationDescription = *in.LocationDescription
				}
				if in.Note != nil {
					i.Note = *in.Note
				}
				return nil
			})
			if err != nil {
				return err
			}
			if !found {
				return ErrNotFound{Entity: EntityIssue, ID: id}
			}
			updated = issue
			audit(tx, actor.ID, "update_issue_details", id, "")
			return nil
		})
		return err
	})
	if err != nil {
		return domain.Issue{}, err
	}
	s.notifier.Notify("updateIssue", updated)
	return updated, nil
}

// IssueByID fetches a single issue.
func (s *Service) IssueByID(ctx context.Context, id string) (domain.Issue, error) {
	issue, ok := s.store.FindIssue(id)
	if !ok {
		return domain.Issue{}, ErrNotFound{Entity: EntityIssue, ID: id}
	}
	return issue, nil
}

// Issues lists issues visible to the actor, newest first. Ward units only see
// their own issues.
func (s *Service) Issues(ctx context.Context, actor domain.Unit) ([]domain.Issue, error) {
	all := s.store.ListIssues()
	if actor.Role != RoleWard {
		return all, nil
	}
	own := all[:0]
	for _, issue := range all {
		if issue.WardID == actor.ID {
			own = append(own, issue)
		}
	}
	return own, nil
}
