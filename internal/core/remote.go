package core

import (
	"context"
	"fmt"

	"wardwatch/pkg/domain"
)

// RemoteData is the record set returned by the central server on a pull.
type RemoteData struct {
	Units         []domain.Unit             `json:"units"`
	Issues        []domain.Issue            `json:"issues"`
	Registrations []domain.WardRegistration `json:"registrations"`
	BonusRequests []domain.BonusRequest     `json:"bonus_requests"`
}

// MergeRemoteData applies a pulled record set with per-record upsert
// semantics: a remote record replaces the local one with the same id, and
// local-only records survive untouched. The whole merge commits as a single
// transaction.
func (s *Service) MergeRemoteData(ctx context.Context, data RemoteData) error {
	return s.instrument(ctx, "merge_remote_data", func(ctx context.Context) error {
		_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			// Units: insert unknown ids, then overwrite known ones field by
			// field so remote wins without dropping local-only units.
			tx.SeedUnits(data.Units)
			for _, remote := range data.Units {
				remote := remote
				_, _, err := tx.UpdateUnit(remote.ID, func(u *domain.Unit) error {
					*u = remote
					return nil
				})
				if err != nil {
					return err
				}
			}
			for _, issue := range data.Issues {
				tx.MergeIssue(issue)
			}
			for _, reg := range data.Registrations {
				tx.MergeRegistration(reg)
			}
			for _, bonus := range data.BonusRequests {
				tx.MergeBonusRequest(bonus)
			}
			audit(tx, "system", "sync_pull", "", fmt.Sprintf("merged %d units, %d issues, %d registrations, %d bonus requests",
				len(data.Units), len(data.Issues), len(data.Registrations), len(data.BonusRequests)))
			return nil
		})
		return err
	})
}

// LocalData exports the record set pushed to the central server.
func (s *Service) LocalData(ctx context.Context) (RemoteData, error) {
	var out RemoteData
	err := s.store.View(ctx, func(snapshot domain.Snapshot) error {
		for _, u := range snapshot.Units {
			out.Units = append(out.Units, u)
		}
		for _, i := range snapshot.Issues {
			out.Issues = append(out.Issues, i)
		}
		for _, r := range snapshot.Registrations {
			out.Registrations = append(out.Registrations, r)
		}
		for _, b := range snapshot.BonusRequests {
			out.BonusRequests = append(out.BonusRequests, b)
		}
		return nil
	})
	return out, err
}
