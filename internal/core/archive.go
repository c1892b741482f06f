package core

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"wardwatch/internal/blob"
	"wardwatch/pkg/domain"
)

// StorageUsageReporter is implemented by drivers that can report how much
// durable storage the root occupies.
type StorageUsageReporter interface {
	StorageUsage() (int64, error)
}

// StorageUsage reports the byte size of the durable root, or zero when the
// active driver keeps no local file.
func (s *Service) StorageUsage() (int64, error) {
	if reporter, ok := s.store.(StorageUsageReporter); ok {
		return reporter.StorageUsage()
	}
	return 0, nil
}

func evidenceKey(issueID, mediaID string) string {
	return fmt.Sprintf("evidence/%s/%s", issueID, mediaID)
}

func contentTypeFor(payload string) string {
	// Inline payloads are data URLs; the MIME type sits before the first ';'.
	if rest, ok := strings.CutPrefix(payload, "data:"); ok {
		if idx := strings.IndexAny(rest, ";,"); idx > 0 {
			return rest[:idx]
		}
	}
	return "application/octet-stream"
}

// ArchiveOldData offloads inline evidence payloads of terminal issues older
// than the cutoff to the blob store, replacing each payload with its blob
// key. Workflow fields, versions and scores are untouched, so archived
// issues keep contributing to scoring. Returns the number of payloads moved.
func (s *Service) ArchiveOldData(ctx context.Context, olderThan time.Duration) (int, error) {
	archived := 0
	err := s.instrument(ctx, "archive_old_data", func(ctx context.Context) error {
		if s.blobs == nil {
			return fmt.Errorf("archive requires a configured blob store")
		}
		cutoff := s.nowFn().Add(-olderThan)

		type pending struct {
			issueID string
			mediaID string
			payload string
		}
		var candidates []pending
		if err := s.store.View(ctx, func(snapshot domain.Snapshot) error {
			for _, issue := range snapshot.Issues {
				if !issue.Status.Terminal() || issue.CreatedTime.After(cutoff) {
					continue
				}
				for _, item := range append(append([]domain.MediaItem{}, issue.Evidence...), issue.ReportEvidence...) {
					if item.Payload != "" && item.BlobKey == "" {
						candidates = append(candidates, pending{issueID: issue.ID, mediaID: item.ID, payload: item.Payload})
					}
				}
			}
			return nil
		}); err != nil {
			return err
		}
		if len(candidates) == 0 {
			return nil
		}

		// Upload outside the store transaction; an orphan object from a
		// failed run is harmless and retried uploads tolerate existing keys.
		keys := make(map[string]string, len(candidates))
		for _, c := range candidates {
			key := evidenceKey(c.issueID, c.mediaID)
			if _, err := s.blobs.Head(ctx, key); err == nil {
				keys[c.mediaID] = key
				continue
			}
			if _, err := s.blobs.Put(ctx, key, strings.NewReader(c.payload), blob.PutOptions{
				ContentType: contentTypeFor(c.payload),
				Metadata:    map[string]string{"issue_id": c.issueID},
			}); err != nil {
				return fmt.Errorf("upload %s: %w", key, err)
			}
			keys[c.mediaID] = key
		}

		byIssue := make(map[string][]pending)
		for _, c := range candidates {
			byIssue[c.issueID] = append(byIssue[c.issueID], c)
		}
		_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			for issueID := range byIssue {
				_, found, err := tx.UpdateIssue(issueID, func(i *domain.Issue) error {
					for lists := 0; lists < 2; lists++ {
						items := i.Evidence
						if lists == 1 {
							items = i.ReportEvidence
						}
						for idx := range items {
							if key, ok := keys[items[idx].ID]; ok && items[idx].Payload != "" {
								items[idx].Payload = ""
								items[idx].BlobKey = key
								archived++
							}
						}
					}
					return nil
				})
				if err != nil {
					return err
				}
				if !found {
					return ErrNotFound{Entity: EntityIssue, ID: issueID}
				}
			}
			audit(tx, "system", "archive_old_data", "", fmt.Sprintf("offloaded %d payloads", archived))
			return nil
		})
		return err
	})
	if err != nil {
		return 0, err
	}
	return archived, nil
}

// EvidencePayload loads an archived evidence payload back from the blob store.
func (s *Service) EvidencePayload(ctx context.Context, key string) (string, error) {
	if s.blobs == nil {
		return "", fmt.Errorf("no blob store configured")
	}
	_, rc, err := s.blobs.Get(ctx, key)
	if err != nil {
		return "", err
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
