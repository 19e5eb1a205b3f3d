package services

import (
	"context"
	"fmt"
	"strings"

	"actrec-directory/internal/domain/models"
	"actrec-directory/internal/infrastructure/config"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// InterfaceBulkService defines the batch mutations
type InterfaceBulkService interface {
	BulkInsert(ctx context.Context, candidates []models.ContactCandidate) (*BulkInsertResult, error)
	BulkDelete(ctx context.Context, ids []string) (*BulkDeleteResult, error)
	BulkUpdate(ctx context.Context, principal *Principal, ids []string, updates map[string]interface{}) (*BulkUpdateResult, error)
}

// BulkService fans batch items out over the contact service. Items are
// independent: one item's failure never affects another, and a batch only
// fails as a whole when its payload is rejected up front.
type BulkService struct {
	Contacts       *ContactService
	MaxConcurrency int
	MaxItems       int
	Logger         *zap.Logger
}

// NewBulkService creates a bulk service over contacts
func NewBulkService(contacts *ContactService, cfg *config.Config) *BulkService {
	concurrency := cfg.BulkMaxConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &BulkService{
		Contacts:       contacts,
		MaxConcurrency: concurrency,
		MaxItems:       cfg.BulkMaxItems,
		Logger:         contacts.Logger,
	}
}

// 1 BulkInsert inserts every candidate. Later candidates repeating an email
// or extension of an earlier candidate in the same batch are skipped.
func (s *BulkService) BulkInsert(ctx context.Context, candidates []models.ContactCandidate) (*BulkInsertResult, error) {
	if err := s.checkSize(len(candidates)); err != nil {
		return nil, err
	}

	results := make([]ItemResult, len(candidates))
	for i, reason := range inBatchDuplicates(candidates) {
		results[i] = Skipped{Index: i, Candidate: candidates[i].Normalize(), Reason: reason, Err: ErrConflict}
	}

	s.fanOut(ctx, len(candidates), func(ctx context.Context, i int) {
		if results[i] != nil {
			return
		}
		results[i] = s.Contacts.insertContact(ctx, i, candidates[i])
	}, func(i int, err error) {
		results[i] = Skipped{Index: i, Candidate: candidates[i], Reason: err.Error(), Err: err}
	})

	out := newBulkInsertResult(results)
	ids := make([]string, 0, len(out.Inserted))
	for _, c := range out.Inserted {
		ids = append(ids, c.ID)
	}
	s.Contacts.changed(ctx, EventContactsCreated, ids)

	s.Logger.Info("bulk insert finished",
		zap.Int("total", out.Summary.Total),
		zap.Int("inserted", out.Summary.Succeeded),
		zap.Int("skipped", out.Summary.Failed))
	return out, nil
}

// 2 BulkDelete deletes every id. When the batch would remove every
// administrator, the admins beyond the floor are refused.
func (s *BulkService) BulkDelete(ctx context.Context, ids []string) (*BulkDeleteResult, error) {
	if err := s.checkSize(len(ids)); err != nil {
		return nil, err
	}

	results := s.precheckIDs(ids)
	s.reserveAdmins(ctx, ids, results)

	s.fanOut(ctx, len(ids), func(ctx context.Context, i int) {
		if results[i] != nil {
			return
		}
		deleted, err := s.Contacts.deleteContact(ctx, ids[i])
		if err != nil {
			results[i] = itemError(ids[i], err)
			return
		}
		results[i] = Deleted{Contact: *deleted}
	}, func(i int, err error) {
		results[i] = itemError(ids[i], err)
	})

	out := newBulkDeleteResult(results)
	deletedIDs := make([]string, 0, len(out.Deleted))
	for _, d := range out.Deleted {
		deletedIDs = append(deletedIDs, d.ID)
	}
	s.Contacts.changed(ctx, EventContactsDeleted, deletedIDs)

	s.Logger.Info("bulk delete finished",
		zap.Int("total", out.Summary.Total),
		zap.Int("deleted", out.Summary.Succeeded),
		zap.Int("errors", out.Summary.Failed))
	return out, nil
}

// 3 BulkUpdate applies the same updates to every id
func (s *BulkService) BulkUpdate(ctx context.Context, principal *Principal, ids []string, updates map[string]interface{}) (*BulkUpdateResult, error) {
	if err := s.checkSize(len(ids)); err != nil {
		return nil, err
	}
	_, role, err := sanitizeUpdates(updates)
	if err != nil {
		return nil, err
	}
	if !principal.IsAdmin() {
		return nil, ErrForbidden
	}

	results := s.precheckIDs(ids)
	if role == models.RoleRegular {
		s.reserveAdmins(ctx, ids, results)
	}
	return s.runUpdates(ctx, principal, ids, updates, results), nil
}

func (s *BulkService) runUpdates(ctx context.Context, principal *Principal, ids []string, updates map[string]interface{}, results []ItemResult) *BulkUpdateResult {
	s.fanOut(ctx, len(ids), func(ctx context.Context, i int) {
		if results[i] != nil {
			return
		}
		item := make(map[string]interface{}, len(updates))
		for k, v := range updates {
			item[k] = v
		}
		contact, err := s.Contacts.updateContact(ctx, principal, ids[i], item)
		if err != nil {
			results[i] = itemError(ids[i], err)
			return
		}
		results[i] = Updated{Contact: contact}
	}, func(i int, err error) {
		results[i] = itemError(ids[i], err)
	})

	out := newBulkUpdateResult(results)
	updatedIDs := make([]string, 0, len(out.Updated))
	for _, c := range out.Updated {
		updatedIDs = append(updatedIDs, c.ID)
	}
	s.Contacts.changed(ctx, EventContactsUpdated, updatedIDs)

	s.Logger.Info("bulk update finished",
		zap.Int("total", out.Summary.Total),
		zap.Int("updated", out.Summary.Succeeded),
		zap.Int("errors", out.Summary.Failed))
	return out
}

// fanOut runs work for every index with bounded concurrency and waits for all
// of them. The batch is detached from caller cancellation. A panicking item is
// reported through onPanic and does not affect its siblings.
func (s *BulkService) fanOut(ctx context.Context, n int, work func(ctx context.Context, i int), onPanic func(i int, err error)) {
	ctx = context.WithoutCancel(ctx)

	var g errgroup.Group
	g.SetLimit(s.MaxConcurrency)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					s.Logger.Error("bulk item panicked", zap.Int("index", i), zap.Any("panic", r))
					onPanic(i, fmt.Errorf("internal error: %v", r))
				}
			}()
			work(ctx, i)
			return nil
		})
	}
	_ = g.Wait()
}

func (s *BulkService) checkSize(n int) error {
	if n == 0 {
		return ErrEmptyBatch
	}
	if s.MaxItems > 0 && n > s.MaxItems {
		return fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, n, s.MaxItems)
	}
	return nil
}

// precheckIDs reports blank ids and repeats of an earlier id
func (s *BulkService) precheckIDs(ids []string) []ItemResult {
	results := make([]ItemResult, len(ids))
	seen := make(map[string]bool, len(ids))
	for i, id := range ids {
		switch {
		case strings.TrimSpace(id) == "":
			results[i] = itemError(id, fmt.Errorf("%w: id is required", ErrInvalidField))
		case seen[id]:
			results[i] = itemError(id, fmt.Errorf("%w: duplicate id %s in request", ErrInvalidField, id))
		default:
			seen[id] = true
		}
	}
	return results
}

// reserveAdmins marks the ids the admin guard refuses
func (s *BulkService) reserveAdmins(ctx context.Context, ids []string, results []ItemResult) {
	pending := make([]string, 0, len(ids))
	for i, id := range ids {
		if results[i] == nil {
			pending = append(pending, id)
		}
	}

	refused, err := s.Contacts.Guard.ReserveRemovals(ctx, pending)
	if err != nil {
		s.Logger.Warn("admin reservation failed", zap.Error(err))
		for i, id := range ids {
			if results[i] == nil {
				results[i] = itemError(id, err)
			}
		}
		return
	}
	for i, id := range ids {
		if results[i] == nil && refused[id] {
			results[i] = itemError(id, ErrLastAdministrator)
		}
	}
}

// inBatchDuplicates maps the index of every candidate that repeats an email or
// extension claimed by an earlier candidate to a skip reason
func inBatchDuplicates(candidates []models.ContactCandidate) map[int]string {
	dups := make(map[int]string)
	emails := make(map[string]int)
	extensions := make(map[string]int)
	for i, raw := range candidates {
		c := raw.Normalize()
		if first, ok := emails[c.Email]; ok && c.Email != "" {
			dups[i] = fmt.Sprintf("email %s duplicates item %d of this batch", c.Email, first)
			continue
		}
		if first, ok := extensions[c.Extension]; ok && c.Extension != "" {
			dups[i] = fmt.Sprintf("extension %s duplicates item %d of this batch", c.Extension, first)
			continue
		}
		if c.Email != "" {
			emails[c.Email] = i
		}
		if c.Extension != "" {
			extensions[c.Extension] = i
		}
	}
	return dups
}
