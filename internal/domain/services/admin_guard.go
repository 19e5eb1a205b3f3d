package services

import (
	"context"

	"actrec-directory/internal/domain/models"
	"actrec-directory/internal/infrastructure/store"
)

// InterfaceAdminGuard defines the administrator floor check
type InterfaceAdminGuard interface {
	WouldViolateAdminFloor(ctx context.Context, removedAdminIDs []string) (bool, error)
	ReserveRemovals(ctx context.Context, candidateIDs []string) (map[string]bool, error)
}

// AdminGuard refuses removals that would leave no administrator account
type AdminGuard struct {
	Store store.Store
}

// NewAdminGuard creates an admin guard over s
func NewAdminGuard(s store.Store) InterfaceAdminGuard {
	return &AdminGuard{Store: s}
}

// 1 WouldViolateAdminFloor reports whether removing the given admin accounts
// would leave zero administrators. Ids are assumed to be current admins.
func (g *AdminGuard) WouldViolateAdminFloor(ctx context.Context, removedAdminIDs []string) (bool, error) {
	removed := int64(len(uniqueStrings(removedAdminIDs)))
	if removed == 0 {
		return false, nil
	}
	total, err := g.Store.CountAccountsByRole(ctx, models.RoleAdmin)
	if err != nil {
		return false, err
	}
	return total-removed < 1, nil
}

// 2 ReserveRemovals inspects a batch of ids that are about to lose admin
// status and returns the ids that must be refused. Admins are granted in
// input order until only one would remain; the rest are refused. Ids that
// are not admin accounts are never refused.
func (g *AdminGuard) ReserveRemovals(ctx context.Context, candidateIDs []string) (map[string]bool, error) {
	var admins []string
	for _, id := range uniqueStrings(candidateIDs) {
		account, err := g.Store.GetAccount(ctx, id)
		if err != nil {
			if store.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		if account.IsAdmin() {
			admins = append(admins, id)
		}
	}

	refused := make(map[string]bool)
	if len(admins) == 0 {
		return refused, nil
	}

	total, err := g.Store.CountAccountsByRole(ctx, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	allowed := int(total) - 1
	if allowed < 0 {
		allowed = 0
	}
	for i, id := range admins {
		if i >= allowed {
			refused[id] = true
		}
	}
	return refused, nil
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
