package services

import (
	"context"
	"fmt"
	"strings"

	"actrec-directory/internal/domain/models"
	"actrec-directory/internal/infrastructure/store"
)

// Conflict names the existing record holding a value a candidate wants
type Conflict struct {
	Field     string `json:"field"`
	Value     string `json:"value"`
	OwnerName string `json:"owner_name"`
}

// Conflicts is the outcome of a uniqueness check; nil fields mean no conflict
type Conflicts struct {
	Email     *Conflict `json:"email,omitempty"`
	Extension *Conflict `json:"extension,omitempty"`
}

// Any reports whether at least one conflict was found
func (c Conflicts) Any() bool {
	return c.Email != nil || c.Extension != nil
}

// Reason renders the conflicts as a human readable message
func (c Conflicts) Reason() string {
	var parts []string
	if c.Email != nil {
		parts = append(parts, fmt.Sprintf("email %s is already used by %s", c.Email.Value, c.Email.OwnerName))
	}
	if c.Extension != nil {
		parts = append(parts, fmt.Sprintf("extension %s is already used by %s", c.Extension.Value, c.Extension.OwnerName))
	}
	return strings.Join(parts, "; ")
}

// InterfaceConflictChecker defines the uniqueness pre-check
type InterfaceConflictChecker interface {
	CheckConflicts(ctx context.Context, candidate models.ContactCandidate, excludeID string) (Conflicts, error)
}

// ConflictChecker looks up existing holders of a candidate's email and extension
type ConflictChecker struct {
	Store store.Store
}

// NewConflictChecker creates a conflict checker over s
func NewConflictChecker(s store.Store) InterfaceConflictChecker {
	return &ConflictChecker{Store: s}
}

// CheckConflicts runs the three point lookups. Records whose id equals
// excludeID are ignored so an update does not conflict with itself.
// Empty candidate values are never checked.
func (c *ConflictChecker) CheckConflicts(ctx context.Context, candidate models.ContactCandidate, excludeID string) (Conflicts, error) {
	var result Conflicts

	if candidate.Email != "" {
		contact, err := c.Store.FindContactByEmail(ctx, candidate.Email)
		switch {
		case err == nil && contact.ID != excludeID:
			result.Email = &Conflict{Field: "email", Value: candidate.Email, OwnerName: contact.Name}
		case err != nil && !store.IsNotFound(err):
			return result, err
		}

		if result.Email == nil {
			account, err := c.Store.FindAccountByEmail(ctx, candidate.Email)
			switch {
			case err == nil && account.ID != excludeID:
				result.Email = &Conflict{Field: "email", Value: candidate.Email, OwnerName: c.ownerName(ctx, account)}
			case err != nil && !store.IsNotFound(err):
				return result, err
			}
		}
	}

	if candidate.Extension != "" {
		contact, err := c.Store.FindContactByExtension(ctx, candidate.Extension)
		switch {
		case err == nil && contact.ID != excludeID:
			result.Extension = &Conflict{Field: "extension", Value: candidate.Extension, OwnerName: contact.Name}
		case err != nil && !store.IsNotFound(err):
			return result, err
		}
	}

	return result, nil
}

// ownerName prefers the linked contact's name and falls back to the account email
func (c *ConflictChecker) ownerName(ctx context.Context, account *models.Account) string {
	if contact, err := c.Store.GetContact(ctx, account.ID); err == nil && contact.Name != "" {
		return contact.Name
	}
	return account.Email
}
