package store

import (
	"context"
	"errors"

	"actrec-directory/internal/domain/models"
)

var (
	// ErrNotFound is returned when a point lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write violates a unique constraint.
	ErrDuplicate = errors.New("duplicate key value violates unique constraint")
)

// ContactFilter narrows ListContacts
type ContactFilter struct {
	Search     string
	Department string
	Offset     int
	Limit      int // 0 means no limit
}

// Store is the relational datastore behind the directory: the contacts and
// user_profiles tables. Every call is a suspension point; callers must not
// assume any isolation between two calls outside Transaction.
type Store interface {
	GetContact(ctx context.Context, id string) (*models.Contact, error)
	FindContactByEmail(ctx context.Context, email string) (*models.Contact, error)
	FindContactByExtension(ctx context.Context, extension string) (*models.Contact, error)
	ListContacts(ctx context.Context, filter ContactFilter) ([]models.Contact, int64, error)
	ListDepartments(ctx context.Context) ([]string, error)
	CountContacts(ctx context.Context) (int64, error)
	CreateContact(ctx context.Context, contact *models.Contact) error
	UpdateContact(ctx context.Context, id string, updates map[string]interface{}) (*models.Contact, error)
	DeleteContact(ctx context.Context, id string) error

	GetAccount(ctx context.Context, id string) (*models.Account, error)
	FindAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	CreateAccount(ctx context.Context, account *models.Account) error
	UpdateAccount(ctx context.Context, id string, updates map[string]interface{}) (*models.Account, error)
	DeleteAccount(ctx context.Context, id string) error
	CountAccountsByRole(ctx context.Context, role string) (int64, error)

	// Transaction runs fn against a transactional view of the store. A non-nil
	// error from fn rolls back every write made through tx.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

// IsNotFound reports whether err is a not-found store error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicate reports whether err is a unique-constraint store error
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicate)
}
