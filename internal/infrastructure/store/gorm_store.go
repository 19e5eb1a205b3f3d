package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"actrec-directory/internal/domain/models"

	"gorm.io/gorm"
)

// GormStore implements Store on top of a GORM connection
type GormStore struct {
	DB *gorm.DB
}

// NewGormStore wraps db. The connection should be opened with TranslateError
// so unique violations surface as gorm.ErrDuplicatedKey.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

// translateError maps driver/gorm errors onto the store sentinels
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %w", ErrDuplicate, err)
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "duplicate key") || strings.Contains(msg, "duplicate entry") || strings.Contains(msg, "unique constraint") {
		return fmt.Errorf("%w: %w", ErrDuplicate, err)
	}
	return err
}

func (s *GormStore) db(ctx context.Context) *gorm.DB {
	return s.DB.WithContext(ctx)
}

// 1 GetContact fetches a contact by id
func (s *GormStore) GetContact(ctx context.Context, id string) (*models.Contact, error) {
	var contact models.Contact
	if err := s.db(ctx).Where("id = ?", id).First(&contact).Error; err != nil {
		return nil, translateError(err)
	}
	return &contact, nil
}

// 2 FindContactByEmail returns the first contact with the email
func (s *GormStore) FindContactByEmail(ctx context.Context, email string) (*models.Contact, error) {
	var contact models.Contact
	if err := s.db(ctx).Where("email = ?", email).Limit(1).Take(&contact).Error; err != nil {
		return nil, translateError(err)
	}
	return &contact, nil
}

// 3 FindContactByExtension returns the first contact with the extension
func (s *GormStore) FindContactByExtension(ctx context.Context, extension string) (*models.Contact, error) {
	var contact models.Contact
	if err := s.db(ctx).Where("extension = ?", extension).Limit(1).Take(&contact).Error; err != nil {
		return nil, translateError(err)
	}
	return &contact, nil
}

// 4 ListContacts returns a page of contacts ordered by name, plus the total match count
func (s *GormStore) ListContacts(ctx context.Context, filter ContactFilter) ([]models.Contact, int64, error) {
	var contacts []models.Contact
	var total int64

	query := s.db(ctx).Model(&models.Contact{})
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where(
			"LOWER(name) LIKE ? OR LOWER(department) LIKE ? OR LOWER(designation) LIKE ? OR LOWER(email) LIKE ? OR extension LIKE ?",
			like, like, like, like, like,
		)
	}
	if filter.Department != "" {
		query = query.Where("department = ?", filter.Department)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	query = query.Order("name ASC").Offset(filter.Offset)
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if err := query.Find(&contacts).Error; err != nil {
		return nil, 0, translateError(err)
	}
	return contacts, total, nil
}

// 5 ListDepartments returns the distinct non-empty departments
func (s *GormStore) ListDepartments(ctx context.Context) ([]string, error) {
	var departments []string
	err := s.db(ctx).Model(&models.Contact{}).
		Where("department <> ''").
		Distinct("department").
		Order("department ASC").
		Pluck("department", &departments).Error
	if err != nil {
		return nil, translateError(err)
	}
	return departments, nil
}

// 6 CountContacts counts all contacts
func (s *GormStore) CountContacts(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db(ctx).Model(&models.Contact{}).Count(&count).Error; err != nil {
		return 0, translateError(err)
	}
	return count, nil
}

// 7 CreateContact inserts the contact and fills in its id and timestamps
func (s *GormStore) CreateContact(ctx context.Context, contact *models.Contact) error {
	return translateError(s.db(ctx).Create(contact).Error)
}

// 8 UpdateContact applies updates to the contact and returns the stored row
func (s *GormStore) UpdateContact(ctx context.Context, id string, updates map[string]interface{}) (*models.Contact, error) {
	contact, err := s.GetContact(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db(ctx).Model(contact).Updates(updates).Error; err != nil {
		return nil, translateError(err)
	}
	return s.GetContact(ctx, id)
}

// 9 DeleteContact removes the contact row
func (s *GormStore) DeleteContact(ctx context.Context, id string) error {
	result := s.db(ctx).Where("id = ?", id).Delete(&models.Contact{})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("contact %s: %w", id, ErrNotFound)
	}
	return nil
}

// 10 GetAccount fetches an account by id
func (s *GormStore) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account
	if err := s.db(ctx).Where("id = ?", id).First(&account).Error; err != nil {
		return nil, translateError(err)
	}
	return &account, nil
}

// 11 FindAccountByEmail returns the first account with the email
func (s *GormStore) FindAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	if err := s.db(ctx).Where("email = ?", email).Limit(1).Take(&account).Error; err != nil {
		return nil, translateError(err)
	}
	return &account, nil
}

// 12 CreateAccount inserts the account
func (s *GormStore) CreateAccount(ctx context.Context, account *models.Account) error {
	return translateError(s.db(ctx).Create(account).Error)
}

// 13 UpdateAccount applies updates to the account and returns the stored row
func (s *GormStore) UpdateAccount(ctx context.Context, id string, updates map[string]interface{}) (*models.Account, error) {
	account, err := s.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db(ctx).Model(account).Updates(updates).Error; err != nil {
		return nil, translateError(err)
	}
	return s.GetAccount(ctx, id)
}

// 14 DeleteAccount removes the account row
func (s *GormStore) DeleteAccount(ctx context.Context, id string) error {
	result := s.db(ctx).Where("id = ?", id).Delete(&models.Account{})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("account %s: %w", id, ErrNotFound)
	}
	return nil
}

// 15 CountAccountsByRole counts accounts holding role
func (s *GormStore) CountAccountsByRole(ctx context.Context, role string) (int64, error) {
	var count int64
	if err := s.db(ctx).Model(&models.Account{}).Where("role = ?", role).Count(&count).Error; err != nil {
		return 0, translateError(err)
	}
	return count, nil
}

// 16 Transaction runs fn inside a database transaction
func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{DB: tx})
	})
}
