package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"actrec-directory/internal/domain/models"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store. It enforces the same unique constraints
// as the SQL schema (contacts.email, contacts.extension, user_profiles.email)
// and backs the service, controller and load tests.
type MemoryStore struct {
	mu    sync.Mutex
	state *memState
}

// NewMemoryStore returns an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemState()}
}

// SetFault makes every subsequent call of op (e.g. "CreateAccount") fail with err.
// A nil err clears the fault.
func (s *MemoryStore) SetFault(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.state.faults, op)
		return
	}
	s.state.faults[op] = err
}

type memState struct {
	contacts map[string]models.Contact
	accounts map[string]models.Account
	faults   map[string]error
	now      func() time.Time
}

func newMemState() *memState {
	return &memState{
		contacts: make(map[string]models.Contact),
		accounts: make(map[string]models.Account),
		faults:   make(map[string]error),
		now:      time.Now,
	}
}

func (m *memState) clone() *memState {
	c := &memState{
		contacts: make(map[string]models.Contact, len(m.contacts)),
		accounts: make(map[string]models.Account, len(m.accounts)),
		faults:   m.faults,
		now:      m.now,
	}
	for k, v := range m.contacts {
		c.contacts[k] = v
	}
	for k, v := range m.accounts {
		c.accounts[k] = v
	}
	return c
}

func (m *memState) fault(op string) error {
	if err, ok := m.faults[op]; ok {
		return err
	}
	return nil
}

func (m *memState) getContact(id string) (*models.Contact, error) {
	if err := m.fault("GetContact"); err != nil {
		return nil, err
	}
	c, ok := m.contacts[id]
	if !ok {
		return nil, fmt.Errorf("contact %s: %w", id, ErrNotFound)
	}
	return &c, nil
}

func (m *memState) findContact(column, value string, match func(models.Contact) bool) (*models.Contact, error) {
	ids := make([]string, 0, len(m.contacts))
	for id := range m.contacts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if c := m.contacts[id]; match(c) {
			return &c, nil
		}
	}
	return nil, fmt.Errorf("contact %s=%s: %w", column, value, ErrNotFound)
}

func (m *memState) listContacts(filter ContactFilter) ([]models.Contact, int64, error) {
	if err := m.fault("ListContacts"); err != nil {
		return nil, 0, err
	}
	search := strings.ToLower(filter.Search)
	var matched []models.Contact
	for _, c := range m.contacts {
		if filter.Department != "" && c.Department != filter.Department {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(c.Name), search) &&
			!strings.Contains(strings.ToLower(c.Department), search) &&
			!strings.Contains(strings.ToLower(c.Designation), search) &&
			!strings.Contains(strings.ToLower(c.Email), search) &&
			!strings.Contains(c.Extension, search) {
			continue
		}
		matched = append(matched, c)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Name == matched[j].Name {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].Name < matched[j].Name
	})

	total := int64(len(matched))
	if filter.Offset >= len(matched) {
		return []models.Contact{}, total, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (m *memState) listDepartments() []string {
	seen := make(map[string]bool)
	var departments []string
	for _, c := range m.contacts {
		if c.Department != "" && !seen[c.Department] {
			seen[c.Department] = true
			departments = append(departments, c.Department)
		}
	}
	sort.Strings(departments)
	return departments
}

func (m *memState) checkContactUnique(candidate models.Contact) error {
	for id, c := range m.contacts {
		if id == candidate.ID {
			continue
		}
		if c.Email == candidate.Email {
			return fmt.Errorf("%w: contacts.email %q", ErrDuplicate, candidate.Email)
		}
		if c.Extension == candidate.Extension {
			return fmt.Errorf("%w: contacts.extension %q", ErrDuplicate, candidate.Extension)
		}
	}
	return nil
}

func (m *memState) createContact(contact *models.Contact) error {
	if err := m.fault("CreateContact"); err != nil {
		return err
	}
	if contact.ID == "" {
		contact.ID = uuid.NewString()
	}
	if _, exists := m.contacts[contact.ID]; exists {
		return fmt.Errorf("%w: contacts.id %q", ErrDuplicate, contact.ID)
	}
	if err := m.checkContactUnique(*contact); err != nil {
		return err
	}
	now := m.now()
	contact.CreatedAt, contact.UpdatedAt = now, now
	m.contacts[contact.ID] = *contact
	return nil
}

func (m *memState) updateContact(id string, updates map[string]interface{}) (*models.Contact, error) {
	if err := m.fault("UpdateContact"); err != nil {
		return nil, err
	}
	c, ok := m.contacts[id]
	if !ok {
		return nil, fmt.Errorf("contact %s: %w", id, ErrNotFound)
	}
	for column, value := range updates {
		s := fmt.Sprint(value)
		switch column {
		case "name":
			c.Name = s
		case "department":
			c.Department = s
		case "designation":
			c.Designation = s
		case "phone_number":
			c.PhoneNumber = s
		case "extension":
			c.Extension = s
		case "email":
			c.Email = s
		case "location":
			c.Location = s
		case "institution":
			c.Institution = s
		default:
			return nil, fmt.Errorf("unknown contacts column %q", column)
		}
	}
	if err := m.checkContactUnique(c); err != nil {
		return nil, err
	}
	c.UpdatedAt = m.now()
	m.contacts[id] = c
	return &c, nil
}

func (m *memState) deleteContact(id string) error {
	if err := m.fault("DeleteContact"); err != nil {
		return err
	}
	if _, ok := m.contacts[id]; !ok {
		return fmt.Errorf("contact %s: %w", id, ErrNotFound)
	}
	delete(m.contacts, id)
	return nil
}

func (m *memState) getAccount(id string) (*models.Account, error) {
	if err := m.fault("GetAccount"); err != nil {
		return nil, err
	}
	a, ok := m.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", id, ErrNotFound)
	}
	return &a, nil
}

func (m *memState) findAccountByEmail(email string) (*models.Account, error) {
	for _, a := range m.accounts {
		if a.Email == email {
			return &a, nil
		}
	}
	return nil, fmt.Errorf("account email=%s: %w", email, ErrNotFound)
}

func (m *memState) checkAccountUnique(candidate models.Account) error {
	for id, a := range m.accounts {
		if id != candidate.ID && a.Email == candidate.Email {
			return fmt.Errorf("%w: user_profiles.email %q", ErrDuplicate, candidate.Email)
		}
	}
	return nil
}

func (m *memState) createAccount(account *models.Account) error {
	if err := m.fault("CreateAccount"); err != nil {
		return err
	}
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	if _, exists := m.accounts[account.ID]; exists {
		return fmt.Errorf("%w: user_profiles.id %q", ErrDuplicate, account.ID)
	}
	if err := m.checkAccountUnique(*account); err != nil {
		return err
	}
	if account.Role == "" {
		account.Role = models.RoleRegular
	}
	now := m.now()
	account.CreatedAt, account.UpdatedAt = now, now
	m.accounts[account.ID] = *account
	return nil
}

func (m *memState) updateAccount(id string, updates map[string]interface{}) (*models.Account, error) {
	if err := m.fault("UpdateAccount"); err != nil {
		return nil, err
	}
	a, ok := m.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", id, ErrNotFound)
	}
	for column, value := range updates {
		s := fmt.Sprint(value)
		switch column {
		case "email":
			a.Email = s
		case "role":
			a.Role = s
		case "password_hash":
			a.PasswordHash = s
		default:
			return nil, fmt.Errorf("unknown user_profiles column %q", column)
		}
	}
	if err := m.checkAccountUnique(a); err != nil {
		return nil, err
	}
	a.UpdatedAt = m.now()
	m.accounts[id] = a
	return &a, nil
}

func (m *memState) deleteAccount(id string) error {
	if err := m.fault("DeleteAccount"); err != nil {
		return err
	}
	if _, ok := m.accounts[id]; !ok {
		return fmt.Errorf("account %s: %w", id, ErrNotFound)
	}
	delete(m.accounts, id)
	return nil
}

func (m *memState) countAccountsByRole(role string) (int64, error) {
	if err := m.fault("CountAccountsByRole"); err != nil {
		return 0, err
	}
	var n int64
	for _, a := range m.accounts {
		if a.Role == role {
			n++
		}
	}
	return n, nil
}

// GetContact implements Store
func (s *MemoryStore) GetContact(_ context.Context, id string) (*models.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.getContact(id)
}

// FindContactByEmail implements Store
func (s *MemoryStore) FindContactByEmail(_ context.Context, email string) (*models.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.findContact("email", email, func(c models.Contact) bool { return c.Email == email })
}

// FindContactByExtension implements Store
func (s *MemoryStore) FindContactByExtension(_ context.Context, extension string) (*models.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.findContact("extension", extension, func(c models.Contact) bool { return c.Extension == extension })
}

// ListContacts implements Store
func (s *MemoryStore) ListContacts(_ context.Context, filter ContactFilter) ([]models.Contact, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.listContacts(filter)
}

// ListDepartments implements Store
func (s *MemoryStore) ListDepartments(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.listDepartments(), nil
}

// CountContacts implements Store
func (s *MemoryStore) CountContacts(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.state.contacts)), nil
}

// CreateContact implements Store
func (s *MemoryStore) CreateContact(_ context.Context, contact *models.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.createContact(contact)
}

// UpdateContact implements Store
func (s *MemoryStore) UpdateContact(_ context.Context, id string, updates map[string]interface{}) (*models.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.updateContact(id, updates)
}

// DeleteContact implements Store
func (s *MemoryStore) DeleteContact(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.deleteContact(id)
}

// GetAccount implements Store
func (s *MemoryStore) GetAccount(_ context.Context, id string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.getAccount(id)
}

// FindAccountByEmail implements Store
func (s *MemoryStore) FindAccountByEmail(_ context.Context, email string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.findAccountByEmail(email)
}

// CreateAccount implements Store
func (s *MemoryStore) CreateAccount(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.createAccount(account)
}

// UpdateAccount implements Store
func (s *MemoryStore) UpdateAccount(_ context.Context, id string, updates map[string]interface{}) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.updateAccount(id, updates)
}

// DeleteAccount implements Store
func (s *MemoryStore) DeleteAccount(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.deleteAccount(id)
}

// CountAccountsByRole implements Store
func (s *MemoryStore) CountAccountsByRole(_ context.Context, role string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.countAccountsByRole(role)
}

// Transaction holds the store lock for the duration of fn and restores the
// previous state when fn fails.
func (s *MemoryStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(&memoryTx{state: s.state}); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

// memoryTx is the lock-free view handed to Transaction callbacks
type memoryTx struct {
	state *memState
}

func (t *memoryTx) GetContact(_ context.Context, id string) (*models.Contact, error) {
	return t.state.getContact(id)
}

func (t *memoryTx) FindContactByEmail(_ context.Context, email string) (*models.Contact, error) {
	return t.state.findContact("email", email, func(c models.Contact) bool { return c.Email == email })
}

func (t *memoryTx) FindContactByExtension(_ context.Context, extension string) (*models.Contact, error) {
	return t.state.findContact("extension", extension, func(c models.Contact) bool { return c.Extension == extension })
}

func (t *memoryTx) ListContacts(_ context.Context, filter ContactFilter) ([]models.Contact, int64, error) {
	return t.state.listContacts(filter)
}

func (t *memoryTx) ListDepartments(_ context.Context) ([]string, error) {
	return t.state.listDepartments(), nil
}

func (t *memoryTx) CountContacts(_ context.Context) (int64, error) {
	return int64(len(t.state.contacts)), nil
}

func (t *memoryTx) CreateContact(_ context.Context, contact *models.Contact) error {
	return t.state.createContact(contact)
}

func (t *memoryTx) UpdateContact(_ context.Context, id string, updates map[string]interface{}) (*models.Contact, error) {
	return t.state.updateContact(id, updates)
}

func (t *memoryTx) DeleteContact(_ context.Context, id string) error {
	return t.state.deleteContact(id)
}

func (t *memoryTx) GetAccount(_ context.Context, id string) (*models.Account, error) {
	return t.state.getAccount(id)
}

func (t *memoryTx) FindAccountByEmail(_ context.Context, email string) (*models.Account, error) {
	return t.state.findAccountByEmail(email)
}

func (t *memoryTx) CreateAccount(_ context.Context, account *models.Account) error {
	return t.state.createAccount(account)
}

func (t *memoryTx) UpdateAccount(_ context.Context, id string, updates map[string]interface{}) (*models.Account, error) {
	return t.state.updateAccount(id, updates)
}

func (t *memoryTx) DeleteAccount(_ context.Context, id string) error {
	return t.state.deleteAccount(id)
}

func (t *memoryTx) CountAccountsByRole(_ context.Context, role string) (int64, error) {
	return t.state.countAccountsByRole(role)
}

func (t *memoryTx) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return fn(t)
}
