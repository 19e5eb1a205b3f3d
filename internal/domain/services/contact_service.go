package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"actrec-directory/internal/domain/models"
	"actrec-directory/internal/infrastructure/config"
	"actrec-directory/internal/infrastructure/store"

	"go.uber.org/zap"
)

// eventPublishTimeout bounds how long a mutation waits for the broker
const eventPublishTimeout = 2 * time.Second

// InterfaceContactService defines single-contact operations
type InterfaceContactService interface {
	InsertContact(ctx context.Context, candidate models.ContactCandidate) ItemResult
	DeleteContact(ctx context.Context, id string) (*DeletedContact, error)
	UpdateContact(ctx context.Context, principal *Principal, id string, updates map[string]interface{}) (*models.Contact, error)
	ChangeRole(ctx context.Context, id, role string) (*models.Account, error)
	GetContact(ctx context.Context, id string) (*models.Contact, error)
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	ListContacts(ctx context.Context, query ContactQuery) (*ContactPage, error)
	ListDepartments(ctx context.Context) ([]string, error)
	AllContacts(ctx context.Context) ([]models.Contact, error)
}

// ContactQuery filters the public directory listing
type ContactQuery struct {
	Search     string
	Department string
	models.PaginationQuery
}

// ContactPage is one page of the directory
type ContactPage struct {
	Contacts   []models.Contact        `json:"data"`
	Pagination models.PaginationResult `json:"pagination"`
}

// ContactService owns the contact and account rows and keeps them consistent
type ContactService struct {
	Store       store.Store
	Config      *config.Config
	Checker     InterfaceConflictChecker
	Credentials InterfaceCredentialService
	Guard       InterfaceAdminGuard
	Cache       InterfaceDirectoryCache
	Events      InterfaceEventPublisher
	Logger      *zap.Logger
}

// NewContactService creates a contact service. A nil cache or publisher
// disables that concern.
func NewContactService(
	s store.Store,
	cfg *config.Config,
	credentials InterfaceCredentialService,
	cache InterfaceDirectoryCache,
	events InterfaceEventPublisher,
	logger *zap.Logger,
) *ContactService {
	if cache == nil {
		cache = NoopDirectoryCache{}
	}
	if events == nil {
		events = NoopEventPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactService{
		Store:       s,
		Config:      cfg,
		Checker:     NewConflictChecker(s),
		Credentials: credentials,
		Guard:       NewAdminGuard(s),
		Cache:       cache,
		Events:      events,
		Logger:      logger,
	}
}

// 1 InsertContact creates a contact and its regular account. Duplicates and
// store failures come back as Skipped, never as an error.
func (s *ContactService) InsertContact(ctx context.Context, candidate models.ContactCandidate) ItemResult {
	result := s.insertContact(ctx, 0, candidate)
	if inserted, ok := result.(Inserted); ok {
		s.changed(ctx, EventContactsCreated, []string{inserted.Contact.ID})
	}
	return result
}

func (s *ContactService) insertContact(ctx context.Context, index int, candidate models.ContactCandidate) ItemResult {
	candidate = candidate.Normalize()
	skip := func(err error) ItemResult {
		return Skipped{Index: index, Candidate: candidate, Reason: err.Error(), Err: err}
	}

	if missing := candidate.MissingFields(); len(missing) > 0 {
		return skip(fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(missing, ", ")))
	}

	conflicts, err := s.Checker.CheckConflicts(ctx, candidate, "")
	if err != nil {
		return skip(err)
	}
	if conflicts.Any() {
		return Skipped{Index: index, Candidate: candidate, Reason: conflicts.Reason(), Err: ErrConflict}
	}

	if candidate.Institution == "" {
		candidate.Institution = s.Config.DefaultInstitution
	}
	contact := candidate.ToContact()

	if s.Config.CascadeMode == config.CascadeTransactional {
		return s.insertTransactional(ctx, index, candidate, contact)
	}

	if err := s.Store.CreateContact(ctx, contact); err != nil {
		return skip(storeConflict(err))
	}

	secret, err := s.Credentials.Generate()
	if err != nil {
		s.Logger.Warn("credential generation failed; account not created",
			zap.String("contact_id", contact.ID), zap.Error(err))
		return Inserted{Contact: contact, AccountPending: true}
	}
	credential := newCredential(contact, secret)

	account := &models.Account{
		BaseModel:    models.BaseModel{ID: contact.ID},
		Email:        contact.Email,
		Role:         models.RoleRegular,
		PasswordHash: secret.Hash,
	}
	if err := s.Store.CreateAccount(ctx, account); err != nil {
		s.Logger.Warn("account creation failed after contact insert",
			zap.String("contact_id", contact.ID),
			zap.String("email", contact.Email),
			zap.Error(err))
		return Inserted{Contact: contact, Credential: credential, AccountPending: true}
	}

	return Inserted{Contact: contact, Credential: credential}
}

// insertTransactional writes contact and account in one transaction. The hash
// is computed before the transaction opens.
func (s *ContactService) insertTransactional(ctx context.Context, index int, candidate models.ContactCandidate, contact *models.Contact) ItemResult {
	secret, err := s.Credentials.Generate()
	if err != nil {
		return Skipped{Index: index, Candidate: candidate, Reason: err.Error(), Err: err}
	}

	err = s.Store.Transaction(ctx, func(tx store.Store) error {
		if err := tx.CreateContact(ctx, contact); err != nil {
			return err
		}
		return tx.CreateAccount(ctx, &models.Account{
			BaseModel:    models.BaseModel{ID: contact.ID},
			Email:        contact.Email,
			Role:         models.RoleRegular,
			PasswordHash: secret.Hash,
		})
	})
	if err != nil {
		err = storeConflict(err)
		return Skipped{Index: index, Candidate: candidate, Reason: err.Error(), Err: err}
	}

	return Inserted{Contact: contact, Credential: newCredential(contact, secret)}
}

// 2 DeleteContact removes a contact and its account
func (s *ContactService) DeleteContact(ctx context.Context, id string) (*DeletedContact, error) {
	deleted, err := s.deleteContact(ctx, id)
	if err != nil {
		return nil, err
	}
	s.changed(ctx, EventContactsDeleted, []string{deleted.ID})
	return deleted, nil
}

func (s *ContactService) deleteContact(ctx context.Context, id string) (*DeletedContact, error) {
	contact, err := s.Store.GetContact(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrContactNotFound, id)
		}
		return nil, err
	}

	account, err := s.Store.GetAccount(ctx, id)
	if err != nil && !store.IsNotFound(err) {
		return nil, err
	}
	if err != nil {
		account = nil
	}

	if account.IsAdmin() {
		violation, err := s.Guard.WouldViolateAdminFloor(ctx, []string{id})
		if err != nil {
			return nil, err
		}
		if violation {
			return nil, ErrLastAdministrator
		}
	}

	if account != nil {
		if err := s.Store.DeleteAccount(ctx, id); err != nil && !store.IsNotFound(err) {
			s.Logger.Warn("account delete failed; deleting contact anyway",
				zap.String("contact_id", id), zap.Error(err))
		}
	}

	if err := s.Store.DeleteContact(ctx, id); err != nil {
		if store.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrContactNotFound, id)
		}
		return nil, err
	}

	return &DeletedContact{ID: contact.ID, Email: contact.Email, Name: contact.Name}, nil
}

// 3 UpdateContact applies updates to one contact. Administrators may change
// any field of any contact; other callers only non-identity fields of their
// own contact. A "role" key changes the linked account's role.
func (s *ContactService) UpdateContact(ctx context.Context, principal *Principal, id string, updates map[string]interface{}) (*models.Contact, error) {
	contact, err := s.updateContact(ctx, principal, id, updates)
	if err != nil {
		return nil, err
	}
	s.changed(ctx, EventContactsUpdated, []string{contact.ID})
	return contact, nil
}

func (s *ContactService) updateContact(ctx context.Context, principal *Principal, id string, updates map[string]interface{}) (*models.Contact, error) {
	columns, role, err := sanitizeUpdates(updates)
	if err != nil {
		return nil, err
	}

	if !principal.IsAdmin() {
		if principal == nil || principal.ID != id {
			return nil, ErrForbidden
		}
		if role != "" {
			return nil, fmt.Errorf("%w: role", ErrForbiddenField)
		}
		for column := range columns {
			if models.IdentityColumns[column] {
				return nil, fmt.Errorf("%w: %s", ErrForbiddenField, column)
			}
		}
	}

	contact, err := s.Store.GetContact(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrContactNotFound, id)
		}
		return nil, err
	}

	if role != "" {
		if err := s.checkDemotion(ctx, id, role); err != nil {
			return nil, err
		}
	}

	email, emailChanged := columns["email"].(string)
	emailChanged = emailChanged && email != contact.Email
	extension, _ := columns["extension"].(string)
	if emailChanged || (extension != "" && extension != contact.Extension) {
		candidate := models.ContactCandidate{Extension: extension}
		if emailChanged {
			candidate.Email = email
		}
		conflicts, err := s.Checker.CheckConflicts(ctx, candidate, id)
		if err != nil {
			return nil, err
		}
		if conflicts.Any() {
			return nil, fmt.Errorf("%w: %s", ErrConflict, conflicts.Reason())
		}
	}

	if len(columns) > 0 {
		contact, err = s.Store.UpdateContact(ctx, id, columns)
		if err != nil {
			if store.IsNotFound(err) {
				return nil, fmt.Errorf("%w: %s", ErrContactNotFound, id)
			}
			return nil, storeConflict(err)
		}
	}

	if emailChanged {
		if _, err := s.Store.UpdateAccount(ctx, id, map[string]interface{}{"email": email}); err != nil {
			s.Logger.Warn("account email propagation failed",
				zap.String("contact_id", id), zap.String("email", email), zap.Error(err))
		}
	}

	if role != "" {
		if _, err := s.Store.UpdateAccount(ctx, id, map[string]interface{}{"role": role}); err != nil {
			if store.IsNotFound(err) {
				return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, id)
			}
			return nil, err
		}
	}

	return contact, nil
}

// 4 ChangeRole sets the role of the account linked to contact id
func (s *ContactService) ChangeRole(ctx context.Context, id, role string) (*models.Account, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	if !models.ValidRole(role) {
		return nil, ErrInvalidRole
	}
	if err := s.checkDemotion(ctx, id, role); err != nil {
		return nil, err
	}

	account, err := s.Store.UpdateAccount(ctx, id, map[string]interface{}{"role": role})
	if err != nil {
		if store.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, id)
		}
		return nil, err
	}
	s.changed(ctx, EventContactsUpdated, []string{id})
	return account, nil
}

// checkDemotion refuses taking admin away from the last administrator
func (s *ContactService) checkDemotion(ctx context.Context, id, role string) error {
	account, err := s.Store.GetAccount(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return fmt.Errorf("%w: %s", ErrAccountNotFound, id)
		}
		return err
	}
	if !account.IsAdmin() || role == models.RoleAdmin {
		return nil
	}
	violation, err := s.Guard.WouldViolateAdminFloor(ctx, []string{id})
	if err != nil {
		return err
	}
	if violation {
		return ErrLastAdministrator
	}
	return nil
}

// 5 GetContact returns one contact
func (s *ContactService) GetContact(ctx context.Context, id string) (*models.Contact, error) {
	var cached models.Contact
	key := "contact:" + id
	version, hit := s.cacheGet(ctx, key, &cached)
	if hit {
		return &cached, nil
	}

	contact, err := s.Store.GetContact(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrContactNotFound, id)
		}
		return nil, err
	}
	s.cacheSet(ctx, version, key, contact)
	return contact, nil
}

// 6 GetAccount returns the account linked to contact id
func (s *ContactService) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	account, err := s.Store.GetAccount(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, id)
		}
		return nil, err
	}
	return account, nil
}

// 7 ListContacts returns one page of the directory, ordered by name
func (s *ContactService) ListContacts(ctx context.Context, query ContactQuery) (*ContactPage, error) {
	query.PaginationQuery = query.PaginationQuery.Normalize()
	query.Search = strings.TrimSpace(query.Search)
	query.Department = strings.TrimSpace(query.Department)

	key := fmt.Sprintf("contacts:%d:%d:%s:%s", query.Page, query.PageSize, query.Department, query.Search)
	var cached ContactPage
	version, hit := s.cacheGet(ctx, key, &cached)
	if hit {
		return &cached, nil
	}

	contacts, total, err := s.Store.ListContacts(ctx, store.ContactFilter{
		Search:     query.Search,
		Department: query.Department,
		Offset:     query.Offset(),
		Limit:      query.PageSize,
	})
	if err != nil {
		return nil, err
	}
	if contacts == nil {
		contacts = []models.Contact{}
	}

	page := &ContactPage{
		Contacts:   contacts,
		Pagination: models.NewPaginationResult(total, query.Page, query.PageSize),
	}
	s.cacheSet(ctx, version, key, page)
	return page, nil
}

// 8 ListDepartments returns the distinct non-empty departments
func (s *ContactService) ListDepartments(ctx context.Context) ([]string, error) {
	const key = "departments"
	var cached []string
	version, hit := s.cacheGet(ctx, key, &cached)
	if hit {
		return cached, nil
	}

	departments, err := s.Store.ListDepartments(ctx)
	if err != nil {
		return nil, err
	}
	if departments == nil {
		departments = []string{}
	}
	s.cacheSet(ctx, version, key, departments)
	return departments, nil
}

// 9 AllContacts returns every contact ordered by name
func (s *ContactService) AllContacts(ctx context.Context) ([]models.Contact, error) {
	contacts, _, err := s.Store.ListContacts(ctx, store.ContactFilter{})
	return contacts, err
}

// cacheGet resolves the cache version before the caller touches the store and
// looks key up under it. An empty version disables the matching cacheSet.
func (s *ContactService) cacheGet(ctx context.Context, key string, dest interface{}) (string, bool) {
	version, err := s.Cache.Version(ctx)
	if err != nil {
		s.Logger.Warn("directory cache version read failed", zap.Error(err))
		return "", false
	}
	hit, err := s.Cache.Get(ctx, version, key, dest)
	if err != nil {
		s.Logger.Warn("directory cache read failed", zap.String("key", key), zap.Error(err))
		return version, false
	}
	return version, hit
}

// cacheSet stores value under the version resolved by cacheGet, so a value
// loaded before an invalidation is never visible under the newer version
func (s *ContactService) cacheSet(ctx context.Context, version, key string, value interface{}) {
	if version == "" {
		return
	}
	if err := s.Cache.Set(ctx, version, key, value); err != nil {
		s.Logger.Warn("directory cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// changed invalidates the read cache and announces the mutation
func (s *ContactService) changed(ctx context.Context, eventType string, ids []string) {
	if len(ids) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	if err := s.Cache.Invalidate(ctx); err != nil {
		s.Logger.Warn("directory cache invalidation failed", zap.Error(err))
	}
	publishCtx, cancel := context.WithTimeout(ctx, eventPublishTimeout)
	defer cancel()
	event := DirectoryEvent{Type: eventType, IDs: ids, At: time.Now().UTC()}
	if err := s.Events.Publish(publishCtx, event); err != nil {
		s.Logger.Warn("directory event publish failed",
			zap.String("type", eventType), zap.Int("count", len(ids)), zap.Error(err))
	}
}

// sanitizeUpdates validates an update payload and splits off the role
func sanitizeUpdates(updates map[string]interface{}) (map[string]interface{}, string, error) {
	if len(updates) == 0 {
		return nil, "", ErrEmptyUpdate
	}

	columns := make(map[string]interface{}, len(updates))
	role := ""
	for key, raw := range updates {
		value, ok := raw.(string)
		if !ok {
			return nil, "", fmt.Errorf("%w: %s must be a string", ErrInvalidField, key)
		}
		value = strings.TrimSpace(value)

		if key == "role" {
			role = strings.ToLower(value)
			if !models.ValidRole(role) {
				return nil, "", ErrInvalidRole
			}
			continue
		}
		if !models.ContactColumns[key] {
			return nil, "", fmt.Errorf("%w: %s", ErrInvalidField, key)
		}
		if key == "email" {
			value = strings.ToLower(value)
		}
		if value == "" && models.IdentityColumns[key] {
			return nil, "", fmt.Errorf("%w: %s", ErrMissingFields, key)
		}
		columns[key] = value
	}
	return columns, role, nil
}

// storeConflict tags unique-constraint failures with ErrConflict
func storeConflict(err error) error {
	if store.IsDuplicate(err) && !errors.Is(err, ErrConflict) {
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return err
}

func newCredential(contact *models.Contact, secret GeneratedSecret) *Credential {
	return &Credential{
		Email:       contact.Email,
		Password:    secret.Plaintext,
		ContactName: contact.Name,
		ContactID:   contact.ID,
	}
}
