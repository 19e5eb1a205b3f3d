package services

import "actrec-directory/internal/domain/models"

// ItemResult is the outcome of one item of a mutation. It is one of
// Inserted, Skipped, Deleted, Updated or ItemError.
type ItemResult interface {
	itemResult()
}

// Inserted is a contact created together with its one-time credential.
// AccountPending is set when the contact was stored but its account was not.
type Inserted struct {
	Contact        *models.Contact
	Credential     *Credential
	AccountPending bool
}

// Skipped is an insert candidate that was not stored. Err classifies the
// reason and is one of ErrMissingFields, ErrConflict or a store error.
type Skipped struct {
	Index     int                     `json:"index"`
	Candidate models.ContactCandidate `json:"contact"`
	Reason    string                  `json:"reason"`
	Err       error                   `json:"-"`
}

// DeletedContact is the snapshot of a removed contact
type DeletedContact struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Deleted is a contact removed together with its account
type Deleted struct {
	Contact DeletedContact
}

// Updated is a contact after an update was applied
type Updated struct {
	Contact *models.Contact
}

// ItemError is a delete or update that failed for one id
type ItemError struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

func (Inserted) itemResult()  {}
func (Skipped) itemResult()   {}
func (Deleted) itemResult()   {}
func (Updated) itemResult()   {}
func (ItemError) itemResult() {}

// Summary tallies a batch
type Summary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// BulkInsertResult partitions a bulk insert
type BulkInsertResult struct {
	Inserted        []*models.Contact `json:"inserted"`
	Skipped         []Skipped         `json:"skipped"`
	Credentials     []Credential      `json:"createdCredentials"`
	PendingAccounts []string          `json:"pendingAccounts,omitempty"`
	Summary         Summary           `json:"-"`
}

// BulkDeleteResult partitions a bulk delete
type BulkDeleteResult struct {
	Deleted []DeletedContact `json:"deleted"`
	Errors  []ItemError      `json:"errors"`
	Summary Summary          `json:"summary"`
}

// BulkUpdateResult partitions a bulk update
type BulkUpdateResult struct {
	Updated []*models.Contact `json:"updated"`
	Errors  []ItemError       `json:"errors"`
	Summary Summary           `json:"summary"`
}

func newBulkInsertResult(results []ItemResult) *BulkInsertResult {
	out := &BulkInsertResult{
		Inserted:    []*models.Contact{},
		Skipped:     []Skipped{},
		Credentials: []Credential{},
	}
	for _, r := range results {
		switch v := r.(type) {
		case Inserted:
			out.Inserted = append(out.Inserted, v.Contact)
			if v.Credential != nil {
				out.Credentials = append(out.Credentials, *v.Credential)
			}
			if v.AccountPending {
				out.PendingAccounts = append(out.PendingAccounts, v.Contact.ID)
			}
		case Skipped:
			out.Skipped = append(out.Skipped, v)
		}
	}
	out.Summary = Summary{Total: len(results), Succeeded: len(out.Inserted), Failed: len(out.Skipped)}
	return out
}

func newBulkDeleteResult(results []ItemResult) *BulkDeleteResult {
	out := &BulkDeleteResult{Deleted: []DeletedContact{}, Errors: []ItemError{}}
	for _, r := range results {
		switch v := r.(type) {
		case Deleted:
			out.Deleted = append(out.Deleted, v.Contact)
		case ItemError:
			out.Errors = append(out.Errors, v)
		}
	}
	out.Summary = Summary{Total: len(results), Succeeded: len(out.Deleted), Failed: len(out.Errors)}
	return out
}

func newBulkUpdateResult(results []ItemResult) *BulkUpdateResult {
	out := &BulkUpdateResult{Updated: []*models.Contact{}, Errors: []ItemError{}}
	for _, r := range results {
		switch v := r.(type) {
		case Updated:
			out.Updated = append(out.Updated, v.Contact)
		case ItemError:
			out.Errors = append(out.Errors, v)
		}
	}
	out.Summary = Summary{Total: len(results), Succeeded: len(out.Updated), Failed: len(out.Errors)}
	return out
}

func itemError(id string, err error) ItemError {
	return ItemError{ID: id, Reason: err.Error(), Err: err}
}
