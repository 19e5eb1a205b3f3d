package models

import "strings"

// Contact is a directory entry
type Contact struct {
	BaseModel
	Name        string `gorm:"type:varchar(150);not null" json:"name"`
	Department  string `gorm:"type:varchar(150);index" json:"department"`
	Designation string `gorm:"type:varchar(150)" json:"designation"`
	PhoneNumber string `gorm:"type:varchar(30)" json:"phone_number"`
	Extension   string `gorm:"type:varchar(20);uniqueIndex;not null" json:"extension"`
	Email       string `gorm:"type:varchar(150);uniqueIndex;not null" json:"email"`
	Location    string `gorm:"type:varchar(150)" json:"location"`
	Institution string `gorm:"type:varchar(150)" json:"institution"`
}

// ContactCandidate is an unsaved contact as submitted by a caller or an import file
type ContactCandidate struct {
	Name        string `json:"name" csv:"name"`
	Department  string `json:"department" csv:"department"`
	Designation string `json:"designation" csv:"designation"`
	PhoneNumber string `json:"phone_number" csv:"phone_number"`
	Extension   string `json:"extension" csv:"extension"`
	Email       string `json:"email" csv:"email"`
	Location    string `json:"location" csv:"location"`
	Institution string `json:"institution" csv:"institution"`

	// Row is the 1-based line of the import file the candidate was read from
	Row int `json:"row,omitempty" csv:"-"`
}

// Normalize trims every field and lower-cases the email
func (c ContactCandidate) Normalize() ContactCandidate {
	return ContactCandidate{
		Name:        strings.TrimSpace(c.Name),
		Department:  strings.TrimSpace(c.Department),
		Designation: strings.TrimSpace(c.Designation),
		PhoneNumber: strings.TrimSpace(c.PhoneNumber),
		Extension:   strings.TrimSpace(c.Extension),
		Email:       strings.ToLower(strings.TrimSpace(c.Email)),
		Location:    strings.TrimSpace(c.Location),
		Institution: strings.TrimSpace(c.Institution),
		Row:         c.Row,
	}
}

// IsBlank reports whether every field is empty after trimming
func (c ContactCandidate) IsBlank() bool {
	n := c.Normalize()
	n.Row = 0
	return n == ContactCandidate{}
}

// MissingFields lists the required fields that are blank
func (c ContactCandidate) MissingFields() []string {
	var missing []string
	if c.Name == "" {
		missing = append(missing, "name")
	}
	if c.Email == "" {
		missing = append(missing, "email")
	}
	if c.Extension == "" {
		missing = append(missing, "extension")
	}
	return missing
}

// ToContact converts the candidate into an unsaved Contact row
func (c ContactCandidate) ToContact() *Contact {
	return &Contact{
		Name:        c.Name,
		Department:  c.Department,
		Designation: c.Designation,
		PhoneNumber: c.PhoneNumber,
		Extension:   c.Extension,
		Email:       c.Email,
		Location:    c.Location,
		Institution: c.Institution,
	}
}

// ContactColumns are the columns of contacts an update may touch
var ContactColumns = map[string]bool{
	"name":         true,
	"department":   true,
	"designation":  true,
	"phone_number": true,
	"extension":    true,
	"email":        true,
	"location":     true,
	"institution":  true,
}

// IdentityColumns may only be changed by administrators
var IdentityColumns = map[string]bool{
	"name":      true,
	"extension": true,
	"email":     true,
}
