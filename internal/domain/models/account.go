package models

// Account roles
const (
	RoleAdmin   = "admin"
	RoleRegular = "regular"
)

// Account is the login identity linked one-to-one with a Contact (same id, same email)
type Account struct {
	BaseModel
	Email        string `gorm:"type:varchar(150);uniqueIndex;not null" json:"email"`
	Role         string `gorm:"type:varchar(20);not null;default:'regular';index" json:"role"`
	PasswordHash string `gorm:"type:varchar(100)" json:"-"`
}

// TableName keeps the historical table name
func (Account) TableName() string {
	return "user_profiles"
}

// IsAdmin reports whether the account holds the admin role
func (a *Account) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

// ValidRole reports whether role is one of the known roles
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleRegular
}
