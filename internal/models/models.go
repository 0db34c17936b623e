package models

import (
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Email          string `gorm:"uniqueIndex;not null"`
	PasswordDigest string `gorm:"not null"`
	TwitterAccount *TwitterAccount
}

// TwitterAccount links a user to one Twitter identity. The unique index on
// UserID keeps it to one account per user.
type TwitterAccount struct {
	gorm.Model
	UserID   uint   `gorm:"uniqueIndex;not null"`
	User     User
	UID      string `gorm:"index"`
	Username string `gorm:"index;not null"`
	Name     string
	Image    string
	Token    string `gorm:"type:text"`
	Secret   string `gorm:"type:text"`
}

// All lists every model managed by the schema migration.
func All() []any {
	return []any{&User{}, &TwitterAccount{}}
}
