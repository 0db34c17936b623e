// Package accounts links external Twitter identities to local users.
package accounts

import (
	"context"
	"errors"
	"fmt"

	"tweetlink/internal/models"

	"gorm.io/gorm"
)

var (
	// ErrAlreadyLinked means the user already has a Twitter account with a
	// different username.
	ErrAlreadyLinked = errors.New("user already has a linked twitter account")
	// ErrLinkedElsewhere means another user owns this Twitter identity.
	ErrLinkedElsewhere = errors.New("twitter account is linked to another user")
	ErrMissingUsername = errors.New("twitter username is required")
)

// Profile is what the provider tells us about a Twitter identity, together
// with the credentials needed to act on its behalf.
type Profile struct {
	UID      string
	Name     string
	Username string
	Image    string
	Token    string
	Secret   string
}

// Result is the outcome of Link. Exactly one of Account and Err is set.
type Result struct {
	Account *models.TwitterAccount
	Created bool
	Err     error
}

func (r Result) OK() bool { return r.Err == nil }

func linked(a *models.TwitterAccount, created bool) Result {
	return Result{Account: a, Created: created}
}

func failed(err error) Result {
	return Result{Err: err}
}

// Linker upserts TwitterAccount records.
type Linker struct {
	db *gorm.DB
}

func NewLinker(db *gorm.DB) *Linker {
	return &Linker{db: db}
}

// Link finds the user's account with the profile's username, or creates it,
// and copies name, image, token and secret from the profile.
func (l *Linker) Link(ctx context.Context, userID uint, p Profile) Result {
	if p.Username == "" {
		return failed(ErrMissingUsername)
	}

	var (
		account models.TwitterAccount
		created bool
	)
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var other int64
		if err := tx.Model(&models.TwitterAccount{}).
			Where("username = ? AND user_id <> ?", p.Username, userID).
			Count(&other).Error; err != nil {
			return fmt.Errorf("check username owner: %w", err)
		}
		if other > 0 {
			return ErrLinkedElsewhere
		}

		err := tx.Where("user_id = ? AND username = ?", userID, p.Username).First(&account).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			var existing int64
			if err := tx.Model(&models.TwitterAccount{}).Where("user_id = ?", userID).Count(&existing).Error; err != nil {
				return fmt.Errorf("check existing link: %w", err)
			}
			if existing > 0 {
				return ErrAlreadyLinked
			}
			account = models.TwitterAccount{UserID: userID, Username: p.Username}
			created = true
		case err != nil:
			return fmt.Errorf("find twitter account: %w", err)
		}

		account.UID = p.UID
		account.Name = p.Name
		account.Image = p.Image
		account.Token = p.Token
		account.Secret = p.Secret

		if err := tx.Omit("User").Save(&account).Error; err != nil {
			return fmt.Errorf("save twitter account: %w", err)
		}
		return nil
	})
	if err != nil {
		return failed(err)
	}
	return linked(&account, created)
}

// ForUser returns the user's linked account, or nil when there is none.
func (l *Linker) ForUser(ctx context.Context, userID uint) (*models.TwitterAccount, error) {
	var account models.TwitterAccount
	err := l.db.WithContext(ctx).Where("user_id = ?", userID).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find twitter account: %w", err)
	}
	return &account, nil
}
