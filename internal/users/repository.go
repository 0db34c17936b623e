package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"tweetlink/internal/models"

	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Repository reads and writes user records.
type Repository struct {
	db        *gorm.DB
	validator *Validator
}

func NewRepository(db *gorm.DB, v *Validator) *Repository {
	if v == nil {
		v = NewValidator(nil)
	}
	return &Repository{db: db, validator: v}
}

// Create validates the attributes, hashes the password and stores the user.
func (r *Repository) Create(ctx context.Context, email, password string) (*models.User, error) {
	if err := r.validator.Validate(email, password); err != nil {
		return nil, err
	}

	if _, err := r.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	digest, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := models.User{Email: email, PasswordDigest: digest}
	if err := r.db.WithContext(ctx).Omit("TwitterAccount").Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// FindByID returns ErrNotFound when no user has the id.
func (r *Repository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user %d: %w", id, err)
	}
	return &user, nil
}

// FindByEmail matches the address exactly.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// WithTwitterAccount loads the user's linked account, if any.
func (r *Repository) WithTwitterAccount(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Preload("TwitterAccount").Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

var (
	dummyOnce   sync.Once
	dummyDigest string
)

// Authenticate returns the user whose email and password both match.
// Every mismatch yields ErrInvalidCredentials so callers cannot tell which
// field was wrong.
func (r *Repository) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := r.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		// Spend the same bcrypt time as a real comparison.
		dummyOnce.Do(func() { dummyDigest, _ = HashPassword("tweetlink-dummy") })
		_, _ = VerifyPassword(dummyDigest, password)
		return nil, ErrInvalidCredentials
	}

	ok, err := VerifyPassword(user.PasswordDigest, password)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
