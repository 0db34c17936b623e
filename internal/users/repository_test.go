package users

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"tweetlink/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := storage.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()), false)
	require.NoError(t, err)
	require.NoError(t, storage.Migrate(db))
	t.Cleanup(func() { _ = storage.Close(db) })
	return db
}

func TestRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newTestDB(t), nil)

	user, err := repo.Create(ctx, "ada@example.com", "correct horse")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.NotEqual(t, "correct horse", user.PasswordDigest)

	byID, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", byID.Email)

	byEmail, err := repo.FindByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	_, err = repo.FindByID(ctx, user.ID+100)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_CreateRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newTestDB(t), nil)

	_, err := repo.Create(ctx, "user@mailinator.com", "secret")
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.True(t, verr.Has("email", MsgDisposable))

	_, err = repo.FindByEmail(ctx, "user@mailinator.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_CreateDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newTestDB(t), nil)

	_, err := repo.Create(ctx, "ada@example.com", "one")
	require.NoError(t, err)

	_, err = repo.Create(ctx, "ada@example.com", "two")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRepository_Authenticate(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newTestDB(t), nil)

	created, err := repo.Create(ctx, "ada@example.com", "correct horse")
	require.NoError(t, err)

	user, err := repo.Authenticate(ctx, "ada@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	cases := []struct{ email, password string }{
		{"ada@example.com", "wrong"},
		{"ada@example.com", ""},
		{"nobody@example.com", "correct horse"},
		{"ADA@example.com", "correct horse"},
	}
	for _, c := range cases {
		_, err := repo.Authenticate(ctx, c.email, c.password)
		assert.ErrorIs(t, err, ErrInvalidCredentials, "email=%q password=%q", c.email, c.password)
	}
}

func TestVerifyPassword(t *testing.T) {
	digest, err := HashPassword("secret")
	require.NoError(t, err)

	ok, err := VerifyPassword(digest, "secret")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword(digest, "Secret")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = VerifyPassword("not-a-digest", "secret")
	assert.Error(t, err)
}
