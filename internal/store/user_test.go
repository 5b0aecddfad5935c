package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/hotelbook/apiserver/types"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(sqlmock.AnyArg(), "ada@example.com", "Ada", "Lovelace", "hash", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	user, err := repo.Create(context.Background(), types.User{
		Email:        "ada@example.com",
		FirstName:    "Ada",
		LastName:     "Lovelace",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	_, parseErr := uuid.Parse(user.ID)
	assert.NoError(t, parseErr)
	assert.False(t, user.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(`INSERT INTO users`).WillReturnError(&pq.Error{Code: "23505"})

	_, err := repo.Create(context.Background(), types.User{Email: "ada@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUserRepository_GetByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	id := uuid.NewString()
	now := time.Now()
	mock.ExpectQuery(`FROM users WHERE email = \$1`).
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "first_name", "last_name", "password_hash", "created_at", "updated_at"}).
			AddRow(id, "ada@example.com", "Ada", "Lovelace", "hash", now, now))

	user, err := repo.GetByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, "hash", user.PasswordHash)

	mock.ExpectQuery(`FROM users WHERE email = \$1`).
		WithArgs("nobody@example.com").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.GetByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository_GetByIDInvalid(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewUserRepository(db)

	_, err := repo.GetByID(context.Background(), "42")
	assert.ErrorIs(t, err, ErrNotFound)
}
