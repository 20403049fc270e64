package postgres

import (
	"context"
	"database/sql"
	"testing"

	"eventcalendar/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

var userCols = []string{"id", "email", "name", "password_hash", "salt", "created_at"}

func TestUserRepository_Create(t *testing.T) {
	ctx := context.Background()
	user := &domain.User{
		ID:           "user-1",
		Email:        "taro@example.com",
		Name:         "Taro",
		PasswordHash: "hash",
		Salt:         "salt",
		CreatedAt:    1750000000,
	}

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO users`).
					WithArgs("user-1", "taro@example.com", "Taro", "hash", "salt", int64(1750000000)).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "duplicate email",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO users`).
					WillReturnError(&pq.Error{Code: "23505"})
			},
			wantErr: domain.ErrDuplicateEmail,
		},
		{
			name: "db error",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO users`).
					WillReturnError(sql.ErrConnDone)
			},
			wantErr: sql.ErrConnDone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewUserRepository(db)
			err = repo.Create(ctx, user)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_GetByEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("found, email lowercased", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		rows := sqlmock.NewRows(userCols).
			AddRow("user-1", "taro@example.com", "Taro", "hash", "salt", int64(1750000000))
		mock.ExpectQuery(`SELECT id, email, name, password_hash, salt, created_at`).
			WithArgs("taro@example.com").
			WillReturnRows(rows)

		repo := NewUserRepository(db)
		user, err := repo.GetByEmail(ctx, "Taro@Example.com")
		require.NoError(t, err)
		require.Equal(t, "user-1", user.ID)
		require.Equal(t, "hash", user.PasswordHash)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT id, email, name, password_hash, salt, created_at`).
			WithArgs("nobody@example.com").
			WillReturnError(sql.ErrNoRows)

		repo := NewUserRepository(db)
		_, err = repo.GetByEmail(ctx, "nobody@example.com")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestUserRepository_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		rows := sqlmock.NewRows(userCols).
			AddRow("user-1", "taro@example.com", "Taro", "hash", "salt", int64(1750000000))
		mock.ExpectQuery(`SELECT id, email, name, password_hash, salt, created_at`).
			WithArgs("user-1").
			WillReturnRows(rows)

		repo := NewUserRepository(db)
		user, err := repo.GetByID(ctx, "user-1")
		require.NoError(t, err)
		require.Equal(t, "taro@example.com", user.Email)
	})

	t.Run("not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT id, email, name, password_hash, salt, created_at`).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		repo := NewUserRepository(db)
		_, err = repo.GetByID(ctx, "missing")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}
