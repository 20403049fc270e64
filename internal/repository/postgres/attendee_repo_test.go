package postgres

import (
	"context"
	"database/sql"
	"testing"

	"eventcalendar/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

var attendeeCols = []string{"id", "event_id", "user_id", "email", "created_at"}

func TestAttendeeRepository_Create(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		attendee *domain.Attendee
		mock     func(mock sqlmock.Sqlmock)
		wantErr  bool
	}{
		{
			name: "success",
			attendee: &domain.Attendee{
				ID:        "att-1",
				EventID:   "ev-1",
				UserID:    strPtr("user-1"),
				Email:     "u@example.com",
				CreatedAt: 1750000000123,
			},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO attendees`).
					WithArgs("att-1", "ev-1", "user-1", "u@example.com", int64(1750000000123)).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "db error",
			attendee: &domain.Attendee{
				ID:      "att-2",
				EventID: "ev-1",
				UserID:  strPtr("user-2"),
				Email:   "x@example.com",
			},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO attendees`).
					WillReturnError(sql.ErrConnDone)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewAttendeeRepository(db)
			err = repo.Create(ctx, tt.attendee)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAttendeeRepository_GetByEventAndUser(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		want    *domain.Attendee
		wantErr error
	}{
		{
			name: "found",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT id, event_id, user_id, email, created_at`).
					WithArgs("ev-1", "user-1").
					WillReturnRows(sqlmock.NewRows(attendeeCols).
						AddRow("att-1", "ev-1", "user-1", "u@example.com", int64(1750000000123)))
			},
			want: &domain.Attendee{
				ID:        "att-1",
				EventID:   "ev-1",
				UserID:    strPtr("user-1"),
				Email:     "u@example.com",
				CreatedAt: 1750000000123,
			},
		},
		{
			name: "not found",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT id, event_id, user_id, email, created_at`).
					WithArgs("ev-1", "user-1").
					WillReturnError(sql.ErrNoRows)
			},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewAttendeeRepository(db)
			got, err := repo.GetByEventAndUser(ctx, "ev-1", "user-1")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Nil(t, got)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAttendeeRepository_ListByEventID(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// Legacy row with null user_id must coerce to nil, not fail.
	mock.ExpectQuery(`SELECT id, event_id, user_id, email, created_at`).
		WithArgs("ev-1").
		WillReturnRows(sqlmock.NewRows(attendeeCols).
			AddRow("att-1", "ev-1", "user-1", "a@example.com", int64(1)).
			AddRow("att-2", "ev-1", nil, "b@example.com", int64(2)))

	repo := NewAttendeeRepository(db)
	got, err := repo.ListByEventID(ctx, "ev-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, strPtr("user-1"), got[0].UserID)
	require.Nil(t, got[1].UserID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendeeRepository_CountByEventID(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM attendees WHERE event_id = \$1`).
		WithArgs("ev-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	repo := NewAttendeeRepository(db)
	count, err := repo.CountByEventID(ctx, "ev-1")
	require.NoError(t, err)
	require.Equal(t, 7, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendeeRepository_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes exactly one row", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`DELETE FROM attendees WHERE id = \$1`).
			WithArgs("att-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewAttendeeRepository(db)
		require.NoError(t, repo.Delete(ctx, "att-1"))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row reports not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`DELETE FROM attendees WHERE id = \$1`).
			WithArgs("att-missing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		repo := NewAttendeeRepository(db)
		require.ErrorIs(t, repo.Delete(ctx, "att-missing"), domain.ErrNotFound)
	})
}
