package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventcalendar/internal/domain"
)

type attendeeRepository struct {
	DB *sql.DB
}

func NewAttendeeRepository(db *sql.DB) domain.AttendeeRepository {
	return &attendeeRepository{
		DB: db,
	}
}

// scanAttendee coerces one row into an Attendee. user_id is nullable for
// legacy rows and stays nil when absent.
func scanAttendee(row interface{ Scan(...any) error }) (*domain.Attendee, error) {
	a := &domain.Attendee{}
	var userNull sql.NullString
	if err := row.Scan(&a.ID, &a.EventID, &userNull, &a.Email, &a.CreatedAt); err != nil {
		return nil, err
	}
	if userNull.Valid {
		a.UserID = &userNull.String
	}
	return a, nil
}

func (r *attendeeRepository) Create(ctx context.Context, a *domain.Attendee) error {
	query := `
		INSERT INTO attendees (id, event_id, user_id, email, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.DB.ExecContext(ctx, query, a.ID, a.EventID, a.UserID, a.Email, a.CreatedAt)
	return err
}

func (r *attendeeRepository) GetByID(ctx context.Context, id string) (*domain.Attendee, error) {
	query := `
		SELECT id, event_id, user_id, email, created_at
		FROM attendees
		WHERE id = $1
	`
	a, err := scanAttendee(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *attendeeRepository) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Attendee, error) {
	query := `
		SELECT id, event_id, user_id, email, created_at
		FROM attendees
		WHERE event_id = $1 AND user_id = $2
	`
	a, err := scanAttendee(r.DB.QueryRowContext(ctx, query, eventID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *attendeeRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.Attendee, error) {
	query := `
		SELECT id, event_id, user_id, email, created_at
		FROM attendees
		WHERE event_id = $1
		ORDER BY created_at ASC
	`
	return r.list(ctx, query, eventID)
}

func (r *attendeeRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Attendee, error) {
	query := `
		SELECT id, event_id, user_id, email, created_at
		FROM attendees
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, userID)
}

func (r *attendeeRepository) list(ctx context.Context, query string, arg any) ([]*domain.Attendee, error) {
	rows, err := r.DB.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attendees := make([]*domain.Attendee, 0)
	for rows.Next() {
		a, err := scanAttendee(rows)
		if err != nil {
			return nil, err
		}
		attendees = append(attendees, a)
	}
	return attendees, rows.Err()
}

func (r *attendeeRepository) CountByEventID(ctx context.Context, eventID string) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM attendees WHERE event_id = $1`, eventID).
		Scan(&count)
	return count, err
}

func (r *attendeeRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM attendees WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
