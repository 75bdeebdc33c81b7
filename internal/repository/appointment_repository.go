package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/callwise/voice-scheduler/internal/domain"
)

// AppointmentFilter captures listing parameters.
type AppointmentFilter struct {
	CustomerID *string
	Status     *domain.AppointmentStatus
	FromDate   *time.Time
	ToDate     *time.Time
	Limit      int
	Offset     int
}

// AppointmentRepository encapsulates appointment persistence. Booking-affecting
// writes run inside a transaction so the conflict check and the insert/update
// are serialized against concurrent writers; the overlap exclusion constraint
// in the schema backs the check against races the row locks cannot see.
type AppointmentRepository interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Create(ctx context.Context, tx pgx.Tx, appt *domain.Appointment) error
	Update(ctx context.Context, tx pgx.Tx, appt *domain.Appointment) error
	GetByID(ctx context.Context, id string) (*domain.Appointment, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.Appointment, error)
	ListWithFilter(ctx context.Context, filter AppointmentFilter) ([]domain.Appointment, error)
	ListOnDay(ctx context.Context, day time.Time) ([]domain.Appointment, error)
	ListAroundForUpdate(ctx context.Context, tx pgx.Tx, start, end time.Time) ([]domain.Appointment, error)
}

type appointmentRepository struct {
	pool *pgxpool.Pool
}

// NewAppointmentRepository instantiates repository.
func NewAppointmentRepository(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepository{pool: pool}
}

const appointmentColumns = `id, customer_id, service_type, start_time, duration_minutes, status, notes, created_by_call_id, metadata, created_at, updated_at`

func (r *appointmentRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func (r *appointmentRepository) Create(ctx context.Context, tx pgx.Tx, appt *domain.Appointment) error {
	const query = `
        INSERT INTO appointments (id, customer_id, service_type, start_time, duration_minutes, status, notes, created_by_call_id, metadata)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING created_at, updated_at`
	return tx.QueryRow(ctx, query,
		appt.ID,
		appt.CustomerID,
		appt.ServiceType,
		appt.StartTime,
		appt.DurationMinutes,
		appt.Status,
		appt.Notes,
		appt.CreatedByCallID,
		appt.Metadata,
	).Scan(&appt.CreatedAt, &appt.UpdatedAt)
}

func (r *appointmentRepository) Update(ctx context.Context, tx pgx.Tx, appt *domain.Appointment) error {
	const query = `
        UPDATE appointments SET service_type=$1, start_time=$2, duration_minutes=$3, status=$4,
            notes=$5, metadata=$6, updated_at=NOW()
        WHERE id=$7`
	cmd, err := tx.Exec(ctx, query,
		appt.ServiceType,
		appt.StartTime,
		appt.DurationMinutes,
		appt.Status,
		appt.Notes,
		appt.Metadata,
		appt.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *appointmentRepository) GetByID(ctx context.Context, id string) (*domain.Appointment, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE id=$1`, appointmentColumns)
	return scanAppointment(r.pool.QueryRow(ctx, query, id))
}

func (r *appointmentRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.Appointment, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE id=$1 FOR UPDATE`, appointmentColumns)
	return scanAppointment(tx.QueryRow(ctx, query, id))
}

func (r *appointmentRepository) ListWithFilter(ctx context.Context, filter AppointmentFilter) ([]domain.Appointment, error) {
	base := fmt.Sprintf(`SELECT %s FROM appointments`, appointmentColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		clauses = append(clauses, fmt.Sprintf("customer_id=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.FromDate != nil {
		args = append(args, *filter.FromDate)
		clauses = append(clauses, fmt.Sprintf("start_time >= $%d", len(args)))
	}
	if filter.ToDate != nil {
		args = append(args, *filter.ToDate)
		clauses = append(clauses, fmt.Sprintf("start_time <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY start_time ASC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAppointments(rows)
}

// ListOnDay returns all appointments starting on the given calendar day,
// cancelled ones included so callers can decide what counts.
func (r *appointmentRepository) ListOnDay(ctx context.Context, day time.Time) ([]domain.Appointment, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	query := fmt.Sprintf(`SELECT %s FROM appointments
        WHERE start_time >= $1 AND start_time < $2
        ORDER BY start_time ASC`, appointmentColumns)

	rows, err := r.pool.Query(ctx, query, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAppointments(rows)
}

// ListAroundForUpdate locks and returns the non-cancelled appointments whose
// interval could overlap [start, end), serializing concurrent writers that
// target the same window.
func (r *appointmentRepository) ListAroundForUpdate(ctx context.Context, tx pgx.Tx, start, end time.Time) ([]domain.Appointment, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointments
        WHERE status <> 'cancelled'
          AND start_time < $2
          AND start_time + make_interval(mins => duration_minutes) > $1
        ORDER BY start_time ASC
        FOR UPDATE`, appointmentColumns)

	rows, err := tx.Query(ctx, query, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAppointments(rows)
}

// IsOverlapViolation reports whether the error comes from the appointment
// overlap exclusion constraint.
func IsOverlapViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23P01"
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (*domain.Appointment, error) {
	var appt domain.Appointment
	if err := row.Scan(
		&appt.ID,
		&appt.CustomerID,
		&appt.ServiceType,
		&appt.StartTime,
		&appt.DurationMinutes,
		&appt.Status,
		&appt.Notes,
		&appt.CreatedByCallID,
		&appt.Metadata,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &appt, nil
}

func scanAppointments(rows pgx.Rows) ([]domain.Appointment, error) {
	var result []domain.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *appt)
	}
	return result, rows.Err()
}
