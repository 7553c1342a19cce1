package appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carebridge/carebridge/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const apptCols = `id, doctor_id, patient_id, date, slot_time, reason, status,
	meeting_link, created_at, completed_at`

func (r *repoPG) scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.DoctorID, &a.PatientID, &a.Date, &a.SlotTime, &a.Reason,
		&a.Status, &a.MeetingLink, &a.CreatedAt, &a.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &a, err
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointment (id, doctor_id, patient_id, date, slot_time,
			reason, status, meeting_link)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		a.ID, a.DoctorID, a.PatientID, a.Date, a.SlotTime, a.Reason, a.Status, a.MeetingLink)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return r.scanAppointment(r.conn(ctx).QueryRow(ctx, `SELECT `+apptCols+` FROM appointment WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, a *Appointment) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment SET status=$2, meeting_link=$3, completed_at=$4
		WHERE id = $1`,
		a.ID, a.Status, a.MeetingLink, a.CompletedAt)
	if err == nil && tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return err
}

// Confirm is the check-then-act guard in a single statement. The NOT
// EXISTS clause races with concurrent confirms; the partial unique index
// on (doctor_id, date, slot_time) WHERE status='confirmed' makes the
// loser fail with a unique violation, which also maps to ErrSlotTaken.
func (r *repoPG) Confirm(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment a SET status = 'confirmed'
		WHERE a.id = $1 AND a.status = 'pending'
		  AND NOT EXISTS (
			SELECT 1 FROM appointment b
			WHERE b.doctor_id = a.doctor_id AND b.date = a.date
			  AND b.slot_time = a.slot_time AND b.status = 'confirmed'
		  )`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrSlotTaken
		}
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Nothing updated: tell the caller why.
	a, getErr := r.GetByID(ctx, id)
	if getErr != nil {
		return getErr
	}
	if a.Status != StatusPending {
		return ErrInvalidTransition
	}
	return ErrSlotTaken
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM appointment WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+apptCols+` FROM appointment
		WHERE patient_id = $1 ORDER BY date DESC, slot_time DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := r.collect(rows)
	return items, total, err
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, status string, limit, offset int) ([]*Appointment, int, error) {
	where := `WHERE doctor_id = $1`
	args := []interface{}{doctorID}
	if status != "" {
		where += ` AND status = $2`
		args = append(args, status)
	}
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM appointment `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	argn := len(args)
	listArgs := append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx, fmt.Sprintf(
		`SELECT `+apptCols+` FROM appointment `+where+
			` ORDER BY date ASC, slot_time ASC LIMIT $%d OFFSET $%d`, argn+1, argn+2),
		listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := r.collect(rows)
	return items, total, err
}

func (r *repoPG) collect(rows pgx.Rows) ([]*Appointment, error) {
	var items []*Appointment
	for rows.Next() {
		a, err := r.scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *repoPG) BookedSlots(ctx context.Context, doctorID uuid.UUID, date Date) ([]string, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT slot_time FROM appointment
		WHERE doctor_id = $1 AND date = $2 AND status = 'confirmed'
		ORDER BY slot_time ASC`, doctorID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var slots []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

func (r *repoPG) HasConfirmed(ctx context.Context, doctorID uuid.UUID, date Date, slotTime string) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointment
			WHERE doctor_id = $1 AND date = $2 AND slot_time = $3 AND status = 'confirmed'
		)`, doctorID, date, slotTime).Scan(&exists)
	return exists, err
}
