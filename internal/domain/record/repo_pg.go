package record

import (
	"context"
	"errors"

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

const reportCols = `id, appointment_id, patient_id, doctor_id, diagnosis,
	symptoms, medications, lab_tests, doctor_notes, created_at`

func (r *repoPG) scanReport(row pgx.Row) (*MedicalReport, error) {
	var m MedicalReport
	err := row.Scan(&m.ID, &m.AppointmentID, &m.PatientID, &m.DoctorID, &m.Diagnosis,
		&m.Symptoms, &m.Medications, &m.LabTests, &m.DoctorNotes, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &m, err
}

func (r *repoPG) Create(ctx context.Context, m *MedicalReport) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO medical_report (id, appointment_id, patient_id, doctor_id,
			diagnosis, symptoms, medications, lab_tests, doctor_notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		m.ID, m.AppointmentID, m.PatientID, m.DoctorID,
		m.Diagnosis, m.Symptoms, m.Medications, m.LabTests, m.DoctorNotes)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*MedicalReport, error) {
	return r.scanReport(r.conn(ctx).QueryRow(ctx, `SELECT `+reportCols+` FROM medical_report WHERE id = $1`, id))
}

func (r *repoPG) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*MedicalReport, error) {
	return r.scanReport(r.conn(ctx).QueryRow(ctx, `SELECT `+reportCols+` FROM medical_report WHERE appointment_id = $1`, appointmentID))
}

func (r *repoPG) Update(ctx context.Context, m *MedicalReport) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE medical_report SET diagnosis=$2, symptoms=$3, medications=$4,
			lab_tests=$5, doctor_notes=$6
		WHERE id = $1`,
		m.ID, m.Diagnosis, m.Symptoms, m.Medications, m.LabTests, m.DoctorNotes)
	if err == nil && tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return err
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*MedicalReport, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM medical_report WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+reportCols+` FROM medical_report
		WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := r.collect(rows)
	return items, total, err
}

func (r *repoPG) ListByPatientExcluding(ctx context.Context, patientID, appointmentID uuid.UUID) ([]*MedicalReport, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+reportCols+` FROM medical_report
		WHERE patient_id = $1 AND appointment_id <> $2 ORDER BY created_at DESC`,
		patientID, appointmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *repoPG) collect(rows pgx.Rows) ([]*MedicalReport, error) {
	var items []*MedicalReport
	for rows.Next() {
		m, err := r.scanReport(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}
