package record

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, r *MedicalReport) error
	GetByID(ctx context.Context, id uuid.UUID) (*MedicalReport, error)
	GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*MedicalReport, error)
	Update(ctx context.Context, r *MedicalReport) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*MedicalReport, int, error)
	// ListByPatientExcluding returns a patient's history minus the report
	// of one appointment, newest first.
	ListByPatientExcluding(ctx context.Context, patientID, appointmentID uuid.UUID) ([]*MedicalReport, error)
}
