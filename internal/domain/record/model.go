package record

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("medical report not found")

type MedicalReport struct {
	ID            uuid.UUID `db:"id" json:"id"`
	AppointmentID uuid.UUID `db:"appointment_id" json:"appointment_id"`
	PatientID     uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID      uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Diagnosis     string    `db:"diagnosis" json:"diagnosis"`
	Symptoms      string    `db:"symptoms" json:"symptoms"`
	Medications   string    `db:"medications" json:"medications"`
	LabTests      string    `db:"lab_tests" json:"lab_tests,omitempty"`
	DoctorNotes   string    `db:"doctor_notes" json:"doctor_notes,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

func (r *MedicalReport) applyDefaults() {
	if r.Diagnosis == "" {
		r.Diagnosis = "Pending Diagnosis"
	}
	if r.Symptoms == "" {
		r.Symptoms = "No symptoms recorded"
	}
	if r.Medications == "" {
		r.Medications = "No medications prescribed"
	}
}
