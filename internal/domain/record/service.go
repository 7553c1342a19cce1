package record

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/carebridge/internal/domain/appointment"
	"github.com/carebridge/carebridge/internal/domain/doctor"
	"github.com/carebridge/carebridge/internal/platform/notification"
)

// priorReportAccess is how long past the scheduled start a doctor can
// still read the patient's earlier reports.
const priorReportAccess = 4 * time.Hour

// AppointmentStore is the slice of appointment.Repository this package
// needs: loading an appointment and completing it when a report lands.
type AppointmentStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	Update(ctx context.Context, a *appointment.Appointment) error
}

type DoctorDirectory interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*doctor.Doctor, error)
}

type Service struct {
	reports  Repository
	appts    AppointmentStore
	doctors  DoctorDirectory
	notifier notification.Publisher
	now      func() time.Time
}

func NewService(reports Repository, appts AppointmentStore, doctors DoctorDirectory, notifier notification.Publisher) *Service {
	return &Service{
		reports:  reports,
		appts:    appts,
		doctors:  doctors,
		notifier: notifier,
		now:      time.Now,
	}
}

// apptForDoctor loads an appointment assigned to the calling doctor.
// Foreign appointments look like missing ones.
func (s *Service) apptForDoctor(ctx context.Context, doctorUserID, appointmentID uuid.UUID) (*appointment.Appointment, *doctor.Doctor, error) {
	doc, err := s.doctors.GetByUserID(ctx, doctorUserID)
	if err != nil {
		return nil, nil, appointment.ErrNotFound
	}
	a, err := s.appts.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, nil, err
	}
	if a.DoctorID != doc.ID {
		return nil, nil, appointment.ErrNotFound
	}
	return a, doc, nil
}

type ReportInput struct {
	Diagnosis   string `json:"diagnosis"`
	Symptoms    string `json:"symptoms"`
	Medications string `json:"medications"`
	LabTests    string `json:"lab_tests"`
	DoctorNotes string `json:"doctor_notes"`
}

// Create files a report against the doctor's own appointment. Filing a
// report closes out a still-confirmed appointment as completed.
func (s *Service) Create(ctx context.Context, doctorUserID, appointmentID uuid.UUID, in ReportInput) (*MedicalReport, error) {
	a, doc, err := s.apptForDoctor(ctx, doctorUserID, appointmentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.reports.GetByAppointment(ctx, appointmentID); err == nil {
		return nil, fmt.Errorf("appointment already has a report")
	} else if err != ErrNotFound {
		return nil, err
	}

	m := &MedicalReport{
		ID:            uuid.New(),
		AppointmentID: a.ID,
		PatientID:     a.PatientID,
		DoctorID:      doc.ID,
		Diagnosis:     in.Diagnosis,
		Symptoms:      in.Symptoms,
		Medications:   in.Medications,
		LabTests:      in.LabTests,
		DoctorNotes:   in.DoctorNotes,
		CreatedAt:     s.now().UTC(),
	}
	m.applyDefaults()
	if err := s.reports.Create(ctx, m); err != nil {
		return nil, err
	}

	if a.Status == appointment.StatusConfirmed {
		now := s.now().UTC()
		a.Status = appointment.StatusCompleted
		a.CompletedAt = &now
		if err := s.appts.Update(ctx, a); err != nil {
			return nil, err
		}
	}

	s.notifier.Publish(notification.Event{
		Recipient: a.PatientID.String(),
		Message:   fmt.Sprintf("Dr. %s has uploaded your medical report.", doc.FullName),
		Category:  notification.CategoryReport,
	})
	return m, nil
}

// UpdateOwn lets the authoring doctor revise a report.
func (s *Service) UpdateOwn(ctx context.Context, doctorUserID, reportID uuid.UUID, in ReportInput) (*MedicalReport, error) {
	doc, err := s.doctors.GetByUserID(ctx, doctorUserID)
	if err != nil {
		return nil, ErrNotFound
	}
	m, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if m.DoctorID != doc.ID {
		return nil, ErrNotFound
	}
	m.Diagnosis = in.Diagnosis
	m.Symptoms = in.Symptoms
	m.Medications = in.Medications
	m.LabTests = in.LabTests
	m.DoctorNotes = in.DoctorNotes
	m.applyDefaults()
	if err := s.reports.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// PriorReports serves a patient's earlier history to the treating
// doctor. Access requires a confirmed or completed appointment and
// lapses four hours after its scheduled start.
func (s *Service) PriorReports(ctx context.Context, doctorUserID, appointmentID uuid.UUID) ([]*MedicalReport, error) {
	a, _, err := s.apptForDoctor(ctx, doctorUserID, appointmentID)
	if err != nil {
		return nil, err
	}
	allowed := a.Status == appointment.StatusConfirmed || a.Status == appointment.StatusCompleted
	if !allowed || s.now().After(a.StartAt().Add(priorReportAccess)) {
		return nil, appointment.ErrWindowClosed
	}
	return s.reports.ListByPatientExcluding(ctx, a.PatientID, a.ID)
}

func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*MedicalReport, int, error) {
	return s.reports.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) GetForPatient(ctx context.Context, patientID, reportID uuid.UUID) (*MedicalReport, error) {
	m, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if m.PatientID != patientID {
		return nil, ErrNotFound
	}
	return m, nil
}
