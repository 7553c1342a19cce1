package record

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/carebridge/internal/domain/appointment"
	"github.com/carebridge/carebridge/internal/domain/doctor"
	"github.com/carebridge/carebridge/internal/platform/notification"
)

// -- Mocks --

type mockReportRepo struct {
	reports map[uuid.UUID]*MedicalReport
}

func newMockReportRepo() *mockReportRepo {
	return &mockReportRepo{reports: make(map[uuid.UUID]*MedicalReport)}
}

func (m *mockReportRepo) Create(_ context.Context, r *MedicalReport) error {
	cp := *r
	m.reports[r.ID] = &cp
	return nil
}

func (m *mockReportRepo) GetByID(_ context.Context, id uuid.UUID) (*MedicalReport, error) {
	r, ok := m.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *mockReportRepo) GetByAppointment(_ context.Context, appointmentID uuid.UUID) (*MedicalReport, error) {
	for _, r := range m.reports {
		if r.AppointmentID == appointmentID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockReportRepo) Update(_ context.Context, r *MedicalReport) error {
	if _, ok := m.reports[r.ID]; !ok {
		return ErrNotFound
	}
	cp := *r
	m.reports[r.ID] = &cp
	return nil
}

func (m *mockReportRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*MedicalReport, int, error) {
	var result []*MedicalReport
	for _, r := range m.reports {
		if r.PatientID == patientID {
			cp := *r
			result = append(result, &cp)
		}
	}
	return result, len(result), nil
}

func (m *mockReportRepo) ListByPatientExcluding(_ context.Context, patientID, appointmentID uuid.UUID) ([]*MedicalReport, error) {
	var result []*MedicalReport
	for _, r := range m.reports {
		if r.PatientID == patientID && r.AppointmentID != appointmentID {
			cp := *r
			result = append(result, &cp)
		}
	}
	return result, nil
}

type mockApptStore struct {
	appts map[uuid.UUID]*appointment.Appointment
}

func newMockApptStore() *mockApptStore {
	return &mockApptStore{appts: make(map[uuid.UUID]*appointment.Appointment)}
}

func (m *mockApptStore) GetByID(_ context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	a, ok := m.appts[id]
	if !ok {
		return nil, appointment.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockApptStore) Update(_ context.Context, a *appointment.Appointment) error {
	if _, ok := m.appts[a.ID]; !ok {
		return appointment.ErrNotFound
	}
	cp := *a
	m.appts[a.ID] = &cp
	return nil
}

type stubDoctors struct {
	byUser map[uuid.UUID]*doctor.Doctor
}

func newStubDoctors() *stubDoctors {
	return &stubDoctors{byUser: make(map[uuid.UUID]*doctor.Doctor)}
}

func (s *stubDoctors) add(name string) *doctor.Doctor {
	d := &doctor.Doctor{ID: uuid.New(), UserID: uuid.New(), FullName: name}
	s.byUser[d.UserID] = d
	return d
}

func (s *stubDoctors) GetByUserID(_ context.Context, userID uuid.UUID) (*doctor.Doctor, error) {
	d, ok := s.byUser[userID]
	if !ok {
		return nil, doctor.ErrNotFound
	}
	return d, nil
}

type capturePublisher struct {
	mu     sync.Mutex
	events []notification.Event
}

func (p *capturePublisher) Publish(e notification.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *capturePublisher) last() *notification.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return nil
	}
	e := p.events[len(p.events)-1]
	return &e
}

func newTestRecordService() (*Service, *mockReportRepo, *mockApptStore, *stubDoctors, *capturePublisher) {
	reports := newMockReportRepo()
	appts := newMockApptStore()
	docs := newStubDoctors()
	pub := &capturePublisher{}
	return NewService(reports, appts, docs, pub), reports, appts, docs, pub
}

func seedAppointment(appts *mockApptStore, doc *doctor.Doctor, status string) *appointment.Appointment {
	date, _ := appointment.ParseDate("2026-09-10")
	a := &appointment.Appointment{
		ID:        uuid.New(),
		DoctorID:  doc.ID,
		PatientID: uuid.New(),
		Date:      date,
		SlotTime:  "10:30",
		Status:    status,
	}
	appts.appts[a.ID] = a
	return a
}

// -- Tests --

func TestService_Create_CompletesConfirmedAppointment(t *testing.T) {
	svc, _, appts, docs, pub := newTestRecordService()
	doc := docs.add("Mehta")
	a := seedAppointment(appts, doc, appointment.StatusConfirmed)

	m, err := svc.Create(context.Background(), doc.UserID, a.ID, ReportInput{Diagnosis: "Flu"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if m.PatientID != a.PatientID || m.DoctorID != doc.ID {
		t.Errorf("report links wrong: %+v", m)
	}

	stored, _ := appts.GetByID(context.Background(), a.ID)
	if stored.Status != appointment.StatusCompleted || stored.CompletedAt == nil {
		t.Errorf("filing a report should complete the appointment, got %+v", stored)
	}
	e := pub.last()
	if e == nil || e.Recipient != a.PatientID.String() || e.Category != notification.CategoryReport {
		t.Errorf("expected report notification to the patient, got %+v", e)
	}
}

func TestService_Create_Defaults(t *testing.T) {
	svc, _, appts, docs, _ := newTestRecordService()
	doc := docs.add("Mehta")
	a := seedAppointment(appts, doc, appointment.StatusCompleted)

	m, err := svc.Create(context.Background(), doc.UserID, a.ID, ReportInput{})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if m.Diagnosis != "Pending Diagnosis" || m.Symptoms != "No symptoms recorded" || m.Medications != "No medications prescribed" {
		t.Errorf("defaults not applied: %+v", m)
	}
}

func TestService_Create_ForeignAppointment(t *testing.T) {
	svc, _, appts, docs, _ := newTestRecordService()
	doc := docs.add("Mehta")
	other := docs.add("Iyer")
	a := seedAppointment(appts, doc, appointment.StatusConfirmed)

	if _, err := svc.Create(context.Background(), other.UserID, a.ID, ReportInput{}); err != appointment.ErrNotFound {
		t.Errorf("expected ErrNotFound for foreign appointment, got %v", err)
	}
}

func TestService_Create_DuplicateReport(t *testing.T) {
	svc, _, appts, docs, _ := newTestRecordService()
	doc := docs.add("Mehta")
	a := seedAppointment(appts, doc, appointment.StatusCompleted)

	if _, err := svc.Create(context.Background(), doc.UserID, a.ID, ReportInput{}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := svc.Create(context.Background(), doc.UserID, a.ID, ReportInput{}); err == nil {
		t.Error("expected error for a second report on the same appointment")
	}
}

func TestService_UpdateOwn(t *testing.T) {
	svc, _, appts, docs, _ := newTestRecordService()
	doc := docs.add("Mehta")
	other := docs.add("Iyer")
	a := seedAppointment(appts, doc, appointment.StatusCompleted)

	m, err := svc.Create(context.Background(), doc.UserID, a.ID, ReportInput{Diagnosis: "Flu"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := svc.UpdateOwn(context.Background(), other.UserID, m.ID, ReportInput{Diagnosis: "Cold"}); err != ErrNotFound {
		t.Errorf("expected ErrNotFound for foreign report, got %v", err)
	}

	updated, err := svc.UpdateOwn(context.Background(), doc.UserID, m.ID, ReportInput{Diagnosis: "Cold"})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Diagnosis != "Cold" {
		t.Errorf("update did not take: %+v", updated)
	}
}

func TestService_PriorReports_WindowAndExclusion(t *testing.T) {
	svc, reports, appts, docs, _ := newTestRecordService()
	doc := docs.add("Mehta")
	current := seedAppointment(appts, doc, appointment.StatusConfirmed)

	// An older report for the same patient, and the current visit's own.
	older := &MedicalReport{ID: uuid.New(), AppointmentID: uuid.New(), PatientID: current.PatientID, DoctorID: doc.ID}
	own := &MedicalReport{ID: uuid.New(), AppointmentID: current.ID, PatientID: current.PatientID, DoctorID: doc.ID}
	reports.Create(context.Background(), older)
	reports.Create(context.Background(), own)

	start := current.StartAt()
	svc.now = func() time.Time { return start.Add(time.Hour) }

	got, err := svc.PriorReports(context.Background(), doc.UserID, current.ID)
	if err != nil {
		t.Fatalf("prior reports failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != older.ID {
		t.Errorf("expected only the older report, got %v", got)
	}

	// Five hours in, access has lapsed.
	svc.now = func() time.Time { return start.Add(5 * time.Hour) }
	if _, err := svc.PriorReports(context.Background(), doc.UserID, current.ID); err != appointment.ErrWindowClosed {
		t.Errorf("expected ErrWindowClosed after four hours, got %v", err)
	}
}

func TestService_PriorReports_RequiresConfirmedOrCompleted(t *testing.T) {
	svc, _, appts, docs, _ := newTestRecordService()
	doc := docs.add("Mehta")
	a := seedAppointment(appts, doc, appointment.StatusPending)

	svc.now = func() time.Time { return a.StartAt() }
	if _, err := svc.PriorReports(context.Background(), doc.UserID, a.ID); err != appointment.ErrWindowClosed {
		t.Errorf("expected ErrWindowClosed for pending appointment, got %v", err)
	}
}

func TestService_GetForPatient_Scoping(t *testing.T) {
	svc, _, appts, docs, _ := newTestRecordService()
	doc := docs.add("Mehta")
	a := seedAppointment(appts, doc, appointment.StatusCompleted)

	m, err := svc.Create(context.Background(), doc.UserID, a.ID, ReportInput{})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := svc.GetForPatient(context.Background(), a.PatientID, m.ID); err != nil {
		t.Errorf("owner should read the report: %v", err)
	}
	if _, err := svc.GetForPatient(context.Background(), uuid.New(), m.ID); err != ErrNotFound {
		t.Errorf("expected ErrNotFound for foreign patient, got %v", err)
	}
}
