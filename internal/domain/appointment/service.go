package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/carebridge/internal/domain/doctor"
	"github.com/carebridge/carebridge/internal/platform/notification"
)

// missedReportDelay is how long after the scheduled start a patient must
// wait before reporting a no-show doctor.
const missedReportDelay = 15 * time.Minute

// DoctorDirectory resolves doctor profiles. Satisfied by doctor.Service.
type DoctorDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*doctor.Doctor, error)
}

type Service struct {
	repo     Repository
	doctors  DoctorDirectory
	notifier notification.Publisher
	meetBase string
	now      func() time.Time
}

func NewService(repo Repository, doctors DoctorDirectory, notifier notification.Publisher, meetBase string) *Service {
	return &Service{
		repo:     repo,
		doctors:  doctors,
		notifier: notifier,
		meetBase: meetBase,
		now:      time.Now,
	}
}

func (s *Service) notify(recipient uuid.UUID, message string, category notification.Category, link string) {
	s.notifier.Publish(notification.Event{
		Recipient: recipient.String(),
		Message:   message,
		Category:  category,
		Link:      link,
	})
}

// getForPatient loads an appointment that belongs to the patient. A
// foreign appointment is indistinguishable from a missing one.
func (s *Service) getForPatient(ctx context.Context, patientID, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.PatientID != patientID {
		return nil, ErrNotFound
	}
	return a, nil
}

// getForDoctor resolves the caller's doctor profile and loads an
// appointment assigned to it.
func (s *Service) getForDoctor(ctx context.Context, doctorUserID, id uuid.UUID) (*Appointment, *doctor.Doctor, error) {
	doc, err := s.doctors.GetByUserID(ctx, doctorUserID)
	if err != nil {
		return nil, nil, ErrNotFound
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if a.DoctorID != doc.ID {
		return nil, nil, ErrNotFound
	}
	return a, doc, nil
}

type BookRequest struct {
	DoctorID uuid.UUID `json:"doctor_id"`
	Date     Date      `json:"date"`
	SlotTime string    `json:"slot_time"`
	Reason   string    `json:"reason"`
}

// Book creates a pending hold on a slot. Several patients may hold the
// same slot at once; only confirmation is exclusive. The meeting link is
// generated here, exactly once for the appointment's lifetime.
func (s *Service) Book(ctx context.Context, patientID uuid.UUID, patientName string, req BookRequest) (*Appointment, error) {
	if req.DoctorID == uuid.Nil {
		return nil, fmt.Errorf("doctor_id is required")
	}
	if req.Date.IsZero() {
		return nil, fmt.Errorf("date is required")
	}
	if !ValidSlotTime(req.SlotTime) {
		return nil, fmt.Errorf("invalid slot_time %q: want HH:MM", req.SlotTime)
	}
	doc, err := s.doctors.Get(ctx, req.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("doctor not found")
	}

	taken, err := s.repo.HasConfirmed(ctx, req.DoctorID, req.Date, req.SlotTime)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrSlotTaken
	}

	a := &Appointment{
		ID:        uuid.New(),
		DoctorID:  req.DoctorID,
		PatientID: patientID,
		Date:      req.Date,
		SlotTime:  req.SlotTime,
		Reason:    req.Reason,
		Status:    StatusPending,
		CreatedAt: s.now().UTC(),
	}
	a.MeetingLink = fmt.Sprintf("%s/CareBridge-%s-%s", s.meetBase, a.ID, fmt.Sprintf("%x", uuid.New())[:8])

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	s.notify(doc.UserID,
		fmt.Sprintf("New request: %s for %s at %s", patientName, a.Date, a.SlotTime),
		notification.CategoryAppointment, "")
	return a, nil
}

// Confirm flips a pending hold to confirmed. The repository enforces
// slot exclusivity atomically; of two racing confirms on the same slot
// at most one succeeds.
func (s *Service) Confirm(ctx context.Context, doctorUserID, id uuid.UUID) (*Appointment, error) {
	a, doc, err := s.getForDoctor(ctx, doctorUserID, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Confirm(ctx, a.ID); err != nil {
		return nil, err
	}
	a.Status = StatusConfirmed
	s.notify(a.PatientID,
		fmt.Sprintf("Dr. %s confirmed your appointment for %s.", doc.FullName, a.Date),
		notification.CategoryAppointment, "")
	return a, nil
}

// Cancel moves a non-terminal appointment to cancelled and tells the
// other party. Cancelling a terminal appointment is an error, repeated
// cancels included.
func (s *Service) Cancel(ctx context.Context, userID uuid.UUID, role string, id uuid.UUID) (*Appointment, error) {
	var a *Appointment
	var doc *doctor.Doctor
	var err error
	if role == "doctor" {
		a, doc, err = s.getForDoctor(ctx, userID, id)
	} else {
		a, err = s.getForPatient(ctx, userID, id)
	}
	if err != nil {
		return nil, err
	}
	if IsTerminal(a.Status) {
		return nil, ErrInvalidTransition
	}
	a.Status = StatusCancelled
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	if doc != nil {
		s.notify(a.PatientID,
			fmt.Sprintf("Dr. %s has cancelled your appointment.", doc.FullName),
			notification.CategorySystem, "")
	} else {
		if d, derr := s.doctors.Get(ctx, a.DoctorID); derr == nil {
			s.notify(d.UserID, "Patient cancelled their appointment.", notification.CategoryAppointment, "")
		}
	}
	return a, nil
}

// Complete marks a confirmed appointment as done and stamps the time.
func (s *Service) Complete(ctx context.Context, doctorUserID, id uuid.UUID) (*Appointment, error) {
	a, doc, err := s.getForDoctor(ctx, doctorUserID, id)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusConfirmed {
		return nil, ErrInvalidTransition
	}
	now := s.now().UTC()
	a.Status = StatusCompleted
	a.CompletedAt = &now
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	s.notify(a.PatientID,
		fmt.Sprintf("Your visit with Dr. %s is complete. Report pending.", doc.FullName),
		notification.CategoryReport, "")
	return a, nil
}

// JoinMeeting hands back the stored meeting link. A doctor joining a
// still-open appointment auto-completes it and pings the patient with
// the link so they can follow.
func (s *Service) JoinMeeting(ctx context.Context, userID uuid.UUID, role string, id uuid.UUID) (string, error) {
	if role == "doctor" {
		a, doc, err := s.getForDoctor(ctx, userID, id)
		if err != nil {
			return "", err
		}
		if !IsTerminal(a.Status) {
			now := s.now().UTC()
			a.Status = StatusCompleted
			a.CompletedAt = &now
			if err := s.repo.Update(ctx, a); err != nil {
				return "", err
			}
			s.notify(a.PatientID,
				fmt.Sprintf("Dr. %s has started the video call. Click to join!", doc.FullName),
				notification.CategoryAppointment, a.MeetingLink)
		}
		return a.MeetingLink, nil
	}
	a, err := s.getForPatient(ctx, userID, id)
	if err != nil {
		return "", err
	}
	if a.MeetingLink == "" {
		return "", ErrNotFound
	}
	return a.MeetingLink, nil
}

// ReportMissed lets a patient flag a no-show doctor, but only once the
// scheduled start is at least fifteen minutes in the past and the
// appointment never progressed past confirmed.
func (s *Service) ReportMissed(ctx context.Context, patientID, id uuid.UUID) (*Appointment, error) {
	a, err := s.getForPatient(ctx, patientID, id)
	if err != nil {
		return nil, err
	}
	open := a.Status == StatusPending || a.Status == StatusConfirmed
	if !open || !s.now().After(a.StartAt().Add(missedReportDelay)) {
		return nil, ErrWindowClosed
	}
	a.Status = StatusDoctorMissed
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	s.notify(patientID,
		"We received your report for the missed appointment. Support will review it shortly.",
		notification.CategorySupport, "")
	return a, nil
}

var statusPings = map[string]string{
	"late_5":    "Patient %s is running 5 minutes late for your appointment.",
	"late_10":   "Patient %s is running 10 minutes late.",
	"ready":     "Patient %s is ready and waiting in the lobby.",
	"cant_make": "Patient %s cannot make it and requests a reschedule.",
}

// SendStatusPing forwards a quick status note from the patient to the
// doctor without touching the appointment itself.
func (s *Service) SendStatusPing(ctx context.Context, patientID uuid.UUID, patientName string, id uuid.UUID, pingType string) error {
	a, err := s.getForPatient(ctx, patientID, id)
	if err != nil {
		return err
	}
	tmpl, ok := statusPings[pingType]
	if !ok {
		return fmt.Errorf("invalid status type: %s", pingType)
	}
	doc, err := s.doctors.Get(ctx, a.DoctorID)
	if err != nil {
		return err
	}
	s.notify(doc.UserID, fmt.Sprintf(tmpl, patientName), notification.CategoryAppointment, "")
	return nil
}

// Get returns an appointment scoped to the calling party.
func (s *Service) Get(ctx context.Context, userID uuid.UUID, role string, id uuid.UUID) (*Appointment, error) {
	if role == "doctor" {
		a, _, err := s.getForDoctor(ctx, userID, id)
		return a, err
	}
	return s.getForPatient(ctx, userID, id)
}

func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListForDoctor(ctx context.Context, doctorUserID uuid.UUID, status string, limit, offset int) ([]*Appointment, int, error) {
	doc, err := s.doctors.GetByUserID(ctx, doctorUserID)
	if err != nil {
		return nil, 0, ErrNotFound
	}
	return s.repo.ListByDoctor(ctx, doc.ID, status, limit, offset)
}

// BookedSlots lists the confirmed times for a doctor's day so clients
// can grey out taken slots.
func (s *Service) BookedSlots(ctx context.Context, doctorID uuid.UUID, date Date) ([]string, error) {
	return s.repo.BookedSlots(ctx, doctorID, date)
}
