package appointment

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	// Confirm flips a pending appointment to confirmed if and only if no
	// other confirmed appointment holds the same (doctor, date, slot)
	// key. Returns ErrSlotTaken when the slot is held, or
	// ErrInvalidTransition when the appointment is not pending.
	Confirm(ctx context.Context, id uuid.UUID) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, status string, limit, offset int) ([]*Appointment, int, error)
	// BookedSlots returns the confirmed "HH:MM" values for a doctor on a
	// date, in slot order.
	BookedSlots(ctx context.Context, doctorID uuid.UUID, date Date) ([]string, error)
	// HasConfirmed reports whether a confirmed appointment holds the key.
	HasConfirmed(ctx context.Context, doctorID uuid.UUID, date Date, slotTime string) (bool, error)
}
