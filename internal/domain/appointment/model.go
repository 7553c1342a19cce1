package appointment

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("appointment not found")
	// ErrSlotTaken means another confirmed appointment already holds the
	// (doctor, date, slot) key.
	ErrSlotTaken = errors.New("slot already confirmed for another appointment")
	// ErrInvalidTransition means the appointment's current status does
	// not allow the requested action.
	ErrInvalidTransition = errors.New("invalid appointment status transition")
	// ErrWindowClosed means a time-gated action was attempted outside
	// its window.
	ErrWindowClosed = errors.New("action not available in the current time window")
)

const (
	StatusPending      = "pending"
	StatusConfirmed    = "confirmed"
	StatusCompleted    = "completed"
	StatusCancelled    = "cancelled"
	StatusDoctorMissed = "doctor_missed"
)

var terminalStatuses = map[string]bool{
	StatusCompleted:    true,
	StatusCancelled:    true,
	StatusDoctorMissed: true,
}

func IsTerminal(status string) bool { return terminalStatuses[status] }

// Date is a calendar day without a time component. It binds from and
// renders as "2006-01-02" and maps onto a DATE column.
type Date struct {
	time.Time
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return Date{t}, nil
}

func (d Date) String() string { return d.Format(time.DateOnly) }

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("invalid date %s", b)
	}
	parsed, err := ParseDate(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Value() (driver.Value, error) { return d.Time, nil }

func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		d.Time = v
		return nil
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}

// ValidSlotTime reports whether s is a wall-clock slot in "HH:MM" form.
func ValidSlotTime(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil && len(s) == 5
}

type Appointment struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	DoctorID    uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	PatientID   uuid.UUID  `db:"patient_id" json:"patient_id"`
	Date        Date       `db:"date" json:"date"`
	SlotTime    string     `db:"slot_time" json:"slot_time"`
	Reason      string     `db:"reason" json:"reason"`
	Status      string     `db:"status" json:"status"`
	MeetingLink string     `db:"meeting_link" json:"meeting_link,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// StartAt combines the date and slot time into the appointment's start
// instant, in UTC.
func (a *Appointment) StartAt() time.Time {
	t, err := time.Parse("15:04", a.SlotTime)
	if err != nil {
		return a.Date.Time
	}
	return time.Date(a.Date.Year(), a.Date.Month(), a.Date.Day(),
		t.Hour(), t.Minute(), 0, 0, time.UTC)
}
