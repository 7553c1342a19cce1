package doctor

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("doctor not found")

// Specialization is one of the fixed set of specialties a doctor can hold.
// Department names mirror these values exactly; see Service.syncDepartment.
type Specialization string

const DefaultSpecialization Specialization = "General Physician"

// Specializations lists every accepted value in display order.
var Specializations = []Specialization{
	"General Physician",
	"Cardiologist",
	"Dermatologist",
	"Orthopedic",
	"Neurologist",
	"Pediatrician",
	"Psychiatrist",
	"Dentist",
	"ENT",
	"Gynecologist",
	"Urologist",
	"Oncologist",
	"Endocrinologist",
	"Ophthalmologist",
	"Pulmonologist",
	"Gastroenterologist",
	"Rheumatologist",
	"Nephrologist",
	"Radiologist",
	"Anesthesiologist",
	"General Surgeon",
	"ENT Surgeon",
	"Cardiothoracic Surgeon",
	"Plastic Surgeon",
	"Vascular Surgeon",
}

var validSpecializations = func() map[Specialization]bool {
	m := make(map[Specialization]bool, len(Specializations))
	for _, s := range Specializations {
		m[s] = true
	}
	return m
}()

func (s Specialization) Valid() bool { return validSpecializations[s] }

// Department is derived from a doctor's specialization and is never
// written to directly by callers.
type Department struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type Doctor struct {
	ID              uuid.UUID      `db:"id" json:"id"`
	UserID          uuid.UUID      `db:"user_id" json:"user_id"`
	FullName        string         `db:"full_name" json:"full_name"`
	Specialization  Specialization `db:"specialization" json:"specialization"`
	DepartmentID    *uuid.UUID     `db:"department_id" json:"department_id,omitempty"`
	Qualification   string         `db:"qualification" json:"qualification"`
	ExperienceYears int            `db:"experience_years" json:"experience_years"`
	ConsultationFee float64        `db:"consultation_fee" json:"consultation_fee"`
	IsAvailable     bool           `db:"is_available" json:"is_available"`
	AvailableDays   string         `db:"available_days" json:"available_days"`
	AvailableTime   string         `db:"available_time" json:"available_time"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`

	// Favorite is set on directory listings for the requesting patient.
	Favorite bool `db:"-" json:"favorite"`
}

func (d *Doctor) applyDefaults() {
	if d.Specialization == "" {
		d.Specialization = DefaultSpecialization
	}
	if d.Qualification == "" {
		d.Qualification = "MBBS"
	}
	if d.ConsultationFee == 0 {
		d.ConsultationFee = 500.00
	}
	if d.AvailableDays == "" {
		d.AvailableDays = "Mon-Fri"
	}
	if d.AvailableTime == "" {
		d.AvailableTime = "09:00 AM - 05:00 PM"
	}
}
