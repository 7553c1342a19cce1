package doctor

import (
	"context"

	"github.com/google/uuid"
)

type DoctorRepository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Doctor, int, error)
	ListBySpecialization(ctx context.Context, spec Specialization) ([]*Doctor, error)
}

type DepartmentRepository interface {
	FindOrCreate(ctx context.Context, name string) (*Department, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Department, error)
	List(ctx context.Context) ([]*Department, error)
}

type FavoriteRepository interface {
	// Toggle adds or removes (patientID, doctorID) and reports whether the
	// doctor is a favorite after the call.
	Toggle(ctx context.Context, patientID, doctorID uuid.UUID) (bool, error)
	ListIDsByPatient(ctx context.Context, patientID uuid.UUID) ([]uuid.UUID, error)
}
