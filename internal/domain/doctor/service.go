package doctor

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carebridge/carebridge/internal/platform/db"
)

type Service struct {
	doctors     DoctorRepository
	departments DepartmentRepository
	favorites   FavoriteRepository
	pool        *pgxpool.Pool
}

// NewService wires the doctor directory. pool may be nil in tests; save
// paths then run without a surrounding transaction.
func NewService(doctors DoctorRepository, departments DepartmentRepository, favorites FavoriteRepository, pool *pgxpool.Pool) *Service {
	return &Service{doctors: doctors, departments: departments, favorites: favorites, pool: pool}
}

func (s *Service) withTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.pool == nil {
		return fn(ctx)
	}
	return db.WithTx(ctx, s.pool, fn)
}

// syncDepartment binds the doctor to the department named exactly after
// its specialization, creating the department on first use. Callers can
// never set DepartmentID themselves; every save path funnels through here.
func (s *Service) syncDepartment(ctx context.Context, d *Doctor) error {
	dept, err := s.departments.FindOrCreate(ctx, string(d.Specialization))
	if err != nil {
		return fmt.Errorf("sync department: %w", err)
	}
	d.DepartmentID = &dept.ID
	return nil
}

func (s *Service) Create(ctx context.Context, d *Doctor) error {
	if d.UserID == uuid.Nil {
		return fmt.Errorf("user_id is required")
	}
	d.applyDefaults()
	if !d.Specialization.Valid() {
		return fmt.Errorf("invalid specialization: %s", d.Specialization)
	}
	d.DepartmentID = nil
	return s.withTx(ctx, func(ctx context.Context) error {
		if err := s.syncDepartment(ctx, d); err != nil {
			return err
		}
		return s.doctors.Create(ctx, d)
	})
}

// EnsureProfile returns the doctor profile for a user, creating a blank
// one on first sight of a doctor account.
func (s *Service) EnsureProfile(ctx context.Context, userID uuid.UUID, fullName string) (*Doctor, error) {
	d, err := s.doctors.GetByUserID(ctx, userID)
	if err == nil {
		return d, nil
	}
	if err != ErrNotFound {
		return nil, err
	}
	d = &Doctor{UserID: userID, FullName: fullName}
	if err := s.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) Update(ctx context.Context, d *Doctor) error {
	d.applyDefaults()
	if !d.Specialization.Valid() {
		return fmt.Errorf("invalid specialization: %s", d.Specialization)
	}
	d.DepartmentID = nil
	return s.withTx(ctx, func(ctx context.Context) error {
		if err := s.syncDepartment(ctx, d); err != nil {
			return err
		}
		return s.doctors.Update(ctx, d)
	})
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.doctors.GetByID(ctx, id)
}

func (s *Service) GetByUserID(ctx context.Context, userID uuid.UUID) (*Doctor, error) {
	return s.doctors.GetByUserID(ctx, userID)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.doctors.Delete(ctx, id)
}

// List returns the directory page. When patientID is non-nil the
// patient's favorites are flagged and sorted to the front.
func (s *Service) List(ctx context.Context, patientID *uuid.UUID, limit, offset int) ([]*Doctor, int, error) {
	items, total, err := s.doctors.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	if patientID == nil {
		return items, total, nil
	}
	favIDs, err := s.favorites.ListIDsByPatient(ctx, *patientID)
	if err != nil {
		return nil, 0, err
	}
	favs := make(map[uuid.UUID]bool, len(favIDs))
	for _, id := range favIDs {
		favs[id] = true
	}
	for _, d := range items {
		d.Favorite = favs[d.ID]
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Favorite && !items[j].Favorite
	})
	return items, total, nil
}

// DoctorsBySpecialization serves the triage flow: all doctors of one
// specialization ordered by descending experience.
func (s *Service) DoctorsBySpecialization(ctx context.Context, spec string) ([]*Doctor, error) {
	return s.doctors.ListBySpecialization(ctx, Specialization(spec))
}

func (s *Service) ToggleFavorite(ctx context.Context, patientID, doctorID uuid.UUID) (bool, error) {
	if _, err := s.doctors.GetByID(ctx, doctorID); err != nil {
		return false, err
	}
	return s.favorites.Toggle(ctx, patientID, doctorID)
}

func (s *Service) ListDepartments(ctx context.Context) ([]*Department, error) {
	return s.departments.List(ctx)
}
