package roster

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service coordinates roster validation and persistence.
type Service struct {
	repo *Repository
	log  *zap.Logger
}

// NewService creates a service backed by a repository.
func NewService(repo *Repository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, log: log}
}

// Ensure creates the student unless the roll number is already on the roster,
// in which case the existing name and course are kept. It reports whether a
// student was created.
func (s *Service) Ensure(ctx context.Context, ns NewStudent, now time.Time) (bool, error) {
	if err := ns.Validate(); err != nil {
		return false, err
	}
	created, err := s.repo.Insert(ctx, Student{
		ID:         uuid.NewString(),
		Name:       ns.Name,
		RollNumber: ns.RollNumber,
		CourseName: ns.CourseName,
		CreatedAt:  now.UTC().Truncate(time.Microsecond),
	})
	if err != nil {
		return false, err
	}
	if created {
		s.log.Debug("student created", zap.String("roll_number", ns.RollNumber))
	}
	return created, nil
}

// Create adds a single student, failing when the roll number is taken.
func (s *Service) Create(ctx context.Context, ns NewStudent, now time.Time) (Student, error) {
	created, err := s.Ensure(ctx, ns, now)
	if err != nil {
		return Student{}, err
	}
	if !created {
		return Student{}, ErrRollNumberExists
	}
	return s.repo.GetByRollNumber(ctx, ns.RollNumber)
}

func (s *Service) Get(ctx context.Context, id string) (Student, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Search(ctx context.Context, f Filter) ([]Student, error) {
	return s.repo.Search(ctx, f)
}

func (s *Service) Courses(ctx context.Context) ([]string, error) {
	return s.repo.Courses(ctx)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// Delete removes a student together with its absences.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("student deleted", zap.String("student_id", id))
	return nil
}
