package training

import (
	"context"
	"errors"
	"fmt"
	"time"

	"unihr/internal/domain/authz"
	"unihr/internal/domain/directory"
)

var (
	ErrNotFound          = errors.New("training not found")
	ErrNotPublished      = errors.New("training is not open for applications")
	ErrNoEmployee        = errors.New("no employee record linked to this account")
	ErrNotEligible       = errors.New("employee is not eligible for this training")
	ErrFull              = errors.New("training has no available spots")
	ErrAlreadyApplied    = errors.New("employee already has an active application")
	ErrInvalidTransition = errors.New("invalid application status transition")
)

type Service struct {
	store       Store
	dir         directory.API
	eligibility *authz.EligibilityChecker
	certDir     string
}

func NewService(store Store, dir directory.API, eligibility *authz.EligibilityChecker, certDir string) *Service {
	return &Service{store: store, dir: dir, eligibility: eligibility, certDir: certDir}
}

func (s *Service) Create(ctx context.Context, t *Training) error {
	if t.Status == "" {
		t.Status = StatusDraft
	}
	return s.store.CreateTraining(ctx, t)
}

func (s *Service) Update(ctx context.Context, t *Training) error {
	return s.store.UpdateTraining(ctx, t)
}

func (s *Service) Get(ctx context.Context, id string) (*Training, error) {
	t, err := s.store.TrainingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound
	}
	return t, nil
}

// View is a training annotated for one viewer: whether they may apply and
// how many spots remain. AvailableSpots is nil for unlimited offerings.
type View struct {
	Training
	Eligible       bool `json:"eligible"`
	AvailableSpots *int `json:"availableSpots,omitempty"`
}

// List returns trainings annotated for the viewing user. HR and admin
// accounts pass an empty userID and see plain records.
func (s *Service) List(ctx context.Context, status, userID string, limit, offset int) ([]View, int, error) {
	trainings, total, err := s.store.ListTrainings(ctx, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	var emp *directory.Employee
	if userID != "" {
		emp, err = s.dir.EmployeeByUserID(ctx, userID)
		if err != nil {
			return nil, 0, err
		}
	}

	views := make([]View, 0, len(trainings))
	for _, t := range trainings {
		view := View{Training: t}
		counted, err := s.store.CountedApplications(ctx, t.ID)
		if err != nil {
			return nil, 0, err
		}
		view.AvailableSpots = authz.AvailableSpots(t.Capacity, counted)
		if emp != nil {
			eligible, err := s.eligibility.IsEligible(ctx, t.Restrictions(), emp)
			if err != nil {
				return nil, 0, err
			}
			view.Eligible = eligible
		}
		views = append(views, view)
	}
	return views, total, nil
}

// Apply gates an application on publication status, the offering's
// allow-lists, remaining capacity and the absence of an active application.
func (s *Service) Apply(ctx context.Context, trainingID, userID string) (*Application, error) {
	t, err := s.store.TrainingByID(ctx, trainingID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound
	}
	if t.Status != StatusPublished {
		return nil, ErrNotPublished
	}

	emp, err := s.dir.EmployeeByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if emp == nil {
		return nil, ErrNoEmployee
	}

	eligible, err := s.eligibility.IsEligible(ctx, t.Restrictions(), emp)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, ErrNotEligible
	}

	existing, err := s.store.ActiveApplication(ctx, trainingID, emp.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyApplied
	}

	counted, err := s.store.CountedApplications(ctx, trainingID)
	if err != nil {
		return nil, err
	}
	if !authz.HasCapacity(t.Capacity, counted) {
		return nil, ErrFull
	}

	app := &Application{TrainingID: trainingID, EmployeeID: emp.ID, Status: ApplicationPending}
	if err := s.store.CreateApplication(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

// Decide moves a pending application to approved or rejected.
func (s *Service) Decide(ctx context.Context, applicationID string, approve bool) (*Application, error) {
	app, err := s.store.ApplicationByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, ErrNotFound
	}
	if app.Status != ApplicationPending {
		return nil, ErrInvalidTransition
	}

	if approve {
		app.Status = ApplicationApproved
	} else {
		app.Status = ApplicationRejected
	}
	if err := s.store.UpdateApplication(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

// Cancel lets the applicant withdraw a pending or approved application,
// releasing its capacity spot.
func (s *Service) Cancel(ctx context.Context, applicationID, userID string) (*Application, error) {
	app, err := s.store.ApplicationByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, ErrNotFound
	}

	emp, err := s.dir.EmployeeByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if emp == nil || emp.ID != app.EmployeeID {
		return nil, ErrNotFound
	}
	if app.Status != ApplicationPending && app.Status != ApplicationApproved {
		return nil, ErrInvalidTransition
	}

	app.Status = ApplicationCancelled
	if err := s.store.UpdateApplication(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

// Complete marks an approved application completed and issues a certificate.
func (s *Service) Complete(ctx context.Context, applicationID string) (*Application, error) {
	app, err := s.store.ApplicationByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, ErrNotFound
	}
	if app.Status != ApplicationApproved {
		return nil, ErrInvalidTransition
	}

	t, err := s.store.TrainingByID(ctx, app.TrainingID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound
	}

	emp, err := s.dir.EmployeeByID(ctx, app.EmployeeID)
	if err != nil {
		return nil, err
	}
	if emp == nil {
		return nil, fmt.Errorf("application %s references missing employee %s", app.ID, app.EmployeeID)
	}

	ref, err := GenerateCertificate(s.certDir, emp, t, time.Now())
	if err != nil {
		return nil, fmt.Errorf("generate certificate: %w", err)
	}

	app.Status = ApplicationCompleted
	app.CertificateRef = ref
	if err := s.store.UpdateApplication(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

func (s *Service) ListApplications(ctx context.Context, trainingID, employeeID string, limit, offset int) ([]Application, int, error) {
	return s.store.ListApplications(ctx, trainingID, employeeID, limit, offset)
}

// ApplicationsForUser lists the calling employee's own applications.
func (s *Service) ApplicationsForUser(ctx context.Context, userID string, limit, offset int) ([]Application, int, error) {
	emp, err := s.dir.EmployeeByUserID(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	if emp == nil {
		return nil, 0, ErrNoEmployee
	}
	return s.store.ListApplications(ctx, "", emp.ID, limit, offset)
}
