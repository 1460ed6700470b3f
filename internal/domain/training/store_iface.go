package training

import "context"

type Store interface {
	CreateTraining(ctx context.Context, t *Training) error
	TrainingByID(ctx context.Context, id string) (*Training, error)
	ListTrainings(ctx context.Context, status string, limit, offset int) ([]Training, int, error)
	UpdateTraining(ctx context.Context, t *Training) error

	CreateApplication(ctx context.Context, a *Application) error
	ApplicationByID(ctx context.Context, id string) (*Application, error)
	ActiveApplication(ctx context.Context, trainingID, employeeID string) (*Application, error)
	ListApplications(ctx context.Context, trainingID, employeeID string, limit, offset int) ([]Application, int, error)
	CountedApplications(ctx context.Context, trainingID string) (int, error)
	UpdateApplication(ctx context.Context, a *Application) error
}
