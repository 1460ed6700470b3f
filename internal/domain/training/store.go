package training

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) CreateTraining(ctx context.Context, t *Training) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO trainings (title, description, start_date, end_date, capacity, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		t.Title, t.Description, t.StartDate, t.EndDate, t.Capacity, t.Status,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert training: %w", err)
	}

	if err := replaceRestrictions(ctx, tx, t); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PgStore) UpdateTraining(ctx context.Context, t *Training) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE trainings
		SET title = $1, description = $2, start_date = $3, end_date = $4,
		    capacity = $5, status = $6, updated_at = now()
		WHERE id = $7`,
		t.Title, t.Description, t.StartDate, t.EndDate, t.Capacity, t.Status, t.ID)
	if err != nil {
		return fmt.Errorf("update training: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	if err := replaceRestrictions(ctx, tx, t); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func replaceRestrictions(ctx context.Context, tx pgx.Tx, t *Training) error {
	tables := []struct {
		table  string
		column string
		ids    []string
	}{
		{"training_faculties", "faculty_id", t.FacultyIDs},
		{"training_departments", "department_id", t.DepartmentIDs},
		{"training_positions", "position_id", t.PositionIDs},
	}
	for _, rt := range tables {
		if _, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE training_id = $1", rt.table), t.ID); err != nil {
			return fmt.Errorf("clear %s: %w", rt.table, err)
		}
		for _, id := range rt.ids {
			if _, err := tx.Exec(ctx,
				fmt.Sprintf("INSERT INTO %s (training_id, %s) VALUES ($1, $2)", rt.table, rt.column),
				t.ID, id); err != nil {
				return fmt.Errorf("insert %s: %w", rt.table, err)
			}
		}
	}
	return nil
}

func (s *PgStore) TrainingByID(ctx context.Context, id string) (*Training, error) {
	var t Training
	err := s.pool.QueryRow(ctx, `
		SELECT id, title, description, start_date, end_date, capacity, status, created_at, updated_at
		FROM trainings WHERE id = $1`, id,
	).Scan(&t.ID, &t.Title, &t.Description, &t.StartDate, &t.EndDate, &t.Capacity, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query training: %w", err)
	}
	if err := s.loadRestrictions(ctx, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *PgStore) loadRestrictions(ctx context.Context, t *Training) error {
	load := func(query string, dst *[]string) error {
		rows, err := s.pool.Query(ctx, query, t.ID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				return err
			}
			*dst = append(*dst, id)
		}
		return rows.Err()
	}

	if err := load(`SELECT faculty_id FROM training_faculties WHERE training_id = $1 ORDER BY faculty_id`, &t.FacultyIDs); err != nil {
		return fmt.Errorf("load faculty restrictions: %w", err)
	}
	if err := load(`SELECT department_id FROM training_departments WHERE training_id = $1 ORDER BY department_id`, &t.DepartmentIDs); err != nil {
		return fmt.Errorf("load department restrictions: %w", err)
	}
	if err := load(`SELECT position_id FROM training_positions WHERE training_id = $1 ORDER BY position_id`, &t.PositionIDs); err != nil {
		return fmt.Errorf("load position restrictions: %w", err)
	}
	return nil
}

func (s *PgStore) ListTrainings(ctx context.Context, status string, limit, offset int) ([]Training, int, error) {
	where := ""
	args := []any{}
	if status != "" {
		args = append(args, status)
		where = "WHERE status = $1"
	}

	var total int
	if err := s.pool.QueryRow(ctx, fmt.Sprintf("SELECT count(*) FROM trainings %s", where), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count trainings: %w", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT id, title, description, start_date, end_date, capacity, status, created_at, updated_at
		FROM trainings %s
		ORDER BY start_date DESC, id
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query trainings: %w", err)
	}
	defer rows.Close()

	var trainings []Training
	for rows.Next() {
		var t Training
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.StartDate, &t.EndDate, &t.Capacity, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan training: %w", err)
		}
		trainings = append(trainings, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for i := range trainings {
		if err := s.loadRestrictions(ctx, &trainings[i]); err != nil {
			return nil, 0, err
		}
	}
	return trainings, total, nil
}

func (s *PgStore) CreateApplication(ctx context.Context, a *Application) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO training_applications (training_id, employee_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`,
		a.TrainingID, a.EmployeeID, a.Status,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

func (s *PgStore) ApplicationByID(ctx context.Context, id string) (*Application, error) {
	var a Application
	err := s.pool.QueryRow(ctx, `
		SELECT id, training_id, employee_id, status, COALESCE(certificate_ref, ''), created_at, updated_at
		FROM training_applications WHERE id = $1`, id,
	).Scan(&a.ID, &a.TrainingID, &a.EmployeeID, &a.Status, &a.CertificateRef, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query application: %w", err)
	}
	return &a, nil
}

// ActiveApplication returns the applicant's current non-terminal application
// for the training, if any.
func (s *PgStore) ActiveApplication(ctx context.Context, trainingID, employeeID string) (*Application, error) {
	var a Application
	err := s.pool.QueryRow(ctx, `
		SELECT id, training_id, employee_id, status, COALESCE(certificate_ref, ''), created_at, updated_at
		FROM training_applications
		WHERE training_id = $1 AND employee_id = $2 AND status = ANY($3)
		ORDER BY created_at DESC
		LIMIT 1`,
		trainingID, employeeID, countedStatuses,
	).Scan(&a.ID, &a.TrainingID, &a.EmployeeID, &a.Status, &a.CertificateRef, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query active application: %w", err)
	}
	return &a, nil
}

func (s *PgStore) ListApplications(ctx context.Context, trainingID, employeeID string, limit, offset int) ([]Application, int, error) {
	where := "WHERE 1=1"
	args := []any{}
	if trainingID != "" {
		args = append(args, trainingID)
		where += fmt.Sprintf(" AND training_id = $%d", len(args))
	}
	if employeeID != "" {
		args = append(args, employeeID)
		where += fmt.Sprintf(" AND employee_id = $%d", len(args))
	}

	var total int
	if err := s.pool.QueryRow(ctx, fmt.Sprintf("SELECT count(*) FROM training_applications %s", where), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count applications: %w", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT id, training_id, employee_id, status, COALESCE(certificate_ref, ''), created_at, updated_at
		FROM training_applications %s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query applications: %w", err)
	}
	defer rows.Close()

	var apps []Application
	for rows.Next() {
		var a Application
		if err := rows.Scan(&a.ID, &a.TrainingID, &a.EmployeeID, &a.Status, &a.CertificateRef, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan application: %w", err)
		}
		apps = append(apps, a)
	}
	return apps, total, rows.Err()
}

// CountedApplications counts applications that consume a capacity spot.
func (s *PgStore) CountedApplications(ctx context.Context, trainingID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM training_applications
		WHERE training_id = $1 AND status = ANY($2)`,
		trainingID, countedStatuses,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count applications: %w", err)
	}
	return count, nil
}

func (s *PgStore) UpdateApplication(ctx context.Context, a *Application) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE training_applications
		SET status = $1, certificate_ref = NULLIF($2, ''), updated_at = now()
		WHERE id = $3`,
		a.Status, a.CertificateRef, a.ID)
	if err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
