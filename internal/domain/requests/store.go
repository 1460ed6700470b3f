package requests

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

func (s *PgStore) CreateRequestType(ctx context.Context, rt *RequestType) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO request_types (name, description) VALUES ($1, $2) RETURNING id`,
		rt.Name, rt.Description,
	).Scan(&rt.ID)
	if err != nil {
		return fmt.Errorf("insert request type: %w", err)
	}

	for i := range rt.Steps {
		step := &rt.Steps[i]
		step.RequestTypeID = rt.ID
		err = tx.QueryRow(ctx,
			`INSERT INTO approval_steps (request_type_id, seq, name, description)
			 VALUES ($1, $2, $3, $4) RETURNING id`,
			rt.ID, step.Seq, step.Name, step.Description,
		).Scan(&step.ID)
		if err != nil {
			return fmt.Errorf("insert step: %w", err)
		}
		for j := range step.Approvers {
			approver := &step.Approvers[j]
			approver.StepID = step.ID
			err = tx.QueryRow(ctx,
				`INSERT INTO step_approvers (step_id, kind, user_id, role_id, position_id)
				 VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, '')) RETURNING id`,
				step.ID, approver.Kind, approver.UserID, approver.RoleID, approver.PositionID,
			).Scan(&approver.ID)
			if err != nil {
				return fmt.Errorf("insert step approver: %w", err)
			}
		}
	}
	return tx.Commit(ctx)
}

func (s *PgStore) RequestTypeByID(ctx context.Context, id string) (*RequestType, error) {
	var rt RequestType
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, COALESCE(description, '') FROM request_types WHERE id = $1`, id,
	).Scan(&rt.ID, &rt.Name, &rt.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query request type: %w", err)
	}
	if err := s.loadSteps(ctx, &rt); err != nil {
		return nil, err
	}
	return &rt, nil
}

func (s *PgStore) loadSteps(ctx context.Context, rt *RequestType) error {
	rows, err := s.pool.Query(ctx, `
		SELECT id, request_type_id, seq, name, COALESCE(description, '')
		FROM approval_steps WHERE request_type_id = $1 ORDER BY seq`, rt.ID)
	if err != nil {
		return fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var step Step
		if err := rows.Scan(&step.ID, &step.RequestTypeID, &step.Seq, &step.Name, &step.Description); err != nil {
			return fmt.Errorf("scan step: %w", err)
		}
		rt.Steps = append(rt.Steps, step)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range rt.Steps {
		step := &rt.Steps[i]
		arows, err := s.pool.Query(ctx, `
			SELECT id, step_id, kind, COALESCE(user_id::text, ''), COALESCE(role_id::text, ''), COALESCE(position_id::text, '')
			FROM step_approvers WHERE step_id = $1 ORDER BY id`, step.ID)
		if err != nil {
			return fmt.Errorf("query step approvers: %w", err)
		}
		for arows.Next() {
			var sa StepApprover
			if err := arows.Scan(&sa.ID, &sa.StepID, &sa.Kind, &sa.UserID, &sa.RoleID, &sa.PositionID); err != nil {
				arows.Close()
				return fmt.Errorf("scan step approver: %w", err)
			}
			step.Approvers = append(step.Approvers, sa)
		}
		if err := arows.Err(); err != nil {
			arows.Close()
			return err
		}
		arows.Close()
	}
	return nil
}

func (s *PgStore) ListRequestTypes(ctx context.Context) ([]RequestType, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, COALESCE(description, '') FROM request_types ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query request types: %w", err)
	}
	defer rows.Close()

	var types []RequestType
	for rows.Next() {
		var rt RequestType
		if err := rows.Scan(&rt.ID, &rt.Name, &rt.Description); err != nil {
			return nil, fmt.Errorf("scan request type: %w", err)
		}
		types = append(types, rt)
	}
	return types, rows.Err()
}

func (s *PgStore) CreateRequest(ctx context.Context, req *Request, actions []Action) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO requests (request_type_id, requester_employee_id, subject, status, current_step_seq)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		req.RequestTypeID, req.RequesterEmployeeID, req.Subject, req.Status, req.CurrentStepSeq,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert request: %w", err)
	}

	if err := insertActions(ctx, tx, req.ID, actions); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func insertActions(ctx context.Context, tx pgx.Tx, requestID string, actions []Action) error {
	for i := range actions {
		a := &actions[i]
		a.RequestID = requestID
		err := tx.QueryRow(ctx, `
			INSERT INTO approval_actions
				(request_id, step_id, kind, user_id, role_id, position_id,
				 escalated, escalated_to_faculty, original_reference, status)
			VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7, $8, NULLIF($9, ''), $10)
			RETURNING id`,
			requestID, a.StepID, a.Kind, a.UserID, a.RoleID, a.PositionID,
			a.Escalated, a.EscalatedToFaculty, a.OriginalReference, a.Status,
		).Scan(&a.ID)
		if err != nil {
			return fmt.Errorf("insert action: %w", err)
		}
	}
	return nil
}

func (s *PgStore) RequestByID(ctx context.Context, id string) (*Request, error) {
	var req Request
	err := s.pool.QueryRow(ctx, `
		SELECT id, request_type_id, requester_employee_id, subject, status, current_step_seq, created_at, updated_at
		FROM requests WHERE id = $1`, id,
	).Scan(&req.ID, &req.RequestTypeID, &req.RequesterEmployeeID, &req.Subject, &req.Status, &req.CurrentStepSeq, &req.CreatedAt, &req.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query request: %w", err)
	}
	return &req, nil
}

func (s *PgStore) ListRequests(ctx context.Context, filter RequestFilter) ([]Request, int, error) {
	where := "WHERE 1=1"
	args := []any{}
	if filter.RequesterEmployeeID != "" {
		args = append(args, filter.RequesterEmployeeID)
		where += fmt.Sprintf(" AND requester_employee_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int
	if err := s.pool.QueryRow(ctx, fmt.Sprintf("SELECT count(*) FROM requests %s", where), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count requests: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`
		SELECT id, request_type_id, requester_employee_id, subject, status, current_step_seq, created_at, updated_at
		FROM requests %s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query requests: %w", err)
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		var req Request
		if err := rows.Scan(&req.ID, &req.RequestTypeID, &req.RequesterEmployeeID, &req.Subject, &req.Status, &req.CurrentStepSeq, &req.CreatedAt, &req.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan request: %w", err)
		}
		out = append(out, req)
	}
	return out, total, rows.Err()
}

const actionColumns = `
	a.id, a.request_id, a.step_id, a.kind,
	COALESCE(a.user_id::text, ''), COALESCE(a.role_id::text, ''), COALESCE(a.position_id::text, ''),
	a.escalated, a.escalated_to_faculty, COALESCE(a.original_reference, ''),
	a.status, COALESCE(a.decided_by::text, ''), a.decided_at`

func scanAction(row pgx.Row) (Action, error) {
	var a Action
	err := row.Scan(&a.ID, &a.RequestID, &a.StepID, &a.Kind,
		&a.UserID, &a.RoleID, &a.PositionID,
		&a.Escalated, &a.EscalatedToFaculty, &a.OriginalReference,
		&a.Status, &a.DecidedBy, &a.DecidedAt)
	return a, err
}

func (s *PgStore) Actions(ctx context.Context, requestID string) ([]Action, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM approval_actions a
		WHERE a.request_id = $1 ORDER BY a.id`, actionColumns), requestID)
	if err != nil {
		return nil, fmt.Errorf("query actions: %w", err)
	}
	defer rows.Close()

	var actions []Action
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

func (s *PgStore) OpenActions(ctx context.Context) ([]Action, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM approval_actions a
		JOIN requests r ON r.id = a.request_id
		WHERE a.status = 'pending' AND r.status = 'pending'
		ORDER BY a.id`, actionColumns))
	if err != nil {
		return nil, fmt.Errorf("query open actions: %w", err)
	}
	defer rows.Close()

	var actions []Action
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

func (s *PgStore) DecideAction(ctx context.Context, actionID, status, decidedBy string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE approval_actions
		SET status = $1, decided_by = $2, decided_at = now()
		WHERE id = $3 AND status = 'pending'`,
		status, decidedBy, actionID)
	if err != nil {
		return fmt.Errorf("decide action: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *PgStore) AdvanceRequest(ctx context.Context, requestID, status string, stepSeq int, actions []Action) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE requests SET status = $1, current_step_seq = $2, updated_at = now()
		WHERE id = $3`,
		status, stepSeq, requestID)
	if err != nil {
		return fmt.Errorf("advance request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	if err := insertActions(ctx, tx, requestID, actions); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PgStore) UpdateRequestStatus(ctx context.Context, requestID, status string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE requests SET status = $1, updated_at = now() WHERE id = $2`,
		status, requestID)
	if err != nil {
		return fmt.Errorf("update request status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
