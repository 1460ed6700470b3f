package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const employeeColumns = `
    e.id, e.first_name, e.last_name, e.email,
    COALESCE(e.user_id::text, ''),
    COALESCE(e.position_id::text, ''),
    COALESCE(e.department_id::text, ''),
    e.created_at,
    COALESCE(p.id::text, ''), COALESCE(p.name, ''), COALESCE(p.hierarchy_level, 0),
    COALESCE(p.department_id::text, ''), COALESCE(p.faculty_id::text, ''),
    COALESCE(d.id::text, ''), COALESCE(d.faculty_id::text, ''), COALESCE(d.name, ''),
    COALESCE(d.type, ''), COALESCE(d.head_position_id::text, '')`

const employeeJoins = `
    FROM employees e
    LEFT JOIN positions p ON e.position_id = p.id
    LEFT JOIN departments d ON e.department_id = d.id`

func scanEmployee(row pgx.Row) (*Employee, error) {
	var emp Employee
	var pos Position
	var dep Department
	err := row.Scan(
		&emp.ID, &emp.FirstName, &emp.LastName, &emp.Email,
		&emp.UserID, &emp.PositionID, &emp.DepartmentID, &emp.CreatedAt,
		&pos.ID, &pos.Name, &pos.HierarchyLevel, &pos.DepartmentID, &pos.FacultyID,
		&dep.ID, &dep.FacultyID, &dep.Name, &dep.Type, &dep.HeadPositionID,
	)
	if err != nil {
		return nil, err
	}
	if pos.ID != "" {
		emp.Position = &pos
	}
	if dep.ID != "" {
		emp.Department = &dep
	}
	return &emp, nil
}

func (s *Store) EmployeeByID(ctx context.Context, id string) (*Employee, error) {
	row := s.DB.QueryRow(ctx, "SELECT"+employeeColumns+employeeJoins+" WHERE e.id = $1", id)
	emp, err := scanEmployee(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return emp, err
}

func (s *Store) EmployeeByUserID(ctx context.Context, userID string) (*Employee, error) {
	row := s.DB.QueryRow(ctx, "SELECT"+employeeColumns+employeeJoins+" WHERE e.user_id = $1", userID)
	emp, err := scanEmployee(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return emp, err
}

func (s *Store) PositionByID(ctx context.Context, id string) (*Position, error) {
	var pos Position
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, hierarchy_level, COALESCE(department_id::text, ''), COALESCE(faculty_id::text, '')
    FROM positions
    WHERE id = $1
  `, id).Scan(&pos.ID, &pos.Name, &pos.HierarchyLevel, &pos.DepartmentID, &pos.FacultyID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pos, nil
}

func (s *Store) DepartmentByID(ctx context.Context, id string) (*Department, error) {
	var dep Department
	err := s.DB.QueryRow(ctx, `
    SELECT id, COALESCE(faculty_id::text, ''), name, type, COALESCE(head_position_id::text, ''), created_at
    FROM departments
    WHERE id = $1
  `, id).Scan(&dep.ID, &dep.FacultyID, &dep.Name, &dep.Type, &dep.HeadPositionID, &dep.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &dep, nil
}

func (s *Store) DepartmentIDs(ctx context.Context, facultyID, deptType string) ([]string, error) {
	query := "SELECT id FROM departments WHERE faculty_id = $1"
	args := []any{facultyID}
	if deptType != "" {
		query += " AND type = $2"
		args = append(args, deptType)
	}
	query += " ORDER BY id"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) PositionsAbove(ctx context.Context, departmentID, facultyID string, level int) ([]Position, error) {
	query := `
    SELECT p.id, p.name, p.hierarchy_level, COALESCE(p.department_id::text, ''), COALESCE(p.faculty_id::text, '')
    FROM positions p
    JOIN departments d ON p.department_id = d.id
    WHERE p.department_id = $1 AND p.hierarchy_level > $2
  `
	args := []any{departmentID, level}
	if facultyID != "" {
		query += " AND d.faculty_id = $3"
		args = append(args, facultyID)
	}
	query += " ORDER BY p.hierarchy_level ASC, p.id"

	return s.queryPositions(ctx, query, args...)
}

func (s *Store) FacultyTierPositions(ctx context.Context, facultyID string) ([]Position, error) {
	return s.queryPositions(ctx, `
    SELECT id, name, hierarchy_level, COALESCE(department_id::text, ''), COALESCE(faculty_id::text, '')
    FROM positions
    WHERE faculty_id = $1 AND department_id IS NULL AND hierarchy_level >= $2
    ORDER BY hierarchy_level DESC, id
  `, facultyID, LevelAssociateDean)
}

func (s *Store) TopAdministrativePosition(ctx context.Context, minLevel int) (*Position, error) {
	positions, err := s.queryPositions(ctx, `
    SELECT p.id, p.name, p.hierarchy_level, COALESCE(p.department_id::text, ''), COALESCE(p.faculty_id::text, '')
    FROM positions p
    JOIN departments d ON p.department_id = d.id
    WHERE d.type = $1 AND p.hierarchy_level >= $2
    ORDER BY p.hierarchy_level DESC, p.id
    LIMIT 1
  `, DepartmentAdministrative, minLevel)
	if err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		return nil, nil
	}
	return &positions[0], nil
}

func (s *Store) queryPositions(ctx context.Context, query string, args ...any) ([]Position, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []Position
	for rows.Next() {
		var pos Position
		if err := rows.Scan(&pos.ID, &pos.Name, &pos.HierarchyLevel, &pos.DepartmentID, &pos.FacultyID); err != nil {
			return nil, err
		}
		positions = append(positions, pos)
	}
	return positions, rows.Err()
}

func (s *Store) PositionOccupants(ctx context.Context, positionID, departmentID, facultyID string) ([]Employee, error) {
	query := "SELECT" + employeeColumns + employeeJoins + " WHERE e.position_id = $1"
	args := []any{positionID}
	if departmentID != "" {
		args = append(args, departmentID)
		query += fmt.Sprintf(" AND e.department_id = $%d", len(args))
	}
	if facultyID != "" {
		args = append(args, facultyID)
		query += fmt.Sprintf(" AND d.faculty_id = $%d", len(args))
	}
	query += " ORDER BY e.id"

	return s.queryEmployees(ctx, query, args...)
}

func (s *Store) RoleMembers(ctx context.Context, roleID, departmentID, facultyID string) ([]Employee, error) {
	query := "SELECT" + employeeColumns + employeeJoins + `
    JOIN user_roles ur ON ur.user_id = e.user_id
    WHERE ur.role_id = $1 AND e.department_id = $2`
	args := []any{roleID, departmentID}
	if facultyID != "" {
		args = append(args, facultyID)
		query += " AND d.faculty_id = $3"
	}
	query += " ORDER BY e.id"

	return s.queryEmployees(ctx, query, args...)
}

func (s *Store) UserHoldsRole(ctx context.Context, userID, roleID string) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM user_roles
    WHERE user_id = $1 AND role_id = $2
  `, userID, roleID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) MaxHierarchyLevel(ctx context.Context, departmentID string) (int, error) {
	if departmentID == "" {
		return 0, nil
	}
	var level int
	err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(MAX(hierarchy_level), 0)
    FROM positions
    WHERE department_id = $1
  `, departmentID).Scan(&level)
	if err != nil {
		return 0, err
	}
	return level, nil
}

func (s *Store) queryEmployees(ctx context.Context, query string, args ...any) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, *emp)
	}
	return employees, rows.Err()
}
