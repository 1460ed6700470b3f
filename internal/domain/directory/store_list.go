package directory

import (
	"context"
	"fmt"
)

// EmployeeFilter narrows employee listings to what the acting user's scope
// allows. Exactly one of the three narrowing fields is set for scoped
// actors; all empty means unrestricted.
type EmployeeFilter struct {
	// FacultyID applies the dean-tier predicate: employees in academic
	// departments of the faculty, or holding a department-less position in it.
	FacultyID    string
	DepartmentID string
	EmployeeID   string
	Limit        int
	Offset       int
}

func (s *Store) ListEmployees(ctx context.Context, filter EmployeeFilter) ([]Employee, int, error) {
	where := " WHERE 1=1"
	var args []any
	switch {
	case filter.FacultyID != "":
		args = append(args, filter.FacultyID)
		where += fmt.Sprintf(" AND ((d.type = '%s' AND d.faculty_id = $1) OR (e.department_id IS NULL AND p.faculty_id = $1))", DepartmentAcademic)
	case filter.DepartmentID != "":
		args = append(args, filter.DepartmentID)
		where += " AND e.department_id = $1"
	case filter.EmployeeID != "":
		args = append(args, filter.EmployeeID)
		where += " AND e.id = $1"
	}

	var total int
	countQuery := "SELECT COUNT(1)" + employeeJoins + where
	if err := s.DB.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT" + employeeColumns + employeeJoins + where + " ORDER BY e.last_name, e.first_name, e.id"
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	employees, err := s.queryEmployees(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return employees, total, nil
}

func (s *Store) ListFaculties(ctx context.Context) ([]Faculty, error) {
	rows, err := s.DB.Query(ctx, "SELECT id, name, code FROM faculties ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var faculties []Faculty
	for rows.Next() {
		var f Faculty
		if err := rows.Scan(&f.ID, &f.Name, &f.Code); err != nil {
			return nil, err
		}
		faculties = append(faculties, f)
	}
	return faculties, rows.Err()
}

func (s *Store) ListDepartments(ctx context.Context, facultyIDs []string) ([]Department, error) {
	query := `
    SELECT id, COALESCE(faculty_id::text, ''), name, type, COALESCE(head_position_id::text, ''), created_at
    FROM departments
  `
	var args []any
	if facultyIDs != nil {
		args = append(args, facultyIDs)
		query += " WHERE faculty_id = ANY($1)"
	}
	query += " ORDER BY name"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var departments []Department
	for rows.Next() {
		var dep Department
		if err := rows.Scan(&dep.ID, &dep.FacultyID, &dep.Name, &dep.Type, &dep.HeadPositionID, &dep.CreatedAt); err != nil {
			return nil, err
		}
		departments = append(departments, dep)
	}
	return departments, rows.Err()
}

func (s *Store) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := s.DB.Query(ctx, "SELECT id, name FROM roles ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}
