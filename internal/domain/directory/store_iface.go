package directory

import "context"

// API is the read-only view of the organizational directory consumed by the
// authorization core. By-id lookups return (nil, nil) when the row does not
// exist so stale references in step configs degrade to "no match" instead of
// failing resolution.
type API interface {
	EmployeeByID(ctx context.Context, id string) (*Employee, error)
	EmployeeByUserID(ctx context.Context, userID string) (*Employee, error)
	PositionByID(ctx context.Context, id string) (*Position, error)
	DepartmentByID(ctx context.Context, id string) (*Department, error)

	// DepartmentIDs lists departments of a faculty, optionally restricted to
	// one department type.
	DepartmentIDs(ctx context.Context, facultyID, deptType string) ([]string, error)

	// PositionsAbove lists positions in the department with a hierarchy level
	// strictly greater than level, closest level first. When facultyID is
	// non-empty the department must belong to that faculty.
	PositionsAbove(ctx context.Context, departmentID, facultyID string, level int) ([]Position, error)

	// FacultyTierPositions lists department-less positions of the faculty at
	// associate-dean level or above, highest level first.
	FacultyTierPositions(ctx context.Context, facultyID string) ([]Position, error)

	// PositionOccupants lists employees holding the position, in stable id
	// order. departmentID and facultyID narrow the search when non-empty.
	PositionOccupants(ctx context.Context, positionID, departmentID, facultyID string) ([]Employee, error)

	// RoleMembers lists employees whose linked user holds the role and whose
	// department matches departmentID (and facultyID when non-empty).
	RoleMembers(ctx context.Context, roleID, departmentID, facultyID string) ([]Employee, error)

	// UserHoldsRole reports live role membership, used at act time for
	// approver entries that were passed through unresolved.
	UserHoldsRole(ctx context.Context, userID, roleID string) (bool, error)

	// MaxHierarchyLevel returns the highest hierarchy level among the
	// department's positions, or 0 when the department has none.
	MaxHierarchyLevel(ctx context.Context, departmentID string) (int, error)

	// TopAdministrativePosition returns the highest-level position at or
	// above minLevel inside any administrative department, or nil.
	TopAdministrativePosition(ctx context.Context, minLevel int) (*Position, error)
}
