package directory

import "time"

const (
	DepartmentAcademic       = "academic"
	DepartmentAdministrative = "administrative"
)

// Hierarchy levels attached to positions. 1 is the lowest staff rank.
const (
	LevelDepartmentHead = 8
	LevelAssociateDean  = 9
	LevelDean           = 10
)

type Faculty struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

type Department struct {
	ID             string    `json:"id"`
	FacultyID      string    `json:"facultyId,omitempty"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	HeadPositionID string    `json:"headPositionId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

type Position struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	HierarchyLevel int    `json:"hierarchyLevel"`
	DepartmentID   string `json:"departmentId,omitempty"`
	FacultyID      string `json:"facultyId,omitempty"`
}

type Employee struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	UserID       string    `json:"userId,omitempty"`
	PositionID   string    `json:"positionId,omitempty"`
	DepartmentID string    `json:"departmentId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`

	Position   *Position   `json:"position,omitempty"`
	Department *Department `json:"department,omitempty"`
}

// Role is a named approver group; membership is carried by linked user
// accounts, not by employees directly.
type Role struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FacultyID returns the employee's effective faculty: the department's
// faculty when a department is present, else the position's.
func (e *Employee) FacultyID() string {
	if e == nil {
		return ""
	}
	if e.Department != nil && e.Department.FacultyID != "" {
		return e.Department.FacultyID
	}
	if e.Position != nil {
		return e.Position.FacultyID
	}
	return ""
}

// HierarchyLevel returns the employee's position level, or 1 when the
// employee holds no position.
func (e *Employee) HierarchyLevel() int {
	if e == nil || e.Position == nil {
		return 1
	}
	return e.Position.HierarchyLevel
}
