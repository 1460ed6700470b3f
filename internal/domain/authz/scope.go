package authz

import (
	"context"

	"unihr/internal/domain/directory"
)

type ScopeKind int

const (
	ScopeNone ScopeKind = iota
	ScopeSelf
	ScopeDepartment
	ScopeFaculty
	ScopeUnrestricted
)

// Scope is the set of employee records an actor may view or manage,
// derived from the actor's own place in the hierarchy.
type Scope struct {
	Kind         ScopeKind
	FacultyID    string
	DepartmentID string
	EmployeeID   string
}

type ScopeResolver struct {
	Dir directory.API
}

func NewScopeResolver(dir directory.API) *ScopeResolver {
	return &ScopeResolver{Dir: dir}
}

// ComputeScope evaluates the scope tiers in order, first match wins:
// admin accounts are unrestricted; dean-tier positions (level 9-10) see
// their faculty; level-8 positions and named department heads see their
// department; everyone else sees only themselves. Actors without an
// employee record or a position match nothing.
func (r *ScopeResolver) ComputeScope(ctx context.Context, userID string, isAdmin bool) (Scope, error) {
	if isAdmin {
		return Scope{Kind: ScopeUnrestricted}, nil
	}

	emp, err := r.Dir.EmployeeByUserID(ctx, userID)
	if err != nil {
		return Scope{}, err
	}
	if emp == nil || emp.Position == nil {
		return Scope{Kind: ScopeNone}, nil
	}

	level := emp.Position.HierarchyLevel
	if level >= directory.LevelAssociateDean && level <= directory.LevelDean {
		facultyID := emp.FacultyID()
		if facultyID == "" {
			return Scope{Kind: ScopeNone}, nil
		}
		return Scope{Kind: ScopeFaculty, FacultyID: facultyID}, nil
	}

	isNamedHead := emp.Department != nil && emp.Department.HeadPositionID != "" &&
		emp.Department.HeadPositionID == emp.PositionID
	if level == directory.LevelDepartmentHead || isNamedHead {
		if emp.DepartmentID == "" {
			return Scope{Kind: ScopeSelf, EmployeeID: emp.ID}, nil
		}
		return Scope{Kind: ScopeDepartment, DepartmentID: emp.DepartmentID}, nil
	}

	return Scope{Kind: ScopeSelf, EmployeeID: emp.ID}, nil
}

// CanView evaluates the scope against one target employee. Dean scope covers
// academic departments of the faculty and department-less faculty positions;
// administrative departments stay outside it even under the same faculty.
func (r *ScopeResolver) CanView(ctx context.Context, scope Scope, targetEmployeeID string) (bool, error) {
	switch scope.Kind {
	case ScopeUnrestricted:
		return true, nil
	case ScopeSelf:
		return targetEmployeeID == scope.EmployeeID, nil
	case ScopeDepartment:
		target, err := r.Dir.EmployeeByID(ctx, targetEmployeeID)
		if err != nil || target == nil {
			return false, err
		}
		return target.DepartmentID != "" && target.DepartmentID == scope.DepartmentID, nil
	case ScopeFaculty:
		target, err := r.Dir.EmployeeByID(ctx, targetEmployeeID)
		if err != nil || target == nil {
			return false, err
		}
		if target.Department != nil {
			return target.Department.Type == directory.DepartmentAcademic &&
				target.Department.FacultyID == scope.FacultyID, nil
		}
		return target.Position != nil && target.Position.FacultyID == scope.FacultyID, nil
	}
	return false, nil
}

// ManageableDepartmentIDs returns the department ids the scope covers:
// nil means unrestricted, an empty slice means none.
func (r *ScopeResolver) ManageableDepartmentIDs(ctx context.Context, scope Scope) ([]string, error) {
	switch scope.Kind {
	case ScopeUnrestricted:
		return nil, nil
	case ScopeFaculty:
		ids, err := r.Dir.DepartmentIDs(ctx, scope.FacultyID, directory.DepartmentAcademic)
		if err != nil {
			return nil, err
		}
		if ids == nil {
			ids = []string{}
		}
		return ids, nil
	case ScopeDepartment:
		return []string{scope.DepartmentID}, nil
	}
	return []string{}, nil
}

// ManageableFacultyIDs mirrors ManageableDepartmentIDs at faculty level.
func (r *ScopeResolver) ManageableFacultyIDs(_ context.Context, scope Scope) ([]string, error) {
	switch scope.Kind {
	case ScopeUnrestricted:
		return nil, nil
	case ScopeFaculty:
		return []string{scope.FacultyID}, nil
	}
	return []string{}, nil
}
