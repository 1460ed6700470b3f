package authz

import (
	"context"
	"sort"

	"unihr/internal/domain/directory"
)

// fakeDirectory is an in-memory directory.API with the same ordering
// guarantees as the SQL store (stable id order, closest-level-first,
// faculty tier descending).
type fakeDirectory struct {
	faculties   map[string]*directory.Faculty
	departments map[string]*directory.Department
	positions   map[string]*directory.Position
	employees   map[string]*directory.Employee
	roleMembers map[string]map[string]bool // role id -> user ids
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		faculties:   make(map[string]*directory.Faculty),
		departments: make(map[string]*directory.Department),
		positions:   make(map[string]*directory.Position),
		employees:   make(map[string]*directory.Employee),
		roleMembers: make(map[string]map[string]bool),
	}
}

func (f *fakeDirectory) addFaculty(id, name string) {
	f.faculties[id] = &directory.Faculty{ID: id, Name: name}
}

func (f *fakeDirectory) addDepartment(id, facultyID, deptType, headPositionID string) {
	f.departments[id] = &directory.Department{ID: id, FacultyID: facultyID, Type: deptType, HeadPositionID: headPositionID, Name: id}
}

func (f *fakeDirectory) addPosition(id string, level int, departmentID, facultyID string) {
	f.positions[id] = &directory.Position{ID: id, Name: id, HierarchyLevel: level, DepartmentID: departmentID, FacultyID: facultyID}
}

func (f *fakeDirectory) addEmployee(id, userID, positionID, departmentID string) {
	emp := &directory.Employee{ID: id, UserID: userID, PositionID: positionID, DepartmentID: departmentID}
	if positionID != "" {
		emp.Position = f.positions[positionID]
	}
	if departmentID != "" {
		emp.Department = f.departments[departmentID]
	}
	f.employees[id] = emp
}

func (f *fakeDirectory) addRoleMember(roleID, userID string) {
	if f.roleMembers[roleID] == nil {
		f.roleMembers[roleID] = make(map[string]bool)
	}
	f.roleMembers[roleID][userID] = true
}

func (f *fakeDirectory) EmployeeByID(_ context.Context, id string) (*directory.Employee, error) {
	return f.employees[id], nil
}

func (f *fakeDirectory) EmployeeByUserID(_ context.Context, userID string) (*directory.Employee, error) {
	for _, id := range sortedKeys(f.employees) {
		if f.employees[id].UserID == userID && userID != "" {
			return f.employees[id], nil
		}
	}
	return nil, nil
}

func (f *fakeDirectory) PositionByID(_ context.Context, id string) (*directory.Position, error) {
	return f.positions[id], nil
}

func (f *fakeDirectory) DepartmentByID(_ context.Context, id string) (*directory.Department, error) {
	return f.departments[id], nil
}

func (f *fakeDirectory) DepartmentIDs(_ context.Context, facultyID, deptType string) ([]string, error) {
	var ids []string
	for _, id := range sortedKeys(f.departments) {
		dep := f.departments[id]
		if dep.FacultyID != facultyID {
			continue
		}
		if deptType != "" && dep.Type != deptType {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeDirectory) PositionsAbove(_ context.Context, departmentID, facultyID string, level int) ([]directory.Position, error) {
	var out []directory.Position
	for _, id := range sortedKeys(f.positions) {
		pos := f.positions[id]
		if pos.DepartmentID != departmentID || pos.HierarchyLevel <= level {
			continue
		}
		if facultyID != "" {
			dep := f.departments[pos.DepartmentID]
			if dep == nil || dep.FacultyID != facultyID {
				continue
			}
		}
		out = append(out, *pos)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].HierarchyLevel < out[j].HierarchyLevel })
	return out, nil
}

func (f *fakeDirectory) FacultyTierPositions(_ context.Context, facultyID string) ([]directory.Position, error) {
	var out []directory.Position
	for _, id := range sortedKeys(f.positions) {
		pos := f.positions[id]
		if pos.FacultyID == facultyID && pos.DepartmentID == "" && pos.HierarchyLevel >= directory.LevelAssociateDean {
			out = append(out, *pos)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].HierarchyLevel > out[j].HierarchyLevel })
	return out, nil
}

func (f *fakeDirectory) PositionOccupants(_ context.Context, positionID, departmentID, facultyID string) ([]directory.Employee, error) {
	var out []directory.Employee
	for _, id := range sortedKeys(f.employees) {
		emp := f.employees[id]
		if emp.PositionID != positionID {
			continue
		}
		if departmentID != "" && emp.DepartmentID != departmentID {
			continue
		}
		if facultyID != "" {
			if emp.Department == nil || emp.Department.FacultyID != facultyID {
				continue
			}
		}
		out = append(out, *emp)
	}
	return out, nil
}

func (f *fakeDirectory) RoleMembers(_ context.Context, roleID, departmentID, facultyID string) ([]directory.Employee, error) {
	members := f.roleMembers[roleID]
	var out []directory.Employee
	for _, id := range sortedKeys(f.employees) {
		emp := f.employees[id]
		if emp.UserID == "" || !members[emp.UserID] {
			continue
		}
		if emp.DepartmentID != departmentID {
			continue
		}
		if facultyID != "" {
			if emp.Department == nil || emp.Department.FacultyID != facultyID {
				continue
			}
		}
		out = append(out, *emp)
	}
	return out, nil
}

func (f *fakeDirectory) UserHoldsRole(_ context.Context, userID, roleID string) (bool, error) {
	return f.roleMembers[roleID][userID], nil
}

func (f *fakeDirectory) MaxHierarchyLevel(_ context.Context, departmentID string) (int, error) {
	if departmentID == "" {
		return 0, nil
	}
	maxLevel := 0
	for _, pos := range f.positions {
		if pos.DepartmentID == departmentID && pos.HierarchyLevel > maxLevel {
			maxLevel = pos.HierarchyLevel
		}
	}
	return maxLevel, nil
}

func (f *fakeDirectory) TopAdministrativePosition(_ context.Context, minLevel int) (*directory.Position, error) {
	var top *directory.Position
	for _, id := range sortedKeys(f.positions) {
		pos := f.positions[id]
		if pos.DepartmentID == "" {
			continue
		}
		dep := f.departments[pos.DepartmentID]
		if dep == nil || dep.Type != directory.DepartmentAdministrative || pos.HierarchyLevel < minLevel {
			continue
		}
		if top == nil || pos.HierarchyLevel > top.HierarchyLevel {
			top = pos
		}
	}
	return top, nil
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
