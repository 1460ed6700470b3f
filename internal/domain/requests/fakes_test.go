package requests

import (
	"context"
	"fmt"
	"sort"

	"unihr/internal/domain/directory"
)

// fakeDir is an in-memory directory.API for workflow tests.
type fakeDir struct {
	faculties   map[string]*directory.Faculty
	departments map[string]*directory.Department
	positions   map[string]*directory.Position
	employees   map[string]*directory.Employee
	byUser      map[string]string
	roleMembers map[string]map[string]bool
}

func newFakeDir() *fakeDir {
	return &fakeDir{
		faculties:   map[string]*directory.Faculty{},
		departments: map[string]*directory.Department{},
		positions:   map[string]*directory.Position{},
		employees:   map[string]*directory.Employee{},
		byUser:      map[string]string{},
		roleMembers: map[string]map[string]bool{},
	}
}

func (f *fakeDir) addDepartment(id, facultyID, deptType, headPositionID string) {
	f.departments[id] = &directory.Department{ID: id, FacultyID: facultyID, Type: deptType, HeadPositionID: headPositionID}
}

func (f *fakeDir) addPosition(id string, level int, departmentID, facultyID string) {
	f.positions[id] = &directory.Position{ID: id, Name: id, HierarchyLevel: level, DepartmentID: departmentID, FacultyID: facultyID}
}

func (f *fakeDir) addEmployee(id, userID, positionID, departmentID string) {
	emp := &directory.Employee{ID: id, UserID: userID, PositionID: positionID, DepartmentID: departmentID}
	if positionID != "" {
		emp.Position = f.positions[positionID]
	}
	if departmentID != "" {
		emp.Department = f.departments[departmentID]
	}
	f.employees[id] = emp
	if userID != "" {
		f.byUser[userID] = id
	}
}

func (f *fakeDir) grantRole(userID, roleID string) {
	if f.roleMembers[roleID] == nil {
		f.roleMembers[roleID] = map[string]bool{}
	}
	f.roleMembers[roleID][userID] = true
}

func (f *fakeDir) EmployeeByID(_ context.Context, id string) (*directory.Employee, error) {
	return f.employees[id], nil
}

func (f *fakeDir) EmployeeByUserID(_ context.Context, userID string) (*directory.Employee, error) {
	return f.employees[f.byUser[userID]], nil
}

func (f *fakeDir) PositionByID(_ context.Context, id string) (*directory.Position, error) {
	return f.positions[id], nil
}

func (f *fakeDir) DepartmentByID(_ context.Context, id string) (*directory.Department, error) {
	return f.departments[id], nil
}

func (f *fakeDir) DepartmentIDs(_ context.Context, facultyID, deptType string) ([]string, error) {
	var ids []string
	for id, dep := range f.departments {
		if dep.FacultyID != facultyID {
			continue
		}
		if deptType != "" && dep.Type != deptType {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *fakeDir) PositionsAbove(_ context.Context, departmentID, facultyID string, level int) ([]directory.Position, error) {
	var out []directory.Position
	for _, pos := range f.positions {
		if pos.DepartmentID != departmentID || pos.HierarchyLevel <= level {
			continue
		}
		if facultyID != "" {
			dep := f.departments[departmentID]
			if dep == nil || dep.FacultyID != facultyID {
				continue
			}
		}
		out = append(out, *pos)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].HierarchyLevel != out[j].HierarchyLevel {
			return out[i].HierarchyLevel < out[j].HierarchyLevel
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeDir) FacultyTierPositions(_ context.Context, facultyID string) ([]directory.Position, error) {
	var out []directory.Position
	for _, pos := range f.positions {
		if pos.FacultyID != facultyID || pos.DepartmentID != "" {
			continue
		}
		if pos.HierarchyLevel < directory.LevelAssociateDean {
			continue
		}
		out = append(out, *pos)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].HierarchyLevel != out[j].HierarchyLevel {
			return out[i].HierarchyLevel > out[j].HierarchyLevel
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeDir) PositionOccupants(_ context.Context, positionID, departmentID, facultyID string) ([]directory.Employee, error) {
	var out []directory.Employee
	for _, emp := range f.employees {
		if emp.PositionID != positionID {
			continue
		}
		if departmentID != "" && emp.DepartmentID != departmentID {
			continue
		}
		if facultyID != "" && emp.FacultyID() != facultyID {
			continue
		}
		out = append(out, *emp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeDir) RoleMembers(_ context.Context, roleID, departmentID, facultyID string) ([]directory.Employee, error) {
	var out []directory.Employee
	for _, emp := range f.employees {
		if emp.UserID == "" || !f.roleMembers[roleID][emp.UserID] {
			continue
		}
		if departmentID != "" && emp.DepartmentID != departmentID {
			continue
		}
		if facultyID != "" && emp.FacultyID() != facultyID {
			continue
		}
		out = append(out, *emp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeDir) UserHoldsRole(_ context.Context, userID, roleID string) (bool, error) {
	return f.roleMembers[roleID][userID], nil
}

func (f *fakeDir) MaxHierarchyLevel(_ context.Context, departmentID string) (int, error) {
	max := 0
	for _, pos := range f.positions {
		if pos.DepartmentID == departmentID && pos.HierarchyLevel > max {
			max = pos.HierarchyLevel
		}
	}
	return max, nil
}

func (f *fakeDir) TopAdministrativePosition(_ context.Context, minLevel int) (*directory.Position, error) {
	var top *directory.Position
	for _, pos := range f.positions {
		dep := f.departments[pos.DepartmentID]
		if dep == nil || dep.Type != directory.DepartmentAdministrative {
			continue
		}
		if pos.HierarchyLevel < minLevel {
			continue
		}
		if top == nil || pos.HierarchyLevel > top.HierarchyLevel ||
			(pos.HierarchyLevel == top.HierarchyLevel && pos.ID < top.ID) {
			top = pos
		}
	}
	return top, nil
}

// fakeStore is an in-memory Store for workflow tests.
type fakeStore struct {
	types    map[string]*RequestType
	requests map[string]*Request
	actions  map[string]*Action
	nextID   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		types:    map[string]*RequestType{},
		requests: map[string]*Request{},
		actions:  map[string]*Action{},
	}
}

func (f *fakeStore) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeStore) CreateRequestType(_ context.Context, rt *RequestType) error {
	rt.ID = f.id("type")
	for i := range rt.Steps {
		rt.Steps[i].ID = f.id("step")
		rt.Steps[i].RequestTypeID = rt.ID
		for j := range rt.Steps[i].Approvers {
			rt.Steps[i].Approvers[j].ID = f.id("sa")
			rt.Steps[i].Approvers[j].StepID = rt.Steps[i].ID
		}
	}
	copied := *rt
	f.types[rt.ID] = &copied
	return nil
}

func (f *fakeStore) RequestTypeByID(_ context.Context, id string) (*RequestType, error) {
	rt, ok := f.types[id]
	if !ok {
		return nil, nil
	}
	copied := *rt
	return &copied, nil
}

func (f *fakeStore) ListRequestTypes(_ context.Context) ([]RequestType, error) {
	var out []RequestType
	for _, rt := range f.types {
		out = append(out, *rt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) CreateRequest(_ context.Context, req *Request, actions []Action) error {
	req.ID = f.id("req")
	copied := *req
	f.requests[req.ID] = &copied
	for i := range actions {
		actions[i].ID = f.id("act")
		actions[i].RequestID = req.ID
		a := actions[i]
		f.actions[a.ID] = &a
	}
	return nil
}

func (f *fakeStore) RequestByID(_ context.Context, id string) (*Request, error) {
	req, ok := f.requests[id]
	if !ok {
		return nil, nil
	}
	copied := *req
	return &copied, nil
}

func (f *fakeStore) ListRequests(_ context.Context, filter RequestFilter) ([]Request, int, error) {
	var out []Request
	for _, req := range f.requests {
		if filter.RequesterEmployeeID != "" && req.RequesterEmployeeID != filter.RequesterEmployeeID {
			continue
		}
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		out = append(out, *req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (f *fakeStore) Actions(_ context.Context, requestID string) ([]Action, error) {
	var out []Action
	for _, a := range f.actions {
		if a.RequestID == requestID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) OpenActions(_ context.Context) ([]Action, error) {
	var out []Action
	for _, a := range f.actions {
		req := f.requests[a.RequestID]
		if a.Status == ActionPending && req != nil && req.Status == StatusPending {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) DecideAction(_ context.Context, actionID, status, decidedBy string) error {
	a, ok := f.actions[actionID]
	if !ok || a.Status != ActionPending {
		return fmt.Errorf("action %s is not pending", actionID)
	}
	a.Status = status
	a.DecidedBy = decidedBy
	return nil
}

func (f *fakeStore) AdvanceRequest(_ context.Context, requestID, status string, stepSeq int, actions []Action) error {
	req, ok := f.requests[requestID]
	if !ok {
		return fmt.Errorf("request %s not found", requestID)
	}
	req.Status = status
	req.CurrentStepSeq = stepSeq
	for i := range actions {
		actions[i].ID = f.id("act")
		actions[i].RequestID = requestID
		a := actions[i]
		f.actions[a.ID] = &a
	}
	return nil
}

func (f *fakeStore) UpdateRequestStatus(_ context.Context, requestID, status string) error {
	req, ok := f.requests[requestID]
	if !ok {
		return fmt.Errorf("request %s not found", requestID)
	}
	req.Status = status
	return nil
}
