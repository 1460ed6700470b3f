package directoryhandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"unihr/internal/auth"
	"unihr/internal/domain/authz"
	"unihr/internal/domain/directory"
	"unihr/internal/transport/http/api"
	"unihr/internal/transport/http/middleware"
	"unihr/internal/transport/http/shared"
)

type Handler struct {
	store  *directory.Store
	scopes *authz.ScopeResolver
}

func NewHandler(store *directory.Store, scopes *authz.ScopeResolver) *Handler {
	return &Handler{store: store, scopes: scopes}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermDirectoryRead)).Group(func(r chi.Router) {
		r.Get("/directory/scope", h.scope)
		r.Get("/directory/employees", h.listEmployees)
		r.Get("/directory/employees/{id}", h.getEmployee)
		r.Get("/directory/faculties", h.listFaculties)
		r.Get("/directory/departments", h.listDepartments)
		r.Get("/directory/roles", h.listRoles)
	})
}

var scopeNames = map[authz.ScopeKind]string{
	authz.ScopeNone:         "none",
	authz.ScopeSelf:         "self",
	authz.ScopeDepartment:   "department",
	authz.ScopeFaculty:      "faculty",
	authz.ScopeUnrestricted: "unrestricted",
}

type scopeResponse struct {
	Kind          string   `json:"kind"`
	FacultyID     string   `json:"facultyId,omitempty"`
	DepartmentID  string   `json:"departmentId,omitempty"`
	EmployeeID    string   `json:"employeeId,omitempty"`
	DepartmentIDs []string `json:"departmentIds"`
	FacultyIDs    []string `json:"facultyIds"`
}

func (h *Handler) computeScope(r *http.Request) (authz.Scope, bool, error) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		return authz.Scope{}, false, nil
	}
	scope, err := h.scopes.ComputeScope(r.Context(), user.UserID, user.IsAdmin())
	return scope, true, err
}

// scope reports the caller's viewing scope and the unit id lists it expands
// to. Nil id lists mean unrestricted.
func (h *Handler) scope(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	scope, ok, err := h.computeScope(r)
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "internal", "scope resolution failed", reqID)
		return
	}

	deptIDs, err := h.scopes.ManageableDepartmentIDs(r.Context(), scope)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "internal", "scope resolution failed", reqID)
		return
	}
	facultyIDs, err := h.scopes.ManageableFacultyIDs(r.Context(), scope)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "internal", "scope resolution failed", reqID)
		return
	}

	api.Success(w, scopeResponse{
		Kind:          scopeNames[scope.Kind],
		FacultyID:     scope.FacultyID,
		DepartmentID:  scope.DepartmentID,
		EmployeeID:    scope.EmployeeID,
		DepartmentIDs: deptIDs,
		FacultyIDs:    facultyIDs,
	}, reqID)
}

func (h *Handler) listEmployees(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	scope, ok, err := h.computeScope(r)
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "internal", "scope resolution failed", reqID)
		return
	}

	page := shared.ParsePagination(r)
	if scope.Kind == authz.ScopeNone {
		api.Success(w, shared.NewPaginated([]directory.Employee{}, 0, page), reqID)
		return
	}

	filter := directory.EmployeeFilter{
		FacultyID:    scope.FacultyID,
		DepartmentID: scope.DepartmentID,
		EmployeeID:   scope.EmployeeID,
		Limit:        page.PageSize,
		Offset:       page.Offset(),
	}
	employees, total, err := h.store.ListEmployees(r.Context(), filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "internal", "listing failed", reqID)
		return
	}
	if employees == nil {
		employees = []directory.Employee{}
	}
	api.Success(w, shared.NewPaginated(employees, total, page), reqID)
}

func (h *Handler) getEmployee(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id := chi.URLParam(r, "id")

	scope, ok, err := h.computeScope(r)
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "internal", "scope resolution failed", reqID)
		return
	}

	visible, err := h.scopes.CanView(r.Context(), scope, id)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "internal", "lookup failed", reqID)
		return
	}
	if !visible {
		// Out-of-scope records stay indistinguishable from missing ones.
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", reqID)
		return
	}

	emp, err := h.store.EmployeeByID(r.Context(), id)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "internal", "lookup failed", reqID)
		return
	}
	if emp == nil {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", reqID)
		return
	}
	api.Success(w, emp, reqID)
}

func (h *Handler) listFaculties(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	faculties, err := h.store.ListFaculties(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "internal", "listing failed", reqID)
		return
	}
	if faculties == nil {
		faculties = []directory.Faculty{}
	}
	api.Success(w, faculties, reqID)
}

func (h *Handler) listDepartments(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	scope, ok, err := h.computeScope(r)
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "internal", "scope resolution failed", reqID)
		return
	}

	facultyIDs, err := h.scopes.ManageableFacultyIDs(r.Context(), scope)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "internal", "scope resolution failed", reqID)
		return
	}

	departments, err := h.store.ListDepartments(r.Context(), facultyIDs)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "internal", "listing failed", reqID)
		return
	}
	if departments == nil {
		departments = []directory.Department{}
	}
	api.Success(w, departments, reqID)
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	roles, err := h.store.ListRoles(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "internal", "listing failed", reqID)
		return
	}
	if roles == nil {
		roles = []directory.Role{}
	}
	api.Success(w, roles, reqID)
}
