package trainingshandler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"unihr/internal/auth"
	"unihr/internal/domain/training"
	"unihr/internal/transport/http/api"
	"unihr/internal/transport/http/middleware"
	"unihr/internal/transport/http/shared"
)

type Handler struct {
	svc *training.Service
}

func NewHandler(svc *training.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermTrainingsRead)).Group(func(r chi.Router) {
		r.Get("/trainings", h.list)
		r.Get("/trainings/{id}", h.get)
	})
	r.With(middleware.RequirePermission(auth.PermTrainingsApply)).Group(func(r chi.Router) {
		r.Post("/trainings/{id}/apply", h.apply)
		r.Get("/trainings/applications/mine", h.myApplications)
		r.Post("/trainings/applications/{id}/cancel", h.cancel)
	})
	r.With(middleware.RequirePermission(auth.PermTrainingsWrite)).Group(func(r chi.Router) {
		r.Post("/trainings", h.create)
		r.Put("/trainings/{id}", h.update)
		r.Get("/trainings/{id}/applications", h.applications)
		r.Post("/trainings/applications/{id}/decide", h.decide)
		r.Post("/trainings/applications/{id}/complete", h.complete)
	})
}

type trainingPayload struct {
	Title         string   `json:"title" validate:"required"`
	Description   string   `json:"description"`
	StartDate     string   `json:"startDate" validate:"required"`
	EndDate       string   `json:"endDate" validate:"required"`
	Capacity      *int     `json:"capacity" validate:"omitempty,min=1"`
	Status        string   `json:"status" validate:"omitempty,oneof=draft published archived"`
	FacultyIDs    []string `json:"facultyIds"`
	DepartmentIDs []string `json:"departmentIds"`
	PositionIDs   []string `json:"positionIds"`
}

func (p trainingPayload) toTraining() (*training.Training, error) {
	start, err := time.Parse("2006-01-02", p.StartDate)
	if err != nil {
		return nil, errors.New("startDate must be YYYY-MM-DD")
	}
	end, err := time.Parse("2006-01-02", p.EndDate)
	if err != nil {
		return nil, errors.New("endDate must be YYYY-MM-DD")
	}
	if end.Before(start) {
		return nil, errors.New("endDate must not precede startDate")
	}
	return &training.Training{
		Title:         p.Title,
		Description:   p.Description,
		StartDate:     start,
		EndDate:       end,
		Capacity:      p.Capacity,
		Status:        p.Status,
		FacultyIDs:    p.FacultyIDs,
		DepartmentIDs: p.DepartmentIDs,
		PositionIDs:   p.PositionIDs,
	}, nil
}

func failFor(w http.ResponseWriter, err error, reqID string) {
	switch {
	case errors.Is(err, training.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
	case errors.Is(err, training.ErrNoEmployee):
		api.Fail(w, http.StatusForbidden, "no_employee", err.Error(), reqID)
	case errors.Is(err, training.ErrNotEligible):
		api.Fail(w, http.StatusForbidden, "not_eligible", err.Error(), reqID)
	case errors.Is(err, training.ErrNotPublished),
		errors.Is(err, training.ErrFull),
		errors.Is(err, training.ErrAlreadyApplied),
		errors.Is(err, training.ErrInvalidTransition):
		api.Fail(w, http.StatusConflict, "conflict", err.Error(), reqID)
	default:
		api.Fail(w, http.StatusInternalServerError, "internal", "operation failed", reqID)
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var payload trainingPayload
	if err := shared.DecodeAndValidate(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "bad_request", err.Error(), reqID)
		return
	}
	t, err := payload.toTraining()
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "bad_request", err.Error(), reqID)
		return
	}
	if err := h.svc.Create(r.Context(), t); err != nil {
		failFor(w, err, reqID)
		return
	}
	api.Created(w, t, reqID)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var payload trainingPayload
	if err := shared.DecodeAndValidate(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "bad_request", err.Error(), reqID)
		return
	}
	t, err := payload.toTraining()
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "bad_request", err.Error(), reqID)
		return
	}
	t.ID = chi.URLParam(r, "id")
	if err := h.svc.Update(r.Context(), t); err != nil {
		failFor(w, err, reqID)
		return
	}
	api.Success(w, t, reqID)
}

// list annotates each training with the caller's eligibility and remaining
// spots. HR and admin accounts see plain records for any status.
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	status := r.URL.Query().Get("status")
	viewerID := user.UserID
	if auth.HasPermission(user.AccountRole, auth.PermTrainingsWrite) {
		viewerID = ""
	} else {
		status = training.StatusPublished
	}

	page := shared.ParsePagination(r)
	views, total, err := h.svc.List(r.Context(), status, viewerID, page.PageSize, page.Offset())
	if err != nil {
		failFor(w, err, reqID)
		return
	}
	if views == nil {
		views = []training.View{}
	}
	api.Success(w, shared.NewPaginated(views, total, page), reqID)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	t, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		failFor(w, err, reqID)
		return
	}
	api.Success(w, t, reqID)
}

func (h *Handler) apply(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	app, err := h.svc.Apply(r.Context(), chi.URLParam(r, "id"), user.UserID)
	if err != nil {
		failFor(w, err, reqID)
		return
	}
	api.Created(w, app, reqID)
}

func (h *Handler) myApplications(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	page := shared.ParsePagination(r)
	apps, total, err := h.svc.ApplicationsForUser(r.Context(), user.UserID, page.PageSize, page.Offset())
	if err != nil {
		failFor(w, err, reqID)
		return
	}
	if apps == nil {
		apps = []training.Application{}
	}
	api.Success(w, shared.NewPaginated(apps, total, page), reqID)
}

func (h *Handler) applications(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	page := shared.ParsePagination(r)
	apps, total, err := h.svc.ListApplications(r.Context(), chi.URLParam(r, "id"), "", page.PageSize, page.Offset())
	if err != nil {
		failFor(w, err, reqID)
		return
	}
	if apps == nil {
		apps = []training.Application{}
	}
	api.Success(w, shared.NewPaginated(apps, total, page), reqID)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	app, err := h.svc.Cancel(r.Context(), chi.URLParam(r, "id"), user.UserID)
	if err != nil {
		failFor(w, err, reqID)
		return
	}
	api.Success(w, app, reqID)
}

type decidePayload struct {
	Approve bool `json:"approve"`
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var payload decidePayload
	if err := shared.DecodeAndValidate(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "bad_request", err.Error(), reqID)
		return
	}
	app, err := h.svc.Decide(r.Context(), chi.URLParam(r, "id"), payload.Approve)
	if err != nil {
		failFor(w, err, reqID)
		return
	}
	api.Success(w, app, reqID)
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	app, err := h.svc.Complete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		failFor(w, err, reqID)
		return
	}
	api.Success(w, app, reqID)
}
