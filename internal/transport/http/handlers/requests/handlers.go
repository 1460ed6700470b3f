package requestshandler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"unihr/internal/auth"
	"unihr/internal/domain/authz"
	"unihr/internal/domain/requests"
	"unihr/internal/transport/http/api"
	"unihr/internal/transport/http/middleware"
	"unihr/internal/transport/http/shared"
)

type Handler struct {
	svc *requests.Service
}

func NewHandler(svc *requests.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermRequestsRead)).Group(func(r chi.Router) {
		r.Get("/requests/types", h.listTypes)
		r.Get("/requests/mine", h.mine)
		r.Get("/requests/inbox", h.inbox)
		r.Get("/requests/{id}", h.get)
	})
	r.With(middleware.RequirePermission(auth.PermRequestsWrite)).Group(func(r chi.Router) {
		r.Post("/requests", h.submit)
	})
	r.With(middleware.RequirePermission(auth.PermRequestsApprove)).Group(func(r chi.Router) {
		r.Post("/requests/{id}/approve", h.approve)
		r.Post("/requests/{id}/reject", h.reject)
	})
	r.With(middleware.RequirePermission(auth.PermRequestsFulfill)).Group(func(r chi.Router) {
		r.Post("/requests/{id}/fulfill", h.fulfill)
		r.Post("/requests/{id}/complete", h.complete)
	})
	r.With(middleware.RequirePermission(auth.PermSystemAdmin)).Group(func(r chi.Router) {
		r.Post("/requests/types", h.createType)
	})
}

func failFor(w http.ResponseWriter, err error, reqID string) {
	switch {
	case errors.Is(err, requests.ErrNotFound), errors.Is(err, requests.ErrTypeNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
	case errors.Is(err, requests.ErrNoEmployee):
		api.Fail(w, http.StatusForbidden, "no_employee", err.Error(), reqID)
	case errors.Is(err, requests.ErrSelfApproval):
		api.Fail(w, http.StatusForbidden, "self_approval", err.Error(), reqID)
	case errors.Is(err, requests.ErrNotApprover):
		api.Fail(w, http.StatusForbidden, "not_approver", err.Error(), reqID)
	case errors.Is(err, requests.ErrNoApprovers), errors.Is(err, requests.ErrNoSteps):
		api.Fail(w, http.StatusUnprocessableEntity, "unresolvable", err.Error(), reqID)
	case errors.Is(err, requests.ErrInvalidTransition):
		api.Fail(w, http.StatusConflict, "conflict", err.Error(), reqID)
	default:
		api.Fail(w, http.StatusInternalServerError, "internal", "operation failed", reqID)
	}
}

type typePayload struct {
	Name        string        `json:"name" validate:"required"`
	Description string        `json:"description"`
	Steps       []stepPayload `json:"steps" validate:"required,min=1,dive"`
}

type stepPayload struct {
	Seq         int               `json:"seq" validate:"required,min=1"`
	Name        string            `json:"name" validate:"required"`
	Description string            `json:"description"`
	Approvers   []approverPayload `json:"approvers" validate:"required,min=1,dive"`
}

type approverPayload struct {
	Kind       string `json:"kind" validate:"required,oneof=user role position"`
	UserID     string `json:"userId"`
	RoleID     string `json:"roleId"`
	PositionID string `json:"positionId"`
}

func (h *Handler) createType(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var payload typePayload
	if err := shared.DecodeAndValidate(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "bad_request", err.Error(), reqID)
		return
	}

	rt := &requests.RequestType{Name: payload.Name, Description: payload.Description}
	for _, sp := range payload.Steps {
		step := requests.Step{Seq: sp.Seq, Name: sp.Name, Description: sp.Description}
		for _, ap := range sp.Approvers {
			step.Approvers = append(step.Approvers, requests.StepApprover{
				Kind:       authz.ApproverKind(ap.Kind),
				UserID:     ap.UserID,
				RoleID:     ap.RoleID,
				PositionID: ap.PositionID,
			})
		}
		rt.Steps = append(rt.Steps, step)
	}

	if err := h.svc.CreateType(r.Context(), rt); err != nil {
		failFor(w, err, reqID)
		return
	}
	api.Created(w, rt, reqID)
}

func (h *Handler) listTypes(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	types, err := h.svc.Types(r.Context())
	if err != nil {
		failFor(w, err, reqID)
		return
	}
	if types == nil {
		types = []requests.RequestType{}
	}
	api.Success(w, types, reqID)
}

type submitPayload struct {
	RequestTypeID string `json:"requestTypeId" validate:"required"`
	Subject       string `json:"subject" validate:"required"`
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload submitPayload
	if err := shared.DecodeAndValidate(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "bad_request", err.Error(), reqID)
		return
	}

	req, err := h.svc.Submit(r.Context(), payload.RequestTypeID, user.UserID, payload.Subject)
	if err != nil {
		failFor(w, err, reqID)
		return
	}
	api.Created(w, req, reqID)
}

func (h *Handler) mine(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	page := shared.ParsePagination(r)
	own, total, err := h.svc.ListForUser(r.Context(), user.UserID, r.URL.Query().Get("status"), page.PageSize, page.Offset())
	if err != nil {
		failFor(w, err, reqID)
		return
	}
	if own == nil {
		own = []requests.Request{}
	}
	api.Success(w, shared.NewPaginated(own, total, page), reqID)
}

func (h *Handler) inbox(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	inbox, err := h.svc.Inbox(r.Context(), user.UserID)
	if err != nil {
		failFor(w, err, reqID)
		return
	}
	if inbox == nil {
		inbox = []requests.Request{}
	}
	api.Success(w, inbox, reqID)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	detail, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		failFor(w, err, reqID)
		return
	}
	api.Success(w, detail, reqID)
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	req, err := h.svc.Approve(r.Context(), chi.URLParam(r, "id"), user.UserID)
	if err != nil {
		failFor(w, err, reqID)
		return
	}
	api.Success(w, req, reqID)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	req, err := h.svc.Reject(r.Context(), chi.URLParam(r, "id"), user.UserID)
	if err != nil {
		failFor(w, err, reqID)
		return
	}
	api.Success(w, req, reqID)
}

func (h *Handler) fulfill(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	req, err := h.svc.Fulfill(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		failFor(w, err, reqID)
		return
	}
	api.Success(w, req, reqID)
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	req, err := h.svc.Complete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		failFor(w, err, reqID)
		return
	}
	api.Success(w, req, reqID)
}
