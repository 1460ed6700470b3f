package authhandler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"unihr/internal/auth"
	"unihr/internal/transport/http/api"
	"unihr/internal/transport/http/middleware"
	"unihr/internal/transport/http/shared"
)

const tokenTTL = 12 * time.Hour

type Handler struct {
	users     *auth.Store
	jwtSecret string
}

func NewHandler(users *auth.Store, jwtSecret string) *Handler {
	return &Handler{users: users, jwtSecret: jwtSecret}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.login)
	r.Get("/auth/me", h.me)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string     `json:"token"`
	User  *auth.User `json:"user"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var payload loginRequest
	if err := shared.DecodeAndValidate(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "bad_request", err.Error(), reqID)
		return
	}

	user, err := h.users.UserByEmail(r.Context(), payload.Email)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "internal", "login failed", reqID)
		return
	}
	if user == nil || !user.Active || auth.CheckPassword(user.PasswordHash, payload.Password) != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password", reqID)
		return
	}

	token, err := auth.GenerateToken(h.jwtSecret, auth.Claims{UserID: user.ID, AccountRole: user.AccountRole}, tokenTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "internal", "login failed", reqID)
		return
	}

	api.Success(w, loginResponse{Token: token, User: user}, reqID)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	ctxUser, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}
	user, err := h.users.UserByID(r.Context(), ctxUser.UserID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "internal", "lookup failed", reqID)
		return
	}
	if user == nil {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "account no longer exists", reqID)
		return
	}
	api.Success(w, user, reqID)
}
