package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ivaylo9512/Platform-app-auth-server/internal/repository/postgres"
	"github.com/ivaylo9512/Platform-app-auth-server/internal/service"
	apperrors "github.com/ivaylo9512/Platform-app-auth-server/pkg/errors"
	"github.com/ivaylo9512/Platform-app-auth-server/pkg/validator"
)

// UserHandler handles account and token record endpoints.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new user HTTP handler.
func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// --- Request DTOs ---

// UpdateRequest is the JSON request body for updating an account.
type UpdateRequest struct {
	ID        int64  `json:"id" validate:"required"`
	Username  string `json:"username" validate:"required,min=8,max=20"`
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Age       int    `json:"age" validate:"required,gte=1,lte=120"`
}

// CreateUserRequest is one entry of a bulk creation request.
type CreateUserRequest struct {
	Username  string `json:"username" validate:"required,min=8,max=20"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=10,max=22"`
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Age       int    `json:"age" validate:"required,gte=1,lte=120"`
	Role      string `json:"role" validate:"omitempty,oneof=user admin"`
}

// --- Handlers ---

// FindByID handles GET /api/v1/users/findById/{id}
func (h *UserHandler) FindByID(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeText(w, http.StatusUnauthorized, apperrors.Unauthorized().Message)
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeText(w, http.StatusBadRequest, "invalid id")
		return
	}

	user, err := h.users.FindByID(r.Context(), identity, id)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// Update handles PATCH /api/v1/users/update
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeText(w, http.StatusUnauthorized, apperrors.Unauthorized().Message)
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeText(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := validator.Validate(req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	user, err := h.users.Update(r.Context(), identity, service.UpdateInput{
		ID:        req.ID,
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Age:       req.Age,
	})
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// Delete handles DELETE /api/v1/users/delete/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeText(w, http.StatusUnauthorized, apperrors.Unauthorized().Message)
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeText(w, http.StatusBadRequest, "invalid id")
		return
	}

	deleted, err := h.users.Delete(r.Context(), identity, id)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	if !deleted {
		writeText(w, http.StatusNotFound, apperrors.NotFound("User").Message)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// CreateMany handles POST /api/v1/users/createMany. Validation failures are
// reported for every entry at once, keyed as user<index>.
func (h *UserHandler) CreateMany(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeText(w, http.StatusUnauthorized, apperrors.Unauthorized().Message)
		return
	}

	var reqs []CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		writeText(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fieldErrors := make(map[string]map[string]string)
	for i, req := range reqs {
		var validationErr *validator.ValidationError
		if err := validator.Validate(req); errors.As(err, &validationErr) {
			fieldErrors[entryKey(i)] = validationErr.Fields()
		}
	}
	if len(fieldErrors) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, fieldErrors)
		return
	}

	inputs := make([]service.CreateUserInput, 0, len(reqs))
	for _, req := range reqs {
		inputs = append(inputs, service.CreateUserInput{
			Username:  req.Username,
			Email:     req.Email,
			Password:  req.Password,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Age:       req.Age,
			Role:      req.Role,
		})
	}

	users, err := h.users.CreateMany(r.Context(), identity, inputs)
	if err != nil {
		var batchErr *postgres.BatchError
		var appErr *apperrors.AppError
		if errors.As(err, &batchErr) && errors.As(err, &appErr) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]map[string]string{
				entryKey(batchErr.Index): appErr.Fields,
			})
			return
		}
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, users)
}

// FindTokenByID handles GET /api/v1/tokens/findById/{id}
func (h *UserHandler) FindTokenByID(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeText(w, http.StatusUnauthorized, apperrors.Unauthorized().Message)
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeText(w, http.StatusBadRequest, "invalid id")
		return
	}

	token, err := h.users.FindTokenByID(r.Context(), identity, id)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, token)
}

// DeleteTokenByID handles DELETE /api/v1/tokens/delete/{id}
func (h *UserHandler) DeleteTokenByID(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeText(w, http.StatusUnauthorized, apperrors.Unauthorized().Message)
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeText(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.users.DeleteTokenByID(r.Context(), identity, id); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func entryKey(i int) string {
	return fmt.Sprintf("user%d", i)
}
