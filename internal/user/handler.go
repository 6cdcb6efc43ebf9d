package user

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/kambejat/undiziwa/internal/auth"
	"github.com/kambejat/undiziwa/internal/transport"
	"github.com/kambejat/undiziwa/pkg/logger"
)

type ServiceAPI interface {
	GetByID(id int64) (*User, error)
	List(filter ListFilter) (*ListResult, error)
	Create(principal *auth.Principal, dto CreateUserDTO) (*User, error)
	UpdatePermission(principal *auth.Principal, targetID int64, dto UpdatePermissionDTO) (*User, error)
	AdminResetPassword(principal *auth.Principal, targetID int64) error
}

// PasswordConfirmer redeems a reset token; backed by the credential service.
type PasswordConfirmer interface {
	Confirm(token, newPassword string) error
}

type Handler struct {
	*transport.BaseHandler
	Service   ServiceAPI
	Passwords PasswordConfirmer
}

func NewHandler(svc ServiceAPI, passwords PasswordConfirmer) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.L()),
		Service:     svc,
		Passwords:   passwords,
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))

	filter := ListFilter{
		Search:  q.Get("search"),
		Role:    q.Get("role"),
		Page:    page,
		PerPage: perPage,
	}
	if raw := q.Get("is_active"); raw != "" {
		active := raw == "true"
		filter.IsActive = &active
	}

	result, err := h.Service.List(filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := h.idParam(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	u, err := h.Service.GetByID(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var dto CreateUserDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.Service.Create(principal, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, u)
}

func (h *Handler) UpdatePermission(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := h.idParam(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var dto UpdatePermissionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.Service.UpdatePermission(principal, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u)
}

// AdminResetPassword issues a forced reset token to the target user's email.
func (h *Handler) AdminResetPassword(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := h.idParam(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.Service.AdminResetPassword(principal, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "password reset email sent"})
}

// ConfirmReset is the public endpoint that redeems a reset token. Tokens are
// single-use; a replay answers with a conflict.
func (h *Handler) ConfirmReset(w http.ResponseWriter, r *http.Request) {
	var dto ConfirmResetDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if err := h.Passwords.Confirm(dto.Token, dto.Password); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}

func (h *Handler) idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
