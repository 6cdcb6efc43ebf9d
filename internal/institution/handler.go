package institution

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
	Create(dto CreateInstitutionDTO) (*Institution, error)
	GetByID(id int64) (*Institution, error)
	List() ([]*Institution, error)
	ListPublic() ([]PublicView, error)
	Update(id int64, dto UpdateInstitutionDTO) (*Institution, error)
	Delete(id int64) error
	Dashboard(principal *auth.Principal) (*Dashboard, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.L()),
		Service:     svc,
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var dto CreateInstitutionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	inst, err := h.Service.Create(dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, inst)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := h.idParam(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid institution id")
		return
	}

	inst, err := h.Service.GetByID(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, inst)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	insts, err := h.Service.List()
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"institutions": insts,
		"count":        len(insts),
	})
}

// ListPublic backs the public verification request form: names only, no
// credentials or contact details.
func (h *Handler) ListPublic(w http.ResponseWriter, r *http.Request) {
	views, err := h.Service.ListPublic()
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"institutions": views,
	})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := h.idParam(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid institution id")
		return
	}

	var dto UpdateInstitutionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	inst, err := h.Service.Update(id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, inst)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := h.idParam(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid institution id")
		return
	}

	if err := h.Service.Delete(id); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Dashboard returns the caller's institution plus its verification counters.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	dash, err := h.Service.Dashboard(principal)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, dash)
}

func (h *Handler) idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
