package verification

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/kambejat/undiziwa/internal/auth"
	"github.com/kambejat/undiziwa/internal/transport"
	"github.com/kambejat/undiziwa/pkg/logger"
)

const maxEvidenceSize = 16 << 20 // 16 MiB

type ServiceAPI interface {
	Request(dto RequestVerificationDTO, requester *auth.Principal, evidenceName string, evidence io.Reader) (*Verification, error)
	GetByID(id int64) (*Verification, error)
	ListForInstitution(principal *auth.Principal, status *Status, limit, offset int) ([]*Verification, error)
	Resolve(id int64, principal *auth.Principal, decision Status) (*Verification, error)
	RunAutomated(id int64) (*Verification, error)
	Remind(id int64) error
	Delete(id int64) error
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

// Request accepts a public verification submission. The endpoint takes a
// multipart form so a scanned certificate can ride along; the file part is
// optional.
func (h *Handler) Request(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxEvidenceSize); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	graduationYear, _ := strconv.Atoi(r.FormValue("graduation_year"))
	institutionID, _ := strconv.ParseInt(r.FormValue("institution_id"), 10, 64)

	dto := RequestVerificationDTO{
		StudentName:    r.FormValue("student_name"),
		StudentNumber:  r.FormValue("student_number"),
		CourseName:     r.FormValue("course_name"),
		GraduationYear: graduationYear,
		InstitutionID:  institutionID,
		Message:        r.FormValue("message"),
		Method:         r.FormValue("method"),
	}

	var evidence io.Reader
	var evidenceName string
	if file, header, err := r.FormFile("certificate_file"); err == nil {
		defer file.Close()
		evidence = file
		evidenceName = header.Filename
	}

	// Public submissions carry no principal; authenticated ones attribute
	// the request to the caller.
	requester, _ := auth.PrincipalFromContext(r.Context())

	v, err := h.Service.Request(dto, requester, evidenceName, evidence)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, v)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := h.idParam(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid verification id")
		return
	}

	v, err := h.Service.GetByID(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, v)
}

// List returns the caller's institution queue, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var status *Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, err := ParseStatus(raw)
		if err != nil {
			h.HandleServiceError(w, err)
			return
		}
		status = &parsed
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	list, err := h.Service.ListForInstitution(principal, status, limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"verifications": list,
		"count":         len(list),
	})
}

func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := h.idParam(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid verification id")
		return
	}

	var dto ResolveDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	decision, err := dto.Validate()
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	v, err := h.Service.Resolve(id, principal, decision)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) RunAutomated(w http.ResponseWriter, r *http.Request) {
	id, err := h.idParam(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid verification id")
		return
	}

	v, err := h.Service.RunAutomated(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) Remind(w http.ResponseWriter, r *http.Request) {
	id, err := h.idParam(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid verification id")
		return
	}

	if err := h.Service.Remind(id); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "reminder sent"})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := h.idParam(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid verification id")
		return
	}

	if err := h.Service.Delete(id); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
