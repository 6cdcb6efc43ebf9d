package certificate

import (
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/kambejat/undiziwa/internal/auth"
	"github.com/kambejat/undiziwa/internal/transport"
	"github.com/kambejat/undiziwa/pkg/logger"
)

const maxUploadSize = 16 << 20 // 16 MiB

type ServiceAPI interface {
	Submit(dto SubmitCertificateDTO, uploadedBy *int64, evidenceName string, evidence io.Reader) (*Certificate, error)
	GetByID(id int64) (*Certificate, error)
	List(principal *auth.Principal, filter ListFilter) ([]*Certificate, error)
	Delete(id int64) error
	Download(id int64) (io.ReadCloser, string, error)
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

// Submit registers a certificate uploaded by institution staff. The form may
// include the scanned document under certificate_file.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	graduationYear, _ := strconv.Atoi(r.FormValue("graduation_year"))
	institutionID, _ := strconv.ParseInt(r.FormValue("institution_id"), 10, 64)

	// Staff upload for their own institution unless the role permits a
	// cross-institution scope.
	if !principal.Role.CrossInstitution() && principal.InstitutionID != nil {
		institutionID = *principal.InstitutionID
	}

	dto := SubmitCertificateDTO{
		StudentName:    r.FormValue("student_name"),
		StudentNumber:  r.FormValue("student_number"),
		CourseName:     r.FormValue("course_name"),
		GraduationYear: graduationYear,
		InstitutionID:  institutionID,
	}

	var evidence io.Reader
	var evidenceName string
	if file, header, err := r.FormFile("certificate_file"); err == nil {
		defer file.Close()
		evidence = file
		evidenceName = header.Filename
	}

	cert, err := h.Service.Submit(dto, &principal.UserID, evidenceName, evidence)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, cert)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := h.idParam(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid certificate id")
		return
	}

	cert, err := h.Service.GetByID(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, cert)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	institutionID, _ := strconv.ParseInt(q.Get("institution_id"), 10, 64)

	filter := ListFilter{
		Search:        q.Get("search"),
		InstitutionID: institutionID,
		Limit:         limit,
		Offset:        offset,
	}
	if raw := q.Get("verified"); raw != "" {
		verified := raw == "true"
		filter.Verified = &verified
	}

	certs, err := h.Service.List(principal, filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"certificates": certs,
		"count":        len(certs),
	})
}

// Download streams the stored evidence file as an attachment.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := h.idParam(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid certificate id")
		return
	}

	rc, ref, err := h.Service.Download(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(ref)+`"`)
	if _, err := io.Copy(w, rc); err != nil {
		h.Logger.Error("failed to stream certificate file", "error", err, "certificate_id", id)
	}
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := h.idParam(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid certificate id")
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
