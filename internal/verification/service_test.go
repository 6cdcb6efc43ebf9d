package verification_test

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kambejat/undiziwa/internal"
	"github.com/kambejat/undiziwa/internal/auth"
	"github.com/kambejat/undiziwa/internal/certificate"
	"github.com/kambejat/undiziwa/internal/institution"
	"github.com/kambejat/undiziwa/internal/verification"
)

func TestVerification(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Verification Suite")
}

func int64Ptr(v int64) *int64 {
	return &v
}

type mockVerificationRepository struct {
	verifications map[int64]*verification.Verification
	nextID        int64
	createError   error
	resolveError  error
}

func newMockVerificationRepository() *mockVerificationRepository {
	return &mockVerificationRepository{
		verifications: make(map[int64]*verification.Verification),
		nextID:        1,
	}
}

func (m *mockVerificationRepository) Create(v *verification.Verification) error {
	if m.createError != nil {
		return m.createError
	}
	v.ID = m.nextID
	m.nextID++
	m.verifications[v.ID] = v
	return nil
}

func (m *mockVerificationRepository) GetByID(id int64) (*verification.Verification, error) {
	v, ok := m.verifications[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	copied := *v
	return &copied, nil
}

func (m *mockVerificationRepository) ListByInstitution(institutionID int64, status *verification.Status, limit, offset int) ([]*verification.Verification, error) {
	var out []*verification.Verification
	for _, v := range m.verifications {
		if v.InstitutionID != institutionID {
			continue
		}
		if status != nil && v.Status != *status {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func (m *mockVerificationRepository) ListPendingAutomated(limit int) ([]*verification.Verification, error) {
	var out []*verification.Verification
	for _, v := range m.verifications {
		if v.Status == verification.StatusPending && v.Method != verification.MethodManualForm {
			out = append(out, v)
		}
	}
	return out, nil
}

// ResolvePending mirrors the conditional update: only a pending row is
// touched, and the caller learns whether it won.
func (m *mockVerificationRepository) ResolvePending(id int64, status verification.Status, resultJSON string, verifiedAt time.Time, markCertificate bool) (bool, error) {
	if m.resolveError != nil {
		return false, m.resolveError
	}
	v, ok := m.verifications[id]
	if !ok || v.Status != verification.StatusPending {
		return false, nil
	}
	v.Status = status
	v.ResultJSON = resultJSON
	v.VerifiedAt = &verifiedAt
	return true, nil
}

func (m *mockVerificationRepository) Delete(id int64) error {
	delete(m.verifications, id)
	return nil
}

type mockCertificateRegistry struct {
	certificates map[int64]*certificate.Certificate
	nextID       int64
	submitError  error
}

func newMockCertificateRegistry() *mockCertificateRegistry {
	return &mockCertificateRegistry{
		certificates: make(map[int64]*certificate.Certificate),
		nextID:       1,
	}
}

func (m *mockCertificateRegistry) Submit(dto certificate.SubmitCertificateDTO, uploadedBy *int64, evidenceName string, evidence io.Reader) (*certificate.Certificate, error) {
	if m.submitError != nil {
		return nil, m.submitError
	}
	cert := &certificate.Certificate{
		ID:             m.nextID,
		StudentName:    dto.StudentName,
		StudentNumber:  dto.StudentNumber,
		CourseName:     dto.CourseName,
		GraduationYear: dto.GraduationYear,
		InstitutionID:  dto.InstitutionID,
		UploadedBy:     uploadedBy,
		UploadedAt:     time.Now(),
	}
	m.nextID++
	m.certificates[cert.ID] = cert
	return cert, nil
}

func (m *mockCertificateRegistry) GetByID(id int64) (*certificate.Certificate, error) {
	cert, ok := m.certificates[id]
	if !ok {
		return nil, internal.ErrCertificateNotFound
	}
	return cert, nil
}

type mockInstitutionDirectory struct {
	institutions map[int64]*institution.Institution
}

func newMockInstitutionDirectory() *mockInstitutionDirectory {
	return &mockInstitutionDirectory{institutions: make(map[int64]*institution.Institution)}
}

func (m *mockInstitutionDirectory) GetByID(id int64) (*institution.Institution, error) {
	inst, ok := m.institutions[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return inst, nil
}

type mockSender struct {
	sent      []sentMail
	sendError error
}

type sentMail struct {
	To      string
	Subject string
}

func (m *mockSender) Send(to, subject, htmlBody string) error {
	if m.sendError != nil {
		return m.sendError
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject})
	return nil
}

var _ = Describe("VerificationService", func() {
	var (
		service   *verification.Service
		mockRepo  *mockVerificationRepository
		registry  *mockCertificateRegistry
		directory *mockInstitutionDirectory
		mailer    *mockSender
		logger    *slog.Logger
	)

	validRequest := verification.RequestVerificationDTO{
		StudentName:    "Chikondi Banda",
		StudentNumber:  "UNZ-2019-0042",
		CourseName:     "Computer Science",
		GraduationYear: 2019,
		InstitutionID:  1,
	}

	BeforeEach(func() {
		mockRepo = newMockVerificationRepository()
		registry = newMockCertificateRegistry()
		directory = newMockInstitutionDirectory()
		mailer = &mockSender{}
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		directory.institutions[1] = &institution.Institution{
			ID:           1,
			Name:         "University of Zomba",
			ContactEmail: "registry@unz.example",
		}
		directory.institutions[2] = &institution.Institution{
			ID:   2,
			Name: "Lilongwe Technical College",
		}

		service = verification.NewService(mockRepo, registry, directory, mailer, "http://localhost:8080", logger)
	})

	staffOf := func(institutionID int64, role auth.Role) *auth.Principal {
		return &auth.Principal{UserID: 10, Username: "staff", Role: role, InstitutionID: int64Ptr(institutionID)}
	}

	Describe("Request", func() {
		It("should register the certificate and open a pending verification", func() {
			v, err := service.Request(validRequest, nil, "", nil)

			Expect(err).ToNot(HaveOccurred())
			Expect(v.Status).To(Equal(verification.StatusPending))
			Expect(v.Method).To(Equal(verification.MethodManualForm))
			Expect(v.InstitutionID).To(Equal(int64(1)))
			Expect(v.RequestedBy).To(BeNil())
			Expect(registry.certificates).To(HaveLen(1))
		})

		It("should notify the institution contact", func() {
			_, err := service.Request(validRequest, nil, "", nil)

			Expect(err).ToNot(HaveOccurred())
			Expect(mailer.sent).To(HaveLen(1))
			Expect(mailer.sent[0].To).To(Equal("registry@unz.example"))
		})

		It("should skip notification when the institution has no contact", func() {
			req := validRequest
			req.InstitutionID = 2

			_, err := service.Request(req, nil, "", nil)

			Expect(err).ToNot(HaveOccurred())
			Expect(mailer.sent).To(BeEmpty())
		})

		It("should not fail when the notification send fails", func() {
			mailer.sendError = errors.New("smtp refused")

			v, err := service.Request(validRequest, nil, "", nil)

			Expect(err).ToNot(HaveOccurred())
			Expect(v.Status).To(Equal(verification.StatusPending))
		})

		It("should attribute an authenticated requester", func() {
			requester := staffOf(1, auth.RoleHR)

			v, err := service.Request(validRequest, requester, "", nil)

			Expect(err).ToNot(HaveOccurred())
			Expect(*v.RequestedBy).To(Equal(requester.UserID))
		})

		It("should reject an unknown institution", func() {
			req := validRequest
			req.InstitutionID = 99

			_, err := service.Request(req, nil, "", nil)

			Expect(err).To(MatchError(internal.ErrInstitutionNotFound))
		})

		It("should reject missing required fields", func() {
			_, err := service.Request(verification.RequestVerificationDTO{}, nil, "", nil)

			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeMissingFields))
		})
	})

	Describe("Resolve", func() {
		var pending *verification.Verification

		BeforeEach(func() {
			var err error
			pending, err = service.Request(validRequest, nil, "", nil)
			Expect(err).ToNot(HaveOccurred())
		})

		It("should record a valid decision with its result payload", func() {
			v, err := service.Resolve(pending.ID, staffOf(1, auth.RoleHR), verification.StatusValid)

			Expect(err).ToNot(HaveOccurred())
			Expect(v.Status).To(Equal(verification.StatusValid))
			Expect(v.ResultJSON).To(MatchJSON(`{"verified": true}`))
			Expect(v.VerifiedAt).ToNot(BeNil())
		})

		It("should record an invalid decision", func() {
			v, err := service.Resolve(pending.ID, staffOf(1, auth.RoleInstitutionAdmin), verification.StatusInvalid)

			Expect(err).ToNot(HaveOccurred())
			Expect(v.Status).To(Equal(verification.StatusInvalid))
			Expect(v.ResultJSON).To(MatchJSON(`{"verified": false}`))
		})

		It("should refuse staff of another institution", func() {
			_, err := service.Resolve(pending.ID, staffOf(2, auth.RoleInstitutionAdmin), verification.StatusValid)

			Expect(err).To(MatchError(internal.ErrInstitutionMismatch))
		})

		It("should refuse gov_admin from another institution", func() {
			_, err := service.Resolve(pending.ID, staffOf(2, auth.RoleGovAdmin), verification.StatusValid)

			Expect(err).To(MatchError(internal.ErrInstitutionMismatch))
		})

		It("should refuse a principal with no institution", func() {
			p := &auth.Principal{UserID: 1, Username: "root", Role: auth.RoleSuperAdmin}

			_, err := service.Resolve(pending.ID, p, verification.StatusValid)

			Expect(err).To(MatchError(internal.ErrInstitutionMismatch))
		})

		It("should answer a second resolution with a conflict", func() {
			_, err := service.Resolve(pending.ID, staffOf(1, auth.RoleHR), verification.StatusValid)
			Expect(err).ToNot(HaveOccurred())

			_, err = service.Resolve(pending.ID, staffOf(1, auth.RoleHR), verification.StatusInvalid)

			Expect(err).To(MatchError(internal.ErrAlreadyResolved))
		})

		It("should reject a pending decision", func() {
			_, err := service.Resolve(pending.ID, staffOf(1, auth.RoleHR), verification.StatusPending)

			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("should answer an unknown id with not found", func() {
			_, err := service.Resolve(999, staffOf(1, auth.RoleHR), verification.StatusValid)

			Expect(err).To(MatchError(internal.ErrVerificationNotFound))
		})
	})

	Describe("RunAutomated", func() {
		It("should mark valid when the certificate exists in the registry", func() {
			pending, err := service.Request(validRequest, nil, "", nil)
			Expect(err).ToNot(HaveOccurred())

			v, err := service.RunAutomated(pending.ID)

			Expect(err).ToNot(HaveOccurred())
			Expect(v.Status).To(Equal(verification.StatusValid))
		})

		It("should mark not_found when the certificate is missing", func() {
			pending, err := service.Request(validRequest, nil, "", nil)
			Expect(err).ToNot(HaveOccurred())
			delete(registry.certificates, pending.CertificateID)

			v, err := service.RunAutomated(pending.ID)

			Expect(err).ToNot(HaveOccurred())
			Expect(v.Status).To(Equal(verification.StatusNotFound))
			Expect(v.ResultJSON).To(MatchJSON(`{"verified": false}`))
		})

		It("should respect terminal immutability", func() {
			pending, err := service.Request(validRequest, nil, "", nil)
			Expect(err).ToNot(HaveOccurred())
			_, err = service.Resolve(pending.ID, staffOf(1, auth.RoleHR), verification.StatusInvalid)
			Expect(err).ToNot(HaveOccurred())

			_, err = service.RunAutomated(pending.ID)

			Expect(err).To(MatchError(internal.ErrAlreadyResolved))
		})
	})

	Describe("SweepAutomated", func() {
		It("should resolve pending non-manual verifications in one pass", func() {
			req := validRequest
			req.Method = string(verification.MethodStudentNumber)
			_, err := service.Request(req, nil, "", nil)
			Expect(err).ToNot(HaveOccurred())
			_, err = service.Request(req, nil, "", nil)
			Expect(err).ToNot(HaveOccurred())

			// manual requests are left for institution staff
			_, err = service.Request(validRequest, nil, "", nil)
			Expect(err).ToNot(HaveOccurred())

			resolved, err := service.SweepAutomated(10)

			Expect(err).ToNot(HaveOccurred())
			Expect(resolved).To(Equal(2))
		})
	})

	Describe("Remind", func() {
		It("should re-send the notification for a pending verification", func() {
			pending, err := service.Request(validRequest, nil, "", nil)
			Expect(err).ToNot(HaveOccurred())
			sentBefore := len(mailer.sent)

			err = service.Remind(pending.ID)

			Expect(err).ToNot(HaveOccurred())
			Expect(mailer.sent).To(HaveLen(sentBefore + 1))
		})

		It("should reject reminders for resolved verifications", func() {
			pending, err := service.Request(validRequest, nil, "", nil)
			Expect(err).ToNot(HaveOccurred())
			_, err = service.Resolve(pending.ID, staffOf(1, auth.RoleHR), verification.StatusValid)
			Expect(err).ToNot(HaveOccurred())

			err = service.Remind(pending.ID)

			Expect(err).To(MatchError(internal.ErrAlreadyResolved))
		})

		It("should succeed quietly when the institution has no contact", func() {
			req := validRequest
			req.InstitutionID = 2
			pending, err := service.Request(req, nil, "", nil)
			Expect(err).ToNot(HaveOccurred())

			err = service.Remind(pending.ID)

			Expect(err).ToNot(HaveOccurred())
			Expect(mailer.sent).To(BeEmpty())
		})
	})

	Describe("ListForInstitution", func() {
		It("should return only the caller's institution queue", func() {
			_, err := service.Request(validRequest, nil, "", nil)
			Expect(err).ToNot(HaveOccurred())
			req := validRequest
			req.InstitutionID = 2
			_, err = service.Request(req, nil, "", nil)
			Expect(err).ToNot(HaveOccurred())

			list, err := service.ListForInstitution(staffOf(1, auth.RoleHR), nil, 20, 0)

			Expect(err).ToNot(HaveOccurred())
			Expect(list).To(HaveLen(1))
			Expect(list[0].InstitutionID).To(Equal(int64(1)))
		})

		It("should fail for a principal without an institution", func() {
			p := &auth.Principal{UserID: 1, Role: auth.RoleGovAdmin}

			_, err := service.ListForInstitution(p, nil, 20, 0)

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Delete", func() {
		It("should remove the record", func() {
			pending, err := service.Request(validRequest, nil, "", nil)
			Expect(err).ToNot(HaveOccurred())

			Expect(service.Delete(pending.ID)).To(Succeed())

			_, err = service.GetByID(pending.ID)
			Expect(err).To(MatchError(internal.ErrVerificationNotFound))
		})

		It("should answer an unknown id with not found", func() {
			Expect(service.Delete(404)).To(MatchError(internal.ErrVerificationNotFound))
		})
	})
})
