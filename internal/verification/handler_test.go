package verification_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kambejat/undiziwa/internal/auth"
	"github.com/kambejat/undiziwa/internal/certificate"
	certificatePostgres "github.com/kambejat/undiziwa/internal/certificate/postgres"
	"github.com/kambejat/undiziwa/internal/institution"
	institutionPostgres "github.com/kambejat/undiziwa/internal/institution/postgres"
	"github.com/kambejat/undiziwa/internal/notification"
	"github.com/kambejat/undiziwa/internal/storage"
	"github.com/kambejat/undiziwa/internal/user"
	"github.com/kambejat/undiziwa/internal/verification"
	verificationPostgres "github.com/kambejat/undiziwa/internal/verification/postgres"
)

var _ = Describe("Verification Handler Integration", func() {
	var (
		db       *gorm.DB
		handler  *verification.Handler
		router   *chi.Mux
		inst     *institution.Institution
		tokenGen *auth.JWTTokenGenerator
	)

	BeforeEach(func() {
		var err error
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(
			&institution.Institution{},
			&user.User{},
			&certificate.Certificate{},
			&verification.Verification{},
		)
		Expect(err).NotTo(HaveOccurred())

		files, err := storage.NewLocalFileStore(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())

		certificateService := certificate.NewService(certificatePostgres.NewCertificateRepository(db), files, slogger)
		institutionService := institution.NewService(institutionPostgres.NewInstitutionRepository(db), slogger)
		service := verification.NewService(
			verificationPostgres.NewVerificationRepository(db),
			certificateService,
			institutionService,
			&notification.LogSender{Logger: slogger},
			"http://localhost:8080",
			slogger,
		)
		handler = verification.NewHandler(service)

		inst, err = institutionService.Create(institution.CreateInstitutionDTO{
			Name:         "University of Zomba",
			ContactEmail: "registry@unz.example",
		})
		Expect(err).NotTo(HaveOccurred())

		tokenGen = auth.NewJWTTokenGenerator(
			"access-secret-0123456789abcdef0123456789",
			"refresh-secret-0123456789abcdef012345678",
			time.Hour, time.Hour,
		)
		authHandler := auth.NewHandler(auth.NewService(nil, tokenGen, slogger))

		router = chi.NewRouter()
		router.With(authHandler.OptionalAuthMiddleware).Post("/verifications/request", handler.Request)
		router.Get("/verifications/{id}", handler.Get)
		router.Patch("/verifications/{id}/resolve", handler.Resolve)
		router.Post("/verifications/{id}/remind", handler.Remind)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).NotTo(HaveOccurred())
	})

	submitRequestWithToken := func(bearer string) *verification.Verification {
		var buf bytes.Buffer
		form := multipart.NewWriter(&buf)
		Expect(form.WriteField("student_name", "Chikondi Banda")).To(Succeed())
		Expect(form.WriteField("course_name", "Computer Science")).To(Succeed())
		Expect(form.WriteField("graduation_year", "2019")).To(Succeed())
		Expect(form.WriteField("institution_id", strconv.FormatInt(inst.ID, 10))).To(Succeed())
		part, err := form.CreateFormFile("certificate_file", "scan.pdf")
		Expect(err).NotTo(HaveOccurred())
		_, err = part.Write([]byte("scanned bytes"))
		Expect(err).NotTo(HaveOccurred())
		Expect(form.Close()).To(Succeed())

		req := httptest.NewRequest(http.MethodPost, "/verifications/request", &buf)
		req.Header.Set("Content-Type", form.FormDataContentType())
		if bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusCreated))
		var v verification.Verification
		Expect(json.NewDecoder(w.Body).Decode(&v)).To(Succeed())
		return &v
	}

	submitRequest := func() *verification.Verification {
		return submitRequestWithToken("")
	}

	resolveAs := func(id string, principal *auth.Principal, decision string) *httptest.ResponseRecorder {
		body := strings.NewReader(`{"decision": "` + decision + `"}`)
		req := httptest.NewRequest(http.MethodPatch, "/verifications/"+id+"/resolve", body)
		req = req.WithContext(auth.ContextWithPrincipal(req.Context(), principal))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	staff := func(institutionID int64) *auth.Principal {
		return &auth.Principal{UserID: 5, Username: "staff", Role: auth.RoleHR, InstitutionID: int64Ptr(institutionID)}
	}

	Describe("POST /verifications/request", func() {
		It("should open a pending verification from a multipart form", func() {
			v := submitRequest()

			Expect(v.Status).To(Equal(verification.StatusPending))
			Expect(v.InstitutionID).To(Equal(inst.ID))
			Expect(v.RequestedBy).To(BeNil())
		})

		It("should attribute the request when a bearer token is presented", func() {
			token, err := tokenGen.GenerateAccessToken(staff(inst.ID))
			Expect(err).NotTo(HaveOccurred())

			v := submitRequestWithToken(token)

			Expect(v.RequestedBy).NotTo(BeNil())
			Expect(*v.RequestedBy).To(Equal(int64(5)))
		})

		It("should fall back to an anonymous request on a garbage token", func() {
			v := submitRequestWithToken("not-a-jwt")

			Expect(v.RequestedBy).To(BeNil())
		})

		It("should answer missing fields with 400", func() {
			var buf bytes.Buffer
			form := multipart.NewWriter(&buf)
			Expect(form.WriteField("student_name", "Chikondi Banda")).To(Succeed())
			Expect(form.Close()).To(Succeed())

			req := httptest.NewRequest(http.MethodPost, "/verifications/request", &buf)
			req.Header.Set("Content-Type", form.FormDataContentType())
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("PATCH /verifications/{id}/resolve", func() {
		It("should resolve and flip the certificate on a valid decision", func() {
			v := submitRequest()

			w := resolveAs("1", staff(inst.ID), "valid")

			Expect(w.Code).To(Equal(http.StatusOK))
			var resolved verification.Verification
			Expect(json.NewDecoder(w.Body).Decode(&resolved)).To(Succeed())
			Expect(resolved.Status).To(Equal(verification.StatusValid))

			var cert certificate.Certificate
			Expect(db.Where("certificate_id = ?", v.CertificateID).First(&cert).Error).NotTo(HaveOccurred())
			Expect(cert.Verified).To(BeTrue())
		})

		It("should answer cross-institution staff with 403", func() {
			submitRequest()

			w := resolveAs("1", staff(999), "valid")

			Expect(w.Code).To(Equal(http.StatusForbidden))
		})

		It("should answer a second resolution with 409", func() {
			submitRequest()
			Expect(resolveAs("1", staff(inst.ID), "invalid").Code).To(Equal(http.StatusOK))

			w := resolveAs("1", staff(inst.ID), "valid")

			Expect(w.Code).To(Equal(http.StatusConflict))
		})

		It("should answer an unknown decision with 400", func() {
			submitRequest()

			w := resolveAs("1", staff(inst.ID), "maybe")

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("should answer an unknown id with 404", func() {
			w := resolveAs("77", staff(inst.ID), "valid")

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("POST /verifications/{id}/remind", func() {
		It("should answer a resolved verification with 409", func() {
			submitRequest()
			Expect(resolveAs("1", staff(inst.ID), "valid").Code).To(Equal(http.StatusOK))

			req := httptest.NewRequest(http.MethodPost, "/verifications/1/remind", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusConflict))
		})
	})
})
