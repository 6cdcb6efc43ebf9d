package auth_test

import (
	"errors"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/kambejat/undiziwa/internal"
	"github.com/kambejat/undiziwa/internal/auth"
)

type mockAccountRepository struct {
	accounts map[string]*auth.Account
	getError error
}

func newMockAccountRepository() *mockAccountRepository {
	return &mockAccountRepository{accounts: make(map[string]*auth.Account)}
}

func (m *mockAccountRepository) GetByUsername(username string) (*auth.Account, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	account, ok := m.accounts[username]
	if !ok {
		return nil, errors.New("record not found")
	}
	return account, nil
}

var _ = Describe("AuthService", func() {
	var (
		service  *auth.Service
		mockRepo *mockAccountRepository
		tokenGen *auth.JWTTokenGenerator
		logger   *slog.Logger
	)

	BeforeEach(func() {
		mockRepo = newMockAccountRepository()
		tokenGen = auth.NewJWTTokenGenerator(
			"test-access-secret-at-least-32-chars!!",
			"test-refresh-secret-at-least-32-chars!",
			15*time.Minute,
			7*24*time.Hour,
		)
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = auth.NewService(mockRepo, tokenGen, logger)
	})

	addAccount := func(username, password, role string, active bool, institutionID *int64) {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		Expect(err).ToNot(HaveOccurred())
		mockRepo.accounts[username] = &auth.Account{
			ID:            int64(len(mockRepo.accounts) + 1),
			Username:      username,
			PasswordHash:  string(hash),
			Role:          role,
			InstitutionID: institutionID,
			IsActive:      active,
		}
	}

	Describe("Authenticate", func() {
		Context("with valid credentials", func() {
			It("should issue a token pair carrying the principal", func() {
				addAccount("amina", "correct-password", "institution_admin", true, int64Ptr(3))

				tokens, err := service.Authenticate(auth.LoginDTO{Username: "amina", Password: "correct-password"})

				Expect(err).ToNot(HaveOccurred())
				Expect(tokens.AccessToken).ToNot(BeEmpty())
				Expect(tokens.RefreshToken).ToNot(BeEmpty())

				principal, err := service.ValidateAccessToken(tokens.AccessToken)
				Expect(err).ToNot(HaveOccurred())
				Expect(principal.Username).To(Equal("amina"))
				Expect(principal.Role).To(Equal(auth.RoleInstitutionAdmin))
				Expect(*principal.InstitutionID).To(Equal(int64(3)))
			})
		})

		Context("with a wrong password", func() {
			It("should fail with invalid credentials", func() {
				addAccount("amina", "correct-password", "hr", true, int64Ptr(3))

				_, err := service.Authenticate(auth.LoginDTO{Username: "amina", Password: "wrong"})

				Expect(err).To(MatchError(internal.ErrInvalidCredentials))
			})
		})

		Context("with an unknown username", func() {
			It("should fail with the same error as a wrong password", func() {
				_, err := service.Authenticate(auth.LoginDTO{Username: "ghost", Password: "whatever"})

				Expect(err).To(MatchError(internal.ErrInvalidCredentials))
			})
		})

		Context("with an inactive account", func() {
			It("should fail with a distinct inactive error", func() {
				addAccount("dormant", "correct-password", "hr", false, int64Ptr(3))

				_, err := service.Authenticate(auth.LoginDTO{Username: "dormant", Password: "correct-password"})

				Expect(err).To(MatchError(internal.ErrUserInactive))
			})
		})

		Context("when the stored role is unrecognized", func() {
			It("should fail with an internal error", func() {
				addAccount("odd", "correct-password", "superuser", true, nil)

				_, err := service.Authenticate(auth.LoginDTO{Username: "odd", Password: "correct-password"})

				Expect(err).To(HaveOccurred())
				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Type).To(Equal(internal.ErrorTypeInternal))
			})
		})
	})

	Describe("RefreshTokens", func() {
		It("should issue a new pair from a valid refresh token", func() {
			addAccount("amina", "correct-password", "gov_admin", true, nil)
			tokens, err := service.Authenticate(auth.LoginDTO{Username: "amina", Password: "correct-password"})
			Expect(err).ToNot(HaveOccurred())

			refreshed, err := service.RefreshTokens(tokens.RefreshToken)

			Expect(err).ToNot(HaveOccurred())
			Expect(refreshed.AccessToken).ToNot(BeEmpty())
		})

		It("should reject garbage", func() {
			_, err := service.RefreshTokens("not-a-token")

			Expect(err).To(MatchError(internal.ErrInvalidToken))
		})
	})

	Describe("ValidateAccessToken", func() {
		It("should reject an expired token", func() {
			shortGen := auth.NewJWTTokenGenerator(
				"test-access-secret-at-least-32-chars!!",
				"test-refresh-secret-at-least-32-chars!",
				-time.Minute,
				7*24*time.Hour,
			)
			token, err := shortGen.GenerateAccessToken(&auth.Principal{UserID: 1, Username: "amina", Role: auth.RoleHR})
			Expect(err).ToNot(HaveOccurred())

			_, err = service.ValidateAccessToken(token)

			Expect(err).To(MatchError(internal.ErrTokenExpired))
		})
	})
})
