package postgres

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kambejat/undiziwa/internal"
	"github.com/kambejat/undiziwa/internal/credential"
	"github.com/kambejat/undiziwa/internal/user"
)

func TestCredentialRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "CredentialRepository Suite")
}

var _ = Describe("CredentialRepository", func() {
	var (
		db   *gorm.DB
		repo credential.Repository
	)

	BeforeEach(func() {
		var err error

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&user.User{}, &credential.PasswordResetToken{})
		Expect(err).NotTo(HaveOccurred())

		repo = NewCredentialRepository(db)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		err = sqlDB.Close()
		Expect(err).NotTo(HaveOccurred())
	})

	seedUser := func() *user.User {
		u := &user.User{
			Username:     "amina",
			Email:        "amina@unz.example",
			PasswordHash: "old-hash",
			Role:         "hr",
			IsActive:     true,
			CreatedAt:    time.Now(),
		}
		Expect(db.Create(u).Error).NotTo(HaveOccurred())
		return u
	}

	seedToken := func(userID int64, expiresAt time.Time, used bool) *credential.PasswordResetToken {
		prt := &credential.PasswordResetToken{
			UserID:    userID,
			Token:     "tok-" + expiresAt.Format("150405.000000000"),
			CreatedAt: time.Now(),
			ExpiresAt: expiresAt,
			Used:      used,
		}
		Expect(repo.Create(prt)).NotTo(HaveOccurred())
		return prt
	}

	Describe("Redeem", func() {
		It("should flip the token and write the new password hash", func() {
			u := seedUser()
			prt := seedToken(u.ID, time.Now().Add(time.Hour), false)

			err := repo.Redeem(prt.Token, time.Now(), "new-hash")

			Expect(err).NotTo(HaveOccurred())

			var reloaded user.User
			Expect(db.First(&reloaded, u.ID).Error).NotTo(HaveOccurred())
			Expect(reloaded.PasswordHash).To(Equal("new-hash"))

			var tok credential.PasswordResetToken
			Expect(db.First(&tok, prt.ID).Error).NotTo(HaveOccurred())
			Expect(tok.Used).To(BeTrue())
		})

		It("should refuse a second redemption", func() {
			u := seedUser()
			prt := seedToken(u.ID, time.Now().Add(time.Hour), false)

			Expect(repo.Redeem(prt.Token, time.Now(), "first-hash")).NotTo(HaveOccurred())

			err := repo.Redeem(prt.Token, time.Now(), "second-hash")

			Expect(err).To(MatchError(internal.ErrResetTokenUnavailable))

			var reloaded user.User
			Expect(db.First(&reloaded, u.ID).Error).NotTo(HaveOccurred())
			Expect(reloaded.PasswordHash).To(Equal("first-hash"))
		})

		It("should refuse an expired token", func() {
			u := seedUser()
			prt := seedToken(u.ID, time.Now().Add(-time.Minute), false)

			err := repo.Redeem(prt.Token, time.Now(), "new-hash")

			Expect(err).To(MatchError(internal.ErrResetTokenUnavailable))
		})

		It("should refuse an unknown token", func() {
			err := repo.Redeem("never-issued", time.Now(), "new-hash")

			Expect(err).To(MatchError(internal.ErrResetTokenUnavailable))
		})
	})
})
