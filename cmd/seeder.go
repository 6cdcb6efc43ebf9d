package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

// seedCmd bootstraps the first institution and a super_admin account so a
// fresh deployment is operable.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with an initial institution and admin account",
	Long:  `Seed the database with the first institution and a super_admin account for bootstrapping a deployment.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		instName := "Ministry of Education"
		var institutionID int64
		row := db.QueryRow("SELECT institution_id FROM institutions WHERE institution_name = $1", instName)
		if err := row.Scan(&institutionID); err != nil {
			err = db.QueryRow(
				`INSERT INTO institutions (institution_name, contact_email, is_active, created_at)
				 VALUES ($1, $2, true, now()) RETURNING institution_id`,
				instName, "registry@undiziwa.example").Scan(&institutionID)
			if err != nil {
				log.Fatalf("failed to insert institution: %v", err)
			}
			fmt.Println("Seeded institution:", instName)
		} else {
			fmt.Println("institution already exists:", instName)
		}

		adminUsername := "admin"
		var exists int
		row = db.QueryRow("SELECT 1 FROM users WHERE username = $1", adminUsername)
		if err := row.Scan(&exists); err == nil {
			fmt.Println("admin user already exists:", adminUsername)
			return
		}

		// Default credential for first login only; rotate immediately.
		hash, err := bcrypt.GenerateFromPassword([]byte("ChangeMe!2024"), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("failed to hash password: %v", err)
		}

		_, err = db.Exec(
			`INSERT INTO users (username, full_name, email, password_hash, role, institution_id, is_active, created_at)
			 VALUES ($1, $2, $3, $4, 'super_admin', $5, true, now())`,
			adminUsername, "System Administrator", "admin@undiziwa.example", string(hash), institutionID)
		if err != nil {
			log.Fatalf("failed to insert admin user: %v", err)
		}

		fmt.Println("Seeded super_admin user:", adminUsername)
	},
}
