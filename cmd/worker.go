package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/kambejat/undiziwa/internal/certificate"
	certificatepg "github.com/kambejat/undiziwa/internal/certificate/postgres"
	"github.com/kambejat/undiziwa/internal/institution"
	institutionpg "github.com/kambejat/undiziwa/internal/institution/postgres"
	"github.com/kambejat/undiziwa/internal/notification"
	"github.com/kambejat/undiziwa/internal/storage"
	"github.com/kambejat/undiziwa/internal/verification"
	verificationpg "github.com/kambejat/undiziwa/internal/verification/postgres"
	"github.com/kambejat/undiziwa/pkg/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the automated verification worker",
	Long:  `Periodically resolves pending verifications submitted through automated channels.`,
	Run: func(cmd *cobra.Command, args []string) {
		startVerificationWorker()
	},
}

var (
	sweepInterval time.Duration
	sweepBatch    int
)

func init() {
	workerCmd.Flags().DurationVar(&sweepInterval, "interval", time.Minute, "time between sweeps")
	workerCmd.Flags().IntVar(&sweepBatch, "batch", 50, "maximum verifications resolved per sweep")
	rootCmd.AddCommand(workerCmd)
}

func startVerificationWorker() {
	cfg, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(os.Getenv("APP_ENV"))
	lg := logger.L()

	db, err := initDB(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize orm: %v\n", err)
		os.Exit(1)
	}

	files, err := storage.NewLocalFileStore(cfg.Storage.UploadDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize file store: %v\n", err)
		os.Exit(1)
	}

	var mailer notification.Sender
	if cfg.SMTP.Enabled() {
		mailer = notification.NewSMTPSender(cfg.SMTP, lg)
	} else {
		mailer = &notification.LogSender{Logger: lg}
	}

	certificateService := certificate.NewService(certificatepg.NewCertificateRepository(gormDB), files, lg)
	institutionService := institution.NewService(institutionpg.NewInstitutionRepository(gormDB), lg)
	verificationService := verification.NewService(
		verificationpg.NewVerificationRepository(gormDB),
		certificateService,
		institutionService,
		mailer,
		cfg.Server.BaseURL,
		lg,
	)

	lg.Info("starting verification worker", "interval", sweepInterval.String(), "batch", sweepBatch)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			resolved, err := verificationService.SweepAutomated(sweepBatch)
			if err != nil {
				lg.Error("sweep failed", "error", err)
				continue
			}
			if resolved > 0 {
				lg.Info("sweep completed", "resolved", resolved)
			}
		case sig := <-sigChan:
			lg.Info("received signal, stopping worker", "signal", sig.String())
			return
		}
	}
}
