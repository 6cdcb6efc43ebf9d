package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/kambejat/undiziwa/internal"
	"github.com/kambejat/undiziwa/internal/audit"
	auditpg "github.com/kambejat/undiziwa/internal/audit/postgres"
	"github.com/kambejat/undiziwa/internal/auth"
	authpg "github.com/kambejat/undiziwa/internal/auth/postgres"
	"github.com/kambejat/undiziwa/internal/certificate"
	certificatepg "github.com/kambejat/undiziwa/internal/certificate/postgres"
	"github.com/kambejat/undiziwa/internal/credential"
	credentialpg "github.com/kambejat/undiziwa/internal/credential/postgres"
	"github.com/kambejat/undiziwa/internal/institution"
	institutionpg "github.com/kambejat/undiziwa/internal/institution/postgres"
	"github.com/kambejat/undiziwa/internal/notification"
	"github.com/kambejat/undiziwa/internal/storage"
	"github.com/kambejat/undiziwa/internal/transport/rest"
	"github.com/kambejat/undiziwa/internal/user"
	userpg "github.com/kambejat/undiziwa/internal/user/postgres"
	"github.com/kambejat/undiziwa/internal/verification"
	verificationpg "github.com/kambejat/undiziwa/internal/verification/postgres"
	"github.com/kambejat/undiziwa/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	cfg, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"))
	lg := logger.L()

	db, err := initDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	files, err := storage.NewLocalFileStore(cfg.Storage.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file store: %w", err)
	}

	var mailer notification.Sender
	if cfg.SMTP.Enabled() {
		mailer = notification.NewSMTPSender(cfg.SMTP, lg)
	} else {
		mailer = &notification.LogSender{Logger: lg}
	}

	auditTrail := audit.NewTrail(auditpg.NewAuditRepository(gormDB), lg)

	tokenGen := auth.NewJWTTokenGenerator(
		cfg.Security.AccessTokenSecret,
		cfg.Security.RefreshTokenSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(authpg.NewAccountRepository(gormDB), tokenGen, lg)
	authHandler := auth.NewHandler(authService)
	policy := auth.NewRolePolicy(lg)

	credentialService := credential.NewService(credentialpg.NewCredentialRepository(gormDB), cfg.Security.BCryptCost, lg)

	institutionService := institution.NewService(institutionpg.NewInstitutionRepository(gormDB), lg)
	institutionHandler := institution.NewHandler(institutionService)

	certificateService := certificate.NewService(certificatepg.NewCertificateRepository(gormDB), files, lg)
	certificateHandler := certificate.NewHandler(certificateService)

	verificationService := verification.NewService(
		verificationpg.NewVerificationRepository(gormDB),
		certificateService,
		institutionService,
		mailer,
		cfg.Server.BaseURL,
		lg,
	)
	verificationHandler := verification.NewHandler(verificationService)

	userService := user.NewService(
		userpg.NewUserRepository(gormDB),
		credentialService,
		mailer,
		auditTrail,
		cfg.Server.BaseURL,
		lg,
	)
	userHandler := user.NewHandler(userService, credentialService)

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, db.DB, authHandler, policy, userHandler, institutionHandler, certificateHandler, verificationHandler, lg)

	return &Dependencies{
		Config: cfg,
		DB:     db,
		Router: router,
		Logger: lg,
	}, nil
}

// initDB opens the pgx-backed connection pool used by both the ORM and the
// health check.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
