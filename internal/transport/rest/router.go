package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/kambejat/undiziwa/internal/auth"
	"github.com/kambejat/undiziwa/internal/certificate"
	"github.com/kambejat/undiziwa/internal/institution"
	"github.com/kambejat/undiziwa/internal/transport/middleware"
	"github.com/kambejat/undiziwa/internal/transport/swagger"
	"github.com/kambejat/undiziwa/internal/user"
	"github.com/kambejat/undiziwa/internal/verification"
)

// RegisterAllRoutes wires every handler onto the router. Public surface:
// login/refresh, the verification request form, the public institution list,
// and reset token redemption. Everything else sits behind the auth
// middleware, with role gates on administrative routes.
func RegisterAllRoutes(router *chi.Mux, db *sql.DB, authHandler *auth.Handler, policy *auth.RolePolicy, userHandler *user.Handler, institutionHandler *institution.Handler, certificateHandler *certificate.Handler, verificationHandler *verification.Handler, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", authHandler.Login)
			sr.Post("/refresh", authHandler.RefreshToken)
			sr.Post("/logout", authHandler.Logout)
		})

		// Anyone may submit a verification request; a valid bearer token is
		// picked up for attribution but never required. The institution list
		// backs the request form.
		r.With(authHandler.OptionalAuthMiddleware).Post("/verifications/request", verificationHandler.Request)
		r.Get("/institutions/public", institutionHandler.ListPublic)
		r.Post("/reset-password/confirm", userHandler.ConfirmReset)

		r.Group(func(pr chi.Router) {
			pr.Use(authHandler.AuthMiddleware)

			pr.Route("/verifications", func(vr chi.Router) {
				vr.Get("/", verificationHandler.List)
				vr.Get("/{id}", verificationHandler.Get)

				vr.Group(func(sr chi.Router) {
					sr.Use(policy.RequireInstitutionStaff())
					sr.Patch("/{id}/resolve", verificationHandler.Resolve)
				})

				vr.Group(func(ar chi.Router) {
					ar.Use(policy.RequireAdmin())
					ar.Post("/{id}/run", verificationHandler.RunAutomated)
					ar.Post("/{id}/remind", verificationHandler.Remind)
					ar.Delete("/{id}", verificationHandler.Delete)
				})
			})

			pr.Route("/certificates", func(cr chi.Router) {
				cr.Get("/", certificateHandler.List)
				cr.Get("/{id}", certificateHandler.Get)
				cr.Get("/{id}/download", certificateHandler.Download)

				cr.Group(func(sr chi.Router) {
					sr.Use(policy.RequireInstitutionStaff())
					sr.Post("/", certificateHandler.Submit)
				})

				cr.Group(func(ar chi.Router) {
					ar.Use(policy.RequireAdmin())
					ar.Delete("/{id}", certificateHandler.Delete)
				})
			})

			pr.Route("/institutions", func(ir chi.Router) {
				ir.Get("/{id}", institutionHandler.Get)

				ir.Group(func(sr chi.Router) {
					sr.Use(policy.RequireInstitutionStaff())
					sr.Get("/dashboard", institutionHandler.Dashboard)
				})

				ir.Group(func(ar chi.Router) {
					ar.Use(policy.RequireAdmin())
					ar.Get("/", institutionHandler.List)
					ar.Post("/", institutionHandler.Create)
					ar.Patch("/{id}", institutionHandler.Update)
					ar.Delete("/{id}", institutionHandler.Delete)
				})
			})

			pr.Route("/users", func(ur chi.Router) {
				ur.Get("/{id}", userHandler.Get)

				ur.Group(func(mr chi.Router) {
					mr.Use(policy.RequireRoles(auth.RoleInstitutionAdmin, auth.RoleGovAdmin, auth.RoleSuperAdmin))
					mr.Get("/", userHandler.List)
					mr.Post("/", userHandler.Create)
				})

				ur.Group(func(ar chi.Router) {
					ar.Use(policy.RequireAdmin())
					ar.Patch("/{id}/permission", userHandler.UpdatePermission)
					ar.Post("/{id}/reset-password", userHandler.AdminResetPassword)
				})
			})
		})
	})
}
