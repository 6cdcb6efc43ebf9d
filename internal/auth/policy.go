package auth

import (
	"log/slog"
	"net/http"
)

// RolePolicy gates role-restricted actions. Missing principal is answered with
// 401, a principal outside the allowed roles with 403.
type RolePolicy struct {
	logger *slog.Logger
}

func NewRolePolicy(logger *slog.Logger) *RolePolicy {
	return &RolePolicy{logger: logger}
}

func (rp *RolePolicy) RequireRoles(allowed ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok || principal == nil {
				rp.logger.Warn("role check failed: principal not found in context")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			for _, role := range allowed {
				if principal.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			rp.logger.WarnContext(r.Context(), "access denied: role not permitted",
				"user_id", principal.UserID,
				"role", principal.Role,
				"path", r.URL.Path)
			http.Error(w, "Forbidden: insufficient role", http.StatusForbidden)
		})
	}
}

// RequireAdmin gates permission changes and forced password resets.
func (rp *RolePolicy) RequireAdmin() func(http.Handler) http.Handler {
	return rp.RequireRoles(RoleGovAdmin, RoleSuperAdmin)
}

// RequireInstitutionStaff gates institution-side certificate management.
func (rp *RolePolicy) RequireInstitutionStaff() func(http.Handler) http.Handler {
	return rp.RequireRoles(RoleHR, RoleInstitutionAdmin, RoleGovAdmin, RoleSuperAdmin)
}
