package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kambejat/undiziwa/internal"
)

// Role is the closed set of principal roles. Unknown values are rejected at
// the boundary by ParseRole so every downstream switch can stay exhaustive.
type Role string

const (
	RoleHR               Role = "hr"
	RoleInstitutionAdmin Role = "institution_admin"
	RoleGovAdmin         Role = "gov_admin"
	RoleSuperAdmin       Role = "super_admin"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleHR, RoleInstitutionAdmin, RoleGovAdmin, RoleSuperAdmin:
		return Role(s), nil
	default:
		return "", internal.NewValidationError("unknown role: "+s, internal.ErrCodeInvalidRole)
	}
}

func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// CrossInstitution reports whether the role may act on resources outside its
// own institution. Resolution of verifications is excluded from this grant and
// always requires an institution match.
func (r Role) CrossInstitution() bool {
	switch r {
	case RoleGovAdmin, RoleSuperAdmin:
		return true
	case RoleHR, RoleInstitutionAdmin:
		return false
	default:
		return false
	}
}

// Principal is the authenticated actor attached to a request. It is passed
// explicitly into services; no global session state exists.
type Principal struct {
	UserID        int64  `json:"user_id"`
	Username      string `json:"username"`
	Role          Role   `json:"role"`
	InstitutionID *int64 `json:"institution_id,omitempty"`
}

type ctxKey string

const contextPrincipalKey ctxKey = "principal"

func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, contextPrincipalKey, p)
}

func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(contextPrincipalKey).(*Principal)
	return p, ok
}

// Claims represents JWT token claims
type Claims struct {
	UserID        int64  `json:"user_id"`
	Username      string `json:"username"`
	Role          string `json:"role"`
	InstitutionID *int64 `json:"institution_id,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) Principal() (*Principal, error) {
	role, err := ParseRole(c.Role)
	if err != nil {
		return nil, internal.ErrInvalidToken
	}
	return &Principal{
		UserID:        c.UserID,
		Username:      c.Username,
		Role:          role,
		InstitutionID: c.InstitutionID,
	}, nil
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenGenerator creates and validates session tokens.
type TokenGenerator interface {
	GenerateAccessToken(p *Principal) (string, error)
	GenerateRefreshToken(p *Principal) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}
