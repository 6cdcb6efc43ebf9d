package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kambejat/undiziwa/internal"
	"golang.org/x/crypto/bcrypt"
)

// Account is the credential view of a stored user, as loaded for login.
type Account struct {
	ID            int64
	Username      string
	PasswordHash  string
	Role          string
	InstitutionID *int64
	IsActive      bool
}

type AccountRepository interface {
	GetByUsername(username string) (*Account, error)
}

// Service performs authentication-related business logic.
type Service struct {
	accounts AccountRepository
	tokenGen TokenGenerator
	logger   *slog.Logger
}

func NewService(accounts AccountRepository, tokenGen TokenGenerator, logger *slog.Logger) *Service {
	return &Service{
		accounts: accounts,
		tokenGen: tokenGen,
		logger:   logger,
	}
}

func NewJWTTokenGenerator(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTTokenGenerator {
	return &JWTTokenGenerator{
		AccessTokenSecret:  []byte(accessSecret),
		RefreshTokenSecret: []byte(refreshSecret),
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    refreshTTL,
	}
}

// Authenticate validates credentials and returns tokens. An inactive account
// fails with a distinct error from bad credentials.
func (s *Service) Authenticate(dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	account, err := s.accounts.GetByUsername(dto.Username)
	if err != nil {
		return AuthTokens{}, internal.ErrInvalidCredentials
	}

	if !account.IsActive {
		s.logger.Warn("login attempt on inactive account", "username", dto.Username)
		return AuthTokens{}, internal.ErrUserInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(dto.Password)); err != nil {
		return AuthTokens{}, internal.ErrInvalidCredentials
	}

	role, err := ParseRole(account.Role)
	if err != nil {
		s.logger.Error("stored account carries unknown role", "username", dto.Username, "role", account.Role)
		return AuthTokens{}, internal.NewInternalError("account role is not recognized", err)
	}

	principal := &Principal{
		UserID:        account.ID,
		Username:      account.Username,
		Role:          role,
		InstitutionID: account.InstitutionID,
	}

	return s.issueTokens(principal)
}

// RefreshTokens validates a refresh token and returns a new token pair.
func (s *Service) RefreshTokens(refreshToken string) (AuthTokens, error) {
	claims, err := s.tokenGen.ValidateToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	principal, err := claims.Principal()
	if err != nil {
		return AuthTokens{}, err
	}

	return s.issueTokens(principal)
}

// ValidateAccessToken validates an access token and returns the principal it
// carries.
func (s *Service) ValidateAccessToken(tokenString string) (*Principal, error) {
	claims, err := s.tokenGen.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return claims.Principal()
}

func (s *Service) issueTokens(p *Principal) (AuthTokens, error) {
	accessToken, err := s.tokenGen.GenerateAccessToken(p)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to sign access token", err)
	}

	refreshToken, err := s.tokenGen.GenerateRefreshToken(p)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to sign refresh token", err)
	}

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (j *JWTTokenGenerator) GenerateAccessToken(p *Principal) (string, error) {
	return j.sign(p, j.AccessTokenTTL, j.AccessTokenSecret)
}

func (j *JWTTokenGenerator) GenerateRefreshToken(p *Principal) (string, error) {
	return j.sign(p, j.RefreshTokenTTL, j.RefreshTokenSecret)
}

func (j *JWTTokenGenerator) sign(p *Principal, ttl time.Duration, secret []byte) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:        p.UserID,
		Username:      p.Username,
		Role:          string(p.Role),
		InstitutionID: p.InstitutionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   fmt.Sprintf("%d", p.UserID),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken validates a JWT token and returns claims
func (j *JWTTokenGenerator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		// Long-lived tokens were signed with the refresh secret.
		if claims, ok := token.Claims.(*Claims); ok && claims.ExpiresAt != nil {
			if time.Until(claims.ExpiresAt.Time) > j.AccessTokenTTL {
				return j.RefreshTokenSecret, nil
			}
		}
		return j.AccessTokenSecret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, internal.ErrTokenExpired
		}
		return nil, internal.ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, internal.ErrInvalidToken
}
