package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/scosmb/license-console/internal/config"
	"github.com/scosmb/license-console/internal/domain/admin"
	"github.com/scosmb/license-console/internal/ierr"
	"go.uber.org/zap"
)

type AccessClaims struct {
	Username string     `json:"username"`
	Role     admin.Role `json:"role"`
	jwt.RegisteredClaims
}

type AuthService struct {
	repo   admin.Repository
	cfg    *config.JWTConfig
	logger *zap.Logger
}

func NewAuthService(repo admin.Repository, cfg *config.JWTConfig, logger *zap.Logger) *AuthService {
	return &AuthService{
		repo:   repo,
		cfg:    cfg,
		logger: logger.Named("AuthService"),
	}
}

// Login checks credentials against the admin store and issues a signed
// access token. Inactive accounts fail the same way as bad credentials so
// the response does not leak account state.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *admin.User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		s.logger.Debug("Login failed: user lookup", zap.String("username", username), zap.Error(err))
		return "", nil, ierr.ErrInvalidCredentials
	}

	if !user.IsActive || !user.CheckPassword(password) {
		s.logger.Warn("Login rejected", zap.String("username", username), zap.Bool("active", user.IsActive))
		return "", nil, ierr.ErrInvalidCredentials
	}

	now := time.Now().UTC()
	claims := AccessClaims{
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		s.logger.Error("Failed to sign access token", zap.Error(err))
		return "", nil, fmt.Errorf("%w: token signing failed", ierr.ErrInternalServer)
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		// Login still succeeds; the timestamp is best effort.
		s.logger.Warn("Failed to record last login time", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	s.logger.Info("Admin logged in", zap.String("username", user.Username), zap.String("role", string(user.Role)))
	return signed, user, nil
}

// ResolveToken validates a bearer token and loads the current admin record
// behind it. The record is re-read on every request so a deactivation takes
// effect immediately, not at token expiry.
func (s *AuthService) ResolveToken(ctx context.Context, rawToken string) (*admin.User, error) {
	parsed, err := jwt.ParseWithClaims(rawToken, &AccessClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	}, jwt.WithIssuer(s.cfg.Issuer), jwt.WithExpirationRequired())
	if err != nil {
		s.logger.Debug("Token validation failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ierr.ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*AccessClaims)
	if !ok {
		return nil, ierr.ErrTokenNoClaims
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed subject", ierr.ErrInvalidToken)
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		s.logger.Warn("Token subject no longer exists", zap.String("user_id", claims.Subject))
		return nil, ierr.ErrUnauthorized
	}

	if !user.IsActive {
		s.logger.Warn("Token for deactivated admin rejected", zap.String("username", user.Username))
		return nil, ierr.ErrUnauthorized
	}

	return user, nil
}
