package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/RIKASH04/Resulyhub/common/metrics"

	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrInvalidRefreshToken   = errors.New("invalid or expired refresh token")
	ErrNotAdmin              = errors.New("account is not an administrator")
	ErrPasswordLoginDisabled = errors.New("password login is disabled")
)

type Options struct {
	AdminEmail        string
	AdminPasswordHash string
	RefreshTokenTTL   time.Duration
}

// Service authenticates the single configured administrator.
type Service struct {
	db       bun.IDB
	metrics  *metrics.Metrics
	tokens   *TokenIssuer
	verifier IDTokenVerifier
	opts     Options
	logger   *slog.Logger
}

func NewService(db bun.IDB, m *metrics.Metrics, tokens *TokenIssuer, verifier IDTokenVerifier, opts Options, logger *slog.Logger) *Service {
	if opts.RefreshTokenTTL <= 0 {
		opts.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	return &Service{
		db:       db,
		metrics:  m,
		tokens:   tokens,
		verifier: verifier,
		opts:     opts,
		logger:   logger,
	}
}

func (s *Service) repo() *Repository {
	return NewRepository(s.db, s.metrics)
}

// IsAdmin compares case-insensitively against the configured admin email.
func (s *Service) IsAdmin(email string) bool {
	admin := strings.TrimSpace(s.opts.AdminEmail)
	return admin != "" && strings.EqualFold(strings.TrimSpace(email), admin)
}

func (s *Service) GoogleLogin(ctx context.Context, req GoogleLoginRequest) (*AuthResponse, error) {
	identity, err := s.verifier.Verify(ctx, req.IDToken)
	if err != nil {
		return nil, err
	}
	if !s.IsAdmin(identity.Email) {
		s.logger.WarnContext(ctx, "non-admin sign in rejected", "email", identity.Email)
		return nil, ErrNotAdmin
	}

	return s.generateTokenPair(ctx, Admin{Email: strings.ToLower(identity.Email), Name: identity.Name})
}

func (s *Service) PasswordLogin(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if s.opts.AdminPasswordHash == "" {
		return nil, ErrPasswordLoginDisabled
	}
	if !s.IsAdmin(req.Email) {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.opts.AdminPasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.generateTokenPair(ctx, Admin{Email: strings.ToLower(req.Email)})
}

// Refresh rotates the refresh token and issues a new access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	var resp *AuthResponse
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		repo := NewRepository(tx, s.metrics)

		stored, err := repo.GetRefreshToken(ctx, refreshToken)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrInvalidRefreshToken
			}
			return err
		}
		// The admin may have been reconfigured since the token was issued.
		if !s.IsAdmin(stored.Email) {
			return ErrInvalidRefreshToken
		}
		if err := repo.DeleteRefreshToken(ctx, refreshToken); err != nil {
			return err
		}

		resp, err = s.issue(ctx, repo, Admin{Email: stored.Email})
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.repo().DeleteRefreshToken(ctx, refreshToken)
}

func (s *Service) LogoutAll(ctx context.Context, email string) error {
	return s.repo().DeleteAllTokens(ctx, strings.ToLower(email))
}

// PurgeExpired removes refresh tokens past their expiry and returns how many.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.repo().DeleteExpiredTokens(ctx)
	if err != nil {
		return 0, fmt.Errorf("purge expired refresh tokens: %w", err)
	}
	return n, nil
}

func (s *Service) ValidateAccessToken(token string) (*Claims, error) {
	claims, err := s.tokens.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}
	if !s.IsAdmin(claims.Email) {
		return nil, ErrNotAdmin
	}
	return claims, nil
}

func (s *Service) AccessTokenTTL() time.Duration {
	return s.tokens.TTL()
}

func (s *Service) generateTokenPair(ctx context.Context, admin Admin) (*AuthResponse, error) {
	return s.issue(ctx, s.repo(), admin)
}

func (s *Service) issue(ctx context.Context, repo *Repository, admin Admin) (*AuthResponse, error) {
	accessToken, expiresAt, err := s.tokens.GenerateAccessToken(admin)
	if err != nil {
		return nil, err
	}

	refreshToken, err := GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	if err := repo.CreateRefreshToken(ctx, admin.Email, refreshToken, time.Now().Add(s.opts.RefreshTokenTTL)); err != nil {
		return nil, err
	}

	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
		Admin:        admin,
	}, nil
}
