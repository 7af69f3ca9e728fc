package auth

import (
	"context"
	"time"

	"github.com/RIKASH04/Resulyhub/common/metrics"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Repository struct {
	db      bun.IDB
	metrics *metrics.Metrics
}

func NewRepository(db bun.IDB, m *metrics.Metrics) *Repository {
	return &Repository{
		db:      db,
		metrics: m,
	}
}

func (r *Repository) CreateRefreshToken(ctx context.Context, email, token string, expiresAt time.Time) error {
	start := time.Now()
	refreshToken := &RefreshToken{
		ID:        uuid.New(),
		Email:     email,
		Token:     token,
		ExpiresAt: expiresAt,
	}

	_, err := r.db.NewInsert().Model(refreshToken).Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", "refresh_tokens", time.Since(start), err)

	return err
}

// GetRefreshToken returns the token only while it is unexpired.
func (r *Repository) GetRefreshToken(ctx context.Context, token string) (*RefreshToken, error) {
	start := time.Now()
	refreshToken := &RefreshToken{}
	err := r.db.NewSelect().
		Model(refreshToken).
		Where("token = ?", token).
		Where("expires_at > ?", time.Now()).
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "refresh_tokens", time.Since(start), err)

	if err != nil {
		return nil, err
	}
	return refreshToken, nil
}

func (r *Repository) DeleteRefreshToken(ctx context.Context, token string) error {
	start := time.Now()
	_, err := r.db.NewDelete().
		Model((*RefreshToken)(nil)).
		Where("token = ?", token).
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "delete", "refresh_tokens", time.Since(start), err)

	return err
}

func (r *Repository) DeleteExpiredTokens(ctx context.Context) (int64, error) {
	start := time.Now()
	result, err := r.db.NewDelete().
		Model((*RefreshToken)(nil)).
		Where("expires_at < ?", time.Now()).
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "delete", "refresh_tokens", time.Since(start), err)

	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *Repository) DeleteAllTokens(ctx context.Context, email string) error {
	start := time.Now()
	_, err := r.db.NewDelete().
		Model((*RefreshToken)(nil)).
		Where("email = ?", email).
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "delete", "refresh_tokens", time.Since(start), err)

	return err
}
