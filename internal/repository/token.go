package repository

import (
	"context"
	"time"

	"wanderlog/internal/cache"
	"wanderlog/internal/models"

	"gorm.io/gorm"
)

// TokenRepository persists hashed personal access tokens.
type TokenRepository interface {
	Create(ctx context.Context, token *models.AccessToken) error
	GetByHash(ctx context.Context, hash string) (*models.AccessToken, error)
	Touch(ctx context.Context, id uint, at time.Time) error
	DeleteByHash(ctx context.Context, hash string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type tokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository returns a new TokenRepository implementation.
func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Create(ctx context.Context, token *models.AccessToken) error {
	if token.Name == "" {
		token.Name = models.DefaultTokenName
	}
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// GetByHash resolves a token by the SHA-256 hash of its plaintext.
// Lookups always hit the primary so a fresh token is visible immediately.
func (r *tokenRepository) GetByHash(ctx context.Context, hash string) (*models.AccessToken, error) {
	var token models.AccessToken
	err := cache.Aside(ctx, "token", cache.TokenKey(hash), &token, cache.TokenTTL, func() error {
		if err := r.db.WithContext(ctx).Where("token_hash = ?", hash).First(&token).Error; err != nil {
			return notFoundOr(err, "Token", "(redacted)")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// The hash is not serialized, so restore it for cached hits.
	token.TokenHash = hash
	return &token, nil
}

// Touch records token usage.
func (r *tokenRepository) Touch(ctx context.Context, id uint, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&models.AccessToken{}).
		Where("id = ?", id).
		UpdateColumn("last_used_at", at.UTC()).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// DeleteByHash removes a token. Deleting an unknown token is not an error.
func (r *tokenRepository) DeleteByHash(ctx context.Context, hash string) error {
	if err := r.db.WithContext(ctx).Where("token_hash = ?", hash).Delete(&models.AccessToken{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateToken(ctx, hash)
	return nil
}

// DeleteExpired prunes tokens whose expiry has passed.
func (r *tokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", now.UTC()).
		Delete(&models.AccessToken{})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}
