// Package service holds the application's business logic.
package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"wanderlog/internal/middleware"
	"wanderlog/internal/models"
	"wanderlog/internal/observability"
	"wanderlog/internal/repository"
	"wanderlog/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// tokenBytes is the entropy of an issued token (256 bits).
const tokenBytes = 32

type SignupInput struct {
	Name     string `json:"name" form:"name" validate:"required,max=255"`
	Email    string `json:"email" form:"email" validate:"required,max=255,mailbox"`
	Password string `json:"password" form:"password" validate:"required,min=6"`
}

type LoginInput struct {
	Email    string `json:"email" form:"email" validate:"required,mailbox"`
	Password string `json:"password" form:"password" validate:"required"`
}

// AuthResult carries a freshly issued plaintext token. The plaintext is
// never persisted and cannot be recovered later.
type AuthResult struct {
	User  *models.User
	Token string
}

type AuthService struct {
	users  repository.UserRepository
	tokens repository.TokenRepository
	ttl    time.Duration
	now    func() time.Time
}

// NewAuthService creates an AuthService. A zero ttl issues tokens that never expire.
func NewAuthService(users repository.UserRepository, tokens repository.TokenRepository, ttl time.Duration) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		ttl:    ttl,
		now:    time.Now,
	}
}

// HashToken returns the hex SHA-256 digest stored for a plaintext token.
func HashToken(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (res *AuthResult, err error) {
	ctx, span := observability.StartSpan(ctx, "AuthService", "Signup")
	defer span.End()
	defer func() {
		observability.AuthEvents.WithLabelValues("signup", observability.Outcome(err)).Inc()
		observability.RecordErrorInContext(ctx, err)
	}()

	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	existing, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewFieldValidationError("email", "The email has already been taken.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{Name: in.Name, Email: in.Email, Password: string(hash)}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.Issue(ctx, user, models.DefaultTokenName)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (res *AuthResult, err error) {
	ctx, span := observability.StartSpan(ctx, "AuthService", "Login")
	defer span.End()
	defer func() {
		observability.AuthEvents.WithLabelValues("login", observability.Outcome(err)).Inc()
	}()

	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewInvalidCredentialsError()
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)) != nil {
		return nil, models.NewInvalidCredentialsError()
	}

	token, err := s.Issue(ctx, user, models.DefaultTokenName)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

// Issue creates a new token for user. A user may hold any number of tokens.
func (s *AuthService) Issue(ctx context.Context, user *models.User, name string) (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", models.NewInternalError(fmt.Errorf("generate token: %w", err))
	}
	plaintext := hex.EncodeToString(buf)

	token := &models.AccessToken{
		UserID:    user.ID,
		Name:      name,
		TokenHash: HashToken(plaintext),
	}
	if s.ttl > 0 {
		expires := s.now().Add(s.ttl).UTC()
		token.ExpiresAt = &expires
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		return "", err
	}
	return plaintext, nil
}

// ValidateToken resolves a bearer token to its user. Unknown tokens and tokens
// whose user has vanished are UNAUTHENTICATED; expired ones are TOKEN_EXPIRED.
func (s *AuthService) ValidateToken(ctx context.Context, plaintext string) (*models.User, error) {
	if plaintext == "" {
		return nil, models.NewUnauthenticatedError("Unauthenticated.")
	}

	token, err := s.tokens.GetByHash(ctx, HashToken(plaintext))
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewUnauthenticatedError("Unauthenticated.")
		}
		return nil, err
	}

	now := s.now()
	if token.Expired(now) {
		observability.AuthEvents.WithLabelValues("validate", "expired").Inc()
		return nil, models.NewTokenExpiredError()
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewUnauthenticatedError("Unauthenticated.")
		}
		return nil, err
	}

	if err := s.tokens.Touch(ctx, token.ID, now); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to record token usage", "token_id", token.ID, "error", err)
	}
	return user, nil
}

// Revoke deletes the presented token. Revoking an unknown token succeeds.
func (s *AuthService) Revoke(ctx context.Context, plaintext string) error {
	if plaintext == "" {
		return nil
	}
	err := s.tokens.DeleteByHash(ctx, HashToken(plaintext))
	observability.AuthEvents.WithLabelValues("logout", observability.Outcome(err)).Inc()
	return err
}

// PruneExpired removes tokens that are past their expiry.
func (s *AuthService) PruneExpired(ctx context.Context) (int64, error) {
	return s.tokens.DeleteExpired(ctx, s.now())
}
