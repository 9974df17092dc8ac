package middleware

import (
	"context"
	"errors"
	"strings"

	"wanderlog/internal/models"

	"github.com/gofiber/fiber/v2"
)

// TokenValidator resolves a plaintext bearer token to its owner.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*models.User, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c *fiber.Ctx) (string, bool) {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if header == "" {
		return "", false
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

// BearerAuth authenticates the request with an opaque bearer token.
// On success the user is available as c.Locals("user") and its ID as
// c.Locals("userID") and in the user context under UserIDKey.
func BearerAuth(validator TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := BearerToken(c)
		if !ok {
			if c.Get(fiber.HeaderAuthorization) == "" {
				return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthenticatedError("Unauthenticated."))
			}
			return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthenticatedError("Invalid authorization header format"))
		}

		user, err := validator.ValidateToken(c.UserContext(), token)
		if err != nil {
			var appErr *models.AppError
			if errors.As(err, &appErr) && (appErr.Code == models.CodeUnauthenticated || appErr.Code == models.CodeTokenExpired) {
				return models.RespondWithError(c, fiber.StatusUnauthorized, appErr)
			}
			Logger.ErrorContext(c.UserContext(), "token validation failed", "error", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		}

		c.Locals("userID", user.ID)
		c.Locals("user", user)
		c.Locals("accessToken", token)
		c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, user.ID))
		return c.Next()
	}
}
