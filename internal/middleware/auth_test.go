package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"wanderlog/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type validatorFunc func(ctx context.Context, token string) (*models.User, error)

func (f validatorFunc) ValidateToken(ctx context.Context, token string) (*models.User, error) {
	return f(ctx, token)
}

func TestBearerAuth(t *testing.T) {
	validator := validatorFunc(func(_ context.Context, token string) (*models.User, error) {
		switch token {
		case "good":
			return &models.User{ID: 123, Name: "Ada"}, nil
		case "expired":
			return nil, models.NewTokenExpiredError()
		case "broken":
			return nil, errors.New("connection reset")
		default:
			return nil, models.NewUnauthenticatedError("Unauthenticated.")
		}
	})

	app := fiber.New()
	app.Get("/test", BearerAuth(validator), func(c *fiber.Ctx) error {
		uid, _ := c.UserContext().Value(UserIDKey).(uint)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"userID": c.Locals("userID"), "ctxUserID": uid})
	})

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectedCode   string
	}{
		{"Happy Path", "Bearer good", http.StatusOK, ""},
		{"Lowercase scheme", "bearer good", http.StatusOK, ""},
		{"Missing Header", "", http.StatusUnauthorized, models.CodeUnauthenticated},
		{"Wrong Scheme", "Basic good", http.StatusUnauthorized, models.CodeUnauthenticated},
		{"Empty Token", "Bearer ", http.StatusUnauthorized, models.CodeUnauthenticated},
		{"Unknown Token", "Bearer nope", http.StatusUnauthorized, models.CodeUnauthenticated},
		{"Expired Token", "Bearer expired", http.StatusUnauthorized, models.CodeTokenExpired},
		{"Storage Failure", "Bearer broken", http.StatusInternalServerError, models.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			var body map[string]any
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, float64(123), body["userID"])
				assert.Equal(t, float64(123), body["ctxUserID"])
				return
			}
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.expectedCode, body["code"])
		})
	}
}

func TestBearerToken(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		token, ok := BearerToken(c)
		if !ok {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.SendString(token)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer   abc123  ")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer a b")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
