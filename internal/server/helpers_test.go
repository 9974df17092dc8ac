package server

import (
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

func decodeEnvelope(t *testing.T, resp *http.Response) models.ErrorResponse {
	t.Helper()
	var body models.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHumanizeParam(t *testing.T) {
	tests := []struct {
		param    string
		expected string
	}{
		{"id", "ID"},
		{"storyId", "story ID"},
		{"savedStoryId", "saved story ID"},
		{"something", "something"},
	}
	for _, tt := range tests {
		t.Run(tt.param, func(t *testing.T) {
			assert.Equal(t, tt.expected, humanizeParam(tt.param))
		})
	}
}

func TestParsePage(t *testing.T) {
	app := fiber.New()
	app.Get("/items", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"page": parsePage(c)})
	})

	tests := map[string]float64{
		"/items":          1,
		"/items?page=3":   3,
		"/items?page=0":   1,
		"/items?page=-2":  1,
		"/items?page=abc": 1,
	}
	for target, want := range tests {
		t.Run(target, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			var body map[string]float64
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, want, body["page"])
		})
	}
}

func TestParseID_ValidID(t *testing.T) {
	app := fiber.New()
	s := &Server{}
	app.Get("/items/:id", func(c *fiber.Ctx) error {
		id, err := s.parseID(c, "id")
		if err != nil {
			return nil
		}
		return c.JSON(fiber.Map{"id": id})
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/items/42", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestParseID_Rejects(t *testing.T) {
	tests := []struct {
		param       string
		value       string
		expectedMsg string
	}{
		{"id", "abc", "Invalid ID"},
		{"id", "0", "Invalid ID"},
		{"id", "-4", "Invalid ID"},
		{"storyId", "x", "Invalid story ID"},
	}
	for _, tt := range tests {
		t.Run(tt.param+"="+tt.value, func(t *testing.T) {
			app := fiber.New()
			s := &Server{}
			app.Get("/items/:"+tt.param, func(c *fiber.Ctx) error {
				_, _ = s.parseID(c, tt.param)
				return nil
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/items/"+tt.value, nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			body := decodeEnvelope(t, resp)
			assert.False(t, body.Success)
			assert.Equal(t, tt.expectedMsg, body.Message)
			assert.Equal(t, models.CodeBadRequest, body.Code)
		})
	}
}

func TestMapServiceError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{models.NewValidationError("bad"), http.StatusUnprocessableEntity},
		{models.NewUnauthenticatedError("no"), http.StatusUnauthorized},
		{models.NewTokenExpiredError(), http.StatusUnauthorized},
		{models.NewInvalidCredentialsError(), http.StatusUnauthorized},
		{models.NewForbiddenError("Unauthorized action."), http.StatusForbidden},
		{models.NewNotFoundError("Story", 1), http.StatusNotFound},
		{models.NewConflictError("Story already liked."), http.StatusBadRequest},
		{models.NewBadRequestError("bad"), http.StatusBadRequest},
		{models.NewRateLimitedError(), http.StatusTooManyRequests},
		{models.NewInternalError(errors.New("boom")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.status, mapServiceError(tt.err))
		})
	}
}

func TestRespondError_HidesInternalDetails(t *testing.T) {
	app := fiber.New()
	app.Get("/fail", func(c *fiber.Ctx) error {
		return respondError(c, errors.New("pq: connection refused to 10.0.0.3"))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/fail", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body := decodeEnvelope(t, resp)
	assert.Equal(t, "Internal server error", body.Message)
	assert.Equal(t, models.CodeInternal, body.Code)
}

func TestRespondError_FieldErrors(t *testing.T) {
	app := fiber.New()
	app.Get("/invalid", func(c *fiber.Ctx) error {
		appErr := models.NewValidationError("The title field is required.")
		appErr.AddField("title", "The title field is required.")
		return respondError(c, appErr)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/invalid", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	body := decodeEnvelope(t, resp)
	assert.Equal(t, []string{"The title field is required."}, body.Errors["title"])
}
