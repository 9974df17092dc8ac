package server

import "github.com/gofiber/fiber/v2"

// GetFeatureFlags handles GET /api/feature-flags
// @Summary Feature flags
// @Description Configured FEATURE_FLAGS values and their evaluation for the caller
// @Tags meta
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{success=bool,raw=map[string]string,evaluated=map[string]bool}
// @Failure 401 {object} models.ErrorResponse
// @Router /feature-flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	// Manager methods are nil-safe; an unset manager reports no flags.
	return c.JSON(fiber.Map{
		"success":   true,
		"raw":       s.featureFlags.Raw(),
		"evaluated": s.featureFlags.Snapshot(currentUserID(c)),
	})
}
