package server

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

func listData(c *fiber.Ctx, fetch func(context.Context) ([]string, error)) error {
	values, err := fetch(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	if values == nil {
		values = []string{}
	}
	return c.JSON(fiber.Map{"success": true, "data": values})
}

// GetLocations handles GET /api/locations
// @Summary Location facets
// @Description Countries, cities and story types derived from stories
// @Tags locations
// @Produce json
// @Success 200 {object} object{success=bool,data=service.Locations}
// @Router /locations [get]
func (s *Server) GetLocations(c *fiber.Ctx) error {
	locations, err := s.locationService.All(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": locations})
}

// GetCountries handles GET /api/locations/countries
// @Summary Distinct countries
// @Tags locations
// @Produce json
// @Success 200 {object} object{success=bool,data=[]string}
// @Router /locations/countries [get]
func (s *Server) GetCountries(c *fiber.Ctx) error {
	return listData(c, s.locationService.Countries)
}

// GetCities handles GET /api/locations/cities
// @Summary Distinct cities
// @Tags locations
// @Produce json
// @Success 200 {object} object{success=bool,data=[]string}
// @Router /locations/cities [get]
func (s *Server) GetCities(c *fiber.Ctx) error {
	return listData(c, s.locationService.Cities)
}

// GetTypes handles GET /api/locations/types
// @Summary Distinct story types
// @Tags locations
// @Produce json
// @Success 200 {object} object{success=bool,data=[]string}
// @Router /locations/types [get]
func (s *Server) GetTypes(c *fiber.Ctx) error {
	return listData(c, s.locationService.Types)
}
