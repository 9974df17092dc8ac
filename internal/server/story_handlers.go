package server

import (
	"wanderlog/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ListStories handles GET /api/stories
// @Summary List published stories
// @Description Newest first, ten per page
// @Tags stories
// @Produce json
// @Param page query int false "Page number" default(1)
// @Success 200 {object} object{stories=models.Page[models.Story],message=string}
// @Router /stories [get]
func (s *Server) ListStories(c *fiber.Ctx) error {
	page, err := s.storyService.List(c.UserContext(), parsePage(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"stories": page,
		"message": "Stories retrieved successfully.",
	})
}

// GetStory handles GET /api/stories/:id
// @Summary Get a published story
// @Tags stories
// @Produce json
// @Param id path int true "Story ID"
// @Success 200 {object} object{story=models.Story,message=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /stories/{id} [get]
func (s *Server) GetStory(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	viewerID := s.optionalUserID(c)
	story, err := s.storyService.Get(c.UserContext(), id, viewerID)
	if err != nil {
		return respondError(c, err)
	}
	if err := s.interactionService.MarkViewer(c.UserContext(), viewerID, story); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"story":   story,
		"message": "Story retrieved successfully.",
	})
}

// CreateStory handles POST /api/stories
// @Summary Create a story
// @Description Accepts JSON or multipart/form-data with an optional "image" file. An uploaded file wins over imageUrl.
// @Tags stories
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Title"
// @Param content formData string true "Content"
// @Param location formData string false "Location, e.g. \"Paris, France\""
// @Param type formData string false "Story type"
// @Param imageUrl formData string false "External image URL"
// @Param is_published formData bool false "Publish immediately"
// @Param image formData file false "Image upload"
// @Success 201 {object} object{story=models.Story,message=string}
// @Failure 401 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /stories [post]
func (s *Server) CreateStory(c *fiber.Ctx) error {
	in, err := parseStoryInput(c)
	if err != nil {
		return respondError(c, err)
	}

	story, err := s.storyService.Create(c.UserContext(), currentUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"story":   story,
		"message": "Story created successfully.",
	})
}

// UpdateStory handles PUT /api/stories/:id
// @Summary Update a story
// @Description Partial update; only the owner may edit.
// @Tags stories
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param id path int true "Story ID"
// @Success 200 {object} object{story=models.Story,message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /stories/{id} [put]
func (s *Server) UpdateStory(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	in, err := parseStoryInput(c)
	if err != nil {
		return respondError(c, err)
	}

	story, err := s.storyService.Update(c.UserContext(), id, currentUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"story":   story,
		"message": "Story updated successfully.",
	})
}

// DeleteStory handles DELETE /api/stories/:id
// @Summary Delete a story
// @Tags stories
// @Security BearerAuth
// @Param id path int true "Story ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /stories/{id} [delete]
func (s *Server) DeleteStory(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.storyService.Delete(c.UserContext(), id, currentUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// IncrementViews handles POST /api/stories/:id/increment-views
// @Summary Count a view
// @Tags stories
// @Produce json
// @Param id path int true "Story ID"
// @Success 200 {object} object{views=int,message=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /stories/{id}/increment-views [post]
func (s *Server) IncrementViews(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	views, err := s.storyService.IncrementViews(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"views":   views,
		"message": "View count updated successfully.",
	})
}

// GetUserStories handles GET /api/user/stories
// @Summary Current user's stories
// @Description Drafts included, newest first
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{stories=[]models.Story,message=string}
// @Failure 401 {object} models.ErrorResponse
// @Router /user/stories [get]
func (s *Server) GetUserStories(c *fiber.Ctx) error {
	stories, err := s.storyService.ListByOwner(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	if stories == nil {
		stories = []models.Story{}
	}
	return c.JSON(fiber.Map{
		"stories": stories,
		"message": "User stories retrieved successfully.",
	})
}
