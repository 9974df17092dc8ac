package server

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

type interactionFunc func(ctx context.Context, userID, storyID uint) (int64, error)

// interact runs fn for the current user against the :id story and reports
// the resulting count under countKey.
func (s *Server) interact(c *fiber.Ctx, fn interactionFunc, status int, countKey, message string) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	count, err := fn(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		countKey:  count,
	})
}

// LikeStory handles POST /api/stories/:id/like
// @Summary Like a story
// @Tags interactions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Story ID"
// @Success 201 {object} object{message=string,likes_count=int}
// @Failure 400 {object} models.ErrorResponse "Story already liked"
// @Failure 404 {object} models.ErrorResponse
// @Router /stories/{id}/like [post]
func (s *Server) LikeStory(c *fiber.Ctx) error {
	return s.interact(c, s.interactionService.Like, fiber.StatusCreated, "likes_count", "Story liked successfully.")
}

// UnlikeStory handles POST /api/stories/:id/unlike
// @Summary Remove a like
// @Tags interactions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Story ID"
// @Success 200 {object} object{message=string,likes_count=int}
// @Failure 404 {object} models.ErrorResponse
// @Router /stories/{id}/unlike [post]
func (s *Server) UnlikeStory(c *fiber.Ctx) error {
	return s.interact(c, s.interactionService.Unlike, fiber.StatusOK, "likes_count", "Story unliked successfully.")
}

// SaveStory handles POST /api/stories/:id/save
// @Summary Bookmark a story
// @Tags interactions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Story ID"
// @Success 201 {object} object{message=string,saves_count=int}
// @Failure 400 {object} models.ErrorResponse "Story already saved"
// @Failure 404 {object} models.ErrorResponse
// @Router /stories/{id}/save [post]
func (s *Server) SaveStory(c *fiber.Ctx) error {
	return s.interact(c, s.interactionService.Save, fiber.StatusCreated, "saves_count", "Story saved successfully.")
}

// UnsaveStory handles POST /api/stories/:id/unsave
// @Summary Remove a bookmark
// @Tags interactions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Story ID"
// @Success 200 {object} object{message=string,saves_count=int}
// @Failure 404 {object} models.ErrorResponse
// @Router /stories/{id}/unsave [post]
func (s *Server) UnsaveStory(c *fiber.Ctx) error {
	return s.interact(c, s.interactionService.Unsave, fiber.StatusOK, "saves_count", "Story unsaved successfully.")
}

// GetLikedStories handles GET /api/profile/liked-stories
// @Summary Stories the current user liked
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Success 200 {object} object{stories=models.Page[models.Story],message=string}
// @Router /profile/liked-stories [get]
func (s *Server) GetLikedStories(c *fiber.Ctx) error {
	page, err := s.interactionService.ListLiked(c.UserContext(), currentUserID(c), parsePage(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"stories": page,
		"message": "Liked stories retrieved successfully.",
	})
}

// GetSavedStories handles GET /api/profile/saved-stories
// @Summary Stories the current user saved
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Success 200 {object} object{stories=models.Page[models.Story],message=string}
// @Router /profile/saved-stories [get]
func (s *Server) GetSavedStories(c *fiber.Ctx) error {
	page, err := s.interactionService.ListSaved(c.UserContext(), currentUserID(c), parsePage(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"stories": page,
		"message": "Saved stories retrieved successfully.",
	})
}
