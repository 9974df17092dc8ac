package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"wanderlog/internal/featureflags"
	"wanderlog/internal/models"
	"wanderlog/internal/observability"
	"wanderlog/internal/repository"
	"wanderlog/internal/validation"
)

// StoryInput carries story fields from a request. Nil fields are absent and,
// on update, leave the stored value untouched.
type StoryInput struct {
	Title       *string
	Content     *string
	Location    *string
	Type        *string
	ImageURL    *string
	IsPublished *bool
	// Image is an uploaded file; it wins over ImageURL when both are given.
	Image []byte
}

// storyRules is the validated shape of a story after the input is applied.
type storyRules struct {
	Title    string `json:"title" validate:"required,max=255"`
	Content  string `json:"content" validate:"required"`
	Location string `json:"location" validate:"omitempty,max=255"`
	Type     string `json:"type" validate:"omitempty,storytype"`
	ImageURL string `json:"imageUrl" validate:"omitempty,max=255,httpurl"`
}

type StoryService struct {
	stories repository.StoryRepository
	media   *MediaService
	flags   *featureflags.Manager
	now     func() time.Time
}

func NewStoryService(stories repository.StoryRepository, media *MediaService, flags *featureflags.Manager) *StoryService {
	return &StoryService{
		stories: stories,
		media:   media,
		flags:   flags,
		now:     time.Now,
	}
}

// List returns one page of published stories, newest publication first.
func (s *StoryService) List(ctx context.Context, page int) (models.Page[models.Story], error) {
	if page < 1 {
		page = 1
	}
	stories, total, err := s.stories.ListPublished(ctx, page, models.DefaultPageSize)
	if err != nil {
		return models.Page[models.Story]{}, err
	}
	s.resolveImages(stories)
	return models.NewPage(stories, page, models.DefaultPageSize, total), nil
}

// Get returns a published story. Drafts are reported as missing unless the
// owner preview flag is on and viewerID owns the story.
func (s *StoryService) Get(ctx context.Context, id, viewerID uint) (*models.Story, error) {
	story, err := s.stories.GetPublished(ctx, id)
	if err == nil {
		s.resolveImage(story)
		return story, nil
	}
	if !models.IsCode(err, models.CodeNotFound) || viewerID == 0 || !s.flags.Enabled(featureflags.StoryOwnerPreview, viewerID) {
		return nil, err
	}

	draft, draftErr := s.stories.GetByID(ctx, id)
	if draftErr != nil || draft.UserID != viewerID {
		return nil, err
	}
	s.resolveImage(draft)
	return draft, nil
}

func (s *StoryService) Create(ctx context.Context, ownerID uint, in StoryInput) (_ *models.Story, err error) {
	ctx, span := observability.StartSpan(ctx, "StoryService", "Create")
	defer span.End()
	defer func() { observability.RecordErrorInContext(ctx, err) }()

	rules := storyRules{
		Title:    deref(in.Title),
		Content:  deref(in.Content),
		Location: strings.TrimSpace(deref(in.Location)),
		Type:     deref(in.Type),
		ImageURL: strings.TrimSpace(deref(in.ImageURL)),
	}
	upload, err := s.validate(rules, in.Image)
	if err != nil {
		return nil, err
	}

	story := &models.Story{
		UserID:   ownerID,
		Title:    rules.Title,
		Content:  rules.Content,
		Location: optional(rules.Location),
		Type:     models.StoryTypeOther,
	}
	if rules.Type != "" {
		story.Type = models.StoryType(rules.Type)
	}
	if in.IsPublished != nil && *in.IsPublished {
		story.Publish(s.now())
	}

	if upload != nil {
		key, err := s.media.Store(ctx, in.Image, upload)
		if err != nil {
			return nil, err
		}
		story.Image = &key
	} else if rules.ImageURL != "" {
		story.Image = optional(rules.ImageURL)
	}

	if err := s.stories.Create(ctx, story); err != nil {
		if upload != nil {
			s.media.Remove(ctx, *story.Image)
		}
		return nil, err
	}
	observability.StoryEvents.WithLabelValues("created").Inc()
	if story.IsPublished {
		observability.StoryEvents.WithLabelValues("published").Inc()
	}

	return s.reload(ctx, story.ID)
}

func (s *StoryService) Update(ctx context.Context, id, requesterID uint, in StoryInput) (_ *models.Story, err error) {
	ctx, span := observability.StartSpan(ctx, "StoryService", "Update")
	defer span.End()
	defer func() { observability.RecordErrorInContext(ctx, err) }()

	story, err := s.owned(ctx, id, requesterID)
	if err != nil {
		return nil, err
	}

	rules := storyRules{
		Title:    story.Title,
		Content:  story.Content,
		Location: deref(story.Location),
		Type:     string(story.Type),
	}
	if in.Title != nil {
		rules.Title = *in.Title
	}
	if in.Content != nil {
		rules.Content = *in.Content
	}
	if in.Location != nil {
		rules.Location = strings.TrimSpace(*in.Location)
	}
	if in.Type != nil && *in.Type != "" {
		rules.Type = *in.Type
	}
	if in.ImageURL != nil {
		rules.ImageURL = strings.TrimSpace(*in.ImageURL)
	}
	upload, err := s.validate(rules, in.Image)
	if err != nil {
		return nil, err
	}

	story.Title = rules.Title
	story.Content = rules.Content
	story.Location = optional(rules.Location)
	story.Type = models.StoryType(rules.Type)

	wasPublished := story.IsPublished
	if in.IsPublished != nil {
		if *in.IsPublished {
			story.Publish(s.now())
		} else {
			story.IsPublished = false
		}
	}

	var previous string
	if story.IsLocalImage() {
		previous = *story.Image
	}
	replaced := false
	switch {
	case upload != nil:
		key, err := s.media.Store(ctx, in.Image, upload)
		if err != nil {
			return nil, err
		}
		story.Image = &key
		replaced = true
	case rules.ImageURL != "":
		story.Image = optional(rules.ImageURL)
		replaced = true
	}

	if err := s.stories.Update(ctx, story); err != nil {
		if upload != nil {
			s.media.Remove(ctx, *story.Image)
		}
		return nil, err
	}
	if replaced && previous != "" && previous != deref(story.Image) {
		s.media.Remove(ctx, previous)
	}

	observability.StoryEvents.WithLabelValues("updated").Inc()
	if !wasPublished && story.IsPublished {
		observability.StoryEvents.WithLabelValues("published").Inc()
	}

	return s.reload(ctx, story.ID)
}

func (s *StoryService) Delete(ctx context.Context, id, requesterID uint) error {
	story, err := s.owned(ctx, id, requesterID)
	if err != nil {
		return err
	}
	if err := s.stories.Delete(ctx, id); err != nil {
		return err
	}
	if story.IsLocalImage() {
		s.media.Remove(ctx, *story.Image)
	}
	observability.StoryEvents.WithLabelValues("deleted").Inc()
	return nil
}

// IncrementViews counts a view on any existing story, published or not.
func (s *StoryService) IncrementViews(ctx context.Context, id uint) (uint, error) {
	views, err := s.stories.IncrementViews(ctx, id)
	if err != nil {
		return 0, err
	}
	observability.StoryEvents.WithLabelValues("viewed").Inc()
	return views, nil
}

// ListByOwner returns every story of ownerID, drafts included.
func (s *StoryService) ListByOwner(ctx context.Context, ownerID uint) ([]models.Story, error) {
	stories, err := s.stories.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	s.resolveImages(stories)
	return stories, nil
}

// owned loads a story for mutation. Existence is checked before ownership.
func (s *StoryService) owned(ctx context.Context, id, requesterID uint) (*models.Story, error) {
	story, err := s.stories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if story.UserID != requesterID {
		return nil, models.NewForbiddenError("Unauthorized action.")
	}
	return story, nil
}

// validate checks the merged field values and the optional upload together
// so every offending field is reported at once.
func (s *StoryService) validate(rules storyRules, image []byte) (*validation.ImageInfo, error) {
	var fieldErr *models.AppError
	if err := validation.Struct(rules); err != nil {
		if !errors.As(err, &fieldErr) || fieldErr.Code != models.CodeValidation {
			return nil, err
		}
	}

	var info *validation.ImageInfo
	if len(image) > 0 {
		var err error
		info, err = s.media.Inspect(image)
		if err != nil {
			var imgErr *models.AppError
			if !errors.As(err, &imgErr) {
				return nil, err
			}
			if fieldErr == nil {
				fieldErr = imgErr
			} else {
				for field, msgs := range imgErr.Fields {
					for _, msg := range msgs {
						fieldErr.AddField(field, msg)
					}
				}
			}
		}
	}

	if fieldErr != nil {
		return nil, fieldErr
	}
	return info, nil
}

func (s *StoryService) reload(ctx context.Context, id uint) (*models.Story, error) {
	story, err := s.stories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.resolveImage(story)
	return story, nil
}

func (s *StoryService) resolveImage(story *models.Story) {
	story.ImageURL = s.media.PublicURL(story)
}

func (s *StoryService) resolveImages(stories []models.Story) {
	for i := range stories {
		s.resolveImage(&stories[i])
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// optional maps an empty string to NULL.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
