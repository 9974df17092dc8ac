package service

import (
	"context"

	"wanderlog/internal/models"
	"wanderlog/internal/observability"
	"wanderlog/internal/repository"
)

// InteractionService manages likes and saves. Each method returns the
// story's count for the affected ledger after the change.
type InteractionService struct {
	ledger  repository.InteractionRepository
	stories repository.StoryRepository
	media   *MediaService
}

func NewInteractionService(ledger repository.InteractionRepository, stories repository.StoryRepository, media *MediaService) *InteractionService {
	return &InteractionService{ledger: ledger, stories: stories, media: media}
}

func (s *InteractionService) Like(ctx context.Context, userID, storyID uint) (int64, error) {
	return s.add(ctx, models.InteractionLike, userID, storyID)
}

func (s *InteractionService) Unlike(ctx context.Context, userID, storyID uint) (int64, error) {
	return s.remove(ctx, models.InteractionLike, userID, storyID)
}

func (s *InteractionService) Save(ctx context.Context, userID, storyID uint) (int64, error) {
	return s.add(ctx, models.InteractionSave, userID, storyID)
}

func (s *InteractionService) Unsave(ctx context.Context, userID, storyID uint) (int64, error) {
	return s.remove(ctx, models.InteractionSave, userID, storyID)
}

func (s *InteractionService) LikeCount(ctx context.Context, storyID uint) (int64, error) {
	return s.ledger.Count(ctx, models.InteractionLike, storyID)
}

func (s *InteractionService) SaveCount(ctx context.Context, storyID uint) (int64, error) {
	return s.ledger.Count(ctx, models.InteractionSave, storyID)
}

// ListLiked pages through the stories userID liked, most recent like first.
func (s *InteractionService) ListLiked(ctx context.Context, userID uint, page int) (models.Page[models.Story], error) {
	return s.list(ctx, models.InteractionLike, userID, page)
}

// ListSaved pages through the stories userID saved, most recent save first.
func (s *InteractionService) ListSaved(ctx context.Context, userID uint, page int) (models.Page[models.Story], error) {
	return s.list(ctx, models.InteractionSave, userID, page)
}

// MarkViewer fills story.Liked and story.Saved for viewerID. A zero viewer
// leaves both unset.
func (s *InteractionService) MarkViewer(ctx context.Context, viewerID uint, story *models.Story) error {
	if viewerID == 0 || story == nil {
		return nil
	}
	liked, err := s.ledger.Exists(ctx, models.InteractionLike, viewerID, story.ID)
	if err != nil {
		return err
	}
	saved, err := s.ledger.Exists(ctx, models.InteractionSave, viewerID, story.ID)
	if err != nil {
		return err
	}
	story.Liked = &liked
	story.Saved = &saved
	return nil
}

func (s *InteractionService) add(ctx context.Context, kind models.InteractionKind, userID, storyID uint) (int64, error) {
	ctx, span := observability.StartSpan(ctx, "InteractionService", "add_"+string(kind))
	defer span.End()

	if err := s.requireStory(ctx, storyID); err != nil {
		return 0, err
	}
	// The unique index decides races; the repository reports a duplicate as CONFLICT.
	if err := s.ledger.Add(ctx, kind, userID, storyID); err != nil {
		observability.RecordErrorInContext(ctx, err)
		return 0, err
	}
	observability.InteractionEvents.WithLabelValues(string(kind), "add").Inc()
	return s.ledger.Count(ctx, kind, storyID)
}

func (s *InteractionService) remove(ctx context.Context, kind models.InteractionKind, userID, storyID uint) (int64, error) {
	if err := s.requireStory(ctx, storyID); err != nil {
		return 0, err
	}
	removed, err := s.ledger.Remove(ctx, kind, userID, storyID)
	if err != nil {
		return 0, err
	}
	if removed {
		observability.InteractionEvents.WithLabelValues(string(kind), "remove").Inc()
	}
	return s.ledger.Count(ctx, kind, storyID)
}

func (s *InteractionService) list(ctx context.Context, kind models.InteractionKind, userID uint, page int) (models.Page[models.Story], error) {
	if page < 1 {
		page = 1
	}
	stories, total, err := s.ledger.ListStories(ctx, kind, userID, page, models.DefaultPageSize)
	if err != nil {
		return models.Page[models.Story]{}, err
	}
	if s.media != nil {
		for i := range stories {
			stories[i].ImageURL = s.media.PublicURL(&stories[i])
		}
	}
	return models.NewPage(stories, page, models.DefaultPageSize, total), nil
}

func (s *InteractionService) requireStory(ctx context.Context, storyID uint) error {
	ok, err := s.stories.Exists(ctx, storyID)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewNotFoundError("Story", storyID)
	}
	return nil
}
