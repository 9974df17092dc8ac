package repository

import (
	"context"

	"wanderlog/internal/models"
	"wanderlog/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LocationRow is the projection the location facet index is built from.
type LocationRow struct {
	Location *string
	Type     *string
}

// StoryRepository defines persistence operations for stories.
type StoryRepository interface {
	Create(ctx context.Context, story *models.Story) error
	// GetByID loads a non-deleted story regardless of its publish state.
	GetByID(ctx context.Context, id uint) (*models.Story, error)
	GetPublished(ctx context.Context, id uint) (*models.Story, error)
	ListPublished(ctx context.Context, page, perPage int) ([]models.Story, int64, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]models.Story, error)
	Update(ctx context.Context, story *models.Story) error
	Delete(ctx context.Context, id uint) error
	IncrementViews(ctx context.Context, id uint) (uint, error)
	Exists(ctx context.Context, id uint) (bool, error)
	LocationRows(ctx context.Context) ([]LocationRow, error)
}

type storyRepository struct {
	db *gorm.DB
}

// NewStoryRepository creates a new story repository
func NewStoryRepository(db *gorm.DB) StoryRepository {
	return &storyRepository{db: db}
}

// withDetails selects interaction counts and preloads the owner.
func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Select(`stories.*,
			(SELECT COUNT(*) FROM likes WHERE likes.story_id = stories.id) AS likes_count,
			(SELECT COUNT(*) FROM saves WHERE saves.story_id = stories.id) AS saves_count`).
		Preload("User")
}

func (r *storyRepository) Create(ctx context.Context, story *models.Story) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(story).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *storyRepository) GetByID(ctx context.Context, id uint) (*models.Story, error) {
	var story models.Story
	if err := withDetails(r.db.WithContext(ctx)).First(&story, id).Error; err != nil {
		return nil, notFoundOr(err, "Story", id)
	}
	return &story, nil
}

func (r *storyRepository) GetPublished(ctx context.Context, id uint) (*models.Story, error) {
	var story models.Story
	err := withDetails(readDB(r.db).WithContext(ctx)).
		Where("stories.is_published = ?", true).
		First(&story, id).Error
	if err != nil {
		return nil, notFoundOr(err, "Story", id)
	}
	return &story, nil
}

func (r *storyRepository) ListPublished(ctx context.Context, page, perPage int) (_ []models.Story, _ int64, err error) {
	ctx, done := observability.StartQuery(ctx, "list_published", "stories")
	defer func() { done(err) }()

	db := readDB(r.db).WithContext(ctx)

	var total int64
	if err := db.Model(&models.Story{}).Where("is_published = ?", true).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	stories := []models.Story{}
	err = withDetails(db).
		Where("stories.is_published = ?", true).
		Order("stories.published_at DESC").
		Order("stories.id DESC").
		Limit(perPage).
		Offset(models.Offset(page, perPage)).
		Find(&stories).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return stories, total, nil
}

func (r *storyRepository) ListByOwner(ctx context.Context, ownerID uint) ([]models.Story, error) {
	stories := []models.Story{}
	err := withDetails(readDB(r.db).WithContext(ctx)).
		Where("stories.user_id = ?", ownerID).
		Order("stories.created_at DESC").
		Order("stories.id DESC").
		Find(&stories).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return stories, nil
}

// editableColumns are the story columns an edit may write. views is owned by
// IncrementViews and never written from a loaded copy.
var editableColumns = []string{
	"title", "content", "image", "location", "type",
	"is_published", "published_at", "updated_at",
}

// Update writes the editable columns of an already loaded story.
func (r *storyRepository) Update(ctx context.Context, story *models.Story) error {
	res := r.db.WithContext(ctx).
		Model(story).
		Select(editableColumns).
		Updates(story)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Story", story.ID)
	}
	return nil
}

// Delete soft-deletes the story.
func (r *storyRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Story{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Story", id)
	}
	return nil
}

// IncrementViews bumps the counter in a single UPDATE so concurrent calls
// never lose increments, then reads the new value back.
func (r *storyRepository) IncrementViews(ctx context.Context, id uint) (uint, error) {
	db := r.db.WithContext(ctx)
	res := db.Model(&models.Story{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, models.NewNotFoundError("Story", id)
	}

	var views uint
	if err := db.Model(&models.Story{}).Where("id = ?", id).Pluck("views", &views).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return views, nil
}

func (r *storyRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Story{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// LocationRows returns location and type for every non-deleted story that
// has a location.
func (r *storyRepository) LocationRows(ctx context.Context) (_ []LocationRow, err error) {
	ctx, done := observability.StartQuery(ctx, "location_rows", "stories")
	defer func() { done(err) }()

	rows := []LocationRow{}
	err = readDB(r.db).WithContext(ctx).
		Model(&models.Story{}).
		Select("location", "type").
		Where("location IS NOT NULL").
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return rows, nil
}
