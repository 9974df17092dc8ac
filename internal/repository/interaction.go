package repository

import (
	"context"
	"fmt"

	"wanderlog/internal/models"

	"gorm.io/gorm"
)

// InteractionRepository persists the like and save ledgers. Both ledgers have
// the same shape, so every method is keyed by kind.
type InteractionRepository interface {
	Add(ctx context.Context, kind models.InteractionKind, userID, storyID uint) error
	Exists(ctx context.Context, kind models.InteractionKind, userID, storyID uint) (bool, error)
	// Remove deletes the entry and reports whether one existed.
	Remove(ctx context.Context, kind models.InteractionKind, userID, storyID uint) (bool, error)
	Count(ctx context.Context, kind models.InteractionKind, storyID uint) (int64, error)
	// ListStories returns the stories a user interacted with, most recent
	// interaction first.
	ListStories(ctx context.Context, kind models.InteractionKind, userID uint, page, perPage int) ([]models.Story, int64, error)
}

type interactionRepository struct {
	db *gorm.DB
}

// NewInteractionRepository returns a new InteractionRepository implementation.
func NewInteractionRepository(db *gorm.DB) InteractionRepository {
	return &interactionRepository{db: db}
}

func entry(kind models.InteractionKind, userID, storyID uint) (any, error) {
	switch kind {
	case models.InteractionLike:
		return &models.Like{UserID: userID, StoryID: storyID}, nil
	case models.InteractionSave:
		return &models.Save{UserID: userID, StoryID: storyID}, nil
	}
	return nil, models.NewInternalError(fmt.Errorf("unknown interaction kind %q", kind))
}

func (r *interactionRepository) Add(ctx context.Context, kind models.InteractionKind, userID, storyID uint) error {
	row, err := entry(kind, userID, storyID)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		if isUniqueViolation(err) {
			return models.NewConflictError(fmt.Sprintf("Story already %s.", pastTense(kind)))
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *interactionRepository) Exists(ctx context.Context, kind models.InteractionKind, userID, storyID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table(kind.Table()).
		Where("user_id = ? AND story_id = ?", userID, storyID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *interactionRepository) Remove(ctx context.Context, kind models.InteractionKind, userID, storyID uint) (bool, error) {
	row, err := entry(kind, userID, storyID)
	if err != nil {
		return false, err
	}
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND story_id = ?", userID, storyID).
		Delete(row)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *interactionRepository) Count(ctx context.Context, kind models.InteractionKind, storyID uint) (int64, error) {
	var count int64
	err := readDB(r.db).WithContext(ctx).
		Table(kind.Table()).
		Where("story_id = ?", storyID).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *interactionRepository) ListStories(ctx context.Context, kind models.InteractionKind, userID uint, page, perPage int) ([]models.Story, int64, error) {
	table := kind.Table()
	join := fmt.Sprintf("JOIN %s ON %s.story_id = stories.id", table, table)
	db := readDB(r.db).WithContext(ctx)

	var total int64
	err := db.Model(&models.Story{}).
		Joins(join).
		Where(table+".user_id = ?", userID).
		Count(&total).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	stories := []models.Story{}
	err = withDetails(db).
		Joins(join).
		Where(table+".user_id = ?", userID).
		Order(table + ".created_at DESC").
		Order(table + ".id DESC").
		Limit(perPage).
		Offset(models.Offset(page, perPage)).
		Find(&stories).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return stories, total, nil
}

func pastTense(kind models.InteractionKind) string {
	if kind == models.InteractionSave {
		return "saved"
	}
	return "liked"
}
