package repository

import (
	"context"
	"testing"
	"time"

	"wanderlog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInteractionRepository_Ledgers(t *testing.T) {
	for _, kind := range []models.InteractionKind{models.InteractionLike, models.InteractionSave} {
		t.Run(string(kind), func(t *testing.T) {
			db := newTestDB(t)
			repo := NewInteractionRepository(db)
			ctx := context.Background()

			ada := seedUser(t, db, "Ada", "ada@example.com")
			bob := seedUser(t, db, "Bob", "bob@example.com")
			story := seedStory(t, db, ada.ID, "Paris", published(time.Now()))

			require.NoError(t, repo.Add(ctx, kind, bob.ID, story.ID))

			err := repo.Add(ctx, kind, bob.ID, story.ID)
			assert.True(t, models.IsCode(err, models.CodeConflict), "got %v", err)

			exists, err := repo.Exists(ctx, kind, bob.ID, story.ID)
			require.NoError(t, err)
			assert.True(t, exists)

			require.NoError(t, repo.Add(ctx, kind, ada.ID, story.ID))
			count, err := repo.Count(ctx, kind, story.ID)
			require.NoError(t, err)
			assert.EqualValues(t, 2, count)

			removed, err := repo.Remove(ctx, kind, bob.ID, story.ID)
			require.NoError(t, err)
			assert.True(t, removed)

			removed, err = repo.Remove(ctx, kind, bob.ID, story.ID)
			require.NoError(t, err)
			assert.False(t, removed)

			count, err = repo.Count(ctx, kind, story.ID)
			require.NoError(t, err)
			assert.EqualValues(t, 1, count)
		})
	}
}

func TestInteractionRepository_ListStories(t *testing.T) {
	db := newTestDB(t)
	repo := NewInteractionRepository(db)
	ctx := context.Background()

	ada := seedUser(t, db, "Ada", "ada@example.com")
	bob := seedUser(t, db, "Bob", "bob@example.com")

	first := seedStory(t, db, ada.ID, "First", published(time.Now()))
	second := seedStory(t, db, ada.ID, "Second")
	seedStory(t, db, ada.ID, "Ignored", published(time.Now()))

	now := time.Now()
	require.NoError(t, db.Create(&models.Like{UserID: bob.ID, StoryID: first.ID, CreatedAt: now.Add(-time.Minute)}).Error)
	require.NoError(t, db.Create(&models.Like{UserID: bob.ID, StoryID: second.ID, CreatedAt: now}).Error)
	require.NoError(t, db.Create(&models.Like{UserID: ada.ID, StoryID: first.ID}).Error)

	stories, total, err := repo.ListStories(ctx, models.InteractionLike, bob.ID, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, stories, 2)
	assert.Equal(t, second.ID, stories[0].ID, "most recent like first, drafts included")
	assert.Equal(t, first.ID, stories[1].ID)
	assert.EqualValues(t, 2, stories[1].LikesCount)

	saved, total, err := repo.ListStories(ctx, models.InteractionSave, bob.ID, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, saved)
}
