package repository

import (
	"path/filepath"
	"testing"
	"time"

	"wanderlog/internal/database"
	"wanderlog/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a throwaway sqlite database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := database.SQLiteDSN(filepath.Join(t.TempDir(), "repo.db"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// sqlite allows a single writer
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name, email string) *models.User {
	t.Helper()
	user := &models.User{Name: name, Email: email, Password: "hash"}
	require.NoError(t, db.Create(user).Error)
	return user
}

type storyOpt func(*models.Story)

func published(at time.Time) storyOpt {
	return func(s *models.Story) { s.Publish(at) }
}

func located(location string) storyOpt {
	return func(s *models.Story) { s.Location = &location }
}

func typed(kind models.StoryType) storyOpt {
	return func(s *models.Story) { s.Type = kind }
}

func seedStory(t *testing.T, db *gorm.DB, owner uint, title string, opts ...storyOpt) *models.Story {
	t.Helper()
	story := &models.Story{UserID: owner, Title: title, Content: title + " content", Type: models.StoryTypeOther}
	for _, opt := range opts {
		opt(story)
	}
	require.NoError(t, db.Omit("User").Create(story).Error)
	return story
}
