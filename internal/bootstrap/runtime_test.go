package bootstrap

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"wanderlog/internal/config"
	"wanderlog/internal/database"
	"wanderlog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Env:            "test",
		DBDriver:       database.DriverSQLite,
		DBSQLitePath:   filepath.Join(t.TempDir(), "runtime.db"),
		DBSchemaMode:   database.SchemaModeHybrid,
		DBMaxOpenConns: 1,
	}
}

func TestInitRuntime_SeedsDemoData(t *testing.T) {
	t.Cleanup(func() { _ = database.Close() })

	db, rdb, err := InitRuntime(sqliteConfig(t), Options{SeedDemoData: true})
	require.NoError(t, err)
	assert.Nil(t, rdb)

	var stories int64
	require.NoError(t, db.Model(&models.Story{}).Count(&stories).Error)
	assert.Equal(t, int64(5), stories)
}

func TestPruneExpiredTokens(t *testing.T) {
	t.Cleanup(func() { _ = database.Close() })

	db, _, err := InitRuntime(sqliteConfig(t), Options{})
	require.NoError(t, err)

	user := models.User{Name: "T", Email: "t@example.com", Password: "x"}
	require.NoError(t, db.Create(&user).Error)
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	require.NoError(t, db.Create(&models.AccessToken{UserID: user.ID, Name: "old", TokenHash: "a", ExpiresAt: &past}).Error)
	require.NoError(t, db.Create(&models.AccessToken{UserID: user.ID, Name: "new", TokenHash: "b", ExpiresAt: &future}).Error)
	require.NoError(t, db.Create(&models.AccessToken{UserID: user.ID, Name: "forever", TokenHash: "c"}).Error)

	require.NoError(t, PruneExpiredTokens(context.Background(), db))

	var left int64
	require.NoError(t, db.Model(&models.AccessToken{}).Count(&left).Error)
	assert.Equal(t, int64(2), left)
}
