package database

import (
	"context"
	"path/filepath"
	"testing"

	"wanderlog/internal/config"
	"wanderlog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Env:                      "test",
		DBDriver:                 DriverSQLite,
		DBSQLitePath:             filepath.Join(t.TempDir(), "test.db"),
		DBSchemaMode:             SchemaModeHybrid,
		DBMaxOpenConns:           4,
		DBMaxIdleConns:           2,
		DBConnMaxLifetimeMinutes: 1,
	}
}

func TestConfigurePool(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	cfg := &config.Config{
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	}
	require.NoError(t, configurePool(db, cfg))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)
}

func TestConnectWithOptions_SQLiteAutoMigrates(t *testing.T) {
	cfg := sqliteConfig(t)
	t.Cleanup(func() { _ = Close() })

	db, err := ConnectWithOptions(cfg, ConnectOptions{ApplySchema: true})
	require.NoError(t, err)
	require.NoError(t, Ping(context.Background(), db))
	assert.Nil(t, GetReadDB())

	for _, table := range []string{"users", "access_tokens", "stories", "likes", "saves"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasIndex(&models.Like{}, "idx_likes_user_story"))
	assert.True(t, db.Migrator().HasIndex(&models.Save{}, "idx_saves_user_story"))
	assert.False(t, db.Migrator().HasColumn(&models.Story{}, "likes_count"))
}

func TestConnectWithOptions_TranslatesDuplicateKey(t *testing.T) {
	cfg := sqliteConfig(t)
	t.Cleanup(func() { _ = Close() })

	db, err := ConnectWithOptions(cfg, ConnectOptions{ApplySchema: true})
	require.NoError(t, err)

	require.NoError(t, db.Create(&models.User{Name: "A", Email: "a@example.com", Password: "x"}).Error)
	err = db.Create(&models.User{Name: "B", Email: "a@example.com", Password: "y"}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "app.db?_foreign_keys=on&_busy_timeout=5000", SQLiteDSN("app.db"))
	assert.Equal(t, "file::memory:?cache=shared", SQLiteDSN("file::memory:?cache=shared"))
}

func TestPing_NilDB(t *testing.T) {
	assert.Error(t, Ping(context.Background(), nil))
}
