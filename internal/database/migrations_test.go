package database

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func placesMigrations() fstest.MapFS {
	return fstest.MapFS{
		"000001_places.up.sql":   {Data: []byte("CREATE TABLE places (id INTEGER PRIMARY KEY, name TEXT NOT NULL);")},
		"000001_places.down.sql": {Data: []byte("DROP TABLE places;")},
		"000002_visits.up.sql": {Data: []byte(
			"CREATE TABLE visits (id INTEGER PRIMARY KEY, place_id INTEGER NOT NULL);\n" +
				"CREATE INDEX idx_visits_place_id ON visits (place_id);")},
		"000002_visits.down.sql": {Data: []byte("DROP TABLE visits;")},
	}
}

func loadSet(t *testing.T, fsys fstest.MapFS) []Migration {
	t.Helper()
	set, err := LoadMigrations(fsys)
	require.NoError(t, err)
	return set
}

func openMigrationDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "migrations.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestLoadMigrations(t *testing.T) {
	set := loadSet(t, placesMigrations())
	require.Len(t, set, 2)
	assert.Equal(t, "000001_places", set[0].String())
	assert.Equal(t, "000002_visits", set[1].String())
	assert.Len(t, set[0].Checksum, 64)
	assert.NotEqual(t, set[0].Checksum, set[1].Checksum)
	assert.Equal(t, "DROP TABLE visits;", set[1].Down)
}

func TestLoadMigrations_Rejects(t *testing.T) {
	tests := []struct {
		name string
		fsys fstest.MapFS
		want string
	}{
		{
			name: "missing down script",
			fsys: fstest.MapFS{"000001_places.up.sql": {Data: []byte("SELECT 1;")}},
			want: "no down script",
		},
		{
			name: "bad file name",
			fsys: fstest.MapFS{"places.up.sql": {Data: []byte("SELECT 1;")}},
			want: "not named",
		},
		{
			name: "repeated version",
			fsys: fstest.MapFS{
				"000001_a.up.sql":   {Data: []byte("SELECT 1;")},
				"000001_a.down.sql": {Data: []byte("SELECT 1;")},
				"000001_b.up.sql":   {Data: []byte("SELECT 2;")},
				"000001_b.down.sql": {Data: []byte("SELECT 2;")},
			},
			want: "000001 used by",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadMigrations(tt.fsys)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	set, err := Migrations()
	require.NoError(t, err)
	require.NotEmpty(t, set)
	assert.Equal(t, "000001_init", set[0].String())
	assert.Contains(t, set[0].Up, "CREATE TABLE IF NOT EXISTS stories")
	assert.Contains(t, set[0].Up, "idx_likes_user_story")
	assert.Contains(t, set[0].Down, "DROP TABLE IF EXISTS users")
}

func TestMigrator_UpDownStatus(t *testing.T) {
	db := openMigrationDB(t)
	m := newMigrator(db, loadSet(t, placesMigrations()))
	ctx := context.Background()

	states, err := m.Status(ctx)
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Nil(t, states[0].AppliedAt)

	ran, err := m.Up(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, ran)
	assert.True(t, db.Migrator().HasTable("places"))
	assert.True(t, db.Migrator().HasTable("visits"))

	ran, err = m.Up(ctx)
	require.NoError(t, err)
	assert.Zero(t, ran)

	reverted, err := m.Down(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, reverted)
	assert.True(t, db.Migrator().HasTable("places"))
	assert.False(t, db.Migrator().HasTable("visits"))

	states, err = m.Status(ctx)
	require.NoError(t, err)
	assert.NotNil(t, states[0].AppliedAt)
	assert.Nil(t, states[1].AppliedAt)

	reverted, err = m.Down(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, reverted)
	assert.False(t, db.Migrator().HasTable("places"))

	_, err = m.Down(ctx, 0)
	assert.Error(t, err)
}

func TestMigrator_RejectsForeignHistory(t *testing.T) {
	db := openMigrationDB(t)
	ctx := context.Background()

	_, err := newMigrator(db, loadSet(t, placesMigrations())).Up(ctx)
	require.NoError(t, err)

	edited := placesMigrations()
	edited["000001_places.up.sql"] = &fstest.MapFile{Data: []byte("CREATE TABLE places (id INTEGER PRIMARY KEY);")}
	_, err = newMigrator(db, loadSet(t, edited)).Up(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000001_places changed after it was applied")

	older := placesMigrations()
	delete(older, "000002_visits.up.sql")
	delete(older, "000002_visits.down.sql")
	_, err = newMigrator(db, loadSet(t, older)).Down(ctx, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000002 is applied but unknown")
	assert.True(t, db.Migrator().HasTable("visits"))
}

func TestMigrator_FailedScriptIsNotRecorded(t *testing.T) {
	db := openMigrationDB(t)
	ctx := context.Background()

	fsys := placesMigrations()
	fsys["000003_broken.up.sql"] = &fstest.MapFile{Data: []byte("CREATE TABLE broken (;")}
	fsys["000003_broken.down.sql"] = &fstest.MapFile{Data: []byte("DROP TABLE broken;")}
	m := newMigrator(db, loadSet(t, fsys))

	ran, err := m.Up(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000003_broken")
	assert.Equal(t, 2, ran)

	states, err := m.Status(ctx)
	require.NoError(t, err)
	require.Len(t, states, 3)
	assert.NotNil(t, states[1].AppliedAt)
	assert.Nil(t, states[2].AppliedAt)
}
