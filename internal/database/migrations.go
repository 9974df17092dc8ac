package database

import (
	"context"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"wanderlog/internal/middleware"

	"gorm.io/gorm"
)

// Migration is one numbered schema change shipped as a pair of files,
// NNNNNN_name.up.sql and NNNNNN_name.down.sql.
type Migration struct {
	Version  int
	Name     string
	Up       string
	Down     string
	Checksum string
}

func (m Migration) String() string {
	return fmt.Sprintf("%06d_%s", m.Version, m.Name)
}

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

var migrationFile = regexp.MustCompile(`^(\d{6})_([a-z0-9_]+)\.up\.sql$`)

// LoadMigrations reads every migration pair at the root of fsys, ordered by
// version. A missing down script or a repeated version is an error.
func LoadMigrations(fsys fs.FS) ([]Migration, error) {
	names, err := fs.Glob(fsys, "*.up.sql")
	if err != nil {
		return nil, err
	}

	set := make([]Migration, 0, len(names))
	seen := make(map[int]string, len(names))
	for _, name := range names {
		match := migrationFile.FindStringSubmatch(name)
		if match == nil {
			return nil, fmt.Errorf("migration file %q is not named NNNNNN_name.up.sql", name)
		}
		version, _ := strconv.Atoi(match[1])
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("migration version %06d used by %s and %s", version, prev, name)
		}
		seen[version] = name

		up, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, err
		}
		down, err := fs.ReadFile(fsys, strings.TrimSuffix(name, ".up.sql")+".down.sql")
		if err != nil {
			return nil, fmt.Errorf("migration %s has no down script: %w", name, err)
		}
		sum := sha256.Sum256(up)

		set = append(set, Migration{
			Version:  version,
			Name:     match[2],
			Up:       string(up),
			Down:     string(down),
			Checksum: hex.EncodeToString(sum[:]),
		})
	}

	sort.Slice(set, func(i, j int) bool { return set[i].Version < set[j].Version })
	return set, nil
}

var (
	embeddedOnce sync.Once
	embeddedSet  []Migration
	embeddedErr  error
)

// Migrations returns the migrations compiled into the binary.
func Migrations() ([]Migration, error) {
	embeddedOnce.Do(func() {
		sub, err := fs.Sub(embeddedMigrations, "migrations")
		if err != nil {
			embeddedErr = err
			return
		}
		embeddedSet, embeddedErr = LoadMigrations(sub)
	})
	return embeddedSet, embeddedErr
}

// appliedMigration is a row of schema_migrations.
type appliedMigration struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	Checksum  string    `gorm:"size:64;not null"`
	AppliedAt time.Time `gorm:"not null"`
}

func (appliedMigration) TableName() string {
	return "schema_migrations"
}

// MigrationState pairs a known migration with when it was applied. AppliedAt
// is nil for pending migrations.
type MigrationState struct {
	Migration
	AppliedAt *time.Time
}

// Migrator applies and reverts a migration set, recording progress in
// schema_migrations.
type Migrator struct {
	db  *gorm.DB
	set []Migration
	now func() time.Time
}

// NewMigrator returns a Migrator over the embedded migrations.
func NewMigrator(db *gorm.DB) (*Migrator, error) {
	set, err := Migrations()
	if err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}
	return newMigrator(db, set), nil
}

func newMigrator(db *gorm.DB, set []Migration) *Migrator {
	return &Migrator{db: db, set: set, now: time.Now}
}

func (m *Migrator) find(version int) (Migration, bool) {
	for _, mig := range m.set {
		if mig.Version == version {
			return mig, true
		}
	}
	return Migration{}, false
}

func (m *Migrator) applied(ctx context.Context) (map[int]appliedMigration, error) {
	out := map[int]appliedMigration{}
	if !m.db.WithContext(ctx).Migrator().HasTable(&appliedMigration{}) {
		return out, nil
	}
	var rows []appliedMigration
	if err := m.db.WithContext(ctx).Order("version").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	for _, row := range rows {
		out[row.Version] = row
	}
	return out, nil
}

// verify rejects databases that were migrated by a different build: versions
// this binary does not ship, or scripts edited after they ran.
func (m *Migrator) verify(applied map[int]appliedMigration) error {
	versions := make([]int, 0, len(applied))
	for v := range applied {
		versions = append(versions, v)
	}
	sort.Ints(versions)

	var problems []string
	for _, v := range versions {
		mig, ok := m.find(v)
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("%06d is applied but unknown", v))
		case applied[v].Checksum != mig.Checksum:
			problems = append(problems, fmt.Sprintf("%s changed after it was applied", mig))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("schema_migrations does not match this build: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Up applies every pending migration in version order and returns how many
// ran. Each script commits together with its schema_migrations row.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	if err := m.db.WithContext(ctx).AutoMigrate(&appliedMigration{}); err != nil {
		return 0, fmt.Errorf("create schema_migrations: %w", err)
	}
	applied, err := m.applied(ctx)
	if err != nil {
		return 0, err
	}
	if err := m.verify(applied); err != nil {
		return 0, err
	}

	ran := 0
	for _, mig := range m.set {
		if _, done := applied[mig.Version]; done {
			continue
		}
		start := time.Now()
		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(mig.Up).Error; err != nil {
				return err
			}
			return tx.Create(&appliedMigration{
				Version:   mig.Version,
				Name:      mig.Name,
				Checksum:  mig.Checksum,
				AppliedAt: m.now().UTC(),
			}).Error
		})
		if err != nil {
			return ran, fmt.Errorf("apply %s: %w", mig, err)
		}
		middleware.Logger.Info("Migration applied",
			slog.String("migration", mig.String()),
			slog.Duration("took", time.Since(start)))
		ran++
	}
	return ran, nil
}

// Down reverts the most recent steps applied migrations, newest first, and
// returns how many were reverted.
func (m *Migrator) Down(ctx context.Context, steps int) (int, error) {
	if steps < 1 {
		return 0, errors.New("steps must be at least 1")
	}
	applied, err := m.applied(ctx)
	if err != nil {
		return 0, err
	}
	if err := m.verify(applied); err != nil {
		return 0, err
	}

	versions := make([]int, 0, len(applied))
	for v := range applied {
		versions = append(versions, v)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(versions)))
	if steps > len(versions) {
		steps = len(versions)
	}

	for i, v := range versions[:steps] {
		mig, _ := m.find(v)
		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(mig.Down).Error; err != nil {
				return err
			}
			return tx.Delete(&appliedMigration{}, v).Error
		})
		if err != nil {
			return i, fmt.Errorf("revert %s: %w", mig, err)
		}
		middleware.Logger.Info("Migration reverted", slog.String("migration", mig.String()))
	}
	return steps, nil
}

// Status reports every known migration with its applied time.
func (m *Migrator) Status(ctx context.Context) ([]MigrationState, error) {
	applied, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]MigrationState, 0, len(m.set))
	for _, mig := range m.set {
		state := MigrationState{Migration: mig}
		if row, ok := applied[mig.Version]; ok {
			at := row.AppliedAt
			state.AppliedAt = &at
		}
		out = append(out, state)
	}
	return out, nil
}

// RunMigrations applies the pending embedded migrations.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	migrator, err := NewMigrator(db)
	if err != nil {
		return err
	}
	_, err = migrator.Up(ctx)
	return err
}
