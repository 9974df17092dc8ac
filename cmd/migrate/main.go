// Command migrate manages the Wanderlog database schema.
//
//	migrate up              apply pending SQL migrations
//	migrate down [-steps N] revert the newest N migrations (default 1)
//	migrate status          show the schema policy and every migration
//	migrate auto            run GORM AutoMigrate regardless of DB_SCHEMA_MODE
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wanderlog/internal/config"
	"wanderlog/internal/database"

	"gorm.io/gorm"
)

const usage = "usage: migrate <up|down|status|auto> [flags]"

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		log.Fatal(usage)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1], os.Args[2:]); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cmd string, args []string) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	steps := fs.Int("steps", 1, "number of migrations to revert (down only)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = database.Close() }()

	switch cmd {
	case "up":
		return up(ctx, db)
	case "down":
		return down(ctx, db, *steps)
	case "status":
		return status(ctx, db, cfg)
	case "auto":
		cfg.DBSchemaMode = database.SchemaModeAuto
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		log.Println("models auto-migrated")
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
}

func up(ctx context.Context, db *gorm.DB) error {
	m, err := database.NewMigrator(db)
	if err != nil {
		return err
	}
	ran, err := m.Up(ctx)
	if err != nil {
		return err
	}
	log.Printf("%d migration(s) applied", ran)
	return nil
}

func down(ctx context.Context, db *gorm.DB, steps int) error {
	m, err := database.NewMigrator(db)
	if err != nil {
		return err
	}
	reverted, err := m.Down(ctx, steps)
	if err != nil {
		return err
	}
	log.Printf("%d migration(s) reverted", reverted)
	return nil
}

func status(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	st, err := database.GetSchemaStatus(ctx, db, cfg)
	if err != nil {
		return err
	}
	log.Printf("env=%s mode=%s sql=%t auto=%t pending=%d",
		st.Environment, st.Mode, st.WillRunSQL, st.WillRunAutoMigrate, len(st.Pending()))
	for _, m := range st.Migrations {
		applied := "pending"
		if m.AppliedAt != nil {
			applied = m.AppliedAt.Local().Format(time.DateTime)
		}
		log.Printf("  %-32s %s", m.String(), applied)
	}
	return nil
}
