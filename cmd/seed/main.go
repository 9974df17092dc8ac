// Command main runs the database seeder for Wanderlog.
package main

import (
	"flag"
	"log"

	"wanderlog/internal/config"
	"wanderlog/internal/database"
	"wanderlog/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 0, "Number of extra random users to create")
	numStories := flag.Int("stories", seed.DefaultStories, "Stories per user")
	shouldClean := flag.Bool("clean", false, "Clean database before seeding")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d extra users, %d stories each, clean=%v\n", *numUsers, *numStories, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close() }()

	if err := seed.Seed(db, seed.Options{
		NumUsers:    *numUsers,
		NumStories:  *numStories,
		ShouldClean: *shouldClean,
	}); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}
}
