package seed

import (
	"errors"
	"fmt"
	"log"

	"wanderlog/internal/models"

	"gorm.io/gorm"
)

// Test account created by every seeding run.
const (
	TestUserName  = "Test User"
	TestUserEmail = "test@example.com"
)

// Options configures a seeding run.
type Options struct {
	// NumUsers extra random users, each with NumStories stories.
	NumUsers int
	// NumStories per user. The test user always gets at least DefaultStories.
	NumStories  int
	ShouldClean bool
	SkipBcrypt  bool
	BatchSize   int
	MaxDays     int
	RandomSeed  int64
}

// DefaultStories is the number of stories seeded for the test user.
const DefaultStories = 5

// Seed populates the database with the test user, its stories and any
// requested extra users.
func Seed(db *gorm.DB, opts Options) error {
	catalog, err := LoadCatalogue()
	if err != nil {
		return err
	}
	log.Printf("🌱 Seeding database (%d extra users)...", opts.NumUsers)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			return fmt.Errorf("failed to clear data: %w", err)
		}
	}

	f := NewFactory(db, catalog, opts)

	perUser := opts.NumStories
	if perUser <= 0 {
		perUser = DefaultStories
	}

	testUser, created, err := ensureTestUser(db, f)
	if err != nil {
		return fmt.Errorf("failed to create test user: %w", err)
	}
	if created {
		if _, err := f.CreateStories(testUser, perUser); err != nil {
			return fmt.Errorf("failed to create stories: %w", err)
		}
		log.Printf("✓ test user %s created with %d stories", TestUserEmail, perUser)
	} else {
		log.Printf("✓ test user %s already present", TestUserEmail)
	}

	for i := 0; i < opts.NumUsers; i++ {
		user, err := f.CreateUser()
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		if _, err := f.CreateStories(user, perUser); err != nil {
			return fmt.Errorf("failed to create stories: %w", err)
		}
	}
	if opts.NumUsers > 0 {
		log.Printf("✓ %d extra users created", opts.NumUsers)
	}

	log.Println("🎉 Database seeding completed successfully!")
	return nil
}

func ensureTestUser(db *gorm.DB, f *Factory) (*models.User, bool, error) {
	var existing models.User
	err := db.Where("email = ?", TestUserEmail).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	user, err := f.CreateUser(func(u *models.User) {
		u.Name = TestUserName
		u.Email = TestUserEmail
	})
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

// clearData removes every row, children first.
func clearData(db *gorm.DB) error {
	log.Println("🗑️  Clearing existing data...")
	tables := []any{&models.Like{}, &models.Save{}, &models.AccessToken{}, &models.Story{}, &models.User{}}
	return db.Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(table).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
