// Package seed provides helpers to create demo data for development and
// local testing.
package seed

import (
	"fmt"
	"time"

	"wanderlog/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the plaintext password of every seeded account.
const DefaultPassword = "password"

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db      *gorm.DB
	opts    Options
	faker   *gofakeit.Faker
	catalog *Catalogue
	now     func() time.Time
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, catalog *Catalogue, opts Options) *Factory {
	seed := opts.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{
		db:      db,
		opts:    opts,
		faker:   gofakeit.New(seed),
		catalog: catalog,
		now:     time.Now,
	}
}

func (f *Factory) password() (string, error) {
	if f.opts.SkipBcrypt {
		return DefaultPassword, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// BuildUser constructs a random user without persisting it.
func (f *Factory) BuildUser(overrides ...func(*models.User)) (*models.User, error) {
	pw, err := f.password()
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Name:     f.faker.Name(),
		Email:    fmt.Sprintf("%s.%d@example.com", f.faker.Username(), f.faker.Number(1000, 9999)),
		Password: pw,
	}
	for _, override := range overrides {
		override(user)
	}
	return user, nil
}

// CreateUser builds and persists a user.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user, err := f.BuildUser(overrides...)
	if err != nil {
		return nil, err
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildStory constructs a published story for owner from the catalogue.
// PublishedAt falls within the last MaxDays days.
func (f *Factory) BuildStory(owner *models.User, overrides ...func(*models.Story)) *models.Story {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 60
	}
	now := f.now()
	publishedAt := f.faker.DateRange(now.AddDate(0, 0, -maxDays), now).UTC()

	place := f.catalog.Places[f.faker.Number(0, len(f.catalog.Places)-1)]
	location := place.Location
	image := fmt.Sprintf("https://picsum.photos/seed/%s/800/600", f.faker.UUID())

	story := &models.Story{
		UserID:      owner.ID,
		Title:       f.faker.RandomString(f.catalog.Titles),
		Content:     f.faker.RandomString(f.catalog.Descriptions) + "\n\n" + f.faker.Paragraph(1, 4, 12, " "),
		Image:       &image,
		Location:    &location,
		Type:        place.Type,
		IsPublished: true,
		PublishedAt: &publishedAt,
		Views:       uint(f.faker.Number(0, 500)),
		CreatedAt:   publishedAt,
		UpdatedAt:   publishedAt,
	}
	for _, override := range overrides {
		override(story)
	}
	return story
}

// CreateStories persists count catalogue stories for owner in one batch.
func (f *Factory) CreateStories(owner *models.User, count int) ([]*models.Story, error) {
	if count <= 0 {
		return nil, nil
	}
	stories := make([]*models.Story, 0, count)
	for i := 0; i < count; i++ {
		stories = append(stories, f.BuildStory(owner))
	}
	batch := f.opts.BatchSize
	if batch <= 0 {
		batch = 100
	}
	if err := f.db.Omit("User").CreateInBatches(stories, batch).Error; err != nil {
		return nil, err
	}
	return stories, nil
}
