package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// StoryType classifies the place a story is about.
type StoryType string

const (
	StoryTypeRestaurant StoryType = "restaurant"
	StoryTypeHotel      StoryType = "hotel"
	StoryTypeMonument   StoryType = "monument"
	StoryTypeMuseum     StoryType = "museum"
	StoryTypePark       StoryType = "park"
	StoryTypeBeach      StoryType = "beach"
	StoryTypeMountain   StoryType = "mountain"
	StoryTypeCity       StoryType = "city"
	StoryTypeOther      StoryType = "other"
)

// StoryTypes lists every accepted story type in declaration order.
var StoryTypes = []StoryType{
	StoryTypeRestaurant,
	StoryTypeHotel,
	StoryTypeMonument,
	StoryTypeMuseum,
	StoryTypePark,
	StoryTypeBeach,
	StoryTypeMountain,
	StoryTypeCity,
	StoryTypeOther,
}

// Valid reports whether t is one of the known story types.
func (t StoryType) Valid() bool {
	for _, known := range StoryTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Story is a travel journal entry.
type Story struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	UserID   uint      `gorm:"not null;index" json:"user_id"`
	User     *Author   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Title    string    `gorm:"size:255;not null" json:"title"`
	Content  string    `gorm:"type:text;not null" json:"content"`
	Image    *string   `gorm:"size:255" json:"image"`
	// ImageURL is the public location of Image, resolved when the story is served.
	ImageURL string    `gorm:"-" json:"image_url,omitempty"`
	Location *string   `gorm:"size:255;index" json:"location"`
	Type     StoryType `gorm:"size:32;not null;default:other;index" json:"type"`

	IsPublished bool       `gorm:"not null;default:false;index" json:"is_published"`
	PublishedAt *time.Time `gorm:"index" json:"published_at"`
	Views       uint       `gorm:"not null;default:0" json:"views"`

	// LikesCount is not persisted; computed at query time
	LikesCount int64 `gorm:"->;-:migration" json:"likes_count"`
	// SavesCount is not persisted; computed at query time
	SavesCount int64 `gorm:"->;-:migration" json:"saves_count"`

	// Liked and Saved describe the requesting user's interactions; they stay
	// nil for anonymous requests.
	Liked *bool `gorm:"-" json:"liked,omitempty"`
	Saved *bool `gorm:"-" json:"saved,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsLocalImage reports whether the stored image points at our own storage
// rather than an external URL.
func (s *Story) IsLocalImage() bool {
	return s.Image != nil && *s.Image != "" && !strings.Contains(*s.Image, "http")
}

// Publish flips the story to published, stamping PublishedAt only on the
// first transition.
func (s *Story) Publish(now time.Time) {
	s.IsPublished = true
	if s.PublishedAt == nil {
		t := now.UTC()
		s.PublishedAt = &t
	}
}
