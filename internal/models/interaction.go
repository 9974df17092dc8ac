package models

import "time"

// Like records that a user liked a story. A user likes a story at most once.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_likes_user_story" json:"user_id"`
	StoryID   uint      `gorm:"not null;uniqueIndex:idx_likes_user_story;index" json:"story_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Save records that a user bookmarked a story. A user saves a story at most once.
type Save struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_saves_user_story" json:"user_id"`
	StoryID   uint      `gorm:"not null;uniqueIndex:idx_saves_user_story;index" json:"story_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InteractionKind selects the likes or saves ledger.
type InteractionKind string

const (
	InteractionLike InteractionKind = "like"
	InteractionSave InteractionKind = "save"
)

// Table returns the ledger table backing the kind.
func (k InteractionKind) Table() string {
	if k == InteractionSave {
		return "saves"
	}
	return "likes"
}
