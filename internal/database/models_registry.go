package database

import "wanderlog/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
// Order matters: referenced tables come first.
func PersistentModels() []any {
	return []any{
		&models.User{},
		&models.AccessToken{},
		&models.Story{},
		&models.Like{},
		&models.Save{},
	}
}
