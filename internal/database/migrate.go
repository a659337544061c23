package database

import (
	"ripple/internal/models"

	"gorm.io/gorm"
)

// AllModels is the ordered schema registry. Referenced tables come
// before referencing ones so AutoMigrate can create constraints in one
// pass.
func AllModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Follow{},
		&models.Post{},
		&models.Comment{},
		&models.Media{},
		&models.Like{},
		&models.CommentLike{},
		&models.Bookmark{},
		&models.List{},
		&models.ListMember{},
		&models.ListPost{},
	}
}

// Migrate creates or updates the schema for every registered model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(AllModels()...)
}
