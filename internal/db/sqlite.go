// Package db owns database initialization and the query helpers used by the
// handlers and the job runner.
package db

import (
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/revdoll6/reddit-niche-finder/internal/db/models"
)

// InitDB opens the sqlite database and migrates the schema.
func InitDB(dbPath string) (*gorm.DB, error) {
	database, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if err := database.AutoMigrate(
		&models.Credential{},
		&models.RateLimitSetting{},
		&models.Audience{},
		&models.AudienceSubreddit{},
		&models.AudienceSubredditPosts{},
	); err != nil {
		return nil, err
	}

	return database, nil
}
