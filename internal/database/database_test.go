package database

import (
	"testing"

	"wall/internal/models"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestMigrate(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)

	err = Migrate(db)
	assert.NoError(t, err)

	assert.True(t, db.Migrator().HasTable(&models.Post{}))

	// re-running is safe
	err = Migrate(db)
	assert.NoError(t, err)
}
