// Package testutil provides in-memory database and cache fixtures shared by
// the test suites.
package testutil

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jotter-dev/jotter/internal/cache"
	"github.com/jotter-dev/jotter/internal/models"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens an in-memory sqlite database with the full schema migrated.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})

	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	// A :memory: database exists per connection; keep the pool at one so
	// every query sees the same schema.
	sqlDB, err := database.DB()

	if err != nil {
		t.Fatalf("Failed to access underlying database: %v", err)
	}

	sqlDB.SetMaxOpenConns(1)

	err = database.AutoMigrate(&models.User{}, &models.Category{}, &models.Note{})

	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return database
}

// NewStore starts an in-process redis server and returns a cache store
// backed by it.
func NewStore(t *testing.T) (*cache.Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	store := cache.NewFromClient(client)

	t.Cleanup(func() { store.Close() })

	return store, mr
}

// CreateUser inserts a user with a bcrypt-hashed password.
func CreateUser(t *testing.T, db *gorm.DB, email, password string) models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)

	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	user := models.User{
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
	}

	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

// CreateCategory inserts a category owned by the given user.
func CreateCategory(t *testing.T, db *gorm.DB, userID uint, name, color string) models.Category {
	t.Helper()

	category := models.Category{
		UserID: userID,
		Name:   name,
		Color:  color,
	}

	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("Failed to create test category: %v", err)
	}

	return category
}
