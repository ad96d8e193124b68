package services

import (
	"context"
	"log"

	"github.com/jotter-dev/jotter/internal/cache"
	"github.com/jotter-dev/jotter/internal/models"
	"gorm.io/gorm"
)

// refreshNoteCount recomputes a category's note count from the database and
// overwrites the cache entry. The database count is the source of truth.
func refreshNoteCount(ctx context.Context, db *gorm.DB, store *cache.Store, categoryID uint) (int64, error) {
	var count int64

	err := db.WithContext(ctx).Model(&models.Note{}).Where("category_id = ?", categoryID).Count(&count).Error

	if err != nil {
		return 0, err
	}

	if err := store.SetNoteCount(ctx, categoryID, count); err != nil {
		log.Printf("Failed to cache note count for category %d: %v", categoryID, err)
	}

	return count, nil
}

// resolveNoteCount returns the cached count, recounting on a miss or any
// cache error.
func resolveNoteCount(ctx context.Context, db *gorm.DB, store *cache.Store, categoryID uint) (int64, error) {
	if count, err := store.GetNoteCount(ctx, categoryID); err == nil {
		return count, nil
	}

	return refreshNoteCount(ctx, db, store, categoryID)
}

// adjustNoteCount applies a +1/-1 to a category's counter, repairing via
// recount when the entry is missing or the cache operation fails. Counter
// maintenance never fails a request.
func adjustNoteCount(ctx context.Context, db *gorm.DB, store *cache.Store, categoryID uint, delta int64) {
	var err error

	if delta >= 0 {
		err = store.IncrNoteCount(ctx, categoryID)
	} else {
		err = store.DecrNoteCount(ctx, categoryID)
	}

	if err == nil {
		return
	}

	if _, err := refreshNoteCount(ctx, db, store, categoryID); err != nil {
		log.Printf("Failed to repair note count for category %d: %v", categoryID, err)
	}
}
