package tasks

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/jotter-dev/jotter/internal/cache"
	"github.com/jotter-dev/jotter/internal/models"
	"gorm.io/gorm"
)

// ErrUserNotFound marks a fatal job: a missing user is never retried.
var ErrUserNotFound = errors.New("user not found")

// Initializer is the safety net behind synchronous registration: it
// re-creates any default category a user is missing. Jobs are idempotent,
// so running concurrently with registration or with itself is safe.
type Initializer struct {
	db          *gorm.DB
	store       *cache.Store
	jobs        chan uint
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	maxAttempts int
	retryDelay  time.Duration
	ensure      func(ctx context.Context, userID uint) error
}

func NewInitializer(db *gorm.DB, store *cache.Store) *Initializer {
	ctx, cancel := context.WithCancel(context.Background())

	i := &Initializer{
		db:          db,
		store:       store,
		jobs:        make(chan uint, 64),
		ctx:         ctx,
		cancel:      cancel,
		maxAttempts: 3,
		retryDelay:  60 * time.Second,
	}
	i.ensure = i.EnsureDefaults

	return i
}

// Start launches the worker goroutines.
func (i *Initializer) Start(workers int) {
	if workers < 1 {
		workers = 1
	}

	for w := 0; w < workers; w++ {
		i.wg.Add(1)
		go i.worker()
	}

	log.Printf("User environment initializer started with %d workers", workers)
}

// Stop cancels in-flight jobs and waits for the workers to exit.
func (i *Initializer) Stop() {
	i.cancel()
	i.wg.Wait()
	log.Println("User environment initializer stopped")
}

// Enqueue schedules initialization for a user. Never blocks the caller: if
// the queue is saturated the job is dropped and logged, and the synchronous
// registration path has already created the defaults anyway.
func (i *Initializer) Enqueue(userID uint) {
	select {
	case i.jobs <- userID:
	case <-i.ctx.Done():
	default:
		log.Printf("Initializer queue full, dropping job for user %d", userID)
	}
}

func (i *Initializer) worker() {
	defer i.wg.Done()

	for {
		select {
		case <-i.ctx.Done():
			return
		case userID := <-i.jobs:
			i.process(userID)
		}
	}
}

func (i *Initializer) process(userID uint) {
	for attempt := 1; attempt <= i.maxAttempts; attempt++ {
		err := i.ensure(i.ctx, userID)

		if err == nil {
			return
		}

		if errors.Is(err, ErrUserNotFound) {
			log.Printf("User %d not found, abandoning environment initialization", userID)
			return
		}

		log.Printf("Environment initialization for user %d failed (attempt %d/%d): %v", userID, attempt, i.maxAttempts, err)

		if attempt == i.maxAttempts {
			return
		}

		select {
		case <-i.ctx.Done():
			return
		case <-time.After(i.retryDelay):
		}
	}
}

// EnsureDefaults creates any default category the user is missing by name
// and initializes its note-count cache entry.
func (i *Initializer) EnsureDefaults(ctx context.Context, userID uint) error {
	var user models.User

	err := i.db.WithContext(ctx).First(&user, userID).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	for _, seed := range models.DefaultCategorySeeds {
		var category models.Category

		result := i.db.WithContext(ctx).
			Where(models.Category{UserID: user.ID, Name: seed.Name}).
			Attrs(models.Category{Color: seed.Color}).
			FirstOrCreate(&category)

		if result.Error != nil {
			// A concurrent creator winning the unique index race still
			// means the category exists.
			if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
				continue
			}
			return result.Error
		}

		// Zero the counter only for a freshly created category; an
		// existing one may already have a warm count.
		if result.RowsAffected > 0 {
			if err := i.store.SetNoteCount(ctx, category.ID, 0); err != nil {
				log.Printf("Failed to initialize note count for category %d: %v", category.ID, err)
			}
		}
	}

	return nil
}
