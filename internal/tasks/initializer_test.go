package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jotter-dev/jotter/internal/models"
	"github.com/jotter-dev/jotter/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDefaultsCreatesMissingCategories(t *testing.T) {
	db := testutil.NewDB(t)
	store, _ := testutil.NewStore(t)
	initializer := NewInitializer(db, store)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "a@example.com", "password123")

	require.NoError(t, initializer.EnsureDefaults(ctx, user.ID))

	var category models.Category
	require.NoError(t, db.Where("user_id = ? AND name = ?", user.ID, models.DefaultCategoryName).First(&category).Error)
	assert.Equal(t, models.DefaultCategoryColor, category.Color)

	count, err := store.GetNoteCount(ctx, category.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestEnsureDefaultsIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	store, _ := testutil.NewStore(t)
	initializer := NewInitializer(db, store)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "a@example.com", "password123")

	require.NoError(t, initializer.EnsureDefaults(ctx, user.ID))

	var category models.Category
	require.NoError(t, db.Where("user_id = ? AND name = ?", user.ID, models.DefaultCategoryName).First(&category).Error)

	// A warm counter survives a rerun; only fresh categories are zeroed.
	require.NoError(t, store.SetNoteCount(ctx, category.ID, 7))

	require.NoError(t, initializer.EnsureDefaults(ctx, user.ID))

	var total int64
	require.NoError(t, db.Model(&models.Category{}).Where("user_id = ?", user.ID).Count(&total).Error)
	assert.Equal(t, int64(1), total)

	count, err := store.GetNoteCount(ctx, category.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
}

func TestEnsureDefaultsMissingUserIsFatal(t *testing.T) {
	db := testutil.NewDB(t)
	store, _ := testutil.NewStore(t)
	initializer := NewInitializer(db, store)

	err := initializer.EnsureDefaults(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestWorkerProcessesEnqueuedJobs(t *testing.T) {
	db := testutil.NewDB(t)
	store, _ := testutil.NewStore(t)
	initializer := NewInitializer(db, store)
	initializer.retryDelay = 10 * time.Millisecond

	user := testutil.CreateUser(t, db, "a@example.com", "password123")

	initializer.Start(1)
	defer initializer.Stop()

	initializer.Enqueue(user.ID)

	deadline := time.After(2 * time.Second)

	for {
		var count int64
		require.NoError(t, db.Model(&models.Category{}).Where("user_id = ?", user.ID).Count(&count).Error)

		if count == 1 {
			return
		}

		select {
		case <-deadline:
			t.Fatal("worker did not create default categories in time")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestProcessRetriesTransientFailures(t *testing.T) {
	db := testutil.NewDB(t)
	store, _ := testutil.NewStore(t)
	initializer := NewInitializer(db, store)
	initializer.maxAttempts = 3
	initializer.retryDelay = 5 * time.Millisecond

	attempts := 0
	initializer.ensure = func(ctx context.Context, userID uint) error {
		attempts++
		return errors.New("connection refused")
	}

	initializer.process(1)
	assert.Equal(t, 3, attempts)
}

func TestProcessStopsRetryingAfterSuccess(t *testing.T) {
	db := testutil.NewDB(t)
	store, _ := testutil.NewStore(t)
	initializer := NewInitializer(db, store)
	initializer.maxAttempts = 3
	initializer.retryDelay = 5 * time.Millisecond

	attempts := 0
	initializer.ensure = func(ctx context.Context, userID uint) error {
		attempts++
		if attempts < 2 {
			return errors.New("connection refused")
		}
		return nil
	}

	initializer.process(1)
	assert.Equal(t, 2, attempts)
}

func TestProcessDoesNotRetryMissingUser(t *testing.T) {
	db := testutil.NewDB(t)
	store, _ := testutil.NewStore(t)
	initializer := NewInitializer(db, store)
	initializer.maxAttempts = 3
	initializer.retryDelay = time.Hour // a retry would hang the test

	done := make(chan struct{})

	go func() {
		initializer.process(9999)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("missing user was retried instead of abandoned")
	}
}
