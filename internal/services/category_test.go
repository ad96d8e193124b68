package services_test

import (
	"context"
	"testing"

	"github.com/jotter-dev/jotter/internal/cache"
	"github.com/jotter-dev/jotter/internal/models"
	"github.com/jotter-dev/jotter/internal/services"
	"github.com/jotter-dev/jotter/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newCategoryService(t *testing.T) (*services.CategoryService, *gorm.DB, *cache.Store) {
	t.Helper()

	db := testutil.NewDB(t)
	store, _ := testutil.NewStore(t)

	return services.NewCategoryService(db, store), db, store
}

func TestCreateAndListCategories(t *testing.T) {
	service, db, _ := newCategoryService(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "a@example.com", "password123")

	first, err := service.Create(ctx, user.ID, "  Work  ", "#ff0000")
	require.NoError(t, err)

	assert.Equal(t, "Work", first.Name, "name is trimmed")
	assert.Equal(t, "#FF0000", first.Color, "color is normalized to uppercase")
	assert.Equal(t, int64(0), first.NoteCount)

	_, err = service.Create(ctx, user.ID, "Personal", "")
	require.NoError(t, err)

	categories, err := service.List(ctx, user.ID)
	require.NoError(t, err)

	require.Len(t, categories, 2)
	assert.Equal(t, "Work", categories[0].Name, "ordered by creation time ascending")
	assert.Equal(t, "Personal", categories[1].Name)
	assert.Equal(t, models.DefaultCategoryColor, categories[1].Color, "missing color falls back to default")
}

func TestCreateCategoryValidation(t *testing.T) {
	service, db, _ := newCategoryService(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "a@example.com", "password123")

	_, err := service.Create(ctx, user.ID, "   ", "#ff0000")

	var validationErr *services.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "name", validationErr.Field)

	_, err = service.Create(ctx, user.ID, "Work", "red")
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "color", validationErr.Field)

	_, err = service.Create(ctx, user.ID, "Work", "#zzzzzz")
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "color", validationErr.Field)
}

func TestCategoryNamesUniquePerUserOnly(t *testing.T) {
	service, db, _ := newCategoryService(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice@example.com", "password123")
	bob := testutil.CreateUser(t, db, "bob@example.com", "password123")

	_, err := service.Create(ctx, alice.ID, "Work", "#ff0000")
	require.NoError(t, err)

	// The same name under another user is fine.
	_, err = service.Create(ctx, bob.ID, "Work", "#00ff00")
	require.NoError(t, err)

	_, err = service.Create(ctx, alice.ID, "Work", "#0000ff")

	var validationErr *services.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "name", validationErr.Field)
}

func TestGetCategoryOwnershipBlind(t *testing.T) {
	service, db, _ := newCategoryService(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice@example.com", "password123")
	bob := testutil.CreateUser(t, db, "bob@example.com", "password123")

	category, err := service.Create(ctx, alice.ID, "Work", "#ff0000")
	require.NoError(t, err)

	var notFoundErr *services.NotFoundError

	_, err = service.Get(ctx, bob.ID, category.ID)
	require.ErrorAs(t, err, &notFoundErr)

	_, err = service.Get(ctx, alice.ID, 9999)
	require.ErrorAs(t, err, &notFoundErr)
}

func TestUpdateCategory(t *testing.T) {
	service, db, _ := newCategoryService(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "a@example.com", "password123")

	work, err := service.Create(ctx, user.ID, "Work", "#ff0000")
	require.NoError(t, err)

	_, err = service.Create(ctx, user.ID, "Personal", "#00ff00")
	require.NoError(t, err)

	// Renaming to its own name is a no-op success.
	sameName := "Work"
	updated, err := service.Update(ctx, user.ID, work.ID, services.UpdateCategoryInput{Name: &sameName})
	require.NoError(t, err)
	assert.Equal(t, "Work", updated.Name)

	// Renaming to a sibling's name conflicts.
	taken := "Personal"
	_, err = service.Update(ctx, user.ID, work.ID, services.UpdateCategoryInput{Name: &taken})

	var validationErr *services.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "name", validationErr.Field)

	newColor := "#abcdef"
	updated, err = service.Update(ctx, user.ID, work.ID, services.UpdateCategoryInput{Color: &newColor})
	require.NoError(t, err)
	assert.Equal(t, "#ABCDEF", updated.Color)
}

func TestDeleteProtectedCategory(t *testing.T) {
	service, db, _ := newCategoryService(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "a@example.com", "password123")
	protected := testutil.CreateCategory(t, db, user.ID, models.DefaultCategoryName, models.DefaultCategoryColor)

	err := service.Delete(ctx, user.ID, protected.ID)

	var validationErr *services.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Message, models.DefaultCategoryName)
}

func TestDeleteCategoryNullifiesNotes(t *testing.T) {
	service, db, store := newCategoryService(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "a@example.com", "password123")
	category := testutil.CreateCategory(t, db, user.ID, "Work", "#FF0000")

	note := models.Note{UserID: user.ID, CategoryID: &category.ID, Title: "keep me"}
	require.NoError(t, db.Create(&note).Error)

	require.NoError(t, store.SetNoteCount(ctx, category.ID, 1))

	require.NoError(t, service.Delete(ctx, user.ID, category.ID))

	var kept models.Note
	require.NoError(t, db.First(&kept, "id = ?", note.ID).Error)
	assert.Nil(t, kept.CategoryID, "notes survive with category cleared")

	_, err := store.GetNoteCount(ctx, category.ID)
	assert.ErrorIs(t, err, cache.ErrCounterMiss, "count cache entry removed")

	_, err = service.Get(ctx, user.ID, category.ID)

	var notFoundErr *services.NotFoundError
	assert.ErrorAs(t, err, &notFoundErr)
}

func TestNoteCountColdAndWarmCache(t *testing.T) {
	service, db, store := newCategoryService(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "a@example.com", "password123")
	category := testutil.CreateCategory(t, db, user.ID, "Work", "#FF0000")

	for i := 0; i < 3; i++ {
		note := models.Note{UserID: user.ID, CategoryID: &category.ID}
		require.NoError(t, db.Create(&note).Error)
	}

	// Cold cache: the listing recounts from the database and warms the entry.
	got, err := service.Get(ctx, user.ID, category.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.NoteCount)

	cached, err := store.GetNoteCount(ctx, category.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), cached)

	// Warm cache: a preset value is trusted over the true count.
	require.NoError(t, store.SetNoteCount(ctx, category.ID, 42))

	got, err = service.Get(ctx, user.ID, category.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.NoteCount)
}
