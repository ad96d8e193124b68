package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/jotter-dev/jotter/internal/auth"
	"github.com/jotter-dev/jotter/internal/cache"
	"github.com/jotter-dev/jotter/internal/models"
	"github.com/jotter-dev/jotter/internal/services"
	"github.com/jotter-dev/jotter/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingInitializer struct {
	enqueued []uint
}

func (r *recordingInitializer) Enqueue(userID uint) {
	r.enqueued = append(r.enqueued, userID)
}

func newAuthService(t *testing.T) (*services.AuthService, *gorm.DB, *cache.Store, *recordingInitializer) {
	t.Helper()

	db := testutil.NewDB(t)
	store, _ := testutil.NewStore(t)
	tokens := auth.NewTokenService("test-secret", 15*time.Minute, 7*24*time.Hour, true, store)
	initializer := &recordingInitializer{}

	return services.NewAuthService(db, store, tokens, initializer), db, store, initializer
}

func TestRegisterThenAuthenticate(t *testing.T) {
	service, _, _, _ := newAuthService(t)
	ctx := context.Background()

	user, err := service.Register(ctx, "  Alice@Example.COM ", "password123")
	require.NoError(t, err)

	assert.NotZero(t, user.ID)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.False(t, user.CreatedAt.IsZero())

	pair, err := service.Authenticate(ctx, "alice@example.com", "password123")
	require.NoError(t, err)

	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "Bearer", pair.TokenType)
}

func TestRegisterSeedsDefaultCategories(t *testing.T) {
	service, db, store, initializer := newAuthService(t)
	ctx := context.Background()

	user, err := service.Register(ctx, "bob@example.com", "password123")
	require.NoError(t, err)

	var category models.Category

	err = db.Where("user_id = ? AND name = ?", user.ID, models.DefaultCategoryName).First(&category).Error
	require.NoError(t, err)

	assert.Equal(t, models.DefaultCategoryColor, category.Color)

	count, err := store.GetNoteCount(ctx, category.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	assert.Equal(t, []uint{user.ID}, initializer.enqueued)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	service, _, _, _ := newAuthService(t)
	ctx := context.Background()

	_, err := service.Register(ctx, "carol@example.com", "password123")
	require.NoError(t, err)

	_, err = service.Register(ctx, "CAROL@example.com", "differentpass")

	var validationErr *services.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "email", validationErr.Field)
}

func TestAuthenticateFailuresAreIndistinguishable(t *testing.T) {
	service, _, _, _ := newAuthService(t)
	ctx := context.Background()

	_, err := service.Register(ctx, "dave@example.com", "password123")
	require.NoError(t, err)

	_, wrongPassword := service.Authenticate(ctx, "dave@example.com", "wrongpass")
	_, unknownEmail := service.Authenticate(ctx, "nobody@example.com", "password123")

	require.Error(t, wrongPassword)
	require.Error(t, unknownEmail)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
	assert.ErrorIs(t, wrongPassword, services.ErrInvalidCredentials)
}

func TestAuthenticateDisabledAccount(t *testing.T) {
	service, db, _, _ := newAuthService(t)
	ctx := context.Background()

	user, err := service.Register(ctx, "eve@example.com", "password123")
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).Update("is_active", false).Error)

	_, err = service.Authenticate(ctx, "eve@example.com", "password123")
	assert.ErrorIs(t, err, services.ErrAccountDisabled)
}
