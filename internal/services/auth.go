package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/jotter-dev/jotter/internal/auth"
	"github.com/jotter-dev/jotter/internal/cache"
	"github.com/jotter-dev/jotter/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// EnvironmentInitializer re-ensures a new user's default categories outside
// the request path. Registration enqueues it as a safety net; the synchronous
// transaction is the primary creation mechanism.
type EnvironmentInitializer interface {
	Enqueue(userID uint)
}

type RegisteredUser struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type AuthService struct {
	db          *gorm.DB
	store       *cache.Store
	tokens      *auth.TokenService
	initializer EnvironmentInitializer
}

func NewAuthService(db *gorm.DB, store *cache.Store, tokens *auth.TokenService, initializer EnvironmentInitializer) *AuthService {
	return &AuthService{
		db:          db,
		store:       store,
		tokens:      tokens,
		initializer: initializer,
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates the user and the default category set in one
// transaction, so the categories exist before the first dashboard load.
func (s *AuthService) Register(ctx context.Context, email, password string) (*RegisteredUser, error) {
	email = NormalizeEmail(email)

	var existing models.User

	err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error

	if err == nil {
		return nil, &ValidationError{Field: "email", Message: "A user with this email already exists."}
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	if err != nil {
		return nil, err
	}

	user := models.User{
		Email:        email,
		PasswordHash: string(passwordHash),
		IsActive:     true,
	}

	var categories []models.Category

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		for _, seed := range models.DefaultCategorySeeds {
			category := models.Category{
				UserID: user.ID,
				Name:   seed.Name,
				Color:  seed.Color,
			}

			if err := tx.Create(&category).Error; err != nil {
				return err
			}

			categories = append(categories, category)
		}

		return nil
	})

	if err != nil {
		// Another request may have claimed the email between the
		// existence check and the insert.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &ValidationError{Field: "email", Message: "A user with this email already exists."}
		}
		return nil, err
	}

	for _, category := range categories {
		if err := s.store.SetNoteCount(ctx, category.ID, 0); err != nil {
			log.Printf("Failed to initialize note count for category %d: %v", category.ID, err)
		}
	}

	if s.initializer != nil {
		s.initializer.Enqueue(user.ID)
	}

	return &RegisteredUser{
		ID:        user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}, nil
}

// Authenticate verifies credentials and issues a token pair. Unknown email
// and wrong password produce the identical generic error.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*auth.TokenPair, error) {
	email = NormalizeEmail(email)

	var user models.User

	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	return s.tokens.IssuePair(user.ID, user.Email)
}
