package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/jotter-dev/jotter/internal/cache"
	"github.com/jotter-dev/jotter/internal/models"
	"gorm.io/gorm"
)

// CategoryWithCount pairs a category with its derived note count.
type CategoryWithCount struct {
	models.Category
	NoteCount int64
}

type UpdateCategoryInput struct {
	Name  *string
	Color *string
}

type CategoryService struct {
	db    *gorm.DB
	store *cache.Store
}

func NewCategoryService(db *gorm.DB, store *cache.Store) *CategoryService {
	return &CategoryService{db: db, store: store}
}

// NormalizeColor validates a 6-hex-digit color code and returns it
// uppercased. An empty input falls back to the default color.
func NormalizeColor(color string) (string, error) {
	if color == "" {
		return models.DefaultCategoryColor, nil
	}

	invalid := &ValidationError{Field: "color", Message: "Color must be a valid hex color code (e.g., #6366f1)."}

	if !strings.HasPrefix(color, "#") || len(color) != 7 {
		return "", invalid
	}

	if _, err := strconv.ParseUint(color[1:], 16, 32); err != nil {
		return "", invalid
	}

	return strings.ToUpper(color), nil
}

func (s *CategoryService) List(ctx context.Context, userID uint) ([]CategoryWithCount, error) {
	var categories []models.Category

	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at ASC").Find(&categories).Error

	if err != nil {
		return nil, err
	}

	result := make([]CategoryWithCount, 0, len(categories))

	for _, category := range categories {
		count, err := resolveNoteCount(ctx, s.db, s.store, category.ID)

		if err != nil {
			return nil, err
		}

		result = append(result, CategoryWithCount{Category: category, NoteCount: count})
	}

	return result, nil
}

func (s *CategoryService) Create(ctx context.Context, userID uint, name, color string) (*CategoryWithCount, error) {
	name = strings.TrimSpace(name)

	if name == "" {
		return nil, &ValidationError{Field: "name", Message: "Category name cannot be empty."}
	}

	color, err := NormalizeColor(color)

	if err != nil {
		return nil, err
	}

	if err := s.checkNameAvailable(ctx, userID, name, 0); err != nil {
		return nil, err
	}

	category := models.Category{
		UserID: userID,
		Name:   name,
		Color:  color,
	}

	if err := s.db.WithContext(ctx).Create(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, duplicateCategoryName()
		}
		return nil, err
	}

	if err := s.store.SetNoteCount(ctx, category.ID, 0); err != nil {
		log.Printf("Failed to initialize note count for category %d: %v", category.ID, err)
	}

	return &CategoryWithCount{Category: category}, nil
}

func (s *CategoryService) Get(ctx context.Context, userID, categoryID uint) (*CategoryWithCount, error) {
	category, err := s.getOwned(ctx, userID, categoryID)

	if err != nil {
		return nil, err
	}

	count, err := resolveNoteCount(ctx, s.db, s.store, category.ID)

	if err != nil {
		return nil, err
	}

	return &CategoryWithCount{Category: *category, NoteCount: count}, nil
}

func (s *CategoryService) Update(ctx context.Context, userID, categoryID uint, input UpdateCategoryInput) (*CategoryWithCount, error) {
	category, err := s.getOwned(ctx, userID, categoryID)

	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)

		if name == "" {
			return nil, &ValidationError{Field: "name", Message: "Category name cannot be empty."}
		}

		// Renaming to the current name is a no-op success.
		if name != category.Name {
			if err := s.checkNameAvailable(ctx, userID, name, category.ID); err != nil {
				return nil, err
			}
		}

		category.Name = name
	}

	if input.Color != nil {
		color, err := NormalizeColor(*input.Color)

		if err != nil {
			return nil, err
		}

		category.Color = color
	}

	if err := s.db.WithContext(ctx).Save(category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, duplicateCategoryName()
		}
		return nil, err
	}

	count, err := resolveNoteCount(ctx, s.db, s.store, category.ID)

	if err != nil {
		return nil, err
	}

	return &CategoryWithCount{Category: *category, NoteCount: count}, nil
}

// Delete nullifies note references and removes the category in one
// transaction. The seeded default category is protected.
func (s *CategoryService) Delete(ctx context.Context, userID, categoryID uint) error {
	category, err := s.getOwned(ctx, userID, categoryID)

	if err != nil {
		return err
	}

	if category.Name == models.DefaultCategoryName {
		return &ValidationError{Message: fmt.Sprintf("Cannot delete the '%s' category.", models.DefaultCategoryName)}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Note{}).Where("category_id = ?", category.ID).Update("category_id", nil).Error; err != nil {
			return err
		}

		return tx.Unscoped().Delete(category).Error
	})

	if err != nil {
		return err
	}

	if err := s.store.DeleteNoteCount(ctx, category.ID); err != nil {
		log.Printf("Failed to remove note count for category %d: %v", category.ID, err)
	}

	return nil
}

func (s *CategoryService) getOwned(ctx context.Context, userID, categoryID uint) (*models.Category, error) {
	var category models.Category

	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "Category"}
		}
		return nil, err
	}

	return &category, nil
}

func (s *CategoryService) checkNameAvailable(ctx context.Context, userID uint, name string, excludeID uint) error {
	query := s.db.WithContext(ctx).Model(&models.Category{}).Where("user_id = ? AND name = ?", userID, name)

	if excludeID != 0 {
		query = query.Where("id != ?", excludeID)
	}

	var count int64

	if err := query.Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		return duplicateCategoryName()
	}

	return nil
}

func duplicateCategoryName() *ValidationError {
	return &ValidationError{Field: "name", Message: "A category with this name already exists."}
}
