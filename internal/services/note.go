package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jotter-dev/jotter/internal/cache"
	"github.com/jotter-dev/jotter/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type CreateNoteInput struct {
	Title      string
	Content    string
	CategoryID *uint
}

// UpdateNoteInput distinguishes an omitted category from an explicit null:
// CategorySet reports whether the field was present at all.
type UpdateNoteInput struct {
	Title       *string
	Content     *string
	CategoryID  *uint
	CategorySet bool
}

type NoteFilters struct {
	CategoryID *uint
	Search     string
	Page       int
	PageSize   int
}

type NoteList struct {
	Count    int64
	Page     int
	PageSize int
	Notes    []models.Note
}

type NoteService struct {
	db    *gorm.DB
	store *cache.Store
}

func NewNoteService(db *gorm.DB, store *cache.Store) *NoteService {
	return &NoteService{db: db, store: store}
}

func (s *NoteService) Create(ctx context.Context, userID uint, input CreateNoteInput) (*models.Note, error) {
	title := strings.TrimSpace(input.Title)

	if err := validateNoteFields(title, input.Content); err != nil {
		return nil, err
	}

	var category *models.Category

	if input.CategoryID != nil {
		owned, err := s.ownedCategory(ctx, userID, *input.CategoryID)

		if err != nil {
			return nil, err
		}

		category = owned
	} else {
		fallback, err := s.defaultCategory(ctx, userID)

		if err != nil {
			return nil, err
		}

		category = fallback
	}

	note := models.Note{
		UserID:  userID,
		Title:   title,
		Content: input.Content,
	}

	if category != nil {
		note.CategoryID = &category.ID
	}

	if err := s.db.WithContext(ctx).Create(&note).Error; err != nil {
		return nil, err
	}

	note.Category = category

	if category != nil {
		adjustNoteCount(ctx, s.db, s.store, category.ID, 1)
	}

	return &note, nil
}

func (s *NoteService) List(ctx context.Context, userID uint, filters NoteFilters) (*NoteList, error) {
	query := s.db.WithContext(ctx).Model(&models.Note{}).Where("user_id = ?", userID)

	if filters.CategoryID != nil {
		if _, err := s.ownedCategory(ctx, userID, *filters.CategoryID); err != nil {
			return nil, err
		}

		query = query.Where("category_id = ?", *filters.CategoryID)
	}

	if search := strings.TrimSpace(filters.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("(LOWER(title) LIKE ? OR LOWER(content) LIKE ?)", pattern, pattern)
	}

	var count int64

	if err := query.Count(&count).Error; err != nil {
		return nil, err
	}

	page := filters.Page

	if page < 1 {
		page = 1
	}

	pageSize := filters.PageSize

	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	var notes []models.Note

	err := query.Preload("Category").
		Order("updated_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&notes).Error

	if err != nil {
		return nil, err
	}

	return &NoteList{
		Count:    count,
		Page:     page,
		PageSize: pageSize,
		Notes:    notes,
	}, nil
}

func (s *NoteService) Get(ctx context.Context, userID uint, noteID string) (*models.Note, error) {
	if _, err := uuid.Parse(noteID); err != nil {
		return nil, &NotFoundError{Resource: "Note"}
	}

	var note models.Note

	err := s.db.WithContext(ctx).Preload("Category").Where("id = ? AND user_id = ?", noteID, userID).First(&note).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "Note"}
		}
		return nil, err
	}

	return &note, nil
}

func (s *NoteService) Update(ctx context.Context, userID uint, noteID string, input UpdateNoteInput) (*models.Note, error) {
	note, err := s.Get(ctx, userID, noteID)

	if err != nil {
		return nil, err
	}

	oldCategoryID := note.CategoryID

	if input.Title != nil {
		note.Title = strings.TrimSpace(*input.Title)
	}

	if input.Content != nil {
		note.Content = *input.Content
	}

	if err := validateNoteFields(note.Title, note.Content); err != nil {
		return nil, err
	}

	if input.CategorySet {
		if input.CategoryID == nil {
			note.CategoryID = nil
			note.Category = nil
		} else {
			category, err := s.ownedCategory(ctx, userID, *input.CategoryID)

			if err != nil {
				return nil, err
			}

			note.CategoryID = &category.ID
			note.Category = category
		}
	}

	if err := s.db.WithContext(ctx).Omit(clause.Associations).Save(note).Error; err != nil {
		return nil, err
	}

	if !categoryIDEqual(oldCategoryID, note.CategoryID) {
		if oldCategoryID != nil {
			adjustNoteCount(ctx, s.db, s.store, *oldCategoryID, -1)
		}

		if note.CategoryID != nil {
			adjustNoteCount(ctx, s.db, s.store, *note.CategoryID, 1)
		}
	}

	return note, nil
}

func (s *NoteService) Delete(ctx context.Context, userID uint, noteID string) error {
	note, err := s.Get(ctx, userID, noteID)

	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(note).Error; err != nil {
		return err
	}

	if note.CategoryID != nil {
		adjustNoteCount(ctx, s.db, s.store, *note.CategoryID, -1)
	}

	return nil
}

// defaultCategory resolves where an unspecified note lands: the seeded
// default category first, then the most recently created one, then none.
func (s *NoteService) defaultCategory(ctx context.Context, userID uint) (*models.Category, error) {
	var category models.Category

	err := s.db.WithContext(ctx).Where("user_id = ? AND name = ?", userID, models.DefaultCategoryName).First(&category).Error

	if err == nil {
		return &category, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").First(&category).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &category, nil
}

func (s *NoteService) ownedCategory(ctx context.Context, userID, categoryID uint) (*models.Category, error) {
	var category models.Category

	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ValidationError{Field: "category_id", Message: "Category does not exist or does not belong to you."}
		}
		return nil, err
	}

	return &category, nil
}

func validateNoteFields(title, content string) error {
	if utf8.RuneCountInString(title) > models.MaxNoteTitleLength {
		return &ValidationError{Field: "title", Message: "Title must be at most 255 characters."}
	}

	if utf8.RuneCountInString(content) > models.MaxNoteContentLength {
		return &ValidationError{Field: "content", Message: "Content must be at most 100,000 characters."}
	}

	return nil
}

func categoryIDEqual(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}

	return *a == *b
}
