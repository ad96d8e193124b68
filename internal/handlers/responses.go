package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/jotter-dev/jotter/internal/auth"
	"github.com/jotter-dev/jotter/internal/models"
	"github.com/jotter-dev/jotter/internal/services"
)

const contentPreviewLength = 200

type CategoryResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	NoteCount int64     `json:"note_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CategoryRef struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type NoteListItem struct {
	ID             string       `json:"id"`
	Title          string       `json:"title"`
	ContentPreview string       `json:"content_preview"`
	Category       *CategoryRef `json:"category"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

type NoteResponse struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Content   string       `json:"content"`
	Category  *CategoryRef `json:"category"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func newCategoryResponse(category services.CategoryWithCount) CategoryResponse {
	return CategoryResponse{
		ID:        category.ID,
		Name:      category.Name,
		Color:     category.Color,
		NoteCount: category.NoteCount,
		CreatedAt: category.CreatedAt,
		UpdatedAt: category.UpdatedAt,
	}
}

func newCategoryRef(category *models.Category) *CategoryRef {
	if category == nil {
		return nil
	}

	return &CategoryRef{
		ID:    category.ID,
		Name:  category.Name,
		Color: category.Color,
	}
}

func newNoteListItem(note models.Note) NoteListItem {
	preview := note.Content

	if utf8.RuneCountInString(preview) > contentPreviewLength {
		preview = string([]rune(preview)[:contentPreviewLength])
	}

	return NoteListItem{
		ID:             note.ID,
		Title:          note.Title,
		ContentPreview: preview,
		Category:       newCategoryRef(note.Category),
		UpdatedAt:      note.UpdatedAt,
	}
}

func newNoteResponse(note *models.Note) NoteResponse {
	return NoteResponse{
		ID:        note.ID,
		Title:     note.Title,
		Content:   note.Content,
		Category:  newCategoryRef(note.Category),
		CreatedAt: note.CreatedAt,
		UpdatedAt: note.UpdatedAt,
	}
}

// respondServiceError maps service-layer errors onto the HTTP taxonomy:
// validation 400, authentication 401, not-found 404, anything else 500.
func respondServiceError(ctx *gin.Context, err error) {
	var validationErr *services.ValidationError

	if errors.As(err, &validationErr) {
		if validationErr.Field != "" {
			ctx.JSON(http.StatusBadRequest, gin.H{
				"errors": gin.H{validationErr.Field: []string{validationErr.Message}},
			})
			return
		}

		ctx.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Message})
		return
	}

	var notFoundErr *services.NotFoundError

	if errors.As(err, &notFoundErr) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Error()})
		return
	}

	var authErr *services.AuthError

	if errors.As(err, &authErr) {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": authErr.Message})
		return
	}

	if errors.Is(err, auth.ErrInvalidToken) {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	log.Printf("Internal error: %v", err)
	ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
