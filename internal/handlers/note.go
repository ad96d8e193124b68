package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jotter-dev/jotter/internal/services"
	"github.com/jotter-dev/jotter/internal/utils"
)

type CreateNoteRequest struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	CategoryID *uint  `json:"category_id"`
}

// OptionalCategoryID distinguishes an absent category_id field from an
// explicit null, which clears the note's category.
type OptionalCategoryID struct {
	Set   bool
	Value *uint
}

func (o *OptionalCategoryID) UnmarshalJSON(data []byte) error {
	o.Set = true

	if string(data) == "null" {
		o.Value = nil
		return nil
	}

	var value uint

	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}

	o.Value = &value
	return nil
}

type UpdateNoteRequest struct {
	Title      *string            `json:"title"`
	Content    *string            `json:"content"`
	CategoryID OptionalCategoryID `json:"category_id"`
}

type NoteListResponse struct {
	Count    int64          `json:"count"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
	Results  []NoteListItem `json:"results"`
}

type NoteHandler struct {
	service *services.NoteService
}

func NewNoteHandler(service *services.NoteService) *NoteHandler {
	return &NoteHandler{service: service}
}

func (h *NoteHandler) Create(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body CreateNoteRequest

	if err := ctx.BindJSON(&body); err != nil {
		log.Printf("Failed to bind JSON: %v", err)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	note, err := h.service.Create(ctx.Request.Context(), userID, services.CreateNoteInput{
		Title:      body.Title,
		Content:    body.Content,
		CategoryID: body.CategoryID,
	})

	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, newNoteResponse(note))
}

func (h *NoteHandler) List(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	filters := services.NoteFilters{
		Search:   ctx.Query("search"),
		Page:     queryInt(ctx, "page", 1),
		PageSize: queryInt(ctx, "page_size", services.DefaultPageSize),
	}

	if raw := ctx.Query("category_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)

		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{
				"errors": gin.H{"category_id": []string{"A valid integer is required."}},
			})
			return
		}

		categoryID := uint(parsed)
		filters.CategoryID = &categoryID
	}

	list, err := h.service.List(ctx.Request.Context(), userID, filters)

	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	results := make([]NoteListItem, 0, len(list.Notes))

	for _, note := range list.Notes {
		results = append(results, newNoteListItem(note))
	}

	ctx.JSON(http.StatusOK, NoteListResponse{
		Count:    list.Count,
		Page:     list.Page,
		PageSize: list.PageSize,
		Results:  results,
	})
}

func (h *NoteHandler) Get(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	note, err := h.service.Get(ctx.Request.Context(), userID, ctx.Param("note_id"))

	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, newNoteResponse(note))
}

func (h *NoteHandler) Update(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body UpdateNoteRequest

	if err := ctx.BindJSON(&body); err != nil {
		log.Printf("Failed to bind JSON: %v", err)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	note, err := h.service.Update(ctx.Request.Context(), userID, ctx.Param("note_id"), services.UpdateNoteInput{
		Title:       body.Title,
		Content:     body.Content,
		CategoryID:  body.CategoryID.Value,
		CategorySet: body.CategoryID.Set,
	})

	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, newNoteResponse(note))
}

func (h *NoteHandler) Delete(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if err := h.service.Delete(ctx.Request.Context(), userID, ctx.Param("note_id")); err != nil {
		respondServiceError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func queryInt(ctx *gin.Context, key string, fallback int) int {
	raw := ctx.Query(key)

	if raw == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(raw)

	if err != nil {
		return fallback
	}

	return parsed
}
