package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jotter-dev/jotter/internal/services"
	"github.com/jotter-dev/jotter/internal/utils"
)

type CreateCategoryRequest struct {
	Name  string `json:"name" binding:"required"`
	Color string `json:"color"`
}

type UpdateCategoryRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

type CategoryHandler struct {
	service *services.CategoryService
}

func NewCategoryHandler(service *services.CategoryService) *CategoryHandler {
	return &CategoryHandler{service: service}
}

func (h *CategoryHandler) List(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	categories, err := h.service.List(ctx.Request.Context(), userID)

	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	response := make([]CategoryResponse, 0, len(categories))

	for _, category := range categories {
		response = append(response, newCategoryResponse(category))
	}

	ctx.JSON(http.StatusOK, response)
}

func (h *CategoryHandler) Create(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body CreateCategoryRequest

	if err := ctx.BindJSON(&body); err != nil {
		log.Printf("Failed to bind JSON: %v", err)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	category, err := h.service.Create(ctx.Request.Context(), userID, body.Name, body.Color)

	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, newCategoryResponse(*category))
}

func (h *CategoryHandler) Get(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	categoryID, ok := parseCategoryID(ctx)

	if !ok {
		return
	}

	category, err := h.service.Get(ctx.Request.Context(), userID, categoryID)

	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, newCategoryResponse(*category))
}

func (h *CategoryHandler) Update(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	categoryID, ok := parseCategoryID(ctx)

	if !ok {
		return
	}

	var body UpdateCategoryRequest

	if err := ctx.BindJSON(&body); err != nil {
		log.Printf("Failed to bind JSON: %v", err)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	category, err := h.service.Update(ctx.Request.Context(), userID, categoryID, services.UpdateCategoryInput{
		Name:  body.Name,
		Color: body.Color,
	})

	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, newCategoryResponse(*category))
}

func (h *CategoryHandler) Delete(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	categoryID, ok := parseCategoryID(ctx)

	if !ok {
		return
	}

	if err := h.service.Delete(ctx.Request.Context(), userID, categoryID); err != nil {
		respondServiceError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// parseCategoryID reads the :category_id route param. A non-numeric id is
// reported as not found, same as a missing one.
func parseCategoryID(ctx *gin.Context) (uint, bool) {
	raw := ctx.Param("category_id")

	parsed, err := strconv.ParseUint(raw, 10, 64)

	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Category not found."})
		return 0, false
	}

	return uint(parsed), true
}
