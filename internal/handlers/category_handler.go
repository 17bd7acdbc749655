package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/errors"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/models"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/pagination"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/services"
)

// CategoryHandler handles category-related requests
type CategoryHandler struct {
	categoryService services.CategoryServicer
	auditService    services.AuditServicer
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService services.CategoryServicer, auditService services.AuditServicer) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService, auditService: auditService}
}

// CreateCategoryRequest represents the request body for creating a category
type CreateCategoryRequest struct {
	Name            string                 `json:"name" binding:"required,min=1,max=100"`
	Kind            models.CategoryKind    `json:"kind" binding:"omitempty,category_kind"`
	TransactionKind models.TransactionKind `json:"transaction_kind" binding:"required,transaction_kind"`
	Description     string                 `json:"description" binding:"max=500"`
	Icon            string                 `json:"icon" binding:"max=50"`
}

// UpdateCategoryRequest represents the request body for updating a category.
// The transaction kind is fixed at creation.
type UpdateCategoryRequest struct {
	Name        *string              `json:"name" binding:"omitempty,min=1,max=100"`
	Kind        *models.CategoryKind `json:"kind" binding:"omitempty,category_kind"`
	Description *string              `json:"description" binding:"omitempty,max=500"`
	Icon        *string              `json:"icon" binding:"omitempty,max=50"`
	IsActive    *bool                `json:"is_active"`
}

// CreateCategory handles the creation of a new category
// @Summary     Create a category
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateCategoryRequest true "Category details"
// @Success     201 {object} models.Category "Category created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Duplicate name"
// @Router      /categories [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	category, err := h.categoryService.CreateCategory(c.Request.Context(), userID, services.CategoryInput{
		Name:            req.Name,
		Kind:            req.Kind,
		TransactionKind: req.TransactionKind,
		Description:     req.Description,
		Icon:            req.Icon,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionCreate, "category", category.ID, c.ClientIP(),
		map[string]any{"name": category.Name, "transaction_kind": category.TransactionKind})

	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// GetUserCategories handles the retrieval of categories for a user
// @Summary     Get user categories
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       transaction_kind query string false "Filter by expense or income"
// @Param       page             query int    false "Page number (default 1)"
// @Param       page_size        query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Category] "Paginated categories"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Router      /categories [get]
func (h *CategoryHandler) GetUserCategories(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	var kind *models.TransactionKind
	if v := c.Query("transaction_kind"); v != "" {
		k := models.TransactionKind(v)
		if k != models.TransactionKindExpense && k != models.TransactionKindIncome {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid transaction_kind, must be expense or income"))
			return
		}
		kind = &k
	}

	result, err := h.categoryService.GetUserCategories(c.Request.Context(), userID, kind, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetCategoryByID handles the retrieval of a specific category
// @Summary     Get category by ID
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Category ID"
// @Success     200 {object} models.Category "Category details"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /categories/{id} [get]
func (h *CategoryHandler) GetCategoryByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	category, err := h.categoryService.GetCategoryByID(c.Request.Context(), userID, categoryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// UpdateCategory handles updating a category
// @Summary     Update category
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                true "Category ID"
// @Param       request body UpdateCategoryRequest true "Fields to change"
// @Success     200 {object} models.Category "Updated category"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     409 {object} ErrorResponse "Duplicate name"
// @Router      /categories/{id} [put]
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	category, err := h.categoryService.UpdateCategory(c.Request.Context(), userID, categoryID, services.CategoryUpdateFields{
		Name:        req.Name,
		Kind:        req.Kind,
		Description: req.Description,
		Icon:        req.Icon,
		IsActive:    req.IsActive,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionUpdate, "category", categoryID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// DeleteCategory handles deleting a category
// @Summary     Delete category
// @Tags        categories
// @Security    BearerAuth
// @Param       id path string true "Category ID"
// @Success     204 "Category deleted"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     409 {object} ErrorResponse "Category is referenced by transactions"
// @Router      /categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.categoryService.DeleteCategory(c.Request.Context(), userID, categoryID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionDelete, "category", categoryID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}
