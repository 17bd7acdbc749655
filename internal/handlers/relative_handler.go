package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/errors"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/pagination"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/services"
)

// RelativeHandler handles requests for the people a user splits expenses with.
type RelativeHandler struct {
	relativeService services.RelativeServicer
	auditService    services.AuditServicer
}

// NewRelativeHandler creates a new RelativeHandler.
func NewRelativeHandler(relativeService services.RelativeServicer, auditService services.AuditServicer) *RelativeHandler {
	return &RelativeHandler{relativeService: relativeService, auditService: auditService}
}

type CreateRelativeRequest struct {
	Name   string `json:"name" binding:"required,min=1,max=100"`
	Degree string `json:"degree" binding:"max=50"`
	Email  string `json:"email" binding:"omitempty,email"`
}

type UpdateRelativeRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=1,max=100"`
	Degree   *string `json:"degree" binding:"omitempty,max=50"`
	Email    *string `json:"email" binding:"omitempty,email"`
	IsActive *bool   `json:"is_active"`
}

// CreateRelative
// @Summary     Create a relative
// @Tags        relatives
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateRelativeRequest true "Relative details"
// @Success     201 {object} models.Relative "Relative created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Duplicate name"
// @Router      /relatives [post]
func (h *RelativeHandler) CreateRelative(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateRelativeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	relative, err := h.relativeService.CreateRelative(c.Request.Context(), userID, services.RelativeInput{
		Name:   req.Name,
		Degree: req.Degree,
		Email:  req.Email,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionCreate, "relative", relative.ID, c.ClientIP(),
		map[string]any{"name": relative.Name})

	c.JSON(http.StatusCreated, gin.H{"relative": relative})
}

// GetUserRelatives
// @Summary     List relatives
// @Tags        relatives
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Relative] "Paginated relatives"
// @Router      /relatives [get]
func (h *RelativeHandler) GetUserRelatives(c *gin.Context) {
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

	result, err := h.relativeService.GetUserRelatives(c.Request.Context(), userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetRelativeByID
// @Summary     Get relative by ID
// @Tags        relatives
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Relative ID"
// @Success     200 {object} models.Relative "Relative details"
// @Failure     404 {object} ErrorResponse "Relative not found"
// @Router      /relatives/{id} [get]
func (h *RelativeHandler) GetRelativeByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	relativeID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	relative, err := h.relativeService.GetRelativeByID(c.Request.Context(), userID, relativeID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"relative": relative})
}

// UpdateRelative
// @Summary     Update relative
// @Tags        relatives
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                true "Relative ID"
// @Param       request body UpdateRelativeRequest true "Fields to change"
// @Success     200 {object} models.Relative "Updated relative"
// @Failure     404 {object} ErrorResponse "Relative not found"
// @Router      /relatives/{id} [put]
func (h *RelativeHandler) UpdateRelative(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	relativeID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateRelativeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	relative, err := h.relativeService.UpdateRelative(c.Request.Context(), userID, relativeID, services.RelativeUpdateFields{
		Name:     req.Name,
		Degree:   req.Degree,
		Email:    req.Email,
		IsActive: req.IsActive,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionUpdate, "relative", relativeID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"relative": relative})
}

// DeleteRelative
// @Summary     Delete relative
// @Tags        relatives
// @Security    BearerAuth
// @Param       id path string true "Relative ID"
// @Success     204 "Relative deleted"
// @Failure     404 {object} ErrorResponse "Relative not found"
// @Failure     409 {object} ErrorResponse "Relative has splits"
// @Router      /relatives/{id} [delete]
func (h *RelativeHandler) DeleteRelative(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	relativeID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.relativeService.DeleteRelative(c.Request.Context(), userID, relativeID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionDelete, "relative", relativeID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}

// GetStatement returns what a relative owes for one month. Year and month
// default to the current month.
// @Summary     Relative monthly statement
// @Tags        relatives
// @Produce     json
// @Security    BearerAuth
// @Param       id    path  string true  "Relative ID"
// @Param       year  query int    false "Year"
// @Param       month query int    false "Month (1-12)"
// @Success     200 {object} services.RelativeStatement "Statement"
// @Failure     400 {object} ErrorResponse "Invalid period"
// @Failure     404 {object} ErrorResponse "Relative not found"
// @Router      /relatives/{id}/statement [get]
func (h *RelativeHandler) GetStatement(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	relativeID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	current := time.Now().UTC()
	year, month := current.Year(), int(current.Month())
	if v := c.Query("year"); v != "" {
		if year, err = strconv.Atoi(v); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid year"))
			return
		}
	}
	if v := c.Query("month"); v != "" {
		if month, err = strconv.Atoi(v); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid month"))
			return
		}
	}

	statement, err := h.relativeService.GetStatement(c.Request.Context(), userID, relativeID, year, time.Month(month))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, statement)
}
