package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/pagination"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/services"
)

// CreditCardHandler handles credit card requests and lists card invoices.
type CreditCardHandler struct {
	cardService    services.CreditCardServicer
	invoiceService services.InvoiceServicer
	auditService   services.AuditServicer
}

// NewCreditCardHandler creates a new CreditCardHandler.
func NewCreditCardHandler(cardService services.CreditCardServicer, invoiceService services.InvoiceServicer, auditService services.AuditServicer) *CreditCardHandler {
	return &CreditCardHandler{cardService: cardService, invoiceService: invoiceService, auditService: auditService}
}

// CreateCreditCardRequest represents the request payload for creating a card.
type CreateCreditCardRequest struct {
	Name        string          `json:"name" binding:"required,min=1,max=100"`
	Icon        string          `json:"icon" binding:"max=50"`
	CreditLimit decimal.Decimal `json:"credit_limit" binding:"money" swaggertype:"string" example:"5000.00"`
	ClosingDay  int             `json:"closing_day" binding:"required,min=1,max=31"`
	DueDay      int             `json:"due_day" binding:"required,min=1,max=31"`
}

// UpdateCreditCardRequest represents the request payload for updating a card.
type UpdateCreditCardRequest struct {
	Name        *string          `json:"name" binding:"omitempty,min=1,max=100"`
	Icon        *string          `json:"icon" binding:"omitempty,max=50"`
	IsActive    *bool            `json:"is_active"`
	ClosingDay  *int             `json:"closing_day" binding:"omitempty,min=1,max=31"`
	DueDay      *int             `json:"due_day" binding:"omitempty,min=1,max=31"`
	CreditLimit *decimal.Decimal `json:"credit_limit" binding:"omitempty,money" swaggertype:"string"`
}

// CreateCreditCard handles the creation of a new credit card
// @Summary     Create a credit card
// @Description The available limit starts at the full credit limit. Invoices are generated on the first charge.
// @Tags        credit-cards
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateCreditCardRequest true "Card details"
// @Success     201 {object} models.CreditCard "Card created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Duplicate name"
// @Failure     422 {object} ErrorResponse "Closing and due day are equal"
// @Router      /credit-cards [post]
func (h *CreditCardHandler) CreateCreditCard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateCreditCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	card, err := h.cardService.CreateCreditCard(c.Request.Context(), userID, services.CreditCardInput{
		Name:        req.Name,
		Icon:        req.Icon,
		CreditLimit: req.CreditLimit,
		ClosingDay:  req.ClosingDay,
		DueDay:      req.DueDay,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionCreate, "credit_card", card.ID, c.ClientIP(),
		map[string]any{"name": card.Name, "credit_limit": card.CreditLimit.StringFixed(2)})

	c.JSON(http.StatusCreated, gin.H{"credit_card": card})
}

// GetUserCreditCards lists the cards of the authenticated user
// @Summary     Get user credit cards
// @Tags        credit-cards
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.CreditCard] "Paginated cards"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /credit-cards [get]
func (h *CreditCardHandler) GetUserCreditCards(c *gin.Context) {
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

	result, err := h.cardService.GetUserCreditCards(c.Request.Context(), userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetCreditCardByID returns one card
// @Summary     Get credit card by ID
// @Tags        credit-cards
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Card ID"
// @Success     200 {object} models.CreditCard "Card details"
// @Failure     404 {object} ErrorResponse "Card not found"
// @Router      /credit-cards/{id} [get]
func (h *CreditCardHandler) GetCreditCardByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	cardID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	card, err := h.cardService.GetCreditCardByID(c.Request.Context(), userID, cardID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"credit_card": card})
}

// UpdateCreditCard changes card fields. A new credit limit shifts the
// available limit by the same delta.
// @Summary     Update credit card
// @Tags        credit-cards
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Card ID"
// @Param       request body UpdateCreditCardRequest true "Fields to change"
// @Success     200 {object} models.CreditCard "Updated card"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Card not found"
// @Failure     422 {object} ErrorResponse "Closing and due day are equal"
// @Router      /credit-cards/{id} [put]
func (h *CreditCardHandler) UpdateCreditCard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	cardID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateCreditCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	card, err := h.cardService.UpdateCreditCard(c.Request.Context(), userID, cardID, services.CreditCardUpdateFields{
		Name:        req.Name,
		Icon:        req.Icon,
		IsActive:    req.IsActive,
		ClosingDay:  req.ClosingDay,
		DueDay:      req.DueDay,
		CreditLimit: req.CreditLimit,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	var changes map[string]any
	if req.CreditLimit != nil {
		changes = map[string]any{"credit_limit": req.CreditLimit.StringFixed(2)}
	}
	h.auditService.Log(userID, services.AuditActionUpdate, "credit_card", cardID, c.ClientIP(), changes)

	c.JSON(http.StatusOK, gin.H{"credit_card": card})
}

// DeleteCreditCard removes a card that has no billed transactions
// @Summary     Delete credit card
// @Tags        credit-cards
// @Security    BearerAuth
// @Param       id path string true "Card ID"
// @Success     204 "Card deleted"
// @Failure     404 {object} ErrorResponse "Card not found"
// @Failure     409 {object} ErrorResponse "Card has billed transactions"
// @Router      /credit-cards/{id} [delete]
func (h *CreditCardHandler) DeleteCreditCard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	cardID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.cardService.DeleteCreditCard(c.Request.Context(), userID, cardID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionDelete, "credit_card", cardID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}

// GetCardInvoices lists a card's invoices, oldest first
// @Summary     List card invoices
// @Tags        invoices
// @Produce     json
// @Security    BearerAuth
// @Param       id        path  string true  "Card ID"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Invoice] "Paginated invoices"
// @Failure     404 {object} ErrorResponse "Card not found"
// @Router      /credit-cards/{id}/invoices [get]
func (h *CreditCardHandler) GetCardInvoices(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	cardID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	result, err := h.invoiceService.GetCardInvoices(c.Request.Context(), userID, cardID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
