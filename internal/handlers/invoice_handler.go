package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/services"
)

// InvoiceHandler exposes invoices and their settlement.
type InvoiceHandler struct {
	invoiceService    services.InvoiceServicer
	settlementService services.SettlementServicer
	auditService      services.AuditServicer
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(invoiceService services.InvoiceServicer, settlementService services.SettlementServicer, auditService services.AuditServicer) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService, settlementService: settlementService, auditService: auditService}
}

// SettleInvoiceRequest names the account that pays the invoice.
type SettleInvoiceRequest struct {
	AccountID string `json:"account_id" binding:"required,uuid"`
}

// GetInvoiceByID returns an invoice with its transactions
// @Summary     Get invoice
// @Tags        invoices
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Invoice ID"
// @Success     200 {object} map[string]interface{} "Invoice and its transactions"
// @Failure     403 {object} ErrorResponse "Invoice of another user's card"
// @Failure     404 {object} ErrorResponse "Invoice not found"
// @Router      /invoices/{id} [get]
func (h *InvoiceHandler) GetInvoiceByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	invoiceID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	invoice, err := h.invoiceService.GetInvoiceByID(c.Request.Context(), userID, invoiceID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	transactions, err := h.invoiceService.GetInvoiceTransactions(c.Request.Context(), userID, invoiceID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invoice": invoice, "transactions": transactions})
}

// SettleInvoice pays an invoice from one of the user's accounts
// @Summary     Settle invoice
// @Description Consolidates every charge on the invoice, posts the payment on the account and restores the card limit.
// @Tags        invoices
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string               true "Invoice ID"
// @Param       request body SettleInvoiceRequest true "Paying account"
// @Success     200 {object} services.SettlementReceipt "Settlement receipt"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Invoice of another user's card"
// @Failure     404 {object} ErrorResponse "Invoice, account or charges not found"
// @Failure     409 {object} ErrorResponse "Invoice already paid"
// @Router      /invoices/{id}/settle [post]
func (h *InvoiceHandler) SettleInvoice(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	invoiceID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SettleInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	receipt, err := h.settlementService.SettleInvoice(c.Request.Context(), userID, invoiceID, req.AccountID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionSettle, "invoice", invoiceID, c.ClientIP(),
		map[string]any{"account_id": req.AccountID, "amount": receipt.Amount.StringFixed(2)})

	c.JSON(http.StatusOK, gin.H{"receipt": receipt})
}

// SweepDueOccurrences counts due pending recurring charges against their cards
// @Summary     Apply due recurring charges
// @Tags        operator
// @Produce     json
// @Param       X-API-Key header string true "Operator API key"
// @Success     200 {object} map[string]int "Number of activated charges"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Router      /operator/sweep [post]
func (h *InvoiceHandler) SweepDueOccurrences(c *gin.Context) {
	activated, err := h.invoiceService.ActivateDueOccurrences(c.Request.Context(), time.Now())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activated": activated})
}
