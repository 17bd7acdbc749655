package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/errors"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/models"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/money"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/pagination"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/services"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/split"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/uuid"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer, auditService services.AuditServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, auditService: auditService}
}

// SplitRequest is one relative's share of an expense.
type SplitRequest struct {
	RelativeID string          `json:"relative_id" binding:"required,uuid"`
	Amount     decimal.Decimal `json:"amount" binding:"money" swaggertype:"string" example:"25.00"`
}

// CreateTransactionRequest represents the payload for an expense or income.
// The kind comes from the route.
type CreateTransactionRequest struct {
	PaymentMethod models.PaymentMethod  `json:"payment_method" binding:"required,payment_method"`
	PaymentPlan   models.PaymentPlan    `json:"payment_plan" binding:"omitempty,payment_plan"`
	Recurrence    models.RecurrenceType `json:"recurrence" binding:"omitempty,recurrence"`
	Installments  int                   `json:"installments" binding:"omitempty,min=1"`
	Amount        decimal.Decimal       `json:"amount" binding:"money" swaggertype:"string" example:"300.00"`
	Description   string                `json:"description" binding:"max=500"`
	PaymentDate   string                `json:"payment_date" binding:"required" example:"2026-10-05"`
	Consolidated  bool                  `json:"consolidated"`
	CategoryID    *string               `json:"category_id" binding:"omitempty,uuid"`
	AccountID     *string               `json:"account_id" binding:"omitempty,uuid"`
	CreditCardID  *string               `json:"credit_card_id" binding:"omitempty,uuid"`
	Splits        []SplitRequest        `json:"splits" binding:"omitempty,dive"`
}

// CreateTransferRequest represents the payload for moving money between two
// accounts.
type CreateTransferRequest struct {
	FromAccountID string          `json:"from_account_id" binding:"required,uuid"`
	ToAccountID   string          `json:"to_account_id" binding:"required,uuid"`
	Amount        decimal.Decimal `json:"amount" binding:"money" swaggertype:"string"`
	Description   string          `json:"description" binding:"max=500"`
	PaymentDate   string          `json:"payment_date" binding:"required"`
	Consolidated  bool            `json:"consolidated"`
}

// UpdateTransactionRequest lists the fields to change. Absent fields are left
// untouched; present fields are applied even when empty or false.
type UpdateTransactionRequest struct {
	Amount        *decimal.Decimal        `json:"amount" binding:"omitempty,money" swaggertype:"string"`
	Description   *string                 `json:"description" binding:"omitempty,max=500"`
	PaymentDate   *string                 `json:"payment_date"`
	Kind          *models.TransactionKind `json:"kind" binding:"omitempty,transaction_kind"`
	PaymentMethod *models.PaymentMethod   `json:"payment_method" binding:"omitempty,payment_method"`
	Consolidated  *bool                   `json:"consolidated"`
	CategoryID    *string                 `json:"category_id" binding:"omitempty,uuid"`
	AccountID     *string                 `json:"account_id" binding:"omitempty,uuid"`
	CreditCardID  *string                 `json:"credit_card_id" binding:"omitempty,uuid"`
	Splits        *[]SplitRequest         `json:"splits"`
	Scope         services.UpdateScope    `json:"scope" binding:"omitempty,update_scope"`
}

// ConsolidateRequest toggles whether a transaction has hit its account.
type ConsolidateRequest struct {
	Consolidated *bool `json:"consolidated" binding:"required"`
}

func toShares(reqs []SplitRequest) ([]split.Share, error) {
	shares := make([]split.Share, 0, len(reqs))
	for _, r := range reqs {
		id, err := uuid.Parse(r.RelativeID)
		if err != nil {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid relative_id")
		}
		shares = append(shares, split.Share{RelativeID: id, Amount: r.Amount})
	}
	return shares, nil
}

// CreateExpense records an expense
// @Summary     Create an expense
// @Description Single, installment or recurring expense paid by debit, cash or credit card. Credit charges are billed on the invoice of their date's cycle.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTransactionRequest true "Expense details"
// @Success     201 {object} map[string][]models.Transaction "Created occurrences"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Referenced resource not found"
// @Failure     422 {object} ErrorResponse "Invalid payment plan or split"
// @Router      /transactions/expense [post]
func (h *TransactionHandler) CreateExpense(c *gin.Context) {
	h.create(c, models.TransactionKindExpense)
}

// CreateIncome records an income
// @Summary     Create an income
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTransactionRequest true "Income details"
// @Success     201 {object} map[string][]models.Transaction "Created occurrences"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     422 {object} ErrorResponse "Invalid payment plan"
// @Router      /transactions/income [post]
func (h *TransactionHandler) CreateIncome(c *gin.Context) {
	h.create(c, models.TransactionKindIncome)
}

func (h *TransactionHandler) create(c *gin.Context, kind models.TransactionKind) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	paymentDate, err := parseDate(req.PaymentDate)
	if err != nil {
		respondWithError(c, err)
		return
	}
	shares, err := toShares(req.Splits)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if req.PaymentPlan == "" {
		req.PaymentPlan = models.PaymentPlanSingle
	}

	created, err := h.transactionService.CreateTransaction(c.Request.Context(), userID, services.TransactionInput{
		Kind:          kind,
		PaymentMethod: req.PaymentMethod,
		PaymentPlan:   req.PaymentPlan,
		Recurrence:    req.Recurrence,
		Installments:  req.Installments,
		Amount:        req.Amount,
		Description:   req.Description,
		PaymentDate:   paymentDate,
		Consolidated:  req.Consolidated,
		CategoryID:    req.CategoryID,
		AccountID:     req.AccountID,
		CreditCardID:  req.CreditCardID,
		Splits:        shares,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionCreate, "transaction", created[0].ID, c.ClientIP(),
		map[string]any{
			"kind":        kind,
			"amount":      req.Amount.StringFixed(money.Places),
			"plan":        req.PaymentPlan,
			"occurrences": len(created),
		})

	c.JSON(http.StatusCreated, gin.H{"transactions": created})
}

// CreateTransfer moves money between two accounts
// @Summary     Create a transfer
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTransferRequest true "Transfer details"
// @Success     201 {object} models.Transaction "Transfer created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     422 {object} ErrorResponse "Same source and destination"
// @Router      /transactions/transfer [post]
func (h *TransactionHandler) CreateTransfer(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	paymentDate, err := parseDate(req.PaymentDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transfer, err := h.transactionService.CreateTransfer(c.Request.Context(), userID, services.TransferInput{
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		Amount:        req.Amount,
		Description:   req.Description,
		PaymentDate:   paymentDate,
		Consolidated:  req.Consolidated,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionCreate, "transaction", transfer.ID, c.ClientIP(),
		map[string]any{"kind": models.TransactionKindTransfer, "amount": req.Amount.StringFixed(money.Places)})

	c.JSON(http.StatusCreated, gin.H{"transaction": transfer})
}

// GetUserTransactions lists transactions with optional filters
// @Summary     List transactions
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       page           query int    false "Page number (default 1)"
// @Param       page_size      query int    false "Items per page (default 20, max 100)"
// @Param       from_date      query string false "Start date (YYYY-MM-DD)"
// @Param       to_date        query string false "End date (YYYY-MM-DD)"
// @Param       kind           query string false "expense, income or transfer"
// @Param       payment_method query string false "debit, credit or cash"
// @Param       category_id    query string false "Category ID"
// @Param       account_id     query string false "Account ID"
// @Param       invoice_id     query string false "Invoice ID"
// @Param       repetition_id  query string false "Repetition group ID"
// @Param       consolidated   query bool   false "Consolidation state"
// @Param       min_amount     query string false "Minimum amount"
// @Param       max_amount     query string false "Maximum amount"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Router      /transactions [get]
func (h *TransactionHandler) GetUserTransactions(c *gin.Context) {
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

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.GetUserTransactions(c.Request.Context(), userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func parseTransactionFilter(c *gin.Context) (services.TransactionFilter, error) {
	var filter services.TransactionFilter

	if v := c.Query("from_date"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return filter, err
		}
		filter.FromDate = &t
	}
	if v := c.Query("to_date"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return filter, err
		}
		filter.ToDate = &t
	}

	if v := c.Query("kind"); v != "" {
		kind := models.TransactionKind(v)
		switch kind {
		case models.TransactionKindExpense, models.TransactionKindIncome, models.TransactionKindTransfer:
			filter.Kind = &kind
		default:
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid kind, must be expense, income or transfer")
		}
	}
	if v := c.Query("payment_method"); v != "" {
		method := models.PaymentMethod(v)
		switch method {
		case models.PaymentMethodDebit, models.PaymentMethodCredit, models.PaymentMethodCash:
			filter.PaymentMethod = &method
		default:
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid payment_method")
		}
	}

	ids := []struct {
		param string
		dest  **string
	}{
		{"category_id", &filter.CategoryID},
		{"account_id", &filter.AccountID},
		{"invoice_id", &filter.InvoiceID},
		{"repetition_id", &filter.RepetitionID},
	}
	for _, f := range ids {
		v := c.Query(f.param)
		id, err := parseOptionalID(f.param, &v)
		if err != nil {
			return filter, err
		}
		*f.dest = id
	}

	if v := c.Query("consolidated"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid consolidated")
		}
		filter.Consolidated = &b
	}

	if v := c.Query("min_amount"); v != "" {
		amt, err := money.Parse(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid min_amount")
		}
		filter.MinAmount = &amt
	}
	if v := c.Query("max_amount"); v != "" {
		amt, err := money.Parse(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid max_amount")
		}
		filter.MaxAmount = &amt
	}

	return filter, nil
}

// GetTransactionByID returns one transaction with its splits
// @Summary     Get transaction by ID
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} map[string]interface{} "Transaction and splits"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransactionByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetTransactionByID(c.Request.Context(), userID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	splits, err := h.transactionService.GetTransactionSplits(c.Request.Context(), userID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction, "splits": splits})
}

// UpdateTransaction edits a transaction, or it and the following occurrences
// of its group
// @Summary     Update transaction
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                   true "Transaction ID"
// @Param       request body UpdateTransactionRequest true "Fields to change"
// @Success     200 {object} map[string][]models.Transaction "Updated occurrences"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     409 {object} ErrorResponse "Transaction on a paid invoice"
// @Failure     422 {object} ErrorResponse "Invalid change"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	fields := services.TransactionUpdateFields{
		Amount:        req.Amount,
		Description:   req.Description,
		Kind:          req.Kind,
		PaymentMethod: req.PaymentMethod,
		Consolidated:  req.Consolidated,
		CategoryID:    req.CategoryID,
		AccountID:     req.AccountID,
		CreditCardID:  req.CreditCardID,
		Scope:         req.Scope,
	}
	if req.PaymentDate != nil {
		date, err := parseDate(*req.PaymentDate)
		if err != nil {
			respondWithError(c, err)
			return
		}
		fields.PaymentDate = &date
	}
	if req.Splits != nil {
		shares, err := toShares(*req.Splits)
		if err != nil {
			respondWithError(c, err)
			return
		}
		fields.Splits = &shares
	}

	updated, err := h.transactionService.UpdateTransaction(c.Request.Context(), userID, transactionID, fields)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionUpdate, "transaction", transactionID, c.ClientIP(),
		map[string]any{"scope": req.Scope, "occurrences": len(updated)})

	c.JSON(http.StatusOK, gin.H{"transactions": updated})
}

// ConsolidateTransaction marks a debit, cash or transfer transaction as
// having hit its account, or undoes that
// @Summary     Consolidate transaction
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string             true "Transaction ID"
// @Param       request body ConsolidateRequest true "Consolidation state"
// @Success     200 {object} models.Transaction "Updated transaction"
// @Failure     409 {object} ErrorResponse "Transaction on a paid invoice"
// @Failure     422 {object} ErrorResponse "Credit charges are consolidated by settlement"
// @Router      /transactions/{id}/consolidate [patch]
func (h *TransactionHandler) ConsolidateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ConsolidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	transaction, err := h.transactionService.ConsolidateTransaction(c.Request.Context(), userID, transactionID, *req.Consolidated)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionConsolidate, "transaction", transactionID, c.ClientIP(),
		map[string]any{"consolidated": *req.Consolidated})

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// DeleteTransaction deletes a transaction. Deleting the first remaining
// occurrence of a group deletes the whole group; a later occurrence deletes
// it and every following one
// @Summary     Delete transaction
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} map[string][]string "Deleted transaction IDs"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     409 {object} ErrorResponse "Transaction on a paid invoice"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	deleted, err := h.transactionService.DeleteTransaction(c.Request.Context(), userID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionDelete, "transaction", transactionID, c.ClientIP(),
		map[string]any{"deleted": len(deleted)})

	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}
