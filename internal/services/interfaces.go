package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/models"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/pagination"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/split"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(ctx context.Context, email, fullName string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// AccountInput holds the fields of a new account.
type AccountInput struct {
	Name           string
	Kind           models.AccountKind
	Description    string
	Icon           string
	InitialBalance decimal.Decimal
}

// AccountUpdateFields lists the editable account fields; nil means unchanged.
type AccountUpdateFields struct {
	Name        *string
	Kind        *models.AccountKind
	Description *string
	Icon        *string
	IsActive    *bool
}

// AccountServicer defines the contract for account-related business logic.
type AccountServicer interface {
	CreateAccount(ctx context.Context, userID string, input AccountInput) (*models.Account, error)
	GetUserAccounts(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	GetAccountByID(ctx context.Context, userID, accountID string) (*models.Account, error)
	UpdateAccount(ctx context.Context, userID, accountID string, fields AccountUpdateFields) (*models.Account, error)
	DeleteAccount(ctx context.Context, userID, accountID string) error
}

// CreditCardInput holds the fields of a new credit card.
type CreditCardInput struct {
	Name        string
	Icon        string
	CreditLimit decimal.Decimal
	ClosingDay  int
	DueDay      int
}

// CreditCardUpdateFields lists the editable card fields; nil means unchanged.
type CreditCardUpdateFields struct {
	Name        *string
	Icon        *string
	IsActive    *bool
	ClosingDay  *int
	DueDay      *int
	CreditLimit *decimal.Decimal
}

// CreditCardServicer defines the contract for credit card business logic.
type CreditCardServicer interface {
	CreateCreditCard(ctx context.Context, userID string, input CreditCardInput) (*models.CreditCard, error)
	GetUserCreditCards(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.PageResponse[models.CreditCard], error)
	GetCreditCardByID(ctx context.Context, userID, cardID string) (*models.CreditCard, error)
	UpdateCreditCard(ctx context.Context, userID, cardID string, fields CreditCardUpdateFields) (*models.CreditCard, error)
	DeleteCreditCard(ctx context.Context, userID, cardID string) error
}

// InvoiceServicer resolves billing cycles and exposes invoices.
type InvoiceServicer interface {
	// ResolveInvoice runs inside the caller's database transaction.
	ResolveInvoice(tx *gorm.DB, userID, cardID string, target time.Time) (*models.Invoice, error)
	ActivateDueOccurrences(ctx context.Context, at time.Time) (int, error)
	GetCardInvoices(ctx context.Context, userID, cardID string, page pagination.PageRequest) (*pagination.PageResponse[models.Invoice], error)
	GetInvoiceByID(ctx context.Context, userID, invoiceID string) (*models.Invoice, error)
	GetInvoiceTransactions(ctx context.Context, userID, invoiceID string) ([]models.Transaction, error)
}

// SettlementReceipt describes a paid invoice. Deferred counts the pending
// recurring charges moved to the next open cycle.
type SettlementReceipt struct {
	Invoice      models.Invoice     `json:"invoice"`
	Payment      models.Transaction `json:"payment"`
	Amount       decimal.Decimal    `json:"amount"`
	Consolidated int                `json:"consolidated"`
	Deferred     int                `json:"deferred"`
}

// SettlementServicer closes invoices.
type SettlementServicer interface {
	SettleInvoice(ctx context.Context, userID, invoiceID, accountID string) (*SettlementReceipt, error)
}

// TransactionInput describes an expense or income and its payment plan.
// CreditCardID is required for credit, AccountID otherwise.
type TransactionInput struct {
	Kind          models.TransactionKind
	PaymentMethod models.PaymentMethod
	PaymentPlan   models.PaymentPlan
	Recurrence    models.RecurrenceType
	Installments  int
	Amount        decimal.Decimal
	Description   string
	PaymentDate   time.Time
	Consolidated  bool
	CategoryID    *string
	AccountID     *string
	CreditCardID  *string
	Splits        []split.Share
}

// TransferInput describes a movement between two accounts of the same user.
type TransferInput struct {
	FromAccountID string
	ToAccountID   string
	Amount        decimal.Decimal
	Description   string
	PaymentDate   time.Time
	Consolidated  bool
}

// UpdateScope selects which occurrences of a group an edit touches.
type UpdateScope string

const (
	ScopeThis      UpdateScope = "this"
	ScopeFollowing UpdateScope = "following"
)

// TransactionUpdateFields lists the editable transaction fields. A nil field
// is left unchanged; a set field is applied even when it holds a zero value.
type TransactionUpdateFields struct {
	Amount        *decimal.Decimal
	Description   *string
	PaymentDate   *time.Time
	Kind          *models.TransactionKind
	PaymentMethod *models.PaymentMethod
	Consolidated  *bool
	CategoryID    *string
	AccountID     *string
	CreditCardID  *string
	Splits        *[]split.Share
	Scope         UpdateScope
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate      *time.Time
	ToDate        *time.Time
	Kind          *models.TransactionKind
	PaymentMethod *models.PaymentMethod
	CategoryID    *string
	AccountID     *string
	InvoiceID     *string
	RepetitionID  *string
	Consolidated  *bool
	MinAmount     *decimal.Decimal
	MaxAmount     *decimal.Decimal
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(ctx context.Context, userID string, input TransactionInput) ([]models.Transaction, error)
	CreateTransfer(ctx context.Context, userID string, input TransferInput) (*models.Transaction, error)
	GetUserTransactions(ctx context.Context, userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(ctx context.Context, userID, transactionID string) (*models.Transaction, error)
	GetTransactionSplits(ctx context.Context, userID, transactionID string) ([]models.Split, error)
	UpdateTransaction(ctx context.Context, userID, transactionID string, fields TransactionUpdateFields) ([]models.Transaction, error)
	ConsolidateTransaction(ctx context.Context, userID, transactionID string, consolidated bool) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, transactionID string) ([]string, error)
}

// CategoryInput holds the fields of a new category.
type CategoryInput struct {
	Name            string
	Kind            models.CategoryKind
	TransactionKind models.TransactionKind
	Description     string
	Icon            string
}

// CategoryUpdateFields lists the editable category fields; nil means unchanged.
type CategoryUpdateFields struct {
	Name        *string
	Kind        *models.CategoryKind
	Description *string
	Icon        *string
	IsActive    *bool
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(ctx context.Context, userID string, input CategoryInput) (*models.Category, error)
	GetUserCategories(ctx context.Context, userID string, kind *models.TransactionKind, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(ctx context.Context, userID, categoryID string) (*models.Category, error)
	UpdateCategory(ctx context.Context, userID, categoryID string, fields CategoryUpdateFields) (*models.Category, error)
	DeleteCategory(ctx context.Context, userID, categoryID string) error
}

// RelativeInput holds the fields of a new relative.
type RelativeInput struct {
	Name   string
	Degree string
	Email  string
}

// RelativeUpdateFields lists the editable relative fields; nil means unchanged.
type RelativeUpdateFields struct {
	Name     *string
	Degree   *string
	Email    *string
	IsActive *bool
}

// StatementLine is one split transaction on a relative's statement.
type StatementLine struct {
	TransactionID     string          `json:"transaction_id"`
	Description       string          `json:"description"`
	PaymentDate       time.Time       `json:"payment_date"`
	Installment       string          `json:"installment"`
	TransactionAmount decimal.Decimal `json:"transaction_amount"`
	ShareAmount       decimal.Decimal `json:"share_amount"`
}

// RelativeStatement is what a relative owes for one month.
type RelativeStatement struct {
	Relative          models.Relative `json:"relative"`
	Year              int             `json:"year"`
	Month             int             `json:"month"`
	Lines             []StatementLine `json:"lines"`
	TotalTransactions decimal.Decimal `json:"total_transactions"`
	TotalShare        decimal.Decimal `json:"total_share"`
}

// RelativeServicer defines the contract for relative-related business logic.
type RelativeServicer interface {
	CreateRelative(ctx context.Context, userID string, input RelativeInput) (*models.Relative, error)
	GetUserRelatives(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Relative], error)
	GetRelativeByID(ctx context.Context, userID, relativeID string) (*models.Relative, error)
	UpdateRelative(ctx context.Context, userID, relativeID string, fields RelativeUpdateFields) (*models.Relative, error)
	DeleteRelative(ctx context.Context, userID, relativeID string) error
	GetStatement(ctx context.Context, userID, relativeID string, year int, month time.Month) (*RelativeStatement, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]any)
}
