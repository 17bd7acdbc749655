package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/models"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/pagination"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/services"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/uuid"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/validator"
)

// --- mock services ---

type mockUserService struct {
	getUserByIDFn func(id string) (*models.User, error)
	deleteUserFn  func(id string) error
}

func (m *mockUserService) CreateUser(_ context.Context, email, fullName string) (*models.User, error) {
	return &models.User{Base: models.Base{ID: uuid.New()}, Email: email, FullName: fullName}, nil
}

func (m *mockUserService) GetUserByID(_ context.Context, id string) (*models.User, error) {
	if m.getUserByIDFn != nil {
		return m.getUserByIDFn(id)
	}
	return &models.User{Base: models.Base{ID: id}}, nil
}

func (m *mockUserService) DeleteUser(_ context.Context, id string) error {
	if m.deleteUserFn != nil {
		return m.deleteUserFn(id)
	}
	return nil
}

type mockAccountService struct {
	createAccountFn   func(userID string, input services.AccountInput) (*models.Account, error)
	getUserAccountsFn func(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	getAccountByIDFn  func(userID, accountID string) (*models.Account, error)
	updateAccountFn   func(userID, accountID string, fields services.AccountUpdateFields) (*models.Account, error)
	deleteAccountFn   func(userID, accountID string) error
}

func (m *mockAccountService) CreateAccount(_ context.Context, userID string, input services.AccountInput) (*models.Account, error) {
	if m.createAccountFn != nil {
		return m.createAccountFn(userID, input)
	}
	return &models.Account{}, nil
}

func (m *mockAccountService) GetUserAccounts(_ context.Context, userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
	if m.getUserAccountsFn != nil {
		return m.getUserAccountsFn(userID, page)
	}
	page.Defaults()
	resp := pagination.NewPageResponse([]models.Account{}, page.Page, page.PageSize, 0)
	return &resp, nil
}

func (m *mockAccountService) GetAccountByID(_ context.Context, userID, accountID string) (*models.Account, error) {
	if m.getAccountByIDFn != nil {
		return m.getAccountByIDFn(userID, accountID)
	}
	return &models.Account{Base: models.Base{ID: accountID}, UserID: userID}, nil
}

func (m *mockAccountService) UpdateAccount(_ context.Context, userID, accountID string, fields services.AccountUpdateFields) (*models.Account, error) {
	if m.updateAccountFn != nil {
		return m.updateAccountFn(userID, accountID, fields)
	}
	return &models.Account{Base: models.Base{ID: accountID}, UserID: userID}, nil
}

func (m *mockAccountService) DeleteAccount(_ context.Context, userID, accountID string) error {
	if m.deleteAccountFn != nil {
		return m.deleteAccountFn(userID, accountID)
	}
	return nil
}

type mockCreditCardService struct {
	createCreditCardFn  func(userID string, input services.CreditCardInput) (*models.CreditCard, error)
	getCreditCardByIDFn func(userID, cardID string) (*models.CreditCard, error)
	updateCreditCardFn  func(userID, cardID string, fields services.CreditCardUpdateFields) (*models.CreditCard, error)
	deleteCreditCardFn  func(userID, cardID string) error
}

func (m *mockCreditCardService) CreateCreditCard(_ context.Context, userID string, input services.CreditCardInput) (*models.CreditCard, error) {
	if m.createCreditCardFn != nil {
		return m.createCreditCardFn(userID, input)
	}
	return &models.CreditCard{}, nil
}

func (m *mockCreditCardService) GetUserCreditCards(_ context.Context, _ string, page pagination.PageRequest) (*pagination.PageResponse[models.CreditCard], error) {
	page.Defaults()
	resp := pagination.NewPageResponse([]models.CreditCard{}, page.Page, page.PageSize, 0)
	return &resp, nil
}

func (m *mockCreditCardService) GetCreditCardByID(_ context.Context, userID, cardID string) (*models.CreditCard, error) {
	if m.getCreditCardByIDFn != nil {
		return m.getCreditCardByIDFn(userID, cardID)
	}
	return &models.CreditCard{Base: models.Base{ID: cardID}, UserID: userID}, nil
}

func (m *mockCreditCardService) UpdateCreditCard(_ context.Context, userID, cardID string, fields services.CreditCardUpdateFields) (*models.CreditCard, error) {
	if m.updateCreditCardFn != nil {
		return m.updateCreditCardFn(userID, cardID, fields)
	}
	return &models.CreditCard{Base: models.Base{ID: cardID}, UserID: userID}, nil
}

func (m *mockCreditCardService) DeleteCreditCard(_ context.Context, userID, cardID string) error {
	if m.deleteCreditCardFn != nil {
		return m.deleteCreditCardFn(userID, cardID)
	}
	return nil
}

type mockInvoiceService struct {
	activateDueFn          func(at time.Time) (int, error)
	getCardInvoicesFn      func(userID, cardID string, page pagination.PageRequest) (*pagination.PageResponse[models.Invoice], error)
	getInvoiceByIDFn       func(userID, invoiceID string) (*models.Invoice, error)
	getInvoiceTransactions func(userID, invoiceID string) ([]models.Transaction, error)
}

func (m *mockInvoiceService) ResolveInvoice(_ *gorm.DB, _, _ string, _ time.Time) (*models.Invoice, error) {
	return &models.Invoice{}, nil
}

func (m *mockInvoiceService) ActivateDueOccurrences(_ context.Context, at time.Time) (int, error) {
	if m.activateDueFn != nil {
		return m.activateDueFn(at)
	}
	return 0, nil
}

func (m *mockInvoiceService) GetCardInvoices(_ context.Context, userID, cardID string, page pagination.PageRequest) (*pagination.PageResponse[models.Invoice], error) {
	if m.getCardInvoicesFn != nil {
		return m.getCardInvoicesFn(userID, cardID, page)
	}
	page.Defaults()
	resp := pagination.NewPageResponse([]models.Invoice{}, page.Page, page.PageSize, 0)
	return &resp, nil
}

func (m *mockInvoiceService) GetInvoiceByID(_ context.Context, userID, invoiceID string) (*models.Invoice, error) {
	if m.getInvoiceByIDFn != nil {
		return m.getInvoiceByIDFn(userID, invoiceID)
	}
	return &models.Invoice{Base: models.Base{ID: invoiceID}}, nil
}

func (m *mockInvoiceService) GetInvoiceTransactions(_ context.Context, userID, invoiceID string) ([]models.Transaction, error) {
	if m.getInvoiceTransactions != nil {
		return m.getInvoiceTransactions(userID, invoiceID)
	}
	return []models.Transaction{}, nil
}

type mockSettlementService struct {
	settleInvoiceFn func(userID, invoiceID, accountID string) (*services.SettlementReceipt, error)
}

func (m *mockSettlementService) SettleInvoice(_ context.Context, userID, invoiceID, accountID string) (*services.SettlementReceipt, error) {
	if m.settleInvoiceFn != nil {
		return m.settleInvoiceFn(userID, invoiceID, accountID)
	}
	return &services.SettlementReceipt{}, nil
}

type mockTransactionService struct {
	createTransactionFn      func(userID string, input services.TransactionInput) ([]models.Transaction, error)
	createTransferFn         func(userID string, input services.TransferInput) (*models.Transaction, error)
	getUserTransactionsFn    func(userID string, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	getTransactionByIDFn     func(userID, transactionID string) (*models.Transaction, error)
	getTransactionSplitsFn   func(userID, transactionID string) ([]models.Split, error)
	updateTransactionFn      func(userID, transactionID string, fields services.TransactionUpdateFields) ([]models.Transaction, error)
	consolidateTransactionFn func(userID, transactionID string, consolidated bool) (*models.Transaction, error)
	deleteTransactionFn      func(userID, transactionID string) ([]string, error)
}

func (m *mockTransactionService) CreateTransaction(_ context.Context, userID string, input services.TransactionInput) ([]models.Transaction, error) {
	if m.createTransactionFn != nil {
		return m.createTransactionFn(userID, input)
	}
	return []models.Transaction{{Base: models.Base{ID: uuid.New()}}}, nil
}

func (m *mockTransactionService) CreateTransfer(_ context.Context, userID string, input services.TransferInput) (*models.Transaction, error) {
	if m.createTransferFn != nil {
		return m.createTransferFn(userID, input)
	}
	return &models.Transaction{Base: models.Base{ID: uuid.New()}}, nil
}

func (m *mockTransactionService) GetUserTransactions(_ context.Context, userID string, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if m.getUserTransactionsFn != nil {
		return m.getUserTransactionsFn(userID, page, filter)
	}
	page.Defaults()
	resp := pagination.NewPageResponse([]models.Transaction{}, page.Page, page.PageSize, 0)
	return &resp, nil
}

func (m *mockTransactionService) GetTransactionByID(_ context.Context, userID, transactionID string) (*models.Transaction, error) {
	if m.getTransactionByIDFn != nil {
		return m.getTransactionByIDFn(userID, transactionID)
	}
	return &models.Transaction{Base: models.Base{ID: transactionID}, UserID: userID}, nil
}

func (m *mockTransactionService) GetTransactionSplits(_ context.Context, userID, transactionID string) ([]models.Split, error) {
	if m.getTransactionSplitsFn != nil {
		return m.getTransactionSplitsFn(userID, transactionID)
	}
	return []models.Split{}, nil
}

func (m *mockTransactionService) UpdateTransaction(_ context.Context, userID, transactionID string, fields services.TransactionUpdateFields) ([]models.Transaction, error) {
	if m.updateTransactionFn != nil {
		return m.updateTransactionFn(userID, transactionID, fields)
	}
	return []models.Transaction{{Base: models.Base{ID: transactionID}}}, nil
}

func (m *mockTransactionService) ConsolidateTransaction(_ context.Context, userID, transactionID string, consolidated bool) (*models.Transaction, error) {
	if m.consolidateTransactionFn != nil {
		return m.consolidateTransactionFn(userID, transactionID, consolidated)
	}
	return &models.Transaction{Base: models.Base{ID: transactionID}, Consolidated: consolidated}, nil
}

func (m *mockTransactionService) DeleteTransaction(_ context.Context, userID, transactionID string) ([]string, error) {
	if m.deleteTransactionFn != nil {
		return m.deleteTransactionFn(userID, transactionID)
	}
	return []string{transactionID}, nil
}

type mockCategoryService struct {
	createCategoryFn    func(userID string, input services.CategoryInput) (*models.Category, error)
	getUserCategoriesFn func(userID string, kind *models.TransactionKind, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	deleteCategoryFn    func(userID, categoryID string) error
}

func (m *mockCategoryService) CreateCategory(_ context.Context, userID string, input services.CategoryInput) (*models.Category, error) {
	if m.createCategoryFn != nil {
		return m.createCategoryFn(userID, input)
	}
	return &models.Category{}, nil
}

func (m *mockCategoryService) GetUserCategories(_ context.Context, userID string, kind *models.TransactionKind, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	if m.getUserCategoriesFn != nil {
		return m.getUserCategoriesFn(userID, kind, page)
	}
	page.Defaults()
	resp := pagination.NewPageResponse([]models.Category{}, page.Page, page.PageSize, 0)
	return &resp, nil
}

func (m *mockCategoryService) GetCategoryByID(_ context.Context, userID, categoryID string) (*models.Category, error) {
	return &models.Category{Base: models.Base{ID: categoryID}, UserID: userID}, nil
}

func (m *mockCategoryService) UpdateCategory(_ context.Context, userID, categoryID string, _ services.CategoryUpdateFields) (*models.Category, error) {
	return &models.Category{Base: models.Base{ID: categoryID}, UserID: userID}, nil
}

func (m *mockCategoryService) DeleteCategory(_ context.Context, userID, categoryID string) error {
	if m.deleteCategoryFn != nil {
		return m.deleteCategoryFn(userID, categoryID)
	}
	return nil
}

type mockRelativeService struct {
	createRelativeFn func(userID string, input services.RelativeInput) (*models.Relative, error)
	getStatementFn   func(userID, relativeID string, year int, month time.Month) (*services.RelativeStatement, error)
}

func (m *mockRelativeService) CreateRelative(_ context.Context, userID string, input services.RelativeInput) (*models.Relative, error) {
	if m.createRelativeFn != nil {
		return m.createRelativeFn(userID, input)
	}
	return &models.Relative{}, nil
}

func (m *mockRelativeService) GetUserRelatives(_ context.Context, _ string, page pagination.PageRequest) (*pagination.PageResponse[models.Relative], error) {
	page.Defaults()
	resp := pagination.NewPageResponse([]models.Relative{}, page.Page, page.PageSize, 0)
	return &resp, nil
}

func (m *mockRelativeService) GetRelativeByID(_ context.Context, userID, relativeID string) (*models.Relative, error) {
	return &models.Relative{Base: models.Base{ID: relativeID}, UserID: userID}, nil
}

func (m *mockRelativeService) UpdateRelative(_ context.Context, userID, relativeID string, _ services.RelativeUpdateFields) (*models.Relative, error) {
	return &models.Relative{Base: models.Base{ID: relativeID}, UserID: userID}, nil
}

func (m *mockRelativeService) DeleteRelative(_ context.Context, _, _ string) error {
	return nil
}

func (m *mockRelativeService) GetStatement(_ context.Context, userID, relativeID string, year int, month time.Month) (*services.RelativeStatement, error) {
	if m.getStatementFn != nil {
		return m.getStatementFn(userID, relativeID, year, month)
	}
	return &services.RelativeStatement{Year: year, Month: int(month)}, nil
}

type auditEntry struct {
	userID, action, resourceType, resourceID string
	changes                                  map[string]any
}

type mockAuditService struct {
	entries []auditEntry
}

func (m *mockAuditService) Log(userID, action, resourceType, resourceID, _ string, changes map[string]any) {
	m.entries = append(m.entries, auditEntry{userID, action, resourceType, resourceID, changes})
}

// --- test helpers ---

var testUserID = uuid.New()

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

func injectUserID(uid string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", uid)
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}
