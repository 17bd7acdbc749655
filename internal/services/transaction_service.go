package services

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/errors"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/events"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/logger"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/models"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/money"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/pagination"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/plan"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/split"

	"gorm.io/gorm"
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	db        *gorm.DB
	invoices  InvoiceServicer
	publisher events.Publisher
	policy    plan.Policy
	ledger    ledgerAccountant
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, invoices InvoiceServicer, publisher events.Publisher, policy plan.Policy) TransactionServicer {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &transactionService{
		db:        db,
		invoices:  invoices,
		publisher: publisher,
		policy:    policy,
	}
}

// CreateTransaction records an expense or income. Installment and recurring
// plans are expanded into one transaction per occurrence, all grouped under a
// new Repetition. Either every occurrence is written with its splits and
// ledger effects, or nothing is.
func (s *transactionService) CreateTransaction(ctx context.Context, userID string, input TransactionInput) ([]models.Transaction, error) {
	if input.PaymentPlan == "" {
		input.PaymentPlan = models.PaymentPlanSingle
	}
	if input.PaymentDate.IsZero() {
		input.PaymentDate = today()
	}
	input.PaymentDate = plan.Day(input.PaymentDate)

	if err := validateTransactionInput(input); err != nil {
		return nil, err
	}

	occurrences, err := s.policy.Expand(plan.Request{
		Total:        input.Amount,
		Plan:         input.PaymentPlan,
		Installments: input.Installments,
		Recurrence:   input.Recurrence,
		StartDate:    input.PaymentDate,
	})
	if err != nil {
		return nil, planError(err)
	}

	var shares [][]split.Share
	if len(input.Splits) > 0 {
		if err := split.Validate(input.Amount, input.Splits); err != nil {
			return nil, splitError(err)
		}
		if input.PaymentPlan == models.PaymentPlanInstallment {
			shares = split.Installments(input.Splits, len(occurrences))
		} else {
			shares = split.Repeat(input.Splits, len(occurrences))
		}
	}

	var created []models.Transaction
	err = session(ctx, s.db).Transaction(func(tx *gorm.DB) error {
		if err := s.checkReferences(tx, userID, input); err != nil {
			return err
		}

		var repetitionID *string
		if input.PaymentPlan != models.PaymentPlanSingle {
			repetition := &models.Repetition{
				UserID:            userID,
				TotalInstallments: len(occurrences),
				RecurrenceType:    recurrenceOf(input),
				TotalAmount:       plan.TotalOf(occurrences),
				StartDate:         input.PaymentDate,
			}
			if err := tx.Create(repetition).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			repetitionID = &repetition.ID
		}

		var invoice *models.Invoice
		for i, occ := range occurrences {
			t := models.Transaction{
				UserID:            userID,
				Kind:              input.Kind,
				PaymentMethod:     input.PaymentMethod,
				PaymentPlan:       input.PaymentPlan,
				Amount:            occ.Amount,
				Description:       input.Description,
				PaymentDate:       occ.PaymentDate,
				InstallmentLabel:  occ.Label(),
				InstallmentNumber: occ.Number,
				CategoryID:        input.CategoryID,
				RepetitionID:      repetitionID,
			}

			if t.IsCredit() {
				if invoice == nil || !occ.PaymentDate.Before(invoice.ClosingDate) {
					resolved, err := s.invoices.ResolveInvoice(tx, userID, *input.CreditCardID, occ.PaymentDate)
					if err != nil {
						return err
					}
					invoice = resolved
				}
				t.InvoiceID = &invoice.ID
			} else {
				t.AccountID = input.AccountID
			}

			if err := tx.Create(&t).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if shares != nil {
				if err := createSplits(tx, t.ID, shares[i]); err != nil {
					return err
				}
			}

			if t.IsCredit() {
				if participatesAtCreation(input.PaymentPlan, i, occ.PaymentDate) {
					if err := s.ledger.ApplyLimit(tx, &t); err != nil {
						return err
					}
				}
			} else if i == 0 && input.Consolidated {
				if err := s.ledger.ApplyBalance(tx, &t); err != nil {
					return err
				}
			}
			created = append(created, t)
		}
		return nil
	})
	if err != nil {
		return nil, storeError(err, apperrors.ErrConflict)
	}

	logger.Get().Infow("Transaction created",
		"user_id", userID,
		"transaction_id", created[0].ID,
		"payment_plan", input.PaymentPlan,
		"occurrences", len(created),
	)
	evt := events.New(events.TransactionCreated, userID, created[0].ID)
	evt.Amount = input.Amount.StringFixed(money.Places)
	evt.Count = len(created)
	events.Notify(ctx, s.publisher, evt)
	return created, nil
}

// participatesAtCreation reports whether the i-th occurrence of a credit plan
// counts against the card limit when written. Future recurring occurrences
// wait until their date arrives.
func participatesAtCreation(p models.PaymentPlan, i int, date time.Time) bool {
	if i == 0 || p != models.PaymentPlanRecurring {
		return true
	}
	return !date.After(today())
}

func recurrenceOf(input TransactionInput) models.RecurrenceType {
	if input.Recurrence == "" {
		return models.RecurrenceNone
	}
	return input.Recurrence
}

func validateTransactionInput(input TransactionInput) error {
	switch input.Kind {
	case models.TransactionKindExpense, models.TransactionKindIncome:
	case models.TransactionKindTransfer:
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "transfers are created with CreateTransfer")
	default:
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "transaction kind must be expense or income")
	}
	if !money.IsValidAmount(input.Amount) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be positive with at most two decimal places")
	}

	switch input.PaymentMethod {
	case models.PaymentMethodCredit:
		if input.Kind == models.TransactionKindIncome {
			return apperrors.WithMessage(apperrors.ErrInvalidPaymentPlan, "income cannot be paid by credit card")
		}
		if input.CreditCardID == nil || *input.CreditCardID == "" {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "credit card is required for credit transactions")
		}
		if input.Consolidated {
			return apperrors.WithMessage(apperrors.ErrInvalidPaymentPlan, "credit transactions are consolidated by settling their invoice")
		}
	case models.PaymentMethodDebit, models.PaymentMethodCash:
		if input.AccountID == nil || *input.AccountID == "" {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "account is required for debit and cash transactions")
		}
	default:
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "payment method must be debit, credit or cash")
	}

	if len(input.Splits) > 0 && input.Kind == models.TransactionKindIncome {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "income cannot be split")
	}
	return nil
}

// checkReferences verifies that everything input points at belongs to userID.
func (s *transactionService) checkReferences(tx *gorm.DB, userID string, input TransactionInput) error {
	if input.CategoryID != nil {
		category, err := findOwned[models.Category](tx, userID, *input.CategoryID, apperrors.ErrCategoryNotFound)
		if err != nil {
			return err
		}
		if category.TransactionKind != input.Kind {
			return apperrors.WithMessage(apperrors.ErrValidationFailed, "category does not apply to this kind of transaction")
		}
	}
	if input.AccountID != nil && input.PaymentMethod != models.PaymentMethodCredit {
		if _, err := findOwned[models.Account](tx, userID, *input.AccountID, apperrors.ErrAccountNotFound); err != nil {
			return err
		}
	}
	return checkRelatives(tx, userID, input.Splits)
}

func checkRelatives(tx *gorm.DB, userID string, shares []split.Share) error {
	for _, share := range shares {
		if _, err := findOwned[models.Relative](tx, userID, share.RelativeID, apperrors.ErrRelativeNotFound); err != nil {
			return err
		}
	}
	return nil
}

// createSplits stores the non-zero shares of one transaction. A relative whose
// share is spread over installments gets no row on occurrences where its part
// rounds to zero.
func createSplits(tx *gorm.DB, transactionID string, shares []split.Share) error {
	rows := make([]models.Split, 0, len(shares))
	for _, share := range shares {
		if share.Amount.IsZero() {
			continue
		}
		rows = append(rows, models.Split{TransactionID: transactionID, RelativeID: share.RelativeID, Amount: share.Amount})
	}
	if len(rows) == 0 {
		return nil
	}
	if err := tx.Create(&rows).Error; err != nil {
		return storeError(err, apperrors.ErrConflict)
	}
	return nil
}

func planError(err error) error {
	if errors.Is(err, plan.ErrInvalidAmount) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be positive with at most two decimal places")
	}
	return apperrors.WithMessage(apperrors.ErrInvalidPaymentPlan, err.Error())
}

func splitError(err error) error {
	if errors.Is(err, split.ErrSumMismatch) {
		return apperrors.WithMessage(apperrors.ErrSplitSumMismatch, err.Error())
	}
	return apperrors.WithMessage(apperrors.ErrValidationFailed, err.Error())
}

// CreateTransfer moves money between two accounts of the same user.
func (s *transactionService) CreateTransfer(ctx context.Context, userID string, input TransferInput) (*models.Transaction, error) {
	if !money.IsValidAmount(input.Amount) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be positive with at most two decimal places")
	}
	if input.FromAccountID == "" || input.ToAccountID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "source and destination accounts are required")
	}
	if input.FromAccountID == input.ToAccountID {
		return nil, apperrors.ErrSameAccountTransfer
	}
	if input.PaymentDate.IsZero() {
		input.PaymentDate = today()
	}

	from, to := input.FromAccountID, input.ToAccountID
	transfer := &models.Transaction{
		UserID:               userID,
		Kind:                 models.TransactionKindTransfer,
		PaymentMethod:        models.PaymentMethodDebit,
		PaymentPlan:          models.PaymentPlanSingle,
		Amount:               input.Amount,
		Description:          input.Description,
		PaymentDate:          plan.Day(input.PaymentDate),
		InstallmentLabel:     "1/1",
		InstallmentNumber:    1,
		AccountID:            &from,
		DestinationAccountID: &to,
	}

	err := session(ctx, s.db).Transaction(func(tx *gorm.DB) error {
		if _, err := findOwned[models.Account](tx, userID, from, apperrors.ErrAccountNotFound); err != nil {
			return err
		}
		if _, err := findOwned[models.Account](tx, userID, to, apperrors.ErrAccountNotFound); err != nil {
			return err
		}
		if err := tx.Create(transfer).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if input.Consolidated {
			return s.ledger.ApplyBalance(tx, transfer)
		}
		return nil
	})
	if err != nil {
		return nil, storeError(err, apperrors.ErrConflict)
	}

	logger.Get().Infow("Transfer created", "user_id", userID, "transaction_id", transfer.ID, "from", from, "to", to)
	evt := events.New(events.TransactionCreated, userID, transfer.ID)
	evt.Amount = transfer.Amount.StringFixed(money.Places)
	evt.Count = 1
	events.Notify(ctx, s.publisher, evt)
	return transfer, nil
}

// GetUserTransactions retrieves a filtered, paginated list of the user's
// transactions, most recent first.
func (s *transactionService) GetUserTransactions(ctx context.Context, userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	base := applyTransactionFilter(session(ctx, s.db).Model(&models.Transaction{}).Where("user_id = ?", userID), filter)

	result, err := pagination.Find[models.Transaction](base, page, "payment_date DESC", "installment_number ASC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// applyTransactionFilter applies optional filter conditions to a query.
func applyTransactionFilter(query *gorm.DB, filter TransactionFilter) *gorm.DB {
	if filter.FromDate != nil {
		query = query.Where("payment_date >= ?", plan.Day(*filter.FromDate))
	}
	if filter.ToDate != nil {
		query = query.Where("payment_date <= ?", plan.Day(*filter.ToDate))
	}
	if filter.Kind != nil {
		query = query.Where("kind = ?", *filter.Kind)
	}
	if filter.PaymentMethod != nil {
		query = query.Where("payment_method = ?", *filter.PaymentMethod)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.AccountID != nil {
		query = query.Where("account_id = ? OR destination_account_id = ?", *filter.AccountID, *filter.AccountID)
	}
	if filter.InvoiceID != nil {
		query = query.Where("invoice_id = ?", *filter.InvoiceID)
	}
	if filter.RepetitionID != nil {
		query = query.Where("repetition_id = ?", *filter.RepetitionID)
	}
	if filter.Consolidated != nil {
		query = query.Where("consolidated = ?", *filter.Consolidated)
	}
	if filter.MinAmount != nil {
		query = query.Where("amount >= ?", *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		query = query.Where("amount <= ?", *filter.MaxAmount)
	}
	return query
}

// GetTransactionByID retrieves a transaction by ID for a specific user
func (s *transactionService) GetTransactionByID(ctx context.Context, userID, transactionID string) (*models.Transaction, error) {
	return findOwned[models.Transaction](session(ctx, s.db), userID, transactionID, apperrors.ErrTransactionNotFound)
}

// GetTransactionSplits lists the relatives' shares of a transaction.
func (s *transactionService) GetTransactionSplits(ctx context.Context, userID, transactionID string) ([]models.Split, error) {
	db := session(ctx, s.db)
	if _, err := findOwned[models.Transaction](db, userID, transactionID, apperrors.ErrTransactionNotFound); err != nil {
		return nil, err
	}

	var splits []models.Split
	if err := db.Where("transaction_id = ?", transactionID).Order("amount DESC").Find(&splits).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return splits, nil
}

// ConsolidateTransaction applies or reverses a debit, cash or transfer
// transaction on its account balance.
func (s *transactionService) ConsolidateTransaction(ctx context.Context, userID, transactionID string, consolidated bool) (*models.Transaction, error) {
	updated, err := s.UpdateTransaction(ctx, userID, transactionID, TransactionUpdateFields{Consolidated: &consolidated})
	if err != nil {
		return nil, err
	}
	return &updated[0], nil
}
