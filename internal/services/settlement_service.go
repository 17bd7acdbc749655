package services

import (
	"context"
	"fmt"

	apperrors "github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/errors"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/events"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/logger"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/models"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/money"

	"gorm.io/gorm"
)

// settlementService pays credit card invoices from an account.
type settlementService struct {
	db        *gorm.DB
	publisher events.Publisher
	invoices  *invoiceService
	ledger    ledgerAccountant
}

// NewSettlementService creates a new SettlementServicer.
func NewSettlementService(db *gorm.DB, publisher events.Publisher) SettlementServicer {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &settlementService{db: db, publisher: publisher, invoices: &invoiceService{db: db}}
}

// SettleInvoice pays invoiceID from accountID. Every charge counting against
// the invoice is consolidated, a payment expense for the accumulated total is
// posted on the account, and the card's limit is restored.
//
// Pending recurring charges of the card that have come due are counted first
// and settled with the rest. Pending charges dated later are moved to the next
// open cycle, since a paid invoice takes no new charges.
//
// The payment references the invoice, so once the invoice is paid the payment
// is as immutable as the charges it settled.
func (s *settlementService) SettleInvoice(ctx context.Context, userID, invoiceID, accountID string) (*SettlementReceipt, error) {
	var receipt SettlementReceipt
	err := session(ctx, s.db).Transaction(func(tx *gorm.DB) error {
		invoice, err := ownedInvoice(tx, userID, invoiceID)
		if err != nil {
			return err
		}
		if invoice.IsPaid() {
			return apperrors.ErrInvoiceAlreadyPaid
		}
		account, err := findOwned[models.Account](tx, userID, accountID, apperrors.ErrAccountNotFound)
		if err != nil {
			return err
		}
		card, err := findByID[models.CreditCard](tx, invoice.CreditCardID, apperrors.ErrCreditCardNotFound)
		if err != nil {
			return err
		}
		if _, err := s.invoices.activateDue(tx, card.ID, today()); err != nil {
			return err
		}
		if invoice, err = findByID[models.Invoice](tx, invoice.ID, apperrors.ErrInvoiceNotFound); err != nil {
			return err
		}

		var charges []models.Transaction
		err = tx.Where("invoice_id = ? AND participates_in_invoice_limit = ?", invoice.ID, true).
			Order("payment_date ASC").
			Find(&charges).Error
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if len(charges) == 0 {
			return apperrors.ErrInvoiceHasNoCharges
		}

		for i := range charges {
			if charges[i].Consolidated {
				continue
			}
			if err := s.ledger.ApplyBalance(tx, &charges[i]); err != nil {
				return err
			}
			receipt.Consolidated++
		}

		invoiceRef := invoice.ID
		payment := models.Transaction{
			UserID:            userID,
			Kind:              models.TransactionKindExpense,
			PaymentMethod:     models.PaymentMethodDebit,
			PaymentPlan:       models.PaymentPlanSingle,
			Amount:            invoice.AccumulatedCharges,
			Description:       fmt.Sprintf("Invoice payment %s %s", card.Name, invoice.BillingMonth),
			PaymentDate:       today(),
			InstallmentLabel:  "1/1",
			InstallmentNumber: 1,
			AccountID:         &account.ID,
			InvoiceID:         &invoiceRef,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := s.ledger.ApplyBalance(tx, &payment); err != nil {
			return err
		}

		receipt.Amount = invoice.AccumulatedCharges
		if err := s.ledger.Settle(tx, invoice, account.ID, today()); err != nil {
			return err
		}
		if receipt.Deferred, err = s.deferPending(tx, userID, card.ID, invoice.ID); err != nil {
			return err
		}
		receipt.Invoice = *invoice
		receipt.Payment = payment
		return nil
	})
	if err != nil {
		return nil, storeError(err, apperrors.ErrConflict)
	}

	logger.Get().Infow("Invoice settled",
		"user_id", userID,
		"invoice_id", invoiceID,
		"account_id", accountID,
		"amount", receipt.Amount.StringFixed(money.Places),
		"deferred", receipt.Deferred,
	)
	evt := events.New(events.InvoiceSettled, userID, invoiceID)
	evt.Amount = receipt.Amount.StringFixed(money.Places)
	evt.Count = receipt.Consolidated
	events.Notify(ctx, s.publisher, evt)
	return &receipt, nil
}

// deferPending moves the pending charges left on the paid invoice to the open
// cycle following it.
func (s *settlementService) deferPending(tx *gorm.DB, userID, cardID, invoiceID string) (int, error) {
	var pending []models.Transaction
	err := tx.Where("invoice_id = ? AND participates_in_invoice_limit IS NULL", invoiceID).
		Order("payment_date ASC").
		Find(&pending).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for i := range pending {
		next, err := s.invoices.ResolveInvoice(tx, userID, cardID, pending[i].PaymentDate)
		if err != nil {
			return 0, err
		}
		if err := tx.Model(&pending[i]).Update("invoice_id", next.ID).Error; err != nil {
			return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return len(pending), nil
}
