package services

import (
	"time"

	apperrors "github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/errors"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ledgerAccountant is the only writer of account balances, card limits and
// invoice totals. Each operation flips the transaction's flag and moves the
// money in the caller's open transaction, so both happen or neither does.
type ledgerAccountant struct{}

// ApplyBalance consolidates t: expenses leave their account, incomes enter it,
// transfers do both. Credit charges only get the flag; their money reaches an
// account when the invoice is settled.
func (l ledgerAccountant) ApplyBalance(tx *gorm.DB, t *models.Transaction) error {
	if t.Consolidated {
		return apperrors.WithMessage(apperrors.ErrAlreadyApplied, "transaction is already consolidated")
	}
	if err := l.moveBalance(tx, t, decimal.NewFromInt(1)); err != nil {
		return err
	}
	return l.setConsolidated(tx, t, true)
}

// ReverseBalance undoes ApplyBalance.
func (l ledgerAccountant) ReverseBalance(tx *gorm.DB, t *models.Transaction) error {
	if !t.Consolidated {
		return apperrors.WithMessage(apperrors.ErrAlreadyApplied, "transaction is not consolidated")
	}
	if err := l.moveBalance(tx, t, decimal.NewFromInt(-1)); err != nil {
		return err
	}
	return l.setConsolidated(tx, t, false)
}

// ApplyLimit counts a credit transaction against its card: the available
// limit drops and the invoice total grows by the same amount.
func (l ledgerAccountant) ApplyLimit(tx *gorm.DB, t *models.Transaction) error {
	if t.Participates() {
		return apperrors.WithMessage(apperrors.ErrAlreadyApplied, "transaction already counts against its invoice")
	}
	if err := l.moveLimit(tx, t, t.Amount); err != nil {
		return err
	}
	return l.setParticipation(tx, t, boolPtr(true))
}

// ReverseLimit undoes ApplyLimit.
func (l ledgerAccountant) ReverseLimit(tx *gorm.DB, t *models.Transaction) error {
	if !t.Participates() {
		return apperrors.WithMessage(apperrors.ErrAlreadyApplied, "transaction does not count against its invoice")
	}
	if err := l.moveLimit(tx, t, t.Amount.Neg()); err != nil {
		return err
	}
	return l.setParticipation(tx, t, boolPtr(false))
}

// Settle closes invoice: the charges return to the card's available limit,
// the invoice total resets and the invoice is stamped as paid from accountID.
func (l ledgerAccountant) Settle(tx *gorm.DB, invoice *models.Invoice, accountID string, paidOn time.Time) error {
	if invoice.IsPaid() {
		return apperrors.ErrInvoiceAlreadyPaid
	}

	card, err := findByID[models.CreditCard](tx, invoice.CreditCardID, apperrors.ErrCreditCardNotFound)
	if err != nil {
		return err
	}
	restored := card.AvailableLimit.Add(invoice.AccumulatedCharges)
	if err := tx.Model(card).Update("available_limit", restored).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	err = tx.Model(invoice).Updates(map[string]interface{}{
		"accumulated_charges":   decimal.Zero,
		"payment_date":          paidOn,
		"settlement_account_id": accountID,
	}).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	invoice.AccumulatedCharges = decimal.Zero
	invoice.PaymentDate = &paidOn
	invoice.SettlementAccountID = &accountID
	return nil
}

// AdjustCreditLimit sets a new credit limit and shifts the available limit by
// the same delta.
func (l ledgerAccountant) AdjustCreditLimit(tx *gorm.DB, card *models.CreditCard, limit decimal.Decimal) error {
	delta := limit.Sub(card.CreditLimit)
	available := card.AvailableLimit.Add(delta)
	err := tx.Model(card).Updates(map[string]interface{}{
		"credit_limit":    limit,
		"available_limit": available,
	}).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	card.CreditLimit = limit
	card.AvailableLimit = available
	return nil
}

func (l ledgerAccountant) moveBalance(tx *gorm.DB, t *models.Transaction, sign decimal.Decimal) error {
	if !t.MovesBalance() {
		return nil
	}

	amount := t.Amount.Mul(sign)
	switch t.Kind {
	case models.TransactionKindExpense:
		return l.adjustBalance(tx, *t.AccountID, amount.Neg())
	case models.TransactionKindIncome:
		return l.adjustBalance(tx, *t.AccountID, amount)
	case models.TransactionKindTransfer:
		if t.DestinationAccountID == nil {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "transfer has no destination account")
		}
		if err := l.adjustBalance(tx, *t.AccountID, amount.Neg()); err != nil {
			return err
		}
		return l.adjustBalance(tx, *t.DestinationAccountID, amount)
	default:
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "unsupported transaction kind")
	}
}

func (l ledgerAccountant) adjustBalance(tx *gorm.DB, accountID string, delta decimal.Decimal) error {
	account, err := findByID[models.Account](tx, accountID, apperrors.ErrAccountNotFound)
	if err != nil {
		return err
	}
	if err := tx.Model(account).Update("balance", account.Balance.Add(delta)).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (l ledgerAccountant) moveLimit(tx *gorm.DB, t *models.Transaction, amount decimal.Decimal) error {
	if !t.IsCredit() || t.InvoiceID == nil {
		return apperrors.WithMessage(apperrors.ErrInvalidPaymentPlan, "only credit transactions with an invoice affect card limits")
	}

	invoice, err := findByID[models.Invoice](tx, *t.InvoiceID, apperrors.ErrInvoiceNotFound)
	if err != nil {
		return err
	}
	if invoice.IsPaid() {
		return apperrors.ErrInvoiceAlreadyPaid
	}
	card, err := findByID[models.CreditCard](tx, invoice.CreditCardID, apperrors.ErrCreditCardNotFound)
	if err != nil {
		return err
	}

	if err := tx.Model(card).Update("available_limit", card.AvailableLimit.Sub(amount)).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := tx.Model(invoice).Update("accumulated_charges", invoice.AccumulatedCharges.Add(amount)).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (l ledgerAccountant) setConsolidated(tx *gorm.DB, t *models.Transaction, consolidated bool) error {
	if err := tx.Model(t).Update("consolidated", consolidated).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	t.Consolidated = consolidated
	return nil
}

func (l ledgerAccountant) setParticipation(tx *gorm.DB, t *models.Transaction, participates *bool) error {
	if err := tx.Model(t).Update("participates_in_invoice_limit", participates).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	t.ParticipatesInInvoiceLimit = participates
	return nil
}
