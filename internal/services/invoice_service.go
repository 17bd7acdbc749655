package services

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/errors"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/logger"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/models"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/pagination"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/plan"

	"gorm.io/gorm"
)

// maxPaidCycles bounds how many paid billing cycles the resolver skips when
// looking for an open invoice.
const maxPaidCycles = 24

// invoiceService resolves, generates and lists credit card invoices.
type invoiceService struct {
	db     *gorm.DB
	ledger ledgerAccountant
}

// NewInvoiceService creates a new InvoiceServicer.
func NewInvoiceService(db *gorm.DB) InvoiceServicer {
	return &invoiceService{db: db}
}

// ResolveInvoice returns the open invoice of cardID whose billing cycle
// contains target: the first invoice closing strictly after target. Missing
// invoices are generated for the rest of target's year. A paid cycle never
// takes new charges, so the next cycle is used instead.
//
// Pending recurring charges on the card that have come due are counted against
// the limit on the way.
func (s *invoiceService) ResolveInvoice(tx *gorm.DB, userID, cardID string, target time.Time) (*models.Invoice, error) {
	card, err := findOwned[models.CreditCard](tx, userID, cardID, apperrors.ErrCreditCardNotFound)
	if err != nil {
		return nil, err
	}

	target = plan.Day(target)
	for i := 0; i < maxPaidCycles; i++ {
		invoice, err := s.cycleInvoice(tx, card, target)
		if err != nil {
			return nil, err
		}
		if !invoice.IsPaid() {
			if _, err := s.activateDue(tx, card.ID, today()); err != nil {
				return nil, err
			}
			return invoice, nil
		}
		target = invoice.ClosingDate
	}
	return nil, apperrors.WithMessage(apperrors.ErrInvoiceAlreadyPaid, "no open invoice found for this card")
}

// cycleInvoice finds or generates the invoice whose cycle contains target.
func (s *invoiceService) cycleInvoice(tx *gorm.DB, card *models.CreditCard, target time.Time) (*models.Invoice, error) {
	closingDay, dueDay, err := s.billingDays(tx, card)
	if err != nil {
		return nil, err
	}
	expected := expectedClosing(target, closingDay)

	invoice, err := s.firstClosingAfter(tx, card.ID, target, expected)
	if err != nil || invoice != nil {
		return invoice, err
	}

	from := time.Date(target.Year(), target.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(target.Year(), time.December, 1, 0, 0, 0, 0, time.UTC)
	if expected.After(to) {
		to = time.Date(expected.Year(), expected.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	if err := s.generate(tx, card.ID, closingDay, dueDay, from, to); err != nil {
		return nil, err
	}

	invoice, err = s.firstClosingAfter(tx, card.ID, target, expected)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, apperrors.WithMessage(apperrors.ErrInternalServer, "billing cycle could not be generated")
	}
	return invoice, nil
}

// firstClosingAfter returns the earliest invoice closing after target, or nil
// when that invoice is missing or belongs to a later month than expected.
func (s *invoiceService) firstClosingAfter(tx *gorm.DB, cardID string, target, expected time.Time) (*models.Invoice, error) {
	var invoice models.Invoice
	err := tx.Where("credit_card_id = ? AND closing_date > ?", cardID, target).
		Order("closing_date ASC").
		First(&invoice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if invoice.BillingMonth > expected.Format(models.BillingMonthLayout) {
		return nil, nil
	}
	return &invoice, nil
}

// billingDays returns the card's closing and due days, falling back to the
// days of its most recent invoice for cards stored without them.
func (s *invoiceService) billingDays(tx *gorm.DB, card *models.CreditCard) (int, int, error) {
	if card.ClosingDay > 0 && card.DueDay > 0 {
		return card.ClosingDay, card.DueDay, nil
	}

	var latest models.Invoice
	err := tx.Where("credit_card_id = ?", card.ID).Order("closing_date DESC").First(&latest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, 0, apperrors.ErrBillingCycleNotReady
	}
	if err != nil {
		return 0, 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return latest.ClosingDate.Day(), latest.DueDate.Day(), nil
}

// generate creates one invoice per month in [from, to] that the card does not
// have yet.
func (s *invoiceService) generate(tx *gorm.DB, cardID string, closingDay, dueDay int, from, to time.Time) error {
	var existing []string
	err := tx.Model(&models.Invoice{}).
		Where("credit_card_id = ? AND billing_month >= ? AND billing_month <= ?",
			cardID, from.Format(models.BillingMonthLayout), to.Format(models.BillingMonthLayout)).
		Pluck("billing_month", &existing).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	have := make(map[string]bool, len(existing))
	for _, m := range existing {
		have[m] = true
	}

	var invoices []models.Invoice
	for month := from; !month.After(to); month = month.AddDate(0, 1, 0) {
		if have[month.Format(models.BillingMonthLayout)] {
			continue
		}
		invoices = append(invoices, newInvoice(cardID, month, closingDay, dueDay))
	}
	if len(invoices) == 0 {
		return nil
	}

	if err := tx.Create(&invoices).Error; err != nil {
		return storeError(err, apperrors.ErrConflict)
	}
	logger.Get().Infow("Generated invoices",
		"credit_card_id", cardID,
		"count", len(invoices),
		"from", invoices[0].BillingMonth,
		"to", invoices[len(invoices)-1].BillingMonth,
	)
	return nil
}

// newInvoice builds the invoice closing in month. The due date falls in the
// same month when dueDay is after closingDay and in the next month otherwise.
func newInvoice(cardID string, month time.Time, closingDay, dueDay int) models.Invoice {
	closing := plan.ClampedDate(month.Year(), month.Month(), closingDay)
	dueMonth := month.Month()
	if dueDay <= closingDay {
		dueMonth++
	}
	return models.Invoice{
		CreditCardID: cardID,
		BillingMonth: closing.Format(models.BillingMonthLayout),
		ClosingDate:  closing,
		DueDate:      plan.ClampedDate(month.Year(), dueMonth, dueDay),
	}
}

// expectedClosing returns the closing date of the cycle containing target.
func expectedClosing(target time.Time, closingDay int) time.Time {
	closing := plan.ClampedDate(target.Year(), target.Month(), closingDay)
	if closing.After(target) {
		return closing
	}
	return plan.ClampedDate(target.Year(), target.Month()+1, closingDay)
}

// activateDue counts pending recurring credit charges dated on or before day
// against their cards. cardID limits the sweep to one card when not empty.
func (s *invoiceService) activateDue(tx *gorm.DB, cardID string, day time.Time) (int, error) {
	openInvoices := tx.Session(&gorm.Session{NewDB: true}).
		Model(&models.Invoice{}).Select("id").Where("payment_date IS NULL")
	if cardID != "" {
		openInvoices = openInvoices.Where("credit_card_id = ?", cardID)
	}

	var pending []models.Transaction
	err := tx.Where("payment_method = ? AND participates_in_invoice_limit IS NULL AND payment_date <= ?",
		models.PaymentMethodCredit, day).
		Where("invoice_id IN (?)", openInvoices).
		Order("payment_date ASC").
		Find(&pending).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for i := range pending {
		if err := s.ledger.ApplyLimit(tx, &pending[i]); err != nil {
			return 0, err
		}
	}
	return len(pending), nil
}

// ActivateDueOccurrences sweeps every card for pending recurring charges that
// have come due.
func (s *invoiceService) ActivateDueOccurrences(ctx context.Context, at time.Time) (int, error) {
	var activated int
	err := session(ctx, s.db).Transaction(func(tx *gorm.DB) error {
		var err error
		activated, err = s.activateDue(tx, "", plan.Day(at))
		return err
	})
	if err != nil {
		return 0, err
	}
	if activated > 0 {
		logger.Get().Infow("Activated due recurring charges", "count", activated)
	}
	return activated, nil
}

// GetCardInvoices lists the invoices of a card, oldest first.
func (s *invoiceService) GetCardInvoices(ctx context.Context, userID, cardID string, page pagination.PageRequest) (*pagination.PageResponse[models.Invoice], error) {
	db := session(ctx, s.db)
	if _, err := findOwned[models.CreditCard](db, userID, cardID, apperrors.ErrCreditCardNotFound); err != nil {
		return nil, err
	}

	base := db.Model(&models.Invoice{}).Where("credit_card_id = ?", cardID)

	result, err := pagination.Find[models.Invoice](base, page, "closing_date ASC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// GetInvoiceByID returns an invoice of one of the user's cards. An invoice of
// another user's card is reported as forbidden.
func (s *invoiceService) GetInvoiceByID(ctx context.Context, userID, invoiceID string) (*models.Invoice, error) {
	return ownedInvoice(session(ctx, s.db), userID, invoiceID)
}

// GetInvoiceTransactions lists the transactions billed on an invoice.
func (s *invoiceService) GetInvoiceTransactions(ctx context.Context, userID, invoiceID string) ([]models.Transaction, error) {
	db := session(ctx, s.db)
	if _, err := ownedInvoice(db, userID, invoiceID); err != nil {
		return nil, err
	}

	var transactions []models.Transaction
	if err := db.Where("invoice_id = ?", invoiceID).Order("payment_date ASC").Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transactions, nil
}

func ownedInvoice(tx *gorm.DB, userID, invoiceID string) (*models.Invoice, error) {
	invoice, err := findByID[models.Invoice](tx, invoiceID, apperrors.ErrInvoiceNotFound)
	if err != nil {
		return nil, err
	}
	card, err := findByID[models.CreditCard](tx, invoice.CreditCardID, apperrors.ErrCreditCardNotFound)
	if err != nil {
		return nil, err
	}
	if card.UserID != userID {
		return nil, apperrors.WithMessage(apperrors.ErrForbidden, "invoice belongs to another user's card")
	}
	return invoice, nil
}
