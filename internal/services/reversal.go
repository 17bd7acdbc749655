package services

import (
	"context"

	apperrors "github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/errors"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/events"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/logger"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/models"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/money"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/plan"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/split"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// checkMutable rejects changes to a transaction whose effects were settled
// with a paid invoice.
func checkMutable(tx *gorm.DB, t *models.Transaction) error {
	if t.InvoiceID == nil || (!t.Consolidated && !t.Participates()) {
		return nil
	}
	invoice, err := findByID[models.Invoice](tx, *t.InvoiceID, apperrors.ErrInvoiceNotFound)
	if err != nil {
		return err
	}
	if invoice.IsPaid() {
		return apperrors.ErrImmutableTransaction
	}
	return nil
}

// reverse undoes every ledger effect t currently has.
func (s *transactionService) reverse(tx *gorm.DB, t *models.Transaction) error {
	if t.Consolidated {
		if err := s.ledger.ReverseBalance(tx, t); err != nil {
			return err
		}
	}
	if t.Participates() {
		if err := s.ledger.ReverseLimit(tx, t); err != nil {
			return err
		}
	}
	return nil
}

// groupFrom returns the occurrences of t's repetition numbered from t onwards.
// all is true when t is the earliest occurrence still present, in which case
// the whole group is returned.
func groupFrom(tx *gorm.DB, t *models.Transaction) (group []models.Transaction, all bool, err error) {
	if t.RepetitionID == nil {
		return []models.Transaction{*t}, false, nil
	}

	var occurrences []models.Transaction
	err = tx.Where("repetition_id = ? AND user_id = ?", *t.RepetitionID, t.UserID).
		Order("installment_number ASC").
		Find(&occurrences).Error
	if err != nil {
		return nil, false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(occurrences) == 0 {
		return []models.Transaction{*t}, false, nil
	}
	if occurrences[0].InstallmentNumber >= t.InstallmentNumber {
		return occurrences, true, nil
	}

	for _, occ := range occurrences {
		if occ.InstallmentNumber >= t.InstallmentNumber {
			group = append(group, occ)
		}
	}
	return group, false, nil
}

// DeleteTransaction deletes a transaction after reversing its effects. Inside
// a repetition group, deleting the first remaining occurrence removes the
// whole group; deleting a later one removes it and every occurrence after it.
// It returns the ids of the deleted transactions.
func (s *transactionService) DeleteTransaction(ctx context.Context, userID, transactionID string) ([]string, error) {
	var deleted []string
	removed := decimal.Zero

	err := session(ctx, s.db).Transaction(func(tx *gorm.DB) error {
		t, err := findOwned[models.Transaction](tx, userID, transactionID, apperrors.ErrTransactionNotFound)
		if err != nil {
			return err
		}

		targets, wholeGroup, err := groupFrom(tx, t)
		if err != nil {
			return err
		}
		for i := range targets {
			if err := checkMutable(tx, &targets[i]); err != nil {
				return err
			}
		}

		for i := range targets {
			target := &targets[i]
			if err := s.reverse(tx, target); err != nil {
				return err
			}
			if err := tx.Where("transaction_id = ?", target.ID).Delete(&models.Split{}).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if err := tx.Delete(target).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			deleted = append(deleted, target.ID)
			removed = removed.Add(target.Amount)
		}

		if t.RepetitionID == nil {
			return nil
		}
		if wholeGroup {
			if err := tx.Where("id = ?", *t.RepetitionID).Delete(&models.Repetition{}).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			return nil
		}
		return shrinkRepetition(tx, *t.RepetitionID, len(targets), removed)
	})
	if err != nil {
		return nil, storeError(err, apperrors.ErrConflict)
	}

	logger.Get().Infow("Transaction deleted", "user_id", userID, "transaction_id", transactionID, "deleted", len(deleted))
	evt := events.New(events.TransactionDeleted, userID, transactionID)
	evt.Amount = removed.StringFixed(money.Places)
	evt.Count = len(deleted)
	events.Notify(ctx, s.publisher, evt)
	return deleted, nil
}

func shrinkRepetition(tx *gorm.DB, repetitionID string, count int, amount decimal.Decimal) error {
	repetition, err := findByID[models.Repetition](tx, repetitionID, apperrors.ErrNotFound)
	if err != nil {
		return err
	}
	err = tx.Model(repetition).Updates(map[string]interface{}{
		"total_installments": repetition.TotalInstallments - count,
		"total_amount":       repetition.TotalAmount.Sub(amount),
	}).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// UpdateTransaction edits a transaction, or with ScopeFollowing every
// occurrence of its group from it onwards. Each target's effects are reversed,
// the fields applied and the effects re-applied, all in one database
// transaction.
func (s *transactionService) UpdateTransaction(ctx context.Context, userID, transactionID string, fields TransactionUpdateFields) ([]models.Transaction, error) {
	if fields.Scope == "" {
		fields.Scope = ScopeThis
	}
	if fields.Scope != ScopeThis && fields.Scope != ScopeFollowing {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "scope must be this or following")
	}
	if fields.Amount != nil && !money.IsValidAmount(*fields.Amount) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be positive with at most two decimal places")
	}
	if fields.Scope == ScopeFollowing && (fields.Splits != nil || fields.PaymentDate != nil || fields.Consolidated != nil) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "splits, payment date and consolidation can only change on a single occurrence")
	}

	var updated []models.Transaction
	err := session(ctx, s.db).Transaction(func(tx *gorm.DB) error {
		t, err := findOwned[models.Transaction](tx, userID, transactionID, apperrors.ErrTransactionNotFound)
		if err != nil {
			return err
		}

		targets := []models.Transaction{*t}
		if fields.Scope == ScopeFollowing && t.RepetitionID != nil {
			if targets, _, err = groupFrom(tx, t); err != nil {
				return err
			}
		}

		for i := range targets {
			if err := checkMutable(tx, &targets[i]); err != nil {
				return err
			}
			if err := s.validateEdit(tx, userID, &targets[i], fields); err != nil {
				return err
			}
		}

		delta := decimal.Zero
		for i := range targets {
			// Editing an earlier target can resolve an invoice, which counts
			// due pending charges of the card, later targets included.
			current, err := findByID[models.Transaction](tx, targets[i].ID, apperrors.ErrTransactionNotFound)
			if err != nil {
				return err
			}
			targets[i] = *current

			before := targets[i].Amount
			if err := s.edit(tx, userID, &targets[i], fields); err != nil {
				return err
			}
			delta = delta.Add(targets[i].Amount.Sub(before))
		}

		if t.RepetitionID != nil && !delta.IsZero() {
			repetition, err := findByID[models.Repetition](tx, *t.RepetitionID, apperrors.ErrNotFound)
			if err != nil {
				return err
			}
			if err := tx.Model(repetition).Update("total_amount", repetition.TotalAmount.Add(delta)).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		updated = targets
		return nil
	})
	if err != nil {
		return nil, storeError(err, apperrors.ErrConflict)
	}

	logger.Get().Infow("Transaction updated", "user_id", userID, "transaction_id", transactionID, "updated", len(updated))
	evt := events.New(events.TransactionUpdated, userID, transactionID)
	evt.Count = len(updated)
	events.Notify(ctx, s.publisher, evt)
	return updated, nil
}

// validateEdit checks fields against t before anything is written.
func (s *transactionService) validateEdit(tx *gorm.DB, userID string, t *models.Transaction, fields TransactionUpdateFields) error {
	kind := t.Kind
	if fields.Kind != nil && *fields.Kind != t.Kind {
		if t.Kind == models.TransactionKindTransfer || *fields.Kind == models.TransactionKindTransfer {
			return apperrors.ErrInvalidTypeChange
		}
		if *fields.Kind != models.TransactionKindExpense && *fields.Kind != models.TransactionKindIncome {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "transaction kind must be expense or income")
		}
		kind = *fields.Kind
	}

	if fields.PaymentMethod != nil {
		switch *fields.PaymentMethod {
		case models.PaymentMethodDebit, models.PaymentMethodCash, models.PaymentMethodCredit:
		default:
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "payment method must be debit, credit or cash")
		}
		if (*fields.PaymentMethod == models.PaymentMethodCredit) != t.IsCredit() {
			return apperrors.WithMessage(apperrors.ErrInvalidTypeChange, "payment method cannot switch between credit card and account")
		}
	}
	if t.IsCredit() && kind == models.TransactionKindIncome {
		return apperrors.WithMessage(apperrors.ErrInvalidPaymentPlan, "income cannot be paid by credit card")
	}

	if fields.Consolidated != nil && *fields.Consolidated != t.Consolidated && t.IsCredit() {
		return apperrors.WithMessage(apperrors.ErrInvalidPaymentPlan, "credit transactions are consolidated by settling their invoice")
	}

	if fields.AccountID != nil {
		if t.IsCredit() {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "credit transactions are not tied to an account")
		}
		if _, err := findOwned[models.Account](tx, userID, *fields.AccountID, apperrors.ErrAccountNotFound); err != nil {
			return err
		}
		if t.DestinationAccountID != nil && *t.DestinationAccountID == *fields.AccountID {
			return apperrors.ErrSameAccountTransfer
		}
	}
	if fields.CreditCardID != nil && !t.IsCredit() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "only credit transactions can move to a credit card")
	}
	categoryID := t.CategoryID
	if fields.CategoryID != nil {
		categoryID = nil
		if *fields.CategoryID != "" {
			categoryID = fields.CategoryID
		}
	}
	// A kept category is checked again when the kind changes under it.
	if categoryID != nil && (fields.CategoryID != nil || kind != t.Kind) {
		category, err := findOwned[models.Category](tx, userID, *categoryID, apperrors.ErrCategoryNotFound)
		if err != nil {
			return err
		}
		if category.TransactionKind != kind {
			return apperrors.WithMessage(apperrors.ErrValidationFailed, "category does not apply to this kind of transaction")
		}
	}

	var existing int64
	if err := tx.Model(&models.Split{}).Where("transaction_id = ?", t.ID).Count(&existing).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	splitCount := int(existing)
	if fields.Splits != nil {
		splitCount = len(*fields.Splits)
	}
	if splitCount > 0 && kind != models.TransactionKindExpense {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "only expenses can be split")
	}

	amount := t.Amount
	if fields.Amount != nil {
		amount = *fields.Amount
	}
	if fields.Splits != nil {
		if len(*fields.Splits) > 0 {
			if err := split.Validate(amount, *fields.Splits); err != nil {
				return splitError(err)
			}
			return checkRelatives(tx, userID, *fields.Splits)
		}
	} else if existing > 0 && !amount.Equal(t.Amount) {
		return apperrors.WithMessage(apperrors.ErrSplitSumMismatch, "changing the amount of a split transaction requires new splits")
	}
	return nil
}

// edit reverses t's effects, applies fields and re-applies the effects the
// edited transaction should have.
func (s *transactionService) edit(tx *gorm.DB, userID string, t *models.Transaction, fields TransactionUpdateFields) error {
	consolidated := t.Consolidated
	participating := t.Participates()
	pending := t.IsCredit() && t.ParticipatesInInvoiceLimit == nil

	if err := s.reverse(tx, t); err != nil {
		return err
	}
	if pending {
		// Hide the row from the resolver's sweep while it is being moved.
		if err := s.ledger.setParticipation(tx, t, boolPtr(false)); err != nil {
			return err
		}
	}

	if fields.Amount != nil {
		t.Amount = *fields.Amount
	}
	if fields.Description != nil {
		t.Description = *fields.Description
	}
	if fields.Kind != nil {
		t.Kind = *fields.Kind
	}
	if fields.PaymentMethod != nil {
		t.PaymentMethod = *fields.PaymentMethod
	}
	if fields.CategoryID != nil {
		if *fields.CategoryID == "" {
			t.CategoryID = nil
		} else {
			categoryID := *fields.CategoryID
			t.CategoryID = &categoryID
		}
	}
	if fields.AccountID != nil {
		accountID := *fields.AccountID
		t.AccountID = &accountID
	}
	if fields.PaymentDate != nil {
		t.PaymentDate = plan.Day(*fields.PaymentDate)
	}

	if t.IsCredit() && t.InvoiceID != nil {
		invoice, err := findByID[models.Invoice](tx, *t.InvoiceID, apperrors.ErrInvoiceNotFound)
		if err != nil {
			return err
		}
		cardID := invoice.CreditCardID
		if fields.CreditCardID != nil {
			cardID = *fields.CreditCardID
		}
		if fields.PaymentDate != nil || cardID != invoice.CreditCardID || invoice.IsPaid() {
			resolved, err := s.invoices.ResolveInvoice(tx, userID, cardID, t.PaymentDate)
			if err != nil {
				return err
			}
			t.InvoiceID = &resolved.ID
		}
	}

	if err := tx.Save(t).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if fields.Splits != nil {
		if err := tx.Where("transaction_id = ?", t.ID).Delete(&models.Split{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := createSplits(tx, t.ID, *fields.Splits); err != nil {
			return err
		}
	}

	if fields.Consolidated != nil {
		consolidated = *fields.Consolidated
	}
	if consolidated {
		if err := s.ledger.ApplyBalance(tx, t); err != nil {
			return err
		}
	}

	switch {
	case participating:
		return s.ledger.ApplyLimit(tx, t)
	case pending && !t.PaymentDate.After(today()):
		return s.ledger.ApplyLimit(tx, t)
	case pending:
		return s.ledger.setParticipation(tx, t, nil)
	}
	return nil
}
