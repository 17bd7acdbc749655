package models

// All lists every table model in dependency order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Account{},
		&CreditCard{},
		&Invoice{},
		&Category{},
		&Relative{},
		&Repetition{},
		&Transaction{},
		&Split{},
		&AuditLog{},
	}
}
