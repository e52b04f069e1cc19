package payments

import "errors"

var (
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrOverRefund             = errors.New("refund exceeds net completed payments")
	ErrProviderUnavailable    = errors.New("payment provider unavailable")
	ErrReconciliationConflict = errors.New("reconciliation conflict: provider outcome contradicts recorded outcome")
	ErrValidation             = errors.New("payment validation failed")
)
