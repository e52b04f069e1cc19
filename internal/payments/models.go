package payments

import (
	"time"

	"github.com/google/uuid"
)

// Transaction is one ledger entry against the payment provider. Rows are
// never deleted and their amounts never change; reconciliation moves the
// status from PENDING to exactly one terminal outcome.
type Transaction struct {
	ID                    uuid.UUID   `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	PayableType           PayableType `json:"payable_type" gorm:"type:varchar(20);not null"`
	PayableID             uuid.UUID   `json:"payable_id" gorm:"type:uuid;not null;index"`
	Type                  Type        `json:"type" gorm:"type:varchar(10);not null"`
	Status                Status      `json:"status" gorm:"type:varchar(12);not null;default:'PENDING';index"`
	ValueMinorUnits       int64       `json:"value_minor_units" gorm:"not null;check:value_minor_units > 0"`
	Currency              string      `json:"currency" gorm:"type:varchar(3);not null"`
	Provider              string      `json:"provider" gorm:"type:varchar(30);not null"`
	IdempotencyKey        string      `json:"idempotency_key" gorm:"type:varchar(100);uniqueIndex;not null"`
	ProviderTransactionID *string     `json:"provider_transaction_id,omitempty" gorm:"type:varchar(100);index"`
	CardBrand             string      `json:"card_brand,omitempty" gorm:"type:varchar(20)"`
	Last4                 string      `json:"last4,omitempty" gorm:"type:varchar(4)"`
	FailureReason         string      `json:"failure_reason,omitempty" gorm:"type:varchar(100)"`
	CreatedAt             time.Time   `json:"created_at"`
	ReconciledAt          *time.Time  `json:"reconciled_at,omitempty"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// IsTerminal reports whether the transaction has a settled outcome.
func (t *Transaction) IsTerminal() bool {
	return t.Status.IsTerminal()
}
