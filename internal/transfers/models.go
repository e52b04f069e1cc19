package transfers

import (
	"time"

	"github.com/google/uuid"
)

// Method is how settled funds leave the platform ledger.
type Method string

const (
	MethodInternal Method = "INTERNAL"
	MethodBACS     Method = "BACS"
)

func (m Method) IsValid() bool {
	return m == MethodInternal || m == MethodBACS
}

func (m Method) String() string {
	return string(m)
}

// FinancialTransfer records value moved to a society or user. Exactly one
// beneficiary is set. Rows are immutable once created; there is no update or
// delete path.
type FinancialTransfer struct {
	ID              uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	SocietyID       *uuid.UUID `json:"society_id,omitempty" gorm:"type:uuid;index"`
	UserID          *uuid.UUID `json:"user_id,omitempty" gorm:"type:uuid;index"`
	Method          Method     `json:"method" gorm:"type:varchar(10);not null"`
	ValueMinorUnits int64      `json:"value_minor_units" gorm:"not null;check:value_minor_units > 0"`
	Currency        string     `json:"currency" gorm:"type:varchar(3);not null"`
	Reason          string     `json:"reason,omitempty" gorm:"type:varchar(255)"`
	CreatedBy       uuid.UUID  `json:"created_by" gorm:"type:uuid;not null"`
	CreatedAt       time.Time  `json:"created_at"`
}

func (FinancialTransfer) TableName() string {
	return "financial_transfers"
}
