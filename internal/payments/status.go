package payments

// Type distinguishes money in from money out.
type Type string

const (
	TypePayment Type = "PAYMENT"
	TypeRefund  Type = "REFUND"
)

func (t Type) IsValid() bool {
	return t == TypePayment || t == TypeRefund
}

func (t Type) String() string {
	return string(t)
}

// PayableType names the aggregate a transaction settles against.
type PayableType string

const (
	PayableBooking PayableType = "BOOKING"
)

func (p PayableType) IsValid() bool {
	return p == PayableBooking
}

func (p PayableType) String() string {
	return string(p)
}

// Status is the reconciliation state of a ledger entry.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether the status can no longer change.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}
