package transfers

// RecordTransferRequest is the payload for appending a transfer ledger row.
type RecordTransferRequest struct {
	SocietyID       string `json:"society_id,omitempty" binding:"omitempty,uuid"`
	UserID          string `json:"user_id,omitempty" binding:"omitempty,uuid"`
	Method          string `json:"method" binding:"required,oneof=INTERNAL BACS"`
	ValueMinorUnits int64  `json:"value_minor_units" binding:"required,gt=0"`
	Reason          string `json:"reason,omitempty" binding:"max=255"`
}

// TransferListQuery holds pagination and filter parameters for listings.
type TransferListQuery struct {
	Page      int    `form:"page"`
	Limit     int    `form:"limit"`
	SocietyID string `form:"society_id"`
	UserID    string `form:"user_id"`
	Method    string `form:"method"`
}

// PaginatedTransfers is a page of ledger rows.
type PaginatedTransfers struct {
	Transfers  []FinancialTransfer `json:"transfers"`
	TotalCount int64               `json:"total_count"`
	Page       int                 `json:"page"`
	Limit      int                 `json:"limit"`
}
