package transfers

import "errors"

var (
	ErrTransferNotFound = errors.New("financial transfer not found")
	ErrValidation       = errors.New("transfer validation failed")
)
