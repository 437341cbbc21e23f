package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput indicates missing or malformed required fields.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound indicates a referenced batch, item, sale or expense is absent.
	ErrNotFound = errors.New("not found")
	// ErrBatchClosed indicates an attempt to change the item set of a finalized batch.
	ErrBatchClosed = errors.New("batch is finalized")
	// ErrOutOfStock indicates the item has no units left.
	ErrOutOfStock = errors.New("item out of stock")
	// ErrInsufficientStock indicates fewer units remain than requested.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrStockOverflow is a logic fault: a reversal would push stock above its initial value.
	ErrStockOverflow = errors.New("stock restoration exceeds initial stock")
	// ErrPersistence wraps every failure reported by the ledger store.
	ErrPersistence = errors.New("persistence failure")
	// ErrConflict indicates a conditional write lost against a newer revision.
	ErrConflict = errors.New("revision conflict")
)

// InsufficientStockError carries the number of units still available.
type InsufficientStockError struct {
	Remaining int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("%s: %d requested, %d remaining", ErrInsufficientStock, e.Requested, e.Remaining)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}
