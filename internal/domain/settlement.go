package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

type SettlementRequest struct {
	OrderRef          string
	SettlementAddress string
	Amount            decimal.Decimal
	Currency          string
	TrancheLabel      string
}

// SettlementBackend moves funds. Calling Release twice with the same order
// and tranche label must not move funds twice.
type SettlementBackend interface {
	Release(ctx context.Context, req SettlementRequest) (string, error)
}

// SettlementError classifies a backend failure.
type SettlementError struct {
	Transient bool
	Err       error
}

func (e *SettlementError) Error() string {
	if e.Transient {
		return "settlement backend transient failure: " + e.Err.Error()
	}
	return "settlement backend rejected release: " + e.Err.Error()
}

func (e *SettlementError) Unwrap() error {
	return e.Err
}

// IsTransientSettlementError reports whether a release may succeed on retry.
// Timeouts and unclassified errors count as transient.
func IsTransientSettlementError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var se *SettlementError
	if errors.As(err, &se) {
		return se.Transient
	}
	return true
}
