package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

type ErrorKind string

const (
	KindIllegalTransition ErrorKind = "ILLEGAL_TRANSITION"
	KindUnauthorizedBank  ErrorKind = "UNAUTHORIZED_BANK"
	KindUnknownOrder      ErrorKind = "UNKNOWN_ORDER"
	KindOrderFrozen       ErrorKind = "ORDER_FROZEN"
	KindReleaseFailed     ErrorKind = "RELEASE_FAILED"
	KindInvalidInput      ErrorKind = "INVALID_INPUT"
	KindTotalLocked       ErrorKind = "TOTAL_LOCKED"
)

// Error is the structured error returned by the escrow engine.
type Error struct {
	Kind      ErrorKind
	OrderID   string
	Message   string
	Retryable bool
	Context   map[string]string
	Cause     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.OrderID != "" {
		fmt.Fprintf(&b, " (order=%s)", e.OrderID)
	}
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%s", k, e.Context[k])
		}
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches by kind so callers can use errors.Is(err, domain.ErrOrderFrozen).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrIllegalTransition = &Error{Kind: KindIllegalTransition}
	ErrUnauthorizedBank  = &Error{Kind: KindUnauthorizedBank}
	ErrUnknownOrder      = &Error{Kind: KindUnknownOrder}
	ErrOrderFrozen       = &Error{Kind: KindOrderFrozen}
	ErrReleaseFailed     = &Error{Kind: KindReleaseFailed}
	ErrInvalidInput      = &Error{Kind: KindInvalidInput}
	ErrTotalLocked       = &Error{Kind: KindTotalLocked}
)

// Store level sentinels.
var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrDocumentNotFound = errors.New("document not found")
	ErrOrderExists      = errors.New("order already exists")
)

func IllegalTransition(orderID string, from OrderStatus, event Event, reason string) *Error {
	msg := fmt.Sprintf("event %s is not allowed in status %s", event, from)
	if reason != "" {
		msg += ": " + reason
	}
	return &Error{
		Kind:    KindIllegalTransition,
		OrderID: orderID,
		Message: msg,
		Context: map[string]string{"from": string(from), "event": string(event)},
	}
}

func UnauthorizedBank(orderID, bankID string) *Error {
	return &Error{
		Kind:    KindUnauthorizedBank,
		OrderID: orderID,
		Message: "bank is neither the buyer bank nor the seller bank of the order",
		Context: map[string]string{"bank_id": bankID},
	}
}

func UnknownOrder(orderID string) *Error {
	return &Error{
		Kind:    KindUnknownOrder,
		OrderID: orderID,
		Message: "order does not exist",
	}
}

func OrderFrozen(orderID string) *Error {
	return &Error{
		Kind:    KindOrderFrozen,
		OrderID: orderID,
		Message: "order is frozen by an open dispute",
	}
}

func ReleaseFailed(orderID string, t Tranche, retryable bool, reason string, cause error) *Error {
	return &Error{
		Kind:      KindReleaseFailed,
		OrderID:   orderID,
		Message:   reason,
		Retryable: retryable,
		Context:   map[string]string{"tranche": string(t), "retryable": fmt.Sprint(retryable)},
		Cause:     cause,
	}
}

func InvalidInput(orderID, reason string) *Error {
	return &Error{
		Kind:    KindInvalidInput,
		OrderID: orderID,
		Message: reason,
	}
}

func TotalLocked(orderID string, status OrderStatus) *Error {
	return &Error{
		Kind:    KindTotalLocked,
		OrderID: orderID,
		Message: "order financials are immutable once payment is confirmed",
		Context: map[string]string{"status": string(status)},
	}
}

// KindOf extracts the kind of a structured engine error.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// IsRetryable reports whether the caller may retry the failed operation.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}
