package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type DisputeStatus string

const (
	DisputeOpen     DisputeStatus = "OPEN"
	DisputeResolved DisputeStatus = "RESOLVED"
)

type DisputeOutcome string

const (
	OutcomeFavorCompletion   DisputeOutcome = "favor_completion"
	OutcomeFavorCancellation DisputeOutcome = "favor_cancellation"
)

func ParseDisputeOutcome(s string) (DisputeOutcome, error) {
	switch o := DisputeOutcome(strings.ToLower(strings.TrimSpace(s))); o {
	case OutcomeFavorCompletion, OutcomeFavorCancellation:
		return o, nil
	default:
		return "", fmt.Errorf("unknown dispute resolution %q", s)
	}
}

type Dispute struct {
	ID           string
	OrderID      string
	RaisedBy     string
	Reason       string
	Status       DisputeStatus
	StatusBefore OrderStatus

	// SettledAmount is what has been released while the dispute exists,
	// including tranches that were in flight when it was raised. Only
	// DisputedAmount is subject to resolution.
	SettledAmount  decimal.Decimal
	DisputedAmount decimal.Decimal

	Outcome        DisputeOutcome
	ArbitratorID   string
	ResolutionNote string

	CreatedAt  time.Time
	UpdatedAt  time.Time
	ResolvedAt *time.Time
}

func (d *Dispute) Clone() *Dispute {
	if d == nil {
		return nil
	}
	c := *d
	if d.ResolvedAt != nil {
		at := *d.ResolvedAt
		c.ResolvedAt = &at
	}
	return &c
}

// Resettle recomputes the settled and disputed split from the confirmed
// releases of an order with the given total.
func (d *Dispute) Resettle(total decimal.Decimal, releases []*Release) {
	d.SettledAmount = ReleasedAmount(releases)
	d.DisputedAmount = total.Sub(d.SettledAmount)
}

// PartiallySettled reports whether funds moved before the dispute.
func (d *Dispute) PartiallySettled() bool {
	return d.SettledAmount.IsPositive()
}
