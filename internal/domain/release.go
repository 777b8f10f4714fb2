package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Milestone is an externally confirmed real-world event gating a release.
type Milestone string

const (
	MilestoneShipmentConfirmed Milestone = "shipment_confirmed"
	MilestoneDeliveryConfirmed Milestone = "delivery_confirmed"
)

func ParseMilestone(s string) (Milestone, error) {
	switch m := Milestone(strings.ToLower(strings.TrimSpace(s))); m {
	case MilestoneShipmentConfirmed, MilestoneDeliveryConfirmed:
		return m, nil
	default:
		return "", fmt.Errorf("unknown milestone %q", s)
	}
}

func (m Milestone) Tranche() Tranche {
	if m == MilestoneDeliveryConfirmed {
		return TrancheSecond
	}
	return TrancheFirst
}

// Tranche is one of the two scheduled partial fund releases. The value doubles
// as the tranche label sent to the settlement backend.
type Tranche string

const (
	TrancheFirst  Tranche = "tranche-1"
	TrancheSecond Tranche = "tranche-2"
)

type ReleaseState string

const (
	// ReleasePending is committed before the settlement backend is called.
	ReleasePending     ReleaseState = "PENDING"
	ReleaseConfirmed   ReleaseState = "CONFIRMED"
	ReleaseFailedState ReleaseState = "FAILED"
)

// Release is the per (order, tranche) settlement record.
type Release struct {
	ID            string
	OrderID       string
	Tranche       Tranche
	Amount        decimal.Decimal
	State         ReleaseState
	SettlementRef string
	Attempts      int
	LastError     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (r *Release) Clone() *Release {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

// FindRelease returns the release for a tranche, or nil.
func FindRelease(releases []*Release, t Tranche) *Release {
	for _, r := range releases {
		if r != nil && r.Tranche == t {
			return r
		}
	}
	return nil
}

// ReleasedAmount sums the confirmed releases.
func ReleasedAmount(releases []*Release) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range releases {
		if r != nil && r.State == ReleaseConfirmed {
			sum = sum.Add(r.Amount)
		}
	}
	return sum
}

// TrancheAmount computes the amount due for a tranche from the order total at
// call time. The first tranche is half the total rounded to cents, the second
// is whatever the first did not cover.
func TrancheAmount(total decimal.Decimal, t Tranche, first *Release) decimal.Decimal {
	half := total.Div(decimal.NewFromInt(2)).Round(2)
	if t == TrancheFirst {
		return half
	}
	if first != nil && first.State == ReleaseConfirmed {
		return total.Sub(first.Amount)
	}
	return total.Sub(half)
}
