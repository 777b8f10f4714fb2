package domain

import (
	"fmt"
	"strings"
	"time"
)

type BankRole string

const (
	BankRoleBuyer  BankRole = "BUYER"
	BankRoleSeller BankRole = "SELLER"
)

type ApprovalAction string

const (
	ActionApprove ApprovalAction = "approve"
	ActionReject  ApprovalAction = "reject"
)

func ParseApprovalAction(s string) (ApprovalAction, error) {
	switch a := ApprovalAction(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionApprove, ActionReject:
		return a, nil
	default:
		return "", fmt.Errorf("unknown approval action %q", s)
	}
}

// ApprovalState tracks whether a vote still counts.
type ApprovalState string

const (
	ApprovalActive     ApprovalState = "ACTIVE"
	ApprovalSuperseded ApprovalState = "SUPERSEDED"
	ApprovalMoot       ApprovalState = "MOOT"
)

type BankApproval struct {
	ID        string
	OrderID   string
	BankID    string
	Role      BankRole
	Action    ApprovalAction
	Comment   string
	State     ApprovalState
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ApprovalSet is the latest active vote per bank role.
type ApprovalSet map[BankRole]ApprovalAction

// LatestVotes projects the active approvals of an order onto one vote per
// role. When several rows are active for a role the newest one wins.
func LatestVotes(approvals []*BankApproval) ApprovalSet {
	votes := make(ApprovalSet, 2)
	newest := make(map[BankRole]time.Time, 2)
	for _, a := range approvals {
		if a == nil || a.State != ApprovalActive {
			continue
		}
		if at, ok := newest[a.Role]; ok && a.CreatedAt.Before(at) {
			continue
		}
		votes[a.Role] = a.Action
		newest[a.Role] = a.CreatedAt
	}
	return votes
}

func (s ApprovalSet) Approved(role BankRole) bool {
	return s[role] == ActionApprove
}

func (s ApprovalSet) BothApproved() bool {
	return s.Approved(BankRoleBuyer) && s.Approved(BankRoleSeller)
}

func (s ApprovalSet) AnyRejected() bool {
	return s[BankRoleBuyer] == ActionReject || s[BankRoleSeller] == ActionReject
}
