package domain

// Event is an input to the order state machine.
type Event string

const (
	EventPaymentConfirmed          Event = "payment_confirmed"
	EventBothBanksApproved         Event = "both_banks_approved"
	EventBankRejected              Event = "bank_rejected"
	EventDeliveryConfirmed         Event = "delivery_confirmed"
	EventDisputeRaised             Event = "dispute_raised"
	EventResolvedFavorCompletion   Event = "resolved_favor_completion"
	EventResolvedFavorCancellation Event = "resolved_favor_cancellation"
)

// AllEvents lists every state machine event.
var AllEvents = []Event{
	EventPaymentConfirmed,
	EventBothBanksApproved,
	EventBankRejected,
	EventDeliveryConfirmed,
	EventDisputeRaised,
	EventResolvedFavorCompletion,
	EventResolvedFavorCancellation,
}

// GuardInputs carries the facts guards are evaluated against.
type GuardInputs struct {
	PaymentReference string
	Votes            ApprovalSet
	ArbitratorID     string
}

// Transition returns the status the order moves to on event, or an
// IllegalTransition error. It never mutates the order; callers persist the
// result inside their own locked scope.
func Transition(order *Order, event Event, in GuardInputs) (OrderStatus, error) {
	from := order.Status
	illegal := func(reason string) (OrderStatus, error) {
		return from, IllegalTransition(order.ID, from, event, reason)
	}

	switch from {
	case StatusAwaitingPayment:
		switch event {
		case EventPaymentConfirmed:
			if in.PaymentReference == "" {
				return illegal("payment reference is missing")
			}
			return StatusBankReview, nil
		case EventDisputeRaised:
			return StatusDisputed, nil
		}
	case StatusBankReview:
		switch event {
		case EventBothBanksApproved:
			if !in.Votes.BothApproved() {
				return illegal("both banks must approve")
			}
			return StatusInTransit, nil
		case EventBankRejected:
			if !in.Votes.AnyRejected() {
				return illegal("no bank rejected the order")
			}
			return StatusCancelled, nil
		case EventDisputeRaised:
			return StatusDisputed, nil
		}
	case StatusInTransit:
		switch event {
		case EventDeliveryConfirmed:
			return StatusDelivered, nil
		case EventDisputeRaised:
			return StatusDisputed, nil
		}
	case StatusDisputed:
		switch event {
		case EventResolvedFavorCompletion:
			if in.ArbitratorID == "" {
				return illegal("arbitrator decision is not recorded")
			}
			if order.SecondTrancheRef != "" {
				return StatusDelivered, nil
			}
			return StatusInTransit, nil
		case EventResolvedFavorCancellation:
			return StatusCancelled, nil
		}
	case StatusDelivered, StatusCancelled:
		return illegal("order is in a terminal status")
	}
	return illegal("")
}
