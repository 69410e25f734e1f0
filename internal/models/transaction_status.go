package models

// TransactionStatus is the lifecycle state of a payment attempt.
type TransactionStatus string

const (
	TransactionStatusInitiated TransactionStatus = "INITIATED"
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusSuccess   TransactionStatus = "SUCCESS"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

// TransitionSource identifies who observed the status being applied.
type TransitionSource string

const (
	// TransitionSourceCreate is the gateway's synchronous answer to order creation.
	TransitionSourceCreate      TransitionSource = "create"
	TransitionSourceCallback    TransitionSource = "callback"
	TransitionSourceStatusQuery TransitionSource = "status_query"
	TransitionSourceAdmin       TransitionSource = "admin"
)

var transitions = map[TransactionStatus][]TransactionStatus{
	TransactionStatusInitiated: {TransactionStatusPending, TransactionStatusFailed, TransactionStatusSuccess},
	TransactionStatusPending:   {TransactionStatusPending, TransactionStatusSuccess, TransactionStatusFailed},
	TransactionStatusSuccess:   nil,
	TransactionStatusFailed:    nil,
}

func (s TransactionStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal reports whether no further transition is permitted.
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusSuccess || s == TransactionStatusFailed
}

// CanTransitionTo reports whether s -> next is a legal edge.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	for _, to := range transitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

// MaySet reports whether a source is allowed to drive a transaction into next.
// Order creation only proves the gateway accepted the order, never that money moved.
func (src TransitionSource) MaySet(next TransactionStatus) bool {
	switch src {
	case TransitionSourceCreate:
		return next == TransactionStatusFailed
	case TransitionSourceCallback, TransitionSourceStatusQuery:
		return next == TransactionStatusPending || next == TransactionStatusSuccess || next == TransactionStatusFailed
	case TransitionSourceAdmin:
		return next == TransactionStatusSuccess
	default:
		return false
	}
}
