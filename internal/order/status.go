package order

// Status is the fulfillment state of an order.
type Status string

const (
	StatusPending        Status = "pending"
	StatusConfirmed      Status = "confirmed"
	StatusPickupSchedule Status = "pickup_scheduled"
	StatusPickedUp       Status = "picked_up"
	StatusProcessing     Status = "processing"
	StatusReady          Status = "ready"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

// AllStatuses lists every accepted status value, in pipeline order.
var AllStatuses = []Status{
	StatusPending,
	StatusConfirmed,
	StatusPickupSchedule,
	StatusPickedUp,
	StatusProcessing,
	StatusReady,
	StatusOutForDelivery,
	StatusDelivered,
	StatusCancelled,
}

// ParseStatus validates a raw status string.
func ParseStatus(s string) (Status, bool) {
	for _, st := range AllStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

func (s Status) Valid() bool {
	_, ok := ParseStatus(string(s))
	return ok
}

// Terminal reports whether no further transition may leave s.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// transitions is the strict pipeline adjacency. Cancellation from
// non-terminal states is handled in CanTransition, not listed here.
var transitions = map[Status]Status{
	StatusPending:        StatusConfirmed,
	StatusConfirmed:      StatusPickupSchedule,
	StatusPickupSchedule: StatusPickedUp,
	StatusPickedUp:       StatusProcessing,
	StatusProcessing:     StatusReady,
	StatusReady:          StatusOutForDelivery,
	StatusOutForDelivery: StatusDelivered,
}

// CanTransition reports whether from -> to is legal under the strict
// adjacency policy. Setting the same status again is always allowed so
// that repeated updates stay idempotent.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	if from.Terminal() {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	return transitions[from] == to
}
