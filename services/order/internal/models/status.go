package models

type Status string

const (
	StatusPending         Status = "pending"
	StatusAwaitingPayment Status = "awaiting_payment"
	StatusPaymentReceived Status = "payment_received"
	StatusVerified        Status = "verified"
	StatusShipped         Status = "shipped"
	StatusDelivered       Status = "delivered"
	StatusCancelled       Status = "cancelled"
)

// OpenStatuses are the states in which a buyer still owes payment or review.
var OpenStatuses = []Status{StatusAwaitingPayment, StatusPaymentReceived}

var validNext = map[Status]map[Status]bool{
	StatusPending:         {StatusAwaitingPayment: true, StatusCancelled: true},
	StatusAwaitingPayment: {StatusPaymentReceived: true, StatusVerified: true, StatusCancelled: true},
	StatusPaymentReceived: {StatusVerified: true, StatusCancelled: true},
	StatusVerified:        {StatusShipped: true, StatusCancelled: true},
	StatusShipped:         {StatusDelivered: true},
	StatusDelivered:       {},
	StatusCancelled:       {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func (s Status) Valid() bool {
	_, ok := validNext[s]
	return ok
}

func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

func (s Status) Open() bool {
	return s == StatusAwaitingPayment || s == StatusPaymentReceived
}
