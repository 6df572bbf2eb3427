package model

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// orderTransitions lists, for each status, the statuses it may move to.
// Cancellation is only possible before shipment.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:    {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped: {OrderStatusDelivered},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusSuccessful PaymentStatus = "successful"
	PaymentStatusFailed     PaymentStatus = "failed"
)

// Terminal payment states are sticky.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusSuccessful || s == PaymentStatusFailed
}

func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	return s == PaymentStatusPending && next.Terminal()
}

// PaymentStatusesBefore lists the statuses a payment may move to next from.
func PaymentStatusesBefore(next PaymentStatus) []PaymentStatus {
	var from []PaymentStatus
	for _, s := range []PaymentStatus{PaymentStatusPending, PaymentStatusSuccessful, PaymentStatusFailed} {
		if s.CanTransitionTo(next) {
			from = append(from, s)
		}
	}
	return from
}
