package orders

type OrderStatus string

const (
	OrderReceived  OrderStatus = "Received"
	OrderToDeliver OrderStatus = "To Deliver"
	OrderDelivered OrderStatus = "Delivered"
	OrderCancelled OrderStatus = "Cancelled"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "Pending"
	PaymentRequested PaymentStatus = "Requested"
	PaymentCompleted PaymentStatus = "Completed"
)

// Statuses are free-form: any value may replace any other. These lists only
// drive dashboard filters and the assistant's tool schemas.
var (
	KnownOrderStatuses   = []OrderStatus{OrderReceived, OrderToDeliver, OrderDelivered, OrderCancelled}
	KnownPaymentStatuses = []PaymentStatus{PaymentPending, PaymentRequested, PaymentCompleted}
)
