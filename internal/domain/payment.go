package domain

// LineItem is a single checkout line. PriceID wins over the ad-hoc price data.
type LineItem struct {
	PriceID     string
	Quantity    int
	Currency    string
	ProductName string
	Description string
	Images      []string
	UnitAmount  int64 // minor units
}

type CheckoutRequest struct {
	LineItems     []LineItem
	ReturnURL     string
	CustomerEmail string
	Metadata      map[string]string
}

type CheckoutSession struct {
	ID            string
	ClientSecret  string
	Status        string // open | complete | expired
	PaymentStatus string // paid | unpaid | no_payment_required
	CustomerEmail string
	URL           string
	Metadata      map[string]string
}

const GatewayPaid = "paid"

func (s CheckoutSession) Paid() bool { return s.PaymentStatus == GatewayPaid }

// GatewayEvent is a verified webhook notification.
type GatewayEvent struct {
	ID       string
	Type     string
	ObjectID string
}

const (
	EventCheckoutCompleted     = "checkout.session.completed"
	EventAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
)
