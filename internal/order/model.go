package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status of an order within its lifecycle. New is the initial state;
// Delivered and Canceled are terminal.
type Status string

const (
	StatusNew            Status = "New"
	StatusConfirmed      Status = "Confirmed"
	StatusPreparing      Status = "Preparing"
	StatusReady          Status = "Ready"
	StatusOutForDelivery Status = "OutForDelivery"
	StatusDelivered      Status = "Delivered"
	StatusCanceled       Status = "Canceled"
)

// statusRank gives each status on the delivery path its forward position.
// Canceled sits outside the sequence.
var statusRank = map[Status]int{
	StatusNew:            0,
	StatusConfirmed:      1,
	StatusPreparing:      2,
	StatusReady:          3,
	StatusOutForDelivery: 4,
	StatusDelivered:      5,
}

func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok || s == StatusCanceled
}

func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCanceled
}

// Display returns the human-readable status string used by read projections.
func (s Status) Display() string { return string(s) }

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "Cash"
	PaymentCard   PaymentMethod = "Card"
	PaymentOnline PaymentMethod = "Online"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentOnline:
		return true
	}
	return false
}

// Payment status vocabulary. Used verbatim on both write and read paths;
// the daily-revenue query filters on PaymentCompleted.
const (
	PaymentPending   = "Pending"
	PaymentCompleted = "Completed"
	PaymentFailed    = "Failed"
)

type Source string

const (
	SourceWebsite    Source = "Website"
	SourcePhone      Source = "Phone"
	SourceThirdParty Source = "ThirdParty"
)

// Order is the aggregate: header plus owned line items, one consistency unit.
// Monetary fields are NUMERIC(18,2) in Postgres and always satisfy
// Total = Subtotal + DeliveryFee + Tax - Discount.
type Order struct {
	ID     int64  `json:"id"`
	Number string `json:"number"`
	Status Status `json:"status"`

	OrderedAt  time.Time  `json:"ordered_at"`
	RequiredBy *time.Time `json:"required_by,omitempty"`

	ConfirmedAt  *time.Time `json:"confirmed_at,omitempty"`
	PreparingAt  *time.Time `json:"preparing_at,omitempty"`
	ReadyAt      *time.Time `json:"ready_at,omitempty"`
	DispatchedAt *time.Time `json:"dispatched_at,omitempty"`
	DeliveredAt  *time.Time `json:"delivered_at,omitempty"`
	CanceledAt   *time.Time `json:"canceled_at,omitempty"`

	ConfirmedBy string `json:"confirmed_by,omitempty"`

	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	Tax         decimal.Decimal `json:"tax"`
	Discount    decimal.Decimal `json:"discount"`
	Total       decimal.Decimal `json:"total"`

	EstimatedMinutes *int `json:"estimated_minutes,omitempty"`

	PaymentMethod PaymentMethod `json:"payment_method,omitempty"`
	PaymentStatus string        `json:"payment_status"`
	TransactionID string        `json:"transaction_id,omitempty"`

	Notes  string `json:"notes,omitempty"`
	Source Source `json:"source"`

	CustomerID       string `json:"customer_id"`
	AddressID        int64  `json:"address_id"`
	DeliveryPersonID string `json:"delivery_person_id,omitempty"`

	// Version is the optimistic-concurrency stamp; bumped on every update.
	Version int64 `json:"-"`

	Lines []Line `json:"lines"`

	// Joined display fields, populated on reads only.
	CustomerName       string `json:"customer_name,omitempty"`
	AddressText        string `json:"address_text,omitempty"`
	DeliveryPersonName string `json:"delivery_person_name,omitempty"`
}

// Line is one product/quantity/price entry belonging to an order.
// UnitPrice is captured at order time and never re-read from the catalog.
type Line struct {
	ID           int64           `json:"id"`
	OrderID      int64           `json:"order_id"`
	ProductID    int64           `json:"product_id"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Instructions string          `json:"instructions,omitempty"`

	ProductName string `json:"product_name,omitempty"`
}

// NewOrder builds an order with creation defaults applied.
func NewOrder(customerID string, addressID int64, source Source, now time.Time) *Order {
	if source == "" {
		source = SourceWebsite
	}
	return &Order{
		Number:        NewNumber(now),
		Status:        StatusNew,
		OrderedAt:     now.UTC(),
		PaymentStatus: PaymentPending,
		Discount:      decimal.Zero,
		Source:        source,
		CustomerID:    customerID,
		AddressID:     addressID,
	}
}

// Recalculate re-derives every line subtotal and the header totals from the
// current line set and fee fields. Every mutation path must end here.
func (o *Order) Recalculate() {
	for i := range o.Lines {
		o.Lines[i].Subtotal = lineSubtotal(o.Lines[i].Quantity, o.Lines[i].UnitPrice)
	}
	o.Subtotal, o.Total = Totals(o.Lines, o.DeliveryFee, o.Tax, o.Discount)
}

// AddLine appends a line item and recalculates. Status preconditions are
// the service's concern.
func (o *Order) AddLine(productID int64, quantity int, unitPrice decimal.Decimal, instructions string) {
	o.Lines = append(o.Lines, Line{
		OrderID:      o.ID,
		ProductID:    productID,
		Quantity:     quantity,
		UnitPrice:    unitPrice,
		Instructions: instructions,
	})
	o.Recalculate()
}

// RemoveLine removes the line for productID and recalculates.
// Returns false when no line references that product.
func (o *Order) RemoveLine(productID int64) bool {
	for i := range o.Lines {
		if o.Lines[i].ProductID == productID {
			o.Lines = append(o.Lines[:i], o.Lines[i+1:]...)
			o.Recalculate()
			return true
		}
	}
	return false
}
