package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateLineRequest is one requested line item.
// swagger:model CreateLineRequest
type CreateLineRequest struct {
	ProductID    int64           `json:"product_id" example:"7"`
	Quantity     int             `json:"quantity"   example:"2"`
	UnitPrice    decimal.Decimal `json:"unit_price" example:"10.00"`
	Instructions string          `json:"instructions,omitempty"`
}

// CreateRequest is the order-creation payload. Duplicate product ids are
// merged: quantities summed, first-seen unit price wins.
// swagger:model CreateOrderRequest
type CreateRequest struct {
	CustomerID  string              `json:"customer_id"`
	AddressID   int64               `json:"address_id"`
	Discount    decimal.Decimal     `json:"discount"`
	Tax         decimal.Decimal     `json:"tax"`
	DeliveryFee decimal.Decimal     `json:"delivery_fee"`
	Source      Source              `json:"source,omitempty"`
	Lines       []CreateLineRequest `json:"lines"`
}

// ConfirmRequest carries the optional overrides accepted at confirmation.
// swagger:model ConfirmOrderRequest
type ConfirmRequest struct {
	Notes      string     `json:"notes,omitempty"`
	RequiredBy *time.Time `json:"required_by,omitempty"`
}

// UpdateRequest is a sparse patch: only non-zero fields are applied.
// swagger:model UpdateOrderRequest
type UpdateRequest struct {
	Status           Status `json:"status,omitempty"`
	PaymentStatus    string `json:"payment_status,omitempty"`
	DeliveryPersonID string `json:"delivery_person_id,omitempty"`
	Notes            string `json:"notes,omitempty"`
}

// AddItemRequest adds one line to an order still in New.
// swagger:model AddItemRequest
type AddItemRequest struct {
	ProductID    int64           `json:"product_id"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Instructions string          `json:"instructions,omitempty"`
}

// Response is the order read projection returned by every operation.
// swagger:model OrderResponse
type Response struct {
	Order
	StatusDisplay string `json:"status_display"`
}

func Project(o *Order) Response {
	return Response{Order: *o, StatusDisplay: o.Status.Display()}
}

func ProjectAll(orders []Order) []Response {
	out := make([]Response, 0, len(orders))
	for i := range orders {
		out = append(out, Project(&orders[i]))
	}
	return out
}

// Stats aggregates per-status counts and revenue for staff dashboards.
// swagger:model OrderStats
type Stats struct {
	TotalOrders    int             `json:"total_orders"`
	NewOrders      int             `json:"new_orders"`
	Confirmed      int             `json:"confirmed_orders"`
	Preparing      int             `json:"preparing_orders"`
	Ready          int             `json:"ready_orders"`
	OutForDelivery int             `json:"out_for_delivery_orders"`
	Delivered      int             `json:"delivered_orders"`
	Canceled       int             `json:"canceled_orders"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	DailyRevenue   decimal.Decimal `json:"daily_revenue"`
}
