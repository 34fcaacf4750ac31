package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"resto-orders/internal/address"
	"resto-orders/internal/customer"
	"resto-orders/internal/product"
)

// ConfirmDeliveryFee is the standard fee applied at confirmation or dispatch
// when the order was created without one. It is persisted and the total
// recomputed, so storage and projections agree.
var ConfirmDeliveryFee = decimal.NewFromInt(50)

const (
	maxNotesLen        = 1000
	maxInstructionsLen = 500
)

// Service is the fulfillment coordinator: it owns every order lifecycle
// operation, calling the status machine and totals calculator and persisting
// through the repository. Authorization is the caller's concern.
type Service struct {
	orders    Repository
	customers customer.Repository
	addresses address.Repository
	products  product.Repository
	now       func() time.Time
}

func NewService(orders Repository, customers customer.Repository, addresses address.Repository, products product.Repository) *Service {
	return &Service{
		orders:    orders,
		customers: customers,
		addresses: addresses,
		products:  products,
		now:       time.Now,
	}
}

func (s *Service) load(ctx context.Context, id int64) (*Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("load order %d: %w", id, err)
	}
	return o, nil
}

// Create places a new order. Duplicate product requests are merged: grouped
// by product id, quantities summed, first-seen unit price kept.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Response, error) {
	if req.CustomerID == "" || req.AddressID <= 0 {
		return Response{}, fmt.Errorf("%w: customer and address are required", ErrValidation)
	}
	if len(req.Lines) == 0 {
		return Response{}, fmt.Errorf("%w: order must have at least one line", ErrValidation)
	}
	for _, l := range req.Lines {
		if l.Quantity < 1 {
			return Response{}, fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
		}
		if !l.UnitPrice.IsPositive() {
			return Response{}, fmt.Errorf("%w: unit price must be positive", ErrValidation)
		}
		if len(l.Instructions) > maxInstructionsLen {
			return Response{}, fmt.Errorf("%w: instructions exceed %d characters", ErrValidation, maxInstructionsLen)
		}
	}
	if req.Discount.IsNegative() || req.Tax.IsNegative() || req.DeliveryFee.IsNegative() {
		return Response{}, fmt.Errorf("%w: fees must be non-negative", ErrValidation)
	}

	cust, err := s.customers.GetByID(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			return Response{}, fmt.Errorf("%w: customer %s", ErrNotFound, req.CustomerID)
		}
		return Response{}, fmt.Errorf("create order: %w", err)
	}
	addr, err := s.addresses.GetByID(ctx, req.AddressID)
	if err != nil {
		if errors.Is(err, address.ErrNotFound) {
			return Response{}, fmt.Errorf("%w: address %d", ErrNotFound, req.AddressID)
		}
		return Response{}, fmt.Errorf("create order: %w", err)
	}

	o := NewOrder(req.CustomerID, req.AddressID, req.Source, s.now())
	o.DeliveryFee = req.DeliveryFee
	o.Tax = req.Tax
	o.Discount = req.Discount

	for _, l := range mergeLines(req.Lines) {
		p, err := s.products.GetByID(ctx, l.ProductID)
		if err != nil {
			if errors.Is(err, product.ErrNotFound) {
				return Response{}, fmt.Errorf("%w: product %d", ErrNotFound, l.ProductID)
			}
			return Response{}, fmt.Errorf("create order: %w", err)
		}
		o.Lines = append(o.Lines, Line{
			ProductID:    l.ProductID,
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice,
			Instructions: l.Instructions,
			ProductName:  p.Name,
		})
	}
	o.Recalculate()

	if err := s.orders.Create(ctx, o); err != nil {
		return Response{}, fmt.Errorf("create order: %w", err)
	}
	o.CustomerName = cust.Name
	o.AddressText = addr.Format()
	return Project(o), nil
}

// mergeLines collapses duplicate product ids, summing quantities and keeping
// the first-seen unit price. First-seen request order is preserved.
func mergeLines(lines []CreateLineRequest) []CreateLineRequest {
	merged := make([]CreateLineRequest, 0, len(lines))
	index := make(map[int64]int, len(lines))
	for _, l := range lines {
		if i, ok := index[l.ProductID]; ok {
			merged[i].Quantity += l.Quantity
			continue
		}
		index[l.ProductID] = len(merged)
		merged = append(merged, l)
	}
	return merged
}

// Confirm moves the order to Confirmed, records the confirming staff member
// and applies the standard delivery fee with a recomputed total.
func (s *Service) Confirm(ctx context.Context, id int64, staffID string, req ConfirmRequest) (Response, error) {
	if staffID == "" {
		return Response{}, fmt.Errorf("%w: confirming staff id is required", ErrValidation)
	}
	if len(req.Notes) > maxNotesLen {
		return Response{}, fmt.Errorf("%w: notes exceed %d characters", ErrValidation, maxNotesLen)
	}
	o, err := s.load(ctx, id)
	if err != nil {
		return Response{}, err
	}
	if err := Apply(o, StatusConfirmed, s.now()); err != nil {
		return Response{}, err
	}
	o.ConfirmedBy = staffID
	if req.RequiredBy != nil {
		o.RequiredBy = req.RequiredBy
	}
	if req.Notes != "" {
		o.Notes = req.Notes
	}
	if o.DeliveryFee.IsZero() {
		o.DeliveryFee = ConfirmDeliveryFee
	}
	o.Recalculate()

	if err := s.orders.Update(ctx, o); err != nil {
		return Response{}, fmt.Errorf("confirm order %d: %w", id, err)
	}
	return Project(o), nil
}

// StartPreparing marks the kitchen as having picked the order up.
func (s *Service) StartPreparing(ctx context.Context, id int64) (Response, error) {
	return s.transition(ctx, id, StatusPreparing)
}

// MarkPrepared marks the order ready for dispatch.
func (s *Service) MarkPrepared(ctx context.Context, id int64) (Response, error) {
	return s.transition(ctx, id, StatusReady)
}

// MarkDelivered completes the delivery.
func (s *Service) MarkDelivered(ctx context.Context, id int64) (Response, error) {
	return s.transition(ctx, id, StatusDelivered)
}

func (s *Service) transition(ctx context.Context, id int64, target Status) (Response, error) {
	o, err := s.load(ctx, id)
	if err != nil {
		return Response{}, err
	}
	if err := Apply(o, target, s.now()); err != nil {
		return Response{}, err
	}
	if err := s.orders.Update(ctx, o); err != nil {
		return Response{}, fmt.Errorf("update order %d status: %w", id, err)
	}
	return Project(o), nil
}

// AssignDeliveryPerson hands the order to a delivery person and dispatches it.
// The id is not validated against a roster; roster management is out of scope.
func (s *Service) AssignDeliveryPerson(ctx context.Context, id int64, personID string) (Response, error) {
	if personID == "" {
		return Response{}, fmt.Errorf("%w: delivery person id is required", ErrValidation)
	}
	o, err := s.load(ctx, id)
	if err != nil {
		return Response{}, err
	}
	if err := Apply(o, StatusOutForDelivery, s.now()); err != nil {
		return Response{}, err
	}
	o.DeliveryPersonID = personID
	if o.DeliveryFee.IsZero() {
		o.DeliveryFee = ConfirmDeliveryFee
	}
	o.Recalculate()

	if err := s.orders.Update(ctx, o); err != nil {
		return Response{}, fmt.Errorf("assign delivery person to order %d: %w", id, err)
	}
	return Project(o), nil
}

// Cancel aborts a non-terminal order, appending the reason to any existing
// notes.
func (s *Service) Cancel(ctx context.Context, id int64, reason string) (Response, error) {
	o, err := s.load(ctx, id)
	if err != nil {
		return Response{}, err
	}
	if err := Apply(o, StatusCanceled, s.now()); err != nil {
		return Response{}, err
	}
	line := "Cancellation reason: " + reason
	if o.Notes == "" {
		o.Notes = line
	} else {
		o.Notes = o.Notes + "\n" + line
	}
	if err := s.orders.Update(ctx, o); err != nil {
		return Response{}, fmt.Errorf("cancel order %d: %w", id, err)
	}
	return Project(o), nil
}

// ProcessPayment records the chosen method. Cash stays Pending until
// delivery; every other method completes immediately with a fresh
// transaction id.
func (s *Service) ProcessPayment(ctx context.Context, id int64, method PaymentMethod) (Response, error) {
	if !method.Valid() {
		return Response{}, fmt.Errorf("%w: unknown payment method %q", ErrValidation, method)
	}
	o, err := s.load(ctx, id)
	if err != nil {
		return Response{}, err
	}
	o.PaymentMethod = method
	if method == PaymentCash {
		o.PaymentStatus = PaymentPending
	} else {
		o.PaymentStatus = PaymentCompleted
		o.TransactionID = uuid.NewString()
	}
	if err := s.orders.Update(ctx, o); err != nil {
		return Response{}, fmt.Errorf("process payment for order %d: %w", id, err)
	}
	return Project(o), nil
}

// UpdatePaymentStatus sets the payment status directly (settlement webhooks,
// cash handover on delivery).
func (s *Service) UpdatePaymentStatus(ctx context.Context, id int64, status string) (Response, error) {
	switch status {
	case PaymentPending, PaymentCompleted, PaymentFailed:
	default:
		return Response{}, fmt.Errorf("%w: unknown payment status %q", ErrValidation, status)
	}
	o, err := s.load(ctx, id)
	if err != nil {
		return Response{}, err
	}
	o.PaymentStatus = status
	if err := s.orders.Update(ctx, o); err != nil {
		return Response{}, fmt.Errorf("update payment status for order %d: %w", id, err)
	}
	return Project(o), nil
}

// Update applies a sparse patch: only supplied fields change. The status
// field is set verbatim without transition stamps; lifecycle endpoints are
// the stamped path.
func (s *Service) Update(ctx context.Context, id int64, patch UpdateRequest) (Response, error) {
	if patch.Status != "" && !patch.Status.Valid() {
		return Response{}, fmt.Errorf("%w: unknown status %q", ErrValidation, patch.Status)
	}
	if len(patch.Notes) > maxNotesLen {
		return Response{}, fmt.Errorf("%w: notes exceed %d characters", ErrValidation, maxNotesLen)
	}
	o, err := s.load(ctx, id)
	if err != nil {
		return Response{}, err
	}
	if patch.Status != "" {
		o.Status = patch.Status
	}
	if patch.PaymentStatus != "" {
		o.PaymentStatus = patch.PaymentStatus
	}
	if patch.DeliveryPersonID != "" {
		o.DeliveryPersonID = patch.DeliveryPersonID
	}
	if patch.Notes != "" {
		o.Notes = patch.Notes
	}
	if err := s.orders.Update(ctx, o); err != nil {
		return Response{}, fmt.Errorf("update order %d: %w", id, err)
	}
	return Project(o), nil
}

// AddItem appends a line item to an order still in New and recomputes totals.
func (s *Service) AddItem(ctx context.Context, id int64, req AddItemRequest) (Response, error) {
	if req.Quantity < 1 {
		return Response{}, fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
	}
	if !req.UnitPrice.IsPositive() {
		return Response{}, fmt.Errorf("%w: unit price must be positive", ErrValidation)
	}
	if len(req.Instructions) > maxInstructionsLen {
		return Response{}, fmt.Errorf("%w: instructions exceed %d characters", ErrValidation, maxInstructionsLen)
	}
	o, err := s.load(ctx, id)
	if err != nil {
		return Response{}, err
	}
	if o.Status != StatusNew {
		return Response{}, fmt.Errorf("%w: items cannot change after confirmation", ErrInvalidOperation)
	}
	p, err := s.products.GetByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return Response{}, fmt.Errorf("%w: product %d", ErrNotFound, req.ProductID)
		}
		return Response{}, fmt.Errorf("add item to order %d: %w", id, err)
	}
	o.AddLine(req.ProductID, req.Quantity, req.UnitPrice, req.Instructions)
	o.Lines[len(o.Lines)-1].ProductName = p.Name

	if err := s.orders.Update(ctx, o); err != nil {
		return Response{}, fmt.Errorf("add item to order %d: %w", id, err)
	}
	return Project(o), nil
}

// RemoveItem drops the line for productID from an order still in New.
func (s *Service) RemoveItem(ctx context.Context, id int64, productID int64) (Response, error) {
	o, err := s.load(ctx, id)
	if err != nil {
		return Response{}, err
	}
	if o.Status != StatusNew {
		return Response{}, fmt.Errorf("%w: items cannot change after confirmation", ErrInvalidOperation)
	}
	if !o.RemoveLine(productID) {
		return Response{}, fmt.Errorf("%w: product %d not in order", ErrNotFound, productID)
	}
	if err := s.orders.Update(ctx, o); err != nil {
		return Response{}, fmt.Errorf("remove item from order %d: %w", id, err)
	}
	return Project(o), nil
}

// Delete removes an order and its lines permanently.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.orders.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: id %d", ErrNotFound, id)
		}
		return fmt.Errorf("delete order %d: %w", id, err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (Response, error) {
	o, err := s.load(ctx, id)
	if err != nil {
		return Response{}, err
	}
	return Project(o), nil
}

func (s *Service) List(ctx context.Context) ([]Response, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return ProjectAll(orders), nil
}

func (s *Service) ListByStatus(ctx context.Context, status Status) ([]Response, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	orders, err := s.orders.ListByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list orders by status: %w", err)
	}
	return ProjectAll(orders), nil
}

func (s *Service) ListByCustomer(ctx context.Context, customerID string) ([]Response, error) {
	orders, err := s.orders.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("list orders by customer: %w", err)
	}
	return ProjectAll(orders), nil
}

func (s *Service) ListByDeliveryPerson(ctx context.Context, personID string) ([]Response, error) {
	orders, err := s.orders.ListByDeliveryPerson(ctx, personID)
	if err != nil {
		return nil, fmt.Errorf("list orders by delivery person: %w", err)
	}
	return ProjectAll(orders), nil
}

// PendingDelivery is the dispatch queue: confirmed but not yet delivered.
func (s *Service) PendingDelivery(ctx context.Context) ([]Response, error) {
	orders, err := s.orders.ListPendingDelivery(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending deliveries: %w", err)
	}
	return ProjectAll(orders), nil
}

// KitchenQueue is what the kitchen still has to cook.
func (s *Service) KitchenQueue(ctx context.Context) ([]Response, error) {
	orders, err := s.orders.ListKitchenQueue(ctx)
	if err != nil {
		return nil, fmt.Errorf("list kitchen queue: %w", err)
	}
	return ProjectAll(orders), nil
}

func (s *Service) CountByStatus(ctx context.Context, status Status) (int, error) {
	if !status.Valid() {
		return 0, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	n, err := s.orders.CountByStatus(ctx, status)
	if err != nil {
		return 0, fmt.Errorf("count orders by status: %w", err)
	}
	return n, nil
}

func (s *Service) DailyRevenue(ctx context.Context, day time.Time) (decimal.Decimal, error) {
	rev, err := s.orders.DailyRevenue(ctx, day)
	if err != nil {
		return decimal.Zero, fmt.Errorf("daily revenue: %w", err)
	}
	return rev, nil
}

// Stats aggregates per-status counts plus total and daily revenue.
func (s *Service) Stats(ctx context.Context, day time.Time) (Stats, error) {
	counts, err := s.orders.StatusCounts(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("order stats: %w", err)
	}
	total, err := s.orders.TotalRevenue(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("order stats: %w", err)
	}
	daily, err := s.orders.DailyRevenue(ctx, day)
	if err != nil {
		return Stats{}, fmt.Errorf("order stats: %w", err)
	}
	st := Stats{
		NewOrders:      counts[StatusNew],
		Confirmed:      counts[StatusConfirmed],
		Preparing:      counts[StatusPreparing],
		Ready:          counts[StatusReady],
		OutForDelivery: counts[StatusOutForDelivery],
		Delivered:      counts[StatusDelivered],
		Canceled:       counts[StatusCanceled],
		TotalRevenue:   total,
		DailyRevenue:   daily,
	}
	for _, n := range counts {
		st.TotalOrders += n
	}
	return st, nil
}
