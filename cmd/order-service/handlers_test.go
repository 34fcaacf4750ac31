package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"resto-orders/internal/address"
	"resto-orders/internal/customer"
	"resto-orders/internal/order"
	"resto-orders/internal/product"
)

//
// ---------- STUBS & FAKES ----------
//

// stubRepo implements order.Repository in memory.
type stubRepo struct {
	orders map[int64]*order.Order
	nextID int64
}

func newStubRepo() *stubRepo { return &stubRepo{orders: make(map[int64]*order.Order)} }

func clone(o *order.Order) *order.Order {
	cp := *o
	cp.Lines = append([]order.Line(nil), o.Lines...)
	return &cp
}

func (s *stubRepo) Create(ctx context.Context, o *order.Order) error {
	s.nextID++
	o.ID = s.nextID
	o.Version = 1
	s.orders[o.ID] = clone(o)
	return nil
}

func (s *stubRepo) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return clone(o), nil
}

func (s *stubRepo) Update(ctx context.Context, o *order.Order) error {
	cur, ok := s.orders[o.ID]
	if !ok {
		return order.ErrNotFound
	}
	if cur.Version != o.Version {
		return order.ErrConflict
	}
	o.Version++
	s.orders[o.ID] = clone(o)
	return nil
}

func (s *stubRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := s.orders[id]; !ok {
		return order.ErrNotFound
	}
	delete(s.orders, id)
	return nil
}

func (s *stubRepo) all() []order.Order {
	out := make([]order.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, *clone(o))
	}
	return out
}

func (s *stubRepo) List(ctx context.Context) ([]order.Order, error) { return s.all(), nil }

func (s *stubRepo) ListByStatus(ctx context.Context, st order.Status) ([]order.Order, error) {
	var out []order.Order
	for _, o := range s.all() {
		if o.Status == st {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *stubRepo) ListByCustomer(ctx context.Context, customerID string) ([]order.Order, error) {
	var out []order.Order
	for _, o := range s.all() {
		if o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *stubRepo) ListByDeliveryPerson(ctx context.Context, personID string) ([]order.Order, error) {
	var out []order.Order
	for _, o := range s.all() {
		if o.DeliveryPersonID == personID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *stubRepo) ListPendingDelivery(ctx context.Context) ([]order.Order, error) {
	var out []order.Order
	for _, o := range s.all() {
		switch o.Status {
		case order.StatusConfirmed, order.StatusPreparing, order.StatusReady, order.StatusOutForDelivery:
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *stubRepo) ListKitchenQueue(ctx context.Context) ([]order.Order, error) {
	var out []order.Order
	for _, o := range s.all() {
		if o.Status == order.StatusConfirmed || o.Status == order.StatusPreparing {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *stubRepo) CountByStatus(ctx context.Context, st order.Status) (int, error) {
	n := 0
	for _, o := range s.orders {
		if o.Status == st {
			n++
		}
	}
	return n, nil
}

func (s *stubRepo) StatusCounts(ctx context.Context) (map[order.Status]int, error) {
	counts := make(map[order.Status]int)
	for _, o := range s.orders {
		counts[o.Status]++
	}
	return counts, nil
}

func (s *stubRepo) DailyRevenue(ctx context.Context, day time.Time) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (s *stubRepo) TotalRevenue(ctx context.Context) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

type fakeCustomers struct{}

func (fakeCustomers) GetByID(ctx context.Context, id string) (*customer.Customer, error) {
	if id == "cust-1" {
		return &customer.Customer{ID: id, Name: "Alice Moreno", Email: "alice@example.com"}, nil
	}
	return nil, customer.ErrNotFound
}

type fakeAddresses struct{}

func (fakeAddresses) GetByID(ctx context.Context, id int64) (*address.Address, error) {
	if id == 1 {
		return &address.Address{ID: 1, UserID: "cust-1", Street: "12 Via Roma", City: "Lisbon"}, nil
	}
	return nil, address.ErrNotFound
}

type fakeProducts struct{}

func (fakeProducts) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	if id == 7 {
		return &product.Product{ID: 7, Name: "Margherita", Price: decimal.RequireFromString("10.00"), Available: true}, nil
	}
	return nil, product.ErrNotFound
}

func newTestRouter() (*gin.Engine, *stubRepo) {
	repo := newStubRepo()
	svc := order.NewService(repo, fakeCustomers{}, fakeAddresses{}, fakeProducts{})
	gin.SetMode(gin.TestMode)
	r := gin.New()
	registerRoutes(r, svc)
	return r, repo
}

func createOrderBody() string {
	return `{"customer_id":"cust-1","address_id":1,"tax":"1.00","delivery_fee":"5.00","discount":"0",
		"lines":[{"product_id":7,"quantity":2,"unit_price":"10.00"}]}`
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

//
// ---------- TESTS ----------
//

func TestCreateOrder_HappyPath(t *testing.T) {
	t.Parallel()
	r, repo := newTestRouter()

	w := doJSON(r, http.MethodPost, "/orders", createOrderBody())
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if len(repo.orders) != 1 {
		t.Fatalf("order was not persisted")
	}

	var res order.Response
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if res.Status != order.StatusNew || res.StatusDisplay != "New" {
		t.Fatalf("status=%q display=%q", res.Status, res.StatusDisplay)
	}
	if !res.Total.Equal(decimal.RequireFromString("26.00")) {
		t.Fatalf("total=%s, expected 26.00", res.Total)
	}
	if !strings.HasPrefix(res.Number, "ORD-") {
		t.Fatalf("number=%q", res.Number)
	}
}

func TestCreateOrder_UnknownProduct(t *testing.T) {
	t.Parallel()
	r, _ := newTestRouter()

	body := `{"customer_id":"cust-1","address_id":1,"lines":[{"product_id":404,"quantity":1,"unit_price":"9.00"}]}`
	w := doJSON(r, http.MethodPost, "/orders", body)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d body=%s (expected 404)", w.Code, w.Body.String())
	}
}

func TestCreateOrder_EmptyLines(t *testing.T) {
	t.Parallel()
	r, _ := newTestRouter()

	body := `{"customer_id":"cust-1","address_id":1,"lines":[]}`
	w := doJSON(r, http.MethodPost, "/orders", body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s (expected 400)", w.Code, w.Body.String())
	}
}

func TestGetOrder_NotFound(t *testing.T) {
	t.Parallel()
	r, _ := newTestRouter()

	w := doJSON(r, http.MethodGet, "/orders/42", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d body=%s (expected 404)", w.Code, w.Body.String())
	}
}

func TestConfirmThenAddItem_Rejected(t *testing.T) {
	t.Parallel()
	r, _ := newTestRouter()

	w := doJSON(r, http.MethodPost, "/orders", createOrderBody())
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status=%d body=%s", w.Code, w.Body.String())
	}
	var created order.Response
	_ = json.Unmarshal(w.Body.Bytes(), &created)

	wc := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/orders/%d/confirm", created.ID), nil)
	req.Header.Set("X-Staff-ID", "staff-s")
	r.ServeHTTP(wc, req)
	if wc.Code != http.StatusOK {
		t.Fatalf("confirm: status=%d body=%s", wc.Code, wc.Body.String())
	}

	w = doJSON(r, http.MethodPost, fmt.Sprintf("/orders/%d/items", created.ID),
		`{"product_id":7,"quantity":1,"unit_price":"10.00"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("add item: status=%d body=%s (expected 400)", w.Code, w.Body.String())
	}
}

func TestCancelOrder_AppendsReason(t *testing.T) {
	t.Parallel()
	r, _ := newTestRouter()

	w := doJSON(r, http.MethodPost, "/orders", createOrderBody())
	var created order.Response
	_ = json.Unmarshal(w.Body.Bytes(), &created)

	w = doJSON(r, http.MethodPut, fmt.Sprintf("/orders/%d/cancel", created.ID),
		`{"reason":"customer changed mind"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var res order.Response
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if res.Status != order.StatusCanceled {
		t.Fatalf("status=%q, expected Canceled", res.Status)
	}
	if !strings.Contains(res.Notes, "customer changed mind") {
		t.Fatalf("notes=%q, missing reason", res.Notes)
	}
	if res.CanceledAt == nil {
		t.Fatalf("canceled_at not stamped")
	}
}

func TestProcessPayment_Cash(t *testing.T) {
	t.Parallel()
	r, _ := newTestRouter()

	w := doJSON(r, http.MethodPost, "/orders", createOrderBody())
	var created order.Response
	_ = json.Unmarshal(w.Body.Bytes(), &created)

	w = doJSON(r, http.MethodPut, fmt.Sprintf("/orders/%d/payment", created.ID), `{"method":"Cash"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var res order.Response
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if res.PaymentStatus != order.PaymentPending {
		t.Fatalf("payment_status=%q, expected Pending", res.PaymentStatus)
	}
	if res.TransactionID != "" {
		t.Fatalf("transaction_id=%q, expected unset for cash", res.TransactionID)
	}
}

func TestListByStatus_Unknown(t *testing.T) {
	t.Parallel()
	r, _ := newTestRouter()

	w := doJSON(r, http.MethodGet, "/orders/status/Bogus", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s (expected 400)", w.Code, w.Body.String())
	}
}

func TestDeleteOrder(t *testing.T) {
	t.Parallel()
	r, _ := newTestRouter()

	w := doJSON(r, http.MethodPost, "/orders", createOrderBody())
	var created order.Response
	_ = json.Unmarshal(w.Body.Bytes(), &created)

	w = doJSON(r, http.MethodDelete, fmt.Sprintf("/orders/%d", created.ID), "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	w = doJSON(r, http.MethodDelete, fmt.Sprintf("/orders/%d", created.ID), "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d body=%s (expected 404)", w.Code, w.Body.String())
	}
}
