package order

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id int64) (*Order, error)
	List(ctx context.Context) ([]Order, error)
	ListByStatus(ctx context.Context, s Status) ([]Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]Order, error)
	ListByDeliveryPerson(ctx context.Context, personID string) ([]Order, error)
	ListPendingDelivery(ctx context.Context) ([]Order, error)
	ListKitchenQueue(ctx context.Context) ([]Order, error)
	Update(ctx context.Context, o *Order) error
	Delete(ctx context.Context, id int64) error
	CountByStatus(ctx context.Context, s Status) (int, error)
	StatusCounts(ctx context.Context) (map[Status]int, error)
	DailyRevenue(ctx context.Context, day time.Time) (decimal.Decimal, error)
	TotalRevenue(ctx context.Context) (decimal.Decimal, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

// orderCols is every column a read projection needs, including the joined
// customer name, formatted address and delivery-person name.
const orderCols = `
  o.id, o.number, o.status, o.ordered_at, o.required_by,
  o.confirmed_at, o.preparing_at, o.ready_at, o.dispatched_at, o.delivered_at, o.canceled_at,
  COALESCE(o.confirmed_by,''),
  o.subtotal::text, o.delivery_fee::text, o.tax::text, o.discount::text, o.total::text,
  o.estimated_minutes,
  COALESCE(o.payment_method,''), o.payment_status, COALESCE(o.transaction_id,''),
  COALESCE(o.notes,''), o.source,
  o.customer_id, o.address_id, COALESCE(o.delivery_person_id,''),
  o.version,
  c.name, a.street || ', ' || a.city, COALESCE(d.name,'')`

const orderFrom = `
  FROM orders o
  JOIN users c ON c.id = o.customer_id
  JOIN addresses a ON a.id = o.address_id
  LEFT JOIN users d ON d.id = o.delivery_person_id`

type scanner interface{ Scan(dest ...any) error }

func scanOrder(s scanner) (*Order, error) {
	var (
		o                                           Order
		subtotal, fee, tax, discount, total, method string
	)
	if err := s.Scan(
		&o.ID, &o.Number, &o.Status, &o.OrderedAt, &o.RequiredBy,
		&o.ConfirmedAt, &o.PreparingAt, &o.ReadyAt, &o.DispatchedAt, &o.DeliveredAt, &o.CanceledAt,
		&o.ConfirmedBy,
		&subtotal, &fee, &tax, &discount, &total,
		&o.EstimatedMinutes,
		&method, &o.PaymentStatus, &o.TransactionID,
		&o.Notes, &o.Source,
		&o.CustomerID, &o.AddressID, &o.DeliveryPersonID,
		&o.Version,
		&o.CustomerName, &o.AddressText, &o.DeliveryPersonName,
	); err != nil {
		return nil, err
	}
	var err error
	if o.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
		return nil, err
	}
	if o.DeliveryFee, err = decimal.NewFromString(fee); err != nil {
		return nil, err
	}
	if o.Tax, err = decimal.NewFromString(tax); err != nil {
		return nil, err
	}
	if o.Discount, err = decimal.NewFromString(discount); err != nil {
		return nil, err
	}
	if o.Total, err = decimal.NewFromString(total); err != nil {
		return nil, err
	}
	o.PaymentMethod = PaymentMethod(method)
	return &o, nil
}

func (r *PGRepo) Create(ctx context.Context, o *Order) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.QueryRow(ctx, `
    INSERT INTO orders (
      number, status, ordered_at, required_by,
      subtotal, delivery_fee, tax, discount, total,
      payment_status, notes, source,
      customer_id, address_id, version
    ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NULLIF($11,''),$12,$13,$14,1)
    RETURNING id
  `, o.Number, o.Status, o.OrderedAt, o.RequiredBy,
		o.Subtotal.StringFixed(2), o.DeliveryFee.StringFixed(2), o.Tax.StringFixed(2),
		o.Discount.StringFixed(2), o.Total.StringFixed(2),
		o.PaymentStatus, o.Notes, o.Source,
		o.CustomerID, o.AddressID,
	).Scan(&o.ID); err != nil {
		return err
	}
	o.Version = 1

	for i := range o.Lines {
		o.Lines[i].OrderID = o.ID
		if err := tx.QueryRow(ctx, `
      INSERT INTO order_lines (order_id, product_id, quantity, unit_price, subtotal, special_instructions)
      VALUES ($1,$2,$3,$4,$5,NULLIF($6,''))
      RETURNING id
    `, o.ID, o.Lines[i].ProductID, o.Lines[i].Quantity,
			o.Lines[i].UnitPrice.StringFixed(2), o.Lines[i].Subtotal.StringFixed(2),
			o.Lines[i].Instructions,
		).Scan(&o.Lines[i].ID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *PGRepo) GetByID(ctx context.Context, id int64) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT`+orderCols+orderFrom+` WHERE o.id=$1`, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if o.Lines, err = r.lines(ctx, id); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *PGRepo) lines(ctx context.Context, orderID int64) ([]Line, error) {
	rows, err := r.db.Query(ctx, `
    SELECT l.id, l.order_id, l.product_id, l.quantity,
           l.unit_price::text, l.subtotal::text,
           COALESCE(l.special_instructions,''), p.name
    FROM order_lines l
    JOIN products p ON p.id = l.product_id
    WHERE l.order_id = $1
    ORDER BY l.id
  `, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var (
			l               Line
			price, subtotal string
		)
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Quantity,
			&price, &subtotal, &l.Instructions, &l.ProductName); err != nil {
			return nil, err
		}
		if l.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		if l.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *PGRepo) list(ctx context.Context, where string, args ...any) ([]Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT`+orderCols+orderFrom+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (r *PGRepo) List(ctx context.Context) ([]Order, error) {
	return r.list(ctx, ` ORDER BY o.ordered_at DESC`)
}

func (r *PGRepo) ListByStatus(ctx context.Context, s Status) ([]Order, error) {
	return r.list(ctx, ` WHERE o.status=$1 ORDER BY o.ordered_at DESC`, s)
}

func (r *PGRepo) ListByCustomer(ctx context.Context, customerID string) ([]Order, error) {
	return r.list(ctx, ` WHERE o.customer_id=$1 ORDER BY o.ordered_at DESC`, customerID)
}

func (r *PGRepo) ListByDeliveryPerson(ctx context.Context, personID string) ([]Order, error) {
	return r.list(ctx, ` WHERE o.delivery_person_id=$1 ORDER BY o.dispatched_at DESC`, personID)
}

// ListPendingDelivery: confirmed but not yet delivered, soonest required first.
func (r *PGRepo) ListPendingDelivery(ctx context.Context) ([]Order, error) {
	return r.list(ctx, ` WHERE o.status = ANY($1) ORDER BY o.required_by NULLS LAST`,
		[]string{string(StatusConfirmed), string(StatusPreparing), string(StatusReady), string(StatusOutForDelivery)})
}

// ListKitchenQueue: orders the kitchen still has to act on, soonest first.
func (r *PGRepo) ListKitchenQueue(ctx context.Context) ([]Order, error) {
	return r.list(ctx, ` WHERE o.status = ANY($1) ORDER BY COALESCE(o.required_by, o.ordered_at), o.ordered_at`,
		[]string{string(StatusConfirmed), string(StatusPreparing)})
}

// Update writes the header with an optimistic version check and rewrites the
// line set in the same transaction. The version mismatch surfaces as
// ErrConflict so callers can retry against fresh state.
func (r *PGRepo) Update(ctx context.Context, o *Order) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
    UPDATE orders SET
      status=$3, required_by=$4,
      confirmed_at=$5, preparing_at=$6, ready_at=$7, dispatched_at=$8, delivered_at=$9, canceled_at=$10,
      confirmed_by=NULLIF($11,''),
      subtotal=$12, delivery_fee=$13, tax=$14, discount=$15, total=$16,
      estimated_minutes=$17,
      payment_method=NULLIF($18,''), payment_status=$19, transaction_id=NULLIF($20,''),
      notes=NULLIF($21,''), delivery_person_id=NULLIF($22,''),
      version=version+1
    WHERE id=$1 AND version=$2
  `, o.ID, o.Version,
		o.Status, o.RequiredBy,
		o.ConfirmedAt, o.PreparingAt, o.ReadyAt, o.DispatchedAt, o.DeliveredAt, o.CanceledAt,
		o.ConfirmedBy,
		o.Subtotal.StringFixed(2), o.DeliveryFee.StringFixed(2), o.Tax.StringFixed(2),
		o.Discount.StringFixed(2), o.Total.StringFixed(2),
		o.EstimatedMinutes,
		string(o.PaymentMethod), o.PaymentStatus, o.TransactionID,
		o.Notes, o.DeliveryPersonID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id=$1)`, o.ID).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return ErrConflict
		}
		return ErrNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM order_lines WHERE order_id=$1`, o.ID); err != nil {
		return err
	}
	for i := range o.Lines {
		o.Lines[i].OrderID = o.ID
		if err := tx.QueryRow(ctx, `
      INSERT INTO order_lines (order_id, product_id, quantity, unit_price, subtotal, special_instructions)
      VALUES ($1,$2,$3,$4,$5,NULLIF($6,''))
      RETURNING id
    `, o.ID, o.Lines[i].ProductID, o.Lines[i].Quantity,
			o.Lines[i].UnitPrice.StringFixed(2), o.Lines[i].Subtotal.StringFixed(2),
			o.Lines[i].Instructions,
		).Scan(&o.Lines[i].ID); err != nil {
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	o.Version++
	return nil
}

func (r *PGRepo) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// order_lines has ON DELETE CASCADE on order_id
	tag, err := r.db.Exec(ctx, `DELETE FROM orders WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) CountByStatus(ctx context.Context, s Status) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE status=$1`, s).Scan(&n)
	return n, err
}

func (r *PGRepo) StatusCounts(ctx context.Context) (map[Status]int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var (
			s Status
			n int
		)
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		counts[s] = n
	}
	return counts, rows.Err()
}

// DailyRevenue sums totals of that calendar day's orders whose payment
// completed.
func (r *PGRepo) DailyRevenue(ctx context.Context, day time.Time) (decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	var sum string
	err := r.db.QueryRow(ctx, `
    SELECT COALESCE(SUM(total),0)::text FROM orders
    WHERE ordered_at >= $1 AND ordered_at < $2 AND payment_status = $3
  `, start, end, PaymentCompleted).Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(sum)
}

func (r *PGRepo) TotalRevenue(ctx context.Context) (decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var sum string
	err := r.db.QueryRow(ctx, `
    SELECT COALESCE(SUM(total),0)::text FROM orders WHERE payment_status = $1
  `, PaymentCompleted).Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(sum)
}
