package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound         = errors.New("order not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrNotPurchasable   = errors.New("product not purchasable")
	ErrAlreadyCancelled = errors.New("order already cancelled")
	ErrBadTransition    = errors.New("invalid status transition")
)

// LineInput is what checkout receives from the client. Quantity is trusted,
// price and name are not; both are re-read from the products table.
type LineInput struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) LoadProducts(ctx context.Context, ids []string) (map[string]Product, error) {
	params := ""
	args := make([]any, 0, len(ids))
	for i, id := range ids {
		if i > 0 {
			params += ","
		}
		params += fmt.Sprintf("$%d", i+1)
		args = append(args, id)
	}
	rows, err := r.DB.Query(ctx, `SELECT id, name, price_cents, stock, active, image_url, category, weight_oz
	                              FROM products WHERE id IN (`+params+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]Product{}
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.PriceCents, &p.Stock, &p.Active, &p.ImageURL, &p.Category, &p.WeightOz); err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (r *Repo) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, name, price_cents, stock, active, image_url, category, weight_oz, created_at, updated_at
	                              FROM products WHERE active ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.PriceCents, &p.Stock, &p.Active, &p.ImageURL, &p.Category, &p.WeightOz, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CreateOrder inserts a pending order plus its item snapshots in one
// transaction. The order becomes paid only via MarkPaid, never here.
func (r *Repo) CreateOrder(ctx context.Context, userID string, addr Address, lines []LineInput,
	products map[string]Product, shippingCents int, sessionID string) (orderID string, totalCents int, err error) {

	for _, ln := range lines {
		p, ok := products[ln.ProductID]
		if !ok {
			return "", 0, fmt.Errorf("%w: %s", ErrProductNotFound, ln.ProductID)
		}
		if !p.Purchasable() {
			return "", 0, fmt.Errorf("%w: %s", ErrNotPurchasable, ln.ProductID)
		}
		if ln.Quantity <= 0 {
			return "", 0, fmt.Errorf("invalid quantity for product %s", ln.ProductID)
		}
		totalCents += p.PriceCents * ln.Quantity
	}
	totalCents += shippingCents

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	orderID = uuid.NewString()
	_, err = tx.Exec(ctx, `
		INSERT INTO orders(id, user_id, email, full_name,
		                   address_line1, address_line2, city, state, zip,
		                   total_cents, shipping_cents, status, fulfillment_status, payment_session_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		orderID, userID, addr.Email, addr.FullName,
		addr.Line1, addr.Line2, addr.City, addr.State, addr.Zip,
		totalCents, shippingCents, StatusPending, FulfillmentPending, sessionID)
	if err != nil {
		return "", 0, err
	}

	for _, ln := range lines {
		p := products[ln.ProductID]
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items(id, order_id, product_id, product_name, quantity, unit_price_cents)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			uuid.NewString(), orderID, p.ID, p.Name, ln.Quantity, p.PriceCents)
		if err != nil {
			return "", 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", 0, err
	}
	return orderID, totalCents, nil
}

const orderColumns = `id, user_id, email, full_name,
       address_line1, address_line2, city, state, zip,
       total_cents, shipping_cents, status, fulfillment_status,
       payment_session_id, payment_intent_id, shipping_order_id,
       tracking_number, carrier, shipped_at, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.UserID, &o.Email, &o.FullName,
		&o.Shipping.Line1, &o.Shipping.Line2, &o.Shipping.City, &o.Shipping.State, &o.Shipping.Zip,
		&o.TotalCents, &o.ShippingCents, &o.Status, &o.FulfillmentStatus,
		&o.PaymentSessionID, &o.PaymentIntentID, &o.ShippingOrderID,
		&o.TrackingNumber, &o.Carrier, &o.ShippedAt, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return o, ErrNotFound
	}
	if err != nil {
		return o, err
	}
	o.Shipping.Email = o.Email
	o.Shipping.FullName = o.FullName
	return o, nil
}

func (r *Repo) GetOrder(ctx context.Context, orderID string) (Order, error) {
	return scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, orderID))
}

func (r *Repo) GetByPaymentSession(ctx context.Context, sessionID string) (Order, error) {
	return scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE payment_session_id=$1`, sessionID))
}

func (r *Repo) GetItems(ctx context.Context, orderID string) ([]OrderItem, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, order_id, product_id, product_name, quantity, unit_price_cents
	                              FROM order_items WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.UnitPriceCents); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// MarkPaid transitions pending->paid, records the payment intent the vendor
// reported, and decrements stock for the order's items in the same
// transaction. Replays are safe: an already-paid order returns
// transitioned=false and touches nothing.
func (r *Repo) MarkPaid(ctx context.Context, orderID, paymentIntentID string) (transitioned bool, err error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var cur Status
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1 FOR UPDATE`, orderID).Scan(&cur)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, err
	}
	if cur == StatusPaid {
		return false, nil
	}
	if !CanTransition(cur, StatusPaid) {
		return false, fmt.Errorf("%w: %s -> %s", ErrBadTransition, cur, StatusPaid)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE orders
		SET status=$2, payment_intent_id=COALESCE(NULLIF($3,''), payment_intent_id), updated_at=now()
		WHERE id=$1`, orderID, StatusPaid, paymentIntentID); err != nil {
		return false, err
	}

	// Stock is held only once money actually moved; abandoned sessions never
	// pin inventory.
	rows, err := tx.Query(ctx, `SELECT product_id, quantity FROM order_items WHERE order_id=$1`, orderID)
	if err != nil {
		return false, err
	}
	type rec struct {
		pid string
		qty int
	}
	var recs []rec
	for rows.Next() {
		var x rec
		if err := rows.Scan(&x.pid, &x.qty); err != nil {
			rows.Close()
			return false, err
		}
		recs = append(recs, x)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return false, err
	}
	for _, x := range recs {
		var stock int
		if err := tx.QueryRow(ctx, `SELECT stock FROM products WHERE id=$1 FOR UPDATE`, x.pid).Scan(&stock); err != nil {
			return false, err
		}
		if _, err := tx.Exec(ctx, `UPDATE products SET stock = GREATEST(stock - $2, 0), updated_at=now() WHERE id=$1`, x.pid, x.qty); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// SetFulfilled re-checks the fulfillment axis under lock; a cancelled or
// delivered order can never be pushed back into the shipping flow.
func (r *Repo) SetFulfilled(ctx context.Context, orderID, shippingOrderID string, shippedAt time.Time) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var cur FulfillmentStatus
	err = tx.QueryRow(ctx, `SELECT fulfillment_status FROM orders WHERE id=$1 FOR UPDATE`, orderID).Scan(&cur)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if !CanTransitionFulfillment(cur, FulfillmentFulfilled) {
		return fmt.Errorf("%w: %s -> %s", ErrBadTransition, cur, FulfillmentFulfilled)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE orders
		SET fulfillment_status=$2, shipping_order_id=$3, shipped_at=$4, updated_at=now()
		WHERE id=$1`, orderID, FulfillmentFulfilled, shippingOrderID, shippedAt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// SetTracking allows shipped->shipped so reconciler re-runs refresh the
// tracking fields, but rejects terminal states like SetFulfilled does.
func (r *Repo) SetTracking(ctx context.Context, orderID, trackingNumber, carrier string, shippedAt time.Time) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var cur FulfillmentStatus
	err = tx.QueryRow(ctx, `SELECT fulfillment_status FROM orders WHERE id=$1 FOR UPDATE`, orderID).Scan(&cur)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if !CanTransitionFulfillment(cur, FulfillmentShipped) {
		return fmt.Errorf("%w: %s -> %s", ErrBadTransition, cur, FulfillmentShipped)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE orders
		SET tracking_number=$2, carrier=$3, fulfillment_status=$4, shipped_at=$5, updated_at=now()
		WHERE id=$1`, orderID, trackingNumber, carrier, FulfillmentShipped, shippedAt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// FinalizeCancel forces both axes to their terminal cancelled state; when a
// refund was issued the payment axis records refunded instead. The row is
// re-checked under lock so a double cancel surfaces as ErrAlreadyCancelled.
func (r *Repo) FinalizeCancel(ctx context.Context, orderID string, refunded bool) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var cur Status
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1 FOR UPDATE`, orderID).Scan(&cur)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if cur == StatusCancelled || cur == StatusRefunded {
		return ErrAlreadyCancelled
	}

	next := StatusCancelled
	if refunded {
		next = StatusRefunded
	}
	if !CanTransition(cur, next) {
		return fmt.Errorf("%w: %s -> %s", ErrBadTransition, cur, next)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE orders SET status=$2, fulfillment_status=$3, updated_at=now()
		WHERE id=$1`, orderID, next, FulfillmentCancelled); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
