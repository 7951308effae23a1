package repository

import (
	"context"
	"database/sql"
	"time"
)

// Payment statuses.
const (
	PaymentStatusPaid    = "PAID"
	PaymentStatusPending = "PENDING"
)

// Payment belongs to a client.  Payments are read-only from this service's
// perspective; rows are loaded for display only.
type Payment struct {
	ID          uint64     `json:"id"`
	ClientID    uint64     `json:"client_id"`
	AmountCents uint32     `json:"amount_cents"`
	DueDate     time.Time  `json:"due_date"`
	PaidDate    *time.Time `json:"paid_date,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
}

type PaymentRepo struct{ DB *sql.DB }

func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{DB: db} }

// ListByClient returns a client's payments, newest due date first.
func (r *PaymentRepo) ListByClient(ctx context.Context, clientID uint64) ([]*Payment, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, client_id, amount_cents, due_date, paid_date, status, created_at
		 FROM payments WHERE client_id=? ORDER BY due_date DESC`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*Payment{}
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.ClientID, &p.AmountCents, &p.DueDate,
			&p.PaidDate, &p.Status, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
