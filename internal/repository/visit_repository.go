package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Visit statuses.  PENDING may move to COMPLETED or SKIPPED; both of those
// are terminal.  Visits are never hard-deleted — cancellation is a status,
// not a removal.
const (
	VisitStatusPending   = "PENDING"
	VisitStatusCompleted = "COMPLETED"
	VisitStatusSkipped   = "SKIPPED"
)

// VisitProduct is one (product, quantity) line consumed during a visit.
type VisitProduct struct {
	ProductID uint64  `json:"product_id"`
	Quantity  float64 `json:"quantity"`
}

// Visit represents a scheduled or completed maintenance service event
// against one pool.  CalendarEventID holds the external calendar entry id
// once the visit has been mirrored to Google Calendar.
type Visit struct {
	ID              uint64         `json:"id"`
	ClientID        uint64         `json:"client_id"`
	PoolID          uint64         `json:"pool_id"`
	ScheduledAt     time.Time      `json:"scheduled_at"`
	Status          string         `json:"status"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
	Notes           string         `json:"notes"`
	CalendarEventID string         `json:"calendar_event_id,omitempty"`
	Products        []VisitProduct `json:"products"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// ErrVisitNotFound is returned when a visit cannot be found or does not
// belong to the caller.
var ErrVisitNotFound = errors.New("visit not found")

// CanTransition reports whether a visit status change is allowed.  Only
// PENDING->COMPLETED and PENDING->SKIPPED are defined; reopening a finished
// visit is out of scope.
func CanTransition(from, to string) bool {
	if from != VisitStatusPending {
		return false
	}
	return to == VisitStatusCompleted || to == VisitStatusSkipped
}

// VisitRepo persists visits and their product-usage lines.
type VisitRepo struct{ DB *sql.DB }

func NewVisitRepo(db *sql.DB) *VisitRepo { return &VisitRepo{DB: db} }

const visitCols = `id, client_id, pool_id, scheduled_at, status, completed_at,
	notes, calendar_event_id, created_at, updated_at`

func scanVisit(row interface{ Scan(...any) error }) (*Visit, error) {
	var (
		v     Visit
		notes sql.NullString
	)
	if err := row.Scan(&v.ID, &v.ClientID, &v.PoolID, &v.ScheduledAt, &v.Status,
		&v.CompletedAt, &notes, &v.CalendarEventID, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	v.Notes = notes.String
	v.Products = []VisitProduct{}
	return &v, nil
}

// Create schedules a new visit in PENDING status and merges the assigned id
// back into the record.
func (r *VisitRepo) Create(ctx context.Context, v *Visit) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO visits (client_id, pool_id, scheduled_at, status, notes)
		 VALUES (?,?,?,?,?)`,
		v.ClientID, v.PoolID, v.ScheduledAt, VisitStatusPending, v.Notes)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	v.ID = uint64(id)

	got, err := r.getByID(ctx, v.ID)
	if err != nil {
		return err
	}
	*v = *got
	return nil
}

func (r *VisitRepo) getByID(ctx context.Context, id uint64) (*Visit, error) {
	row := r.DB.QueryRowContext(ctx, "SELECT "+visitCols+" FROM visits WHERE id=?", id)
	v, err := scanVisit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVisitNotFound
	}
	return v, err
}

// GetByIDAndUser fetches a visit only if its client belongs to the operator,
// including its product-usage lines.
func (r *VisitRepo) GetByIDAndUser(ctx context.Context, id, userID uint64) (*Visit, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT v.id, v.client_id, v.pool_id, v.scheduled_at, v.status, v.completed_at,
		 v.notes, v.calendar_event_id, v.created_at, v.updated_at
		 FROM visits v JOIN clients c ON c.id = v.client_id
		 WHERE v.id=? AND c.user_id=?`, id, userID)
	v, err := scanVisit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVisitNotFound
	}
	if err != nil {
		return nil, err
	}
	if v.Products, err = r.loadProducts(ctx, v.ID); err != nil {
		return nil, err
	}
	return v, nil
}

// ListByPool returns a pool's visits newest first.
func (r *VisitRepo) ListByPool(ctx context.Context, poolID uint64) ([]*Visit, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+visitCols+" FROM visits WHERE pool_id=? ORDER BY scheduled_at DESC", poolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*Visit{}
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, v := range out {
		if v.Products, err = r.loadProducts(ctx, v.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Reschedule updates the time and notes of a still-pending visit.
func (r *VisitRepo) Reschedule(ctx context.Context, id uint64, scheduledAt time.Time, notes string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE visits SET scheduled_at=?, notes=? WHERE id=? AND status=?",
		scheduledAt, notes, id, VisitStatusPending)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Either missing or no longer pending; let the caller decide which.
		if _, err := r.getByID(ctx, id); err != nil {
			return err
		}
		return ErrConflict
	}
	return nil
}

// Complete transitions PENDING->COMPLETED, stamps the completion time, and
// replaces the visit's product-usage lines, all in one transaction.  Any
// other starting status yields ErrConflict.
//
// Product stock is intentionally NOT decremented here: the original system
// manages stock independently of visit usage and its intent is ambiguous.
// TODO: decrement products.stock per line once that rule is settled.
func (r *VisitRepo) Complete(ctx context.Context, id uint64, products []VisitProduct, notes string) (err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	var status string
	if err = tx.QueryRowContext(ctx,
		"SELECT status FROM visits WHERE id=? FOR UPDATE", id).Scan(&status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrVisitNotFound
		}
		return err
	}
	if !CanTransition(status, VisitStatusCompleted) {
		return ErrConflict
	}

	if _, err = tx.ExecContext(ctx,
		"UPDATE visits SET status=?, completed_at=NOW(), notes=? WHERE id=?",
		VisitStatusCompleted, notes, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM visit_products WHERE visit_id=?", id); err != nil {
		return err
	}
	for _, vp := range products {
		if _, err = tx.ExecContext(ctx,
			"INSERT INTO visit_products (visit_id, product_id, quantity) VALUES (?,?,?)",
			id, vp.ProductID, vp.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceProducts rewrites the product-usage lines of an already completed
// visit (post-completion edits are allowed; the status does not change).
func (r *VisitRepo) ReplaceProducts(ctx context.Context, id uint64, products []VisitProduct) (err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	var status string
	if err = tx.QueryRowContext(ctx,
		"SELECT status FROM visits WHERE id=? FOR UPDATE", id).Scan(&status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrVisitNotFound
		}
		return err
	}
	if status != VisitStatusCompleted {
		return ErrConflict
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM visit_products WHERE visit_id=?", id); err != nil {
		return err
	}
	for _, vp := range products {
		if _, err = tx.ExecContext(ctx,
			"INSERT INTO visit_products (visit_id, product_id, quantity) VALUES (?,?,?)",
			id, vp.ProductID, vp.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// Skip transitions PENDING->SKIPPED.  Skipped visits record no products.
func (r *VisitRepo) Skip(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE visits SET status=? WHERE id=? AND status=?",
		VisitStatusSkipped, id, VisitStatusPending)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.getByID(ctx, id); err != nil {
			return err
		}
		return ErrConflict
	}
	return nil
}

// CalendarEventID returns the external event id associated with a visit, or
// the empty string when none has been created yet.
func (r *VisitRepo) CalendarEventID(ctx context.Context, id uint64) (string, error) {
	var eventID string
	err := r.DB.QueryRowContext(ctx,
		"SELECT calendar_event_id FROM visits WHERE id=?", id).Scan(&eventID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrVisitNotFound
	}
	return eventID, err
}

// SetCalendarEventID persists the external calendar entry id on the visit.
func (r *VisitRepo) SetCalendarEventID(ctx context.Context, id uint64, eventID string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE visits SET calendar_event_id=? WHERE id=?", eventID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrVisitNotFound
	}
	return nil
}

func (r *VisitRepo) loadProducts(ctx context.Context, visitID uint64) ([]VisitProduct, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT product_id, quantity FROM visit_products WHERE visit_id=? ORDER BY product_id", visitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []VisitProduct{}
	for rows.Next() {
		var vp VisitProduct
		if err := rows.Scan(&vp.ProductID, &vp.Quantity); err != nil {
			return nil, err
		}
		out = append(out, vp)
	}
	return out, rows.Err()
}
