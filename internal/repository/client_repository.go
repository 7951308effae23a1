package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// Client represents a customer of the pool-maintenance business.  PoolIDs is
// a denormalized back-reference to the client's pools, stored as a JSON array
// and maintained in the same transaction as pool inserts/deletes so the list
// can never drift from the pools table.
type Client struct {
	ID          uint64     `json:"id"`
	UserID      uint64     `json:"-"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	Address     string     `json:"address"`
	MemberSince *time.Time `json:"member_since,omitempty"`
	Notes       string     `json:"notes"`
	PoolIDs     []uint64   `json:"pool_ids"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ErrClientNotFound is returned when a client cannot be found.
var ErrClientNotFound = errors.New("client not found")

// ClientRepo encapsulates all database queries related to clients.
type ClientRepo struct{ DB *sql.DB }

func NewClientRepo(db *sql.DB) *ClientRepo { return &ClientRepo{DB: db} }

const clientCols = "id, user_id, name, email, phone, address, member_since, notes, pool_ids, created_at, updated_at"

func scanClient(row interface{ Scan(...any) error }) (*Client, error) {
	var (
		c       Client
		member  sql.NullTime
		notes   sql.NullString
		poolIDs []byte
	)
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Email, &c.Phone, &c.Address,
		&member, &notes, &poolIDs, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if member.Valid {
		t := member.Time
		c.MemberSince = &t
	}
	c.Notes = notes.String
	c.PoolIDs = []uint64{}
	if len(poolIDs) > 0 {
		if err := json.Unmarshal(poolIDs, &c.PoolIDs); err != nil {
			return nil, err
		}
	}
	return &c, nil
}

// Create inserts a new client.  On success the ID field is populated and a
// follow-up SELECT fills the timestamp defaults so callers get a complete
// record back.
func (r *ClientRepo) Create(ctx context.Context, c *Client) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO clients (user_id, name, email, phone, address, member_since, notes, pool_ids)
		 VALUES (?,?,?,?,?,?,?,JSON_ARRAY())`,
		c.UserID, c.Name, c.Email, c.Phone, c.Address, c.MemberSince, c.Notes)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)

	got, err := r.GetByID(ctx, c.ID)
	if err != nil {
		return err
	}
	*c = *got
	return nil
}

// GetByID fetches a client regardless of owner.
func (r *ClientRepo) GetByID(ctx context.Context, id uint64) (*Client, error) {
	row := r.DB.QueryRowContext(ctx, "SELECT "+clientCols+" FROM clients WHERE id=?", id)
	c, err := scanClient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrClientNotFound
	}
	return c, err
}

// GetByIDAndUser fetches a client only if it belongs to the given operator.
func (r *ClientRepo) GetByIDAndUser(ctx context.Context, id, userID uint64) (*Client, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+clientCols+" FROM clients WHERE id=? AND user_id=?", id, userID)
	c, err := scanClient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrClientNotFound
	}
	return c, err
}

// ListByUser returns all clients for an operator ordered by id.
func (r *ClientRepo) ListByUser(ctx context.Context, userID uint64) ([]*Client, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+clientCols+" FROM clients WHERE user_id=? ORDER BY id", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update rewrites the full editable field set.  The pool_ids back-reference
// is owned by the pool repository and is deliberately not written here.
// Re-submitting unchanged values is a successful no-op: MySQL reports zero
// affected rows for identical data, so existence is verified separately
// instead of relying on RowsAffected.
func (r *ClientRepo) Update(ctx context.Context, c *Client) error {
	if _, err := r.GetByIDAndUser(ctx, c.ID, c.UserID); err != nil {
		return err
	}
	_, err := r.DB.ExecContext(ctx,
		`UPDATE clients SET name=?, email=?, phone=?, address=?, member_since=?, notes=?
		 WHERE id=? AND user_id=?`,
		c.Name, c.Email, c.Phone, c.Address, c.MemberSince, c.Notes, c.ID, c.UserID)
	if err != nil {
		return err
	}
	got, err := r.GetByID(ctx, c.ID)
	if err != nil {
		return err
	}
	*c = *got
	return nil
}

// Delete removes a client owned by the operator.  Pools and visits are left
// in place; callers are expected to delete pools first if they want a clean
// tree, but historical visit records are retained regardless.
func (r *ClientRepo) Delete(ctx context.Context, id, userID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM clients WHERE id=? AND user_id=?", id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrClientNotFound
	}
	return nil
}
