package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// Pool represents a physical pool asset belonging to a client.  Geometry
// fields and chemical readings are nullable: the UI saves partial records.
// When VolumeMode is "auto" VolumeLiters is always derived from geometry by
// the caller before saving; in "manual" mode the stored value is whatever
// the user entered and geometry is ignored for volume purposes.
type Pool struct {
	ID              uint64     `json:"id"`
	ClientID        uint64     `json:"client_id"`
	Label           string     `json:"label"`
	Shape           string     `json:"shape"`
	LengthM         *float64   `json:"length_m,omitempty"`
	WidthM          *float64   `json:"width_m,omitempty"`
	AvgDepthM       *float64   `json:"avg_depth_m,omitempty"`
	VolumeLiters    *int       `json:"volume_liters,omitempty"`
	VolumeMode      string     `json:"volume_mode"`
	PH              *float64   `json:"ph,omitempty"`
	FreeChlorine    *float64   `json:"free_chlorine,omitempty"`
	Alkalinity      *float64   `json:"alkalinity,omitempty"`
	CalciumHardness *float64   `json:"calcium_hardness,omitempty"`
	HasStains       bool       `json:"has_stains"`
	HasScale        bool       `json:"has_scale"`
	WaterQuality    string     `json:"water_quality"`
	FilterType      string     `json:"filter_type"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// ErrPoolNotFound is returned when a pool cannot be found or is not reachable
// through the caller's own clients.
var ErrPoolNotFound = errors.New("pool not found")

// PoolRepo encapsulates pool persistence, including maintenance of the
// clients.pool_ids back-reference.  Insert + back-reference append happen in
// ONE transaction so the denormalized list can never be left behind by a
// partial failure.
type PoolRepo struct{ DB *sql.DB }

func NewPoolRepo(db *sql.DB) *PoolRepo { return &PoolRepo{DB: db} }

const poolCols = `id, client_id, label, shape, length_m, width_m, avg_depth_m,
	volume_liters, volume_mode, ph, free_chlorine, alkalinity, calcium_hardness,
	has_stains, has_scale, water_quality, filter_type, created_at, updated_at`

func scanPool(row interface{ Scan(...any) error }) (*Pool, error) {
	var p Pool
	if err := row.Scan(&p.ID, &p.ClientID, &p.Label, &p.Shape,
		&p.LengthM, &p.WidthM, &p.AvgDepthM, &p.VolumeLiters, &p.VolumeMode,
		&p.PH, &p.FreeChlorine, &p.Alkalinity, &p.CalciumHardness,
		&p.HasStains, &p.HasScale, &p.WaterQuality, &p.FilterType,
		&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// Save performs the create-vs-update resolution.  A pool carrying an ID is
// updated in place (full field set, the ID itself untouched); a pool without
// one is inserted, its assigned ID merged back into the record, and the
// parent client's pool_ids list appended within the same transaction.
// Returns created=true on the insert path.  Concurrent saves of the same
// pool follow last-write-wins; there is no optimistic-concurrency check.
func (r *PoolRepo) Save(ctx context.Context, p *Pool) (created bool, err error) {
	if p.ID != 0 {
		return false, r.update(ctx, p)
	}
	return true, r.insert(ctx, p)
}

func (r *PoolRepo) insert(ctx context.Context, p *Pool) (err error) {
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

	// Lock the parent row first: it both verifies the client exists and
	// serializes concurrent back-reference edits.
	var raw []byte
	if err = tx.QueryRowContext(ctx,
		"SELECT pool_ids FROM clients WHERE id=? FOR UPDATE", p.ClientID).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrClientNotFound
		}
		return err
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO pools (client_id, label, shape, length_m, width_m, avg_depth_m,
		 volume_liters, volume_mode, ph, free_chlorine, alkalinity, calcium_hardness,
		 has_stains, has_scale, water_quality, filter_type)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.ClientID, p.Label, p.Shape, p.LengthM, p.WidthM, p.AvgDepthM,
		p.VolumeLiters, p.VolumeMode, p.PH, p.FreeChlorine, p.Alkalinity, p.CalciumHardness,
		p.HasStains, p.HasScale, p.WaterQuality, p.FilterType)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)

	ids := []uint64{}
	if len(raw) > 0 {
		if err = json.Unmarshal(raw, &ids); err != nil {
			return err
		}
	}
	ids = append(ids, p.ID)
	buf, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		"UPDATE clients SET pool_ids=? WHERE id=?", buf, p.ClientID); err != nil {
		return err
	}

	row := tx.QueryRowContext(ctx, "SELECT "+poolCols+" FROM pools WHERE id=?", p.ID)
	got, err := scanPool(row)
	if err != nil {
		return err
	}
	*p = *got
	return nil
}

func (r *PoolRepo) update(ctx context.Context, p *Pool) error {
	// Existence is checked up front: an UPDATE with unchanged values reports
	// zero affected rows in MySQL, which would be indistinguishable from a
	// missing record.
	var exists uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id FROM pools WHERE id=? AND client_id=?", p.ID, p.ClientID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrPoolNotFound
	}
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		`UPDATE pools SET label=?, shape=?, length_m=?, width_m=?, avg_depth_m=?,
		 volume_liters=?, volume_mode=?, ph=?, free_chlorine=?, alkalinity=?,
		 calcium_hardness=?, has_stains=?, has_scale=?, water_quality=?, filter_type=?
		 WHERE id=?`,
		p.Label, p.Shape, p.LengthM, p.WidthM, p.AvgDepthM,
		p.VolumeLiters, p.VolumeMode, p.PH, p.FreeChlorine, p.Alkalinity,
		p.CalciumHardness, p.HasStains, p.HasScale, p.WaterQuality, p.FilterType,
		p.ID)
	if err != nil {
		return err
	}
	row := r.DB.QueryRowContext(ctx, "SELECT "+poolCols+" FROM pools WHERE id=?", p.ID)
	got, err := scanPool(row)
	if err != nil {
		return err
	}
	*p = *got
	return nil
}

// GetByIDAndUser fetches a pool only if its client belongs to the operator.
func (r *PoolRepo) GetByIDAndUser(ctx context.Context, id, userID uint64) (*Pool, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT p.id, p.client_id, p.label, p.shape, p.length_m, p.width_m, p.avg_depth_m,
		 p.volume_liters, p.volume_mode, p.ph, p.free_chlorine, p.alkalinity, p.calcium_hardness,
		 p.has_stains, p.has_scale, p.water_quality, p.filter_type, p.created_at, p.updated_at
		 FROM pools p JOIN clients c ON c.id = p.client_id
		 WHERE p.id=? AND c.user_id=?`, id, userID)
	p, err := scanPool(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPoolNotFound
	}
	return p, err
}

// ListByClient returns a client's pools ordered by id.
func (r *PoolRepo) ListByClient(ctx context.Context, clientID uint64) ([]*Pool, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+poolCols+" FROM pools WHERE client_id=? ORDER BY id", clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*Pool{}
	for rows.Next() {
		p, err := scanPool(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the pool row and its entry in the client's pool_ids list in
// one transaction.  Historical visit records for the pool are retained.
func (r *PoolRepo) Delete(ctx context.Context, id, userID uint64) (err error) {
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

	var clientID uint64
	if err = tx.QueryRowContext(ctx,
		`SELECT p.client_id FROM pools p JOIN clients c ON c.id = p.client_id
		 WHERE p.id=? AND c.user_id=?`, id, userID).Scan(&clientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPoolNotFound
		}
		return err
	}

	var raw []byte
	if err = tx.QueryRowContext(ctx,
		"SELECT pool_ids FROM clients WHERE id=? FOR UPDATE", clientID).Scan(&raw); err != nil {
		return err
	}
	ids := []uint64{}
	if len(raw) > 0 {
		if err = json.Unmarshal(raw, &ids); err != nil {
			return err
		}
	}
	kept := ids[:0]
	for _, pid := range ids {
		if pid != id {
			kept = append(kept, pid)
		}
	}
	buf, err := json.Marshal(kept)
	if err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		"UPDATE clients SET pool_ids=? WHERE id=?", buf, clientID); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM pools WHERE id=?", id); err != nil {
		return err
	}
	return nil
}
