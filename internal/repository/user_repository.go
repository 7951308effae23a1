package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/Devlipesilva17/studio-sub000/internal/utils"
)

// User is an operator account.  Every client, pool and visit in the system
// hangs off one operator; there is a single role (OPERATOR) and no
// cross-account visibility.
type User struct {
	ID           uint64
	Email        string
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// ErrEmailExists is returned when registering an email that already has an
// account.
var ErrEmailExists = errors.New("email already exists")

const userCols = "id, email, password_hash, role, is_active, created_at, updated_at"

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive,
		&u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Create registers an operator account and returns its id.  The email is
// normalized (lowercased, trimmed) before insert so the unique index also
// acts as a case-insensitive duplicate check.
func (r *UserRepo) Create(ctx context.Context, email, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role) VALUES (?,?,?)",
		email, hash, role)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches an operator by normalized email.  Deactivated
// accounts are invisible here, so login fails for them the same way it
// fails for unknown emails.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE email=? AND is_active=1 LIMIT 1", email)
	return scanUser(row)
}

// GetByID fetches an operator by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE id=? LIMIT 1", id)
	return scanUser(row)
}
