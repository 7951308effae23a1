//go:build integration

package repository

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Devlipesilva17/studio-sub000/internal/database"
)

// getTestDB connects to the database named by the TEST_DB_* variables and
// skips the test when no server is reachable.  Run with:
//
//	go test -tags integration ./internal/repository/
func getTestDB(t *testing.T) *sql.DB {
	t.Helper()
	env := func(key, def string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return def
	}
	db, err := database.Open(
		env("TEST_DB_USER", "root"),
		os.Getenv("TEST_DB_PASS"),
		env("TEST_DB_HOST", "localhost"),
		env("TEST_DB_PORT", "3306"),
		env("TEST_DB_NAME", "poolcare_test"),
	)
	if err != nil {
		t.Skipf("skipping integration test: cannot connect to database: %v", err)
		return nil
	}
	if err := database.EnsureSchema(context.Background(), db); err != nil {
		t.Skipf("skipping integration test: cannot ensure schema: %v", err)
		return nil
	}
	return db
}

func seedOperator(t *testing.T, db *sql.DB) uint64 {
	t.Helper()
	res, err := db.Exec(
		"INSERT INTO users (email, password_hash, role) VALUES (?,?,?)",
		"it-"+t.Name()+"@example.com", "x", "OPERATOR")
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	t.Cleanup(func() { db.Exec("DELETE FROM users WHERE id=?", id) })
	return uint64(id)
}

// Saving the edit form with unchanged values must succeed as a no-op even
// though MySQL reports zero affected rows for such an UPDATE.
func TestClientUpdateUnchangedIsNoOp(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewClientRepo(db)
	ctx := context.Background()
	userID := seedOperator(t, db)

	client := &Client{
		UserID: userID,
		Name:   "Acme Pools",
		Email:  "acme@example.com",
		Phone:  "555-0100",
	}
	require.NoError(t, repo.Create(ctx, client))
	t.Cleanup(func() { db.Exec("DELETE FROM clients WHERE id=?", client.ID) })

	// Resubmit the identical record twice.
	same := *client
	require.NoError(t, repo.Update(ctx, &same))
	require.NoError(t, repo.Update(ctx, &same))

	got, err := repo.GetByIDAndUser(ctx, client.ID, userID)
	require.NoError(t, err)
	require.Equal(t, "Acme Pools", got.Name)
	require.Equal(t, "acme@example.com", got.Email)
}

func TestClientUpdateMissingRowIsNotFound(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewClientRepo(db)
	userID := seedOperator(t, db)

	ghost := &Client{ID: 1<<62 + 1, UserID: userID, Name: "nobody"}
	err := repo.Update(context.Background(), ghost)
	require.ErrorIs(t, err, ErrClientNotFound)
}
