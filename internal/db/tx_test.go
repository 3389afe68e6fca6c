package db

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	if _, err := d.Exec(`CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	return d
}

func TestWithTx_Commit(t *testing.T) {
	d := openTestDB(t)

	err := WithTx(d, func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO items (name) VALUES ('a')`)
		return err
	})
	if err != nil {
		t.Fatalf("WithTx() error = %v", err)
	}

	var count int
	if err := d.QueryRow(`SELECT COUNT(*) FROM items`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestWithTx_RollbackOnError(t *testing.T) {
	d := openTestDB(t)
	boom := errors.New("boom")

	err := WithTx(d, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO items (name) VALUES ('a')`); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx() error = %v, want boom", err)
	}

	var count int
	if err := d.QueryRow(`SELECT COUNT(*) FROM items`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0 (rolled back)", count)
	}
}

func TestNullHelpers(t *testing.T) {
	if got := NullStringValue(sql.NullString{String: "x", Valid: true}); got != "x" {
		t.Errorf("NullStringValue = %q, want x", got)
	}
	if got := NullStringValue(sql.NullString{}); got != "" {
		t.Errorf("NullStringValue = %q, want empty", got)
	}

	now := time.Now()
	if got := NullTimeToPtr(sql.NullTime{Time: now, Valid: true}); got == nil || !got.Equal(now) {
		t.Errorf("NullTimeToPtr = %v, want %v", got, now)
	}
	if got := NullTimeToPtr(sql.NullTime{}); got != nil {
		t.Errorf("NullTimeToPtr = %v, want nil", got)
	}

	if got := TimePtrToNull(nil); got.Valid {
		t.Error("TimePtrToNull(nil) should be invalid")
	}
	if got := TimePtrToNull(&now); !got.Valid || !got.Time.Equal(now) {
		t.Errorf("TimePtrToNull = %v, want %v", got, now)
	}
}
