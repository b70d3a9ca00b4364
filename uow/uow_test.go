package uow_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "modernc.org/sqlite"

	derr "github.com/next-trace/scg-event-dispatcher/contract/errors"
	"github.com/next-trace/scg-event-dispatcher/contract/events"
	"github.com/next-trace/scg-event-dispatcher/dispatcher"
	"github.com/next-trace/scg-event-dispatcher/uow"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	// one connection keeps the in-memory database alive and shared
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.ExecContext(t.Context(), `CREATE TABLE audit (id INTEGER PRIMARY KEY, action TEXT NOT NULL)`); err != nil {
		t.Fatalf("schema: %v", err)
	}

	return db
}

func count(t *testing.T, db *sql.DB) int {
	t.Helper()

	var n int
	if err := db.QueryRowContext(t.Context(), `SELECT COUNT(*) FROM audit`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}

	return n
}

func insert(ctx context.Context, db *sql.DB, action string) error {
	_, err := uow.Executor(ctx, db).ExecContext(ctx, `INSERT INTO audit (action) VALUES (?)`, action)
	return err
}

func TestWithinTx_CommitAndRollback(t *testing.T) {
	db := openDB(t)
	u := uow.NewSQL(db)

	if err := u.WithinTx(t.Context(), func(ctx context.Context) error {
		return insert(ctx, db, "added")
	}); err != nil {
		t.Fatalf("commit: %v", err)
	}

	boom := errors.New("boom")

	err := u.WithinTx(t.Context(), func(ctx context.Context) error {
		if err := insert(ctx, db, "patched"); err != nil {
			return err
		}

		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}

	if n := count(t, db); n != 1 {
		t.Fatalf("want 1 committed row, got %d", n)
	}
}

func TestWithinTx_NestedJoinsOuter(t *testing.T) {
	db := openDB(t)
	u := uow.NewSQL(db)

	err := u.WithinTx(t.Context(), func(ctx context.Context) error {
		if err := insert(ctx, db, "outer"); err != nil {
			return err
		}

		return u.WithinTx(ctx, func(ctx context.Context) error {
			return insert(ctx, db, "inner")
		})
	})
	if err != nil {
		t.Fatalf("nested: %v", err)
	}

	if n := count(t, db); n != 2 {
		t.Fatalf("want 2, got %d", n)
	}
}

func TestHandlersShareTheUseCaseTransaction(t *testing.T) {
	db := openDB(t)
	u := uow.NewSQL(db)

	type userDeleted struct{ ID int64 }

	d := dispatcher.New(uow.Data(u))
	dispatcher.OnDomainEvent(d, func(ctx context.Context, e userDeleted, data events.Data) error {
		w, err := uow.From(data)
		if err != nil {
			return err
		}

		return w.WithinTx(ctx, func(ctx context.Context) error { return insert(ctx, db, "deleted") })
	})

	boom := errors.New("notify failed")

	err := u.WithinTx(t.Context(), func(ctx context.Context) error {
		if err := d.PublishEvents(ctx, userDeleted{ID: 3}); err != nil {
			return err
		}

		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}

	if n := count(t, db); n != 0 {
		t.Fatalf("handler write must roll back with the use-case, got %d rows", n)
	}
}

func TestFrom(t *testing.T) {
	if _, err := uow.From(events.Data{}); !errors.Is(err, derr.ErrContextMissing) {
		t.Fatalf("want ErrContextMissing, got %v", err)
	}

	if _, err := uow.From(events.Data{uow.DataKey: "tx"}); !errors.Is(err, derr.ErrContextTypeMismatch) {
		t.Fatalf("want ErrContextTypeMismatch, got %v", err)
	}

	u := uow.NewSQL(openDB(t))

	got, err := uow.From(uow.Data(u))
	if err != nil || got != u {
		t.Fatalf("From: %v %v", got, err)
	}
}

func TestExecutor_OutsideTxUsesDB(t *testing.T) {
	db := openDB(t)

	if err := insert(t.Context(), db, "direct"); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if n := count(t, db); n != 1 {
		t.Fatalf("want 1, got %d", n)
	}
}
