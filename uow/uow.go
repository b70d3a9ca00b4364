// Package uow provides the unit of work that use-cases share with their event handlers
// through dispatcher context data.
package uow

import (
	"context"
	"database/sql"
	"fmt"

	trmsql "github.com/avito-tech/go-transaction-manager/drivers/sql/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2"
	trmcontext "github.com/avito-tech/go-transaction-manager/trm/v2/context"
	trmmanager "github.com/avito-tech/go-transaction-manager/trm/v2/manager"

	"github.com/next-trace/scg-event-dispatcher/contract/events"
)

// DataKey is the context data key handlers read the unit of work from.
const DataKey = "uow"

// UnitOfWork runs fn inside a transaction. Nested calls join the outer transaction.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Execer is the subset of *sql.DB and *sql.Tx repositories need.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var ctxGetter = trmsql.DefaultCtxGetter

type txManager struct {
	tm trm.Manager
}

// NewSQL returns a UnitOfWork backed by database/sql transactions on db.
func NewSQL(db *sql.DB) UnitOfWork {
	mgr := trmmanager.Must(
		trmsql.NewDefaultFactory(db),
		trmmanager.WithCtxManager(trmcontext.DefaultManager),
	)

	return &txManager{tm: mgr}
}

func (m *txManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.tm.Do(ctx, fn)
}

// Executor returns the transaction started by WithinTx for ctx, or db outside of one.
func Executor(ctx context.Context, db *sql.DB) Execer {
	return ctxGetter.DefaultTrOrDB(ctx, db)
}

// Data returns dispatcher context data carrying u under DataKey.
func Data(u UnitOfWork) events.Data {
	return events.Data{DataKey: u}
}

// From extracts the unit of work from handler data.
func From(data events.Data) (UnitOfWork, error) {
	u, err := events.Value[UnitOfWork](data, DataKey)
	if err != nil {
		return nil, fmt.Errorf("unit of work: %w", err)
	}

	return u, nil
}
