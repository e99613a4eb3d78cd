package sqlite

import (
	"context"
	"fmt"

	"github.com/NordCoder/Restora/internal/domain/tx"
	"github.com/jmoiron/sqlx"
)

var _ tx.Transactor = (*Transactor)(nil)

type Transactor struct{ db *DB }

func NewTransactor(db *DB) *Transactor { return &Transactor{db: db} }

type txKey struct{}

func (t *Transactor) WithTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	sqlTx, err := t.db.X.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = sqlTx.Rollback()
			return
		}
		if cerr := sqlTx.Commit(); cerr != nil {
			err = fmt.Errorf("committing transaction: %w", cerr)
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, sqlTx))
}

// ext returns the transaction carried by ctx, or the handle itself.
func (db *DB) ext(ctx context.Context) sqlx.ExtContext {
	if sqlTx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return sqlTx
	}
	return db.X
}
