package aggregates

import (
	"context"

	"github.com/stillpath/stillpath-backend/internal/platform/dbctx"
	"gorm.io/gorm"
)

// TxRunner is the single transaction boundary primitive for engine writes.
// Every mutating service operation runs its read-check-write sequence inside
// one InTx call so partial effects are never observable.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

type gormTxRunner struct {
	db *gorm.DB
}

// NewGormTxRunner returns a transaction runner backed by GORM transactions.
func NewGormTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db}
}

func (r *gormTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return ValidationError("transaction runner has nil db")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
}
