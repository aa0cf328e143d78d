package gormrepo

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

type TxManager struct {
	db *gorm.DB
}

func NewTxManager(db *gorm.DB) TxManager {
	return TxManager{db: db}
}

// RunInTx nests: a call made with a context that already carries a
// transaction joins it instead of opening a new one.
func (t TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok && tx != nil {
		return fn(ctx)
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(withTx(ctx, tx))
	}, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}
