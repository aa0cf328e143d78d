// Package ports declares what the use cases need from storage, sinks and
// observers. Adapters under internal/adapter implement them.
package ports

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// TxManager runs fn in one unit of work. Repositories called with the ctx
// handed to fn join that unit; a non-nil error undoes it.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
