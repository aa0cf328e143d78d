package memory

import "context"

type TxManager struct {
	store *Store
}

func NewTxManager(store *Store) TxManager {
	return TxManager{store: store}
}

// RunInTx serialises units of work and reverts their writes when fn fails.
// A nested call joins the outer unit.
func (t TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}
	t.store.tx.Lock()
	defer t.store.tx.Unlock()

	t.store.undo = nil
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		t.store.rollback()
		return err
	}
	t.store.undo = nil
	return nil
}
