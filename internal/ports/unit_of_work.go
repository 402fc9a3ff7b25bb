package ports

import "context"

// Tx is an opaque transaction handle. Infrastructure picks the concrete type
// (for example *gorm.DB).
type Tx interface{}

// UnitOfWork is a transaction boundary: fn returning an error rolls back,
// returning nil commits.
type UnitOfWork interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type txKey struct{}

func WithTxContext(ctx context.Context, tx Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

func TxFromContext(ctx context.Context) Tx {
	return ctx.Value(txKey{})
}
