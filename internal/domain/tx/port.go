package tx

import "context"

// Transactor runs fn in a transaction carried by the ctx passed to fn.
// Repositories called with that ctx join the transaction. Nested calls
// join the outer transaction instead of opening a new one.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
