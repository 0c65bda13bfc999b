// Package sheets defines the ports for the off-site backup sheet the
// worker mirrors transactions into.
package sheets

import (
	"context"

	"finassist/internal/core"
)

// TransactionMirror appends one transaction to the backup sheet and
// returns a reference to the written row.
type TransactionMirror interface {
	Append(ctx context.Context, t core.Transaction) (string, error)
}
