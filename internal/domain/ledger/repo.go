package ledger

import (
	"context"
)

// EntryFilter narrows what the store returns. Every field is optional; the
// engine applies the same scoping again, so a store may return more than
// asked for but never less.
type EntryFilter struct {
	AccountIDs []string
	LocationID string
	Range      DateRange
}

type AccountRepository interface {
	Create(ctx context.Context, a *Account) error
	GetByID(ctx context.Context, id string) (*Account, error)
	List(ctx context.Context, limit, offset int) ([]*Account, int, error)
	All(ctx context.Context) ([]Account, error)
}

type VoucherEntryRepository interface {
	Fetch(ctx context.Context, f EntryFilter) ([]VoucherEntry, error)
}

type ReceiptRepository interface {
	Fetch(ctx context.Context, f EntryFilter) ([]Receipt, error)
}
