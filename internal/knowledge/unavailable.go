package knowledge

import (
	"context"

	"github.com/zeddy89/Context-Engine/internal/errkind"
)

// UnavailableStore stands in for a backend that failed to open. Every read
// and write reports ErrStoreUnavailable, so the compiler renders the
// categories as empty instead of aborting.
type UnavailableStore struct {
	cause error
}

// NewUnavailableStore returns a store that fails every call with cause.
func NewUnavailableStore(cause error) *UnavailableStore {
	return &UnavailableStore{cause: cause}
}

func (s *UnavailableStore) Recent(context.Context, Category, int) ([]Record, error) {
	return nil, errkind.New(errkind.ErrStoreUnavailable, "read knowledge", s.cause)
}

func (s *UnavailableStore) Count(context.Context, Category) (int, error) {
	return 0, errkind.New(errkind.ErrStoreUnavailable, "count knowledge", s.cause)
}

func (s *UnavailableStore) Append(context.Context, NewRecord) (Record, error) {
	return Record{}, errkind.New(errkind.ErrStoreUnavailable, "append knowledge", s.cause)
}

func (s *UnavailableStore) Close() error { return nil }
