package salescalls

import (
	"errors"
	"fmt"
)

var (
	// ErrPersistence means the store rejected a write, or a conditional write matched nothing.
	ErrPersistence = errors.New("salescalls: persistence error")

	// ErrNotFound is a persistence error for a conditional update/delete that
	// matched zero rows: the record does not exist or belongs to someone else.
	// The two cases are deliberately indistinguishable to the caller.
	ErrNotFound = fmt.Errorf("%w: record not found", ErrPersistence)

	ErrInvalidInput = errors.New("salescalls: invalid input")

	// ErrUnscopedQuery is returned by stores for a ListQuery with no owner scope.
	ErrUnscopedQuery = errors.New("salescalls: list query has no owner scope")
)

func persistenceErr(op string, err error) error {
	if errors.Is(err, ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
