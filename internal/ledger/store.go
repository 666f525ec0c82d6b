// Package ledger persists the spending records the calculators aggregate.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gyaneshwarpardhi/spendguard/internal/spending"
)

// ErrInvalidRecord is returned by Append for records that cannot be stored.
var ErrInvalidRecord = errors.New("invalid spending record")

// Store is an append-only log of spending records per account.
type Store interface {
	// Append stores rec under accountID and returns the generated record id.
	Append(ctx context.Context, accountID string, rec spending.Record) (string, error)
	// List returns the account's records with from <= Date < to, oldest first.
	List(ctx context.Context, accountID string, from, to time.Time) ([]spending.Record, error)
	Close() error
}

// Check rejects records no backend should accept.
func Check(accountID string, rec spending.Record) error {
	switch {
	case accountID == "":
		return fmt.Errorf("%w: account id is required", ErrInvalidRecord)
	case math.IsNaN(rec.Amount) || math.IsInf(rec.Amount, 0):
		return fmt.Errorf("%w: amount must be finite", ErrInvalidRecord)
	case rec.Date.IsZero():
		return fmt.Errorf("%w: date is required", ErrInvalidRecord)
	}
	return nil
}
