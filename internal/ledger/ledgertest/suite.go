// Package ledgertest holds the behaviour every ledger.Store must share.
package ledgertest

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/spendguard/internal/ledger"
	"github.com/gyaneshwarpardhi/spendguard/internal/spending"
)

func at(day, hour int) time.Time {
	return time.Date(2026, time.October, day, hour, 0, 0, 0, time.UTC)
}

// Run exercises s. s must be empty.
func Run(t *testing.T, s ledger.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("append and list in order", func(t *testing.T) {
		for _, rec := range []spending.Record{
			{Amount: 300, Date: at(15, 14), Category: "rings", Reference: "PO-2"},
			{Amount: 500.25, Date: at(2, 9), Category: "watches", Reference: "PO-1"},
			{Amount: 12.5, Date: at(2, 9), Category: "straps", Reference: "PO-1b"},
		} {
			id, err := s.Append(ctx, "store-1", rec)
			require.NoError(t, err)
			assert.NotEmpty(t, id)
		}

		got, err := s.List(ctx, "store-1", at(1, 0), at(31, 0))
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "PO-1", got[0].Reference)
		assert.Equal(t, "PO-1b", got[1].Reference)
		assert.Equal(t, "PO-2", got[2].Reference)
		assert.Equal(t, 500.25, got[0].Amount)
		assert.Equal(t, "watches", got[0].Category)
		assert.True(t, at(2, 9).Equal(got[0].Date))
	})

	t.Run("range is half-open", func(t *testing.T) {
		got, err := s.List(ctx, "store-1", at(2, 9), at(15, 14))
		require.NoError(t, err)
		require.Len(t, got, 2)
		for _, r := range got {
			assert.NotEqual(t, "PO-2", r.Reference)
		}
	})

	t.Run("accounts are isolated", func(t *testing.T) {
		_, err := s.Append(ctx, "store-2", spending.Record{Amount: 1, Date: at(3, 0)})
		require.NoError(t, err)

		got, err := s.List(ctx, "store-2", at(1, 0), at(31, 0))
		require.NoError(t, err)
		assert.Len(t, got, 1)

		none, err := s.List(ctx, "store-9", at(1, 0), at(31, 0))
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("invalid records rejected", func(t *testing.T) {
		_, err := s.Append(ctx, "", spending.Record{Amount: 1, Date: at(3, 0)})
		assert.ErrorIs(t, err, ledger.ErrInvalidRecord)
		_, err = s.Append(ctx, "store-1", spending.Record{Amount: math.NaN(), Date: at(3, 0)})
		assert.ErrorIs(t, err, ledger.ErrInvalidRecord)
		_, err = s.Append(ctx, "store-1", spending.Record{Amount: 1})
		assert.ErrorIs(t, err, ledger.ErrInvalidRecord)
	})

	t.Run("totals survive the round trip", func(t *testing.T) {
		got, err := s.List(ctx, "store-1", at(1, 0), at(31, 0))
		require.NoError(t, err)
		assert.Equal(t, 812.75, spending.CalculateTotal(got))
	})
}
