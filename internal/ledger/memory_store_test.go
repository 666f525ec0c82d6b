package ledger_test

import (
	"testing"

	"github.com/gyaneshwarpardhi/spendguard/internal/ledger"
	"github.com/gyaneshwarpardhi/spendguard/internal/ledger/ledgertest"
)

func TestInMemoryStore(t *testing.T) {
	s := ledger.NewInMemoryStore()
	defer s.Close()
	ledgertest.Run(t, s)
}
