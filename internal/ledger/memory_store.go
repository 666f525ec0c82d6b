package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gyaneshwarpardhi/spendguard/internal/spending"
)

type memRecord struct {
	id  string
	seq int
	rec spending.Record
}

// InMemoryStore keeps records in process memory.
type InMemoryStore struct {
	mu       sync.Mutex
	seq      int
	accounts map[string][]memRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{accounts: make(map[string][]memRecord)}
}

func (s *InMemoryStore) Append(_ context.Context, accountID string, rec spending.Record) (string, error) {
	if err := Check(accountID, rec); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	id := uuid.NewString()
	s.accounts[accountID] = append(s.accounts[accountID], memRecord{id: id, seq: s.seq, rec: rec})
	return id, nil
}

func (s *InMemoryStore) List(_ context.Context, accountID string, from, to time.Time) ([]spending.Record, error) {
	s.mu.Lock()
	matched := make([]memRecord, 0, len(s.accounts[accountID]))
	for _, r := range s.accounts[accountID] {
		if !r.rec.Date.Before(from) && r.rec.Date.Before(to) {
			matched = append(matched, r)
		}
	}
	s.mu.Unlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].rec.Date.Equal(matched[j].rec.Date) {
			return matched[i].rec.Date.Before(matched[j].rec.Date)
		}
		return matched[i].seq < matched[j].seq
	})
	out := make([]spending.Record, len(matched))
	for i, r := range matched {
		out[i] = r.rec
	}
	return out, nil
}

func (s *InMemoryStore) Close() error { return nil }
