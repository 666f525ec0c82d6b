// Package pgstore is the postgres ledger backend.
package pgstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/gyaneshwarpardhi/spendguard/internal/ledger"
	"github.com/gyaneshwarpardhi/spendguard/internal/spending"
)

type Store struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn and applies the ledger schema.
func OpenPostgres(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgstore: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgstore: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, ledger.PostgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgstore: apply schema: %w", err)
	}
	return New(pool), nil
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Append(ctx context.Context, accountID string, rec spending.Record) (string, error) {
	if err := ledger.Check(accountID, rec); err != nil {
		return "", err
	}
	var id string
	err := s.pool.QueryRow(ctx, `
		INSERT INTO spending_records (id, account_id, amount, occurred_at, category, reference)
		VALUES ($1, $2, $3::numeric, $4, $5, $6)
		RETURNING id::text
	`, uuid.NewString(), accountID, decimal.NewFromFloat(rec.Amount).String(), rec.Date, rec.Category, rec.Reference).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("pgstore: append %s: %w", accountID, err)
	}
	return id, nil
}

func (s *Store) List(ctx context.Context, accountID string, from, to time.Time) ([]spending.Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT amount::text, occurred_at, category, reference
		FROM spending_records
		WHERE account_id = $1 AND occurred_at >= $2 AND occurred_at < $3
		ORDER BY occurred_at ASC, seq ASC
	`, accountID, from, to)
	if err != nil {
		return nil, fmt.Errorf("pgstore: list %s: %w", accountID, err)
	}
	defer rows.Close()

	out := []spending.Record{}
	for rows.Next() {
		var (
			amount string
			rec    spending.Record
		)
		if err := rows.Scan(&amount, &rec.Date, &rec.Category, &rec.Reference); err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("pgstore: bad amount %q: %w", amount, err)
		}
		rec.Amount = d.InexactFloat64()
		out = append(out, rec)
	}
	return out, rows.Err()
}
