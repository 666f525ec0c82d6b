// Package sqlstore is the embedded sqlite ledger backend.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/gyaneshwarpardhi/spendguard/internal/ledger"
	"github.com/gyaneshwarpardhi/spendguard/internal/spending"
)

type Store struct {
	db *sql.DB
}

// OpenSQLite opens dsn and applies the ledger schema.
func OpenSQLite(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	s := New(db)
	if err := s.ApplySchema(ledger.SQLiteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlstore: apply schema: %w", err)
	}
	return s, nil
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) ApplySchema(schema string) error {
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Append(ctx context.Context, accountID string, rec spending.Record) (string, error) {
	if err := ledger.Check(accountID, rec); err != nil {
		return "", err
	}
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO spending_records (id, account_id, amount, occurred_at, category, reference) VALUES (?, ?, ?, ?, ?, ?)`,
		id, accountID, decimal.NewFromFloat(rec.Amount).String(), rec.Date.UnixNano(), rec.Category, rec.Reference)
	if err != nil {
		return "", fmt.Errorf("sqlstore: append %s: %w", accountID, err)
	}
	return id, nil
}

func (s *Store) List(ctx context.Context, accountID string, from, to time.Time) ([]spending.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT amount, occurred_at, category, reference
FROM spending_records
WHERE account_id = ? AND occurred_at >= ? AND occurred_at < ?
ORDER BY occurred_at ASC, rowid ASC`, accountID, from.UnixNano(), to.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list %s: %w", accountID, err)
	}
	defer rows.Close()

	out := []spending.Record{}
	for rows.Next() {
		var (
			amount string
			nanos  int64
			rec    spending.Record
		)
		if err := rows.Scan(&amount, &nanos, &rec.Category, &rec.Reference); err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: bad amount %q: %w", amount, err)
		}
		rec.Amount = d.InexactFloat64()
		rec.Date = time.Unix(0, nanos).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}
