package ledger

// SQLiteSchema creates the spending log for the sqlite backend. Amounts are
// decimal strings; occurred_at is Unix nanoseconds.
const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS spending_records (
	id          TEXT PRIMARY KEY,
	account_id  TEXT NOT NULL,
	amount      TEXT NOT NULL,
	occurred_at INTEGER NOT NULL,
	category    TEXT NOT NULL DEFAULT '',
	reference   TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS spending_records_account_time
	ON spending_records (account_id, occurred_at);
`

// PostgresSchema creates the spending log for the postgres backend.
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS spending_records (
	seq         BIGSERIAL,
	id          UUID PRIMARY KEY,
	account_id  TEXT NOT NULL,
	amount      NUMERIC(20, 6) NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL,
	category    TEXT NOT NULL DEFAULT '',
	reference   TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS spending_records_account_time
	ON spending_records (account_id, occurred_at);
`
