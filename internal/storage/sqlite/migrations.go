package sqlite

import "database/sql"

// schema sets up the database on startup.
// Money columns are TEXT so decimal values round-trip without float conversion.
// Users must be created before accounts, and transactions before split requests,
// because of the foreign keys between them.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL DEFAULT '',
    display_name TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS friendships (
    requester_id TEXT NOT NULL,
    addressee_id TEXT NOT NULL,
    status TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    PRIMARY KEY (requester_id, addressee_id),
    FOREIGN KEY (requester_id) REFERENCES users(id) ON DELETE CASCADE,
    FOREIGN KEY (addressee_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS accounts (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    name TEXT NOT NULL,
    type TEXT NOT NULL,
    balance TEXT NOT NULL,
    opening_balance TEXT NOT NULL,
    minimum_balance TEXT NOT NULL,
    monthly_budget TEXT NOT NULL,
    is_default INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS transactions (
    id TEXT PRIMARY KEY,
    account_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    type TEXT NOT NULL,
    amount TEXT NOT NULL,
    date INTEGER NOT NULL,
    category TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    is_recurring INTEGER NOT NULL DEFAULT 0,
    recurring_interval TEXT NOT NULL DEFAULT '',
    next_recurring_date INTEGER,
    exclude_from_budget INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL,
    split_request_id TEXT,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    FOREIGN KEY (account_id) REFERENCES accounts(id) ON DELETE CASCADE,
    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS split_requests (
    id TEXT PRIMARY KEY,
    requester_id TEXT NOT NULL,
    requester_account_id TEXT NOT NULL,
    original_amount TEXT NOT NULL,
    split_amount TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL DEFAULT '',
    date INTEGER NOT NULL,
    status TEXT NOT NULL,
    requester_transaction_id TEXT,
    rejected_transaction_id TEXT,
    user_paid_full INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    FOREIGN KEY (requester_id) REFERENCES users(id) ON DELETE CASCADE,
    FOREIGN KEY (requester_account_id) REFERENCES accounts(id)
);

CREATE TABLE IF NOT EXISTS split_participants (
    id TEXT PRIMARY KEY,
    split_request_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    amount TEXT NOT NULL,
    status TEXT NOT NULL,
    account_id TEXT,
    approved_at INTEGER,
    transaction_id TEXT,
    position INTEGER NOT NULL,
    UNIQUE (split_request_id, user_id),
    FOREIGN KEY (split_request_id) REFERENCES split_requests(id) ON DELETE CASCADE,
    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_accounts_user_id ON accounts(user_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_one_default ON accounts(user_id) WHERE is_default = 1;
CREATE INDEX IF NOT EXISTS idx_transactions_account_date ON transactions(account_id, date);
CREATE INDEX IF NOT EXISTS idx_transactions_user_date ON transactions(user_id, date);
CREATE INDEX IF NOT EXISTS idx_transactions_split ON transactions(split_request_id);
CREATE INDEX IF NOT EXISTS idx_split_requests_requester ON split_requests(requester_id);
CREATE INDEX IF NOT EXISTS idx_split_participants_user ON split_participants(user_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
