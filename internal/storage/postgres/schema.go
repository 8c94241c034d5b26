package postgres

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL DEFAULT '',
    display_name TEXT NOT NULL DEFAULT '',
    created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS friendships (
    requester_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    addressee_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    status TEXT NOT NULL,
    created_at BIGINT NOT NULL,
    PRIMARY KEY (requester_id, addressee_id)
);

CREATE TABLE IF NOT EXISTS accounts (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    type TEXT NOT NULL,
    balance NUMERIC(18, 2) NOT NULL,
    opening_balance NUMERIC(18, 2) NOT NULL,
    minimum_balance NUMERIC(18, 2) NOT NULL,
    monthly_budget NUMERIC(18, 2) NOT NULL,
    is_default BOOLEAN NOT NULL DEFAULT FALSE,
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
    id TEXT PRIMARY KEY,
    account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
    user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    type TEXT NOT NULL,
    amount NUMERIC(18, 2) NOT NULL,
    date BIGINT NOT NULL,
    category TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    is_recurring BOOLEAN NOT NULL DEFAULT FALSE,
    recurring_interval TEXT NOT NULL DEFAULT '',
    next_recurring_date BIGINT,
    exclude_from_budget BOOLEAN NOT NULL DEFAULT FALSE,
    status TEXT NOT NULL,
    split_request_id TEXT,
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS split_requests (
    id TEXT PRIMARY KEY,
    requester_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    requester_account_id TEXT NOT NULL REFERENCES accounts(id),
    original_amount NUMERIC(18, 2) NOT NULL,
    split_amount NUMERIC(18, 2) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL DEFAULT '',
    date BIGINT NOT NULL,
    status TEXT NOT NULL,
    requester_transaction_id TEXT,
    rejected_transaction_id TEXT,
    user_paid_full BOOLEAN NOT NULL DEFAULT FALSE,
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS split_participants (
    id TEXT PRIMARY KEY,
    split_request_id TEXT NOT NULL REFERENCES split_requests(id) ON DELETE CASCADE,
    user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    amount NUMERIC(18, 2) NOT NULL,
    status TEXT NOT NULL,
    account_id TEXT,
    approved_at BIGINT,
    transaction_id TEXT,
    position INTEGER NOT NULL,
    UNIQUE (split_request_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_accounts_user_id ON accounts(user_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_one_default ON accounts(user_id) WHERE is_default;
CREATE INDEX IF NOT EXISTS idx_transactions_account_date ON transactions(account_id, date);
CREATE INDEX IF NOT EXISTS idx_transactions_user_date ON transactions(user_id, date);
CREATE INDEX IF NOT EXISTS idx_transactions_split ON transactions(split_request_id);
CREATE INDEX IF NOT EXISTS idx_split_requests_requester ON split_requests(requester_id);
CREATE INDEX IF NOT EXISTS idx_split_participants_user ON split_participants(user_id);
`
