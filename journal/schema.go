package journal

const Schema = `
CREATE TABLE IF NOT EXISTS history (
	id TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL,
	form_data TEXT NOT NULL,
	summary TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_history_created_at ON history(created_at);
`
