package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS feed_cache (
    path                 TEXT PRIMARY KEY,
    mtime_ns             INTEGER NOT NULL,
    size_bytes           INTEGER NOT NULL,
    parse_errors         INTEGER NOT NULL DEFAULT 0,
    payload              BLOB NOT NULL,
    parsed_at            TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_feed_cache_parsed ON feed_cache(parsed_at);
`
