package store

// Schema is the DDL of the backend database.
const Schema = `
CREATE TABLE IF NOT EXISTS prefs (
    key     TEXT PRIMARY KEY,
    value   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS watch_list (
    position    INTEGER PRIMARY KEY,
    site        TEXT NOT NULL,
    active      INTEGER NOT NULL DEFAULT 1,
    frames      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS oauth_tokens (
    provider    TEXT NOT NULL,
    email       TEXT NOT NULL,
    token       TEXT NOT NULL,
    scopes      TEXT NOT NULL,
    granted_at  TEXT NOT NULL,
    PRIMARY KEY (provider, email)
);

CREATE TABLE IF NOT EXISTS meta (
    key     TEXT PRIMARY KEY,
    value   TEXT NOT NULL
);
`
