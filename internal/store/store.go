// Package store provides SQLite storage for the provider backend: preferences,
// the watch list and OAuth tokens.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"golang.org/x/oauth2"
	_ "modernc.org/sqlite"

	"github.com/hal9000y/gmail-provider/internal/provider"
)

// ErrNotFound is returned when a token does not exist.
var ErrNotFound = errors.New("not found")

const (
	prefGmailIntegration = "provider.gmail_integration"
	metaWatchListSeeded  = "watch_list_seeded"
)

// DB wraps a SQLite connection.
type DB struct {
	conn *sql.DB
	path string
}

// Open opens (or creates) the database at path.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("os.MkdirAll(%s) failed: %w", dir, err)
	}

	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("sql.Open failed: %w", err)
	}

	if _, err := conn.Exec(Schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("initialize schema failed: %w", err)
	}

	return &DB{conn: conn, path: path}, nil
}

// Close closes the connection.
func (d *DB) Close() error {
	return d.conn.Close()
}

// Path returns the database file path.
func (d *DB) Path() string {
	return d.path
}

// --- Preferences ---

// Preferences returns the stored provider preferences, defaulting to disabled.
func (d *DB) Preferences(ctx context.Context) (provider.Preferences, error) {
	var prefs provider.Preferences

	var value string
	err := d.conn.QueryRowContext(ctx, "SELECT value FROM prefs WHERE key = ?", prefGmailIntegration).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return prefs, nil
	}
	if err != nil {
		return prefs, fmt.Errorf("select prefs failed: %w", err)
	}

	prefs.GmailIntegration, err = strconv.ParseBool(value)
	if err != nil {
		return prefs, fmt.Errorf("strconv.ParseBool(%s) failed: %w", value, err)
	}

	return prefs, nil
}

// UpdatePreferences applies the set fields of patch.
func (d *DB) UpdatePreferences(ctx context.Context, patch provider.PreferencesPatch) error {
	if patch.GmailIntegration == nil {
		return nil
	}

	_, err := d.conn.ExecContext(ctx, `
		INSERT INTO prefs (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		prefGmailIntegration, strconv.FormatBool(*patch.GmailIntegration),
	)
	if err != nil {
		return fmt.Errorf("upsert prefs failed: %w", err)
	}
	return nil
}

// --- Watch list ---

// WatchList returns the entries in their stored order.
func (d *DB) WatchList(ctx context.Context) ([]provider.WatchListEntry, error) {
	rows, err := d.conn.QueryContext(ctx, "SELECT site, active, frames FROM watch_list ORDER BY position ASC")
	if err != nil {
		return nil, fmt.Errorf("select watch_list failed: %w", err)
	}
	defer rows.Close()

	entries := []provider.WatchListEntry{}
	for rows.Next() {
		var (
			e      provider.WatchListEntry
			frames string
		)
		if err := rows.Scan(&e.Site, &e.Active, &frames); err != nil {
			return nil, fmt.Errorf("rows.Scan failed: %w", err)
		}
		if err := json.Unmarshal([]byte(frames), &e.Frames); err != nil {
			return nil, fmt.Errorf("json.Unmarshal frames of %s failed: %w", e.Site, err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// ReplaceWatchList stores entries as the whole watch list.
func (d *DB) ReplaceWatchList(ctx context.Context, entries []provider.WatchListEntry) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("BeginTx failed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := replaceWatchList(ctx, tx, entries); err != nil {
		return err
	}

	return tx.Commit()
}

// SeedWatchList stores entries unless the watch list was seeded before.
// It reports whether entries were written.
func (d *DB) SeedWatchList(ctx context.Context, entries []provider.WatchListEntry) (bool, error) {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("BeginTx failed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO meta (key, value) VALUES (?, ?)",
		metaWatchListSeeded, now())
	if err != nil {
		return false, fmt.Errorf("insert meta failed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, nil
	}

	if err := replaceWatchList(ctx, tx, entries); err != nil {
		return false, err
	}

	return true, tx.Commit()
}

func replaceWatchList(ctx context.Context, tx *sql.Tx, entries []provider.WatchListEntry) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM watch_list"); err != nil {
		return fmt.Errorf("delete watch_list failed: %w", err)
	}

	for i, e := range entries {
		frames, err := json.Marshal(e.Frames)
		if err != nil {
			return fmt.Errorf("json.Marshal frames of %s failed: %w", e.Site, err)
		}
		_, err = tx.ExecContext(ctx, "INSERT INTO watch_list (position, site, active, frames) VALUES (?, ?, ?, ?)",
			i, e.Site, e.Active, string(frames))
		if err != nil {
			return fmt.Errorf("insert watch_list failed: %w", err)
		}
	}

	return nil
}

// --- OAuth tokens ---

// Token is a stored OAuth token with the scopes granted so far.
type Token struct {
	Token     *oauth2.Token
	Scopes    []string
	GrantedAt time.Time
}

// Metadata returns the parts of t that may leave the backend.
func (t Token) Metadata() provider.TokenMetadata {
	meta := provider.TokenMetadata{
		Scopes:    append([]string{}, t.Scopes...),
		GrantedAt: t.GrantedAt.UTC().Format(time.RFC3339),
	}
	if t.Token != nil && !t.Token.Expiry.IsZero() {
		meta.Expiry = t.Token.Expiry.UTC().Format(time.RFC3339)
	}
	return meta
}

// Tokens returns the tokens of providerKey keyed by email.
func (d *DB) Tokens(ctx context.Context, providerKey string) (map[string]Token, error) {
	rows, err := d.conn.QueryContext(ctx,
		"SELECT email, token, scopes, granted_at FROM oauth_tokens WHERE provider = ? ORDER BY email ASC", providerKey)
	if err != nil {
		return nil, fmt.Errorf("select oauth_tokens failed: %w", err)
	}
	defer rows.Close()

	tokens := make(map[string]Token)
	for rows.Next() {
		var email, tok, scopes, grantedAt string
		if err := rows.Scan(&email, &tok, &scopes, &grantedAt); err != nil {
			return nil, fmt.Errorf("rows.Scan failed: %w", err)
		}
		t, err := decodeToken(tok, scopes, grantedAt)
		if err != nil {
			return nil, fmt.Errorf("decode token of %s failed: %w", email, err)
		}
		tokens[email] = t
	}

	return tokens, rows.Err()
}

// Token returns the token of email.
func (d *DB) Token(ctx context.Context, providerKey, email string) (Token, error) {
	var tok, scopes, grantedAt string
	err := d.conn.QueryRowContext(ctx,
		"SELECT token, scopes, granted_at FROM oauth_tokens WHERE provider = ? AND email = ?",
		providerKey, email).Scan(&tok, &scopes, &grantedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Token{}, ErrNotFound
	}
	if err != nil {
		return Token{}, fmt.Errorf("select oauth_tokens failed: %w", err)
	}

	return decodeToken(tok, scopes, grantedAt)
}

// SaveToken stores tok for email. Scopes granted earlier are kept.
func (d *DB) SaveToken(ctx context.Context, providerKey, email string, tok *oauth2.Token, scopes []string) error {
	existing, err := d.Token(ctx, providerKey, email)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("Token failed: %w", err)
	}

	merged := append([]string{}, existing.Scopes...)
	merged = append(merged, scopes...)
	slices.Sort(merged)
	merged = slices.Compact(merged)

	stored := *tok
	if stored.RefreshToken == "" && existing.Token != nil {
		stored.RefreshToken = existing.Token.RefreshToken
	}

	rawTok, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("json.Marshal token failed: %w", err)
	}
	rawScopes, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("json.Marshal scopes failed: %w", err)
	}

	_, err = d.conn.ExecContext(ctx, `
		INSERT INTO oauth_tokens (provider, email, token, scopes, granted_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(provider, email) DO UPDATE SET
			token = excluded.token, scopes = excluded.scopes, granted_at = excluded.granted_at`,
		providerKey, email, string(rawTok), string(rawScopes), now(),
	)
	if err != nil {
		return fmt.Errorf("upsert oauth_tokens failed: %w", err)
	}
	return nil
}

// DeleteToken removes the token of email.
func (d *DB) DeleteToken(ctx context.Context, providerKey, email string) error {
	res, err := d.conn.ExecContext(ctx, "DELETE FROM oauth_tokens WHERE provider = ? AND email = ?", providerKey, email)
	if err != nil {
		return fmt.Errorf("delete oauth_tokens failed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func decodeToken(tok, scopes, grantedAt string) (Token, error) {
	t := Token{Token: &oauth2.Token{}}
	if err := json.Unmarshal([]byte(tok), t.Token); err != nil {
		return Token{}, fmt.Errorf("json.Unmarshal token failed: %w", err)
	}
	if err := json.Unmarshal([]byte(scopes), &t.Scopes); err != nil {
		return Token{}, fmt.Errorf("json.Unmarshal scopes failed: %w", err)
	}
	ts, err := time.Parse(time.RFC3339, grantedAt)
	if err != nil {
		return Token{}, fmt.Errorf("time.Parse(%s) failed: %w", grantedAt, err)
	}
	t.GrantedAt = ts
	return t, nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
