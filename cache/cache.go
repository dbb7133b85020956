// Package cache provides a persistent response cache keyed by request URL.
//
// The service layer stores every successful collection or entity response
// together with its ETag, then replays the cached payload when the server
// answers a conditional request with 304 Not Modified. Payloads are stored
// as MessagePack blobs in a single-file SQLite database, so the cache
// survives process restarts.
package cache

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite"
)

// ErrMiss is returned by Get when the URL has no cached response.
var ErrMiss = errors.New("cache: miss")

// Entry is one cached response.
type Entry struct {
	// URL is the absolute request URL the response was served for.
	URL string
	// ETag is the entity tag the server attached to the response.
	ETag string
	// Payload is the decoded response body.
	Payload map[string]any
	// FetchedAt records when the response was stored.
	FetchedAt time.Time
}

// Store is a SQLite-backed response cache. It is safe for concurrent use;
// database/sql serializes access to the underlying connection.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS responses (
	url        TEXT PRIMARY KEY,
	etag       TEXT NOT NULL,
	payload    BLOB NOT NULL,
	fetched_at INTEGER NOT NULL
);`

// Open opens or creates a cache database at the given path. Use ":memory:"
// for a throwaway in-process cache.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Get returns the cached entry for the URL, or ErrMiss.
func (s *Store) Get(url string) (*Entry, error) {
	row := s.db.QueryRow(
		`SELECT etag, payload, fetched_at FROM responses WHERE url = ?`, url)

	var etag string
	var blob []byte
	var fetchedAt int64
	if err := row.Scan(&etag, &blob, &fetchedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("read cache entry: %w", err)
	}

	payload, err := decodePayload(blob)
	if err != nil {
		return nil, err
	}
	return &Entry{
		URL:       url,
		ETag:      etag,
		Payload:   payload,
		FetchedAt: time.Unix(fetchedAt, 0).UTC(),
	}, nil
}

// Put stores or replaces the cached response for the URL.
func (s *Store) Put(url, etag string, payload map[string]any) error {
	blob, err := msgpack.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode cache payload: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO responses (url, etag, payload, fetched_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET etag = excluded.etag,
		 payload = excluded.payload, fetched_at = excluded.fetched_at`,
		url, etag, blob, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

// Delete removes the cached response for the URL, if any.
func (s *Store) Delete(url string) error {
	if _, err := s.db.Exec(`DELETE FROM responses WHERE url = ?`, url); err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return nil
}

// Purge drops every cached response.
func (s *Store) Purge() error {
	if _, err := s.db.Exec(`DELETE FROM responses`); err != nil {
		return fmt.Errorf("purge cache: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// decodePayload decodes a MessagePack blob into a payload map. Loose
// interface decoding keeps numbers as int64/float64 the way the JSON
// layer produced them.
func decodePayload(blob []byte) (map[string]any, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(blob))
	dec.UseLooseInterfaceDecoding(true)
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode cache payload: %w", err)
	}
	return payload, nil
}
