package metadataparticipant

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/flexicommit/upload2pc/configs"
)

// PostgresStore is the optional durable backend for the committed store and
// user table (spec §4.3 addition), enabled by setting METADATA_DSN.
// Adapted from dittofs's postgres.NewPostgresMetadataStore — pool creation
// plus idempotent schema setup — simplified from its migration-runner to
// two inline CREATE TABLE IF NOT EXISTS statements, since this schema never
// changes shape.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to dsn and ensures the files/users tables exist.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("metadataparticipant: connect postgres: %w", err)
	}
	s := &PostgresStore{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	configs.DPrintf("metadataparticipant: durable postgres backend ready")
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS committed_files (
			filename TEXT PRIMARY KEY,
			size     BIGINT NOT NULL,
			username TEXT NOT NULL,
			path     TEXT NOT NULL,
			version  INT NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("metadataparticipant: create committed_files table: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			username      TEXT PRIMARY KEY,
			password_hash TEXT NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("metadataparticipant: create users table: %w", err)
	}
	return nil
}

// PutFile persists entry, overwriting any prior row for the same filename.
func (s *PostgresStore) PutFile(entry CatalogEntry) error {
	_, err := s.pool.Exec(context.Background(), `
		INSERT INTO committed_files (filename, size, username, path, version)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (filename) DO UPDATE SET
			size = EXCLUDED.size, username = EXCLUDED.username,
			path = EXCLUDED.path, version = EXCLUDED.version
	`, entry.Filename, entry.Size, entry.User, entry.Path, entry.Version)
	return err
}

// LoadFiles returns every row in committed_files, for startup hydration.
func (s *PostgresStore) LoadFiles() ([]CatalogEntry, error) {
	rows, err := s.pool.Query(context.Background(), `SELECT filename, size, username, path, version FROM committed_files`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []CatalogEntry
	for rows.Next() {
		var e CatalogEntry
		if err := rows.Scan(&e.Filename, &e.Size, &e.User, &e.Path, &e.Version); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// PutUser persists a username/password-hash pair.
func (s *PostgresStore) PutUser(username, passwordHash string) error {
	_, err := s.pool.Exec(context.Background(), `
		INSERT INTO users (username, password_hash) VALUES ($1, $2)
		ON CONFLICT (username) DO NOTHING
	`, username, passwordHash)
	return err
}

// LoadUsers returns the full user table, for startup hydration.
func (s *PostgresStore) LoadUsers() (map[string]string, error) {
	rows, err := s.pool.Query(context.Background(), `SELECT username, password_hash FROM users`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make(map[string]string)
	for rows.Next() {
		var username, hash string
		if err := rows.Scan(&username, &hash); err != nil {
			return nil, err
		}
		users[username] = hash
	}
	return users, rows.Err()
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}
