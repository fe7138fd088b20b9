package credentials

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/alphapie77/booklending-go/internal/catalog"
)

// PostgresStore keeps the credential record in a single-row table, for
// deployments where the client runs next to shared infrastructure.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	s := &PostgresStore{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema() error {
	const q = `
CREATE TABLE IF NOT EXISTS client_credentials (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	token TEXT NOT NULL,
	user_id TEXT NOT NULL,
	username TEXT NOT NULL,
	email TEXT NOT NULL DEFAULT '',
	first_name TEXT NOT NULL DEFAULT '',
	last_name TEXT NOT NULL DEFAULT '',
	profile_picture TEXT NOT NULL DEFAULT '',
	expires_at TIMESTAMPTZ NOT NULL
)`
	if _, err := s.db.Exec(q); err != nil {
		return fmt.Errorf("ensure client_credentials schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load() (Record, bool, error) {
	const q = `
SELECT token, user_id, username, email, first_name, last_name, profile_picture, expires_at
FROM client_credentials WHERE id = 1`

	var rec Record
	var userID string
	err := s.db.QueryRow(q).Scan(
		&rec.Token, &userID, &rec.Username, &rec.Email,
		&rec.FirstName, &rec.LastName, &rec.ProfilePicture, &rec.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, false, nil
		}
		return Record{}, false, fmt.Errorf("query credential record: %w", err)
	}
	rec.UserID = catalog.ID(userID)
	return rec, true, nil
}

func (s *PostgresStore) Save(rec Record) error {
	const q = `
INSERT INTO client_credentials (id, token, user_id, username, email, first_name, last_name, profile_picture, expires_at)
VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET
	token = EXCLUDED.token,
	user_id = EXCLUDED.user_id,
	username = EXCLUDED.username,
	email = EXCLUDED.email,
	first_name = EXCLUDED.first_name,
	last_name = EXCLUDED.last_name,
	profile_picture = EXCLUDED.profile_picture,
	expires_at = EXCLUDED.expires_at`

	if _, err := s.db.Exec(q,
		rec.Token, string(rec.UserID), rec.Username, rec.Email,
		rec.FirstName, rec.LastName, rec.ProfilePicture, rec.ExpiresAt,
	); err != nil {
		return fmt.Errorf("upsert credential record: %w", err)
	}
	return nil
}

func (s *PostgresStore) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM client_credentials WHERE id = 1`); err != nil {
		return fmt.Errorf("clear credential record: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
