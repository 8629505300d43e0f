package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
)

var tables = []string{"notes", "owners", "owner_auth_ids"}

const schemaDdl = `
CREATE TABLE IF NOT EXISTS notes (
	owner_id TEXT NOT NULL,
	note_id TEXT NOT NULL,
	body TEXT NOT NULL DEFAULT '',
	url TEXT NOT NULL DEFAULT '',
	is_deleted INTEGER NOT NULL DEFAULT 0,
	created INTEGER NOT NULL,
	modified INTEGER NOT NULL,
	synchronized INTEGER NOT NULL,
	PRIMARY KEY (owner_id, note_id)
);

CREATE INDEX IF NOT EXISTS idx_notes_owner_synchronized ON notes(owner_id, synchronized);

CREATE TABLE IF NOT EXISTS owners (
	id TEXT PRIMARY KEY,
	email TEXT,
	name TEXT,
	provider TEXT,
	merged_into TEXT,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_owners_merged_into ON owners(merged_into);

CREATE TABLE IF NOT EXISTS owner_auth_ids (
	auth_id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL,
	FOREIGN KEY (owner_id) REFERENCES owners(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_owner_auth_ids_owner ON owner_auth_ids(owner_id);
`

// Schema installs and checks the tables the SQLite stores need
type Schema struct {
	db *sql.DB
}

func NewSchema(db *sql.DB) *Schema {
	return &Schema{db: db}
}

// Run installs the schema. Running it more than once is harmless.
func (s *Schema) Run(ctx context.Context) error {
	log.Info().Msg("Applying SQLite schema")
	if _, err := s.db.ExecContext(ctx, schemaDdl); err != nil {
		return DbErr{Underlying: err}
	}
	return nil
}

// Check returns SchemaNotInstalled if any table is missing
func (s *Schema) Check(ctx context.Context) error {
	var missing []string
	for _, table := range tables {
		var name string
		err := s.db.QueryRowContext(ctx,
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
		).Scan(&name)
		switch {
		case err == sql.ErrNoRows:
			missing = append(missing, table)
		case err != nil:
			return DbErr{Underlying: err}
		}
	}
	if len(missing) != 0 {
		return SchemaNotInstalled{Missing: missing}
	}
	return nil
}

type SchemaNotInstalled struct {
	Missing []string
}

func (e SchemaNotInstalled) Error() string {
	return fmt.Sprintf("One or more tables were not installed. Please run `notesync setup` to install them [%v]", e.Missing)
}
