package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/lloydmeta/notesync/internal/domain/note"
	"github.com/lloydmeta/notesync/internal/domain/owner"
)

const noteColumns = `owner_id, note_id, body, url, is_deleted, created, modified, synchronized`

const upsertNote = `
INSERT INTO notes (` + noteColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (owner_id, note_id) DO UPDATE SET
	body = excluded.body,
	url = excluded.url,
	is_deleted = excluded.is_deleted,
	created = excluded.created,
	modified = excluded.modified,
	synchronized = excluded.synchronized`

type NoteService struct {
	db *sql.DB
}

func NewNoteService(db *sql.DB) note.Store {
	return &NoteService{db: db}
}

func (s *NoteService) Get(ctx context.Context, ownerId owner.Id, id note.Id) (*note.Note, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE owner_id = ? AND note_id = ?`,
		string(ownerId), string(id),
	)
	n, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, note.NotFound{ID: id, Owner: ownerId}
	} else if err != nil {
		return nil, DbErr{Underlying: err}
	}
	return &n, nil
}

func (s *NoteService) ChangedAfter(ctx context.Context, ownerId owner.Id, checkpoint note.Checkpoint) ([]note.Note, error) {
	if checkpoint.IsNever() {
		return s.query(ctx,
			`SELECT `+noteColumns+` FROM notes WHERE owner_id = ? ORDER BY synchronized DESC, note_id ASC`,
			string(ownerId),
		)
	}
	return s.query(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE owner_id = ? AND synchronized > ? ORDER BY synchronized DESC, note_id ASC`,
		string(ownerId), toMillis(time.Time(checkpoint)),
	)
}

func (s *NoteService) Active(ctx context.Context, ownerId owner.Id) ([]note.Note, error) {
	return s.query(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE owner_id = ? AND is_deleted = 0 ORDER BY note_id ASC`,
		string(ownerId),
	)
}

func (s *NoteService) Put(ctx context.Context, n *note.Note) error {
	if _, err := s.db.ExecContext(ctx, upsertNote, noteArgs(n)...); err != nil {
		return DbErr{Underlying: err}
	}
	return nil
}

// PutBatch writes every note in a single transaction
func (s *NoteService) PutBatch(ctx context.Context, notes []note.Note) error {
	if len(notes) == 0 {
		return nil
	}
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, upsertNote)
		if err != nil {
			return DbErr{Underlying: err}
		}
		defer stmt.Close()
		for i := range notes {
			if _, err := stmt.ExecContext(ctx, noteArgs(&notes[i])...); err != nil {
				return DbErr{Underlying: err}
			}
		}
		return nil
	})
}

func (s *NoteService) DeleteAll(ctx context.Context, ownerId owner.Id) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE owner_id = ?`, string(ownerId)); err != nil {
		return DbErr{Underlying: err}
	}
	return nil
}

func (s *NoteService) query(ctx context.Context, query string, args ...interface{}) ([]note.Note, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, DbErr{Underlying: err}
	}
	defer rows.Close()
	var notes []note.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, DbErr{Underlying: err}
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, DbErr{Underlying: err}
	}
	return notes, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanNote(row scanner) (note.Note, error) {
	var (
		ownerId, noteId, body, url      string
		isDeleted                       bool
		created, modified, synchronized int64
	)
	if err := row.Scan(&ownerId, &noteId, &body, &url, &isDeleted, &created, &modified, &synchronized); err != nil {
		return note.Note{}, err
	}
	return note.Note{
		ID:           note.Id(noteId),
		Owner:        owner.Id(ownerId),
		Body:         body,
		Url:          url,
		IsDeleted:    isDeleted,
		Created:      note.CreatedAt(fromMillis(created)),
		Modified:     note.ModifiedAt(fromMillis(modified)),
		Synchronized: note.Checkpoint(fromMillis(synchronized)),
	}, nil
}

func noteArgs(n *note.Note) []interface{} {
	stored := n.Projected()
	return []interface{}{
		string(stored.Owner),
		string(stored.ID),
		stored.Body,
		stored.Url,
		stored.IsDeleted,
		toMillis(time.Time(stored.Created)),
		toMillis(time.Time(stored.Modified)),
		toMillis(time.Time(stored.Synchronized)),
	}
}
