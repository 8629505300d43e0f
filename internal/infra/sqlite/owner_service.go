package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/lloydmeta/notesync/internal/domain/owner"
)

const ownerColumns = `id, email, name, provider, merged_into, created_at`

type OwnerService struct {
	db *sql.DB
}

func NewOwnerService(db *sql.DB) owner.Store {
	return &OwnerService{db: db}
}

func (s *OwnerService) Create(ctx context.Context, o *owner.Owner) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		var taken int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM owners WHERE id = ?`, string(o.ID)).Scan(&taken); err != nil {
			return DbErr{Underlying: err}
		}
		for _, authId := range o.AuthIds {
			var holders int
			if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM owner_auth_ids WHERE auth_id = ?`, string(authId)).Scan(&holders); err != nil {
				return DbErr{Underlying: err}
			}
			taken += holders
		}
		if taken > 0 {
			return owner.AlreadyExists{ID: o.ID}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO owners (`+ownerColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
			ownerArgs(o)...,
		); err != nil {
			return DbErr{Underlying: err}
		}
		return insertAuthIds(ctx, tx, o)
	})
}

func (s *OwnerService) Get(ctx context.Context, id owner.Id) (*owner.Owner, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+ownerColumns+` FROM owners WHERE id = ?`, string(id))
	o, err := scanOwner(row)
	if err == sql.ErrNoRows {
		return nil, owner.NotFound{ID: id}
	} else if err != nil {
		return nil, DbErr{Underlying: err}
	}
	if err := s.loadAuthIds(ctx, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *OwnerService) GetByAuthId(ctx context.Context, authId owner.AuthId) (*owner.Owner, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT owner_id FROM owner_auth_ids WHERE auth_id = ?`, string(authId)).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, owner.NotFound{AuthId: authId}
	} else if err != nil {
		return nil, DbErr{Underlying: err}
	}
	o, err := s.Get(ctx, owner.Id(id))
	if _, isNotFound := err.(owner.NotFound); isNotFound {
		return nil, owner.NotFound{AuthId: authId}
	}
	return o, err
}

// Update rewrites the Owner row and replaces its AuthIds
func (s *OwnerService) Update(ctx context.Context, o *owner.Owner) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		args := ownerArgs(o)
		result, err := tx.ExecContext(ctx,
			`UPDATE owners SET email = ?, name = ?, provider = ?, merged_into = ?, created_at = ? WHERE id = ?`,
			append(args[1:], args[0])...,
		)
		if err != nil {
			return DbErr{Underlying: err}
		}
		if affected, err := result.RowsAffected(); err != nil {
			return DbErr{Underlying: err}
		} else if affected == 0 {
			return owner.NotFound{ID: o.ID}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM owner_auth_ids WHERE owner_id = ?`, string(o.ID)); err != nil {
			return DbErr{Underlying: err}
		}
		return insertAuthIds(ctx, tx, o)
	})
}

func (s *OwnerService) Delete(ctx context.Context, id owner.Id) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM owners WHERE id = ?`, string(id)); err != nil {
		return DbErr{Underlying: err}
	}
	return nil
}

func (s *OwnerService) Merged(ctx context.Context) ([]owner.Owner, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+ownerColumns+` FROM owners WHERE merged_into IS NOT NULL ORDER BY id`)
	if err != nil {
		return nil, DbErr{Underlying: err}
	}
	var merged []owner.Owner
	for rows.Next() {
		o, err := scanOwner(rows)
		if err != nil {
			rows.Close()
			return nil, DbErr{Underlying: err}
		}
		merged = append(merged, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, DbErr{Underlying: err}
	}
	for i := range merged {
		if err := s.loadAuthIds(ctx, &merged[i]); err != nil {
			return nil, err
		}
	}
	return merged, nil
}

func (s *OwnerService) loadAuthIds(ctx context.Context, o *owner.Owner) error {
	rows, err := s.db.QueryContext(ctx, `SELECT auth_id FROM owner_auth_ids WHERE owner_id = ? ORDER BY rowid`, string(o.ID))
	if err != nil {
		return DbErr{Underlying: err}
	}
	defer rows.Close()
	o.AuthIds = []owner.AuthId{}
	for rows.Next() {
		var authId string
		if err := rows.Scan(&authId); err != nil {
			return DbErr{Underlying: err}
		}
		o.AuthIds = append(o.AuthIds, owner.AuthId(authId))
	}
	if err := rows.Err(); err != nil {
		return DbErr{Underlying: err}
	}
	return nil
}

func insertAuthIds(ctx context.Context, tx *sql.Tx, o *owner.Owner) error {
	for _, authId := range o.AuthIds {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO owner_auth_ids (auth_id, owner_id) VALUES (?, ?)`,
			string(authId), string(o.ID),
		); err != nil {
			return DbErr{Underlying: err}
		}
	}
	return nil
}

func scanOwner(row scanner) (owner.Owner, error) {
	var (
		id                              string
		email, name, provider, mergedTo sql.NullString
		createdAt                       int64
	)
	if err := row.Scan(&id, &email, &name, &provider, &mergedTo, &createdAt); err != nil {
		return owner.Owner{}, err
	}
	o := owner.Owner{
		ID:        owner.Id(id),
		Email:     fromNullString(email),
		Name:      fromNullString(name),
		Provider:  fromNullString(provider),
		CreatedAt: owner.CreatedAt(fromMillis(createdAt)),
	}
	if mergedTo.Valid {
		m := owner.MergedInto(mergedTo.String)
		o.MergedInto = &m
	}
	return o, nil
}

func ownerArgs(o *owner.Owner) []interface{} {
	var mergedInto sql.NullString
	if o.MergedInto != nil {
		mergedInto = sql.NullString{String: string(*o.MergedInto), Valid: true}
	}
	return []interface{}{
		string(o.ID),
		toNullString(o.Email),
		toNullString(o.Name),
		toNullString(o.Provider),
		mergedInto,
		toMillis(time.Time(o.CreatedAt)),
	}
}

func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
