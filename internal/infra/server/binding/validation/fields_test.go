package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/go-playground/validator.v9"

	"github.com/lloydmeta/notesync/internal/domain/note"
)

func TestNoteIdValidator(t *testing.T) {
	validate := validator.New()
	_ = validate.RegisterValidation(NoteIdValidatorTag, NoteIdValidator)
	tests := []struct {
		name    string
		id      interface{}
		wantErr bool
	}{
		{
			name:    "must not be empty",
			id:      note.Id(""),
			wantErr: true,
		},
		{
			name:    "must not be only whitespace",
			id:      note.Id(" \t\n"),
			wantErr: true,
		},
		{
			name:    "plain string ids are checked too",
			id:      "  ",
			wantErr: true,
		},
		{
			name:    "padded ids are fine",
			id:      note.Id(" abc "),
			wantErr: false,
		},
		{
			name:    "uuid-looking ids are fine",
			id:      note.Id("0b6a1f4e-6d2b-4c1e-9f3e-1b2c3d4e5f60"),
			wantErr: false,
		},
		{
			name:    "other types are ignored",
			id:      123,
			wantErr: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Var(tt.id, NoteIdValidatorTag)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
