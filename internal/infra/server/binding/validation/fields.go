package validation

import (
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/rs/zerolog/log"
	"gopkg.in/go-playground/validator.v9"

	"github.com/lloydmeta/notesync/internal/domain/note"
)

func SetUpValidators() {
	log.Info().Msg("Setting up custom validators")
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := v.RegisterValidation(NoteIdValidatorTag, NoteIdValidator); err != nil {
			log.Fatal().Err(err).Msg("Failed to set up Note id validator")
		}
	}
}

// Note ids must be present and not just whitespace
var NoteIdValidatorTag = "noteId"
var NoteIdValidator validator.Func = func(fl validator.FieldLevel) bool {
	switch id := fl.Field().Interface().(type) {
	case note.Id:
		return strings.TrimSpace(string(id)) != ""
	case string:
		return strings.TrimSpace(id) != ""
	default:
		return true
	}
}
