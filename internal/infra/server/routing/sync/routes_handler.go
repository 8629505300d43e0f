package sync

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	syncController "github.com/lloydmeta/notesync/internal/api/controllers/sync"
	"github.com/lloydmeta/notesync/internal/api/models/note"
	"github.com/lloydmeta/notesync/internal/domain/account"
	"github.com/lloydmeta/notesync/internal/infra/server/routing"
)

var subPath = "sync"

type RoutesHandler struct {
	Controller syncController.Controller
	Accounts   account.Service
}

func (h *RoutesHandler) RegisterRoutes(routerGroup *gin.RouterGroup) {
	routerGroup.POST(subPath, routing.RequireOwner(h.Accounts), h.sync)
}

// @Summary Sync Notes
// @ID sync-notes
// @Tags sync
// @Description Merges the client's Notes and returns the ones it has not seen yet
// @Accept  json
// @Produce  json
// @Param X-Messaging-Token header string true "Client token"
// @Param   syncRequest body note.SyncRequest true "The request body"
// @Success 200 {object} note.SyncResponse
// @Failure 400 {object} common.Body "Invalid JSON or Notes"
// @Failure 403 {object} common.Body "Unknown token"
// @Router /api/sync [post]
func (h *RoutesHandler) sync(c *gin.Context) {
	current, ok := routing.CurrentOwner(c)
	if !ok {
		routing.HandleMissingOwner(c)
		return
	}
	var req note.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		routing.HandleJsonSerdesErr(c, err)
	} else {
		syncId := uuid.New().String()
		log.Debug().
			Str("sync_id", syncId).
			Str("owner_id", string(current.ID)).
			Int("note_count", len(req.Notes)).
			Msg("Sync requested")
		if resp, err := h.Controller.Sync(c.Request.Context(), current.ID, &req); err == nil {
			log.Debug().
				Str("sync_id", syncId).
				Int("outgoing_count", len(resp.Notes)).
				Msg("Sync done")
			c.JSON(http.StatusOK, resp)
		} else {
			log.Warn().
				Str("sync_id", syncId).
				Int("status", err.StatusCode).
				Str("message", err.Body.Message).
				Msg("Sync failed")
			routing.HandleApiErr(c, err)
		}
	}
}
