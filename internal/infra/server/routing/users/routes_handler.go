package users

import (
	"net/http"

	"github.com/gin-gonic/gin"

	userController "github.com/lloydmeta/notesync/internal/api/controllers/user"
	"github.com/lloydmeta/notesync/internal/domain/account"
	"github.com/lloydmeta/notesync/internal/infra/server/routing"
)

var userPath = "user"
var disconnectPath = "disconnect"

type RoutesHandler struct {
	Controller userController.Controller
	Accounts   account.Service
}

func (h *RoutesHandler) RegisterRoutes(routerGroup *gin.RouterGroup) {
	requireOwner := routing.RequireOwner(h.Accounts)
	routerGroup.GET(userPath, h.getOrCreate)
	routerGroup.DELETE(userPath, routing.OptionalOwner(h.Accounts), h.delete)
	routerGroup.POST(disconnectPath, requireOwner, h.disconnect)
}

// @Summary Get the current User
// @ID get-or-create-user
// @Tags users
// @Description Returns the User for the token, creating one (with a new token) if the token is missing or unknown
// @Produce  json
// @Param X-Messaging-Token header string false "Client token"
// @Success 200 {object} owner.User "Existing User"
// @Success 201 {object} owner.User "New User"
// @Router /api/user [get]
func (h *RoutesHandler) getOrCreate(c *gin.Context) {
	if u, created, err := h.Controller.GetOrCreate(c.Request.Context(), routing.Token(c)); err == nil {
		if created {
			c.JSON(http.StatusCreated, u)
		} else {
			c.JSON(http.StatusOK, u)
		}
	} else {
		routing.HandleApiErr(c, err)
	}
}

// @Summary Delete the current User
// @ID delete-user
// @Tags users
// @Description Deletes every Note of the User, then the User itself. A missing or unknown token has nothing to delete.
// @Param X-Messaging-Token header string false "Client token"
// @Success 204
// @Router /api/user [delete]
func (h *RoutesHandler) delete(c *gin.Context) {
	current, ok := routing.CurrentOwner(c)
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	if err := h.Controller.Delete(c.Request.Context(), current); err == nil {
		c.Status(http.StatusNoContent)
	} else {
		routing.HandleApiErr(c, err)
	}
}

// @Summary Disconnect linked identities
// @ID disconnect-user
// @Tags users
// @Description Drops linked identities and issues a fresh token. The old token stops working. A User without linked identities is returned unchanged.
// @Produce  json
// @Param X-Messaging-Token header string true "Client token"
// @Success 200 {object} owner.User
// @Failure 403 {object} common.Body "Unknown token"
// @Router /api/disconnect [post]
func (h *RoutesHandler) disconnect(c *gin.Context) {
	current, ok := routing.CurrentOwner(c)
	if !ok {
		routing.HandleMissingOwner(c)
		return
	}
	if u, err := h.Controller.Disconnect(c.Request.Context(), current); err == nil {
		c.JSON(http.StatusOK, u)
	} else {
		routing.HandleApiErr(c, err)
	}
}
