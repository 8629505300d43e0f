package routing

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/lloydmeta/notesync/internal/api/models/common"
	"github.com/lloydmeta/notesync/internal/domain/account"
	"github.com/lloydmeta/notesync/internal/domain/owner"
)

// Header that clients send their token in
var IdentityHeaderKey = "X-Messaging-Token"

var currentOwnerKey = "notesync.current_owner"

// Token returns the trimmed token sent by the client, if any
func Token(c *gin.Context) owner.AuthId {
	return owner.AuthId(strings.TrimSpace(c.GetHeader(IdentityHeaderKey)))
}

// RequireOwner resolves the token into an Owner and stores it on the context, aborting
// with 403 if that is not possible.
func RequireOwner(accounts account.Service) gin.HandlerFunc {
	return resolveOwner(accounts, true)
}

// OptionalOwner is like RequireOwner, but lets requests with a missing or unknown token
// through without an Owner on the context.
func OptionalOwner(accounts account.Service) gin.HandlerFunc {
	return resolveOwner(accounts, false)
}

func resolveOwner(accounts account.Service, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := accounts.Resolve(c.Request.Context(), Token(c))
		if err != nil {
			var apiErr common.ApiError
			if _, ok := err.(account.Unauthorized); ok {
				if !required {
					c.Next()
					return
				}
				apiErr = common.ApiError{
					StatusCode: http.StatusForbidden,
					Body:       common.Body{Message: err.Error()},
				}
			} else {
				log.Error().Err(err).Msg("Failed to resolve owner")
				apiErr = common.ApiError{
					StatusCode: http.StatusInternalServerError,
					Body:       common.Body{Message: err.Error()},
				}
			}
			c.AbortWithStatusJSON(apiErr.StatusCode, apiErr.Body)
			return
		}
		c.Set(currentOwnerKey, o)
		c.Next()
	}
}

// CurrentOwner returns the Owner stored by RequireOwner
func CurrentOwner(c *gin.Context) (*owner.Owner, bool) {
	if v, exists := c.Get(currentOwnerKey); exists {
		o, ok := v.(*owner.Owner)
		return o, ok && o != nil
	}
	return nil, false
}

// HandleMissingOwner is for handlers that were registered without RequireOwner
func HandleMissingOwner(c *gin.Context) {
	HandleApiErr(c, &common.ApiError{
		StatusCode: http.StatusForbidden,
		Body:       common.Body{Message: account.Unauthorized{}.Error()},
	})
}
