package routing

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lloydmeta/notesync/internal/api/models/common"
)

var apiPath = "/api"

var notFoundErr = common.ApiError{
	StatusCode: http.StatusNotFound,
	Body: common.Body{
		Message: "No such route.",
	},
}

var noMethodErr = common.ApiError{
	StatusCode: http.StatusMethodNotAllowed,
	Body: common.Body{
		Message: "No such route.",
	},
}

// NewTopLevelRoutesGroup returns the group that client facing routes hang off of
func NewTopLevelRoutesGroup(ginEngine *gin.Engine) *gin.RouterGroup {
	return ginEngine.Group(apiPath)
}

func NoRoute(c *gin.Context) {
	HandleApiErr(c, &notFoundErr)
}

func NoMethod(c *gin.Context) {
	HandleApiErr(c, &noMethodErr)
}

func HandleApiErr(c *gin.Context, apiError *common.ApiError) {
	c.JSON(apiError.StatusCode, apiError.Body)
}

func HandleJsonSerdesErr(c *gin.Context, err error) {
	errResp := common.ApiError{
		StatusCode: http.StatusBadRequest,
		Body: common.Body{
			Message: err.Error(),
		},
	}
	HandleApiErr(c, &errResp)
}
