package health

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

var healthPath = "/health"

// Status is the health route's body
type Status struct {
	Ok      bool   `json:"ok"`
	Storage string `json:"storage"`
}

type RoutesHandler struct {
	// Backend name reported in the body
	Storage string
	// Returns an error if the storage backend cannot be reached
	Ping func(ctx context.Context) error
}

// RegisterRoutes registers the health route at the root, outside of any auth
func (h *RoutesHandler) RegisterRoutes(ginEngine *gin.Engine) {
	ginEngine.GET(healthPath, h.health)
}

func (h *RoutesHandler) health(c *gin.Context) {
	if err := h.Ping(c.Request.Context()); err != nil {
		log.Warn().Err(err).Str("storage", h.Storage).Msg("Health check failed")
		c.JSON(http.StatusServiceUnavailable, Status{Ok: false, Storage: h.Storage})
	} else {
		c.JSON(http.StatusOK, Status{Ok: true, Storage: h.Storage})
	}
}
