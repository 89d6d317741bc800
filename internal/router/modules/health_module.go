package modules

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bakehouse/console/pkg/response"
)

// HealthModule exposes the liveness endpoint load balancers poll.
type HealthModule struct{}

func NewHealthModule() *HealthModule { return &HealthModule{} }

func (m *HealthModule) Register(rg *gin.RouterGroup) {
	rg.GET("/healthz", func(c *gin.Context) {
		response.OK(c, http.StatusOK, gin.H{"status": "ok"}, "healthy")
	})
}
