package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterStatus registers the liveness probe consumed by the API gateway.
// It reports process liveness only; readiness (store connectivity) is served
// separately by /ready.
func RegisterStatus(r *gin.Engine) {
	r.GET("/api/utils/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
}
