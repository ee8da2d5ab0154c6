package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hamzarao/carsaaz/pkg/response"
)

// Health answers readiness probes. It deliberately avoids touching the
// database so a saturated connection pool does not flap the probe.
func Health() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{
			"status":  "ok",
			"service": "carsaaz",
		})
	}
}
