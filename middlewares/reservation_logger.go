package middlewares

import (
	"github.com/gin-gonic/gin"

	"github.com/giovanni-pe/api-smarpx/utils"
)

// ReservationLoggerMiddleware records every lifecycle transition attempt
// with its outcome, keyed by reservation id.
func ReservationLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		utils.InfoLogger.Printf("Transition requested for reservation %s: %s", c.Param("reservation_id"), c.FullPath())

		c.Next()

		if status := c.Writer.Status(); status >= 200 && status < 300 {
			utils.InfoLogger.Printf("Transition applied for reservation %s", c.Param("reservation_id"))
		} else {
			utils.ErrorLogger.Printf("Transition rejected for reservation %s (status=%d)", c.Param("reservation_id"), status)
		}
	}
}
