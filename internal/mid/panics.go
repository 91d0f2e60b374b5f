package mid

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/staffdesk/staffdesk/internal/metrics"
	"github.com/staffdesk/staffdesk/pkg/logger"
)

func Panic(log *logger.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				stack := debug.Stack()
				m.AddPanic()

				log.Error(c.Request.Context(), "PANIC", "rec", rec, "STACK", string(stack))
				c.JSON(http.StatusInternalServerError, gin.H{"error": http.StatusText(http.StatusInternalServerError)})
				c.Abort()
				return
			}
		}()

		c.Next()
	}
}
