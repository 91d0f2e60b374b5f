package mid

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/staffdesk/staffdesk/internal/metrics"
)

func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		numReq := m.AddRequest()
		if numReq%1000 == 0 {
			m.AddGoroutine()
		}

		if c.Writer.Status() >= http.StatusInternalServerError || len(c.Errors) > 0 {
			m.AddError()
		}
	}
}
