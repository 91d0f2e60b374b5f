package mid

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/staffdesk/staffdesk/pkg/logger"
)

func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startedAt := time.Now()

		//full path with queries
		p := c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			p = fmt.Sprintf("%s?%s", p, c.Request.URL.RawQuery)
		}

		ctx := c.Request.Context()
		log.Info(ctx, "request started", "method", c.Request.Method, "path", p, "remoteAddr", c.Request.RemoteAddr)

		c.Next()

		took := time.Since(startedAt)
		log.Info(c.Request.Context(), "request completed", "method", c.Request.Method, "path", p, "remoteAddr", c.Request.RemoteAddr, "statusCode", c.Writer.Status(), "took", took)
	}
}
