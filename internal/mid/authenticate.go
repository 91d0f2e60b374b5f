package mid

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/staffdesk/staffdesk/internal/auth"
	"github.com/staffdesk/staffdesk/internal/domains/employee/bus"
	"github.com/staffdesk/staffdesk/pkg/logger"
)

func Authenticate(log *logger.Logger, a *auth.Auth, empBus *bus.Bus) gin.HandlerFunc {
	return func(c *gin.Context) {
		//5 second budget to hit the db
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second*5)
		defer cancel()

		token := c.Request.Header.Get("authorization")

		claims, err := a.VerifyToken(ctx, token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			c.Abort()
			return
		}

		if claims.Subject == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "you are not authorized to take this action"})
			c.Abort()
			return
		}

		//the subject is the employee id, confirm the record still exists
		emp, err := empBus.QueryByID(ctx, claims.Subject)
		if errors.Is(err, bus.ErrEmployeeNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": http.StatusText(http.StatusUnauthorized)})
			c.Abort()
			return
		}

		if err != nil {
			log.Error(c.Request.Context(), "queryByID", "error", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": http.StatusText(http.StatusInternalServerError)})
			c.Abort()
			return
		}

		c.Set("claims", claims)
		c.Set("employee", emp)

		c.Next()
	}
}
