// Package mid holds the gin middleware stack for the service.
package mid

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/staffdesk/staffdesk/internal/errs"
	"github.com/staffdesk/staffdesk/pkg/logger"
)

var translator ut.Translator

func init() {
	//hook translations into gin's binding validator
	if validate, ok := binding.Validator.Engine().(*validator.Validate); ok {
		translator, _ = ut.New(en.New(), en.New()).GetTranslator("en")
		en_translations.RegisterDefaultTranslations(validate, translator)

		//use json tag names instead of struct field names
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			tag := field.Tag.Get("json")
			name := strings.SplitN(tag, ",", 2)[0]

			if name == "-" {
				return ""
			}
			return name
		})
	}
}

func Error(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next() // Process the request first.

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		var appErr *errs.Error
		var validationErrors validator.ValidationErrors

		switch {
		case errors.As(err, &appErr):
			log.Error(c.Request.Context(), "error while handling request", "err", err, "fileName", appErr.FileName, "funcName", appErr.FuncName)
			//internal server errors get a generic message so we do not leak any info
			if appErr.Code == http.StatusInternalServerError {
				appErr.Message = http.StatusText(http.StatusInternalServerError)
			}

			c.JSON(appErr.Code, appErr)
		case errors.As(err, &validationErrors):
			//model binding errors
			fieldErrs := make(map[string]string, len(validationErrors))
			for _, e := range validationErrors {
				fieldErrs[e.Field()] = e.Translate(translator)
			}
			err := errs.Error{
				Code:    http.StatusBadRequest,
				Message: "validation failed",
				Fields:  fieldErrs,
			}
			c.JSON(err.Code, err)
		default:
			log.Error(c.Request.Context(), "unknown error", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": http.StatusText(http.StatusInternalServerError)})
		}
	}
}
