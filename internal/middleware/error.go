package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/errors"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/logger"
)

// ErrorHandler renders the last error attached to the gin context with
// c.Error. AppErrors keep their status and code; anything else becomes an
// INTERNAL_ERROR without details.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		writeError(c, c.Errors.Last().Err)
	}
}

// Recovery turns a panic inside a handler into an INTERNAL_ERROR response.
// A ledger mutation that panics has already been rolled back by its database
// transaction.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Get().Errorw("panic recovered",
					"panic", r,
					"request_id", c.GetString(requestIDKey),
					"path", c.Request.URL.Path,
				)
				if !c.Writer.Written() {
					writeError(c, apperrors.ErrInternalServer)
				}
				c.Abort()
			}
		}()
		c.Next()
	}
}

func writeError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		logger.Get().Errorw("unexpected error",
			"error", err.Error(),
			"request_id", c.GetString(requestIDKey),
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
		)
		appErr = apperrors.ErrInternalServer
	} else if appErr.Internal != nil {
		logger.Get().Errorw("app error",
			"code", appErr.Code,
			"internal", appErr.Internal.Error(),
			"request_id", c.GetString(requestIDKey),
			"path", c.Request.URL.Path,
		)
	}

	status := appErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
		},
	})
}
