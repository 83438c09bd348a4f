package api

import (
	"errors"

	"ecommerce-service/internal/apperr"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponder turns the last error attached to the request into a
// {success:false, message} response with the status of its kind
func ErrorResponder(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		kind := apperr.KindOf(err)
		message := "Internal Server Error"

		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			message = appErr.Message
		}

		status := kind.HTTPStatus()
		if status >= 500 {
			logger.Error("Request failed",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.String("kind", kind.String()),
				zap.Error(err))
		}

		c.JSON(status, gin.H{
			"success": false,
			"message": message,
		})
	}
}
