package middleware

import (
	"errors"   // Error matching
	"net/http" // HTTP status codes

	"etuition/internal/domain" // Error taxonomy

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Structured logging
)

// StatusFor maps an error onto an HTTP status
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// deny aborts with the status err maps to and a {"message"} body
func deny(c *gin.Context, err error, msg string) {
	c.AbortWithStatusJSON(StatusFor(err), gin.H{"message": msg})
}

// ErrorHandler renders the last error a handler attached with c.Error
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		status := StatusFor(err)
		msg := err.Error()
		if status == http.StatusInternalServerError {
			// Internal details stay in the log
			logrus.WithFields(logrus.Fields{
				"method": c.Request.Method,
				"path":   c.FullPath(),
				"error":  err.Error(),
			}).Error("Request failed")
			msg = "Internal server error"
		}
		c.JSON(status, gin.H{"error": msg})
	}
}
