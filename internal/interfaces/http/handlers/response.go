package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/your-org/flooring-store/internal/interfaces/http/middleware"
	"github.com/your-org/flooring-store/internal/pkg/apperror"
)

// respondError writes err with the status its kind maps to. Server side
// failures are logged and their details kept out of the body.
func respondError(c *gin.Context, log *logrus.Logger, err error) {
	status := apperror.HTTPStatus(err)
	body := gin.H{"error": err.Error()}

	var ve *apperror.ValidationError
	if errors.As(err, &ve) {
		body["error"] = ve.Message
		if len(ve.Fields) > 0 {
			body["fields"] = ve.Fields
		}
	}

	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		log.WithFields(logrus.Fields{
			"request_id": c.GetString(middleware.ContextRequestID),
			"path":       c.FullPath(),
		}).WithError(err).Error("request failed")
		body["error"] = http.StatusText(status)
	}

	c.AbortWithStatusJSON(status, body)
}

// respondBindError reports a request that failed to bind or validate
func respondBindError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request data",
		"details": err.Error(),
	})
}

// parseIDParam reads a positive numeric path parameter
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error": "Invalid " + name,
		})
		return 0, false
	}
	return uint(id), true
}

// requireUser returns the authenticated user id or aborts with 401
func requireUser(c *gin.Context) (uint, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return 0, false
	}
	return userID, true
}
