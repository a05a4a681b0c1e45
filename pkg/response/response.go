package response

import (
	"errors"
	"net/http"

	"anoa.com/tutorhub/pkg/apperror"
	"anoa.com/tutorhub/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

var log = logger.Nop()

// SetLogger installs the logger used for internal errors.
func SetLogger(l *logger.Logger) {
	if l != nil {
		log = l
	}
}

// GetUserID retrieves the authenticated user ID from the context
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	userIDStr, exists := c.Get(ContextUserID)
	if !exists {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	s, ok := userIDStr.(string)
	if !ok {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	userID, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	return userID, nil
}

// ResponseError standardized error response. Storage and unknown errors are
// logged with their cause and reported generically.
func ResponseError(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)

	if code == http.StatusInternalServerError {
		log.Error("internal error", "path", c.FullPath(), "method", c.Request.Method, "error", err)
		c.JSON(code, gin.H{"error": "something went wrong, please try again"})
		return
	}

	var vErr *apperror.ValidationError
	if errors.As(err, &vErr) && len(vErr.Fields) > 0 {
		c.JSON(code, gin.H{"error": vErr.Error(), "fields": vErr.Fields})
		return
	}

	if code == http.StatusUnauthorized && errors.Is(err, apperror.ErrInvalidCredentials) {
		c.JSON(code, gin.H{"error": apperror.ErrInvalidCredentials.Error()})
		return
	}

	c.JSON(code, gin.H{"error": err.Error()})
}
