package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookmarks/internal/auth"
	"github.com/mrlokans/bookmarks/internal/database"
	"github.com/mrlokans/bookmarks/internal/database/bookmarks"
	"github.com/mrlokans/bookmarks/internal/logger"
	"github.com/mrlokans/bookmarks/internal/validation"
)

// Error categories returned to clients.
const (
	ErrCodeNotFound            = "request_path_not_found"
	ErrCodeForbidden           = "action_not_allowed"
	ErrCodeConstraintViolation = "constraint_violation"
	ErrCodeDatabase            = "database_error"
	ErrCodeInternal            = "internal_server_error"
)

var (
	errNotFound  = errors.New("not found")
	errForbidden = errors.New("forbidden")
)

// ErrorResponse is the body of every non-validation error.
type ErrorResponse struct {
	Error      string `json:"error"`
	Constraint string `json:"constraint,omitempty"`
	Message    string `json:"message,omitempty"`
}

// respondError is the single place where errors become HTTP responses.
// Details of 5xx errors are logged and never sent to the client.
func respondError(c *gin.Context, log logger.Logger, err error) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		c.JSON(verr.Status, gin.H{"errors": verr.Fields})
		return
	}

	switch {
	case errors.Is(err, errNotFound), errors.Is(err, bookmarks.ErrAssociationNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: ErrCodeNotFound})
		return
	case errors.Is(err, auth.ErrAuthRequired), errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenExpired):
		auth.AbortUnauthorized(c)
		return
	case errors.Is(err, errForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: ErrCodeForbidden})
		return
	}

	if v, ok := database.ConstraintViolation(err); ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:      ErrCodeConstraintViolation,
			Constraint: v.Constraint,
			Message:    v.Message,
		})
		return
	}

	code := ErrCodeInternal
	if database.IsStoreError(err) {
		code = ErrCodeDatabase
	}
	log.Error("request failed",
		logger.String("method", c.Request.Method),
		logger.String("path", c.FullPath()),
		logger.String("category", code),
		logger.Error(err))
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: code})
}
