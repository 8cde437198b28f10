package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/douanenc/backend/internal/apperrors"
	"github.com/douanenc/backend/internal/authz"
	"github.com/douanenc/backend/internal/middleware"
)

// respondError maps a service error to its HTTP status. Untyped errors
// come back as an internal dependency failure.
func respondError(c *gin.Context, err error) {
	appErr := apperrors.From(err)
	c.JSON(appErr.HTTPStatus(), gin.H{
		"error": appErr.Message,
		"code":  string(appErr.Kind),
	})
}

// requireActor pulls the authenticated identity out of the request
// context, aborting with 401 when the auth middleware did not run.
func requireActor(c *gin.Context) (authz.Actor, bool) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		c.Abort()
	}
	return actor, ok
}
