// Package handlers exposes the engine over HTTP. Handlers only translate
// between JSON and service calls; every rule lives in internal/services.
package handlers

import (
	"fmt"
	"strconv"

	"community-match-service/internal/middleware"
	"community-match-service/internal/models"

	"github.com/gin-gonic/gin"
)

func currentUser(c *gin.Context) (uint, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		middleware.RespondError(c, models.NewUnauthorizedError("user not authenticated"))
	}
	return userID, ok
}

// pathID parses a positive numeric path parameter, responding 400 otherwise.
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		middleware.RespondError(c, models.NewValidationError(fmt.Sprintf("invalid %s", name)))
		return 0, false
	}
	return uint(id), true
}

func queryInt(c *gin.Context, name string, fallback int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		middleware.RespondError(c, models.NewValidationError(fmt.Sprintf("invalid %s", name)))
		return 0, false
	}
	return v, true
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.RespondError(c, models.NewValidationError(err.Error()))
		return false
	}
	return true
}
