package middleware

import (
	"errors"
	"net/http"

	"community-match-service/internal/models"

	"github.com/gin-gonic/gin"
)

var statusByKind = map[models.ErrorKind]int{
	models.KindUnauthorized: http.StatusUnauthorized,
	models.KindValidation:   http.StatusBadRequest,
	models.KindForbidden:    http.StatusForbidden,
	models.KindNotFound:     http.StatusNotFound,
	models.KindInternal:     http.StatusInternalServerError,
}

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	if status, ok := statusByKind[models.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// RespondError writes err as {"error", "code"}. Internal causes are logged and
// never echoed to the client.
func RespondError(c *gin.Context, err error) {
	kind := models.KindOf(err)
	status := StatusFor(err)

	message := "internal error"
	var appErr *models.AppError
	if kind != models.KindInternal && errors.As(err, &appErr) {
		message = appErr.Message
	} else {
		_ = c.Error(err)
	}

	c.JSON(status, gin.H{"error": message, "code": string(kind)})
}
