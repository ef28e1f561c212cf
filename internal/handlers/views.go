package handlers

import (
	"net/http"

	"community-match-service/internal/middleware"
	"community-match-service/internal/services"

	"github.com/gin-gonic/gin"
)

type ViewHandler struct {
	views *services.ViewCounter
}

func NewViewHandler(views *services.ViewCounter) *ViewHandler {
	return &ViewHandler{views: views}
}

// RecordView never fails the caller on a store error; the impression is
// simply dropped and the response carries no count.
func (h *ViewHandler) RecordView(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}

	count, err := h.views.Increment(c.Request.Context(), postID)
	if err != nil {
		c.JSON(http.StatusAccepted, gin.H{})
		return
	}
	c.JSON(http.StatusOK, gin.H{"views_count": count})
}

func (h *ViewHandler) GetViews(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}

	count, err := h.views.Count(c.Request.Context(), postID)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"views_count": count})
}
