package handlers

import (
	"net/http"

	"community-match-service/internal/middleware"
	"community-match-service/internal/services"

	"github.com/gin-gonic/gin"
)

type ModerationHandler struct {
	guard *services.ModerationGuard
}

func NewModerationHandler(guard *services.ModerationGuard) *ModerationHandler {
	return &ModerationHandler{guard: guard}
}

type blockRequest struct {
	BlockedID uint `json:"blocked_id" binding:"required"`
}

type reportRequest struct {
	TargetID uint   `json:"target_id" binding:"required"`
	Reason   string `json:"reason"`
	Details  string `json:"details"`
}

func (h *ModerationHandler) Block(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req blockRequest
	if !bindJSON(c, &req) {
		return
	}

	created, err := h.guard.Block(c.Request.Context(), userID, req.BlockedID)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"created": created})
}

func (h *ModerationHandler) Unblock(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	blockedID, ok := pathID(c, "blocked_id")
	if !ok {
		return
	}

	removed, err := h.guard.Unblock(c.Request.Context(), userID, blockedID)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (h *ModerationHandler) ListBlocks(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	blocks, err := h.guard.ListBlocks(c.Request.Context(), userID)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"blocks": blocks})
}

func (h *ModerationHandler) Report(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req reportRequest
	if !bindJSON(c, &req) {
		return
	}

	report, err := h.guard.Report(c.Request.Context(), userID, req.TargetID, req.Reason, req.Details)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, report)
}
