package handlers

import (
	"net/http"

	"community-match-service/internal/middleware"
	"community-match-service/internal/services"

	"github.com/gin-gonic/gin"
)

type MatchHandler struct {
	likes         *services.LikeLedger
	detector      *services.MatchDetector
	conversations *services.ConversationRegistry
	pageSize      int
}

func NewMatchHandler(likes *services.LikeLedger, detector *services.MatchDetector,
	conversations *services.ConversationRegistry, pageSize int) *MatchHandler {
	return &MatchHandler{
		likes:         likes,
		detector:      detector,
		conversations: conversations,
		pageSize:      pageSize,
	}
}

type likeRequest struct {
	TargetID uint `json:"target_id" binding:"required"`
}

// GiveLike answers 201 when the like is new and 200 when it already existed.
func (h *MatchHandler) GiveLike(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req likeRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.likes.GiveLike(c.Request.Context(), userID, req.TargetID)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, result)
}

func (h *MatchHandler) RemoveLike(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	targetID, ok := pathID(c, "target_id")
	if !ok {
		return
	}

	removed, err := h.likes.RemoveLike(c.Request.Context(), userID, targetID)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (h *MatchHandler) SentLikes(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	likes, err := h.likes.Sent(c.Request.Context(), userID)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"likes": likes})
}

func (h *MatchHandler) ReceivedLikes(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	likes, err := h.likes.Received(c.Request.Context(), userID)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"likes": likes})
}

func (h *MatchHandler) GetMatches(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", h.pageSize)
	if !ok {
		return
	}

	result, err := h.detector.ListForUser(c.Request.Context(), userID, page, limit)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetConversation returns the conversation of a match the caller is part of.
func (h *MatchHandler) GetConversation(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	matchID, ok := pathID(c, "id")
	if !ok {
		return
	}

	conv, err := h.conversations.OpenForMatch(c.Request.Context(), matchID, userID)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}
