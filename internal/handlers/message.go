package handlers

import (
	"net/http"

	"community-match-service/internal/middleware"
	"community-match-service/internal/services"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	conversations *services.ConversationRegistry
	messages      *services.MessageLog
}

func NewMessageHandler(conversations *services.ConversationRegistry, messages *services.MessageLog) *MessageHandler {
	return &MessageHandler{conversations: conversations, messages: messages}
}

type sendMessageRequest struct {
	Body string `json:"body"`
}

func (h *MessageHandler) GetConversation(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	convID, ok := pathID(c, "id")
	if !ok {
		return
	}

	conv, err := h.conversations.GetForParticipant(c.Request.Context(), convID, userID)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

// GetMessages pages forward from ?cursor (the last sequence already seen).
func (h *MessageHandler) GetMessages(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	convID, ok := pathID(c, "id")
	if !ok {
		return
	}
	cursor, ok := queryInt(c, "cursor", 0)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}

	page, err := h.messages.List(c.Request.Context(), convID, userID, int64(cursor), limit)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *MessageHandler) SendMessage(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	convID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req sendMessageRequest
	if !bindJSON(c, &req) {
		return
	}

	msg, err := h.messages.Send(c.Request.Context(), convID, userID, req.Body)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}
