package handlers

import (
	"community-match-service/internal/websocket"

	"github.com/gin-gonic/gin"
)

type RealtimeHandler struct {
	hub *websocket.Hub
}

func NewRealtimeHandler(hub *websocket.Hub) *RealtimeHandler {
	return &RealtimeHandler{hub: hub}
}

func (h *RealtimeHandler) Connect(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	h.hub.Serve(c, userID)
}
