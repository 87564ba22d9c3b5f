package sse

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

const heartbeatInterval = 30 * time.Second

// Stream serves GET /api/v1/notifications/stream?token=xxx
func (h *Hub) Stream(c *gin.Context) {
	userID := c.GetString("user_id")
	clientID := fmt.Sprintf("%s_%d", userID, time.Now().UnixNano())

	client := &Client{
		ID:     clientID,
		UserID: userID,
		Events: make(chan Event, 64),
	}
	h.Register(client)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	c.Writer.WriteString("event: connected\ndata: {\"client_id\":\"" + clientID + "\"}\n\n")
	c.Writer.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	clientGone := c.Request.Context().Done()

	for {
		select {
		case <-clientGone:
			h.Unregister(clientID)
			return
		case event, ok := <-client.Events:
			if !ok {
				return
			}
			c.Writer.WriteString(fmt.Sprintf("event: %s\ndata: %s\n\n", event.EventType, event.Data))
			c.Writer.Flush()
		case <-heartbeat.C:
			c.Writer.WriteString(": keepalive\n\n")
			c.Writer.Flush()
		}
	}
}
