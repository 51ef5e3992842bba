package handlers

import (
	"context"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/parleyhq/parley-backend/internal/services"
)

// WSMessage is the envelope for every frame on the chat socket
type WSMessage struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id,omitempty"`
	Content        string `json:"content,omitempty"`
}

// WSResponse is the envelope for every frame sent back to the client
type WSResponse struct {
	Type   string               `json:"type"`
	Error  string               `json:"error,omitempty"`
	Result *services.TurnResult `json:"result,omitempty"`
}

// ChatSocket handles the WebSocket chat endpoint. Each chat_message frame
// runs one full turn; frames on a single socket are processed in order.
func ChatSocket(chat *services.ChatService) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		userID, ok := c.Locals("user_id").(uuid.UUID)
		if !ok {
			c.WriteJSON(WSResponse{Type: "error", Error: "Not authenticated"})
			return
		}

		for {
			var msg WSMessage
			if err := c.ReadJSON(&msg); err != nil {
				// Client disconnected or sent garbage
				return
			}

			switch msg.Type {
			case "ping":
				if err := c.WriteJSON(WSResponse{Type: "pong"}); err != nil {
					return
				}

			case "chat_message":
				convID, err := uuid.Parse(msg.ConversationID)
				if err != nil {
					c.WriteJSON(WSResponse{Type: "error", Error: "Invalid conversation_id"})
					continue
				}
				if msg.Content == "" {
					c.WriteJSON(WSResponse{Type: "error", Error: "Content is required"})
					continue
				}

				result, err := chat.ProcessTurn(context.Background(), convID, userID, msg.Content)
				if err != nil {
					c.WriteJSON(WSResponse{Type: "error", Error: err.Error()})
					continue
				}
				if err := c.WriteJSON(WSResponse{Type: "chat_response", Result: result}); err != nil {
					return
				}

			default:
				c.WriteJSON(WSResponse{Type: "error", Error: "Unknown message type"})
			}
		}
	}
}
