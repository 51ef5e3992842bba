package handlers

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/parleyhq/parley-backend/internal/api/middleware"
	"github.com/parleyhq/parley-backend/internal/llm"
	"github.com/parleyhq/parley-backend/internal/providers"
	"github.com/parleyhq/parley-backend/internal/repository"
	"github.com/parleyhq/parley-backend/internal/services"
)

// CreateConversationRequest represents a conversation creation request
type CreateConversationRequest struct {
	Title        string  `json:"title"`
	ModelID      string  `json:"model_id"`
	ToolServerID *string `json:"tool_server_id,omitempty"`
}

// ConversationResponse represents a conversation in API responses
type ConversationResponse struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	ModelID      string    `json:"model_id"`
	ToolServerID *string   `json:"tool_server_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MessageResponse represents a message in API responses
type MessageResponse struct {
	ID        string          `json:"id"`
	Role      string          `json:"role"`
	Content   string          `json:"content"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// SendMessageRequest represents one turn's user input
type SendMessageRequest struct {
	Content string `json:"content"`
}

func toConversationResponse(conv *repository.Conversation) ConversationResponse {
	resp := ConversationResponse{
		ID:        conv.ID.String(),
		Title:     conv.Title,
		ModelID:   conv.ModelID.String(),
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt,
	}
	if conv.ToolServerID.Valid {
		id := conv.ToolServerID.UUID.String()
		resp.ToolServerID = &id
	}
	return resp
}

func toMessageResponse(msg repository.Message) MessageResponse {
	return MessageResponse{
		ID:        msg.ID.String(),
		Role:      msg.Role,
		Content:   msg.Content,
		Metadata:  json.RawMessage(msg.Metadata),
		CreatedAt: msg.CreatedAt,
	}
}

// CreateConversation handles POST /api/v1/conversations
func CreateConversation(chat *services.ChatService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req CreateConversationRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}

		modelID, err := uuid.Parse(req.ModelID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid model_id",
			})
		}

		var toolServerID *uuid.UUID
		if req.ToolServerID != nil && *req.ToolServerID != "" {
			id, err := uuid.Parse(*req.ToolServerID)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid tool_server_id",
				})
			}
			toolServerID = &id
		}

		conv, err := chat.CreateConversation(c.Context(), middleware.UserID(c), req.Title, modelID, toolServerID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to create conversation",
			})
		}
		return c.Status(fiber.StatusCreated).JSON(toConversationResponse(conv))
	}
}

// ListConversations handles GET /api/v1/conversations
func ListConversations(chat *services.ChatService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		convs, err := chat.ListConversations(c.Context(), middleware.UserID(c))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to list conversations",
			})
		}
		out := make([]ConversationResponse, 0, len(convs))
		for _, conv := range convs {
			out = append(out, toConversationResponse(conv))
		}
		return c.JSON(fiber.Map{"conversations": out})
	}
}

// GetConversation handles GET /api/v1/conversations/:id
func GetConversation(chat *services.ChatService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid conversation ID",
			})
		}

		conv, err := chat.GetConversation(c.Context(), middleware.UserID(c), id)
		if err != nil {
			return conversationError(c, err)
		}
		return c.JSON(toConversationResponse(conv))
	}
}

// DeleteConversation handles DELETE /api/v1/conversations/:id
func DeleteConversation(chat *services.ChatService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid conversation ID",
			})
		}

		if err := chat.DeleteConversation(c.Context(), middleware.UserID(c), id); err != nil {
			return conversationError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GetMessages handles GET /api/v1/conversations/:id/messages
func GetMessages(chat *services.ChatService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid conversation ID",
			})
		}

		msgs, err := chat.GetMessages(c.Context(), middleware.UserID(c), id)
		if err != nil {
			return conversationError(c, err)
		}
		out := make([]MessageResponse, 0, len(msgs))
		for _, msg := range msgs {
			out = append(out, toMessageResponse(msg))
		}
		return c.JSON(fiber.Map{"messages": out})
	}
}

// SendMessage handles POST /api/v1/conversations/:id/messages. It runs one
// full turn and returns the assistant reply.
func SendMessage(chat *services.ChatService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid conversation ID",
			})
		}

		var req SendMessageRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}
		if req.Content == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Content is required",
			})
		}

		result, err := chat.ProcessTurn(c.Context(), id, middleware.UserID(c), req.Content)
		if err != nil {
			return turnError(c, err)
		}
		return c.JSON(result)
	}
}

// conversationError maps conversation lookup failures to HTTP statuses
func conversationError(c *fiber.Ctx, err error) error {
	if errors.Is(err, services.ErrConversationNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Conversation not found",
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": err.Error(),
	})
}

// turnError maps turn pipeline failures to HTTP statuses
func turnError(c *fiber.Ctx, err error) error {
	var upstream *providers.UpstreamError
	switch {
	case errors.Is(err, services.ErrConversationNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Conversation not found",
		})
	case errors.Is(err, llm.ErrModelNotFound):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Model not found",
		})
	case errors.Is(err, llm.ErrUnsupportedProvider):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unsupported provider",
		})
	case errors.Is(err, llm.ErrMissingCredential):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Provider credential not configured",
		})
	case errors.Is(err, providers.ErrUpstreamTimeout):
		return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{
			"error": "Provider request timed out",
		})
	case errors.As(err, &upstream):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": upstream.Error(),
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}
