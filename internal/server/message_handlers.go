package server

import (
	"diorama/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetConversations handles GET /api/messages
func (s *Server) GetConversations(c *fiber.Ctx) error {
	conversations, err := s.messageService.Conversations(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(conversations)
}

// GetThread handles GET /api/messages/:userId. Reading a thread marks the
// partner's messages as read.
func (s *Server) GetThread(c *fiber.Ctx) error {
	partnerID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	messages, err := s.messageService.Thread(c.UserContext(), currentUserID(c), partnerID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(messages)
}

// SendMessage handles POST /api/messages/:userId
func (s *Server) SendMessage(c *fiber.Ctx) error {
	partnerID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	message, err := s.messageService.Send(c.UserContext(), currentUserID(c), partnerID, req.Content)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(message)
}
