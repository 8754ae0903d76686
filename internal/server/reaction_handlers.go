package server

import (
	"diorama/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ReactToPost handles POST /api/posts/:id/reactions. The write replaces any
// previous reaction the user held on the post.
func (s *Server) ReactToPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Type models.ReactionType `json:"type"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	result, err := s.reactionService.React(c.UserContext(), id, currentUserID(c), req.Type)
	if err != nil {
		return respondServiceError(c, err)
	}

	status := fiber.StatusOK
	if result.Created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{
		"created":   result.Created,
		"post":      result.Post,
		"reactions": result.Reactions,
	})
}

// RemoveReaction handles DELETE /api/posts/:id/reactions. Removing a
// reaction that does not exist succeeds.
func (s *Server) RemoveReaction(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	result, err := s.reactionService.Unreact(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"post":      result.Post,
		"reactions": result.Reactions,
	})
}

// ToggleLike handles POST /api/posts/:id/like. A user who currently holds a
// like loses it; any other state ends with the user liking the post.
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	result, err := s.reactionService.ToggleLike(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"liked":     result.Liked,
		"post":      result.Post,
		"reactions": result.Reactions,
	})
}

// GetReactions handles GET /api/posts/:id/reactions. This is the
// authoritative read clients use to reconcile after missed live updates.
func (s *Server) GetReactions(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	reactions, err := s.reactionService.GetReactions(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"post_id":   id,
		"reactions": reactions,
	})
}
