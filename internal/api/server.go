// Package api exposes the small REST surface next to the websocket: health,
// message history and the presence status mirror.
package api

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/tutorlink/realtime-service/internal/cache"
	"github.com/tutorlink/realtime-service/internal/model"
)

type HistorySource interface {
	Latest(ctx context.Context, conversationID int64, limit int64) ([]*model.Message, error)
}

type PresenceSource interface {
	Get(ctx context.Context, userID int64) (cache.Status, error)
}

type Server struct {
	history  HistorySource
	presence PresenceSource
	log      *zap.SugaredLogger
}

// New builds the fiber app with all routes mounted. The websocket handler is
// mounted by the caller on the returned /v1 group.
func New(history HistorySource, presence PresenceSource, log *zap.SugaredLogger) (*fiber.App, fiber.Router) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(recover.New())
	app.Use(fiberlogger.New())

	s := &Server{history: history, presence: presence, log: log}

	v1 := app.Group("/v1")
	v1.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	v1.Get("/conversations/:id/messages", s.getMessages)
	v1.Get("/users/:id/presence", s.getPresence)

	return app, v1
}

func (s *Server) getMessages(c *fiber.Ctx) error {
	convID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "conversation id must be numeric")
	}
	limit := int64(c.QueryInt("limit", 50))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	msgs, err := s.history.Latest(c.Context(), convID, limit)
	if err != nil {
		s.log.Errorw("history fetch failed", "conversation_id", convID, "err", err)
		return fiber.ErrInternalServerError
	}
	if msgs == nil {
		msgs = []*model.Message{}
	}
	return c.JSON(fiber.Map{"status": "success", "data": msgs})
}

func (s *Server) getPresence(c *fiber.Ctx) error {
	userID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "user id must be numeric")
	}

	st, err := s.presence.Get(c.Context(), userID)
	if err != nil {
		s.log.Errorw("presence fetch failed", "user_id", userID, "err", err)
		return fiber.ErrInternalServerError
	}
	return c.JSON(fiber.Map{"status": "success", "data": st})
}
