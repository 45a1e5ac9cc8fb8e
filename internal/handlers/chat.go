package handlers

import (
	"context"
	"strings"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	sagecontext "github.com/Ramsey-B/sage/pkg/context"
	"github.com/Ramsey-B/sage/pkg/middleware"
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/tracing"
	"github.com/Ramsey-B/sage/pkg/utils"
)

// Messenger runs one chat message through the conversational pipeline.
type Messenger interface {
	HandleMessage(ctx context.Context, sessionID, message string) (models.ChatResponse, error)
}

// CountryLister returns the supported destination reference set.
type CountryLister interface {
	List(ctx context.Context) ([]models.Country, error)
}

// ChatHandler handles the chat widget API endpoints
type ChatHandler struct {
	chat      Messenger
	countries CountryLister
	logger    ectologger.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chat Messenger, countries CountryLister, logger ectologger.Logger) *ChatHandler {
	return &ChatHandler{
		chat:      chat,
		countries: countries,
		logger:    logger,
	}
}

// ChatRequest represents the chat message request body
type ChatRequest struct {
	Message   string `json:"message" validate:"required"`
	SessionID string `json:"session_id,omitempty"`
}

// Register registers chat routes
func (h *ChatHandler) Register(g *echo.Group) {
	g.POST("/chat", h.Chat)
	g.GET("/countries", h.Countries)
}

// Chat resolves one free-text message into ranked plan matches. The envelope
// status is mirrored onto the HTTP status so the widget can branch on either.
func (h *ChatHandler) Chat(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ChatHandler.Chat")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	req, err := utils.BindRequest[ChatRequest](c)
	if err != nil {
		return err
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return BadRequest("message must not be empty")
	}

	sessionID := h.resolveSessionID(ctx, req)

	resp, err := h.chat.HandleMessage(ctx, sessionID, message)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to handle chat message")
		return err
	}

	c.Response().Header().Set(middleware.HeaderSessionID, sessionID)
	return c.JSON(resp.Status, resp)
}

// Countries returns the destinations the catalog can answer for.
func (h *ChatHandler) Countries(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ChatHandler.Countries")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	countries, err := h.countries.List(ctx)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to list countries")
		return err
	}

	return SuccessResponse(c, countries)
}

// resolveSessionID prefers the body, then the session header, then mints a
// fresh ID so every conversation can accumulate history.
func (h *ChatHandler) resolveSessionID(ctx context.Context, req ChatRequest) string {
	if req.SessionID != "" {
		return req.SessionID
	}
	if sessionID := sagecontext.GetSessionID(ctx); sessionID != "" {
		return sessionID
	}
	return uuid.New().String()
}
