package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arcanaland/tarotreading/internal/card"
	"github.com/arcanaland/tarotreading/internal/interpret"
	"github.com/arcanaland/tarotreading/internal/llm"
	"github.com/arcanaland/tarotreading/internal/spread"
)

const (
	messageCardsRequired    = "Cards are required"
	messageInterpretFailed  = "Failed to generate interpretation"
	messageModelsFailed     = "Failed to list models"
	messageMethodNotAllowed = "Method not allowed"
)

// Interpreter produces an interpretation for drawn cards.
// *interpret.Requester satisfies it.
type Interpreter interface {
	Interpret(ctx context.Context, req interpret.Request) (*interpret.Result, error)
}

// InterpretRequest is the body of POST /api/interpret.
type InterpretRequest struct {
	Cards      json.RawMessage `json:"cards"`
	Category   string          `json:"category"`
	Situation  string          `json:"situation"`
	SpreadType string          `json:"spreadType"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ModelsResponse is the body of GET /api/models.
type ModelsResponse struct {
	Message string          `json:"message"`
	Models  []llm.ModelInfo `json:"models"`
}

// Handler serves the API routes.
type Handler struct {
	interpreter Interpreter
	models      llm.ModelLister
	timeout     time.Duration
	logger      *zap.Logger
}

// NewHandler wires the API handlers. models may be nil; timeout of zero
// leaves request contexts unbounded.
func NewHandler(interpreter Interpreter, models llm.ModelLister, timeout time.Duration, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		interpreter: interpreter,
		models:      models,
		timeout:     timeout,
		logger:      logger,
	}
}

func (h *Handler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.timeout > 0 {
		return context.WithTimeout(c.Request.Context(), h.timeout)
	}
	return context.WithCancel(c.Request.Context())
}

// decodeCards accepts only a non-empty JSON array of cards.
func decodeCards(raw json.RawMessage) ([]card.DrawnCard, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var cards []card.DrawnCard
	if err := json.Unmarshal(raw, &cards); err != nil || len(cards) == 0 {
		return nil, false
	}
	return cards, true
}

// Interpret handles POST /api/interpret.
func (h *Handler) Interpret(c *gin.Context) {
	var body InterpretRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: messageCardsRequired})
		return
	}
	cards, ok := decodeCards(body.Cards)
	if !ok {
		c.JSON(http.StatusBadRequest, errorResponse{Error: messageCardsRequired})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	result, err := h.interpreter.Interpret(ctx, interpret.Request{
		Cards:     cards,
		Category:  body.Category,
		Situation: body.Situation,
		Spread:    spread.Spread(body.SpreadType),
	})
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, errorResponse{
			Error:   messageInterpretFailed,
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListModels handles GET /api/models.
func (h *Handler) ListModels(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	models, err := h.models.ListModels(ctx)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, errorResponse{
			Error:   messageModelsFailed,
			Details: err.Error(),
		})
		return
	}
	if models == nil {
		models = []llm.ModelInfo{}
	}

	h.logger.Debug("listed models", zap.Int("count", len(models)))
	c.JSON(http.StatusOK, ModelsResponse{Message: "Available models", Models: models})
}

// Preflight answers OPTIONS on API routes.
func Preflight(c *gin.Context) {
	c.Status(http.StatusOK)
}
