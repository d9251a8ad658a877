package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	models "FinAdvisor/internal/domain/models"
	domrepo "FinAdvisor/internal/domain/repository"
	"FinAdvisor/internal/service/metrics"
	"FinAdvisor/internal/service/ratelimit"
	"FinAdvisor/internal/services/currency"
	"FinAdvisor/internal/services/synthesis"
	"FinAdvisor/internal/usecase"
	xhttp "FinAdvisor/pkg/http"
	xlogger "FinAdvisor/pkg/logger"
)

// QueryHandler runs the full pipeline for one message.
type QueryHandler interface {
	Handle(ctx context.Context, req usecase.RouteRequest) usecase.RouteResult
}

// RateSource provides the current currency graph.
type RateSource interface {
	Graph(ctx context.Context) (*currency.Graph, error)
}

type Limits struct {
	Enabled      bool
	Capacity     float64
	RefillPerSec float64
}

// ChatEchoHandler serves the chat, WebSocket and conversion endpoints.
type ChatEchoHandler struct {
	logger   *xlogger.Logger
	queries  QueryHandler
	rates    RateSource
	metrics  domrepo.Metrics
	rl       *ratelimit.Limiter
	limits   Limits
	timeout  time.Duration
	upgrader websocket.Upgrader
	checks   []healthCheck
}

type healthCheck struct {
	name  string
	check func(context.Context) error
}

func NewChatEchoHandler(logger *xlogger.Logger, queries QueryHandler, rates RateSource, m domrepo.Metrics, limits Limits, timeout time.Duration) *ChatEchoHandler {
	metrics.Register()
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ChatEchoHandler{
		logger:  xlogger.OrNop(logger),
		queries: queries,
		rates:   rates,
		metrics: domrepo.OrNopMetrics(m),
		rl:      ratelimit.New(),
		limits:  limits,
		timeout: timeout,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *ChatEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/chat", h.Chat)
	g.GET("/chat/ws", h.ChatWS)
	g.GET("/currency/convert", h.Convert)
	e.GET("/healthz", h.Health)
}

var errBlankMessage = xhttp.BadRequestError("message", "message is required")

// Chat answers one message. Only a missing or blank message is rejected;
// every other failure is an HTTP 200 carrying an apology.
func (h *ChatEchoHandler) Chat(c echo.Context) error {
	start := time.Now()
	endpoint := "chat"
	defer func() { metrics.EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.ChatRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil || strings.TrimSpace(req.Message) == "" {
		metrics.EndpointOutcomes.WithLabelValues(endpoint, "rejected").Inc()
		return xhttp.AppErrorResponse(c, errBlankMessage)
	}

	if !h.allow(c.RealIP(), endpoint) {
		h.logger.Warn("chat rate_limited", xlogger.String("remote", c.RealIP()))
		metrics.EndpointOutcomes.WithLabelValues(endpoint, "rate_limited").Inc()
		return c.JSON(http.StatusOK, models.ChatResponse{Response: synthesis.Apology(req.Message)})
	}

	resp := h.answer(c.Request().Context(), req)
	return c.JSON(http.StatusOK, resp)
}

// wsFrame is the reply to one WebSocket frame. Error is set only for rejected frames.
type wsFrame struct {
	models.ChatResponse
	ChatID string `json:"chatId,omitempty"`
	Error  string `json:"error,omitempty"`
}

// ChatWS keeps a connection open and answers every ChatRequest frame in order.
func (h *ChatEchoHandler) ChatWS(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return nil
	}
	defer conn.Close()

	ctx := c.Request().Context()
	remote := c.RealIP()
	for {
		var req models.ChatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read error", xlogger.Error(err))
			}
			if isDecodeError(err) {
				if werr := conn.WriteJSON(wsFrame{Error: "invalid message format"}); werr == nil {
					continue
				}
			}
			return nil
		}

		frame := wsFrame{ChatID: req.ChatID}
		switch {
		case strings.TrimSpace(req.Message) == "":
			frame.Error = errBlankMessage.Message
		case !h.allow(remote, "chat_ws"):
			frame.Response = synthesis.Apology(req.Message)
		default:
			frame.ChatResponse = h.answer(ctx, &req)
		}
		if err := conn.WriteJSON(frame); err != nil {
			h.logger.Warn("websocket write error", xlogger.Error(err))
			return nil
		}
	}
}

func (h *ChatEchoHandler) answer(ctx context.Context, req *models.ChatRequest) models.ChatResponse {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	res := h.queries.Handle(ctx, usecase.RouteRequest{
		Message: strings.TrimSpace(req.Message),
		UserID:  strings.TrimSpace(req.UserID),
		ChatID:  req.ChatID,
		Locale:  req.Locale,
	})
	outcome := "ok"
	if res.Degraded {
		outcome = "degraded"
	}
	metrics.EndpointOutcomes.WithLabelValues("chat", outcome).Inc()

	h.logger.Info("chat answered",
		xlogger.String("path", string(res.Path)),
		xlogger.String("type", string(res.Classification.Type())),
		xlogger.Strings("tools", res.ToolsUsed),
		xlogger.Bool("degraded", res.Degraded),
	)
	return models.ChatResponse{
		Response:       res.Response,
		Classification: string(res.Classification.Type()),
		ToolsUsed:      res.ToolsUsed,
	}
}

func (h *ChatEchoHandler) allow(remote, endpoint string) bool {
	if !h.limits.Enabled {
		return true
	}
	return h.rl.Allow(remote+":"+endpoint, h.limits.Capacity, h.limits.RefillPerSec)
}

// Convert values an amount in another currency and reports how the rate was found.
func (h *ChatEchoHandler) Convert(c echo.Context) error {
	start := time.Now()
	endpoint := "convert"
	defer func() { metrics.EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.ConvertRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.EndpointOutcomes.WithLabelValues(endpoint, "rejected").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	graph, err := h.rates.Graph(c.Request().Context())
	if err != nil {
		h.logger.Warn("convert using stale or empty rates", xlogger.Error(err))
	}
	conv := graph.Exchange(req.Amount, req.From, req.To)
	h.metrics.RecordConversion(string(conv.Path))
	metrics.EndpointOutcomes.WithLabelValues(endpoint, "ok").Inc()

	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, models.ConvertResponse{
		Conversion: conv,
		Formatted:  currency.Format(conv.Result, conv.To),
	})
}

// RecoverResponse keeps the chat contract after a panic: chat routes still
// answer 200 with an apology, everything else gets the usual 500.
func (h *ChatEchoHandler) RecoverResponse(c echo.Context, _ any) error {
	metrics.EndpointOutcomes.WithLabelValues(c.Path(), "panic").Inc()
	switch c.Path() {
	case "/api/chat/ws":
		// the connection is hijacked; there is no HTTP body to write
		return nil
	case "/api/chat":
		return c.JSON(http.StatusOK, models.ChatResponse{Response: synthesis.Apology("")})
	}
	return xhttp.AppErrorResponse(c, nil)
}

// AddHealthCheck registers a dependency probed by /healthz. Call before serving.
func (h *ChatEchoHandler) AddHealthCheck(name string, check func(context.Context) error) {
	h.checks = append(h.checks, healthCheck{name: name, check: check})
}

// Health reports "ok", or 503 with the failing dependencies.
func (h *ChatEchoHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	failed := map[string]string{}
	for _, hc := range h.checks {
		if err := hc.check(ctx); err != nil {
			failed[hc.name] = err.Error()
		}
	}
	if len(failed) > 0 {
		return c.JSON(http.StatusServiceUnavailable, map[string]any{"status": "degraded", "failed": failed})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// isDecodeError reports a malformed frame; the connection itself is still usable.
func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}

// SweepIdle drops rate limit buckets that have not been used for idle.
func (h *ChatEchoHandler) SweepIdle(idle time.Duration) int {
	return h.rl.Sweep(idle)
}
