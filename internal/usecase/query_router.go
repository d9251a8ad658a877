package usecase

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"FinAdvisor/internal/domain/models"
	domrepo "FinAdvisor/internal/domain/repository"
	"FinAdvisor/internal/services/currency"
	"FinAdvisor/internal/services/synthesis"
	"FinAdvisor/internal/services/tools"
	applogger "FinAdvisor/pkg/logger"
)

type RouteRequest struct {
	Message string
	UserID  string
	ChatID  string
	Locale  string
}

type RouteResult struct {
	Response       string
	Path           models.RoutePath
	Classification models.QueryClassification
	ToolsUsed      []string
	Degraded       bool
}

// Collaborators of the router. The concrete types live in internal/services.
type (
	Classifier interface {
		Classify(ctx context.Context, message, locale string) models.QueryClassification
	}
	SnapshotSource interface {
		Load(ctx context.Context, userID string) (*models.UserSnapshot, error)
	}
	RateSource interface {
		Graph(ctx context.Context) (*currency.Graph, error)
	}
	MarketSource interface {
		SelectAndFetch(ctx context.Context, c models.QueryClassification, country string) models.MarketSnapshot
		Summarize(message string, snap models.MarketSnapshot) string
	}
	ToolRunner interface {
		Execute(ctx context.Context, names []models.ToolName, in tools.Input) models.ToolResults
	}
	Synthesizer interface {
		Synthesize(ctx context.Context, in synthesis.Input) string
		Reply(ctx context.Context, message string) (string, error)
	}
	InstantAnswerer interface {
		Answer(ctx context.Context, message string, c models.QueryClassification, snap *models.UserSnapshot, rates *currency.Graph) (string, bool, error)
	}
)

// quickLookup lists the contexts a quick_value query may be answered from.
var quickLookup = []string{
	models.CtxPersonalFinance, models.CtxDebts, models.CtxDeposits, models.CtxGoals, models.CtxPortfolio,
	models.CtxGold, models.CtxStocks, models.CtxFunds, models.CtxCrypto, models.CtxCurrency,
}

// QueryRouter picks one of the instant, detailed or simple paths per query.
type QueryRouter struct {
	classifier Classifier
	snapshots  SnapshotSource
	rates      RateSource
	market     MarketSource
	tools      ToolRunner
	synth      Synthesizer
	instant    InstantAnswerer
	events     domrepo.EventPublisher
	metrics    domrepo.Metrics
	log        *applogger.Logger

	lengthThreshold int
	eventTimeout    time.Duration
}

type RouterOption func(*QueryRouter)

func WithEventPublisher(p domrepo.EventPublisher) RouterOption {
	return func(r *QueryRouter) { r.events = p }
}

func WithRouterMetrics(m domrepo.Metrics) RouterOption {
	return func(r *QueryRouter) { r.metrics = m }
}

func WithRouterLogger(l *applogger.Logger) RouterOption {
	return func(r *QueryRouter) { r.log = l }
}

func WithLengthThreshold(n int) RouterOption {
	return func(r *QueryRouter) {
		if n > 0 {
			r.lengthThreshold = n
		}
	}
}

func NewQueryRouter(
	classifier Classifier,
	snapshots SnapshotSource,
	rates RateSource,
	market MarketSource,
	tools ToolRunner,
	synth Synthesizer,
	instant InstantAnswerer,
	opts ...RouterOption,
) *QueryRouter {
	r := &QueryRouter{
		classifier:      classifier,
		snapshots:       snapshots,
		rates:           rates,
		market:          market,
		tools:           tools,
		synth:           synth,
		instant:         instant,
		lengthThreshold: DefaultDetailedLengthThreshold,
		eventTimeout:    2 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.metrics = domrepo.OrNopMetrics(r.metrics)
	r.log = applogger.OrNop(r.log)
	return r
}

// Handle classifies the message and routes it.
func (r *QueryRouter) Handle(ctx context.Context, req RouteRequest) RouteResult {
	c := r.classifier.Classify(ctx, req.Message, req.Locale)
	return r.Route(ctx, req, c)
}

// ChoosePath applies the routing rules in order; the first match wins.
func (r *QueryRouter) ChoosePath(message string, c models.QueryClassification) models.RoutePath {
	switch {
	case c.Type() == models.QueryGreeting:
		return models.PathInstant
	case NeedsAnalysis(message, r.lengthThreshold):
		return models.PathDetailed
	case c.Type() == models.QueryQuickValue && c.HasAnyContext(quickLookup...):
		return models.PathInstant
	case c.Type() != models.QueryQuickValue && c.Type() != models.QueryGeneralFinancial,
		len(c.ToolsNeeded()) > 0:
		return models.PathDetailed
	}
	return models.PathSimple
}

// Route runs the chosen path. Errors and panics never escape: they become an
// apology in the message's language.
func (r *QueryRouter) Route(ctx context.Context, req RouteRequest, c models.QueryClassification) (res RouteResult) {
	start := time.Now()
	res = RouteResult{Path: r.ChoosePath(req.Message, c), Classification: c}

	defer func() {
		if p := recover(); p != nil {
			r.log.Error("route panic",
				applogger.String("path", string(res.Path)),
				applogger.Any("panic", p),
				applogger.String("stack", string(debug.Stack())),
			)
			r.metrics.RecordError("route_panic")
			res.Response = synthesis.Apology(req.Message)
			res.Degraded = true
		}
		r.metrics.RecordRoute(string(res.Path), string(c.Type()))
		r.metrics.RecordLatency("route_"+string(res.Path), time.Since(start).Seconds())
		r.publish(req, res, time.Since(start))
	}()

	var err error
	switch res.Path {
	case models.PathInstant:
		var ok bool
		res.Response, ok, err = r.runInstant(ctx, req, c)
		if err == nil && !ok {
			r.log.Debug("instant path had no answer, escalating", applogger.String("type", string(c.Type())))
			res.Path = models.PathDetailed
			res.Response, res.ToolsUsed, err = r.runDetailed(ctx, req, c)
		}
	case models.PathDetailed:
		res.Response, res.ToolsUsed, err = r.runDetailed(ctx, req, c)
	default:
		res.Response, err = r.synth.Reply(ctx, req.Message)
	}

	if err != nil || res.Response == "" {
		r.log.Warn("route degraded",
			applogger.String("path", string(res.Path)),
			applogger.String("user_id", req.UserID),
			applogger.Error(err),
		)
		r.metrics.RecordError("route_" + string(res.Path))
		res.Response = synthesis.Apology(req.Message)
		res.Degraded = true
	}
	return res
}

func (r *QueryRouter) runInstant(ctx context.Context, req RouteRequest, c models.QueryClassification) (string, bool, error) {
	if c.Type() == models.QueryGreeting {
		return r.instant.Answer(ctx, req.Message, c, nil, nil)
	}
	snap, graph, err := r.userContext(ctx, req)
	if err != nil {
		return "", false, err
	}
	return r.instant.Answer(ctx, req.Message, c, snap, graph)
}

func (r *QueryRouter) runDetailed(ctx context.Context, req RouteRequest, c models.QueryClassification) (string, []string, error) {
	snap, graph, err := r.userContext(ctx, req)
	if err != nil {
		return "", nil, err
	}

	var (
		market  models.MarketSnapshot
		results models.ToolResults
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		market = r.market.SelectAndFetch(gctx, c, snap.Settings.Country)
		return nil
	})
	g.Go(func() error {
		results = r.tools.Execute(gctx, c.ToolsNeeded(), tools.Input{Message: req.Message, Snapshot: snap, Rates: graph})
		return nil
	})
	if err := g.Wait(); err != nil {
		return "", nil, fmt.Errorf("gather: %w", err)
	}

	reply := r.synth.Synthesize(ctx, synthesis.Input{
		Message:        req.Message,
		Classification: c,
		Snapshot:       snap,
		Rates:          graph,
		MarketSummary:  r.market.Summarize(req.Message, market),
		Tools:          results,
	})
	return reply, results.Names(models.KnownTools), nil
}

// userContext loads the snapshot and rate graph. A rate load failure still
// yields a usable graph; conversions are then flagged unverified.
func (r *QueryRouter) userContext(ctx context.Context, req RouteRequest) (*models.UserSnapshot, *currency.Graph, error) {
	snap, err := r.snapshots.Load(ctx, req.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot: %w", err)
	}
	if snap == nil {
		snap = &models.UserSnapshot{UserID: req.UserID}
	}
	graph, err := r.rates.Graph(ctx)
	if err != nil {
		r.log.Warn("currency graph unavailable", applogger.Error(err))
	}
	return snap, graph, nil
}

func (r *QueryRouter) publish(req RouteRequest, res RouteResult, latency time.Duration) {
	if r.events == nil {
		return
	}
	ev := models.QueryEvent{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		ChatID:    req.ChatID,
		Path:      res.Path,
		QueryType: res.Classification.Type(),
		Tools:     res.ToolsUsed,
		Degraded:  res.Degraded,
		LatencyMs: latency.Milliseconds(),
		At:        time.Now().UTC(),
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.eventTimeout)
	defer cancel()
	if err := r.events.PublishQueryEvent(ctx, ev); err != nil {
		r.log.Warn("query event publish failed", applogger.Error(err))
	}
}
