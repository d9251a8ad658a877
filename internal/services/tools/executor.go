package tools

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"FinAdvisor/internal/domain/models"
	"FinAdvisor/internal/domain/repository"
	applogger "FinAdvisor/pkg/logger"
)

const (
	defaultConcurrency = 4
	defaultToolTimeout = 20 * time.Second
)

// Executor runs the requested tools concurrently and collects one result per tool.
type Executor struct {
	registry    *Registry
	concurrency int
	timeout     time.Duration
	metrics     repository.Metrics
	log         *applogger.Logger
}

type ExecutorOption func(*Executor)

func WithConcurrency(n int) ExecutorOption {
	return func(e *Executor) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithToolTimeout bounds every single tool run.
func WithToolTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

func WithExecutorMetrics(m repository.Metrics) ExecutorOption {
	return func(e *Executor) { e.metrics = m }
}

func WithExecutorLogger(l *applogger.Logger) ExecutorOption {
	return func(e *Executor) { e.log = l }
}

func NewExecutor(registry *Registry, opts ...ExecutorOption) *Executor {
	e := &Executor{
		registry:    registry,
		concurrency: defaultConcurrency,
		timeout:     defaultToolTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.metrics = repository.OrNopMetrics(e.metrics)
	e.log = applogger.OrNop(e.log)
	return e
}

// Registry exposes the tool set, e.g. as the classifier's tool filter.
func (e *Executor) Registry() *Registry { return e.registry }

// Execute runs every known tool in names. Unknown names are ignored. A tool
// that errors, panics or times out yields a failed result; the others are
// unaffected.
func (e *Executor) Execute(ctx context.Context, names []models.ToolName, in Input) models.ToolResults {
	names = e.registry.Filter(names)
	results := make([]models.ToolResult, len(names))

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i, name := range names {
		tool, _ := e.registry.Get(name)
		g.Go(func() error {
			results[i] = e.runOne(ctx, tool, in)
			return nil
		})
	}
	_ = g.Wait()

	out := make(models.ToolResults, len(results))
	for _, r := range results {
		out[r.Tool] = r
	}
	return out
}

type outcome struct {
	payload any
	err     error
}

func (e *Executor) runOne(ctx context.Context, tool Tool, in Input) models.ToolResult {
	name := tool.Name()
	start := time.Now()

	tctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				e.log.Error("tool panicked",
					applogger.String("tool", string(name)),
					applogger.Any("panic", r),
					applogger.String("stack", string(debug.Stack())))
				done <- outcome{err: fmt.Errorf("tool %s panicked: %v", name, r)}
			}
		}()
		payload, err := tool.Run(tctx, in)
		done <- outcome{payload: payload, err: err}
	}()

	var res outcome
	select {
	case res = <-done:
	case <-tctx.Done():
		res = outcome{err: fmt.Errorf("tool %s: %w", name, tctx.Err())}
	}

	elapsed := time.Since(start)
	e.metrics.RecordToolResult(string(name), res.err == nil, elapsed.Seconds())

	if res.err != nil {
		e.log.Warn("tool failed",
			applogger.String("tool", string(name)),
			applogger.Duration("elapsed_ms", elapsed),
			applogger.Error(res.err))
		return models.ToolResult{Tool: name, Success: false, Error: res.err.Error()}
	}
	e.log.Debug("tool finished",
		applogger.String("tool", string(name)),
		applogger.Duration("elapsed_ms", elapsed))
	return models.ToolResult{Tool: name, Success: true, Payload: res.payload}
}
