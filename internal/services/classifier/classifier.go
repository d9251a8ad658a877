package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"FinAdvisor/internal/domain/models"
	"FinAdvisor/internal/domain/repository"
	"FinAdvisor/internal/domain/service"
	applogger "FinAdvisor/pkg/logger"
)

// ToolFilter keeps only tool names that exist in the tool registry.
type ToolFilter interface {
	Filter(tools []models.ToolName) []models.ToolName
}

type knownTools struct{}

func (knownTools) Filter(tools []models.ToolName) []models.ToolName {
	out := make([]models.ToolName, 0, len(tools))
	for _, t := range tools {
		if slices.Contains(models.KnownTools, t) {
			out = append(out, t)
		}
	}
	return out
}

// Classifier turns a raw message into a QueryClassification. The rule table
// is tried first; the language model is only consulted when no rule matches.
type Classifier struct {
	rules   []Rule
	model   service.LanguageModel
	name    string
	tools   ToolFilter
	metrics repository.Metrics
	log     *applogger.Logger
}

// Option configures Classifier.
type Option func(*Classifier)

// WithRules appends rules after the defaults.
func WithRules(rules ...Rule) Option {
	return func(c *Classifier) { c.rules = append(c.rules, rules...) }
}

// WithModelName sets the model requested for slow-path classification.
func WithModelName(name string) Option {
	return func(c *Classifier) { c.name = name }
}

// WithToolFilter restricts tools to a registry.
func WithToolFilter(f ToolFilter) Option {
	return func(c *Classifier) {
		if f != nil {
			c.tools = f
		}
	}
}

func WithMetrics(m repository.Metrics) Option {
	return func(c *Classifier) { c.metrics = m }
}

func WithLogger(l *applogger.Logger) Option {
	return func(c *Classifier) { c.log = l }
}

// New creates a classifier. model may be nil, in which case unmatched
// messages get the default classification.
func New(model service.LanguageModel, opts ...Option) *Classifier {
	c := &Classifier{
		rules: DefaultRules(),
		model: model,
		tools: knownTools{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.metrics = repository.OrNopMetrics(c.metrics)
	c.log = applogger.OrNop(c.log)
	return c
}

// Classify never fails: model or parse errors yield DefaultClassification.
func (c *Classifier) Classify(ctx context.Context, message, locale string) models.QueryClassification {
	if cl, ok := c.Match(message); ok {
		return cl
	}
	if c.model == nil || strings.TrimSpace(message) == "" {
		return models.DefaultClassification()
	}

	start := time.Now()
	out, err := c.model.Complete(ctx, service.CompletionRequest{
		Model: c.name,
		Messages: []service.ChatMessage{
			{Role: service.RoleSystem, Content: systemPrompt()},
			{Role: service.RoleUser, Content: userPrompt(message, locale)},
		},
		Temperature: 0,
		MaxTokens:   200,
	})
	c.metrics.RecordLLMCall("classify", err == nil, time.Since(start).Seconds())
	if err != nil {
		c.log.Warn("classifier model failed", applogger.Error(err))
		return models.DefaultClassification()
	}

	cl, err := c.parse(out)
	if err != nil {
		c.log.Warn("classifier output rejected", applogger.Error(err), applogger.String("output", out))
		c.metrics.RecordError("classification_parse")
		return models.DefaultClassification()
	}
	return enforce(Normalize(message), cl, c.tools)
}

// Match runs the rule table only. It is pure and never touches the network.
func (c *Classifier) Match(message string) (models.QueryClassification, bool) {
	text := Normalize(message)
	if text == "" {
		return models.QueryClassification{}, false
	}
	for _, r := range c.rules {
		if r.Matches(text) {
			return r.Result.WithTools(c.tools.Filter(r.Result.ToolsNeeded())), true
		}
	}
	return models.QueryClassification{}, false
}

type modelReply struct {
	Type         string   `json:"type"`
	Context      []string `json:"context"`
	Priority     string   `json:"priority"`
	ResponseType string   `json:"responseType"`
	ResponseAlt  string   `json:"response_type"`
	Tools        []string `json:"toolsNeeded"`
	ToolsAlt     []string `json:"tools_needed"`
}

func (c *Classifier) parse(out string) (models.QueryClassification, error) {
	raw, ok := extractJSON(out)
	if !ok {
		return models.QueryClassification{}, fmt.Errorf("no json object in model output")
	}
	var r modelReply
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return models.QueryClassification{}, fmt.Errorf("decode classification: %w", err)
	}

	t := models.QueryType(strings.TrimSpace(r.Type))
	if !t.Valid() {
		return models.QueryClassification{}, fmt.Errorf("unknown query type %q", r.Type)
	}
	p := models.Priority(r.Priority)
	if !p.Valid() {
		p = models.PriorityMedium
	}
	rt := models.ResponseType(firstNonEmpty(r.ResponseType, r.ResponseAlt))
	if !rt.Valid() {
		rt = models.ResponseMedium
	}

	var ctxTags []string
	for _, tag := range r.Context {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if slices.Contains(models.ContextVocabulary, tag) {
			ctxTags = append(ctxTags, tag)
		}
	}

	var tools []models.ToolName
	for _, name := range append(r.Tools, r.ToolsAlt...) {
		tools = append(tools, models.ToolName(strings.TrimSpace(name)))
	}
	return models.NewClassification(t, ctxTags, p, rt, c.tools.Filter(tools)), nil
}

// enforce applies the overrides the model must not talk its way around.
func enforce(text string, cl models.QueryClassification, f ToolFilter) models.QueryClassification {
	if strings.Contains(text, "صناديق") {
		tools := append(cl.ToolsNeeded(), models.ToolWebSearch)
		ctxTags := append(cl.Context(), models.CtxFunds)
		return models.NewClassification(models.QueryProductResearch, ctxTags, cl.Priority(), models.ResponseDetailed, f.Filter(tools))
	}
	return cl
}

// extractJSON returns the outermost {...} span, skipping code fences and prose.
func extractJSON(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
