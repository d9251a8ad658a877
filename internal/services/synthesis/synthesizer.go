package synthesis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"FinAdvisor/internal/domain/models"
	"FinAdvisor/internal/domain/repository"
	"FinAdvisor/internal/domain/service"
	"FinAdvisor/internal/services/currency"
	applogger "FinAdvisor/pkg/logger"
	xutil "FinAdvisor/pkg/util"
)

const (
	maxToolRunes    = 4000
	maxNewsLinks    = 3
	simpleMaxTokens = 500
)

// Input is everything a detailed answer is grounded on.
type Input struct {
	Message        string
	Classification models.QueryClassification
	Snapshot       *models.UserSnapshot
	Rates          *currency.Graph
	MarketSummary  string
	Tools          models.ToolResults
}

// Synthesizer turns gathered evidence into the final reply.
type Synthesizer struct {
	model       service.LanguageModel
	name        string
	temperature float64
	metrics     repository.Metrics
	log         *applogger.Logger
}

type Option func(*Synthesizer)

func WithModelName(name string) Option {
	return func(s *Synthesizer) { s.name = name }
}

func WithTemperature(t float64) Option {
	return func(s *Synthesizer) { s.temperature = t }
}

func WithMetrics(m repository.Metrics) Option {
	return func(s *Synthesizer) { s.metrics = m }
}

func WithLogger(l *applogger.Logger) Option {
	return func(s *Synthesizer) { s.log = l }
}

func New(model service.LanguageModel, opts ...Option) *Synthesizer {
	s := &Synthesizer{model: model, temperature: 0.3}
	for _, opt := range opts {
		opt(s)
	}
	s.metrics = repository.OrNopMetrics(s.metrics)
	s.log = applogger.OrNop(s.log)
	return s
}

// Synthesize always returns a reply. Model failures fall back to a snapshot
// answer for quick questions, otherwise to an apology.
func (s *Synthesizer) Synthesize(ctx context.Context, in Input) string {
	reply, err := s.complete(ctx, "synthesize", []service.ChatMessage{
		{Role: service.RoleSystem, Content: SystemPrompt(in)},
		{Role: service.RoleUser, Content: in.Message},
	}, in.Classification.ResponseType().MaxTokens())
	if err != nil {
		s.log.Warn("synthesis failed, using fallback", applogger.Error(err))
		return s.Fallback(in)
	}
	return PostProcess(in, reply)
}

// Reply answers without grounding. Errors are returned for the caller to apologize.
func (s *Synthesizer) Reply(ctx context.Context, message string) (string, error) {
	return s.complete(ctx, "simple", []service.ChatMessage{
		{Role: service.RoleSystem, Content: simpleInstruction},
		{Role: service.RoleUser, Content: message},
	}, simpleMaxTokens)
}

func (s *Synthesizer) complete(ctx context.Context, purpose string, msgs []service.ChatMessage, maxTokens int) (string, error) {
	if s.model == nil {
		return "", fmt.Errorf("%s: no language model configured", purpose)
	}
	start := time.Now()
	reply, err := s.model.Complete(ctx, service.CompletionRequest{
		Model:       s.name,
		Messages:    msgs,
		Temperature: s.temperature,
		MaxTokens:   maxTokens,
	})
	s.metrics.RecordLLMCall(purpose, err == nil, time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("%s: %w", purpose, err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", fmt.Errorf("%s: %w", purpose, service.ErrEmptyCompletion)
	}
	return reply, nil
}

// Fallback is the reply used when the model is unavailable.
func (s *Synthesizer) Fallback(in Input) string {
	if isQuick(in.Classification) {
		if answer, ok := QuickAnswer(in.Message, in.Snapshot, in.Rates); ok {
			return answer
		}
	}
	if in.Tools.Failed(models.ToolWebSearch) {
		return Apology(in.Message) + "\n\n" + NoOfferingsNotice(in.Message)
	}
	return Apology(in.Message)
}

// PostProcess applies the citation guard, the missing-offerings notice and
// the news source list to a model reply.
func PostProcess(in Input, reply string) string {
	out := NewCitationGuard(in.Tools).Apply(reply)

	if in.Tools.Failed(models.ToolWebSearch) && !mentionsNoOfferings(out) {
		out = strings.TrimSpace(out + "\n\n" + NoOfferingsNotice(in.Message))
	}

	if r, ok := in.Tools.Succeeded(models.ToolEgyptianNews); ok {
		if p, ok := r.Payload.(models.NewsPayload); ok && len(p.Sources) > 0 {
			out += "\n\n" + newsLinks(in.Message, p.Sources)
		}
	}
	return out
}

func newsLinks(message string, sources []models.Source) string {
	var b strings.Builder
	if xutil.ContainsArabic(message) {
		b.WriteString("📰 المصادر:")
	} else {
		b.WriteString("📰 Sources:")
	}
	for i, s := range sources {
		if i >= maxNewsLinks {
			break
		}
		fmt.Fprintf(&b, "\n%d. [%s](%s)", i+1, s.Title, s.URL)
	}
	return b.String()
}

var noOfferingsMarkers = []string{
	"cannot confirm", "can't confirm", "couldn't confirm", "could not confirm", "unable to confirm",
	"لا يمكنني تأكيد", "لم أتمكن من تأكيد", "لا أستطيع تأكيد",
}

func mentionsNoOfferings(text string) bool {
	lower := strings.ToLower(text)
	for _, m := range noOfferingsMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
