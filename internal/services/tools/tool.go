package tools

import (
	"context"
	"sync"

	"FinAdvisor/internal/domain/models"
	"FinAdvisor/internal/services/currency"
)

// Input is what every tool receives. Snapshot and Rates may be nil.
type Input struct {
	Message  string
	Snapshot *models.UserSnapshot
	Rates    *currency.Graph
}

// Currency is the user's reporting currency, falling back to the graph default.
func (in Input) Currency() string {
	if in.Snapshot != nil && in.Snapshot.Settings.Currency != "" {
		return currency.Normalize(in.Snapshot.Settings.Currency)
	}
	if in.Rates != nil {
		return in.Rates.DefaultCurrency()
	}
	return models.PivotCurrency
}

func (in Input) graph() *currency.Graph {
	if in.Rates != nil {
		return in.Rates
	}
	return currency.NewGraph(nil, in.Currency())
}

// Tool is one named evidence source. Run returns the payload on success.
type Tool interface {
	Name() models.ToolName
	Run(ctx context.Context, in Input) (any, error)
}

// Registry holds the tools the classifier may request.
type Registry struct {
	mu    sync.RWMutex
	tools map[models.ToolName]Tool
	order []models.ToolName
}

func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[models.ToolName]Tool)}
	r.RegisterAll(tools...)
	return r
}

// Register adds or replaces a tool.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tools[t.Name()]; !ok {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
}

func (r *Registry) RegisterAll(tools ...Tool) {
	for _, t := range tools {
		r.Register(t)
	}
}

func (r *Registry) Get(name models.ToolName) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns registered tool names in registration order.
func (r *Registry) Names() []models.ToolName {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.ToolName, len(r.order))
	copy(out, r.order)
	return out
}

// Filter keeps the registered names from tools, in input order, without duplicates.
func (r *Registry) Filter(tools []models.ToolName) []models.ToolName {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.ToolName, 0, len(tools))
	seen := make(map[models.ToolName]bool, len(tools))
	for _, t := range tools {
		if _, ok := r.tools[t]; ok && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
