package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"FinAdvisor/internal/domain/models"
	domrepo "FinAdvisor/internal/domain/repository"
	"FinAdvisor/internal/services/currency"
	pkgkafka "FinAdvisor/pkg/kafka"

	"github.com/go-playground/validator/v10"
)

var rateValidator = validator.New()

type rateApplier interface {
	Apply(rates []models.CurrencyRate)
	Invalidate(ctx context.Context)
}

type tableInvalidator interface {
	Invalidate(ctx context.Context, table string) error
}

// RateUpdateHandler consumes currency rate notifications. Messages carrying
// rates are merged into the live graph; an empty message forces a reload.
type RateUpdateHandler struct {
	topic   string
	book    rateApplier
	tables  tableInvalidator
	metrics domrepo.Metrics
}

var _ pkgkafka.MessageHandler = (*RateUpdateHandler)(nil)

// NewRateUpdateHandler accepts an optional tables cache to drop on every update.
func NewRateUpdateHandler(topic string, book rateApplier, tables tableInvalidator, metrics domrepo.Metrics) *RateUpdateHandler {
	return &RateUpdateHandler{topic: topic, book: book, tables: tables, metrics: domrepo.OrNopMetrics(metrics)}
}

func (h *RateUpdateHandler) Topic() string { return h.topic }

func (h *RateUpdateHandler) Handle(ctx context.Context, b []byte) error {
	var m models.RateUpdate
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("rate_update_unmarshal")
		return fmt.Errorf("decode rate update: %w", err)
	}
	if h.tables != nil {
		if err := h.tables.Invalidate(ctx, domrepo.TableCurrencyRates); err != nil {
			h.metrics.RecordError("rate_update_invalidate")
		}
	}

	valid := make([]models.CurrencyRate, 0, len(m.Rates))
	for _, r := range m.Rates {
		r.Base, r.Target = currency.Normalize(r.Base), currency.Normalize(r.Target)
		if err := rateValidator.StructCtx(ctx, r); err != nil {
			h.metrics.RecordError("rate_update_invalid")
			continue
		}
		valid = append(valid, r)
	}
	if len(valid) == 0 {
		h.book.Invalidate(ctx)
		return nil
	}
	h.book.Apply(valid)
	return nil
}
