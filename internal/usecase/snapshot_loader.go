package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"FinAdvisor/internal/domain/models"
	domrepo "FinAdvisor/internal/domain/repository"
	applogger "FinAdvisor/pkg/logger"
)

// SnapshotLoader reads every user-owned table for one request.
type SnapshotLoader struct {
	reader domrepo.TableReader
	log    *applogger.Logger
}

func NewSnapshotLoader(reader domrepo.TableReader, log *applogger.Logger) *SnapshotLoader {
	return &SnapshotLoader{reader: reader, log: applogger.OrNop(log)}
}

// Load reads the user tables concurrently. A failing table is logged and left
// empty; an error is returned only when every table failed. An empty user id
// yields an empty snapshot without any reads.
func (l *SnapshotLoader) Load(ctx context.Context, userID string) (*models.UserSnapshot, error) {
	snap := &models.UserSnapshot{UserID: userID}
	if strings.TrimSpace(userID) == "" {
		return snap, nil
	}

	var (
		mu     sync.Mutex
		tables = make(map[string][]domrepo.Row, len(domrepo.UserTables))
		errs   []error
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, table := range domrepo.UserTables {
		g.Go(func() error {
			rows, err := l.reader.Select(gctx, table, domrepo.ByUser(userID))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", table, err))
				l.log.Warn("snapshot table read failed",
					applogger.String("table", table),
					applogger.String("user_id", userID),
					applogger.Error(err),
				)
				return nil
			}
			tables[table] = rows
			return nil
		})
	}
	_ = g.Wait()

	if len(errs) == len(domrepo.UserTables) {
		return snap, fmt.Errorf("load snapshot: %w", errors.Join(errs...))
	}

	for _, r := range tables[domrepo.TableAssets] {
		snap.Assets = append(snap.Assets, decodeAsset(r))
	}
	for _, r := range tables[domrepo.TableDebts] {
		snap.Debts = append(snap.Debts, decodeDebt(r))
	}
	for _, r := range tables[domrepo.TableIncomeStreams] {
		snap.Income = append(snap.Income, decodeIncome(r))
	}
	for _, r := range tables[domrepo.TableExpenseStreams] {
		snap.Expenses = append(snap.Expenses, decodeExpense(r))
	}
	for _, r := range tables[domrepo.TableGoals] {
		snap.Goals = append(snap.Goals, decodeGoal(r))
	}
	for _, r := range tables[domrepo.TableDeposits] {
		snap.Deposits = append(snap.Deposits, decodeDeposit(r))
	}
	if rows := tables[domrepo.TableUserSettings]; len(rows) > 0 {
		snap.Settings = models.Settings{
			Currency: strings.ToUpper(rows[0].String("currency", "default_currency", "preferred_currency")),
			Language: rows[0].String("language", "locale"),
			Country:  strings.ToUpper(rows[0].String("country", "country_code")),
		}
	}
	return snap, nil
}

func decodeAsset(r domrepo.Row) models.Asset {
	a := models.Asset{
		ID:       r.String("id"),
		Name:     r.String("asset_name", "name"),
		Type:     r.String("asset_type", "type"),
		Symbol:   r.String("symbol", "ticker"),
		Currency: strings.ToUpper(r.String("currency")),
		Country:  r.String("country"),
	}
	if qty, ok := r.Float("quantity", "units"); ok {
		a.Quantity = qty
		a.CurrentPrice = r.FloatOr(0, "current_price", "price")
		a.PurchasePrice = r.FloatOr(a.CurrentPrice, "purchase_price", "buy_price")
		return a
	}
	// Rows without a quantity carry whole-position values.
	a.Quantity = 1
	a.CurrentPrice = r.FloatOr(0, "current_value", "value", "current_price")
	a.PurchasePrice = r.FloatOr(a.CurrentPrice, "purchase_value", "purchase_price", "cost")
	return a
}

func decodeDebt(r domrepo.Row) models.Debt {
	return models.Debt{
		ID:             r.String("id"),
		Name:           r.String("debt_name", "name", "lender"),
		Type:           r.String("debt_type", "type"),
		Amount:         r.FloatOr(0, "remaining_amount", "balance", "amount"),
		MonthlyPayment: r.FloatOr(0, "monthly_payment", "installment"),
		InterestRate:   r.FloatOr(0, "interest_rate"),
		Currency:       strings.ToUpper(r.String("currency")),
	}
}

func decodeIncome(r domrepo.Row) models.IncomeStream {
	return models.IncomeStream{
		ID:        r.String("id"),
		Name:      r.String("source", "name"),
		Amount:    r.FloatOr(0, "amount"),
		Frequency: models.Frequency(r.String("frequency")),
		Currency:  strings.ToUpper(r.String("currency")),
		Active:    r.Bool(true, "is_active"),
	}
}

func decodeExpense(r domrepo.Row) models.ExpenseStream {
	return models.ExpenseStream{
		ID:        r.String("id"),
		Name:      r.String("name", "description"),
		Category:  r.String("category"),
		Amount:    r.FloatOr(0, "amount"),
		Frequency: models.Frequency(r.String("frequency")),
		Currency:  strings.ToUpper(r.String("currency")),
	}
}

func decodeGoal(r domrepo.Row) models.Goal {
	g := models.Goal{
		ID:            r.String("id"),
		Name:          r.String("goal_name", "name", "title"),
		TargetAmount:  r.FloatOr(0, "target_amount"),
		CurrentAmount: r.FloatOr(0, "current_amount", "saved_amount"),
		Status:        strings.ToLower(r.String("status")),
		Currency:      strings.ToUpper(r.String("currency")),
	}
	if t, ok := r.Time("target_date", "deadline"); ok {
		g.TargetDate = models.Some(t)
	}
	return g
}

func decodeDeposit(r domrepo.Row) models.Deposit {
	d := models.Deposit{
		ID:           r.String("id"),
		Bank:         r.String("bank_name", "bank"),
		Type:         r.String("deposit_type", "type"),
		Amount:       r.FloatOr(0, "amount", "principal"),
		InterestRate: r.FloatOr(0, "interest_rate"),
		Currency:     strings.ToUpper(r.String("currency")),
	}
	if t, ok := r.Time("maturity_date"); ok {
		d.MaturityDate = models.Some(t)
	}
	return d
}
