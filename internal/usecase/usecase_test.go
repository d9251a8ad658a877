package usecase

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"

	"FinAdvisor/internal/domain/models"
	domrepo "FinAdvisor/internal/domain/repository"
	"FinAdvisor/internal/services/currency"
	"FinAdvisor/internal/services/synthesis"
	"FinAdvisor/internal/services/tools"
)

type fakeTables struct {
	mu    sync.Mutex
	rows  map[string][]domrepo.Row
	fail  map[string]bool
	reads []string
}

func (f *fakeTables) Select(_ context.Context, table string, q domrepo.Query) ([]domrepo.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads = append(f.reads, table)
	if f.fail[table] {
		return nil, errors.New("backend down")
	}
	return f.rows[table], nil
}

type fakeClassifier struct{ c models.QueryClassification }

func (f fakeClassifier) Classify(context.Context, string, string) models.QueryClassification { return f.c }

type fakeRates struct{}

func (fakeRates) Graph(context.Context) (*currency.Graph, error) {
	return currency.NewGraph([]models.CurrencyRate{{Base: "USD", Target: "EGP", Rate: 50}}, "EGP"), nil
}

type fakeMarket struct{ calls int }

func (f *fakeMarket) SelectAndFetch(context.Context, models.QueryClassification, string) models.MarketSnapshot {
	f.calls++
	return models.MarketSnapshot{}
}

func (f *fakeMarket) Summarize(string, models.MarketSnapshot) string { return "" }

type fakeTools struct {
	calls int
	names []models.ToolName
}

func (f *fakeTools) Execute(_ context.Context, names []models.ToolName, _ tools.Input) models.ToolResults {
	f.calls++
	f.names = names
	out := models.ToolResults{}
	for _, n := range names {
		out[n] = models.ToolResult{Tool: n, Success: true}
	}
	return out
}

type fakeSynth struct {
	detailed, simple int
	reply            string
	err              error
	panic            bool
}

func (f *fakeSynth) Synthesize(context.Context, synthesis.Input) string {
	if f.panic {
		panic("synth exploded")
	}
	f.detailed++
	return f.reply
}

func (f *fakeSynth) Reply(context.Context, string) (string, error) {
	f.simple++
	return f.reply, f.err
}

type recordingEvents struct{ events []models.QueryEvent }

func (r *recordingEvents) PublishQueryEvent(_ context.Context, ev models.QueryEvent) error {
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingEvents) Close() error { return nil }

type harness struct {
	tables *fakeTables
	market *fakeMarket
	tools  *fakeTools
	synth  *fakeSynth
	events *recordingEvents
	router *QueryRouter
}

func newHarness(c models.QueryClassification) *harness {
	h := &harness{
		tables: &fakeTables{rows: map[string][]domrepo.Row{}, fail: map[string]bool{}},
		market: &fakeMarket{},
		tools:  &fakeTools{},
		synth:  &fakeSynth{reply: "model answer"},
		events: &recordingEvents{},
	}
	h.router = NewQueryRouter(
		fakeClassifier{c},
		NewSnapshotLoader(h.tables, nil),
		fakeRates{},
		h.market,
		h.tools,
		h.synth,
		NewInstantResponder(h.tables),
		WithEventPublisher(h.events),
	)
	return h
}

func quick(ctx ...string) models.QueryClassification {
	return models.NewClassification(models.QueryQuickValue, ctx, models.PriorityHigh, models.ResponseValue, nil)
}

func TestGreetingIsInstant(t *testing.T) {
	h := newHarness(models.NewClassification(models.QueryGreeting, nil, models.PriorityLow, models.ResponseBrief, nil))
	res := h.router.Handle(context.Background(), RouteRequest{Message: "hi", UserID: "u1"})

	if res.Path != models.PathInstant || !slices.Contains(greetingsEN, res.Response) {
		t.Fatalf("result = %+v", res)
	}
	if h.tools.calls != 0 || h.synth.detailed+h.synth.simple != 0 || len(h.tables.reads) != 0 {
		t.Fatalf("greeting touched collaborators: tools=%d synth=%d/%d reads=%v", h.tools.calls, h.synth.detailed, h.synth.simple, h.tables.reads)
	}

	ar := h.router.Handle(context.Background(), RouteRequest{Message: "مرحبا", UserID: "u1"})
	if !slices.Contains(greetingsAR, ar.Response) {
		t.Fatalf("arabic greeting = %q", ar.Response)
	}
}

func TestGoldPriceArabicIsInstant(t *testing.T) {
	h := newHarness(quick(models.CtxGold))
	h.tables.rows["gold_prices"] = []domrepo.Row{
		{"karat": "24", "buy_price": 4600.0, "sell_price": 4580.0, "currency": "EGP"},
		{"karat": "21", "buy_price": 4025.0, "sell_price": 4010.0, "currency": "EGP"},
	}
	res := h.router.Handle(context.Background(), RouteRequest{Message: "سعر الذهب", UserID: "u1"})

	if res.Path != models.PathInstant || res.Degraded {
		t.Fatalf("result = %+v", res)
	}
	lines := strings.Split(res.Response, "\n")
	if len(lines) != 3 || !strings.Contains(lines[0], "أسعار الذهب") {
		t.Fatalf("response = %q", res.Response)
	}
	if !strings.Contains(lines[2], "عيار 21") || !strings.Contains(lines[2], "شراء") || !strings.Contains(lines[2], "4,025.00") {
		t.Fatalf("gold line = %q", lines[2])
	}
	if h.synth.detailed+h.synth.simple != 0 || h.tools.calls != 0 {
		t.Fatal("instant gold answer must not call the model or tools")
	}
}

func TestChoosePathOrder(t *testing.T) {
	r := newHarness(models.DefaultClassification()).router
	product := models.NewClassification(models.QueryProductResearch, []string{models.CtxBanks}, models.PriorityHigh, models.ResponseDetailed, []models.ToolName{models.ToolWebSearch})
	withTools := models.NewClassification(models.QueryGeneralFinancial, nil, models.PriorityMedium, models.ResponseMedium, []models.ToolName{models.ToolRiskAnalysis})

	cases := []struct {
		msg  string
		c    models.QueryClassification
		want models.RoutePath
	}{
		{"hello, compare gold and stocks", models.NewClassification(models.QueryGreeting, nil, models.PriorityLow, models.ResponseBrief, nil), models.PathInstant},
		{"gold price", quick(models.CtxGold), models.PathInstant},
		{"latest gold news", quick(models.CtxGold), models.PathDetailed},
		{"هل اشتري ذهب", quick(models.CtxGold), models.PathDetailed},
		{strings.Repeat("a", 121), quick(models.CtxGold), models.PathDetailed},
		{"best certificates", product, models.PathDetailed},
		{"bank certificates", product, models.PathDetailed},
		{"am I ok", withTools, models.PathDetailed},
		{"what is inflation", models.DefaultClassification(), models.PathSimple},
		{"what is 2+2", quick(models.CtxNews), models.PathSimple},
	}
	for _, tc := range cases {
		if got := r.ChoosePath(tc.msg, tc.c); got != tc.want {
			t.Errorf("%q: path = %s, want %s", tc.msg, got, tc.want)
		}
	}
}

func TestDetailedRunsToolsAndMarket(t *testing.T) {
	c := models.NewClassification(models.QueryPortfolioAnalysis, []string{models.CtxPortfolio}, models.PriorityHigh, models.ResponseDetailed,
		[]models.ToolName{models.ToolPortfolioAnalysis, models.ToolRiskAnalysis})
	h := newHarness(c)
	res := h.router.Handle(context.Background(), RouteRequest{Message: "analyze my portfolio", UserID: "u1", ChatID: "c1"})

	if res.Path != models.PathDetailed || res.Response != "model answer" {
		t.Fatalf("result = %+v", res)
	}
	if h.market.calls != 1 || h.tools.calls != 1 || h.synth.detailed != 1 {
		t.Fatalf("market=%d tools=%d synth=%d", h.market.calls, h.tools.calls, h.synth.detailed)
	}
	if strings.Join(res.ToolsUsed, ",") != "portfolio_analysis,risk_analysis" {
		t.Fatalf("tools used = %v", res.ToolsUsed)
	}
	if len(h.events.events) != 1 || h.events.events[0].ChatID != "c1" || h.events.events[0].Path != models.PathDetailed {
		t.Fatalf("events = %+v", h.events.events)
	}
}

func TestInstantWithoutDataEscalates(t *testing.T) {
	h := newHarness(quick(models.CtxGold))
	res := h.router.Handle(context.Background(), RouteRequest{Message: "gold price", UserID: "u1"})
	if res.Path != models.PathDetailed || h.synth.detailed != 1 {
		t.Fatalf("result = %+v, synth=%d", res, h.synth.detailed)
	}
}

func TestFailuresBecomeApology(t *testing.T) {
	c := models.NewClassification(models.QueryMarketResearch, nil, models.PriorityMedium, models.ResponseDetailed, nil)
	h := newHarness(c)
	h.synth.panic = true
	res := h.router.Handle(context.Background(), RouteRequest{Message: "كيف حال السوق", UserID: "u1"})
	if !res.Degraded || res.Response != synthesis.Apology("عربي") {
		t.Fatalf("panic result = %+v", res)
	}
	if len(h.events.events) != 1 || !h.events.events[0].Degraded {
		t.Fatalf("events = %+v", h.events.events)
	}

	h = newHarness(models.DefaultClassification())
	h.synth.err = errors.New("model down")
	res = h.router.Handle(context.Background(), RouteRequest{Message: "what is inflation"})
	if res.Path != models.PathSimple || res.Response != synthesis.Apology("what") {
		t.Fatalf("simple failure = %+v", res)
	}

	h = newHarness(quick(models.CtxDebts))
	for _, table := range domrepo.UserTables {
		h.tables.fail[table] = true
	}
	res = h.router.Handle(context.Background(), RouteRequest{Message: "my debts", UserID: "u1"})
	if !res.Degraded || res.Path != models.PathInstant {
		t.Fatalf("snapshot failure = %+v", res)
	}
}

func TestInstantPersonalAnswers(t *testing.T) {
	h := newHarness(quick(models.CtxDebts))
	h.tables.rows[domrepo.TableDebts] = []domrepo.Row{
		{"debt_name": "Car loan", "remaining_amount": 100000.0, "monthly_payment": 5000.0, "currency": "EGP"},
	}
	h.tables.rows[domrepo.TableIncomeStreams] = []domrepo.Row{{"source": "Salary", "amount": 50000.0, "frequency": "monthly", "currency": "EGP"}}
	h.tables.rows[domrepo.TableUserSettings] = []domrepo.Row{{"currency": "egp", "country": "eg"}}

	res := h.router.Handle(context.Background(), RouteRequest{Message: "my debts", UserID: "u1"})
	if res.Path != models.PathInstant {
		t.Fatalf("path = %s", res.Path)
	}
	for _, want := range []string{"Car loan", "100,000.00", "Debt-to-income ratio: 10.0%"} {
		if !strings.Contains(res.Response, want) {
			t.Fatalf("response %q missing %q", res.Response, want)
		}
	}
}

func TestSnapshotLoader(t *testing.T) {
	tables := &fakeTables{
		rows: map[string][]domrepo.Row{
			domrepo.TableAssets: {
				{"asset_name": "CIB", "asset_type": "stocks", "quantity": 10.0, "current_price": 80.0, "purchase_price": 60.0, "currency": "egp"},
				{"asset_name": "Flat", "asset_type": "real_estate", "current_value": 2000000.0},
			},
			domrepo.TableGoals:    {{"goal_name": "Car", "target_amount": 500000.0, "current_amount": 100000.0, "status": "Active", "target_date": "2027-01-01"}},
			domrepo.TableDeposits: {{"bank_name": "NBE", "amount": 100000.0, "interest_rate": 27.0, "maturity_date": "2026-06-30"}},
		},
		fail: map[string]bool{domrepo.TableDebts: true},
	}
	snap, err := NewSnapshotLoader(tables, nil).Load(context.Background(), "u1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(snap.Assets) != 2 || snap.Assets[0].Currency != "EGP" || snap.Assets[0].Quantity != 10 {
		t.Fatalf("assets = %+v", snap.Assets)
	}
	if flat := snap.Assets[1]; flat.Quantity != 1 || flat.CurrentPrice != 2000000 || flat.PurchasePrice != 2000000 {
		t.Fatalf("flat = %+v", flat)
	}
	if g := snap.Goals[0]; g.Status != models.GoalActive || !g.TargetDate.IsSome() {
		t.Fatalf("goal = %+v", g)
	}
	if !snap.Deposits[0].MaturityDate.IsSome() || len(snap.Debts) != 0 {
		t.Fatalf("deposits = %+v debts = %+v", snap.Deposits, snap.Debts)
	}

	anon, err := NewSnapshotLoader(tables, nil).Load(context.Background(), "")
	if err != nil || !anon.IsEmpty() {
		t.Fatalf("anonymous = %+v, %v", anon, err)
	}
}

func TestNeedsAnalysis(t *testing.T) {
	cases := map[string]bool{
		"what's the gold price":           false,
		"سعر الذهب":                       false,
		"أخبار البورصة":                   true,
		"should I buy gold?":              true,
		"قارن بين الشهادات":               true,
		"gold vs stocks":                  true,
		"my debts":                        false,
		strings.Repeat("ذهب ", 40):        true,
		"ما هي ديوني الأخرى":              false,
		"اخبرني كم ديوني":                 false,
		"بماذا تنصحني":                    true,
		"آخر الأخبار عن الذهب":            true,
		"any recommendations for savings": true,
	}
	for msg, want := range cases {
		if got := NeedsAnalysis(msg, 0); got != want {
			t.Errorf("NeedsAnalysis(%q) = %v, want %v", msg, got, want)
		}
	}
}

type fakeBook struct {
	applied     []models.CurrencyRate
	invalidated int
}

func (f *fakeBook) Apply(r []models.CurrencyRate) { f.applied = append(f.applied, r...) }
func (f *fakeBook) Invalidate(context.Context) { f.invalidated++ }

func TestRateUpdateHandler(t *testing.T) {
	book := &fakeBook{}
	h := NewRateUpdateHandler("rates", book, nil, nil)
	if h.Topic() != "rates" {
		t.Fatalf("topic = %s", h.Topic())
	}
	msg := `{"rates":[{"base":"usd","target":"egp","rate":48.5},{"base":"EUR","target":"","rate":1},` +
		`{"base":"GBP","target":"EGP","rate":-2},{"base":"US","target":"EGP","rate":50},{"base":"E1R","target":"EGP","rate":50}]}`
	if err := h.Handle(context.Background(), []byte(msg)); err != nil {
		t.Fatal(err)
	}
	if len(book.applied) != 1 || book.applied[0].Base != "USD" || book.applied[0].Rate != 48.5 {
		t.Fatalf("applied = %+v", book.applied)
	}
	if err := h.Handle(context.Background(), []byte(`{"rates":[]}`)); err != nil || book.invalidated != 1 {
		t.Fatalf("invalidate: %v, %d", err, book.invalidated)
	}
	if err := h.Handle(context.Background(), []byte(`not json`)); err == nil {
		t.Fatal("expected decode error")
	}
}
