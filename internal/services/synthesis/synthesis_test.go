package synthesis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"FinAdvisor/internal/domain/models"
	"FinAdvisor/internal/domain/service"
)

type fakeModel struct {
	reply string
	err   error
	last  service.CompletionRequest
}

func (m *fakeModel) Complete(_ context.Context, req service.CompletionRequest) (string, error) {
	m.last = req
	return m.reply, m.err
}

func webResults() models.ToolResults {
	return models.ToolResults{
		models.ToolWebSearch: {Tool: models.ToolWebSearch, Success: true, Payload: models.WebSearchPayload{
			Results: []models.WebResult{
				{Title: "NBE certificates", URL: "https://nbe.example/certs", DisplaySource: "nbe.example"},
				{Title: "CIB funds", URL: "https://cib.example/funds"},
			},
		}},
	}
}

func TestCitationGuard(t *testing.T) {
	g := NewCitationGuard(webResults())
	in := "NBE pays 27% [SOURCE:National Bank|https://nbe.example/certs]. " +
		"Another bank pays 30% [SOURCE:Fake|https://fake.example/x]. " +
		"See https://cib.example/funds and https://evil.example/page."

	out := g.Apply(in)
	if !strings.Contains(out, "[SOURCE:NBE certificates|https://nbe.example/certs]") {
		t.Fatalf("title not substituted: %s", out)
	}
	if strings.Contains(out, "fake.example") || strings.Contains(out, "evil.example") {
		t.Fatalf("fabricated URL survived: %s", out)
	}
	if !strings.Contains(out, "https://cib.example/funds") {
		t.Fatalf("tool URL stripped: %s", out)
	}
	if !strings.HasSuffix(out, "and.") {
		t.Fatalf("sentence end mangled: %q", out)
	}
}

func TestCitationGuardSpacedTags(t *testing.T) {
	g := NewCitationGuard(webResults())
	cases := map[string]string{
		"Rates [SOURCE: Made up title | https://nbe.example/certs] today.": "Rates [SOURCE:NBE certificates|https://nbe.example/certs] today.",
		"Rates [SOURCE: Fake | https://fake.example/x] today.":             "Rates today.",
		"Rates [SOURCE:Fake|  https://fake.example/x  ] today.":            "Rates today.",
	}
	for in, want := range cases {
		if got := g.Apply(in); got != want {
			t.Errorf("Apply(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSynthesizeWebSearchFailedStatesNoOfferings(t *testing.T) {
	model := &fakeModel{reply: "The best funds are Alpha and Beta [SOURCE:Alpha|https://alpha.example]. Details at https://beta.example/fund"}
	s := New(model)

	in := Input{
		Message:        "Egyptian bank investment funds",
		Classification: models.NewClassification(models.QueryProductResearch, []string{models.CtxFunds}, models.PriorityMedium, models.ResponseDetailed, []models.ToolName{models.ToolWebSearch}),
		Tools:          models.ToolResults{models.ToolWebSearch: {Tool: models.ToolWebSearch, Error: "no search results"}},
	}
	out := s.Synthesize(context.Background(), in)

	if strings.Contains(out, "http") || strings.Contains(out, "[SOURCE:") {
		t.Fatalf("sources must not appear: %s", out)
	}
	if !strings.Contains(out, "couldn't confirm current offerings") {
		t.Fatalf("missing notice: %s", out)
	}
	if model.last.MaxTokens != 800 {
		t.Fatalf("max tokens = %d", model.last.MaxTokens)
	}
	if !strings.Contains(model.last.Messages[0].Content, "cannot confirm current offerings") {
		t.Fatal("prompt does not instruct the model about the failed search")
	}
}

func TestSynthesizeKeepsModelNotice(t *testing.T) {
	reply := "I cannot confirm current offerings, please check with your bank."
	in := Input{Message: "funds", Tools: models.ToolResults{models.ToolWebSearch: {Tool: models.ToolWebSearch}}}
	if out := PostProcess(in, reply); out != reply {
		t.Fatalf("notice duplicated: %s", out)
	}
}

func TestSynthesizeAppendsNewsLinks(t *testing.T) {
	var sources []models.Source
	for _, u := range []string{"a", "b", "c", "d"} {
		sources = append(sources, models.Source{Title: "T" + u, URL: "https://news.example/" + u})
	}
	in := Input{
		Message:        "آخر أخبار البورصة",
		Classification: models.NewClassification(models.QueryNewsAnalysis, nil, models.PriorityHigh, models.ResponseBrief, nil),
		Tools: models.ToolResults{
			models.ToolEgyptianNews: {Tool: models.ToolEgyptianNews, Success: true, Payload: models.NewsPayload{Sources: sources}},
		},
	}
	model := &fakeModel{reply: "البورصة ارتفعت اليوم."}
	out := New(model).Synthesize(context.Background(), in)

	if !strings.Contains(out, "المصادر") || !strings.Contains(out, "https://news.example/c") {
		t.Fatalf("news links missing: %s", out)
	}
	if strings.Contains(out, "https://news.example/d") {
		t.Fatalf("more than three links: %s", out)
	}
	if model.last.MaxTokens != 150 {
		t.Fatalf("max tokens = %d", model.last.MaxTokens)
	}
}

func TestSynthesizeFallbacks(t *testing.T) {
	snap := &models.UserSnapshot{
		Settings: models.Settings{Currency: "EGP"},
		Income:   []models.IncomeStream{{Amount: 20000, Active: true}},
		Expenses: []models.ExpenseStream{{Amount: 12000}},
		Debts:    []models.Debt{{Amount: 5000}},
	}
	s := New(&fakeModel{err: errors.New("503 from provider")})

	quick := Input{
		Message:        "what is my total income",
		Classification: models.NewClassification(models.QueryQuickValue, []string{models.CtxPersonalFinance}, models.PriorityMedium, models.ResponseValue, nil),
		Snapshot:       snap,
	}
	out := s.Synthesize(context.Background(), quick)
	if !strings.Contains(out, "20,000.00") || !strings.Contains(out, "-5,000.00") {
		t.Fatalf("quick fallback = %s", out)
	}

	general := Input{Message: "explain inflation", Classification: models.DefaultClassification(), Snapshot: snap}
	if out := s.Synthesize(context.Background(), general); out != apologyEN {
		t.Fatalf("general fallback = %s", out)
	}
	general.Message = "اشرح التضخم"
	if out := s.Synthesize(context.Background(), general); out != apologyAR {
		t.Fatalf("arabic fallback = %s", out)
	}
}

func TestSynthesizeEmptyReplyFallsBack(t *testing.T) {
	out := New(&fakeModel{reply: "   "}).Synthesize(context.Background(), Input{Message: "hello there", Classification: models.DefaultClassification()})
	if out != apologyEN {
		t.Fatalf("got %q", out)
	}
}

func TestSystemPromptSections(t *testing.T) {
	in := Input{
		Message:        "compare certificates",
		Classification: models.NewClassification(models.QueryProductResearch, nil, models.PriorityMedium, models.ResponseMedium, nil),
		MarketSummary:  "### Gold prices\n- 21: buy 3,200.00 ج.م/gram",
		Tools:          webResults(),
	}
	p := SystemPrompt(in)
	for _, want := range []string{"MARKET DATA", "21: buy", "price_per_meter × requested area", "1. NBE certificates | https://nbe.example/certs", "[web_search]"} {
		if !strings.Contains(p, want) {
			t.Fatalf("prompt missing %q:\n%s", want, p)
		}
	}
}
