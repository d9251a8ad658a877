package synthesis

import (
	"regexp"
	"strconv"
	"strings"

	"FinAdvisor/internal/domain/models"
)

var (
	// Models pad the fields with spaces now and then; Apply rewrites every
	// match to the compact form.
	sourceTag = regexp.MustCompile(`\[SOURCE:\s*([^|\]]*?)\s*\|\s*([^\]\s]*)\s*\]`)
	bareURL   = regexp.MustCompile(`https?://[^\s\])>"'<]+`)
)

// CitationGuard only lets through links that a tool actually returned.
type CitationGuard struct {
	titles map[string]string
}

// NewCitationGuard allows the web search results and the news sources in results.
func NewCitationGuard(results models.ToolResults) *CitationGuard {
	g := &CitationGuard{titles: make(map[string]string)}
	for _, s := range AllowedSources(results) {
		g.titles[s.URL] = s.Title
	}
	return g
}

// AllowedSources lists tool-provided sources, web search first.
func AllowedSources(results models.ToolResults) []models.Source {
	var out []models.Source
	seen := make(map[string]bool)
	add := func(s models.Source) {
		if s.URL == "" || seen[s.URL] {
			return
		}
		seen[s.URL] = true
		out = append(out, s)
	}
	if r, ok := results.Succeeded(models.ToolWebSearch); ok {
		if p, ok := r.Payload.(models.WebSearchPayload); ok {
			for _, res := range p.Results {
				add(models.Source{Title: res.Title, URL: res.URL, Publisher: res.DisplaySource})
			}
		}
	}
	if r, ok := results.Succeeded(models.ToolEgyptianNews); ok {
		if p, ok := r.Payload.(models.NewsPayload); ok {
			for _, s := range p.Sources {
				add(s)
			}
		}
	}
	return out
}

// Allowed reports whether url came from a tool.
func (g *CitationGuard) Allowed(url string) bool {
	_, ok := g.titles[trimURL(url)]
	return ok
}

// Apply rewrites text so that every citation tag carries a tool title and
// URL verbatim, drops tags with unknown URLs and strips bare unknown URLs.
func (g *CitationGuard) Apply(text string) string {
	var kept []string
	text = sourceTag.ReplaceAllStringFunc(text, func(tag string) string {
		m := sourceTag.FindStringSubmatch(tag)
		url := trimURL(m[2])
		title, ok := g.titles[url]
		if !ok {
			return ""
		}
		kept = append(kept, "[SOURCE:"+title+"|"+url+"]")
		return placeholder(len(kept) - 1)
	})

	text = bareURL.ReplaceAllStringFunc(text, func(u string) string {
		if g.Allowed(u) {
			return u
		}
		return u[len(trimURL(u)):]
	})

	for i, tag := range kept {
		text = strings.Replace(text, placeholder(i), tag, 1)
	}
	return tidy(text)
}

func placeholder(i int) string { return "\x00" + strconv.Itoa(i) + "\x00" }

func trimURL(u string) string {
	return strings.TrimRight(strings.TrimSpace(u), ".,;:!?")
}

var (
	emptyParens = regexp.MustCompile(`\(\s*\)|\[\s*\]`)
	spaceRuns   = regexp.MustCompile(`[ \t]{2,}`)
	spaceBefore = regexp.MustCompile(`[ \t]+([.,;:!?،])`)
)

func tidy(s string) string {
	s = emptyParens.ReplaceAllString(s, "")
	s = spaceRuns.ReplaceAllString(s, " ")
	s = spaceBefore.ReplaceAllString(s, "$1")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
