package adapters

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ayaan-rulhania/thor-acquisition/pkg/types"
)

const (
	htmlEngineConfidence = 0.7
	maxResponseBody      = 4 << 20 // 4MB, mirrors the pack's FetchTool body cap
	defaultUserAgent     = "Mozilla/5.0 (compatible; thorlearn/1.0; +https://example.invalid/bot)"
)

// HTMLEngine scrapes titles, snippets, and hrefs out of a general search
// engine's result page using CSS selectors, the way the pack's
// ParseHTMLTool walks a goquery document.
type HTMLEngine struct {
	name            types.AdapterName
	label           string
	client          *http.Client
	userAgent       string
	searchURL       func(query string) string
	resultSelector  string
	titleSelector   string
	snippetSelector string
	linkSelector    string
	linkAttr        string
}

func (h *HTMLEngine) Name() types.AdapterName { return h.name }

// NewEngineA builds the DuckDuckGo HTML adapter.
func NewEngineA(client *http.Client) *HTMLEngine {
	return &HTMLEngine{
		name:  types.AdapterEngineA,
		label: "DuckDuckGo",
		client: withTimeout(client),
		searchURL: func(q string) string {
			return "https://html.duckduckgo.com/html/?q=" + url.QueryEscape(q)
		},
		resultSelector:  "div.result",
		titleSelector:   "a.result__a",
		snippetSelector: "a.result__snippet",
		linkSelector:    "a.result__a",
		linkAttr:        "href",
	}
}

// NewEngineB builds the Bing HTML adapter.
func NewEngineB(client *http.Client) *HTMLEngine {
	return &HTMLEngine{
		name:  types.AdapterEngineB,
		label: "Bing",
		client: withTimeout(client),
		searchURL: func(q string) string {
			return "https://www.bing.com/search?q=" + url.QueryEscape(q) + "&setlang=en-US&cc=US"
		},
		resultSelector:  "li.b_algo",
		titleSelector:   "h2 a",
		snippetSelector: "p",
		linkSelector:    "h2 a",
		linkAttr:        "href",
	}
}

// NewEngineC builds the Google HTML adapter.
func NewEngineC(client *http.Client) *HTMLEngine {
	return &HTMLEngine{
		name:  types.AdapterEngineC,
		label: "Google",
		client: withTimeout(client),
		searchURL: func(q string) string {
			return "https://www.google.com/search?q=" + url.QueryEscape(q)
		},
		resultSelector:  "div.tF2Cxc",
		titleSelector:   "h3",
		snippetSelector: "div.VwiC3b, div.IsZvec",
		linkSelector:    "a",
		linkAttr:        "href",
	}
}

func withTimeout(client *http.Client) *http.Client {
	if client == nil {
		return &http.Client{Timeout: 15 * time.Second}
	}
	return client
}

// Search fetches the engine's result page and extracts up to n candidates.
func (h *HTMLEngine) Search(ctx context.Context, query string, n int) ([]types.RawCandidate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.searchURL(query), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	ua := h.userAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", h.label, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", h.label, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("parse %s response: %w", h.label, err)
	}

	candidates := make([]types.RawCandidate, 0, n)
	doc.Find(h.resultSelector).EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if len(candidates) >= n {
			return false
		}

		title := strings.TrimSpace(sel.Find(h.titleSelector).First().Text())
		snippet := strings.TrimSpace(sel.Find(h.snippetSelector).First().Text())
		href, _ := sel.Find(h.linkSelector).First().Attr(h.linkAttr)

		if title == "" || snippet == "" {
			return true
		}

		candidates = append(candidates, types.RawCandidate{
			Title:         h.label + " — " + title,
			Content:       snippet,
			URL:           href,
			SourceAdapter: h.name,
			Confidence:    htmlEngineConfidence,
			AdapterIndex:  i,
		})
		return true
	})

	return candidates, nil
}
