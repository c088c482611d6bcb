// Package adapters implements the Multi-Engine Retriever's per-source
// search adapters: a structured encyclopedia API, HTML scrapers for the
// general search engines, and an optional paid search API.
package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ayaan-rulhania/thor-acquisition/pkg/types"
)

const encyclopediaConfidence = 0.9

// Encyclopedia queries the MediaWiki search API for matching page titles,
// then the REST summary endpoint for each title's extract.
type Encyclopedia struct {
	client  *http.Client
	baseAPI string
	restAPI string
}

// NewEncyclopedia builds an Encyclopedia adapter against the public
// Wikipedia API endpoints.
func NewEncyclopedia(client *http.Client) *Encyclopedia {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Encyclopedia{
		client:  client,
		baseAPI: "https://en.wikipedia.org/w/api.php",
		restAPI: "https://en.wikipedia.org/api/rest_v1/page/summary",
	}
}

func (e *Encyclopedia) Name() types.AdapterName { return types.AdapterEncyclopedia }

type searchResponse struct {
	Query struct {
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

type summaryResponse struct {
	Extract     string `json:"extract"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// Search looks up up to n page titles for query, then fetches each title's
// summary extract.
func (e *Encyclopedia) Search(ctx context.Context, query string, n int) ([]types.RawCandidate, error) {
	titles, err := e.searchTitles(ctx, query, n)
	if err != nil {
		return nil, err
	}

	candidates := make([]types.RawCandidate, 0, len(titles))
	for i, title := range titles {
		summary, err := e.fetchSummary(ctx, title)
		if err != nil {
			continue
		}
		if summary.Extract == "" {
			continue
		}
		candidates = append(candidates, types.RawCandidate{
			Title:         "Wikipedia — " + title,
			Content:       truncate(summary.Extract, 800),
			URL:           summary.ContentURLs.Desktop.Page,
			SourceAdapter: types.AdapterEncyclopedia,
			Confidence:    encyclopediaConfidence,
			AdapterIndex:  i,
		})
	}
	return candidates, nil
}

func (e *Encyclopedia) searchTitles(ctx context.Context, query string, n int) ([]string, error) {
	q := url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {query},
		"srlimit":  {fmt.Sprintf("%d", n)},
		"format":   {"json"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseAPI+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wikipedia search: status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	titles := make([]string, 0, len(parsed.Query.Search))
	for _, hit := range parsed.Query.Search {
		if hit.Title != "" {
			titles = append(titles, hit.Title)
		}
	}
	return titles, nil
}

func (e *Encyclopedia) fetchSummary(ctx context.Context, title string) (*summaryResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		e.restAPI+"/"+url.PathEscape(title), nil)
	if err != nil {
		return nil, err
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wikipedia summary: status %d", resp.StatusCode)
	}

	var parsed summaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode summary response: %w", err)
	}
	return &parsed, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n]
}
