package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ayaan-rulhania/thor-acquisition/pkg/types"
)

const paidSearchConfidence = 0.8

// Paid wraps whichever paid search API has credentials configured. Brave is
// preferred when both keys are present, matching the original system's
// SerpAPI-as-Google-fallback ordering.
type Paid struct {
	client       *http.Client
	braveKey     string
	serpAPIKey   string
}

// NewPaid builds a Paid adapter. braveKey and serpAPIKey may be empty; if
// both are empty, Search always returns an empty result (the caller should
// simply omit this adapter from the retriever's adapter list instead).
func NewPaid(client *http.Client, braveKey, serpAPIKey string) *Paid {
	return &Paid{client: withTimeout(client), braveKey: braveKey, serpAPIKey: serpAPIKey}
}

func (p *Paid) Name() types.AdapterName { return types.AdapterPaid }

// Enabled reports whether any credential is configured.
func (p *Paid) Enabled() bool { return p.braveKey != "" || p.serpAPIKey != "" }

func (p *Paid) Search(ctx context.Context, query string, n int) ([]types.RawCandidate, error) {
	if p.braveKey != "" {
		return p.searchBrave(ctx, query, n)
	}
	if p.serpAPIKey != "" {
		return p.searchSerpAPI(ctx, query, n)
	}
	return nil, nil
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			URL         string `json:"url"`
		} `json:"results"`
	} `json:"web"`
}

func (p *Paid) searchBrave(ctx context.Context, query string, n int) ([]types.RawCandidate, error) {
	q := url.Values{"q": {query}, "count": {fmt.Sprintf("%d", n)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://api.search.brave.com/res/v1/web/search?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", p.braveKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("brave search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("brave search: status %d", resp.StatusCode)
	}

	var parsed braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode brave response: %w", err)
	}

	candidates := make([]types.RawCandidate, 0, n)
	for i, item := range parsed.Web.Results {
		if i >= n {
			break
		}
		if item.Title == "" || item.Description == "" {
			continue
		}
		candidates = append(candidates, types.RawCandidate{
			Title:         "Brave — " + item.Title,
			Content:       truncate(item.Description, 700),
			URL:           item.URL,
			SourceAdapter: types.AdapterPaid,
			Confidence:    paidSearchConfidence,
			AdapterIndex:  i,
		})
	}
	return candidates, nil
}

type serpAPIResponse struct {
	OrganicResults []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
		Link    string `json:"link"`
	} `json:"organic_results"`
}

func (p *Paid) searchSerpAPI(ctx context.Context, query string, n int) ([]types.RawCandidate, error) {
	q := url.Values{
		"engine":  {"google"},
		"q":       {query},
		"num":     {fmt.Sprintf("%d", n)},
		"api_key": {p.serpAPIKey},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://serpapi.com/search.json?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serpapi search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("serpapi search: status %d", resp.StatusCode)
	}

	var parsed serpAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode serpapi response: %w", err)
	}

	candidates := make([]types.RawCandidate, 0, n)
	for i, item := range parsed.OrganicResults {
		if i >= n {
			break
		}
		if item.Title == "" || item.Snippet == "" {
			continue
		}
		candidates = append(candidates, types.RawCandidate{
			Title:         "Google — " + item.Title,
			Content:       truncate(item.Snippet, 700),
			URL:           item.Link,
			SourceAdapter: types.AdapterPaid,
			Confidence:    paidSearchConfidence,
			AdapterIndex:  i,
		})
	}
	return candidates, nil
}
