package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"errand-route-service/internal/adapters/cache"
	"errand-route-service/internal/domain"
	"errand-route-service/internal/platform/obs"
	"errand-route-service/internal/ports"
)

// usAddressPattern matches US-style street addresses in free text,
// e.g. "123 Main Street, Austin, TX 78701".
var usAddressPattern = regexp.MustCompile(
	`(?i)\d+\s+[A-Za-z\s]+(?:Street|St|Avenue|Ave|Road|Rd|Drive|Dr|Lane|Ln|Boulevard|Blvd|Way|Court|Ct|Parkway|Pkwy)\.?\s*,\s*[A-Za-z\s]+,\s*[A-Z]{2}(\s+\d{5})?`,
)

// TavilySearcher implements the web-search fallback port. It searches the
// web for the place, extracts US-style addresses from result snippets, and
// re-geocodes the first hit through the primary geocoder.
type TavilySearcher struct {
	session  *http.Client
	baseURL  string
	apiKey   string
	geocoder ports.Geocoder
	cache    ports.KeyValueCache
	ttl      time.Duration
}

func NewTavilySearcher(
	apiKey string,
	timeout time.Duration,
	geocoder ports.Geocoder,
	kv ports.KeyValueCache,
	ttl time.Duration,
) *TavilySearcher {
	return &TavilySearcher{
		session:  &http.Client{Timeout: timeout},
		baseURL:  "https://api.tavily.com/search",
		apiKey:   apiKey,
		geocoder: geocoder,
		cache:    kv,
		ttl:      ttl,
	}
}

type tavilyResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// SearchPlace digs up an address for the query near the textual location
// context. Returns nil when nothing usable was found; never propagates
// provider failures.
func (t *TavilySearcher) SearchPlace(
	ctx context.Context,
	query, locationContext string,
) (_ *domain.PlaceSearchResult, err error) {
	defer obs.Time(ctx, "websearch.SearchPlace")(&err)

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	searchQuery := query + " address"
	if locationContext != "" {
		searchQuery = fmt.Sprintf("%s near %s address", query, locationContext)
	}

	key := cache.Key("tavily", "search", map[string]any{"query": searchQuery})

	var decoded tavilyResponse
	if !t.cached(ctx, key, &decoded) {
		body, _ := json.Marshal(map[string]any{
			"api_key":     t.apiKey,
			"query":       searchQuery,
			"max_results": 5,
		})

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("web search: create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := t.session.Do(req)
		if err != nil {
			log.Printf("websearch: request failed query=%q err=%v", query, err)
			return nil, nil
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			log.Printf("websearch: unexpected status query=%q status=%d", query, resp.StatusCode)
			return nil, nil
		}

		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			log.Printf("websearch: decode failed query=%q err=%v", query, err)
			return nil, nil
		}

		if t.cache != nil {
			if b, jerr := json.Marshal(decoded); jerr == nil {
				if cerr := t.cache.Set(ctx, key, string(b), t.ttl); cerr != nil {
					log.Printf("websearch: cache write failed key=%s err=%v", key, cerr)
				}
			}
		}
	}

	for _, r := range decoded.Results {
		address := ExtractAddress(r.Content)
		if address == "" {
			address = ExtractAddress(r.Title)
		}
		if address == "" {
			continue
		}

		geocoded, err := t.geocoder.Geocode(ctx, address)
		if err != nil || geocoded == nil {
			continue
		}

		return &domain.PlaceSearchResult{
			Name:      query,
			Address:   geocoded.Address,
			Coords:    geocoded.Coords,
			Source:    domain.SourceWebSearch,
			PlaceType: geocoded.PlaceType,
		}, nil
	}

	return nil, nil
}

// ExtractAddress pulls the first US-style street address out of free text.
func ExtractAddress(text string) string {
	return strings.TrimSpace(usAddressPattern.FindString(text))
}

func (t *TavilySearcher) cached(ctx context.Context, key string, out *tavilyResponse) bool {
	if t.cache == nil {
		return false
	}

	raw, ok, err := t.cache.Get(ctx, key)
	if err != nil {
		log.Printf("websearch: cache read failed key=%s err=%v", key, err)
		return false
	}
	if !ok {
		return false
	}

	return json.Unmarshal([]byte(raw), out) == nil
}
