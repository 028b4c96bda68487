package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"errand-route-service/internal/domain"
	"errand-route-service/internal/platform/obs"
	"errand-route-service/internal/ports"
)

// GeminiReranker implements the re-ranker port against the Gemini
// generateContent API. It asks the model to pick the candidate that best
// matches the user's query and validates the verdict before returning it.
// Any API or parse failure means "no re-rank" (nil result), never an error
// the cascade has to handle.
type GeminiReranker struct {
	session *http.Client
	baseURL string
	apiKey  string
	model   string
}

func NewGeminiReranker(apiKey, model string, timeout time.Duration) *GeminiReranker {
	return &GeminiReranker{
		session: &http.Client{Timeout: timeout},
		baseURL: "https://generativelanguage.googleapis.com/v1beta",
		apiKey:  apiKey,
		model:   model,
	}
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type rerankVerdict struct {
	BestIndex  *int   `json:"best_index"`
	Confidence string `json:"confidence"`
	Reasoning  string `json:"reasoning"`
}

// Rerank asks the model which candidate best matches the query.
func (g *GeminiReranker) Rerank(
	ctx context.Context,
	query, locationContext string,
	candidates []domain.ScoredCandidate,
) (_ *ports.RerankResult, err error) {
	defer obs.Time(ctx, "gemini.Rerank")(&err)

	if len(candidates) == 0 {
		return nil, nil
	}

	prompt := buildPrompt(query, locationContext, candidates)

	body, _ := json.Marshal(map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": prompt}}},
		},
	})

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("rerank: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.session.Do(req)
	if err != nil {
		log.Printf("gemini: request failed query=%q err=%v", query, err)
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("gemini: unexpected status query=%q status=%d", query, resp.StatusCode)
		return nil, nil
	}

	var decoded geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		log.Printf("gemini: decode failed query=%q err=%v", query, err)
		return nil, nil
	}

	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		log.Printf("gemini: empty response query=%q", query)
		return nil, nil
	}

	result := ParseVerdict(decoded.Candidates[0].Content.Parts[0].Text, len(candidates))
	if result == nil {
		log.Printf("gemini: unusable verdict query=%q", query)
	}

	return result, nil
}

func buildPrompt(query, locationContext string, candidates []domain.ScoredCandidate) string {
	var b strings.Builder

	fmt.Fprintf(&b, "A user searched for %q", query)
	if locationContext != "" {
		fmt.Fprintf(&b, " near %s", locationContext)
	}
	b.WriteString(".\nWhich of these places is the best match?\n\n")

	for i, c := range candidates {
		addr := c.Place.Address
		if len(addr) > 80 {
			addr = addr[:80]
		}
		fmt.Fprintf(&b, "%d. %s | %s | type=%s | %.1f mi away\n",
			i, c.Place.Name, addr, c.Place.PlaceType, c.DistanceMiles)
	}

	b.WriteString(`
Respond with ONLY a JSON object, no prose:
{"best_index": <number or null if none match>, "confidence": "high"|"medium"|"low", "reasoning": "<one short sentence>"}
`)

	return b.String()
}

// ParseVerdict parses the model's JSON verdict, tolerating markdown code
// fences. An out-of-range index or an unknown confidence level invalidates
// the whole verdict.
func ParseVerdict(text string, candidateCount int) *ports.RerankResult {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var v rerankVerdict
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil
	}

	switch v.Confidence {
	case ports.ConfidenceHigh, ports.ConfidenceMedium, ports.ConfidenceLow:
	default:
		return nil
	}

	if v.BestIndex != nil && (*v.BestIndex < 0 || *v.BestIndex >= candidateCount) {
		return nil
	}

	return &ports.RerankResult{
		BestIndex:  v.BestIndex,
		Confidence: v.Confidence,
		Reasoning:  v.Reasoning,
	}
}
