// Package rerank implements the Rerank client, an OpenAI-compatible
// /rerank HTTP endpoint wrapper, adapted from the teacher's remote_api.go.
package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/kbvault/kbvault/internal/logger"
	"github.com/kbvault/kbvault/internal/types/interfaces"
)

// Config describes one configured rerank model.
type Config struct {
	BaseURL   string
	APIKey    string
	ModelName string
	ModelID   string
}

// OpenAIReranker calls an OpenAI-compatible /rerank endpoint.
type OpenAIReranker struct {
	client    *http.Client
	baseURL   string
	apiKey    string
	modelName string
	modelID   string
}

func NewOpenAIReranker(cfg Config) (*OpenAIReranker, error) {
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("rerank model name is required")
	}
	baseURL := "https://api.openai.com/v1"
	if cfg.BaseURL != "" {
		baseURL = cfg.BaseURL
	}
	return &OpenAIReranker{
		client:    &http.Client{},
		baseURL:   baseURL,
		apiKey:    cfg.APIKey,
		modelName: cfg.ModelName,
		modelID:   cfg.ModelID,
	}, nil
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
}

type rerankResponse struct {
	Results []rankResult `json:"results"`
}

type rankResult struct {
	Index          int      `json:"index"`
	RelevanceScore *float64 `json:"relevance_score"`
	Score          *float64 `json:"score"`
}

func (r rankResult) score() float64 {
	if r.RelevanceScore != nil {
		return *r.RelevanceScore
	}
	if r.Score != nil {
		return *r.Score
	}
	return 0
}

func (r *OpenAIReranker) Rerank(ctx context.Context, query string, documents []string) ([]interfaces.RankResult, error) {
	body, err := json.Marshal(rerankRequest{Model: r.modelName, Query: query, Documents: documents})
	if err != nil {
		return nil, fmt.Errorf("marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do rerank request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read rerank response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		logger.Warnf(ctx, "[rerank] upstream status %s: %s", resp.Status, string(respBody))
		return nil, fmt.Errorf("rerank API error: http status %s", resp.Status)
	}

	var parsed rerankResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal rerank response: %w", err)
	}

	out := make([]interfaces.RankResult, len(parsed.Results))
	for i, res := range parsed.Results {
		out[i] = interfaces.RankResult{Index: float64(res.Index), Score: res.score()}
	}
	return out, nil
}

func (r *OpenAIReranker) ModelID() string { return r.modelID }

var _ interfaces.Reranker = (*OpenAIReranker)(nil)
