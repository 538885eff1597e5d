package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aida/autonomy/internal/decision"
)

// HTTPOracle scores contexts through an OpenRouter-compatible
// chat-completions endpoint.
type HTTPOracle struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// HTTPConfig configures the oracle client.
type HTTPConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// NewHTTPOracle creates a chat-completions backed oracle. A zero timeout
// defaults to 30 seconds.
func NewHTTPOracle(cfg HTTPConfig) *HTTPOracle {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPOracle{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		client:  &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Qualify asks the model for a single qualification score in [0,1].
func (o *HTTPOracle) Qualify(ctx context.Context, dc *decision.Context) (float64, error) {
	const system = "You are an expert sales qualification AI. Analyze leads and " +
		"return only a qualification score between 0.0 and 1.0 as a single number."

	content, err := o.complete(ctx, system, contextPrompt(dc))
	if err != nil {
		return 0, err
	}

	score, err := extractScore(content)
	if err != nil {
		return 0, fmt.Errorf("parse oracle score: %w", err)
	}
	return score, nil
}

// AnalyzeIntent asks the model to classify the subject's intent.
func (o *HTTPOracle) AnalyzeIntent(ctx context.Context, dc *decision.Context) (IntentAnalysis, error) {
	const system = "You are an expert at analyzing customer intent. Return only valid JSON " +
		"with 'intent_score', 'primary_intent', 'urgency_level', and 'recommended_actions' fields."

	content, err := o.complete(ctx, system, contextPrompt(dc))
	if err != nil {
		return IntentAnalysis{}, err
	}

	var analysis IntentAnalysis
	if err := json.Unmarshal([]byte(extractJSON(content)), &analysis); err != nil {
		return IntentAnalysis{}, fmt.Errorf("parse intent response: %w", err)
	}
	return analysis, nil
}

func (o *HTTPOracle) complete(ctx context.Context, system, prompt string) (string, error) {
	payload := chatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.3,
		MaxTokens:   1000,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		o.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("oracle request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("oracle returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("oracle returned no choices")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// contextPrompt renders the context attributes deterministically so identical
// contexts produce identical prompts.
func contextPrompt(dc *decision.Context) string {
	keys := dc.Keys()
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("Evaluate this subject:\n")
	for _, k := range keys {
		v, _ := dc.Get(k)
		fmt.Fprintf(&b, "- %s: %v\n", k, v)
	}
	return b.String()
}

// extractScore pulls the first parseable float out of a model reply and
// clamps it to [0,1]. Sentence punctuation around a number ("0.85.") is
// stripped before parsing.
func extractScore(content string) (float64, error) {
	for _, field := range strings.FieldsFunc(content, func(r rune) bool {
		return r != '.' && r != '-' && (r < '0' || r > '9')
	}) {
		field = strings.TrimRight(field, ".-")
		if field == "" {
			continue
		}
		if v, err := strconv.ParseFloat(field, 64); err == nil {
			if v < 0 {
				v = 0
			}
			if v > 1 {
				v = 1
			}
			return v, nil
		}
	}
	return 0, fmt.Errorf("no numeric score in %q", content)
}

// extractJSON trims any prose around the first JSON object in a model reply.
func extractJSON(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		return content[start : end+1]
	}
	return content
}

var _ Oracle = (*HTTPOracle)(nil)
