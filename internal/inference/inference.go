// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package inference is the optional remote language-model adapter. The
// engine runs deterministically without it; a successful call only
// improves the wording of the audit narrative. The enable flag is a hard
// kill-switch, and every failure class (timeout, non-success status,
// malformed output) degrades to a nil result instead of an error, so the
// deterministic path is never blocked or corrupted.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"text/template"

	"github.com/pdiddy/decision-engine/internal/httputil"
	"github.com/pdiddy/decision-engine/pkg/types"
)

// defaultAPIURL is the Claude API endpoint. Overridden by
// InferenceConfig.BaseURL (tests point it at a local server).
const defaultAPIURL = "https://api.anthropic.com/v1/messages"

// narrativePromptTmpl asks the model to rewrite the deterministic audit
// narrative for an executive reader, constrained to a one-field JSON
// object so the response stays machine-checkable.
var narrativePromptTmpl = template.Must(template.New("narrative").Parse(`You are an operations decision summarizer. Rewrite the following decision audit summary as one short paragraph for an executive reader. Preserve every number (score, confidence interval) and the final action verbatim. Do not speculate beyond the given facts.

Respond with a JSON object of the form {"narrative": "..."} and no other text.

Audit summary:
{{.Narrative}}

Final action: {{.Action}}
Identified issues:
{{range .Issues}}- {{.}}
{{end}}`))

// Client calls the remote model. Stateless aside from configuration;
// safe for concurrent use.
type Client struct {
	cfg    types.InferenceConfig
	client *http.Client
	log    *slog.Logger
}

// New returns a Client. When the enable flag is set without a credential
// the client logs a warning and stays disabled.
func New(cfg types.InferenceConfig, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Enabled && cfg.APIKey == "" {
		log.Warn("inference enabled but no API key found, disabling")
		cfg.Enabled = false
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultAPIURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = types.DefaultEngineConfig().Inference.Timeout
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log,
	}
}

// Enabled reports whether remote calls will be attempted.
func (c *Client) Enabled() bool { return c.cfg.Enabled }

// NarrativeInput carries the deterministic artifacts offered to the model.
type NarrativeInput struct {
	Narrative string
	Action    string
	Issues    []string
}

// narrativeResult is the structured response expected from the model.
type narrativeResult struct {
	Narrative string `json:"narrative"`
}

// EnhanceNarrative asks the model for a polished narrative. It returns
// the empty string whenever inference is disabled or the call fails in
// any way; callers keep the deterministic narrative in that case.
func (c *Client) EnhanceNarrative(ctx context.Context, in NarrativeInput) string {
	if !c.cfg.Enabled {
		return ""
	}

	var prompt bytes.Buffer
	if err := narrativePromptTmpl.Execute(&prompt, in); err != nil {
		c.log.Error("inference prompt render failed", "err", err)
		return ""
	}

	reqBody := apiRequest{
		Model:     c.cfg.Model,
		MaxTokens: 1024,
		Messages:  []apiMessage{{Role: "user", Content: prompt.String()}},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		c.log.Error("inference request marshal failed", "err", err)
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(bodyBytes))
	if err != nil {
		c.log.Error("inference request build failed", "err", err)
		return ""
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := httputil.DoWithRetry(ctx, c.client, req, 0)
	if err != nil {
		c.log.Warn("inference call failed", "err", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.log.Warn("inference API error", "status", resp.StatusCode, "body", string(body))
		return ""
	}

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		c.log.Warn("inference response decode failed", "err", err)
		return ""
	}

	for _, block := range apiResp.Content {
		if block.Type != "text" {
			continue
		}
		var result narrativeResult
		if err := json.Unmarshal([]byte(block.Text), &result); err != nil {
			c.log.Warn("inference output malformed", "err", err)
			return ""
		}
		return result.Narrative
	}

	c.log.Warn("inference response had no text content")
	return ""
}

// apiRequest is the request body for the Claude Messages API.
type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	Messages  []apiMessage `json:"messages"`
}

// apiMessage is a single message in the API conversation.
type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// apiResponse is the response body from the Claude Messages API.
type apiResponse struct {
	Content []apiContent `json:"content"`
}

// apiContent is a content block in the API response.
type apiContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}
