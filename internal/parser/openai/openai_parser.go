package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"agroprice/internal/config"
	"agroprice/internal/domain"
	"agroprice/internal/parser"
	"agroprice/internal/port"
)

const (
	apiURL          = "https://api.openai.com/v1/chat/completions"
	dashscopeAPIURL = "https://dashscope.aliyuncs.com/compatible-mode/v1/chat/completions"
)

func init() {
	parser.RegisterProvider("openai", func(cfg *config.VisionConfig) (port.PriceExtractor, error) {
		return NewParser(cfg), nil
	})
	parser.RegisterProvider("dashscope", func(cfg *config.VisionConfig) (port.PriceExtractor, error) {
		return NewDashScopeParser(cfg), nil
	})
}

// Parser implements port.PriceExtractor against an OpenAI-compatible Chat Completions API.
type Parser struct {
	name     string
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
	now      func() time.Time
}

// NewParser creates an OpenAI vision parser. cfg.Endpoint overrides the public API URL.
func NewParser(cfg *config.VisionConfig) *Parser {
	return newParser("openai", cfg, orDefault(cfg.Endpoint, apiURL), "gpt-4o")
}

// NewDashScopeParser creates a parser for DashScope's OpenAI-compatible mode.
func NewDashScopeParser(cfg *config.VisionConfig) *Parser {
	return newParser("dashscope", cfg, orDefault(cfg.Endpoint, dashscopeAPIURL), "qwen-vl-max")
}

// NewParserWithEndpoint creates a parser pointing at a custom API endpoint (for testing).
func NewParserWithEndpoint(cfg *config.VisionConfig, endpoint string) *Parser {
	return newParser("openai", cfg, endpoint, "gpt-4o")
}

func newParser(name string, cfg *config.VisionConfig, endpoint, defaultModel string) *Parser {
	return &Parser{
		name:     name,
		apiKey:   cfg.APIKey,
		model:    orDefault(cfg.Model, defaultModel),
		endpoint: endpoint,
		client:   &http.Client{Timeout: cfg.Timeout()},
		now:      time.Now,
	}
}

// WithClock overrides the clock used for the prompt's current date.
func (p *Parser) WithClock(now func() time.Time) *Parser {
	p.now = now
	return p
}

// Extract sends the image URL and prompt to the model and decodes the returned price rows.
func (p *Parser) Extract(ctx context.Context, imageURL string, referenceNames []string) ([]domain.ParsedPriceRecord, error) {
	prompt := parser.BuildPriceTablePrompt(referenceNames, p.now())

	reqBody := map[string]interface{}{
		"model": p.model,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": buildContentBlocks(imageURL, prompt),
			},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, parser.NetworkError(p.name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, parser.NetworkError(p.name, fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parser.HTTPStatusError(p.name, resp.StatusCode, respBody)
	}

	return p.parseResponse(respBody)
}

func buildContentBlocks(imageURL, prompt string) []map[string]interface{} {
	return []map[string]interface{}{
		{
			"type": "text",
			"text": prompt,
		},
		{
			"type": "image_url",
			"image_url": map[string]interface{}{
				"url": imageURL,
			},
		},
	}
}

// apiResponse models the Chat Completions API response.
type apiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func (p *Parser) parseResponse(body []byte) ([]domain.ParsedPriceRecord, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, parser.JSONDecodeError(string(body), fmt.Errorf("unmarshaling response envelope: %w", err))
	}

	if len(resp.Choices) == 0 {
		return nil, parser.EmptyContentError(p.name, "no choices")
	}

	text := resp.Choices[0].Message.Content
	if text == "" {
		return nil, parser.EmptyContentError(p.name, "finish_reason "+resp.Choices[0].FinishReason)
	}

	return parser.DecodePriceData(text)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
