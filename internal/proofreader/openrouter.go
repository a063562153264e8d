package proofreader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/valpere/texproof/internal/postprocess"
)

// DefaultOpenRouterModel is used when the configuration names no model.
const DefaultOpenRouterModel = "google/gemini-2.0-flash-exp:free"

type OpenRouterService struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewOpenRouterService(apiKey, baseURL string, timeout time.Duration) *OpenRouterService {
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &OpenRouterService{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *OpenRouterService) Name() string {
	return "openrouter"
}

func (s *OpenRouterService) Proofread(ctx context.Context, cfg ServiceConfig, req Request) (*Result, error) {
	result := &Result{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	apiKey := s.apiKey
	if apiKey == "" && cfg.APIKey != "" {
		apiKey = cfg.APIKey
	}
	if apiKey == "" {
		result.Error = "OpenRouter API key required"
		return result, &FatalError{Message: result.Error}
	}

	model := cfg.Model
	if model == "" {
		model = DefaultOpenRouterModel
	}
	result.Model = model

	instruction := req.Instruction
	if instruction == "" {
		instruction = DefaultInstruction
	}

	openrouterReq := map[string]interface{}{
		"model": model,
		"messages": []map[string]string{
			{"role": "system", "content": instruction},
			{"role": "user", "content": req.Text},
		},
		"temperature": cfg.Temperature,
	}
	if cfg.MaxTokens > 0 {
		openrouterReq["max_tokens"] = cfg.MaxTokens
	}

	jsonData, err := json.Marshal(openrouterReq)
	if err != nil {
		result.Error = fmt.Sprintf("failed to marshal request: %v", err)
		return result, &FatalError{Message: result.Error}
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/chat/completions", s.baseURL), bytes.NewBuffer(jsonData))
	if err != nil {
		result.Error = fmt.Sprintf("failed to create request: %v", err)
		return result, &FatalError{Message: result.Error}
	}

	referer := cfg.Referer
	if referer == "" {
		referer = "https://texproof.local"
	}
	title := cfg.Title
	if title == "" {
		title = "TexProof"
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", apiKey))
	httpReq.Header.Set("HTTP-Referer", referer)
	httpReq.Header.Set("X-Title", title)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		result.Error = fmt.Sprintf("request failed: %v", err)
		return result, &TransientError{Message: result.Error}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		result.Error = fmt.Sprintf("API returned status %d", resp.StatusCode)
		return result, classifyStatus(resp.StatusCode, strings.TrimSpace(string(snippet)), parseRetryAfter(resp.Header.Get("Retry-After")))
	}

	var openrouterResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&openrouterResp); err != nil {
		result.Error = fmt.Sprintf("failed to decode response: %v", err)
		return result, &TransientError{Message: result.Error}
	}

	if len(openrouterResp.Choices) == 0 {
		result.Error = "empty response from API"
		return result, &TransientError{Message: result.Error}
	}

	result.CorrectedText = postprocess.Clean(openrouterResp.Choices[0].Message.Content)
	result.PromptTokens = openrouterResp.Usage.PromptTokens
	result.CompletionTokens = openrouterResp.Usage.CompletionTokens

	return result, nil
}

func (s *OpenRouterService) IsAvailable(ctx context.Context) error {
	if s.apiKey == "" {
		return fmt.Errorf("OpenRouter API key not configured")
	}
	return nil
}
