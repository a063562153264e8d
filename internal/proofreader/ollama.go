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

// DefaultOllamaModel is used when the configuration names no model.
const DefaultOllamaModel = "llama3.2"

type OllamaService struct {
	baseURL string
	client  *http.Client
}

func NewOllamaService(baseURL string, timeout time.Duration) *OllamaService {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &OllamaService{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *OllamaService) Name() string {
	return "ollama"
}

func (s *OllamaService) Proofread(ctx context.Context, cfg ServiceConfig, req Request) (*Result, error) {
	result := &Result{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	model := cfg.Model
	if model == "" {
		model = DefaultOllamaModel
	}
	result.Model = model

	instruction := req.Instruction
	if instruction == "" {
		instruction = DefaultInstruction
	}

	ollamaReq := map[string]interface{}{
		"model":  model,
		"prompt": req.Text,
		"system": instruction,
		"stream": false,
		"options": map[string]interface{}{
			"temperature": cfg.Temperature,
		},
	}

	jsonData, err := json.Marshal(ollamaReq)
	if err != nil {
		result.Error = fmt.Sprintf("failed to marshal request: %v", err)
		return result, &FatalError{Message: result.Error}
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/api/generate", s.baseURL), bytes.NewBuffer(jsonData))
	if err != nil {
		result.Error = fmt.Sprintf("failed to create request: %v", err)
		return result, &FatalError{Message: result.Error}
	}

	httpReq.Header.Set("Content-Type", "application/json")

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

	var ollamaResp struct {
		Response        string `json:"response"`
		PromptEvalCount int    `json:"prompt_eval_count"`
		EvalCount       int    `json:"eval_count"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		result.Error = fmt.Sprintf("failed to decode response: %v", err)
		return result, &TransientError{Message: result.Error}
	}

	result.CorrectedText = postprocess.Clean(ollamaResp.Response)
	result.PromptTokens = ollamaResp.PromptEvalCount
	result.CompletionTokens = ollamaResp.EvalCount

	return result, nil
}

func (s *OllamaService) IsAvailable(ctx context.Context) error {
	req, _ := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/api/tags", s.baseURL), nil)
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("Ollama not available: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Ollama returned status %d", resp.StatusCode)
	}
	return nil
}
