package proofreader

import (
	"context"
	"time"
)

type ServiceConfig struct {
	APIKey      string        `mapstructure:"api_key" json:"api_key"`
	Model       string        `mapstructure:"model" json:"model"`
	BaseURL     string        `mapstructure:"base_url" json:"base_url"`
	Temperature float64       `mapstructure:"temperature" json:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens" json:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout" json:"timeout"`
	Referer     string        `mapstructure:"referer" json:"referer"`
	Title       string        `mapstructure:"title" json:"title"`
}

type Request struct {
	Text        string `json:"text"`
	Instruction string `json:"instruction"`
}

type Result struct {
	ServiceName      string        `json:"service_name"`
	Model            string        `json:"model"`
	CorrectedText    string        `json:"corrected_text"`
	PromptTokens     int           `json:"prompt_tokens"`
	CompletionTokens int           `json:"completion_tokens"`
	Latency          time.Duration `json:"latency"`
	Error            string        `json:"error,omitempty"`
}

type Service interface {
	Name() string
	Proofread(ctx context.Context, cfg ServiceConfig, req Request) (*Result, error)
	IsAvailable(ctx context.Context) error
}
