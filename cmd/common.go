/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/valpere/texproof/internal/config"
	"github.com/valpere/texproof/internal/proofreader"
)

// buildService constructs the proofreading backend named by the
// configuration. Each service fills in its own default endpoint when
// base_url is empty.
func buildService(c *config.Config) (proofreader.Service, error) {
	switch c.Service {
	case "openrouter":
		return proofreader.NewOpenRouterService(c.APIKey, c.BaseURL, c.Timeout), nil
	case "ollama":
		return proofreader.NewOllamaService(c.BaseURL, c.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown service: %s (want openrouter or ollama)", c.Service)
	}
}

// serviceConfig maps the resolved configuration onto the per-call service
// parameters.
func serviceConfig(c *config.Config) proofreader.ServiceConfig {
	return proofreader.ServiceConfig{
		APIKey:      c.APIKey,
		Model:       c.Model,
		BaseURL:     c.BaseURL,
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
		Timeout:     c.Timeout,
		Referer:     c.Referer,
		Title:       c.Title,
	}
}

// truncate collapses s to a single line and shortens it for terminal output.
func truncate(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
