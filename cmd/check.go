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
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/valpere/texproof/internal/latexdiff"
	"github.com/valpere/texproof/internal/proofreader"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the configuration and external tools",
	Long: `Check that a proofreading run would have everything it needs: a
valid configuration, a reachable completion service (probed with a tiny
one-word request), and the optional latexdiff binary.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		fmt.Printf("Service:     %s\n", cfg.Service)
		if cfg.Model != "" {
			fmt.Printf("Model:       %s\n", cfg.Model)
		}
		if cfg.BaseURL != "" {
			fmt.Printf("Base URL:    %s\n", cfg.BaseURL)
		}
		fmt.Printf("Timeout:     %s\n", cfg.Timeout)
		fmt.Printf("Max retries: %d\n", cfg.MaxRetries)

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("configuration invalid: %w", err)
		}

		svc, err := buildService(cfg)
		if err != nil {
			return err
		}
		if err := svc.IsAvailable(ctx); err != nil {
			return fmt.Errorf("service check failed: %w", err)
		}

		// A tiny real completion validates the key and the model, not just
		// the endpoint.
		probeCfg := serviceConfig(cfg)
		probeCfg.MaxTokens = 5
		res, err := svc.Proofread(ctx, probeCfg, proofreader.Request{
			Text:        "Hello",
			Instruction: "Reply with the single word OK.",
		})
		if err != nil {
			return fmt.Errorf("service probe failed: %w", err)
		}
		fmt.Printf("Service OK:  %s responded in %s\n", res.Model, res.Latency.Round(time.Millisecond))

		if version, err := latexdiff.New().Available(ctx); err != nil {
			fmt.Printf("latexdiff:   not available (%v); diff documents will be skipped\n", err)
		} else {
			fmt.Printf("latexdiff:   %s\n", version)
		}

		if cfg.Journal.Enabled {
			fmt.Printf("Journal:     %s\n", cfg.Journal.Path)
		} else {
			fmt.Println("Journal:     disabled")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
