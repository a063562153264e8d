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
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valpere/texproof/internal/config"
	"github.com/valpere/texproof/internal/proofreader"
)

var version = "0.1.0"

var (
	cfgFile string
	verbose bool
	quiet   bool

	// cfg is resolved once per invocation in PersistentPreRunE and then
	// threaded explicitly through the pipeline.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "texproof",
	Short: "LLM-backed proofreader for LaTeX documents",
	Long: `texproof segments a LaTeX document into proofreadable units (section
titles, special environment bodies, captions, prose paragraphs), sends each
unit to an LLM completion service with a fixed proofreading instruction, and
reassembles the corrected document without touching any markup outside those
units. Optionally emits a latexdiff comparison of input and output.

Use "texproof proofread --help" for the pipeline options.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging()
		var err error
		cfg, err = config.Load(viper.New(), cfgFile)
		return err
	},
}

func setupLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	if quiet {
		level = slog.LevelWarn
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// Execute runs the CLI. Exit code 2 marks a fatal service error (bad key,
// malformed request), after which the partially corrected output has
// already been written; everything else exits 1.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error(err.Error())
		if proofreader.IsFatal(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ./texproof.yaml, then $HOME/.config/texproof/)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Log warnings and errors only")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
}
