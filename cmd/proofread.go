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
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/valpere/texproof/internal"
	"github.com/valpere/texproof/internal/assemble"
	"github.com/valpere/texproof/internal/detector"
	"github.com/valpere/texproof/internal/document"
	"github.com/valpere/texproof/internal/latexdiff"
	"github.com/valpere/texproof/internal/orchestrator"
	"github.com/valpere/texproof/internal/proofreader"
	"github.com/valpere/texproof/internal/report"
	"github.com/valpere/texproof/internal/segment"
	"github.com/valpere/texproof/internal/store"
)

var (
	inputFile  string
	outputFile string
	reportFile string

	flagService     string
	flagModel       string
	flagAPIKey      string
	flagBaseURL     string
	flagTemperature float64
	flagMaxRetries  int
	flagTimeout     time.Duration
	flagPromptFile  string
	flagDiffMode    string
	flagJournalPath string
	noDiff          bool
	noJournal       bool
)

var proofreadCmd = &cobra.Command{
	Use:   "proofread",
	Short: "Proofread a LaTeX document",
	Long: `Proofread a LaTeX document unit by unit.

The document is segmented into section titles, special environment bodies
(abstract, highlights, keywords), captions, and prose paragraphs. Each unit
is sent to the configured completion service with a fixed proofreading
instruction and validated before its correction is accepted. The corrected
document is written next to the input as <base>_corrected.tex, followed by a
latexdiff comparison as <base>_diff.tex when latexdiff is installed.

Units that keep failing are left unchanged and reported; only an
unrecoverable service error (bad API key, unknown model) stops the run, and
even then the best-available document is written first.`,
	RunE: runProofread,
}

func runProofread(cmd *cobra.Command, args []string) error {
	applyProofreadFlags(cmd)
	if err := cfg.Validate(); err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	doc, err := document.Read(inputFile)
	if err != nil {
		return err
	}
	correctedPath, diffPath := document.OutputPaths(doc.Path)
	if outputFile != "" {
		correctedPath = outputFile
	}

	instruction, err := proofreader.LoadInstruction(cfg.PromptFile)
	if err != nil {
		return err
	}

	units, segErrs := segment.Split(doc.Text)
	for _, e := range segErrs {
		slog.Warn("segmentation issue, unit skipped", "err", e)
	}
	slog.Info("document segmented", "file", doc.Path, "bytes", doc.Size, "units", len(units))
	if len(units) == 0 {
		slog.Warn("no proofreadable units found; writing the document unchanged")
	}

	warnIfNotEnglish(units)

	svc, err := buildService(cfg)
	if err != nil {
		return err
	}

	journal := openJournal()
	if journal != nil {
		defer journal.Close()
	}

	run := internal.Run{
		ID:         uuid.New().String(),
		InputFile:  doc.Path,
		OutputFile: correctedPath,
		Service:    svc.Name(),
		Model:      cfg.Model,
		Status:     internal.RunStatusRunning,
		UnitCount:  len(units),
		StartedAt:  time.Now(),
	}
	if journal != nil {
		if err := journal.CreateRun(ctx, run); err != nil {
			slog.Warn("failed to journal the run", "err", err)
		}
	}

	orch := orchestrator.New(svc, orchestrator.Config{
		MaxAttempts: cfg.MaxRetries + 1,
		RetryDelay:  cfg.RetryDelay,
		Timeout:     cfg.Timeout,
		Instruction: instruction,
	})
	results, runErr := orch.Run(ctx, serviceConfig(cfg), units)

	output, err := assemble.Reassemble(doc.Text, results)
	if err != nil {
		return fmt.Errorf("reassembly failed: %w", err)
	}
	if err := document.Write(correctedPath, output); err != nil {
		return err
	}

	summary := orchestrator.Summarize(results)
	run.CorrectedCount = summary.Succeeded
	run.FailedCount = summary.Failed
	run.Status = internal.RunStatusCompleted
	run.FinishedAt = time.Now()
	if runErr != nil {
		run.Status = internal.RunStatusFailed
	}
	finishJournal(ctx, journal, run, results)

	if reportFile != "" {
		writeReport(run, results)
	}

	fmt.Printf("Proofread %d units: %d corrected (%d changed), %d failed\n",
		len(results), summary.Succeeded, summary.Changed, summary.Failed)
	fmt.Printf("Corrected document: %s\n", correctedPath)

	if runErr != nil {
		return fmt.Errorf("run halted early, output contains the original text for remaining units: %w", runErr)
	}

	if cfg.Diff.Enabled && !noDiff {
		emitDiff(ctx, doc.Path, correctedPath, diffPath)
	}
	return nil
}

// applyProofreadFlags copies explicitly set flags over the loaded
// configuration, giving flags the highest precedence.
func applyProofreadFlags(cmd *cobra.Command) {
	set := map[string]func(){
		"service":      func() { cfg.Service = flagService },
		"model":        func() { cfg.Model = flagModel },
		"api-key":      func() { cfg.APIKey = flagAPIKey },
		"base-url":     func() { cfg.BaseURL = flagBaseURL },
		"temperature":  func() { cfg.Temperature = flagTemperature },
		"max-retries":  func() { cfg.MaxRetries = flagMaxRetries },
		"timeout":      func() { cfg.Timeout = flagTimeout },
		"prompt-file":  func() { cfg.PromptFile = flagPromptFile },
		"diff-mode":    func() { cfg.Diff.Mode = flagDiffMode },
		"journal-path": func() { cfg.Journal.Path = flagJournalPath },
	}
	for name, apply := range set {
		if cmd.Flags().Changed(name) {
			apply()
		}
	}
}

// warnIfNotEnglish samples paragraph prose and warns when it does not read
// as English; the fixed instruction applies British English conventions.
func warnIfNotEnglish(units []segment.Unit) {
	var sample strings.Builder
	for _, u := range units {
		if u.Kind != segment.Paragraph {
			continue
		}
		sample.WriteString(u.Text)
		sample.WriteString(" ")
		if sample.Len() > 600 {
			break
		}
	}
	if sample.Len() == 0 {
		return
	}
	if !detector.New().IsEnglish(sample.String()) {
		slog.Warn("document prose does not read as English; the proofreading instruction assumes English text")
	}
}

func openJournal() *store.Store {
	if !cfg.Journal.Enabled || noJournal {
		return nil
	}
	journal, err := store.Open(cfg.Journal.Path)
	if err != nil {
		slog.Warn("run journal unavailable, continuing without it", "path", cfg.Journal.Path, "err", err)
		return nil
	}
	return journal
}

func finishJournal(ctx context.Context, journal *store.Store, run internal.Run, results []orchestrator.UnitResult) {
	if journal == nil {
		return
	}
	for i, r := range results {
		rec := internal.UnitRecord{
			Index:    i,
			Kind:     r.Unit.Kind.String(),
			Start:    r.Unit.Start,
			End:      r.Unit.End,
			State:    r.State.String(),
			Attempts: r.Attempts,
			Changed:  r.Changed,
			Preview:  r.Unit.Text,
		}
		if r.Changed {
			rec.Distance = report.Levenshtein(r.Unit.Text, r.Text)
		}
		if r.Err != nil {
			rec.Error = r.Err.Error()
		}
		if err := journal.SaveUnitResult(ctx, run.ID, rec); err != nil {
			slog.Warn("failed to journal a unit result", "unit", i, "err", err)
		}
	}
	if err := journal.FinishRun(ctx, run.ID, run.Status, run.CorrectedCount, run.FailedCount); err != nil {
		slog.Warn("failed to close the journaled run", "err", err)
	}
}

func writeReport(run internal.Run, results []orchestrator.UnitResult) {
	md := report.Build(run, results)
	content := md
	if strings.HasSuffix(reportFile, ".html") {
		content = string(report.RenderHTML([]byte(md)))
	}
	if err := document.Write(reportFile, content); err != nil {
		slog.Warn("failed to write the report", "path", reportFile, "err", err)
		return
	}
	fmt.Printf("Report: %s\n", reportFile)
}

// emitDiff runs latexdiff when it is installed. Its absence degrades to a
// warning; the corrected document has already been written.
func emitDiff(ctx context.Context, originalPath, correctedPath, diffPath string) {
	runner := latexdiff.New()
	if _, err := runner.Available(ctx); err != nil {
		slog.Warn("latexdiff unavailable, skipping the diff document", "err", err)
		return
	}
	if err := runner.Run(ctx, originalPath, correctedPath, diffPath, cfg.Diff.Mode); err != nil {
		slog.Warn("latexdiff failed, skipping the diff document", "err", err)
		return
	}
	fmt.Printf("Diff document: %s\n", diffPath)
}

func init() {
	rootCmd.AddCommand(proofreadCmd)

	proofreadCmd.Flags().StringVarP(&inputFile, "input", "i", "", "LaTeX document to proofread (required)")
	proofreadCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Corrected output path (default <base>_corrected.tex)")
	proofreadCmd.Flags().StringVar(&reportFile, "report", "", "Write a run report to this path (.md or .html)")

	proofreadCmd.Flags().StringVar(&flagService, "service", "", "Proofreading service: openrouter or ollama")
	proofreadCmd.Flags().StringVar(&flagModel, "model", "", "Model identifier")
	proofreadCmd.Flags().StringVar(&flagAPIKey, "api-key", "", "API key for the service")
	proofreadCmd.Flags().StringVar(&flagBaseURL, "base-url", "", "Service base URL")
	proofreadCmd.Flags().Float64Var(&flagTemperature, "temperature", 0.1, "Sampling temperature")
	proofreadCmd.Flags().IntVar(&flagMaxRetries, "max-retries", 3, "Retries per unit after the first attempt")
	proofreadCmd.Flags().DurationVar(&flagTimeout, "timeout", 120*time.Second, "Per-request timeout")
	proofreadCmd.Flags().StringVar(&flagPromptFile, "prompt-file", "", "File overriding the built-in proofreading instruction")

	proofreadCmd.Flags().BoolVar(&noDiff, "no-diff", false, "Skip the latexdiff document")
	proofreadCmd.Flags().StringVar(&flagDiffMode, "diff-mode", latexdiff.DefaultMode, "latexdiff markup type")
	proofreadCmd.Flags().BoolVar(&noJournal, "no-journal", false, "Skip the run journal")
	proofreadCmd.Flags().StringVar(&flagJournalPath, "journal-path", "", "Run journal database path")

	proofreadCmd.MarkFlagRequired("input")
}
