// Package report renders a human-readable summary of a proofreading run:
// what was segmented, what changed, how hard each unit fought back. The
// report is Markdown; callers asking for an .html artifact get it rendered
// through gomarkdown.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/valpere/texproof/internal"
	"github.com/valpere/texproof/internal/orchestrator"
	"github.com/valpere/texproof/internal/segment"
)

// Build renders the Markdown report for a finished run.
func Build(run internal.Run, results []orchestrator.UnitResult) string {
	var b strings.Builder

	b.WriteString("# Proofreading report\n\n")
	fmt.Fprintf(&b, "- Input: `%s`\n", run.InputFile)
	fmt.Fprintf(&b, "- Output: `%s`\n", run.OutputFile)
	fmt.Fprintf(&b, "- Service: %s", run.Service)
	if run.Model != "" {
		fmt.Fprintf(&b, " (%s)", run.Model)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "- Status: %s\n", run.Status)
	fmt.Fprintf(&b, "- Started: %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
	if !run.FinishedAt.IsZero() {
		fmt.Fprintf(&b, "- Duration: %s\n", run.FinishedAt.Sub(run.StartedAt).Round(100*time.Millisecond))
	}
	b.WriteString("\n")

	summary := orchestrator.Summarize(results)
	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "%d units: %d corrected (%d changed), %d failed",
		len(results), summary.Succeeded, summary.Changed, summary.Failed)
	if summary.Pending > 0 {
		fmt.Fprintf(&b, ", %d not attempted", summary.Pending)
	}
	b.WriteString("\n\n")

	units := make([]segment.Unit, len(results))
	for i, r := range results {
		units[i] = r.Unit
	}
	counts := segment.CountKinds(units)
	for _, kind := range []segment.Kind{segment.SectionTitle, segment.EnvironmentBody, segment.Caption, segment.Paragraph} {
		if counts[kind] > 0 {
			fmt.Fprintf(&b, "- %s: %d\n", kind, counts[kind])
		}
	}
	b.WriteString("\n")

	b.WriteString("## Units\n\n")
	b.WriteString("| # | Kind | Span | State | Attempts | Distance |\n")
	b.WriteString("|---|------|------|-------|----------|----------|\n")
	for i, r := range results {
		distance := 0
		if r.Changed {
			distance = Levenshtein(r.Unit.Text, r.Text)
		}
		fmt.Fprintf(&b, "| %d | %s | %d–%d | %s | %d | %d |\n",
			i, r.Unit.Kind, r.Unit.Start, r.Unit.End, r.State, r.Attempts, distance)
	}
	b.WriteString("\n")

	var failures []string
	for i, r := range results {
		if r.State == orchestrator.Failed && r.Err != nil {
			failures = append(failures, fmt.Sprintf("- unit %d (%s at byte %d): %v", i, r.Unit.Kind, r.Unit.Start, r.Err))
		}
	}
	if len(failures) > 0 {
		b.WriteString("## Failures\n\n")
		b.WriteString(strings.Join(failures, "\n"))
		b.WriteString("\n")
	}

	return b.String()
}

// Levenshtein returns the rune-aware edit distance between a and b, used as
// the change-magnitude metric per unit. Space-optimized two-row DP.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1]
			} else {
				min := prev[j]
				if prev[j-1] < min {
					min = prev[j-1]
				}
				if curr[j-1] < min {
					min = curr[j-1]
				}
				curr[j] = min + 1
			}
		}
		prev, curr = curr, prev
	}

	return prev[lb]
}
