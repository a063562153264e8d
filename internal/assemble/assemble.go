// Package assemble splices per-unit proofreading results back into the
// source document. Everything outside unit spans is copied verbatim, so a
// run in which no text changed reproduces the input byte for byte.
package assemble

import (
	"fmt"
	"strings"

	"github.com/valpere/texproof/internal/orchestrator"
)

// Reassemble builds the output document from the source text and the
// ordered unit results. Each result's Text replaces its unit's span; the
// text between spans is copied untouched. Results must arrive in ascending
// start order with disjoint, in-bounds spans, exactly as the segmenter
// produced them; any violation is rejected rather than risking a corrupted
// document.
func Reassemble(source string, results []orchestrator.UnitResult) (string, error) {
	var b strings.Builder
	b.Grow(len(source) + len(source)/16)

	prev := 0
	for i, r := range results {
		u := r.Unit
		if u.Start >= u.End {
			return "", fmt.Errorf("unit %d has empty span [%d,%d)", i, u.Start, u.End)
		}
		if u.Start < prev {
			return "", fmt.Errorf("unit %d span [%d,%d) overlaps or precedes offset %d", i, u.Start, u.End, prev)
		}
		if u.End > len(source) {
			return "", fmt.Errorf("unit %d span [%d,%d) exceeds document length %d", i, u.Start, u.End, len(source))
		}
		b.WriteString(source[prev:u.Start])
		b.WriteString(r.Text)
		prev = u.End
	}
	b.WriteString(source[prev:])

	return b.String(), nil
}
