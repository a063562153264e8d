package segment

import (
	"sort"
	"strings"
)

// Mask flags. Each byte of the source carries the set of regions it belongs
// to; the flags decide which passes may look at it.
const (
	maskComment byte = 1 << iota // % to end of line
	maskOpaque                   // verbatim-like environments, delimiters included
	maskMath                     // display math and math environments
	maskFloat                    // float bodies; captions inside are still read
)

// cmdMask hides a position from command and environment detection.
const cmdMask = maskComment | maskOpaque | maskMath

// paraMask hides a position from paragraph detection. Comments are absent on
// purpose: a trailing % note keeps its paragraph proofreadable.
const paraMask = maskOpaque | maskMath | maskFloat

// opaqueEnvironments hide their content from every pass. Text inside them is
// literal; a % or a \section in verbatim means nothing.
var opaqueEnvironments = map[string]bool{
	"verbatim":      true,
	"verbatim*":     true,
	"Verbatim":      true,
	"lstlisting":    true,
	"minted":        true,
	"comment":       true,
	"filecontents":  true,
	"filecontents*": true,
}

// mathEnvironments are excluded the same way display math is.
var mathEnvironments = map[string]bool{
	"math":        true,
	"displaymath": true,
	"equation":    true, "equation*": true,
	"align": true, "align*": true,
	"alignat": true, "alignat*": true,
	"gather": true, "gather*": true,
	"multline": true, "multline*": true,
	"flalign": true, "flalign*": true,
	"eqnarray": true, "eqnarray*": true,
	"split": true, "cases": true, "array": true,
}

// floatEnvironments exclude paragraph detection inside their bodies while
// caption arguments are still picked up.
var floatEnvironments = map[string]bool{
	"figure": true, "figure*": true,
	"table": true, "table*": true,
	"tabular": true, "tabular*": true,
	"wrapfigure": true, "wraptable": true,
	"sidewaysfigure": true, "sidewaystable": true,
	"algorithm": true, "algorithmic": true,
	"tikzpicture": true,
}

// buildMask walks the source once and marks comment tails and the bodies of
// opaque environments. The two interlock: a commented-out \begin{verbatim}
// opens nothing, and a % inside verbatim is literal text, so both are
// resolved in a single forward scan.
func buildMask(src string) []byte {
	mask := make([]byte, len(src))
	i := 0
	for i < len(src) {
		switch src[i] {
		case '\\':
			if name, after, ok := envToken(src, i, "\\begin"); ok && opaqueEnvironments[name] {
				end := len(src)
				closing := "\\end{" + name + "}"
				if j := strings.Index(src[after:], closing); j >= 0 {
					end = after + j + len(closing)
				}
				markRange(mask, i, end, maskOpaque)
				i = end
				continue
			}
			// Consume the escaped character so \% never opens a comment.
			i += 2
		case '%':
			end := len(src)
			if j := strings.IndexByte(src[i:], '\n'); j >= 0 {
				end = i + j
			}
			markRange(mask, i, end, maskComment)
			i = end
		default:
			i++
		}
	}
	return mask
}

// markDisplayMath marks $$...$$ and \[...\] regions. Inline $...$ math stays
// part of its surrounding paragraph; the proofreading instruction requires
// the service to keep it intact.
func markDisplayMath(src string, mask []byte) {
	i := 0
	for i < len(src) {
		if mask[i]&(maskComment|maskOpaque) != 0 {
			i++
			continue
		}
		switch src[i] {
		case '\\':
			if i+1 < len(src) && src[i+1] == '[' {
				end := findToken(src, mask, i+2, "\\]")
				markRange(mask, i, end, maskMath)
				i = end
				continue
			}
			i += 2
		case '$':
			if i+1 < len(src) && src[i+1] == '$' {
				end := findToken(src, mask, i+2, "$$")
				markRange(mask, i, end, maskMath)
				i = end
				continue
			}
			i++
		default:
			i++
		}
	}
}

// findToken returns the offset just past the next unmasked occurrence of
// token at or after start, or len(src) when it never occurs. Escape pairs
// are consumed so \$ and \\ cannot terminate a region early.
func findToken(src string, mask []byte, start int, token string) int {
	i := start
	for i < len(src) {
		if mask[i]&(maskComment|maskOpaque) != 0 {
			i++
			continue
		}
		if strings.HasPrefix(src[i:], token) {
			return i + len(token)
		}
		if src[i] == '\\' {
			i += 2
			continue
		}
		i++
	}
	return len(src)
}

// envRegion is one balanced \begin...\end pair.
type envRegion struct {
	name       string
	outerStart int // offset of the backslash in \begin
	bodyStart  int // offset just past \begin{name}
	bodyEnd    int // offset of the backslash in \end
	outerEnd   int // offset just past \end{name}
}

// scanEnvironments pairs \begin and \end tokens with a stack so same-name
// nesting resolves correctly. Stray \end tokens that match nothing on the
// stack are ignored. Comment and opaque content is already masked out.
func scanEnvironments(src string, mask []byte) []envRegion {
	type frame struct {
		name       string
		outerStart int
		bodyStart  int
	}
	var stack []frame
	var regions []envRegion

	i := 0
	for i < len(src) {
		if mask[i]&(maskComment|maskOpaque) != 0 || src[i] != '\\' {
			i++
			continue
		}
		if name, after, ok := envToken(src, i, "\\begin"); ok {
			stack = append(stack, frame{name: name, outerStart: i, bodyStart: after})
			i = after
			continue
		}
		if name, after, ok := envToken(src, i, "\\end"); ok {
			for n := len(stack) - 1; n >= 0; n-- {
				if stack[n].name != name {
					continue
				}
				regions = append(regions, envRegion{
					name:       name,
					outerStart: stack[n].outerStart,
					bodyStart:  stack[n].bodyStart,
					bodyEnd:    i,
					outerEnd:   after,
				})
				stack = stack[:n]
				break
			}
			i = after
			continue
		}
		i += 2
	}

	sort.Slice(regions, func(a, b int) bool { return regions[a].outerStart < regions[b].outerStart })
	return regions
}

// envToken matches kw + "{name}" at position i and returns the environment
// name and the offset just past the closing brace.
func envToken(src string, i int, kw string) (string, int, bool) {
	if !strings.HasPrefix(src[i:], kw) {
		return "", 0, false
	}
	j := i + len(kw)
	if j >= len(src) || src[j] != '{' {
		return "", 0, false
	}
	k := j + 1
	for k < len(src) && src[k] != '}' {
		c := src[k]
		if !(isLetter(c) || c >= '0' && c <= '9' || c == '*' || c == ' ') {
			return "", 0, false
		}
		k++
	}
	if k >= len(src) || k == j+1 {
		return "", 0, false
	}
	return src[j+1 : k], k + 1, true
}

func markRange(mask []byte, start, end int, flag byte) {
	if end > len(mask) {
		end = len(mask)
	}
	for i := start; i < end; i++ {
		mask[i] |= flag
	}
}

func rangeMasked(mask []byte, start, end int, flags byte) bool {
	for i := start; i < end; i++ {
		if mask[i]&flags != 0 {
			return true
		}
	}
	return false
}
