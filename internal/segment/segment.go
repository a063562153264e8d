// Package segment splits a LaTeX document into proofreadable text units:
// section titles, the bodies of special environments, caption arguments,
// and prose paragraphs. Every unit records the exact byte span it occupies
// in the source so corrections can be spliced back without disturbing the
// surrounding markup.
package segment

import (
	"fmt"
	"sort"
	"strings"
)

// Kind classifies a text unit.
type Kind int

const (
	SectionTitle Kind = iota
	EnvironmentBody
	Caption
	Paragraph
)

func (k Kind) String() string {
	switch k {
	case SectionTitle:
		return "section-title"
	case EnvironmentBody:
		return "environment-body"
	case Caption:
		return "caption"
	case Paragraph:
		return "paragraph"
	default:
		return "unknown"
	}
}

// Unit is one proofreadable piece of the document. Text always equals the
// source slice [Start:End); Start and End are byte offsets.
type Unit struct {
	Kind  Kind
	Name  string // command or environment name, empty for paragraphs
	Text  string
	Start int
	End   int
}

// Error reports a structural problem found while segmenting, such as a
// brace group that never closes. It carries the byte offset of the problem
// so the user can locate it in the source. Segmentation continues past it.
type Error struct {
	Offset  int
	Command string
	Message string
}

func (e *Error) Error() string {
	if e.Command != "" {
		return fmt.Sprintf("segmentation: %s at byte %d: %s", e.Command, e.Offset, e.Message)
	}
	return fmt.Sprintf("segmentation: byte %d: %s", e.Offset, e.Message)
}

// sectionCommands are the sectioning macros whose mandatory brace argument
// becomes a SectionTitle unit.
var sectionCommands = map[string]bool{
	"chapter":       true,
	"section":       true,
	"subsection":    true,
	"subsubsection": true,
	"paragraph":     true,
	"subparagraph":  true,
}

// specialEnvironments are proofread as a single EnvironmentBody unit each.
var specialEnvironments = map[string]bool{
	"abstract":   true,
	"highlights": true,
	"keywords":   true,
}

// Split segments a LaTeX document. Units come back ordered by start offset
// and never overlap; when passes disagree, the more specific unit wins
// (environment body, then section title, then caption, then paragraph).
// Structural errors are collected and returned alongside the units; they
// never stop the scan.
func Split(src string) ([]Unit, []*Error) {
	if strings.TrimSpace(src) == "" {
		return nil, nil
	}

	mask := buildMask(src)
	markDisplayMath(src, mask)

	regions := scanEnvironments(src, mask)
	for _, r := range regions {
		switch {
		case mathEnvironments[r.name]:
			markRange(mask, r.outerStart, r.outerEnd, maskMath)
		case floatEnvironments[r.name]:
			markRange(mask, r.outerStart, r.outerEnd, maskFloat)
		}
	}

	var kept []Unit
	for _, r := range regions {
		if !specialEnvironments[r.name] {
			continue
		}
		if mask[r.outerStart]&(maskComment|maskOpaque) != 0 {
			continue
		}
		s, e := trimmedExtent(src, r.bodyStart, r.bodyEnd)
		if s >= e {
			continue
		}
		kept = insert(kept, Unit{Kind: EnvironmentBody, Name: r.name, Text: src[s:e], Start: s, End: e})
	}

	sections, captions, errs := scanCommands(src, mask)
	for _, u := range sections {
		kept = insert(kept, u)
	}
	for _, u := range captions {
		kept = insert(kept, u)
	}
	for _, u := range paragraphUnits(src, mask) {
		kept = insert(kept, u)
	}

	return kept, errs
}

// insert adds u to the start-ordered slice unless it overlaps a unit that is
// already kept. Callers insert in priority order, so on overlap the earlier,
// more specific unit survives.
func insert(kept []Unit, u Unit) []Unit {
	i := sort.Search(len(kept), func(j int) bool { return kept[j].Start >= u.Start })
	if i > 0 && kept[i-1].End > u.Start {
		return kept
	}
	if i < len(kept) && kept[i].Start < u.End {
		return kept
	}
	kept = append(kept, Unit{})
	copy(kept[i+1:], kept[i:])
	kept[i] = u
	return kept
}

// scanCommands extracts section titles and captions. Arguments are read with
// a depth counter so nested braces survive; an argument that never closes is
// reported as an Error and the scan moves on.
func scanCommands(src string, mask []byte) (sections, captions []Unit, errs []*Error) {
	i := 0
	for i < len(src) {
		if mask[i]&cmdMask != 0 || src[i] != '\\' {
			i++
			continue
		}
		name, after := macroName(src, i)
		if name == "" {
			// Escaped symbol such as \{ or \%; consume the pair.
			i += 2
			continue
		}
		isSection := sectionCommands[name]
		if !isSection && name != "caption" {
			i = after
			continue
		}

		j := after
		if j < len(src) && src[j] == '*' {
			j++
		}
		j = skipInlineSpace(src, j)
		if j < len(src) && src[j] == '[' {
			k, err := skipOptionArg(src, j)
			if err != nil {
				err.Command = "\\" + name
				errs = append(errs, err)
				i = after
				continue
			}
			j = skipInlineSpace(src, k)
		}
		if j >= len(src) || src[j] != '{' {
			i = after
			continue
		}

		inner, end, err := braceArg(src, j)
		if err != nil {
			err.Command = "\\" + name
			errs = append(errs, err)
			i = after
			continue
		}

		if strings.TrimSpace(src[inner:end]) != "" {
			u := Unit{Name: name, Text: src[inner:end], Start: inner, End: end}
			if isSection {
				u.Kind = SectionTitle
				sections = append(sections, u)
			} else {
				u.Kind = Caption
				captions = append(captions, u)
			}
		}
		i = end + 1
	}
	return sections, captions, errs
}

// paragraphUnits returns candidate Paragraph units: maximal runs of
// non-blank lines, tightened to their non-space extent. A block is skipped
// when it opens with a macro or a comment, or when it touches a region the
// mask excludes from prose (verbatim, display math, float bodies). Overlap
// with units from earlier passes is resolved by the caller.
func paragraphUnits(src string, mask []byte) []Unit {
	var units []Unit
	blockStart, contentEnd := -1, 0
	lineStart := 0

	flush := func() {
		if blockStart < 0 {
			return
		}
		s, e := trimmedExtent(src, blockStart, contentEnd)
		blockStart = -1
		if s >= e {
			return
		}
		if src[s] == '\\' || src[s] == '%' {
			return
		}
		if rangeMasked(mask, s, e, paraMask) {
			return
		}
		units = append(units, Unit{Kind: Paragraph, Text: src[s:e], Start: s, End: e})
	}

	for i := 0; i <= len(src); i++ {
		if i < len(src) && src[i] != '\n' {
			continue
		}
		if strings.TrimSpace(src[lineStart:min(i, len(src))]) != "" {
			if blockStart < 0 {
				blockStart = lineStart
			}
			contentEnd = min(i, len(src))
		} else {
			flush()
		}
		lineStart = i + 1
	}
	flush()
	return units
}

// macroName reads the letters after a backslash. It returns "" when the next
// character is not a letter, which covers escaped symbols like \{ and \\.
func macroName(src string, i int) (string, int) {
	j := i + 1
	for j < len(src) && isLetter(src[j]) {
		j++
	}
	if j == i+1 {
		return "", j
	}
	return src[i+1 : j], j
}

// braceArg returns the inner extent of the brace group opening at open.
// Escaped braces do not count toward depth and comment tails are skipped.
func braceArg(src string, open int) (inner, end int, err *Error) {
	depth := 0
	i := open
	for i < len(src) {
		switch src[i] {
		case '\\':
			i += 2
			continue
		case '%':
			for i < len(src) && src[i] != '\n' {
				i++
			}
			continue
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return open + 1, i, nil
			}
		}
		i++
	}
	return 0, 0, &Error{Offset: open, Message: "brace group never closes"}
}

// skipOptionArg advances past a [...] group. A ] inside a nested brace group
// does not close the option.
func skipOptionArg(src string, open int) (int, *Error) {
	depth := 0
	i := open + 1
	for i < len(src) {
		switch src[i] {
		case '\\':
			i += 2
			continue
		case '%':
			for i < len(src) && src[i] != '\n' {
				i++
			}
			continue
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case ']':
			if depth == 0 {
				return i + 1, nil
			}
		}
		i++
	}
	return 0, &Error{Offset: open, Message: "optional argument never closes"}
}

func skipInlineSpace(src string, i int) int {
	for i < len(src) && (src[i] == ' ' || src[i] == '\t') {
		i++
	}
	return i
}

// trimmedExtent shrinks [start, end) to exclude leading and trailing
// whitespace so that surrounding blanks are reproduced verbatim on splice.
func trimmedExtent(src string, start, end int) (int, int) {
	for start < end && isSpaceByte(src[start]) {
		start++
	}
	for end > start && isSpaceByte(src[end-1]) {
		end--
	}
	return start, end
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// SectionAt returns the title of the nearest section heading at or before
// offset, or "" when the offset precedes every heading. It is used to label
// progress output. units must be ordered by start offset, as Split returns
// them.
func SectionAt(units []Unit, offset int) string {
	title := ""
	for _, u := range units {
		if u.Start > offset {
			break
		}
		if u.Kind == SectionTitle {
			title = strings.TrimSpace(u.Text)
		}
	}
	return title
}

// CountKinds tallies units per kind.
func CountKinds(units []Unit) map[Kind]int {
	counts := make(map[Kind]int, 4)
	for _, u := range units {
		counts[u.Kind]++
	}
	return counts
}
