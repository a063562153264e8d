package segment_test

import (
	"strings"
	"testing"

	"github.com/valpere/texproof/internal/segment"
)

// --- Split tests ---

func TestSplit_EmptyDocument(t *testing.T) {
	units, errs := segment.Split("")
	if len(units) != 0 {
		t.Errorf("expected 0 units, got %d", len(units))
	}
	if len(errs) != 0 {
		t.Errorf("expected 0 errors, got %d", len(errs))
	}

	units, errs = segment.Split("   \n\t\n  ")
	if len(units) != 0 || len(errs) != 0 {
		t.Errorf("expected nothing from whitespace-only document, got %d units, %d errors", len(units), len(errs))
	}
}

func TestSplit_SectionTitle(t *testing.T) {
	src := `\section{Introduction}`
	units, errs := segment.Split(src)

	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(units) != 1 {
		t.Fatalf("expected 1 unit, got %d: %v", len(units), units)
	}
	u := units[0]
	if u.Kind != segment.SectionTitle {
		t.Errorf("expected SectionTitle, got %v", u.Kind)
	}
	if u.Name != "section" {
		t.Errorf("expected name 'section', got %q", u.Name)
	}
	if u.Text != "Introduction" {
		t.Errorf("expected 'Introduction', got %q", u.Text)
	}
	if src[u.Start:u.End] != u.Text {
		t.Errorf("span mismatch: src[%d:%d] = %q, Text = %q", u.Start, u.End, src[u.Start:u.End], u.Text)
	}
}

func TestSplit_NestedBracesInTitle(t *testing.T) {
	src := `\section{The \textbf{Bold} Title}`
	units, errs := segment.Split(src)

	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(units) != 1 {
		t.Fatalf("expected 1 unit, got %d", len(units))
	}
	if units[0].Text != `The \textbf{Bold} Title` {
		t.Errorf("nested braces mishandled: %q", units[0].Text)
	}
}

func TestSplit_StarredAndOptionalForms(t *testing.T) {
	src := "\\section*{Results}\n\nSome prose between the headings.\n\n\\subsection[Short]{A Longer Title}\n"
	units, errs := segment.Split(src)

	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	counts := segment.CountKinds(units)
	if counts[segment.SectionTitle] != 2 {
		t.Errorf("expected 2 section titles, got %d", counts[segment.SectionTitle])
	}
	if counts[segment.Paragraph] != 1 {
		t.Errorf("expected 1 paragraph, got %d", counts[segment.Paragraph])
	}
	if units[0].Text != "Results" {
		t.Errorf("expected 'Results', got %q", units[0].Text)
	}
	last := units[len(units)-1]
	if last.Text != "A Longer Title" {
		t.Errorf("expected optional argument skipped, got %q", last.Text)
	}
}

func TestSplit_ChapterAndSubparagraph(t *testing.T) {
	src := "\\chapter{Opening}\n\n\\subparagraph{Fine Detail}\n"
	units, _ := segment.Split(src)

	if len(units) != 2 {
		t.Fatalf("expected 2 units, got %d", len(units))
	}
	if units[0].Name != "chapter" || units[1].Name != "subparagraph" {
		t.Errorf("unexpected names: %q, %q", units[0].Name, units[1].Name)
	}
}

func TestSplit_UnbalancedBraceReportsOffsetAndContinues(t *testing.T) {
	src := "\\section{Broken\n\nMore text follows here.\n\n\\section{Good}\n"
	units, errs := segment.Split(src)

	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d: %v", len(errs), errs)
	}
	wantOffset := strings.Index(src, "{Broken")
	if errs[0].Offset != wantOffset {
		t.Errorf("expected error offset %d, got %d", wantOffset, errs[0].Offset)
	}
	if errs[0].Command != `\section` {
		t.Errorf("expected command '\\section', got %q", errs[0].Command)
	}

	var titles []string
	for _, u := range units {
		if u.Kind == segment.SectionTitle {
			titles = append(titles, u.Text)
		}
	}
	if len(titles) != 1 || titles[0] != "Good" {
		t.Errorf("expected scan to continue past the error and find 'Good', got %v", titles)
	}
}

func TestSplit_SpecialEnvironmentBody(t *testing.T) {
	src := "\\begin{abstract}\n  This thesis investigate several topic.\n\\end{abstract}\n\nBody text follows the abstract.\n"
	units, errs := segment.Split(src)

	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(units) != 2 {
		t.Fatalf("expected 2 units, got %d: %v", len(units), units)
	}
	abs := units[0]
	if abs.Kind != segment.EnvironmentBody || abs.Name != "abstract" {
		t.Errorf("expected abstract environment body, got %v %q", abs.Kind, abs.Name)
	}
	if abs.Text != "This thesis investigate several topic." {
		t.Errorf("expected trimmed body, got %q", abs.Text)
	}
	if src[abs.Start:abs.End] != abs.Text {
		t.Errorf("span mismatch for environment body")
	}
	if units[1].Kind != segment.Paragraph {
		t.Errorf("expected trailing paragraph, got %v", units[1].Kind)
	}
}

func TestSplit_EmptyEnvironmentSkipped(t *testing.T) {
	src := "\\begin{keywords}\n\n\\end{keywords}\n\nProse afterwards.\n"
	units, _ := segment.Split(src)

	for _, u := range units {
		if u.Kind == segment.EnvironmentBody {
			t.Errorf("expected empty environment to produce no unit, got %q", u.Text)
		}
	}
}

func TestSplit_CaptionInsideFloat(t *testing.T) {
	src := "\\begin{figure}[ht]\n  \\includegraphics{fig1}\n  \\caption{A tpyo in this caption}\n\\end{figure}\n\nAfter the float.\n"
	units, errs := segment.Split(src)

	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(units) != 2 {
		t.Fatalf("expected caption + paragraph, got %d units: %v", len(units), units)
	}
	cap := units[0]
	if cap.Kind != segment.Caption {
		t.Errorf("expected Caption, got %v", cap.Kind)
	}
	if cap.Text != "A tpyo in this caption" {
		t.Errorf("expected caption argument, got %q", cap.Text)
	}
	if units[1].Kind != segment.Paragraph || units[1].Text != "After the float." {
		t.Errorf("expected paragraph after float, got %v %q", units[1].Kind, units[1].Text)
	}
}

func TestSplit_NoParagraphsInsideFloatBody(t *testing.T) {
	src := "\\begin{table}\n\nPlain words inside the table body.\n\n\\end{table}\n"
	units, _ := segment.Split(src)

	if len(units) != 0 {
		t.Errorf("expected no units inside float body, got %v", units)
	}
}

func TestSplit_ParagraphBlocks(t *testing.T) {
	src := "First paragraph spans\ntwo source lines.\n\nSecond paragraph here.\n\n\\noindent skipped because it opens with a macro.\n"
	units, _ := segment.Split(src)

	if len(units) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d: %v", len(units), units)
	}
	if units[0].Text != "First paragraph spans\ntwo source lines." {
		t.Errorf("unexpected first paragraph: %q", units[0].Text)
	}
	if units[1].Text != "Second paragraph here." {
		t.Errorf("unexpected second paragraph: %q", units[1].Text)
	}
	for _, u := range units {
		if src[u.Start:u.End] != u.Text {
			t.Errorf("span mismatch: %q", u.Text)
		}
	}
}

func TestSplit_CommentsHideCommands(t *testing.T) {
	src := "% \\section{Hidden}\n\nVisible prose here.\n\nAnother paragraph. % trailing note\n"
	units, _ := segment.Split(src)

	counts := segment.CountKinds(units)
	if counts[segment.SectionTitle] != 0 {
		t.Error("commented-out section must not become a unit")
	}
	if counts[segment.Paragraph] != 2 {
		t.Fatalf("expected 2 paragraphs, got %d", counts[segment.Paragraph])
	}
	if !strings.Contains(units[1].Text, "% trailing note") {
		t.Errorf("trailing comment should stay inside its paragraph: %q", units[1].Text)
	}
}

func TestSplit_VerbatimIsOpaque(t *testing.T) {
	src := "\\begin{verbatim}\n\\section{Not real}\n% not a comment\n\\end{verbatim}\n\nReal prose paragraph.\n"
	units, _ := segment.Split(src)

	if len(units) != 1 {
		t.Fatalf("expected 1 unit, got %d: %v", len(units), units)
	}
	if units[0].Kind != segment.Paragraph || units[0].Text != "Real prose paragraph." {
		t.Errorf("expected only the prose paragraph, got %v %q", units[0].Kind, units[0].Text)
	}
}

func TestSplit_DisplayMathExcluded(t *testing.T) {
	src := "Intro prose before math.\n\n$$\nE = mc^2\n$$\n\n\\begin{equation}\n  a = b\n\\end{equation}\n\nAfter math prose.\n"
	units, _ := segment.Split(src)

	if len(units) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d: %v", len(units), units)
	}
	for _, u := range units {
		if u.Kind != segment.Paragraph {
			t.Errorf("expected only paragraphs, got %v", u.Kind)
		}
		if strings.Contains(u.Text, "mc^2") || strings.Contains(u.Text, "a = b") {
			t.Errorf("math leaked into a unit: %q", u.Text)
		}
	}
}

func TestSplit_ParagraphTouchingDisplayMathSkipped(t *testing.T) {
	src := "Before math prose.\n\nThe identity \\[ x = y \\] holds trivially.\n\nAfter math prose.\n"
	units, _ := segment.Split(src)

	if len(units) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d: %v", len(units), units)
	}
	if units[0].Text != "Before math prose." || units[1].Text != "After math prose." {
		t.Errorf("expected the block containing display math to be dropped, got %v", units)
	}
}

func TestSplit_InlineMathStaysInParagraph(t *testing.T) {
	src := "The value $x + y$ grows linearly with time.\n"
	units, _ := segment.Split(src)

	if len(units) != 1 {
		t.Fatalf("expected 1 paragraph, got %d", len(units))
	}
	if units[0].Text != "The value $x + y$ grows linearly with time." {
		t.Errorf("inline math should stay in the paragraph: %q", units[0].Text)
	}
}

func TestSplit_EscapedBraces(t *testing.T) {
	src := `\caption{Fifty \% of runs \{braced\} safely}`
	units, errs := segment.Split(src)

	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(units) != 1 {
		t.Fatalf("expected 1 unit, got %d", len(units))
	}
	if units[0].Text != `Fifty \% of runs \{braced\} safely` {
		t.Errorf("escaped braces mishandled: %q", units[0].Text)
	}
}

func TestSplit_UnitsOrderedAndDisjoint(t *testing.T) {
	src := "\\begin{abstract}\nA short abstract.\n\\end{abstract}\n\n" +
		"\\section{Methods}\n\nWe measured the effect carefully.\n\n" +
		"\\begin{figure}\n\\caption{Effect size}\n\\end{figure}\n\n" +
		"Closing remarks paragraph.\n"
	units, errs := segment.Split(src)

	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(units) != 5 {
		t.Fatalf("expected 5 units, got %d: %v", len(units), units)
	}
	for i, u := range units {
		if u.Start >= u.End {
			t.Errorf("unit %d has empty span [%d,%d)", i, u.Start, u.End)
		}
		if src[u.Start:u.End] != u.Text {
			t.Errorf("unit %d text does not match its span", i)
		}
		if i > 0 && units[i-1].End > u.Start {
			t.Errorf("unit %d overlaps unit %d", i, i-1)
		}
	}
}

// --- helper tests ---

func TestSectionAt(t *testing.T) {
	src := "Opening paragraph before any heading.\n\n\\section{Methods}\n\nInside methods now.\n\n\\section{Results}\n\nInside results now.\n"
	units, _ := segment.Split(src)

	if got := segment.SectionAt(units, 0); got != "" {
		t.Errorf("expected no section before the first heading, got %q", got)
	}

	methodsPara := strings.Index(src, "Inside methods")
	if got := segment.SectionAt(units, methodsPara); got != "Methods" {
		t.Errorf("expected 'Methods', got %q", got)
	}

	resultsPara := strings.Index(src, "Inside results")
	if got := segment.SectionAt(units, resultsPara); got != "Results" {
		t.Errorf("expected 'Results', got %q", got)
	}
}

func TestKindString(t *testing.T) {
	if segment.SectionTitle.String() != "section-title" {
		t.Errorf("unexpected: %s", segment.SectionTitle)
	}
	if segment.EnvironmentBody.String() != "environment-body" {
		t.Errorf("unexpected: %s", segment.EnvironmentBody)
	}
	if segment.Caption.String() != "caption" {
		t.Errorf("unexpected: %s", segment.Caption)
	}
	if segment.Paragraph.String() != "paragraph" {
		t.Errorf("unexpected: %s", segment.Paragraph)
	}
}

func TestError_Message(t *testing.T) {
	err := &segment.Error{Offset: 42, Command: `\section`, Message: "brace group never closes"}
	msg := err.Error()
	if !strings.Contains(msg, "42") || !strings.Contains(msg, `\section`) {
		t.Errorf("error message should name offset and command: %q", msg)
	}
}
