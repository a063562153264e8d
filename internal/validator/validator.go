// Package validator decides whether a proofread reply can safely replace the
// original unit in the document. The checks are deliberately coarse: the reply
// must be non-empty and its unescaped brace and \begin/\end counts must match
// the original's. Anything deeper than counting is out of scope; a reply that
// passes is trusted.
package validator

import (
	"errors"
	"fmt"
	"strings"
)

// Check names carried by ValidationError.
const (
	CheckEmpty      = "empty-reply"
	CheckOpenBrace  = "open-brace"
	CheckCloseBrace = "close-brace"
	CheckBegin      = "begin-env"
	CheckEnd        = "end-env"
)

// ValidationError reports a reply that failed a corruption check. It is
// retryable: a later attempt may return an intact reply.
type ValidationError struct {
	Check     string
	Original  int
	Corrected int
}

func (e *ValidationError) Error() string {
	if e.Check == CheckEmpty {
		return "validation: reply is empty"
	}
	return fmt.Sprintf("validation: %s count changed from %d to %d", e.Check, e.Original, e.Corrected)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Validate compares a proofread reply against the unit text it would replace.
// It returns a *ValidationError naming the first failing check, nil when the
// reply is acceptable.
func Validate(original, corrected string) error {
	if strings.TrimSpace(corrected) == "" {
		return &ValidationError{Check: CheckEmpty}
	}

	oOpen, oClose := BraceCounts(original)
	cOpen, cClose := BraceCounts(corrected)
	if oOpen != cOpen {
		return &ValidationError{Check: CheckOpenBrace, Original: oOpen, Corrected: cOpen}
	}
	if oClose != cClose {
		return &ValidationError{Check: CheckCloseBrace, Original: oClose, Corrected: cClose}
	}

	oBegin, oEnd := envCounts(original)
	cBegin, cEnd := envCounts(corrected)
	if oBegin != cBegin {
		return &ValidationError{Check: CheckBegin, Original: oBegin, Corrected: cBegin}
	}
	if oEnd != cEnd {
		return &ValidationError{Check: CheckEnd, Original: oEnd, Corrected: cEnd}
	}

	return nil
}

// BraceCounts returns the number of unescaped { and } in text. An unescaped %
// hides the rest of its line, matching how the segmenter reads the source.
func BraceCounts(text string) (opens, closes int) {
	i := 0
	for i < len(text) {
		switch text[i] {
		case '\\':
			i += 2
			continue
		case '%':
			for i < len(text) && text[i] != '\n' {
				i++
			}
			continue
		case '{':
			opens++
		case '}':
			closes++
		}
		i++
	}
	return opens, closes
}

// envCounts tallies \begin{ and \end{ tokens outside comments. An escaped
// backslash never starts a token.
func envCounts(text string) (begins, ends int) {
	i := 0
	for i < len(text) {
		switch text[i] {
		case '%':
			for i < len(text) && text[i] != '\n' {
				i++
			}
			continue
		case '\\':
			rest := text[i+1:]
			switch {
			case strings.HasPrefix(rest, "begin{"):
				begins++
				i += len(`\begin{`)
			case strings.HasPrefix(rest, "end{"):
				ends++
				i += len(`\end{`)
			default:
				i += 2
			}
			continue
		}
		i++
	}
	return begins, ends
}
