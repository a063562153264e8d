package proofreader

import (
	"fmt"
	"os"
	"strings"
)

// DefaultInstruction is the proofreading brief sent as the system message
// with every unit. It asks for minimal edits that leave the LaTeX markup
// untouched, so the corrected text can replace the original span verbatim.
const DefaultInstruction = `You are proofreading text taken from a LaTeX document. Correct grammar, spelling, and punctuation in British English while changing as little as possible.

Rules:
- Keep every LaTeX command, environment, label, citation, and math expression exactly as written. Never add or remove braces.
- Place citation commands such as \cite{...} after the closing punctuation of a sentence, not before it.
- Write "cannot" rather than "can not" and "per cent" rather than "percent", and treat "data" as a plural noun.
- Leave sentences that are already correct alone. Do not rephrase for style.
- Respond with the corrected text only: no quotes around it, no code fences, no commentary.`

// LoadInstruction returns the instruction text to send with each unit: the
// contents of path when one is given, DefaultInstruction otherwise.
func LoadInstruction(path string) (string, error) {
	if path == "" {
		return DefaultInstruction, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read instruction file: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("instruction file %s is empty", path)
	}
	return text, nil
}
