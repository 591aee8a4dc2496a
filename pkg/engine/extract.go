package engine

import (
	"regexp"
	"strings"
)

const (
	// StrictMode is the shell directive every generated script starts with.
	StrictMode = "set -euo pipefail"

	fallbackScanLines = 5
)

var (
	fenceRe   = regexp.MustCompile("(?is)```(?:bash|sh)?\\s*(.*?)\\s*```")
	shebangRe = regexp.MustCompile(`^\s*#!`)
)

// ExtractScript recovers the script body from a free-text response.
//
// The first ``` fence (tagged bash/sh or untagged) wins. Without a fence the
// whole text is accepted only when it opens with a shebang or carries the
// strict-mode directive in its first few lines.
func ExtractScript(text string) (string, error) {
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		body := strings.TrimSpace(m[1])
		if body == "" {
			return "", NewStageError(StageExtraction, ErrNoScript)
		}
		return body, nil
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", NewStageError(StageExtraction, ErrNoScript)
	}
	if HasShebang(trimmed) || strictModeNearTop(trimmed) {
		return trimmed, nil
	}
	return "", NewStageError(StageExtraction, ErrNoScript)
}

// HasShebang reports whether content opens with an interpreter line.
func HasShebang(content string) bool {
	return shebangRe.MatchString(content)
}

func strictModeNearTop(text string) bool {
	lines := strings.SplitN(text, "\n", fallbackScanLines+1)
	if len(lines) > fallbackScanLines {
		lines = lines[:fallbackScanLines]
	}
	for _, line := range lines {
		if strings.Contains(line, StrictMode) {
			return true
		}
	}
	return false
}
