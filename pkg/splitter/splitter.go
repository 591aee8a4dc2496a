// Package splitter explodes a cleaned scan report into one descriptor file
// per finding.
package splitter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const maxSafeName = 40

var unsafeRe = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// Report is the cleaned report layout: a target plus its findings.
type Report struct {
	Target  string                   `json:"target"`
	Results []map[string]interface{} `json:"results"`
}

// Finding is the per-file layout consumed by the batch generator.
type Finding struct {
	Target string                 `json:"target"`
	Result map[string]interface{} `json:"result"`
}

// Splitter writes findings into OutDir.
type Splitter struct {
	OutDir string
	// NewID returns a short unique suffix; defaults to 8 hex chars of a UUID.
	NewID func() string
}

func New(outDir string) *Splitter {
	return &Splitter{OutDir: outDir, NewID: shortID}
}

// SplitFile reads a report from path and splits it.
func (s *Splitter) SplitFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return s.Split(report)
}

// Split writes one file per named finding and returns the written paths.
// Findings without a name are skipped.
func (s *Splitter) Split(report Report) ([]string, error) {
	if err := os.MkdirAll(s.OutDir, 0o755); err != nil {
		return nil, err
	}
	target := report.Target
	if target == "" {
		target = "unknown"
	}
	newID := s.NewID
	if newID == nil {
		newID = shortID
	}

	var written []string
	for _, result := range report.Results {
		name, _ := result["name"].(string)
		if len(result) == 0 || name == "" {
			continue
		}

		filename := fmt.Sprintf("%03d_%s_%s.json", len(written), SafeName(name), newID())
		path := filepath.Join(s.OutDir, filename)

		if err := writeJSON(path, Finding{Target: target, Result: result}); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", filename, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// SafeName reduces a finding name to [A-Za-z0-9_], at most 40 characters.
func SafeName(name string) string {
	s := unsafeRe.ReplaceAllString(name, "_")
	if len(s) > maxSafeName {
		s = s[:maxSafeName]
	}
	return strings.Trim(s, "_")
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func writeJSON(path string, v interface{}) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
