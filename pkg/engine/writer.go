package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const (
	// DefaultScriptHeader is prepended to scripts that lack a shebang.
	DefaultScriptHeader = "#!/usr/bin/env bash\n" + StrictMode + "\n"

	defaultExt       = "sh"
	defaultSlug      = "script"
	maxSlugRunes     = 60
	maxNameAttempts  = 100
	scriptPermission = 0o755
)

var (
	nonWordRe    = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_\-]+`)
	underscoreRe = regexp.MustCompile(`_+`)
)

// ScriptArtifact is a remediation script persisted on disk.
type ScriptArtifact struct {
	Path       string
	Content    string
	Executable bool
	CreatedAt  time.Time
}

// ScriptWriter persists scripts under Root/<YYYY-MM-DD>/<HHMMSS>_<slug>.<Ext>.
type ScriptWriter struct {
	Root string
	Ext  string
	Now  func() time.Time
}

// NewScriptWriter creates a writer rooted at dir.
func NewScriptWriter(dir string) *ScriptWriter {
	return &ScriptWriter{
		Root: dir,
		Ext:  defaultExt,
		Now:  time.Now,
	}
}

// Write stores content as an executable script named after label and returns
// the artifact with its absolute path.
func (w *ScriptWriter) Write(content, label string) (*ScriptArtifact, error) {
	now := time.Now()
	if w.Now != nil {
		now = w.Now()
	}
	ext := w.Ext
	if ext == "" {
		ext = defaultExt
	}

	root, err := filepath.Abs(w.Root)
	if err != nil {
		return nil, NewStageError(StagePersistence, err)
	}
	dir := filepath.Join(root, now.Format("2006-01-02"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, NewStageError(StagePersistence, fmt.Errorf("failed to create %s: %w", dir, err))
	}

	text := content
	if !HasShebang(text) {
		text = DefaultScriptHeader + text
	}
	text = strings.TrimRight(text, " \t\r\n") + "\n"

	base := fmt.Sprintf("%s_%s", now.Format("150405"), Slugify(label))
	path, err := publish(dir, base, ext, text)
	if err != nil {
		return nil, NewStageError(StagePersistence, err)
	}

	return &ScriptArtifact{
		Path:       path,
		Content:    text,
		Executable: true,
		CreatedAt:  now,
	}, nil
}

// publish writes text to a temp file and links it into place without
// replacing an existing artifact. A taken name gets a _2, _3, ... suffix.
func publish(dir, base, ext, text string) (string, error) {
	tmp, err := os.CreateTemp(dir, "."+base+"-*.tmp")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Chmod(tmpPath, scriptPermission); err != nil {
		return "", err
	}

	for attempt := 1; attempt <= maxNameAttempts; attempt++ {
		name := base + "." + ext
		if attempt > 1 {
			name = fmt.Sprintf("%s_%d.%s", base, attempt, ext)
		}
		target := filepath.Join(dir, name)

		err := os.Link(tmpPath, target)
		if err == nil {
			return target, nil
		}
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		// hard links unsupported here; claim the name with O_EXCL instead
		err = writeExclusive(target, text)
		if err == nil {
			return target, nil
		}
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		return "", err
	}
	return "", fmt.Errorf("no free file name for %s after %d attempts", base, maxNameAttempts)
}

func writeExclusive(path, text string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, scriptPermission)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(text); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// Slugify turns a label into a lowercase, filesystem-safe name.
func Slugify(label string) string {
	s := strings.ToLower(strings.TrimSpace(label))
	s = nonWordRe.ReplaceAllString(s, "_")
	s = underscoreRe.ReplaceAllString(s, "_")
	if r := []rune(s); len(r) > maxSlugRunes {
		s = string(r[:maxSlugRunes])
	}
	s = strings.Trim(s, "_")
	if s == "" {
		return defaultSlug
	}
	return s
}
