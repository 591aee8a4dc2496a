package batch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotFound is reported when the input path is neither a file nor a directory.
var ErrNotFound = errors.New("path not found")

// InputError is a usage or input failure detected before any task starts.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input %s: %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

const descriptorExt = ".json"

// Gather lists the descriptor files for path: the file itself, or every
// .json file directly inside a directory in lexicographic filename order.
func Gather(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &InputError{Path: path, Err: ErrNotFound}
		}
		return nil, &InputError{Path: path, Err: err}
	}

	if info.Mode().IsRegular() {
		return []string{path}, nil
	}
	if !info.IsDir() {
		return nil, &InputError{Path: path, Err: ErrNotFound}
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, &InputError{Path: path, Err: err}
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, descriptorExt) {
			continue
		}
		fi, err := os.Stat(filepath.Join(path, name))
		if err != nil || !fi.Mode().IsRegular() {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	files := make([]string, len(names))
	for i, name := range names {
		files[i] = filepath.Join(path, name)
	}
	return files, nil
}
