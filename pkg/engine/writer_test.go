package engine

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedWriter(t *testing.T) *ScriptWriter {
	t.Helper()
	w := NewScriptWriter(t.TempDir())
	w.Now = func() time.Time {
		return time.Date(2024, 3, 5, 14, 7, 9, 0, time.Local)
	}
	return w
}

func TestScriptWriter_PrependsHeader(t *testing.T) {
	w := fixedWriter(t)

	art, err := w.Write("echo hi", "Weak SSH Ciphers")
	require.NoError(t, err)

	data, err := os.ReadFile(art.Path)
	require.NoError(t, err)
	assert.Equal(t, DefaultScriptHeader+"echo hi\n", string(data))
	assert.Equal(t, string(data), art.Content)
	assert.True(t, strings.HasPrefix(string(data), "#!"))
	assert.Contains(t, string(data), StrictMode)
}

func TestScriptWriter_KeepsExistingShebang(t *testing.T) {
	w := fixedWriter(t)

	art, err := w.Write("#!/bin/bash\nset -euo pipefail\necho hi\n\n\n", "x")
	require.NoError(t, err)

	data, err := os.ReadFile(art.Path)
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/bash\nset -euo pipefail\necho hi\n", string(data))
}

func TestScriptWriter_Layout(t *testing.T) {
	w := fixedWriter(t)

	art, err := w.Write("echo hi", "SSH Weak Ciphers!")
	require.NoError(t, err)

	root, err := filepath.Abs(w.Root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "2024-03-05", "140709_ssh_weak_ciphers.sh"), art.Path)
	assert.True(t, filepath.IsAbs(art.Path))
	assert.True(t, art.Executable)

	info, err := os.Stat(art.Path)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode().Perm()&0o111, "script should be executable")
}

func TestScriptWriter_NeverOverwrites(t *testing.T) {
	w := fixedWriter(t)

	first, err := w.Write("echo one", "same")
	require.NoError(t, err)
	second, err := w.Write("echo two", "same")
	require.NoError(t, err)

	assert.NotEqual(t, first.Path, second.Path)
	assert.True(t, strings.HasSuffix(second.Path, "140709_same_2.sh"))

	data, err := os.ReadFile(first.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "echo one")

	entries, err := os.ReadDir(filepath.Dir(first.Path))
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temp files should remain")
}

func TestScriptWriter_ConcurrentSameName(t *testing.T) {
	w := fixedWriter(t)

	const n = 10
	paths := make([]string, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			art, err := w.Write("echo hi", "collide")
			errs[i] = err
			if art != nil {
				paths[i] = art.Path
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.False(t, seen[paths[i]], "duplicate path %s", paths[i])
		seen[paths[i]] = true
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SSH Weak Ciphers!", "ssh_weak_ciphers"},
		{"Apache/2.4 < 2.4.50", "apache_2_4_2_4_50"},
		{"vsftpd-backdoor", "vsftpd-backdoor"},
		{"Über Schwachstelle", "über_schwachstelle"},
		{"Cafe\u0301 Login", "cafe\u0301_login"},
		{"nai\u0308ve", "nai\u0308ve"},
		{"", "script"},
		{"!!!", "script"},
		{strings.Repeat("a", 100), strings.Repeat("a", 60)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}
