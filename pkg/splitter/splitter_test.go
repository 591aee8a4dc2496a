package splitter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	out := t.TempDir()
	s := New(out)
	s.NewID = func() string { return "abcd1234" }

	paths, err := s.Split(Report{
		Target: "10.0.0.7",
		Results: []map[string]interface{}{
			{"name": "FTP Anonymous Login", "port": "21/tcp"},
			{"port": "80/tcp"},
			{},
			{"name": "VNC <no auth> & weak", "port": "5900/tcp"},
		},
	})
	require.NoError(t, err)
	require.Len(t, paths, 2)

	assert.Equal(t, filepath.Join(out, "000_FTP_Anonymous_Login_abcd1234.json"), paths[0])
	assert.Equal(t, filepath.Join(out, "001_VNC_no_auth_weak_abcd1234.json"), paths[1])

	data, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	assert.Contains(t, string(data), "<no auth> & weak", "html must not be escaped")

	var f Finding
	require.NoError(t, json.Unmarshal(data, &f))
	assert.Equal(t, "10.0.0.7", f.Target)
	assert.Equal(t, "5900/tcp", f.Result["port"])
}

func TestSplitFile(t *testing.T) {
	dir := t.TempDir()
	report := filepath.Join(dir, "report.json")
	require.NoError(t, os.WriteFile(report, []byte(`{"results":[{"name":"x"}]}`), 0o644))

	paths, err := New(filepath.Join(dir, "out")).SplitFile(report)
	require.NoError(t, err)
	require.Len(t, paths, 1)

	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"target": "unknown"`)

	require.NoError(t, os.WriteFile(report, []byte(`[1,2]`), 0o644))
	_, err = New(dir).SplitFile(report)
	assert.Error(t, err)
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "Apache_2_4_49_Path_Traversal", SafeName("Apache 2.4.49 - Path Traversal"))
	assert.Equal(t, "", SafeName("***"))
	assert.Len(t, SafeName(strings.Repeat("x", 80)), maxSafeName)
}

func TestShortID(t *testing.T) {
	a, b := shortID(), shortID()
	assert.Len(t, a, 8)
	assert.NotEqual(t, a, b)
}
