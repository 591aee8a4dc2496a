package engine

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractScript(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "bash fence with surrounding prose",
			text: "blah ```bash\n#!/bin/bash\nset -euo pipefail\necho hi\n``` trailing",
			want: "#!/bin/bash\nset -euo pipefail\necho hi",
		},
		{
			name: "untagged fence",
			text: "Here you go:\n```\nchmod 600 /etc/shadow\n```\n",
			want: "chmod 600 /etc/shadow",
		},
		{
			name: "sh fence",
			text: "```sh\necho ok\n```",
			want: "echo ok",
		},
		{
			name: "first fence wins",
			text: "```bash\necho first\n```\nand also\n```bash\necho second\n```",
			want: "echo first",
		},
		{
			name: "fence tag is case insensitive",
			text: "```BASH\necho upper\n```",
			want: "echo upper",
		},
		{
			name: "bare script with shebang",
			text: "\n#!/bin/bash\nset -euo pipefail\niptables -L\n\n",
			want: "#!/bin/bash\nset -euo pipefail\niptables -L",
		},
		{
			name: "bare script with strict mode near the top",
			text: "# remediation\nset -euo pipefail\necho done",
			want: "# remediation\nset -euo pipefail\necho done",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractScript(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractScript_NoScript(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"prose only", "I cannot help with that request."},
		{"empty", ""},
		{"whitespace", "  \n\t "},
		{"empty fence", "```bash\n\n```"},
		{"strict mode too deep", "a\nb\nc\nd\ne\nf\nset -euo pipefail\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractScript(tt.text)
			require.Error(t, err)
			assert.Empty(t, got)
			assert.True(t, errors.Is(err, ErrNoScript))
			assert.Equal(t, StageExtraction, StageOf(err))
		})
	}
}

func TestExtractScript_Deterministic(t *testing.T) {
	inputs := []string{
		"blah ```bash\n#!/bin/bash\nset -euo pipefail\necho hi\n``` trailing",
		"#!/bin/sh\necho plain",
		"no script here",
		"```\n```",
	}

	for _, in := range inputs {
		first, err1 := ExtractScript(in)
		second, err2 := ExtractScript(in)
		assert.Equal(t, first, second)
		assert.Equal(t, err1 == nil, err2 == nil)
	}
}

func TestExtractScript_StableOnOwnOutput(t *testing.T) {
	text := "Sure!\n```bash\n#!/bin/bash\nset -euo pipefail\nsed -i 's/a/b/' /etc/x\n```\nDone."

	once, err := ExtractScript(text)
	require.NoError(t, err)
	twice, err := ExtractScript(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestExtractScript_ReextractingFencedBody(t *testing.T) {
	text := "Here you go:\n```\nchmod 600 /etc/shadow\n```\n"

	once, err := ExtractScript(text)
	require.NoError(t, err)
	assert.Equal(t, "chmod 600 /etc/shadow", once)

	// a bare command is not a script by the fallback rules
	_, err = ExtractScript(once)
	assert.True(t, errors.Is(err, ErrNoScript))

	again, err := ExtractScript(text)
	require.NoError(t, err)
	assert.Equal(t, once, again)
}

func TestHasShebang(t *testing.T) {
	assert.True(t, HasShebang("#!/bin/bash\n"))
	assert.True(t, HasShebang("  #!/usr/bin/env bash"))
	assert.False(t, HasShebang("echo '#!'"))
	assert.False(t, HasShebang(strings.Repeat(" ", 3)))
}
