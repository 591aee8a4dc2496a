package adk

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/user/remedgen/pkg/engine"
)

//go:embed prompts/system_prompt.md
var systemPrompt string

// UserPromptPrefix introduces the finding payload in the user message.
const UserPromptPrefix = "Vulnerability JSON:\n"

// SystemPrompt renders the safety policy for a profile.
func SystemPrompt(p engine.PolicyProfile) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	tmpl := systemPrompt
	if strings.TrimSpace(p.Template) != "" {
		tmpl = p.Template
	}
	return renderString("policy", tmpl, p)
}

// UserPrompt serializes the descriptor for the generation request.
func UserPrompt(d engine.Descriptor) (string, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", err
	}
	return UserPromptPrefix + string(data), nil
}

func renderString(name, tmplStr string, data interface{}) (string, error) {
	t, err := template.New(name).Funcs(template.FuncMap{
		"join": func(items []string) string {
			quoted := make([]string, len(items))
			for i, it := range items {
				quoted[i] = "`" + it + "`"
			}
			return strings.Join(quoted, ", ")
		},
	}).Parse(tmplStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return buf.String(), nil
}
