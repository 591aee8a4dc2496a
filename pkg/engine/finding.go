package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// Descriptor is the minimal record describing one security finding.
// Every field is optional; absent fields are omitted from the JSON payload.
type Descriptor struct {
	Name         string `json:"name,omitempty"`
	Host         string `json:"host,omitempty"`
	Port         string `json:"port,omitempty"`
	Solution     string `json:"solution,omitempty"`
	SolutionType string `json:"solution_type,omitempty"`
}

// BuildPayload normalizes a raw finding record into a Descriptor.
// Values nested under "result" win over top-level ones.
func BuildPayload(raw map[string]interface{}) Descriptor {
	nested, _ := raw["result"].(map[string]interface{})

	pick := func(key string) string {
		if v := fieldString(nested, key); v != "" {
			return v
		}
		return fieldString(raw, key)
	}

	return Descriptor{
		Name:         pick("name"),
		Host:         pick("host"),
		Port:         pick("port"),
		Solution:     pick("solution"),
		SolutionType: pick("solution_type"),
	}
}

// ReadDescriptor loads a finding file and normalizes it.
func ReadDescriptor(path string) (Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Descriptor{}, NewStageError(StageInput, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return Descriptor{}, NewStageError(StageInput, fmt.Errorf("failed to parse %s: %w", path, err))
	}
	return BuildPayload(raw), nil
}

func fieldString(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}

	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool, float64, int, int64:
		return fmt.Sprint(t)
	default:
		// objects and arrays keep their JSON form
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
