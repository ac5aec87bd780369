package cliutil

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"
)

// WriteJSON writes the given value as JSON to the writer.
// If verbose is true, it pretty-prints with indentation.
func WriteJSON(w io.Writer, v any, verbose bool) error {
	encoder := json.NewEncoder(w)
	if verbose {
		encoder.SetIndent("", "  ")
	}
	// Avoid escaping HTML characters if not strictly necessary,
	// but default is typically fine. Let's keep it standard.
	return encoder.Encode(v)
}

// WriteLLM writes the given value as a YAML structure, the terse
// machine-readable shape an agent consuming `--format llm` output wants:
// field names as keys, no table padding.
func WriteLLM(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
