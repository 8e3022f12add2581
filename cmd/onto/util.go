package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
)

func dirOf(path string) string {
	if path == ":memory:" {
		return "."
	}
	return filepath.Dir(path)
}

// printJSON writes v indented, without HTML escaping.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
