package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"provider-scraper/models"
)

const jsonIndent = "    "

// WriteJSON encodes the result as an indented array of profile objects
func WriteJSON(w io.Writer, result models.AggregateResult) error {
	if result == nil {
		result = models.AggregateResult{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", jsonIndent)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("failed to encode profiles: %w", err)
	}
	return nil
}

// ReadJSON decodes a document written by WriteJSON
func ReadJSON(r io.Reader) (models.AggregateResult, error) {
	var result models.AggregateResult
	if err := json.NewDecoder(r).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode profiles: %w", err)
	}
	if result == nil {
		result = models.AggregateResult{}
	}
	return result, nil
}

// SaveJSON writes the hierarchical document to path.
// Encoding happens in memory first so a failed encode never truncates the file.
func SaveJSON(path string, result models.AggregateResult) error {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, result); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// LoadJSON reads a hierarchical document from path
func LoadJSON(path string) (models.AggregateResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return ReadJSON(f)
}
