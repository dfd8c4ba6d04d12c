package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// isYAML reports whether a document name selects the YAML codec.
func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// decodeDocument unmarshals data into v with the codec chosen by the file
// extension. Anything that is not YAML is read as JSON.
func decodeDocument(path string, data []byte, v interface{}) error {
	if isYAML(path) {
		return yaml.Unmarshal(data, v)
	}
	return json.Unmarshal(data, v)
}

// encodeDocument renders v for path. Map keys come out sorted in both codecs.
func encodeDocument(path string, v interface{}) ([]byte, error) {
	if isYAML(path) {
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return nil, fmt.Errorf("error marshaling %s: %w", filepath.Base(path), err)
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("error marshaling %s: %w", filepath.Base(path), err)
	}
	return append(data, '\n'), nil
}

// isEmptyDocument treats whitespace-only files as absent.
func isEmptyDocument(data []byte) bool {
	return len(bytes.TrimSpace(data)) == 0
}
