package scaler

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/okian/titlerace/internal/domain/features"
)

// File is the on-disk layout: feature name -> {mean, std}.
type File map[string]Params

// ToFile returns the fitted statistics keyed by feature name.
func (s *Fitted) ToFile() File {
	out := make(File, features.Count)
	for i, p := range s.params {
		out[features.Feature(i).String()] = p
	}
	return out
}

// Save writes the scaler as JSON, creating parent directories as needed.
func (s *Fitted) Save(path string) error {
	data, err := json.MarshalIndent(s.ToFile(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode scaler: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create scaler dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write scaler %s: %w", path, err)
	}
	return nil
}

// Load reads a scaler written by Save (or by any trainer using the same
// layout) and binds it to the canonical schema by name.
func Load(path string) (*Fitted, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scaler %s: %w", path, err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode scaler %s: %w", path, err)
	}
	return FromParams(f)
}
