package cursorstore

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// loadYAML reads the cursor document at path. A missing file yields an
// empty map; any other read or parse failure is returned, and the caller
// (store.load) logs it and keeps empty state — a following sync_group will
// reconverge with the server.
func loadYAML(path string) (map[string]cursorPair, error) {
	// #nosec G304 -- path is operator-configured at construction time.
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]cursorPair), nil
		}
		return nil, fmt.Errorf("read cursor file: %w", err)
	}

	var doc map[string]cursorPair
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal cursor file: %w", err)
	}
	if doc == nil {
		doc = make(map[string]cursorPair)
	}
	return doc, nil
}

// saveYAML atomically replaces the cursor document at path: write to a
// temp file in the same directory, then rename over the target so a crash
// mid-write never leaves a partially-written file in place.
func saveYAML(path string, doc map[string]cursorPair) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal cursor file: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".cursor-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp cursor file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp cursor file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp cursor file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename cursor file: %w", err)
	}
	return nil
}
