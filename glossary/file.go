package glossary

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/HanbitLabs/novlate"
)

// Load reads a glossary from a JSON file.
func Load(path string) (*Glossary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &novlate.GlossaryError{Message: "reading " + path, Cause: err}
	}

	var g Glossary
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, &novlate.GlossaryError{Message: "parsing " + path, Cause: err}
	}
	g.rebuildIndex()
	return &g, nil
}

// Save writes the glossary to a JSON file atomically: the content goes to a
// temp file in the same directory, then renames over the target, so a crash
// mid-write never leaves a truncated glossary behind.
func (g *Glossary) Save(path string) error {
	g.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return &novlate.GlossaryError{Message: "encoding glossary", Cause: err}
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &novlate.GlossaryError{Message: "creating " + dir, Cause: err}
	}

	tmp, err := os.CreateTemp(dir, ".glossary-*.json")
	if err != nil {
		return &novlate.GlossaryError{Message: "creating temp file", Cause: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &novlate.GlossaryError{Message: fmt.Sprintf("writing %s", tmpName), Cause: err}
	}
	if err := tmp.Close(); err != nil {
		return &novlate.GlossaryError{Message: fmt.Sprintf("closing %s", tmpName), Cause: err}
	}

	if err := os.Rename(tmpName, path); err != nil {
		return &novlate.GlossaryError{Message: "replacing " + path, Cause: err}
	}
	return nil
}
