package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadPrompts reads prompt text from dir. Each "<name>.md" file and each
// "<name>/SKILL.md" becomes an entry keyed by name. An empty dir yields no prompts.
func LoadPrompts(dir string) (map[string]string, error) {
	if dir == "" {
		return map[string]string{}, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read prompts dir: %w", err)
	}
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		var name, path string
		switch {
		case e.IsDir():
			name, path = e.Name(), filepath.Join(dir, e.Name(), "SKILL.md")
		case strings.EqualFold(filepath.Ext(e.Name()), ".md"):
			name, path = strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())), filepath.Join(dir, e.Name())
		default:
			continue
		}
		b, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read prompt %s: %w", name, err)
		}
		if text := strings.TrimSpace(string(b)); text != "" {
			out[name] = text
		}
	}
	return out, nil
}
