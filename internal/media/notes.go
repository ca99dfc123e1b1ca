package media

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrInvalidName = errors.New("invalid file name")

const markdownExt = ".md"

// Notes saves markdown notes, by default into its own folder.
type Notes struct {
	defaultDir string
}

func NewNotes(defaultDir string) *Notes {
	return &Notes{defaultDir: defaultDir}
}

// DefaultFolder returns the default notes folder, creating it if needed.
func (n *Notes) DefaultFolder() (string, error) {
	if err := os.MkdirAll(n.defaultDir, 0o755); err != nil {
		return "", fmt.Errorf("create notes folder: %w", err)
	}
	return n.defaultDir, nil
}

// Save writes content to folder/fileName, appending .md when missing. An
// empty folder means the default one.
func (n *Notes) Save(folder, fileName, content string) (string, error) {
	if folder == "" {
		folder = n.defaultDir
	}
	name := strings.TrimSpace(fileName)
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, fileName)
	}
	if !strings.HasSuffix(name, markdownExt) {
		name += markdownExt
	}
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return "", fmt.Errorf("create notes folder: %w", err)
	}
	path := filepath.Join(folder, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write note: %w", err)
	}
	return path, nil
}
