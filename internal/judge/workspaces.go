package judge

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ReadWorkspaceList reads workspace directories from a file (one per line).
// Relative entries are resolved against the file's directory.
func ReadWorkspaceList(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	base := filepath.Dir(path)
	var workspaces []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !filepath.IsAbs(line) {
			line = filepath.Join(base, line)
		}
		line = filepath.Clean(line)

		if !seen[line] {
			seen[line] = true
			workspaces = append(workspaces, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return workspaces, nil
}
