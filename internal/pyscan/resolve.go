package pyscan

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	serrors "git.home.luguber.info/inful/docsmith/internal/pyscan/errors"
)

// Resolve maps a module name to its backing source file. Dotted names map to
// nested directories; a name resolves to either <name>.py or
// <name>/__init__.py under a search path. Search paths are consulted in
// configuration order and the first match wins.
func (s *Scanner) Resolve(name string) (string, error) {
	rel := filepath.Join(strings.Split(name, ".")...)

	for _, root := range s.searchPaths {
		candidates := []string{
			filepath.Join(root, rel+".py"),
			filepath.Join(root, rel, "__init__.py"),
		}
		for _, candidate := range candidates {
			info, err := os.Stat(candidate)
			if err != nil || info.IsDir() {
				continue
			}
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: %s (searched %d paths)", serrors.ErrModuleNotFound, name, len(s.searchPaths))
}
