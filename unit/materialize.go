package unit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonwraymond/codechain/deps"
	"github.com/jonwraymond/codechain/scratch"
)

// Materialize writes source into the scratch space under a path derived
// from unitName and returns that path. A same-named file is overwritten.
// The path is tracked by the space.
func Materialize(space *scratch.Space, unitName, source string) (string, error) {
	file := FileName(unitName)
	if file == "" {
		return "", fmt.Errorf("%w: empty unit name", ErrMaterialize)
	}
	path := filepath.Join(space.Dir(), file)
	if err := os.WriteFile(path, []byte(source), 0o600); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMaterialize, err)
	}
	space.Track(path)
	return path, nil
}

// FileName maps a unit name to its source file name. Characters outside
// [A-Za-z0-9_.-] become underscores so the file always lands directly in
// the scratch directory.
func FileName(unitName string) string {
	if unitName == "" {
		return ""
	}
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		case r == '.':
			return r
		default:
			return '_'
		}
	}, unitName)
	if strings.Trim(clean, ".") == "" {
		clean = strings.ReplaceAll(clean, ".", "_")
	}
	return clean + deps.SourceExt
}
