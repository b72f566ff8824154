package batch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"mercator-hq/importcheck/pkg/imports/decoder"
)

// ExpandOptions controls directory expansion.
type ExpandOptions struct {
	// Extensions selects files inside directories, e.g. ".xml". Empty means
	// every extension the decoder supports.
	Extensions []string

	// SkipHidden ignores files and directories whose name starts with a dot.
	SkipHidden bool
}

// Expand turns files and directories into a list of export files. Files
// named explicitly are always kept; directories are walked recursively and
// filtered by extension. Duplicates are dropped and order is preserved.
func Expand(paths []string, opts ExpandOptions) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string

	add := func(path string) {
		clean := filepath.Clean(path)
		if _, ok := seen[clean]; ok {
			return
		}
		seen[clean] = struct{}{}
		files = append(files, clean)
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("failed to access %s: %w", root, err)
		}
		if !info.IsDir() {
			add(root)
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if opts.SkipHidden && path != root && isHidden(d.Name()) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() || !matchesExtension(path, opts.Extensions) {
				return nil
			}
			add(path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", root, err)
		}
	}

	return files, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

func matchesExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return decoder.IsSupportedFile(path)
	}
	ext := filepath.Ext(path)
	for _, want := range extensions {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}

// Accepts reports whether a single file path passes the extension and
// hidden-name filters.
func (o ExpandOptions) Accepts(path string) bool {
	if o.SkipHidden && isHidden(filepath.Base(path)) {
		return false
	}
	return matchesExtension(path, o.Extensions)
}
