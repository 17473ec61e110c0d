package imports

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/pendergraft/verifyprep/internal/solc"
)

// ErrSourceNotFound means an import names a source the compiler input does
// not contain.
var ErrSourceNotFound = errors.New("source not found")

// Closure returns every source transitively imported by root, in the order
// each one is first reached. root itself is never part of the result, even
// when an import cycle leads back to it.
func Closure(root string, sources map[string]solc.Source, analyzer Analyzer) ([]string, error) {
	visited := map[string]bool{root: true}
	var result []string

	stack := []string{root}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		src, ok := sources[current]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, current)
		}

		imported, err := analyzer.AnalyzeImports(src.Content)
		if err != nil {
			return nil, fmt.Errorf("analyzing imports of %s: %w", current, err)
		}

		var discovered []string
		for _, imp := range imported {
			resolved := Resolve(current, imp)
			if visited[resolved] {
				continue
			}
			visited[resolved] = true
			discovered = append(discovered, resolved)
		}
		result = append(result, discovered...)

		// Push in reverse so the first import is expanded first.
		for i := len(discovered) - 1; i >= 0; i-- {
			stack = append(stack, discovered[i])
		}
	}

	return result, nil
}

// Resolve turns an import path found in importer into a source name.
// Relative paths are joined with the importer's directory and clamped at the
// root of the source tree; anything else is already a source name.
func Resolve(importer, imported string) string {
	if !IsRelative(imported) {
		return imported
	}

	dir := path.Dir(toSlash(importer))
	return strings.TrimPrefix(path.Join("/"+dir, toSlash(imported)), "/")
}

// IsRelative reports whether an import path starts with ./ or ../ using
// either separator.
func IsRelative(imported string) bool {
	p := toSlash(imported)
	return strings.HasPrefix(p, "./") || strings.HasPrefix(p, "../")
}

func toSlash(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}
