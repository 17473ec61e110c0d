// Package imports computes which Solidity sources a contract transitively
// depends on.
package imports

import (
	"regexp"
	"strings"
)

// Analyzer extracts the import paths of a single source file, in the order
// they appear.
type Analyzer interface {
	AnalyzeImports(source string) ([]string, error)
}

// importKeyword matches the keyword of an import directive. It runs over
// masked source, so hits inside comments and string literals are gone.
// Solidity needs no space after the keyword: import"./A.sol" and
// import{A} from "./A.sol" are both valid.
var importKeyword = regexp.MustCompile(`\bimport\b`)

// SolidityAnalyzer finds import directives in Solidity source text.
type SolidityAnalyzer struct{}

// NewSolidityAnalyzer creates a new Solidity import analyzer.
func NewSolidityAnalyzer() *SolidityAnalyzer {
	return &SolidityAnalyzer{}
}

// AnalyzeImports returns the import paths in source. Directives inside
// comments and text that only looks like a directive inside a string
// literal are ignored.
func (a *SolidityAnalyzer) AnalyzeImports(source string) ([]string, error) {
	masked := mask(source)

	var paths []string
	for _, loc := range importKeyword.FindAllStringIndex(masked, -1) {
		start, end := loc[0], loc[1]
		// $ is an identifier character in Solidity but not a word
		// character for the regexp.
		if (start > 0 && masked[start-1] == '$') || (end < len(masked) && masked[end] == '$') {
			continue
		}

		semi := strings.IndexByte(masked[end:], ';')
		if semi < 0 {
			break
		}
		directive := masked[end : end+semi]

		open := strings.IndexAny(directive, `"'`)
		if open < 0 {
			continue
		}
		closing := strings.IndexByte(directive[open+1:], directive[open])
		if closing < 0 {
			continue
		}
		from := end + open + 1
		paths = append(paths, source[from:from+closing])
	}
	return paths, nil
}

// mask returns src with comments blanked to spaces and the contents of
// string literals replaced by 'x'. Quotes and newlines stay where they are,
// so every offset into the result is valid in src.
func mask(src string) string {
	b := []byte(src)

	for i := 0; i < len(b); i++ {
		switch c := b[i]; {
		case c == '"' || c == '\'':
			j := i + 1
			for j < len(b) && b[j] != c && b[j] != '\n' {
				if b[j] == '\\' && j+1 < len(b) && b[j+1] != '\n' {
					b[j] = 'x'
					j++
				}
				b[j] = 'x'
				j++
			}
			i = j
		case c == '/' && i+1 < len(b) && b[i+1] == '/':
			for i < len(b) && b[i] != '\n' {
				b[i] = ' '
				i++
			}
		case c == '/' && i+1 < len(b) && b[i+1] == '*':
			b[i], b[i+1] = ' ', ' '
			i += 2
			for i < len(b) && !(b[i] == '*' && i+1 < len(b) && b[i+1] == '/') {
				if b[i] != '\n' {
					b[i] = ' '
				}
				i++
			}
			if i < len(b) {
				b[i], b[i+1] = ' ', ' '
				i++
			}
		}
	}

	return string(b)
}
