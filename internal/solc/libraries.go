package solc

import (
	"errors"
	"fmt"
)

// ErrMissingLibraryAddress means an artifact links against a library the
// deployment never recorded an address for.
var ErrMissingLibraryAddress = errors.New("missing library address")

// ResolveLibraries maps every library the artifact links against to the
// address it was deployed at. libraries is keyed by library name; a fully
// qualified "source:Library" key is accepted as well. It returns nil when
// the artifact has no link references at all.
func ResolveLibraries(artifact *Artifact, libraries map[string]string) (SourceToLibraryToAddress, error) {
	var resolved SourceToLibraryToAddress

	for sourceName, libs := range artifact.LinkReferences {
		for libName := range libs {
			addr, ok := libraries[libName]
			if !ok {
				addr, ok = libraries[sourceName+":"+libName]
			}
			if !ok {
				return nil, fmt.Errorf("%w: %s:%s linked by %s", ErrMissingLibraryAddress, sourceName, libName, artifact.ContractName)
			}

			if resolved == nil {
				resolved = make(SourceToLibraryToAddress)
			}
			if resolved[sourceName] == nil {
				resolved[sourceName] = make(map[string]string)
			}
			resolved[sourceName][libName] = addr
		}
	}

	return resolved, nil
}
