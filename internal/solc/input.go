package solc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const librariesKey = "libraries"

// Clone returns a copy of the input that can be changed without affecting
// the receiver. Source values and untouched settings entries are shared,
// which is safe because nothing edits them in place.
func (in *CompilerInput) Clone() *CompilerInput {
	out := &CompilerInput{Language: in.Language}
	if in.Sources != nil {
		out.Sources = make(map[string]Source, len(in.Sources))
		for k, v := range in.Sources {
			out.Sources[k] = v
		}
	}
	if in.Settings != nil {
		out.Settings = make(map[string]json.RawMessage, len(in.Settings))
		for k, v := range in.Settings {
			out.Settings[k] = v
		}
	}
	return out
}

// SetLibraries replaces settings.libraries with libs.
func (in *CompilerInput) SetLibraries(libs SourceToLibraryToAddress) error {
	raw, err := json.Marshal(libs)
	if err != nil {
		return fmt.Errorf("encoding libraries: %w", err)
	}
	if in.Settings == nil {
		in.Settings = make(map[string]json.RawMessage)
	}
	in.Settings[librariesKey] = raw
	return nil
}

// Libraries decodes settings.libraries. It returns nil when unset.
func (in *CompilerInput) Libraries() (SourceToLibraryToAddress, error) {
	raw, ok := in.Settings[librariesKey]
	if !ok {
		return nil, nil
	}
	var libs SourceToLibraryToAddress
	if err := json.Unmarshal(raw, &libs); err != nil {
		return nil, fmt.Errorf("decoding libraries: %w", err)
	}
	return libs, nil
}

// RetainSources removes every source whose path is not in keep.
func (in *CompilerInput) RetainSources(keep map[string]bool) {
	for path := range in.Sources {
		if !keep[path] {
			delete(in.Sources, path)
		}
	}
}

// MarshalCanonical encodes the input as compact JSON with sorted map keys
// and without HTML escaping, so source text survives byte-for-byte.
func (in *CompilerInput) MarshalCanonical() (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(in); err != nil {
		return "", fmt.Errorf("encoding compiler input: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// PrepareInput returns the compiler input for verifying artifact: a copy of
// the build's input with settings.libraries replaced by the addresses the
// artifact links against. When the artifact has no link references the copy
// is identical to the build's input.
func PrepareInput(buildInfo *BuildInfo, artifact *Artifact, libraries map[string]string) (*CompilerInput, error) {
	input := buildInfo.Input.Clone()

	resolved, err := ResolveLibraries(artifact, libraries)
	if err != nil {
		return nil, err
	}
	if resolved == nil {
		return input, nil
	}

	if err := input.SetLibraries(resolved); err != nil {
		return nil, err
	}
	return input, nil
}

// NormalizeCompilerVersion prefixes a solc long version with "v", the form
// verifiers expect.
func NormalizeCompilerVersion(version string) string {
	if strings.HasPrefix(version, "v") {
		return version
	}
	return "v" + version
}
