// Package solc models Hardhat-format compiler records (build info and
// artifacts) and prepares standard JSON compiler input for verification.
package solc

import (
	"encoding/json"
)

// BuildInfo represents a build-info file (hh-sol-build-info-1 format)
type BuildInfo struct {
	Format          string        `json:"_format,omitempty"`
	ID              string        `json:"id"`
	SolcVersion     string        `json:"solcVersion"`     // Short: "0.8.28"
	SolcLongVersion string        `json:"solcLongVersion"` // Full: "0.8.28+commit.7893614a"
	Input           CompilerInput `json:"input"`
}

// CompilerInput is Solidity standard JSON input. Only the three top-level
// keys solc accepts are kept; tool specific keys such as Foundry's
// allowPaths or basePath are dropped while decoding.
type CompilerInput struct {
	Language string                     `json:"language"`
	Sources  map[string]Source          `json:"sources"`
	Settings map[string]json.RawMessage `json:"settings,omitempty"`
}

// Source is one entry of CompilerInput.Sources.
type Source struct {
	Content   string   `json:"content"`
	Keccak256 string   `json:"keccak256,omitempty"`
	URLs      []string `json:"urls,omitempty"`
}

// Artifact represents a Hardhat artifact (hh-sol-artifact-1 format)
type Artifact struct {
	Format                 string          `json:"_format,omitempty"`
	ContractName           string          `json:"contractName"`
	SourceName             string          `json:"sourceName"`
	ABI                    json.RawMessage `json:"abi"`
	Bytecode               string          `json:"bytecode"`
	DeployedBytecode       string          `json:"deployedBytecode,omitempty"`
	LinkReferences         LinkReferences  `json:"linkReferences"`
	DeployedLinkReferences LinkReferences  `json:"deployedLinkReferences,omitempty"`
}

// LinkReferences maps source path -> library name -> placeholder offsets.
type LinkReferences map[string]map[string][]Link

// Link represents a library link reference
type Link struct {
	Start  int `json:"start"`
	Length int `json:"length"`
}

// SourceToLibraryToAddress is the shape of settings.libraries: source path
// -> library name -> deployed address.
type SourceToLibraryToAddress map[string]map[string]string

// DebugFile is the <artifact>.dbg.json companion pointing at the build info
// that produced an artifact.
type DebugFile struct {
	Format    string `json:"_format,omitempty"`
	BuildInfo string `json:"buildInfo"`
}
