// Package domain contains the business logic for preparing verification
// payloads from deployment records.
package domain

import (
	"github.com/pendergraft/verifyprep/internal/chains"
)

// Request selects the deployment to prepare payloads for.
type Request struct {
	Location                  string               `json:"location"`
	CustomChains              []chains.ChainConfig `json:"customChains,omitempty"`
	IncludeUnrelatedContracts bool                 `json:"includeUnrelatedContracts"`
}

// Result pairs a verification payload with the chain it must be submitted to.
type Result struct {
	Chain chains.ChainConfig `json:"chain"`
	Info  VerifyInfo         `json:"info"`
}

// VerifyInfo is everything a verifier needs for one deployed contract.
type VerifyInfo struct {
	Address         string `json:"address"`
	CompilerVersion string `json:"compilerVersion"`
	// SourceCode is the canonical JSON of the standard compiler input.
	SourceCode string `json:"sourceCode"`
	// Name is "<sourceName>:<contractName>".
	Name string `json:"name"`
	// Args holds the ABI encoded constructor arguments as hex, without 0x.
	Args string `json:"args"`
}
