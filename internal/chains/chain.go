// Package chains resolves a deployment's chain id to the verifier endpoint
// configuration for that network.
package chains

import (
	"errors"
	"fmt"

	"github.com/pendergraft/verifyprep/internal/validation"
)

// ErrUnsupportedChain is matched by every UnsupportedChainError.
var ErrUnsupportedChain = errors.New("chain not supported")

// ChainConfig describes where contracts deployed on a network get verified.
type ChainConfig struct {
	Network string `json:"network" yaml:"network" toml:"network"`
	ChainID int64  `json:"chainId" yaml:"chainId" toml:"chain_id"`
	URLs    URLs   `json:"urls" yaml:"urls" toml:"urls"`
}

// URLs holds the verifier endpoint metadata for a chain.
type URLs struct {
	APIURL     string `json:"apiURL" yaml:"apiURL" toml:"api_url"`
	BrowserURL string `json:"browserURL" yaml:"browserURL" toml:"browser_url"`
}

// UnsupportedChainError is returned when a chain id matches neither the
// custom nor the built-in chain list.
type UnsupportedChainError struct {
	ChainID int64
}

func (e *UnsupportedChainError) Error() string {
	return fmt.Sprintf("chain %d is not supported: add it to the custom chains list", e.ChainID)
}

// Is reports whether target is ErrUnsupportedChain.
func (e *UnsupportedChainError) Is(target error) bool {
	return target == ErrUnsupportedChain
}

// Resolve returns the first config whose chain id equals chainID, searching
// custom before the built-in list. Custom entries override built-ins
// wholesale; fields are never merged.
func Resolve(chainID int64, custom []ChainConfig) (ChainConfig, error) {
	for _, list := range [][]ChainConfig{custom, builtin} {
		for _, c := range list {
			if c.ChainID == chainID {
				return c, nil
			}
		}
	}
	return ChainConfig{}, &UnsupportedChainError{ChainID: chainID}
}

// Effective returns the chain list as Resolve sees it: custom entries first,
// followed by every built-in entry that no custom entry shadows.
func Effective(custom []ChainConfig) []ChainConfig {
	seen := make(map[int64]bool, len(custom))
	out := make([]ChainConfig, 0, len(custom)+len(builtin))
	for _, list := range [][]ChainConfig{custom, builtin} {
		for _, c := range list {
			if seen[c.ChainID] {
				continue
			}
			seen[c.ChainID] = true
			out = append(out, c)
		}
	}
	return out
}

// Validate checks a user supplied chain list before it is used for lookups.
func Validate(configs []ChainConfig) error {
	seen := make(map[int64]string, len(configs))
	for i, c := range configs {
		if err := validation.ValidateChainID(c.ChainID); err != nil {
			return fmt.Errorf("chain %d (%s): %w", i, c.Network, err)
		}
		if c.Network == "" {
			return fmt.Errorf("chain %d: network name is required", c.ChainID)
		}
		if c.URLs.APIURL == "" {
			return fmt.Errorf("chain %d (%s): api URL is required", c.ChainID, c.Network)
		}
		if prev, ok := seen[c.ChainID]; ok {
			return fmt.Errorf("chain %d is defined twice (%s and %s)", c.ChainID, prev, c.Network)
		}
		seen[c.ChainID] = c.Network
	}
	return nil
}
