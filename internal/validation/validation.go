// Package validation provides input validation for verifyprep.
package validation

import (
	"errors"
	"regexp"
	"strings"

	"github.com/hyperledger/firefly-signer/pkg/ethtypes"
	"golang.org/x/mod/semver"
)

// Deployment ids as Ignition creates them ("chain-31337") or as users name
// them: letters, digits, hyphens and underscores, 1-64 chars.
var deploymentIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)

// ValidateDeploymentID validates a deployment id used as a storage location.
func ValidateDeploymentID(id string) error {
	if id == "" {
		return errors.New("deployment id cannot be empty")
	}
	if !deploymentIDRegex.MatchString(id) {
		return errors.New("invalid deployment id: must be alphanumeric with hyphens or underscores (max 64 chars)")
	}
	return nil
}

// ValidateCompilerVersion validates a solc long version such as
// "v0.8.19+commit.7dd6d404". The leading 'v' is optional.
func ValidateCompilerVersion(v string) error {
	normalized := strings.TrimPrefix(v, "v")
	if normalized == "" {
		return errors.New("compiler version cannot be empty")
	}
	if !semver.IsValid("v" + normalized) {
		return errors.New("invalid compiler version: must be in format X.Y.Z[+commit.hash]")
	}
	if strings.Count(strings.SplitN(normalized, "+", 2)[0], ".") < 2 {
		return errors.New("invalid compiler version: must be in format X.Y.Z (major.minor.patch)")
	}
	return nil
}

// ValidateAddress validates an Ethereum address.
func ValidateAddress(addr string) error {
	if !strings.HasPrefix(addr, "0x") {
		return errors.New("invalid address: must start with 0x")
	}
	if _, err := ethtypes.NewAddress(addr); err != nil {
		return errors.New("invalid address: must be 0x followed by 40 hex characters")
	}
	return nil
}

// ValidateChainID validates a chain ID
func ValidateChainID(chainID int64) error {
	if chainID <= 0 {
		return errors.New("chain ID must be positive")
	}
	return nil
}
