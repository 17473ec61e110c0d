package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors of the verification domain. The typed errors below match
// their sentinel with errors.Is.
var (
	ErrUninitializedDeployment = errors.New("deployment not initialized")
	ErrNoContractsDeployed     = errors.New("no contracts deployed")
	ErrInvariantViolation      = errors.New("internal invariant violated")
)

// UninitializedDeploymentError means no deployment state exists at Location.
type UninitializedDeploymentError struct {
	Location string
}

func (e *UninitializedDeploymentError) Error() string {
	return fmt.Sprintf("deployment %q is not initialized", e.Location)
}

// Is reports whether target is ErrUninitializedDeployment.
func (e *UninitializedDeploymentError) Is(target error) bool {
	return target == ErrUninitializedDeployment
}

// NoContractsDeployedError means the deployment at Location has no
// successfully deployed contract.
type NoContractsDeployedError struct {
	Location string
}

func (e *NoContractsDeployedError) Error() string {
	return fmt.Sprintf("deployment %q has no successfully deployed contracts", e.Location)
}

// Is reports whether target is ErrNoContractsDeployed.
func (e *NoContractsDeployedError) Is(target error) bool {
	return target == ErrNoContractsDeployed
}
