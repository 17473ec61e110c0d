// Package deployment models the persisted execution record of a Hardhat
// Ignition deployment and the loader contract used to read it.
package deployment

import (
	"context"
	"errors"

	"github.com/pendergraft/verifyprep/internal/solc"
)

// ErrNotFound is returned by loaders when a deployment, artifact or build
// info does not exist.
var ErrNotFound = errors.New("not found")

// ExecutionStateType identifies the kind of future an execution state tracks.
type ExecutionStateType string

// Execution state types.
const (
	TypeDeployment         ExecutionStateType = "DEPLOYMENT_EXECUTION_STATE"
	TypeCall               ExecutionStateType = "CALL_EXECUTION_STATE"
	TypeStaticCall         ExecutionStateType = "STATIC_CALL_EXECUTION_STATE"
	TypeSendData           ExecutionStateType = "SEND_DATA_EXECUTION_STATE"
	TypeContractAt         ExecutionStateType = "CONTRACT_AT_EXECUTION_STATE"
	TypeReadEventArgument  ExecutionStateType = "READ_EVENT_ARGUMENT_EXECUTION_STATE"
	TypeEncodeFunctionCall ExecutionStateType = "ENCODE_FUNCTION_CALL_EXECUTION_STATE"
)

// ExecutionStatus is the lifecycle status of an execution state.
type ExecutionStatus string

// Execution statuses.
const (
	StatusStarted ExecutionStatus = "STARTED"
	StatusSuccess ExecutionStatus = "SUCCESS"
	StatusFailed  ExecutionStatus = "FAILED"
	StatusTimeout ExecutionStatus = "TIMEOUT"
	StatusHeld    ExecutionStatus = "HELD"
)

// ResultType is the outcome recorded when an execution state completes.
type ResultType string

// Result types. Only ResultSuccess carries an address.
const (
	ResultSuccess             ResultType = "SUCCESS"
	ResultRevertedTransaction ResultType = "REVERTED_TRANSACTION"
	ResultStaticCallError     ResultType = "STATIC_CALL_ERROR"
	ResultSimulationError     ResultType = "SIMULATION_ERROR"
	ResultStrategyError       ResultType = "STRATEGY_ERROR"
	ResultStrategyHeld        ResultType = "STRATEGY_HELD"
)

// State is a deployment's execution record.
type State struct {
	ChainID int64 `json:"chainId"`
	// ExecutionStates is ordered by when each state was first initialized.
	ExecutionStates []ExecutionState `json:"executionStates"`
}

// ExecutionState is the record of a single future.
type ExecutionState struct {
	ID              string             `json:"id"`
	Type            ExecutionStateType `json:"type"`
	Status          ExecutionStatus    `json:"status"`
	FutureType      string             `json:"futureType,omitempty"`
	ArtifactID      string             `json:"artifactId,omitempty"`
	ContractName    string             `json:"contractName,omitempty"`
	ConstructorArgs []any              `json:"constructorArgs,omitempty"`
	Libraries       map[string]string  `json:"libraries,omitempty"`
	From            string             `json:"from,omitempty"`
	Result          *Result            `json:"result,omitempty"`
}

// Result is the completion result of an execution state.
type Result struct {
	Type    ResultType `json:"type"`
	Address string     `json:"address,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// IsSuccessfulDeployment reports whether the state is a contract deployment
// that completed successfully.
func (e *ExecutionState) IsSuccessfulDeployment() bool {
	return e.Type == TypeDeployment && e.Status == StatusSuccess
}

// Loader reads deployments. location identifies one deployment; what it
// means depends on the implementation (a directory in a bucket, a row id).
type Loader interface {
	// LoadState returns the deployment's execution record, or an error
	// matching ErrNotFound when the deployment was never initialized.
	LoadState(ctx context.Context, location string) (*State, error)
	// ReadBuildInfo returns the build info that produced the artifact.
	ReadBuildInfo(ctx context.Context, location, artifactID string) (*solc.BuildInfo, error)
	// LoadArtifact returns the compiled artifact.
	LoadArtifact(ctx context.Context, location, artifactID string) (*solc.Artifact, error)
}
