package domain

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pendergraft/verifyprep/internal/deployment"
	"github.com/pendergraft/verifyprep/internal/solc"
	"github.com/pendergraft/verifyprep/internal/storage"
)

const (
	mathAddress    = "0x5fbdb2315678afecb367f032d93f642f64180aa3"
	tokenAddress   = "0xe7f1725e7734ce288f8367e1bb143e90bb3f0512"
	counterAddress = "0x9fe46736679d2d9a65f0992f2272de9f3c7fa6e0"
)

// fakeLoader serves one deployment whose artifacts all share a build info.
type fakeLoader struct {
	mu        sync.Mutex
	state     *deployment.State
	stateErr  error
	buildInfo *solc.BuildInfo
	artifacts map[string]*solc.Artifact
	reads     map[string]int
	summaries []storage.Summary
}

func (f *fakeLoader) LoadState(ctx context.Context, location string) (*deployment.State, error) {
	if f.stateErr != nil {
		return nil, f.stateErr
	}
	return f.state, nil
}

func (f *fakeLoader) ReadBuildInfo(ctx context.Context, location, artifactID string) (*solc.BuildInfo, error) {
	f.read(artifactID)
	if _, ok := f.artifacts[artifactID]; !ok {
		return nil, deployment.ErrNotFound
	}
	return f.buildInfo, nil
}

func (f *fakeLoader) LoadArtifact(ctx context.Context, location, artifactID string) (*solc.Artifact, error) {
	f.read(artifactID)
	a, ok := f.artifacts[artifactID]
	if !ok {
		return nil, deployment.ErrNotFound
	}
	return a, nil
}

func (f *fakeLoader) ListDeployments(ctx context.Context) ([]storage.Summary, error) {
	return f.summaries, nil
}

func (f *fakeLoader) read(artifactID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads[artifactID]++
}

func (f *fakeLoader) readCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.reads {
		n += c
	}
	return n
}

// fakeEncoder returns one 0xab byte per argument value.
type fakeEncoder struct{}

func (fakeEncoder) EncodeConstructorArgs(ctx context.Context, contractABI json.RawMessage, values []any) ([]byte, error) {
	out := make([]byte, len(values))
	for i := range out {
		out[i] = 0xab
	}
	return out, nil
}

func success(address string) *deployment.Result {
	return &deployment.Result{Type: deployment.ResultSuccess, Address: address}
}

// newFixture returns a chain 1 deployment with three successful contract
// deployments (Math, Token, Counter), a call and a failed deployment.
func newFixture() *fakeLoader {
	buildInfo := &solc.BuildInfo{
		ID:              "f00dbabe",
		SolcVersion:     "0.8.24",
		SolcLongVersion: "0.8.24+commit.e11b9ed9",
		Input: solc.CompilerInput{
			Language: "Solidity",
			Sources: map[string]solc.Source{
				"contracts/Token.sol":     {Content: "import \"./Math.sol\";\nimport \"@oz/token/ERC20.sol\";\ncontract Token {}"},
				"contracts/Math.sol":      {Content: "library Math {}"},
				"@oz/token/ERC20.sol":     {Content: "import \"../utils/Context.sol\";\ncontract ERC20 {}"},
				"@oz/utils/Context.sol":   {Content: "abstract contract Context {}"},
				"contracts/Counter.sol":   {Content: "contract Counter {}"},
				"contracts/Unrelated.sol": {Content: "import \"./Counter.sol\";\ncontract Unrelated {}"},
			},
			Settings: map[string]json.RawMessage{
				"optimizer": json.RawMessage(`{"enabled":true,"runs":200}`),
			},
		},
	}

	artifacts := map[string]*solc.Artifact{
		"Mod#Math": {
			ContractName: "Math",
			SourceName:   "contracts/Math.sol",
			ABI:          json.RawMessage(`[]`),
		},
		"Mod#Token": {
			ContractName: "Token",
			SourceName:   "contracts/Token.sol",
			ABI:          json.RawMessage(`[{"type":"constructor","inputs":[{"name":"supply","type":"uint256"}]}]`),
			LinkReferences: solc.LinkReferences{
				"contracts/Math.sol": {"Math": {{Start: 1, Length: 20}}},
			},
		},
		"Mod#Counter": {
			ContractName: "Counter",
			SourceName:   "contracts/Counter.sol",
			ABI:          json.RawMessage(`[]`),
		},
	}

	state := &deployment.State{
		ChainID: 1,
		ExecutionStates: []deployment.ExecutionState{
			{
				ID:           "Mod#Math",
				Type:         deployment.TypeDeployment,
				Status:       deployment.StatusSuccess,
				ArtifactID:   "Mod#Math",
				ContractName: "Math",
				Result:       success(mathAddress),
			},
			{
				ID:         "Mod#Token.mint",
				Type:       deployment.TypeCall,
				Status:     deployment.StatusSuccess,
				ArtifactID: "Mod#Token",
				Result:     &deployment.Result{Type: deployment.ResultSuccess},
			},
			{
				ID:              "Mod#Token",
				Type:            deployment.TypeDeployment,
				Status:          deployment.StatusSuccess,
				ArtifactID:      "Mod#Token",
				ContractName:    "Token",
				ConstructorArgs: []any{"1000"},
				Libraries:       map[string]string{"Math": mathAddress},
				Result:          success(tokenAddress),
			},
			{
				ID:           "Mod#Broken",
				Type:         deployment.TypeDeployment,
				Status:       deployment.StatusFailed,
				ArtifactID:   "Mod#Broken",
				ContractName: "Broken",
				Result:       &deployment.Result{Type: deployment.ResultRevertedTransaction},
			},
			{
				ID:           "Mod#Counter",
				Type:         deployment.TypeDeployment,
				Status:       deployment.StatusSuccess,
				ArtifactID:   "Mod#Counter",
				ContractName: "Counter",
				Result:       success(counterAddress),
			},
		},
	}

	return &fakeLoader{
		state:     state,
		buildInfo: buildInfo,
		artifacts: artifacts,
		reads:     make(map[string]int),
	}
}
