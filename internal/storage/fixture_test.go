package storage

import (
	"context"
	"io"
	"log/slog"
	"path"
	"testing"

	"github.com/stretchr/testify/require"
	"gocloud.dev/blob"
	"gocloud.dev/blob/memblob"
)

const fixtureJournal = `{"chainId":31337,"type":"RUN_START"}
{"futureId":"TokenModule#Math","type":"DEPLOYMENT_EXECUTION_STATE_INITIALIZE","futureType":"NAMED_ARTIFACT_LIBRARY_DEPLOYMENT","artifactId":"TokenModule#Math","contractName":"Math","constructorArgs":[],"libraries":{}}
{"futureId":"TokenModule#Math","result":{"type":"SUCCESS","address":"0x5fbdb2315678afecb367f032d93f642f64180aa3"},"type":"DEPLOYMENT_EXECUTION_STATE_COMPLETE"}
{"futureId":"TokenModule#Token","type":"DEPLOYMENT_EXECUTION_STATE_INITIALIZE","futureType":"NAMED_ARTIFACT_CONTRACT_DEPLOYMENT","artifactId":"TokenModule#Token","contractName":"Token","constructorArgs":[{"_kind":"bigint","value":"1000000000000000000000000"}],"libraries":{"Math":"0x5fbdb2315678afecb367f032d93f642f64180aa3"}}
{"futureId":"TokenModule#Token","result":{"type":"SUCCESS","address":"0xe7f1725e7734ce288f8367e1bb143e90bb3f0512"},"type":"DEPLOYMENT_EXECUTION_STATE_COMPLETE"}
{"futureId":"TokenModule#Broken","type":"DEPLOYMENT_EXECUTION_STATE_INITIALIZE","futureType":"NAMED_ARTIFACT_CONTRACT_DEPLOYMENT","artifactId":"TokenModule#Broken","contractName":"Broken","constructorArgs":[],"libraries":{}}
{"futureId":"TokenModule#Broken","result":{"type":"REVERTED_TRANSACTION"},"type":"DEPLOYMENT_EXECUTION_STATE_COMPLETE"}
`

const fixtureBuildInfo = `{
	"_format": "hh-sol-build-info-1",
	"id": "f00dbabe",
	"solcVersion": "0.8.24",
	"solcLongVersion": "0.8.24+commit.e11b9ed9",
	"input": {
		"language": "Solidity",
		"sources": {
			"contracts/Token.sol": {"content": "import \"./Math.sol\";\ncontract Token {}"},
			"contracts/Math.sol": {"content": "library Math {}"}
		},
		"settings": {"optimizer": {"enabled": false, "runs": 200}}
	}
}`

const fixtureTokenArtifact = `{
	"_format": "hh-sol-artifact-1",
	"contractName": "Token",
	"sourceName": "contracts/Token.sol",
	"abi": [{"type": "constructor", "inputs": [{"name": "supply", "type": "uint256"}]}],
	"bytecode": "0x6080__$a1b2$__",
	"linkReferences": {"contracts/Math.sol": {"Math": [{"start": 3, "length": 20}]}}
}`

const fixtureMathArtifact = `{
	"_format": "hh-sol-artifact-1",
	"contractName": "Math",
	"sourceName": "contracts/Math.sol",
	"abi": [],
	"bytecode": "0x6080",
	"linkReferences": {}
}`

const fixtureDebug = `{"_format": "hh-sol-dbg-1", "buildInfo": "../build-info/f00dbabe.json"}`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeFixture writes a complete deployment directory named id.
func writeFixture(t *testing.T, bucket *blob.Bucket, id string) {
	t.Helper()
	ctx := context.Background()

	files := map[string]string{
		"journal.jsonl":                         fixtureJournal,
		"build-info/f00dbabe.json":              fixtureBuildInfo,
		"artifacts/TokenModule#Token.json":      fixtureTokenArtifact,
		"artifacts/TokenModule#Token.dbg.json":  fixtureDebug,
		"artifacts/TokenModule#Math.json":       fixtureMathArtifact,
		"artifacts/TokenModule#Math.dbg.json":   fixtureDebug,
		"artifacts/TokenModule#Broken.json":     fixtureMathArtifact,
		"artifacts/TokenModule#Broken.dbg.json": fixtureDebug,
	}
	for name, content := range files {
		require.NoError(t, bucket.WriteAll(ctx, path.Join(id, name), []byte(content), nil))
	}
}

func newFixtureStore(t *testing.T, ids ...string) *BlobStore {
	t.Helper()

	bucket := memblob.OpenBucket(nil)
	for _, id := range ids {
		writeFixture(t, bucket, id)
	}
	store := NewBlobStore(bucket, testLogger())
	t.Cleanup(func() { store.Close() })
	return store
}
