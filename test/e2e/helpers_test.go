//go:build e2e

package e2e

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gocloud.dev/blob/memblob"

	"github.com/pendergraft/verifyprep/internal/config"
	"github.com/pendergraft/verifyprep/internal/server"
	"github.com/pendergraft/verifyprep/internal/storage"
)

// TestContext holds shared test infrastructure
type TestContext struct {
	PostgresContainer *postgres.PostgresContainer
	ConnString        string
	TestServer        *httptest.Server
	Store             *storage.SQLStore
}

const (
	deploymentID  = "chain-10"
	mathAddress   = "0x5fbdb2315678afecb367f032d93f642f64180aa3"
	tokenAddress  = "0xe7f1725e7734ce288f8367e1bb143e90bb3f0512"
	fixtureSupply = "1000000000000000000000000"
)

var fixtureFiles = map[string]string{
	"journal.jsonl": `{"chainId":10,"type":"RUN_START"}
{"futureId":"TokenModule#Math","type":"DEPLOYMENT_EXECUTION_STATE_INITIALIZE","futureType":"NAMED_ARTIFACT_LIBRARY_DEPLOYMENT","artifactId":"TokenModule#Math","contractName":"Math","constructorArgs":[],"libraries":{}}
{"futureId":"TokenModule#Math","result":{"type":"SUCCESS","address":"` + mathAddress + `"},"type":"DEPLOYMENT_EXECUTION_STATE_COMPLETE"}
{"futureId":"TokenModule#Token","type":"DEPLOYMENT_EXECUTION_STATE_INITIALIZE","futureType":"NAMED_ARTIFACT_CONTRACT_DEPLOYMENT","artifactId":"TokenModule#Token","contractName":"Token","constructorArgs":[{"_kind":"bigint","value":"` + fixtureSupply + `"}],"libraries":{"Math":"` + mathAddress + `"}}
{"futureId":"TokenModule#Token","result":{"type":"SUCCESS","address":"` + tokenAddress + `"},"type":"DEPLOYMENT_EXECUTION_STATE_COMPLETE"}
{"futureId":"TokenModule#Broken","type":"DEPLOYMENT_EXECUTION_STATE_INITIALIZE","futureType":"NAMED_ARTIFACT_CONTRACT_DEPLOYMENT","artifactId":"TokenModule#Broken","contractName":"Broken","constructorArgs":[],"libraries":{}}
{"futureId":"TokenModule#Broken","result":{"type":"REVERTED_TRANSACTION"},"type":"DEPLOYMENT_EXECUTION_STATE_COMPLETE"}
`,
	"build-info/f00dbabe.json": `{
	"_format": "hh-sol-build-info-1",
	"id": "f00dbabe",
	"solcVersion": "0.8.24",
	"solcLongVersion": "0.8.24+commit.e11b9ed9",
	"input": {
		"language": "Solidity",
		"sources": {
			"contracts/Token.sol": {"content": "import \"./Math.sol\";\ncontract Token {}"},
			"contracts/Math.sol": {"content": "library Math {}"},
			"contracts/Unrelated.sol": {"content": "contract Unrelated {}"}
		},
		"settings": {"optimizer": {"enabled": true, "runs": 200}}
	}
}`,
	"artifacts/TokenModule#Token.json": `{
	"contractName": "Token",
	"sourceName": "contracts/Token.sol",
	"abi": [{"type": "constructor", "inputs": [{"name": "supply", "type": "uint256"}]}],
	"bytecode": "0x6080__$a1b2$__",
	"linkReferences": {"contracts/Math.sol": {"Math": [{"start": 3, "length": 20}]}}
}`,
	"artifacts/TokenModule#Math.json": `{
	"contractName": "Math",
	"sourceName": "contracts/Math.sol",
	"abi": [],
	"bytecode": "0x6080",
	"linkReferences": {}
}`,
	"artifacts/TokenModule#Token.dbg.json": `{"buildInfo": "../build-info/f00dbabe.json"}`,
	"artifacts/TokenModule#Math.dbg.json":  `{"buildInfo": "../build-info/f00dbabe.json"}`,
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupPostgres starts a Postgres container and returns the connection string
func setupPostgres(ctx context.Context) (*postgres.PostgresContainer, string, error) {
	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("verifyprep"),
		postgres.WithUsername("verifyprep"),
		postgres.WithPassword("verifyprep"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	connString, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, "", fmt.Errorf("failed to get postgres connection string: %w", err)
	}

	return container, connString, nil
}

// importFixture writes the fixture deployment to an in-memory bucket and
// snapshots it into Postgres, the way verifyprep-server import does.
func importFixture(ctx context.Context, connString string) (*storage.SQLStore, error) {
	bucket := memblob.OpenBucket(nil)
	for name, content := range fixtureFiles {
		if err := bucket.WriteAll(ctx, deploymentID+"/"+name, []byte(content), nil); err != nil {
			return nil, err
		}
	}
	src := storage.NewBlobStore(bucket, discardLogger())
	defer src.Close()

	store, err := storage.NewPostgresStore(connString, discardLogger())
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	snap, err := src.Snapshot(ctx, deploymentID)
	if err != nil {
		store.Close()
		return nil, err
	}
	if err := store.SaveSnapshot(ctx, snap); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// startServer serves the API from store.
func startServer(ctx context.Context, store storage.Store) (*httptest.Server, error) {
	cfg := &config.Config{
		Storage: config.StorageConfig{
			Type:  "postgres",
			Cache: config.CacheConfig{BuildInfoEntries: 16},
		},
		Security: config.SecurityConfig{FilterEnabled: true},
	}

	srv, err := server.New(ctx, cfg, store, discardLogger())
	if err != nil {
		return nil, err
	}
	return httptest.NewServer(srv.Handler()), nil
}
