package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"

	"github.com/pendergraft/verifyprep/internal/chains"
	"github.com/pendergraft/verifyprep/internal/config"
	"github.com/pendergraft/verifyprep/internal/storage"
)

var deploymentFiles = map[string]string{
	"chain-31337/journal.jsonl": `{"chainId":31337,"type":"RUN_START"}
{"futureId":"M#Counter","type":"DEPLOYMENT_EXECUTION_STATE_INITIALIZE","futureType":"NAMED_ARTIFACT_CONTRACT_DEPLOYMENT","artifactId":"M#Counter","contractName":"Counter","constructorArgs":[],"libraries":{}}
{"futureId":"M#Counter","result":{"type":"SUCCESS","address":"0x5fbdb2315678afecb367f032d93f642f64180aa3"},"type":"DEPLOYMENT_EXECUTION_STATE_COMPLETE"}
`,
	"chain-31337/build-info/c0ffee.json": `{
		"_format": "hh-sol-build-info-1",
		"id": "c0ffee",
		"solcVersion": "0.8.24",
		"solcLongVersion": "0.8.24+commit.e11b9ed9",
		"input": {
			"language": "Solidity",
			"sources": {
				"contracts/Counter.sol": {"content": "contract Counter {}"},
				"contracts/Other.sol": {"content": "contract Other {}"}
			},
			"settings": {}
		}
	}`,
	"chain-31337/artifacts/M#Counter.json":     `{"contractName": "Counter", "sourceName": "contracts/Counter.sol", "abi": [], "bytecode": "0x00", "linkReferences": {}}`,
	"chain-31337/artifacts/M#Counter.dbg.json": `{"buildInfo": "../build-info/c0ffee.json"}`,
}

func testConfig() *config.Config {
	return &config.Config{
		Storage: config.StorageConfig{
			Type:  "blob",
			Cache: config.CacheConfig{BuildInfoEntries: 4},
		},
		Verification: config.VerificationConfig{
			CustomChains: []chains.ChainConfig{{
				Network: "hardhat",
				ChainID: 31337,
				URLs:    chains.URLs{APIURL: "http://localhost/api", BrowserURL: "http://localhost"},
			}},
		},
		Security: config.SecurityConfig{FilterEnabled: true},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()

	bucket := memblob.OpenBucket(nil)
	for key, content := range deploymentFiles {
		require.NoError(t, bucket.WriteAll(context.Background(), key, []byte(content), nil))
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := storage.NewBlobStore(bucket, logger)
	t.Cleanup(func() { store.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv, err := New(ctx, cfg, store, logger)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t, testConfig())

	for _, path := range []string{"/health", "/healthz", "/readyz"} {
		t.Run(path, func(t *testing.T) {
			resp := get(t, ts.URL+path)
			assert.Equal(t, http.StatusOK, resp.StatusCode)

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, "ok", body["status"])
		})
	}
}

func TestPrepareVerification(t *testing.T) {
	ts := newTestServer(t, testConfig())

	resp := get(t, ts.URL+"/api/v1/deployments/chain-31337/verification")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/x-ndjson", resp.Header.Get("Content-Type"))

	var lines []map[string]any
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		var line map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		lines = append(lines, line)
	}
	require.NoError(t, scanner.Err())
	require.Len(t, lines, 1)

	chain := lines[0]["chain"].(map[string]any)
	assert.Equal(t, "hardhat", chain["network"])

	info := lines[0]["info"].(map[string]any)
	assert.Equal(t, "0x5fbdb2315678afecb367f032d93f642f64180aa3", info["address"])
	assert.Equal(t, "v0.8.24+commit.e11b9ed9", info["compilerVersion"])
	assert.Equal(t, "contracts/Counter.sol:Counter", info["name"])
	assert.NotContains(t, info["sourceCode"], "contracts/Other.sol")
}

func TestPrepareVerification_UnsupportedChain(t *testing.T) {
	cfg := testConfig()
	cfg.Verification.CustomChains = nil
	ts := newTestServer(t, cfg)

	resp := get(t, ts.URL+"/api/v1/deployments/chain-31337/verification")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestPrepareVerification_UnknownDeployment(t *testing.T) {
	ts := newTestServer(t, testConfig())

	resp := get(t, ts.URL+"/api/v1/deployments/chain-5/verification")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListDeployments(t *testing.T) {
	ts := newTestServer(t, testConfig())

	resp := get(t, ts.URL+"/api/v1/deployments")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data []storage.Summary `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "chain-31337", body.Data[0].ID)
	assert.Equal(t, 1, body.Data[0].Contracts)
}

func TestChains_IncludesCustom(t *testing.T) {
	ts := newTestServer(t, testConfig())

	resp := get(t, ts.URL+"/api/v1/chains")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data []chains.ChainConfig `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, int64(31337), body.Data[0].ChainID)
	assert.Greater(t, len(body.Data), 1)
}

func TestSecurityFilter_BlocksTraversal(t *testing.T) {
	ts := newTestServer(t, testConfig())

	resp := get(t, ts.URL+"/api/v1/deployments/..%2f..%2fetc/verification")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCORS_Preflight(t *testing.T) {
	ts := newTestServer(t, testConfig())

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/v1/chains", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.True(t, strings.Contains(resp.Header.Get("Access-Control-Allow-Methods"), "GET"))
}
