package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const streamLine = `{"chain":{"network":"optimism","chainId":10,"urls":{"apiURL":"https://api-optimistic.etherscan.io/api","browserURL":"https://optimistic.etherscan.io"}},"info":{"address":"0x5fbdb2315678afecb367f032d93f642f64180aa3","compilerVersion":"v0.8.24+commit.e11b9ed9","sourceCode":"{}","name":"contracts/%s.sol:%s","args":""}}`

func TestClient_Chains(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/chains", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		fmt.Fprint(w, `{"data":[{"network":"mainnet","chainId":1,"urls":{"apiURL":"https://api.etherscan.io/api","browserURL":"https://etherscan.io"}}]}`)
	}))
	defer server.Close()

	chains, err := New(server.URL).Chains(context.Background())
	require.NoError(t, err)
	require.Len(t, chains, 1)
	assert.Equal(t, "mainnet", chains[0].Network)
	assert.Equal(t, int64(1), chains[0].ChainID)
	assert.Equal(t, "https://etherscan.io", chains[0].URLs.BrowserURL)
}

func TestClient_ListDeployments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/deployments", r.URL.Path)
		fmt.Fprint(w, `{"data":[{"id":"chain-10","chainId":10,"records":4,"contracts":3}]}`)
	}))
	defer server.Close()

	deployments, err := New(server.URL).ListDeployments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Deployment{{ID: "chain-10", ChainID: 10, Records: 4, Contracts: 3}}, deployments)
}

func TestClient_PrepareVerification(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/deployments/chain-10/verification", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("includeUnrelated"))
		w.Header().Set("Content-Type", "application/x-ndjson")
		fmt.Fprintf(w, streamLine+"\n", "Math", "Math")
		fmt.Fprintf(w, streamLine+"\n", "Token", "Token")
	}))
	defer server.Close()

	include := true
	seq, err := New(server.URL).PrepareVerification(context.Background(), "chain-10", PrepareOptions{IncludeUnrelated: &include})
	require.NoError(t, err)

	var names []string
	for v, err := range seq {
		require.NoError(t, err)
		assert.Equal(t, int64(10), v.Chain.ChainID)
		names = append(names, v.Info.Name)
	}
	assert.Equal(t, []string{"contracts/Math.sol:Math", "contracts/Token.sol:Token"}, names)
}

func TestClient_PrepareVerification_DefaultOmitsQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
	}))
	defer server.Close()

	seq, err := New(server.URL).PrepareVerification(context.Background(), "chain-10", PrepareOptions{})
	require.NoError(t, err)
	for range seq {
		t.Fatal("empty stream yielded")
	}
}

func TestClient_PrepareVerification_StreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, streamLine+"\n", "Math", "Math")
		fmt.Fprintln(w, `{"error":{"code":"INTERNAL_ERROR","message":"reading build info"}}`)
		fmt.Fprintf(w, streamLine+"\n", "Token", "Token")
	}))
	defer server.Close()

	seq, err := New(server.URL).PrepareVerification(context.Background(), "chain-10", PrepareOptions{})
	require.NoError(t, err)

	var results, errs int
	var last error
	for v, err := range seq {
		if err != nil {
			errs++
			last = err
			continue
		}
		assert.NotNil(t, v)
		results++
	}
	assert.Equal(t, 1, results)
	assert.Equal(t, 1, errs)

	var apiErr *APIError
	require.True(t, errors.As(last, &apiErr))
	assert.Equal(t, "INTERNAL_ERROR", apiErr.Code)
}

func TestClient_PrepareVerification_EarlyBreak(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for i := 0; i < 5; i++ {
			fmt.Fprintf(w, streamLine+"\n", "Math", "Math")
		}
	}))
	defer server.Close()

	seq, err := New(server.URL).PrepareVerification(context.Background(), "chain-10", PrepareOptions{})
	require.NoError(t, err)

	n := 0
	for range seq {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestClient_PrepareVerification_CancelReleasesUnrangedStream(t *testing.T) {
	released := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, streamLine+"\n", "Math", "Math")
		http.NewResponseController(w).Flush()
		<-r.Context().Done()
		close(released)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	seq, err := New(server.URL).PrepareVerification(ctx, "chain-10", PrepareOptions{})
	require.NoError(t, err)
	require.NotNil(t, seq)

	cancel()

	select {
	case <-released:
	case <-time.After(5 * time.Second):
		t.Fatal("connection was not released after cancel")
	}
}

func TestClient_PrepareVerification_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode string
		notFound bool
	}{
		{"not found", http.StatusNotFound, `{"error":{"code":"DEPLOYMENT_NOT_FOUND","message":"deployment \"chain-5\" is not initialized"}}`, "DEPLOYMENT_NOT_FOUND", true},
		{"unsupported chain", http.StatusUnprocessableEntity, `{"error":{"code":"UNSUPPORTED_CHAIN","message":"chain 31337 is not supported"}}`, "UNSUPPORTED_CHAIN", false},
		{"no body", http.StatusBadGateway, ``, "HTTP_ERROR", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			seq, err := New(server.URL).PrepareVerification(context.Background(), "chain-5", PrepareOptions{})
			require.Error(t, err)
			assert.Nil(t, seq)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.notFound, IsNotFound(err))
		})
	}
}

func TestVerification_JSONShape(t *testing.T) {
	var v Verification
	require.NoError(t, json.Unmarshal([]byte(fmt.Sprintf(streamLine, "Math", "Math")), &v))
	assert.Equal(t, "optimism", v.Chain.Network)
	assert.Equal(t, "v0.8.24+commit.e11b9ed9", v.Info.CompilerVersion)
}
