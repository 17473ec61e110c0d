// Package client provides a Go client for the verifyprep API.
package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client is a verifyprep API client
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// New creates a new verifyprep client
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Chain is a chain the server can prepare payloads for
type Chain struct {
	Network string    `json:"network"`
	ChainID int64     `json:"chainId"`
	URLs    ChainURLs `json:"urls"`
}

// ChainURLs are the verifier endpoints of a chain
type ChainURLs struct {
	APIURL     string `json:"apiURL"`
	BrowserURL string `json:"browserURL"`
}

// Deployment summarizes a stored deployment
type Deployment struct {
	ID        string `json:"id"`
	ChainID   int64  `json:"chainId"`
	Records   int    `json:"records"`
	Contracts int    `json:"contracts"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// VerifyInfo is the payload a block explorer verifier needs for one
// contract
type VerifyInfo struct {
	Address         string `json:"address"`
	CompilerVersion string `json:"compilerVersion"`
	SourceCode      string `json:"sourceCode"`
	Name            string `json:"name"`
	Args            string `json:"args"`
}

// Verification pairs a prepared payload with the chain it targets
type Verification struct {
	Chain Chain      `json:"chain"`
	Info  VerifyInfo `json:"info"`
}

// APIError represents an API error response
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Chains lists the chains the server knows, custom chains first.
func (c *Client) Chains(ctx context.Context) ([]Chain, error) {
	var resp struct {
		Data []Chain `json:"data"`
	}
	if err := c.get(ctx, "/api/v1/chains", &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// ListDeployments lists the deployments the server can prepare.
func (c *Client) ListDeployments(ctx context.Context) ([]Deployment, error) {
	var resp struct {
		Data []Deployment `json:"data"`
	}
	if err := c.get(ctx, "/api/v1/deployments", &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// PrepareOptions tunes a PrepareVerification call
type PrepareOptions struct {
	// IncludeUnrelated keeps every source of the build info instead of
	// only the contract's import closure. Nil uses the server default.
	IncludeUnrelated *bool
}

// PrepareVerification requests the verification payloads of a deployment.
// Errors about the deployment as a whole are returned directly. The
// sequence then yields payloads as the server streams them; a failure part
// way through is yielded once and ends the sequence.
//
// The response body stays open until the sequence is ranged over to the end
// or broken out of, or until ctx is done. Callers that may drop the sequence
// without ranging over it must cancel ctx.
func (c *Client) PrepareVerification(ctx context.Context, deploymentID string, opts PrepareOptions) (iter.Seq2[*Verification, error], error) {
	u := c.baseURL + "/api/v1/deployments/" + url.PathEscape(deploymentID) + "/verification"
	if opts.IncludeUnrelated != nil {
		u += "?includeUnrelated=" + strconv.FormatBool(*opts.IncludeUnrelated)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/x-ndjson")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, c.parseError(resp)
	}

	stop := context.AfterFunc(ctx, func() { resp.Body.Close() })

	return func(yield func(*Verification, error) bool) {
		defer func() {
			stop()
			resp.Body.Close()
		}()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			var msg struct {
				Verification
				Error *APIError `json:"error"`
			}
			if err := json.Unmarshal(line, &msg); err != nil {
				yield(nil, fmt.Errorf("decoding verification: %w", err))
				return
			}
			if msg.Error != nil {
				msg.Error.Status = resp.StatusCode
				yield(nil, msg.Error)
				return
			}

			v := msg.Verification
			if !yield(&v, nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield(nil, fmt.Errorf("reading verification stream: %w", err))
		}
	}, nil
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.parseError(resp)
	}

	return json.NewDecoder(resp.Body).Decode(result)
}

func (c *Client) parseError(resp *http.Response) error {
	var errResp struct {
		Error APIError `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil || errResp.Error.Code == "" {
		return &APIError{Status: resp.StatusCode, Code: "HTTP_ERROR", Message: resp.Status}
	}
	errResp.Error.Status = resp.StatusCode
	return &errResp.Error
}
