// Package transport provides HTTP request/response types for the verification domain.
package transport

import (
	"github.com/pendergraft/verifyprep/internal/chains"
	"github.com/pendergraft/verifyprep/internal/storage"
)

// ChainsResponse is the response for the chain list.
type ChainsResponse struct {
	Data []chains.ChainConfig `json:"data"`
}

// DeploymentsResponse is the response for the deployment list.
type DeploymentsResponse struct {
	Data []storage.Summary `json:"data"`
}

// ErrorResponse is the standard error response format. It is also the last
// line of a verification stream that failed part way.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
