// Package abicodec ABI-encodes constructor arguments for verification
// payloads.
package abicodec

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hyperledger/firefly-signer/pkg/abi"
)

// Encoder encodes constructor argument values against a contract ABI.
type Encoder interface {
	EncodeConstructorArgs(ctx context.Context, contractABI json.RawMessage, values []any) ([]byte, error)
}

type encoder struct{}

// New creates an Encoder backed by the firefly-signer ABI codec.
func New() Encoder {
	return encoder{}
}

// EncodeConstructorArgs returns the ABI encoding of values as the
// constructor's parameter tuple. A contract without a constructor, or with
// a constructor that takes no parameters, encodes to an empty byte slice.
func (encoder) EncodeConstructorArgs(ctx context.Context, contractABI json.RawMessage, values []any) ([]byte, error) {
	var parsed abi.ABI
	if err := json.Unmarshal(contractABI, &parsed); err != nil {
		return nil, fmt.Errorf("parsing ABI: %w", err)
	}

	ctor := parsed.Constructor()
	if ctor == nil || len(ctor.Inputs) == 0 {
		if len(values) > 0 {
			return nil, fmt.Errorf("constructor takes no arguments, got %d", len(values))
		}
		return []byte{}, nil
	}

	if len(values) != len(ctor.Inputs) {
		return nil, fmt.Errorf("constructor takes %d arguments, got %d", len(ctor.Inputs), len(values))
	}

	args, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("encoding argument values: %w", err)
	}

	data, err := ctor.Inputs.EncodeABIDataJSONCtx(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("encoding constructor arguments: %w", err)
	}
	return data, nil
}
