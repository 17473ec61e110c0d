package abicodec

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tokenABI = `[
	{"type": "constructor", "inputs": [
		{"name": "name", "type": "string"},
		{"name": "supply", "type": "uint256"}
	]},
	{"type": "function", "name": "totalSupply", "inputs": [], "outputs": [{"type": "uint256"}]}
]`

func TestEncodeConstructorArgs(t *testing.T) {
	enc := New()

	data, err := enc.EncodeConstructorArgs(context.Background(), json.RawMessage(tokenABI), []any{"Tok", "1000"})
	require.NoError(t, err)

	want := "0000000000000000000000000000000000000000000000000000000000000040" +
		"00000000000000000000000000000000000000000000000000000000000003e8" +
		"0000000000000000000000000000000000000000000000000000000000000003" +
		"546f6b0000000000000000000000000000000000000000000000000000000000"
	assert.Equal(t, want, hex.EncodeToString(data))
}

func TestEncodeConstructorArgs_Address(t *testing.T) {
	abiJSON := `[{"type":"constructor","inputs":[{"name":"owner","type":"address"}]}]`

	data, err := New().EncodeConstructorArgs(context.Background(), json.RawMessage(abiJSON),
		[]any{"0x5fbdb2315678afecb367f032d93f642f64180aa3"})
	require.NoError(t, err)
	assert.Equal(t, "0000000000000000000000005fbdb2315678afecb367f032d93f642f64180aa3", hex.EncodeToString(data))
}

func TestEncodeConstructorArgs_NoConstructor(t *testing.T) {
	abiJSON := `[{"type":"function","name":"f","inputs":[]}]`

	data, err := New().EncodeConstructorArgs(context.Background(), json.RawMessage(abiJSON), nil)
	require.NoError(t, err)
	assert.Empty(t, data)

	_, err = New().EncodeConstructorArgs(context.Background(), json.RawMessage(abiJSON), []any{"1"})
	assert.Error(t, err)
}

func TestEncodeConstructorArgs_Errors(t *testing.T) {
	tests := []struct {
		name   string
		abi    string
		values []any
	}{
		{"invalid abi", `{not json`, nil},
		{"argument count", tokenABI, []any{"Tok"}},
		{"wrong type", tokenABI, []any{"Tok", "not-a-number"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().EncodeConstructorArgs(context.Background(), json.RawMessage(tt.abi), tt.values)
			assert.Error(t, err)
		})
	}
}
