package deployment

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// JournalFile is the name of the journal inside a deployment directory.
const JournalFile = "journal.jsonl"

const maxJournalLine = 16 << 20

const (
	msgRunStart             = "RUN_START"
	msgDeploymentInitialize = "DEPLOYMENT_INITIALIZE"
	msgWipeApply            = "WIPE_APPLY"
	msgOnchainTimeout       = "ONCHAIN_INTERACTION_TIMEOUT"
	suffixStateInitialize   = "_EXECUTION_STATE_INITIALIZE"
	suffixStateComplete     = "_EXECUTION_STATE_COMPLETE"
)

type journalMessage struct {
	Type            string            `json:"type"`
	ChainID         int64             `json:"chainId"`
	FutureID        string            `json:"futureId"`
	FutureType      string            `json:"futureType"`
	ArtifactID      string            `json:"artifactId"`
	ContractName    string            `json:"contractName"`
	ConstructorArgs []any             `json:"constructorArgs"`
	Libraries       map[string]string `json:"libraries"`
	From            string            `json:"from"`
	Result          *journalResult    `json:"result"`
}

type journalResult struct {
	Type    ResultType      `json:"type"`
	Address string          `json:"address"`
	Error   json.RawMessage `json:"error"`
}

// ReplayJournal rebuilds a deployment's execution record from its journal.
// Execution states are ordered by their first initialization message. A
// journal without any messages yields ErrNotFound.
func ReplayJournal(r io.Reader) (*State, error) {
	state := &State{}
	index := make(map[string]int)
	messages := 0

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxJournalLine)

	for line := 1; scanner.Scan(); line++ {
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var msg journalMessage
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&msg); err != nil {
			return nil, fmt.Errorf("journal line %d: %w", line, err)
		}
		messages++

		if err := apply(state, index, &msg); err != nil {
			return nil, fmt.Errorf("journal line %d: %w", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading journal: %w", err)
	}

	if messages == 0 {
		return nil, fmt.Errorf("%w: empty journal", ErrNotFound)
	}
	return state, nil
}

func apply(state *State, index map[string]int, msg *journalMessage) error {
	switch {
	case msg.Type == msgRunStart || msg.Type == msgDeploymentInitialize:
		state.ChainID = msg.ChainID

	case msg.Type == msgWipeApply:
		i, ok := index[msg.FutureID]
		if !ok {
			return nil
		}
		state.ExecutionStates = append(state.ExecutionStates[:i], state.ExecutionStates[i+1:]...)
		delete(index, msg.FutureID)
		for id, j := range index {
			if j > i {
				index[id] = j - 1
			}
		}

	case msg.Type == msgOnchainTimeout:
		if i, ok := index[msg.FutureID]; ok {
			state.ExecutionStates[i].Status = StatusTimeout
		}

	case strings.HasSuffix(msg.Type, suffixStateInitialize):
		if _, ok := index[msg.FutureID]; ok {
			return fmt.Errorf("execution state %s initialized twice", msg.FutureID)
		}
		es := ExecutionState{
			ID:              msg.FutureID,
			Type:            ExecutionStateType(strings.TrimSuffix(msg.Type, "_INITIALIZE")),
			Status:          StatusStarted,
			FutureType:      msg.FutureType,
			ArtifactID:      msg.ArtifactID,
			ContractName:    msg.ContractName,
			ConstructorArgs: decodeValues(msg.ConstructorArgs),
			Libraries:       msg.Libraries,
			From:            msg.From,
		}
		// These never touch the chain and are complete once recorded.
		switch es.Type {
		case TypeContractAt, TypeReadEventArgument, TypeEncodeFunctionCall:
			es.Status = StatusSuccess
		}
		index[msg.FutureID] = len(state.ExecutionStates)
		state.ExecutionStates = append(state.ExecutionStates, es)

	case strings.HasSuffix(msg.Type, suffixStateComplete):
		i, ok := index[msg.FutureID]
		if !ok {
			return fmt.Errorf("completion for unknown execution state %s", msg.FutureID)
		}
		if msg.Result == nil {
			return fmt.Errorf("completion for %s has no result", msg.FutureID)
		}
		es := &state.ExecutionStates[i]
		es.Result = &Result{
			Type:    msg.Result.Type,
			Address: msg.Result.Address,
			Error:   errorText(msg.Result.Error),
		}
		switch msg.Result.Type {
		case ResultSuccess:
			es.Status = StatusSuccess
		case ResultStrategyHeld:
			es.Status = StatusHeld
		default:
			es.Status = StatusFailed
		}
	}

	return nil
}

// decodeValues replaces Ignition's bigint encoding
// {"_kind":"bigint","value":"123"} with the decimal string.
func decodeValues(values []any) []any {
	if values == nil {
		return nil
	}
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = decodeValue(v)
	}
	return out
}

func decodeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		if kind, _ := val["_kind"].(string); kind == "bigint" {
			switch n := val["value"].(type) {
			case string:
				return n
			case json.Number:
				return n.String()
			}
		}
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = decodeValue(inner)
		}
		return out
	case []any:
		return decodeValues(val)
	default:
		return v
	}
}

func errorText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
