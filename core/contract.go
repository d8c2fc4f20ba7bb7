package core

import "encoding/json"

// Contract is a deployed contract known to a network.
type Contract struct {
	Address string          `json:"address"`
	Name    string          `json:"name"`
	ABI     json.RawMessage `json:"abi,omitempty"`
	Code    []byte          `json:"-"`
}
