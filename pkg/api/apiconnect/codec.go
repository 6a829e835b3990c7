// Package apiconnect wires the mypeeps.v1 services to Connect handlers and
// clients.
//
// The messages in package api are plain Go structs, so both sides replace
// Connect's protobuf-based "json" codec with Codec, which uses encoding/json.
package apiconnect

import (
	"encoding/json"
	"fmt"
)

// Codec marshals messages as JSON. It registers under Connect's "json"
// name, so clients send and handlers accept application/json.
type Codec struct{}

// Name implements connect.Codec.
func (Codec) Name() string { return "json" }

// Marshal implements connect.Codec.
func (Codec) Marshal(msg any) ([]byte, error) {
	b, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", msg, err)
	}
	return b, nil
}

// Unmarshal implements connect.Codec. An empty body decodes to the zero message.
func (Codec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("unmarshal into %T: %w", msg, err)
	}
	return nil
}
