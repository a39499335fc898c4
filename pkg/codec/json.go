// Package codec provides the Connect JSON codec for plain Go request and
// response structs.
package codec

import (
	"fmt"

	"github.com/goccy/go-json"
)

// JSON replaces Connect's protojson codec under the "json" name, so the
// standard application/json and application/connect+json content types work
// with ordinary structs.
type JSON struct{}

// Name implements connect.Codec.
func (JSON) Name() string { return "json" }

// Marshal implements connect.Codec.
func (JSON) Marshal(msg any) ([]byte, error) {
	b, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", msg, err)
	}
	return b, nil
}

// Unmarshal implements connect.Codec. An empty body decodes to the zero message.
func (JSON) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("unmarshal into %T: %w", msg, err)
	}
	return nil
}
