package proto

import (
	"encoding/json"
	"fmt"
)

// Envelope is one decoded wire frame, or one element of a batch frame. Data
// stays raw until the router knows which payload type applies.
type Envelope struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

// Kind maps the envelope's type string onto the closed event-kind enum.
func (e Envelope) Kind() EventKind {
	return KindFromType(e.Type)
}

// Decode parses an inbound text frame. A decode failure is local to the
// frame: callers log it and continue with the next frame.
func Decode(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode frame: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("decode frame: missing type")
	}
	return env, nil
}

// BatchPayload is the data shape of a batch_update envelope.
type BatchPayload struct {
	Events []Envelope `json:"events"`
}

// DecodeBatch expands a batch_update envelope into its sub-envelopes.
func DecodeBatch(env Envelope) ([]Envelope, error) {
	var batch BatchPayload
	if err := json.Unmarshal(env.Data, &batch); err != nil {
		return nil, fmt.Errorf("decode batch payload: %w", err)
	}
	return batch.Events, nil
}

// UnmarshalPayload decodes an envelope's data into the payload type for its
// kind. It exists so reducers share one error-wrapping path.
func UnmarshalPayload(env Envelope, dst any) error {
	if len(env.Data) == 0 {
		return fmt.Errorf("decode %s payload: empty data", env.Type)
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		return fmt.Errorf("decode %s payload: %w", env.Type, err)
	}
	return nil
}
