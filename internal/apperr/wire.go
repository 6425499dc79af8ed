package apperr

import "encoding/json"

// wireName identifies classified errors in serialized form so the receiving
// process can tell them apart from foreign error payloads.
const wireName = "AppError"

// Payload is the plain-data representation of a classified error used for
// transport across the IPC boundary. The wrapped cause is intentionally
// dropped: it exists for in-process diagnostics only.
type Payload struct {
	Name        string         `json:"name"`
	Kind        Kind           `json:"kind"`
	Message     string         `json:"message"`
	Details     map[string]any `json:"details,omitempty"`
	Recoverable bool           `json:"recoverable"`
	Stack       string         `json:"stack,omitempty"`
}

// ToPayload converts the error into its wire representation.
func (e *Error) ToPayload() Payload {
	return Payload{
		Name:        wireName,
		Kind:        e.kind,
		Message:     e.message,
		Details:     e.Details(),
		Recoverable: e.recoverable,
	}
}

// FromPayload reconstructs a classified error from its wire representation.
// Unknown kinds are accepted as-is: a newer peer may emit kinds this build
// does not know about, and the value must still round-trip.
func FromPayload(p Payload) *Error {
	e := &Error{
		kind:        p.Kind,
		message:     p.Message,
		recoverable: p.Recoverable,
	}
	if len(p.Details) > 0 {
		e.details = make(map[string]any, len(p.Details))
		for k, v := range p.Details {
			e.details[k] = v
		}
	}
	return e
}

// MarshalJSON serializes the error as its wire payload.
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.ToPayload())
}

// UnmarshalJSON deserializes a wire payload into the error.
func (e *Error) UnmarshalJSON(data []byte) error {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*e = *FromPayload(p)
	return nil
}
