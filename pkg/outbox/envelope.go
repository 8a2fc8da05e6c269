package outbox

import (
	"encoding/json"
	"time"
)

// EnvelopeVersion is the current envelope schema version.
const EnvelopeVersion = 1

// PayloadEnvelope wraps every outbox payload with the metadata consumers need
// for dedup and ordering. The shape is append-only: fields are added, never
// changed.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}
