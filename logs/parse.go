package logs

import (
	"encoding/json"
	"strings"
	"time"
)

// applicationEnvelope is the structured form guest applications are expected
// to emit. Lines that do not parse as this envelope pass through raw.
type applicationEnvelope struct {
	Type      string          `json:"type"`
	Message   string          `json:"message"`
	Timestamp json.RawMessage `json:"timestamp,omitempty"`
}

// ParseApplicationMessage attempts to decode a guest application log line as
// a structured envelope. On success it returns the envelope type, the inner
// message and the envelope timestamp if one was present; otherwise ok is
// false and the raw line should be used as the message.
func ParseApplicationMessage(raw string) (typ, msg string, ts *int64, ok bool) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return "", "", nil, false
	}

	var env applicationEnvelope
	if err := json.Unmarshal([]byte(trimmed), &env); err != nil || env.Message == "" {
		return "", "", nil, false
	}

	return env.Type, env.Message, parseEnvelopeTimestamp(env.Timestamp), true
}

// parseEnvelopeTimestamp accepts either epoch milliseconds or an RFC 3339
// string. Anything else is treated as absent.
func parseEnvelopeTimestamp(raw json.RawMessage) *int64 {
	if len(raw) == 0 {
		return nil
	}

	var ms int64
	if err := json.Unmarshal(raw, &ms); err == nil {
		return &ms
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return millis(t.UnixMilli())
		}
	}
	return nil
}

// ClassifyApplicationMessage sets the classification flags for a guest
// application record from its envelope type and message text.
func ClassifyApplicationMessage(typ, msg string) (isPCR, isError, isSuccess bool) {
	isPCR = typ == "pcr" || strings.Contains(msg, "[PCR]")
	isError = typ == "error" ||
		strings.Contains(msg, "ERROR") ||
		strings.Contains(msg, "Exception") ||
		strings.Contains(msg, "FATAL")
	isSuccess = typ == "success" || strings.Contains(msg, "[SUCCESS]")
	return isPCR, isError, isSuccess
}
