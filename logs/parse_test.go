package logs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseApplicationMessage(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantOK   bool
		wantType string
		wantMsg  string
		wantTS   *int64
	}{
		{
			name:     "envelope with millis timestamp",
			raw:      `{"type":"info","message":"server listening","timestamp":1700000000000}`,
			wantOK:   true,
			wantType: "info",
			wantMsg:  "server listening",
			wantTS:   millis(1700000000000),
		},
		{
			name:     "envelope with RFC3339 timestamp",
			raw:      `{"type":"error","message":"boom","timestamp":"2023-11-14T22:13:20Z"}`,
			wantOK:   true,
			wantType: "error",
			wantMsg:  "boom",
			wantTS:   millis(1700000000000),
		},
		{
			name:     "envelope without timestamp",
			raw:      `{"type":"pcr","message":"PCR0: abcd"}`,
			wantOK:   true,
			wantType: "pcr",
			wantMsg:  "PCR0: abcd",
		},
		{
			name:     "unparseable timestamp treated as absent",
			raw:      `{"type":"info","message":"hello","timestamp":"yesterday"}`,
			wantOK:   true,
			wantType: "info",
			wantMsg:  "hello",
		},
		{
			name:   "plain text line",
			raw:    "2023/11/14 server listening on :8080",
			wantOK: false,
		},
		{
			name:   "json without message field",
			raw:    `{"type":"info"}`,
			wantOK: false,
		},
		{
			name:   "malformed json",
			raw:    `{"type":`,
			wantOK: false,
		},
		{
			name:     "leading whitespace tolerated",
			raw:      `   {"message":"padded"}`,
			wantOK:   true,
			wantType: "",
			wantMsg:  "padded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ, msg, ts, ok := ParseApplicationMessage(tt.raw)
			require.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			assert.Equal(t, tt.wantType, typ)
			assert.Equal(t, tt.wantMsg, msg)
			if tt.wantTS == nil {
				assert.Nil(t, ts)
			} else {
				require.NotNil(t, ts)
				assert.Equal(t, *tt.wantTS, *ts)
			}
		})
	}
}

func TestClassifyApplicationMessage(t *testing.T) {
	tests := []struct {
		name        string
		typ         string
		msg         string
		wantPCR     bool
		wantError   bool
		wantSuccess bool
	}{
		{name: "pcr type", typ: "pcr", msg: "PCR0: abcd", wantPCR: true},
		{name: "pcr marker in text", msg: "[PCR] PCR8: ffff", wantPCR: true},
		{name: "error type", typ: "error", msg: "something broke", wantError: true},
		{name: "uppercase error keyword", msg: "ERROR connecting upstream", wantError: true},
		{name: "exception keyword", msg: "Unhandled Exception in worker", wantError: true},
		{name: "fatal keyword", msg: "FATAL: out of memory", wantError: true},
		{name: "success type", typ: "success", msg: "ready", wantSuccess: true},
		{name: "success marker", msg: "[SUCCESS] deployment complete", wantSuccess: true},
		{name: "plain info", typ: "info", msg: "server listening"},
		{name: "lowercase error not flagged", msg: "retrying after transient error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isPCR, isError, isSuccess := ClassifyApplicationMessage(tt.typ, tt.msg)
			assert.Equal(t, tt.wantPCR, isPCR, "isPCR")
			assert.Equal(t, tt.wantError, isError, "isError")
			assert.Equal(t, tt.wantSuccess, isSuccess, "isSuccess")
		})
	}
}
