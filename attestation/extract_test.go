package attestation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePCRLine(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantIndex int
		wantValue string
		wantOK    bool
	}{
		{name: "marker prefix", line: "[PCR] PCR0: abcd1234", wantIndex: 0, wantValue: "abcd1234", wantOK: true},
		{name: "bare legacy form", line: "PCR8: DEADbeef00", wantIndex: 8, wantValue: "DEADbeef00", wantOK: true},
		{name: "embedded in text", line: "measurement published PCR2: ff00ff00 for boot", wantIndex: 2, wantValue: "ff00ff00", wantOK: true},
		{name: "marker with extra spacing", line: "[PCR]   PCR1:   0123abcd", wantIndex: 1, wantValue: "0123abcd", wantOK: true},
		{name: "non-canonical register", line: "PCR3: abcd1234", wantOK: false},
		{name: "non-canonical two digit", line: "PCR15: abcd1234", wantOK: false},
		{name: "no marker", line: "server listening on :8080", wantOK: false},
		{name: "missing value", line: "PCR0:", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			index, value, ok := ParsePCRLine(tt.line)
			require.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			assert.Equal(t, tt.wantIndex, index)
			assert.Equal(t, tt.wantValue, value)
		})
	}
}
