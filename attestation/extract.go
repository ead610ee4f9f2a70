package attestation

import (
	"regexp"
	"strconv"
)

// CanonicalPCRIndices are the measurement registers the guest publishes:
// image (0), kernel (1), application (2) and signing certificate (8).
var CanonicalPCRIndices = []int{0, 1, 2, 8}

// pcrPattern matches a measurement marker line. The "[PCR]" prefix is the
// current guest format; the bare "PCRn:" form is still accepted for older
// guest images.
var pcrPattern = regexp.MustCompile(`(?:\[PCR\]\s*)?PCR(\d+):\s*([0-9a-fA-F]+)`)

// ParsePCRLine extracts a register index and hex value from one log line.
// ok is false when the line carries no marker or names a register outside
// the canonical set.
func ParsePCRLine(line string) (index int, value string, ok bool) {
	m := pcrPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, "", false
	}

	index, err := strconv.Atoi(m[1])
	if err != nil || !canonicalIndex(index) {
		return 0, "", false
	}
	return index, m[2], true
}

func canonicalIndex(index int) bool {
	for _, i := range CanonicalPCRIndices {
		if i == index {
			return true
		}
	}
	return false
}
