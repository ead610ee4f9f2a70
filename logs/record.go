package logs

import (
	"math"
	"sort"

	"github.com/enclaveops/enclave-console-backend/interfaces"
)

// DefaultLimit is applied when a caller does not bound the merged output.
const DefaultLimit = 100

// Merge concatenates the given record groups, sorts the result by timestamp
// in non-increasing order and truncates it to limit. Records without a
// timestamp are treated as older than every dated record and therefore sort
// last. The sort is stable, so records that tie on timestamp keep their
// fetch order.
func Merge(limit int, groups ...[]interfaces.LogRecord) []interfaces.LogRecord {
	if limit <= 0 {
		limit = DefaultLimit
	}

	total := 0
	for _, g := range groups {
		total += len(g)
	}
	merged := make([]interfaces.LogRecord, 0, total)
	for _, g := range groups {
		merged = append(merged, g...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return sortKey(merged[i]) > sortKey(merged[j])
	})

	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

func sortKey(r interfaces.LogRecord) int64 {
	if r.Timestamp == nil {
		return math.MinInt64
	}
	return *r.Timestamp
}

// millis returns a pointer to an epoch-milliseconds value, the form
// LogRecord.Timestamp takes.
func millis(ms int64) *int64 {
	return &ms
}
