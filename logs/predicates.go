package logs

import (
	"strings"

	"github.com/enclaveops/enclave-console-backend/interfaces"
)

// ErrorPredicate decides whether a normalized record belongs in the errors
// view. Predicates are values rather than inline conditionals so per-source
// tuning is testable in isolation.
type ErrorPredicate func(interfaces.LogRecord) bool

// DefaultErrorPredicates returns the per-source error predicates.
//
// The heuristics are deliberately approximate: each backend has its own
// failure vocabulary and none emits a machine-readable severity, so the
// predicates match the phrases the backends are known to produce.
func DefaultErrorPredicates() map[interfaces.LogSource]ErrorPredicate {
	return map[interfaces.LogSource]ErrorPredicate{
		interfaces.SourceWorkflow:    workflowErrorPredicate,
		interfaces.SourceFunction:    functionErrorPredicate,
		interfaces.SourceContainer:   containerErrorPredicate,
		interfaces.SourceApplication: applicationErrorPredicate,
	}
}

func workflowErrorPredicate(r interfaces.LogRecord) bool {
	if strings.Contains(r.Type, "Failed") || strings.Contains(r.Type, "Error") {
		return true
	}
	return strings.Contains(r.Message, "❌") || strings.Contains(r.Message, "failed")
}

func functionErrorPredicate(r interfaces.LogRecord) bool {
	return containsAny(r.Message, "ERROR", "Exception", "Failed", "Error:")
}

func containerErrorPredicate(r interfaces.LogRecord) bool {
	if containsAny(r.Message, "Error:", "FAILED", "ERROR", "Exception") {
		return true
	}
	lower := strings.ToLower(r.Message)
	// "no error(s) detected" style status lines are not failures.
	return strings.Contains(lower, "error") && !strings.Contains(lower, "no error")
}

func applicationErrorPredicate(r interfaces.LogRecord) bool {
	if r.IsError {
		return true
	}
	return containsAny(r.Message, "ERROR", "Exception", "Error:", "FATAL")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
