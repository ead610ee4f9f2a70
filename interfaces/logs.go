package interfaces

import "fmt"

// LogSource identifies which backend a normalized record came from. The
// values double as the keys of the logs map in API responses.
type LogSource string

const (
	// SourceContainer is the ECS deployment-task log group.
	SourceContainer LogSource = "ecs"

	// SourceWorkflow is Step Functions execution history.
	SourceWorkflow LogSource = "stepfunctions"

	// SourceFunction is the fixed set of Lambda log groups.
	SourceFunction LogSource = "lambda"

	// SourceApplication is the enclave's own guest application log group.
	SourceApplication LogSource = "application"
)

// LogRecord is the normalized schema every source is translated into before
// merging. Records are transient per request and never persisted. There is no
// identity beyond (Source, Stream, Timestamp); overlapping windows may yield
// duplicates and they are not deduplicated.
type LogRecord struct {
	// Timestamp is epoch milliseconds. Some sources cannot supply one; a nil
	// timestamp serializes as null and sorts after every dated record.
	Timestamp *int64 `json:"timestamp"`

	Message string    `json:"message"`
	Source  LogSource `json:"source"`

	// Stream is the backend stream or execution the record came from.
	Stream string `json:"stream,omitempty"`

	// Type carries the workflow event type or application envelope type.
	Type string `json:"type,omitempty"`

	// Function names the Lambda a function-source record came from.
	Function string `json:"function,omitempty"`

	IsPCR     bool `json:"isPCR,omitempty"`
	IsSuccess bool `json:"isSuccess,omitempty"`
	IsError   bool `json:"isError,omitempty"`
}

// SourceFilter selects which sources a log query covers.
type SourceFilter string

const (
	FilterAll         SourceFilter = "all"
	FilterContainer   SourceFilter = SourceFilter(SourceContainer)
	FilterWorkflow    SourceFilter = SourceFilter(SourceWorkflow)
	FilterFunction    SourceFilter = SourceFilter(SourceFunction)
	FilterApplication SourceFilter = SourceFilter(SourceApplication)
	FilterErrors      SourceFilter = "errors"
)

// ParseSourceFilter resolves a query-string filter value, accepting both the
// canonical source keys and their generic aliases.
func ParseSourceFilter(raw string) (SourceFilter, error) {
	switch raw {
	case "", "all":
		return FilterAll, nil
	case "ecs", "container":
		return FilterContainer, nil
	case "stepfunctions", "workflow":
		return FilterWorkflow, nil
	case "lambda", "function":
		return FilterFunction, nil
	case "application":
		return FilterApplication, nil
	case "errors":
		return FilterErrors, nil
	default:
		return "", fmt.Errorf("unknown log type: %q", raw)
	}
}
