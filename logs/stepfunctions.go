package logs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sfn"

	"github.com/enclaveops/enclave-console-backend/interfaces"
	"github.com/enclaveops/enclave-console-backend/metrics"
)

const (
	workflowExecutionLimit = 10
	workflowEventLimit     = 50

	// rawEventTruncateLen bounds the dump of event types the formatting
	// table does not know.
	rawEventTruncateLen = 200
)

// StateMachine names one of the known workflow definitions.
type StateMachine struct {
	// Name is a human label used in the rendered lines ("deploy", "cleanup").
	Name string

	// ARN identifies the state machine.
	ARN string
}

// EventFormatter renders one Step Functions history event as a log line.
type EventFormatter func(event *sfn.HistoryEvent) string

// DefaultEventFormatters is the type-keyed formatting table for execution
// history events. Types missing from the table render as a truncated raw
// dump of the event.
func DefaultEventFormatters() map[string]EventFormatter {
	return map[string]EventFormatter{
		sfn.HistoryEventTypeExecutionStarted: func(e *sfn.HistoryEvent) string {
			return "Execution started"
		},
		sfn.HistoryEventTypeExecutionSucceeded: func(e *sfn.HistoryEvent) string {
			return "Execution completed successfully"
		},
		sfn.HistoryEventTypeExecutionFailed: func(e *sfn.HistoryEvent) string {
			d := e.ExecutionFailedEventDetails
			if d == nil {
				return "Execution failed"
			}
			return fmt.Sprintf("Execution failed: %s - %s", aws.StringValue(d.Error), aws.StringValue(d.Cause))
		},
		sfn.HistoryEventTypeExecutionAborted: func(e *sfn.HistoryEvent) string {
			return "Execution aborted"
		},
		sfn.HistoryEventTypeExecutionTimedOut: func(e *sfn.HistoryEvent) string {
			return "Execution timed out"
		},
		sfn.HistoryEventTypeTaskStateEntered: func(e *sfn.HistoryEvent) string {
			if d := e.StateEnteredEventDetails; d != nil {
				return "Started task: " + aws.StringValue(d.Name)
			}
			return "Started task"
		},
		sfn.HistoryEventTypeTaskStateExited: func(e *sfn.HistoryEvent) string {
			if d := e.StateExitedEventDetails; d != nil {
				return "Completed task: " + aws.StringValue(d.Name)
			}
			return "Completed task"
		},
		sfn.HistoryEventTypeTaskFailed: func(e *sfn.HistoryEvent) string {
			d := e.TaskFailedEventDetails
			if d == nil {
				return "Task failed"
			}
			return fmt.Sprintf("Task failed: %s - %s", aws.StringValue(d.Error), aws.StringValue(d.Cause))
		},
		sfn.HistoryEventTypeLambdaFunctionFailed: func(e *sfn.HistoryEvent) string {
			d := e.LambdaFunctionFailedEventDetails
			if d == nil {
				return "Function failed"
			}
			return fmt.Sprintf("Function failed: %s - %s", aws.StringValue(d.Error), aws.StringValue(d.Cause))
		},
		sfn.HistoryEventTypeLambdaFunctionSucceeded: func(e *sfn.HistoryEvent) string {
			return "Function completed"
		},
	}
}

// WorkflowFetcher reads recent executions of the deploy and cleanup state
// machines and renders their event history for one enclave.
type WorkflowFetcher struct {
	client        SFNClient
	stateMachines []StateMachine
	formatters    map[string]EventFormatter
	log           *slog.Logger
}

// NewWorkflowFetcher creates a workflow-execution fetcher over the given
// state machines. Nil formatters selects DefaultEventFormatters.
func NewWorkflowFetcher(client SFNClient, stateMachines []StateMachine, formatters map[string]EventFormatter, log *slog.Logger) *WorkflowFetcher {
	if formatters == nil {
		formatters = DefaultEventFormatters()
	}
	return &WorkflowFetcher{client: client, stateMachines: stateMachines, formatters: formatters, log: log}
}

// Source identifies this fetcher's records.
func (f *WorkflowFetcher) Source() interfaces.LogSource {
	return interfaces.SourceWorkflow
}

// Fetch returns rendered history events for every recent execution whose
// name contains the enclave id. Backend failures degrade to an empty result.
func (f *WorkflowFetcher) Fetch(ctx context.Context, id interfaces.EnclaveID) []interfaces.LogRecord {
	start := time.Now()

	var records []interfaces.LogRecord
	for _, sm := range f.stateMachines {
		executions, err := f.client.ListExecutionsWithContext(ctx, &sfn.ListExecutionsInput{
			StateMachineArn: aws.String(sm.ARN),
			MaxResults:      aws.Int64(workflowExecutionLimit),
		})
		if err != nil {
			f.fail(id, sm.Name, "list executions", err)
			continue
		}

		for _, execution := range executions.Executions {
			name := aws.StringValue(execution.Name)
			if !strings.Contains(name, id.String()) {
				continue
			}

			history, err := f.client.GetExecutionHistoryWithContext(ctx, &sfn.GetExecutionHistoryInput{
				ExecutionArn: execution.ExecutionArn,
				MaxResults:   aws.Int64(workflowEventLimit),
				ReverseOrder: aws.Bool(true),
			})
			if err != nil {
				f.fail(id, sm.Name, "get execution history", err)
				continue
			}

			for _, event := range history.Events {
				records = append(records, f.renderEvent(sm, name, event))
			}
		}
	}

	f.log.Debug("Fetched workflow logs",
		slog.String("enclave_id", id.String()),
		slog.Int("records", len(records)),
		slog.Duration("duration", time.Since(start)))
	return records
}

func (f *WorkflowFetcher) renderEvent(sm StateMachine, execution string, event *sfn.HistoryEvent) interfaces.LogRecord {
	eventType := aws.StringValue(event.Type)

	var message string
	if format, ok := f.formatters[eventType]; ok {
		message = format(event)
	} else {
		message = truncate(event.String(), rawEventTruncateLen)
	}

	var ts *int64
	if event.Timestamp != nil {
		ts = millis(event.Timestamp.UnixMilli())
	}

	return interfaces.LogRecord{
		Timestamp: ts,
		Message:   fmt.Sprintf("[%s] %s", sm.Name, message),
		Source:    interfaces.SourceWorkflow,
		Stream:    execution,
		Type:      eventType,
	}
}

func (f *WorkflowFetcher) fail(id interfaces.EnclaveID, machine, op string, err error) {
	metrics.FetcherFailuresTotal.WithLabelValues(string(interfaces.SourceWorkflow)).Inc()
	f.log.Warn("Workflow backend call failed",
		slog.String("enclave_id", id.String()),
		slog.String("state_machine", machine),
		slog.String("op", op),
		"err", err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
