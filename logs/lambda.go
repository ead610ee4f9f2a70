package logs

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/cloudwatchlogs"

	"github.com/enclaveops/enclave-console-backend/interfaces"
	"github.com/enclaveops/enclave-console-backend/metrics"
)

const (
	functionWindow     = time.Hour
	functionEventLimit = 100
)

// FunctionGroup describes one known Lambda log group.
type FunctionGroup struct {
	// Name labels records from this group ("deploy", "cleanup", "status-monitor").
	Name string

	// LogGroup is the CloudWatch Logs group the function writes to.
	LogGroup string

	// AllowPhrases, when non-empty, additionally admits entries containing
	// any of these phrases even if they do not mention the enclave id. Used
	// for the status monitor, whose health lines carry no enclave id but are
	// still useful signal.
	AllowPhrases []string
}

// DefaultFunctionGroups returns the fixed set of operational Lambda log
// groups the console surfaces.
func DefaultFunctionGroups() []FunctionGroup {
	return []FunctionGroup{
		{Name: "deploy", LogGroup: "/aws/lambda/enclave-deploy"},
		{Name: "cleanup", LogGroup: "/aws/lambda/enclave-cleanup"},
		{
			Name:     "status-monitor",
			LogGroup: "/aws/lambda/enclave-status-monitor",
			AllowPhrases: []string{
				"Monitoring cycle",
				"Health check",
				"Status update",
				"Heartbeat",
			},
		},
	}
}

// FunctionFetcher reads recent entries from the known Lambda log groups
// within a trailing time window.
type FunctionFetcher struct {
	client CloudWatchLogsClient
	groups []FunctionGroup
	window time.Duration
	now    func() time.Time
	log    *slog.Logger
}

// NewFunctionFetcher creates a function-execution fetcher. Nil groups
// selects DefaultFunctionGroups.
func NewFunctionFetcher(client CloudWatchLogsClient, groups []FunctionGroup, log *slog.Logger) *FunctionFetcher {
	if groups == nil {
		groups = DefaultFunctionGroups()
	}
	return &FunctionFetcher{client: client, groups: groups, window: functionWindow, now: time.Now, log: log}
}

// Source identifies this fetcher's records.
func (f *FunctionFetcher) Source() interfaces.LogSource {
	return interfaces.SourceFunction
}

// Fetch returns the recent entries from every known function log group that
// mention the enclave id or match a group's allow-list. Backend failures
// degrade to an empty result per group.
func (f *FunctionFetcher) Fetch(ctx context.Context, id interfaces.EnclaveID) []interfaces.LogRecord {
	start := f.now()
	since := start.Add(-f.window).UnixMilli()

	var records []interfaces.LogRecord
	for _, group := range f.groups {
		events, err := f.client.FilterLogEventsWithContext(ctx, &cloudwatchlogs.FilterLogEventsInput{
			LogGroupName: aws.String(group.LogGroup),
			StartTime:    aws.Int64(since),
			Limit:        aws.Int64(functionEventLimit),
		})
		if err != nil {
			if !IsResourceNotFound(err) {
				metrics.FetcherFailuresTotal.WithLabelValues(string(interfaces.SourceFunction)).Inc()
				f.log.Warn("Function log backend call failed",
					slog.String("enclave_id", id.String()),
					slog.String("log_group", group.LogGroup),
					"err", err)
			}
			continue
		}

		for _, event := range events.Events {
			message := aws.StringValue(event.Message)
			if !functionRelevant(id, group, message) {
				continue
			}
			records = append(records, interfaces.LogRecord{
				Timestamp: event.Timestamp,
				Message:   message,
				Source:    interfaces.SourceFunction,
				Stream:    aws.StringValue(event.LogStreamName),
				Function:  group.Name,
			})
		}
	}

	f.log.Debug("Fetched function logs",
		slog.String("enclave_id", id.String()),
		slog.Int("records", len(records)),
		slog.Duration("duration", time.Since(start)))
	return records
}

func functionRelevant(id interfaces.EnclaveID, group FunctionGroup, message string) bool {
	if strings.Contains(message, id.String()) {
		return true
	}
	for _, phrase := range group.AllowPhrases {
		if strings.Contains(message, phrase) {
			return true
		}
	}
	return false
}
