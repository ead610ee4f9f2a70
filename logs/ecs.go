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
	// DefaultContainerLogGroup is the shared log group ECS deployment tasks
	// write to. All enclaves share it, hence the relevance filtering below.
	DefaultContainerLogGroup = "/ecs/enclave-deployments"

	containerStreamLimit     = 5
	containerEventsPerStream = 50
)

// RelevancePredicate decides whether a raw backend message concerns the
// given enclave. Kept as a value for testable tuning.
type RelevancePredicate func(id interfaces.EnclaveID, message string) bool

// DefaultContainerRelevance keeps messages that mention the enclave id, carry
// the enclave marker token, or look like deployment-tool chatter. The log
// group is shared by concurrent deployments, so anything else is noise from
// other enclaves.
func DefaultContainerRelevance(id interfaces.EnclaveID, message string) bool {
	if strings.Contains(message, id.String()) {
		return true
	}
	if strings.Contains(message, "[ENCLAVE]") {
		return true
	}
	return containsAny(message, "pulumi", "terraform", "Deployment")
}

// ContainerFetcher reads the most recent ECS deployment task streams and
// keeps the entries relevant to one enclave.
type ContainerFetcher struct {
	client   CloudWatchLogsClient
	logGroup string
	relevant RelevancePredicate
	log      *slog.Logger
}

// NewContainerFetcher creates a container-execution fetcher over the given
// log group. A nil relevance predicate selects DefaultContainerRelevance.
func NewContainerFetcher(client CloudWatchLogsClient, logGroup string, relevant RelevancePredicate, log *slog.Logger) *ContainerFetcher {
	if logGroup == "" {
		logGroup = DefaultContainerLogGroup
	}
	if relevant == nil {
		relevant = DefaultContainerRelevance
	}
	return &ContainerFetcher{client: client, logGroup: logGroup, relevant: relevant, log: log}
}

// Source identifies this fetcher's records.
func (f *ContainerFetcher) Source() interfaces.LogSource {
	return interfaces.SourceContainer
}

// Fetch returns the relevant records for id. Backend failures degrade to an
// empty result; they are logged and counted but never propagate.
func (f *ContainerFetcher) Fetch(ctx context.Context, id interfaces.EnclaveID) []interfaces.LogRecord {
	start := time.Now()

	streams, err := f.client.DescribeLogStreamsWithContext(ctx, &cloudwatchlogs.DescribeLogStreamsInput{
		LogGroupName: aws.String(f.logGroup),
		OrderBy:      aws.String(cloudwatchlogs.OrderByLastEventTime),
		Descending:   aws.Bool(true),
		Limit:        aws.Int64(containerStreamLimit),
	})
	if err != nil {
		f.fail(id, "describe log streams", err)
		return nil
	}

	var records []interfaces.LogRecord
	for _, stream := range streams.LogStreams {
		streamName := aws.StringValue(stream.LogStreamName)

		events, err := f.client.GetLogEventsWithContext(ctx, &cloudwatchlogs.GetLogEventsInput{
			LogGroupName:  aws.String(f.logGroup),
			LogStreamName: stream.LogStreamName,
			Limit:         aws.Int64(containerEventsPerStream),
			StartFromHead: aws.Bool(false),
		})
		if err != nil {
			// Keep whatever the other streams yielded.
			f.fail(id, "get log events", err)
			continue
		}

		for _, event := range events.Events {
			message := aws.StringValue(event.Message)
			if !f.relevant(id, message) {
				continue
			}
			records = append(records, interfaces.LogRecord{
				Timestamp: event.Timestamp,
				Message:   message,
				Source:    interfaces.SourceContainer,
				Stream:    streamName,
			})
		}
	}

	f.log.Debug("Fetched container logs",
		slog.String("enclave_id", id.String()),
		slog.Int("records", len(records)),
		slog.Duration("duration", time.Since(start)))
	return records
}

func (f *ContainerFetcher) fail(id interfaces.EnclaveID, op string, err error) {
	metrics.FetcherFailuresTotal.WithLabelValues(string(interfaces.SourceContainer)).Inc()
	f.log.Warn("Container log backend call failed",
		slog.String("enclave_id", id.String()),
		slog.String("op", op),
		"err", err)
}
