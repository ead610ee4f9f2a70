package logs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/cloudwatchlogs"

	"github.com/enclaveops/enclave-console-backend/interfaces"
	"github.com/enclaveops/enclave-console-backend/metrics"
)

const (
	applicationWindow     = 24 * time.Hour
	applicationEventLimit = 200
)

// ApplicationLogGroup returns the per-enclave guest application log group.
func ApplicationLogGroup(id interfaces.EnclaveID) string {
	return fmt.Sprintf("/enclave/%s/application", id)
}

// legacyApplicationLogGroups are older per-enclave group name patterns still
// probed for enclaves deployed before the current naming.
func legacyApplicationLogGroups(id interfaces.EnclaveID) []string {
	return []string{
		fmt.Sprintf("/enclaves/%s/application", id),
		fmt.Sprintf("/enclaves/%s/stdout", id),
		fmt.Sprintf("/enclaves/%s/stderr", id),
	}
}

// ApplicationFetcher reads the enclave's own guest application log group,
// parsing structured envelopes where possible and classifying each record.
type ApplicationFetcher struct {
	client CloudWatchLogsClient
	window time.Duration
	now    func() time.Time
	log    *slog.Logger
}

// NewApplicationFetcher creates a guest-application fetcher.
func NewApplicationFetcher(client CloudWatchLogsClient, log *slog.Logger) *ApplicationFetcher {
	return &ApplicationFetcher{client: client, window: applicationWindow, now: time.Now, log: log}
}

// Source identifies this fetcher's records.
func (f *ApplicationFetcher) Source() interfaces.LogSource {
	return interfaces.SourceApplication
}

// Fetch returns the recent guest application records for id. If the current
// per-enclave log group does not exist, up to three legacy group name
// patterns are probed; absence of all of them is not an error, just an empty
// result. Other backend failures also degrade to empty.
func (f *ApplicationFetcher) Fetch(ctx context.Context, id interfaces.EnclaveID) []interfaces.LogRecord {
	start := f.now()
	since := start.Add(-f.window).UnixMilli()

	groups := append([]string{ApplicationLogGroup(id)}, legacyApplicationLogGroups(id)...)
	for _, group := range groups {
		events, err := f.client.FilterLogEventsWithContext(ctx, &cloudwatchlogs.FilterLogEventsInput{
			LogGroupName: aws.String(group),
			StartTime:    aws.Int64(since),
			Limit:        aws.Int64(applicationEventLimit),
		})
		if err != nil {
			if IsResourceNotFound(err) {
				continue
			}
			metrics.FetcherFailuresTotal.WithLabelValues(string(interfaces.SourceApplication)).Inc()
			f.log.Warn("Application log backend call failed",
				slog.String("enclave_id", id.String()),
				slog.String("log_group", group),
				"err", err)
			return nil
		}

		records := make([]interfaces.LogRecord, 0, len(events.Events))
		for _, event := range events.Events {
			records = append(records, normalizeApplicationEvent(event))
		}

		f.log.Debug("Fetched application logs",
			slog.String("enclave_id", id.String()),
			slog.String("log_group", group),
			slog.Int("records", len(records)),
			slog.Duration("duration", time.Since(start)))
		return records
	}

	f.log.Debug("No application log group for enclave", slog.String("enclave_id", id.String()))
	return nil
}

// normalizeApplicationEvent converts one raw event into the normalized
// schema. Structured envelopes contribute their type, inner message and
// timestamp; unparseable lines pass through raw with the backend timestamp.
func normalizeApplicationEvent(event *cloudwatchlogs.FilteredLogEvent) interfaces.LogRecord {
	raw := aws.StringValue(event.Message)

	typ, message, ts, ok := ParseApplicationMessage(raw)
	if !ok {
		typ, message = "", raw
	}
	if ts == nil {
		ts = event.Timestamp
	}

	isPCR, isError, isSuccess := ClassifyApplicationMessage(typ, message)
	return interfaces.LogRecord{
		Timestamp: ts,
		Message:   message,
		Source:    interfaces.SourceApplication,
		Stream:    aws.StringValue(event.LogStreamName),
		Type:      typ,
		IsPCR:     isPCR,
		IsError:   isError,
		IsSuccess: isSuccess,
	}
}
