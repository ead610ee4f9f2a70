package logs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go/service/sfn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/enclaveops/enclave-console-backend/interfaces"
)

// mockCloudWatchClient mocks the CloudWatchLogsClient interface.
type mockCloudWatchClient struct {
	mock.Mock
}

func (m *mockCloudWatchClient) DescribeLogStreamsWithContext(ctx aws.Context, input *cloudwatchlogs.DescribeLogStreamsInput, opts ...request.Option) (*cloudwatchlogs.DescribeLogStreamsOutput, error) {
	args := m.Called(ctx, input)
	out, _ := args.Get(0).(*cloudwatchlogs.DescribeLogStreamsOutput)
	return out, args.Error(1)
}

func (m *mockCloudWatchClient) GetLogEventsWithContext(ctx aws.Context, input *cloudwatchlogs.GetLogEventsInput, opts ...request.Option) (*cloudwatchlogs.GetLogEventsOutput, error) {
	args := m.Called(ctx, input)
	out, _ := args.Get(0).(*cloudwatchlogs.GetLogEventsOutput)
	return out, args.Error(1)
}

func (m *mockCloudWatchClient) FilterLogEventsWithContext(ctx aws.Context, input *cloudwatchlogs.FilterLogEventsInput, opts ...request.Option) (*cloudwatchlogs.FilterLogEventsOutput, error) {
	args := m.Called(ctx, input)
	out, _ := args.Get(0).(*cloudwatchlogs.FilterLogEventsOutput)
	return out, args.Error(1)
}

// mockSFNClient mocks the SFNClient interface.
type mockSFNClient struct {
	mock.Mock
}

func (m *mockSFNClient) ListExecutionsWithContext(ctx aws.Context, input *sfn.ListExecutionsInput, opts ...request.Option) (*sfn.ListExecutionsOutput, error) {
	args := m.Called(ctx, input)
	out, _ := args.Get(0).(*sfn.ListExecutionsOutput)
	return out, args.Error(1)
}

func (m *mockSFNClient) GetExecutionHistoryWithContext(ctx aws.Context, input *sfn.GetExecutionHistoryInput, opts ...request.Option) (*sfn.GetExecutionHistoryOutput, error) {
	args := m.Called(ctx, input)
	out, _ := args.Get(0).(*sfn.GetExecutionHistoryOutput)
	return out, args.Error(1)
}

func forLogGroup(name string) interface{} {
	return mock.MatchedBy(func(in *cloudwatchlogs.FilterLogEventsInput) bool {
		return aws.StringValue(in.LogGroupName) == name
	})
}

var notFoundErr = awserr.New(cloudwatchlogs.ErrCodeResourceNotFoundException, "log group does not exist", nil)

func TestContainerFetcher_FiltersRelevantMessages(t *testing.T) {
	client := new(mockCloudWatchClient)
	client.On("DescribeLogStreamsWithContext", mock.Anything, mock.Anything).Return(&cloudwatchlogs.DescribeLogStreamsOutput{
		LogStreams: []*cloudwatchlogs.LogStream{
			{LogStreamName: aws.String("deploy/task-1")},
		},
	}, nil)
	client.On("GetLogEventsWithContext", mock.Anything, mock.Anything).Return(&cloudwatchlogs.GetLogEventsOutput{
		Events: []*cloudwatchlogs.OutputLogEvent{
			{Timestamp: aws.Int64(100), Message: aws.String("Starting deployment for encl-1")},
			{Timestamp: aws.Int64(101), Message: aws.String("[ENCLAVE] provisioning instance")},
			{Timestamp: aws.Int64(102), Message: aws.String("pulumi up in progress")},
			{Timestamp: aws.Int64(103), Message: aws.String("chatter about encl-other rollout")},
		},
	}, nil)

	fetcher := NewContainerFetcher(client, "", nil, discardLogger())
	records := fetcher.Fetch(context.Background(), "encl-1")

	require.Len(t, records, 3)
	for _, r := range records {
		assert.Equal(t, interfaces.SourceContainer, r.Source)
		assert.Equal(t, "deploy/task-1", r.Stream)
	}
}

func TestContainerFetcher_StreamFailureKeepsOtherStreams(t *testing.T) {
	client := new(mockCloudWatchClient)
	client.On("DescribeLogStreamsWithContext", mock.Anything, mock.Anything).Return(&cloudwatchlogs.DescribeLogStreamsOutput{
		LogStreams: []*cloudwatchlogs.LogStream{
			{LogStreamName: aws.String("broken")},
			{LogStreamName: aws.String("healthy")},
		},
	}, nil)
	client.On("GetLogEventsWithContext", mock.Anything, mock.MatchedBy(func(in *cloudwatchlogs.GetLogEventsInput) bool {
		return aws.StringValue(in.LogStreamName) == "broken"
	})).Return(nil, errors.New("throttled"))
	client.On("GetLogEventsWithContext", mock.Anything, mock.MatchedBy(func(in *cloudwatchlogs.GetLogEventsInput) bool {
		return aws.StringValue(in.LogStreamName) == "healthy"
	})).Return(&cloudwatchlogs.GetLogEventsOutput{
		Events: []*cloudwatchlogs.OutputLogEvent{
			{Timestamp: aws.Int64(1), Message: aws.String("[ENCLAVE] alive")},
		},
	}, nil)

	fetcher := NewContainerFetcher(client, "", nil, discardLogger())
	records := fetcher.Fetch(context.Background(), "encl-1")

	require.Len(t, records, 1)
	assert.Equal(t, "healthy", records[0].Stream)
}

func TestContainerFetcher_DescribeFailureYieldsEmpty(t *testing.T) {
	client := new(mockCloudWatchClient)
	client.On("DescribeLogStreamsWithContext", mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))

	fetcher := NewContainerFetcher(client, "", nil, discardLogger())
	assert.Empty(t, fetcher.Fetch(context.Background(), "encl-1"))
}

func TestWorkflowFetcher_RendersMatchingExecutions(t *testing.T) {
	eventTime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	client := new(mockSFNClient)
	client.On("ListExecutionsWithContext", mock.Anything, mock.Anything).Return(&sfn.ListExecutionsOutput{
		Executions: []*sfn.ExecutionListItem{
			{Name: aws.String("deploy-encl-1-1700000000"), ExecutionArn: aws.String("arn:exec:1")},
			{Name: aws.String("deploy-encl-other-1700000001"), ExecutionArn: aws.String("arn:exec:2")},
		},
	}, nil)
	client.On("GetExecutionHistoryWithContext", mock.Anything, mock.MatchedBy(func(in *sfn.GetExecutionHistoryInput) bool {
		return aws.StringValue(in.ExecutionArn) == "arn:exec:1"
	})).Return(&sfn.GetExecutionHistoryOutput{
		Events: []*sfn.HistoryEvent{
			{
				Type:      aws.String(sfn.HistoryEventTypeTaskFailed),
				Timestamp: aws.Time(eventTime),
				TaskFailedEventDetails: &sfn.TaskFailedEventDetails{
					Error: aws.String("States.Timeout"),
					Cause: aws.String("task exceeded 300s"),
				},
			},
			{
				Type:      aws.String(sfn.HistoryEventTypeTaskStateEntered),
				Timestamp: aws.Time(eventTime.Add(-time.Minute)),
				StateEnteredEventDetails: &sfn.StateEnteredEventDetails{
					Name: aws.String("ProvisionInstance"),
				},
			},
		},
	}, nil)

	fetcher := NewWorkflowFetcher(client, []StateMachine{{Name: "deploy", ARN: "arn:sm:deploy"}}, nil, discardLogger())
	records := fetcher.Fetch(context.Background(), "encl-1")

	require.Len(t, records, 2)
	assert.Equal(t, "[deploy] Task failed: States.Timeout - task exceeded 300s", records[0].Message)
	assert.Equal(t, sfn.HistoryEventTypeTaskFailed, records[0].Type)
	assert.Equal(t, "deploy-encl-1-1700000000", records[0].Stream)
	require.NotNil(t, records[0].Timestamp)
	assert.Equal(t, eventTime.UnixMilli(), *records[0].Timestamp)

	assert.Equal(t, "[deploy] Started task: ProvisionInstance", records[1].Message)

	// The non-matching execution's history is never requested.
	client.AssertNumberOfCalls(t, "GetExecutionHistoryWithContext", 1)
}

func TestWorkflowFetcher_UnknownEventTypeRendersTruncatedRaw(t *testing.T) {
	client := new(mockSFNClient)
	client.On("ListExecutionsWithContext", mock.Anything, mock.Anything).Return(&sfn.ListExecutionsOutput{
		Executions: []*sfn.ExecutionListItem{
			{Name: aws.String("cleanup-encl-1"), ExecutionArn: aws.String("arn:exec:1")},
		},
	}, nil)
	client.On("GetExecutionHistoryWithContext", mock.Anything, mock.Anything).Return(&sfn.GetExecutionHistoryOutput{
		Events: []*sfn.HistoryEvent{
			{Type: aws.String(sfn.HistoryEventTypeMapIterationStarted)},
		},
	}, nil)

	fetcher := NewWorkflowFetcher(client, []StateMachine{{Name: "cleanup", ARN: "arn:sm:cleanup"}}, nil, discardLogger())
	records := fetcher.Fetch(context.Background(), "encl-1")

	require.Len(t, records, 1)
	assert.Contains(t, records[0].Message, "[cleanup] ")
	assert.LessOrEqual(t, len(records[0].Message), len("[cleanup] ")+rawEventTruncateLen+len("..."))
}

func TestWorkflowFetcher_ListFailureSkipsMachine(t *testing.T) {
	client := new(mockSFNClient)
	client.On("ListExecutionsWithContext", mock.Anything, mock.MatchedBy(func(in *sfn.ListExecutionsInput) bool {
		return aws.StringValue(in.StateMachineArn) == "arn:sm:deploy"
	})).Return(nil, errors.New("throttled"))
	client.On("ListExecutionsWithContext", mock.Anything, mock.MatchedBy(func(in *sfn.ListExecutionsInput) bool {
		return aws.StringValue(in.StateMachineArn) == "arn:sm:cleanup"
	})).Return(&sfn.ListExecutionsOutput{
		Executions: []*sfn.ExecutionListItem{
			{Name: aws.String("cleanup-encl-1"), ExecutionArn: aws.String("arn:exec:1")},
		},
	}, nil)
	client.On("GetExecutionHistoryWithContext", mock.Anything, mock.Anything).Return(&sfn.GetExecutionHistoryOutput{
		Events: []*sfn.HistoryEvent{
			{Type: aws.String(sfn.HistoryEventTypeExecutionStarted)},
		},
	}, nil)

	fetcher := NewWorkflowFetcher(client, []StateMachine{
		{Name: "deploy", ARN: "arn:sm:deploy"},
		{Name: "cleanup", ARN: "arn:sm:cleanup"},
	}, nil, discardLogger())
	records := fetcher.Fetch(context.Background(), "encl-1")

	require.Len(t, records, 1)
	assert.Equal(t, "[cleanup] Execution started", records[0].Message)
}

func TestFunctionFetcher_RelevanceAndAllowPhrases(t *testing.T) {
	client := new(mockCloudWatchClient)
	client.On("FilterLogEventsWithContext", mock.Anything, forLogGroup("/aws/lambda/enclave-deploy")).Return(&cloudwatchlogs.FilterLogEventsOutput{
		Events: []*cloudwatchlogs.FilteredLogEvent{
			{Timestamp: aws.Int64(1), Message: aws.String("Deploying encl-1"), LogStreamName: aws.String("s1")},
			{Timestamp: aws.Int64(2), Message: aws.String("Deploying encl-other"), LogStreamName: aws.String("s1")},
		},
	}, nil)
	client.On("FilterLogEventsWithContext", mock.Anything, forLogGroup("/aws/lambda/enclave-cleanup")).Return(&cloudwatchlogs.FilterLogEventsOutput{}, nil)
	client.On("FilterLogEventsWithContext", mock.Anything, forLogGroup("/aws/lambda/enclave-status-monitor")).Return(&cloudwatchlogs.FilterLogEventsOutput{
		Events: []*cloudwatchlogs.FilteredLogEvent{
			{Timestamp: aws.Int64(3), Message: aws.String("Monitoring cycle completed"), LogStreamName: aws.String("s2")},
			{Timestamp: aws.Int64(4), Message: aws.String("unrelated noise"), LogStreamName: aws.String("s2")},
		},
	}, nil)

	fetcher := NewFunctionFetcher(client, nil, discardLogger())
	records := fetcher.Fetch(context.Background(), "encl-1")

	require.Len(t, records, 2)
	assert.Equal(t, "Deploying encl-1", records[0].Message)
	assert.Equal(t, "deploy", records[0].Function)
	assert.Equal(t, "Monitoring cycle completed", records[1].Message)
	assert.Equal(t, "status-monitor", records[1].Function)
}

func TestFunctionFetcher_MissingGroupIsNotAFailure(t *testing.T) {
	client := new(mockCloudWatchClient)
	client.On("FilterLogEventsWithContext", mock.Anything, forLogGroup("/aws/lambda/enclave-deploy")).Return(nil, notFoundErr)
	client.On("FilterLogEventsWithContext", mock.Anything, forLogGroup("/aws/lambda/enclave-cleanup")).Return(&cloudwatchlogs.FilterLogEventsOutput{
		Events: []*cloudwatchlogs.FilteredLogEvent{
			{Timestamp: aws.Int64(1), Message: aws.String("Cleaning up encl-1"), LogStreamName: aws.String("s1")},
		},
	}, nil)
	client.On("FilterLogEventsWithContext", mock.Anything, forLogGroup("/aws/lambda/enclave-status-monitor")).Return(&cloudwatchlogs.FilterLogEventsOutput{}, nil)

	fetcher := NewFunctionFetcher(client, nil, discardLogger())
	records := fetcher.Fetch(context.Background(), "encl-1")

	require.Len(t, records, 1)
	assert.Equal(t, "cleanup", records[0].Function)
}

func TestApplicationFetcher_NormalizesEnvelopes(t *testing.T) {
	client := new(mockCloudWatchClient)
	client.On("FilterLogEventsWithContext", mock.Anything, forLogGroup("/enclave/encl-1/application")).Return(&cloudwatchlogs.FilterLogEventsOutput{
		Events: []*cloudwatchlogs.FilteredLogEvent{
			{
				Timestamp:     aws.Int64(500),
				Message:       aws.String(`{"type":"pcr","message":"[PCR] PCR0: abcd","timestamp":1700000000000}`),
				LogStreamName: aws.String("guest"),
			},
			{
				Timestamp:     aws.Int64(600),
				Message:       aws.String("plain text line"),
				LogStreamName: aws.String("guest"),
			},
		},
	}, nil)

	fetcher := NewApplicationFetcher(client, discardLogger())
	records := fetcher.Fetch(context.Background(), "encl-1")

	require.Len(t, records, 2)

	assert.Equal(t, "[PCR] PCR0: abcd", records[0].Message)
	assert.Equal(t, "pcr", records[0].Type)
	assert.True(t, records[0].IsPCR)
	// Envelope timestamp wins over the backend event timestamp.
	require.NotNil(t, records[0].Timestamp)
	assert.Equal(t, int64(1700000000000), *records[0].Timestamp)

	assert.Equal(t, "plain text line", records[1].Message)
	assert.Empty(t, records[1].Type)
	require.NotNil(t, records[1].Timestamp)
	assert.Equal(t, int64(600), *records[1].Timestamp)
}

func TestApplicationFetcher_FallsBackToLegacyGroups(t *testing.T) {
	client := new(mockCloudWatchClient)
	client.On("FilterLogEventsWithContext", mock.Anything, forLogGroup("/enclave/encl-1/application")).Return(nil, notFoundErr)
	client.On("FilterLogEventsWithContext", mock.Anything, forLogGroup("/enclaves/encl-1/application")).Return(nil, notFoundErr)
	client.On("FilterLogEventsWithContext", mock.Anything, forLogGroup("/enclaves/encl-1/stdout")).Return(&cloudwatchlogs.FilterLogEventsOutput{
		Events: []*cloudwatchlogs.FilteredLogEvent{
			{Timestamp: aws.Int64(1), Message: aws.String("legacy output"), LogStreamName: aws.String("stdout")},
		},
	}, nil)

	fetcher := NewApplicationFetcher(client, discardLogger())
	records := fetcher.Fetch(context.Background(), "encl-1")

	require.Len(t, records, 1)
	assert.Equal(t, "legacy output", records[0].Message)
	client.AssertNotCalled(t, "FilterLogEventsWithContext", mock.Anything, forLogGroup("/enclaves/encl-1/stderr"))
}

func TestApplicationFetcher_AllGroupsMissing(t *testing.T) {
	client := new(mockCloudWatchClient)
	client.On("FilterLogEventsWithContext", mock.Anything, mock.Anything).Return(nil, notFoundErr)

	fetcher := NewApplicationFetcher(client, discardLogger())
	assert.Empty(t, fetcher.Fetch(context.Background(), "encl-1"))
}

func TestApplicationFetcher_HardFailureYieldsEmpty(t *testing.T) {
	client := new(mockCloudWatchClient)
	client.On("FilterLogEventsWithContext", mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))

	fetcher := NewApplicationFetcher(client, discardLogger())
	assert.Empty(t, fetcher.Fetch(context.Background(), "encl-1"))
}
