package logs

import (
	"errors"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go/service/sfn"
)

// CloudWatchLogsClient is the subset of the CloudWatch Logs API the fetchers
// use. *cloudwatchlogs.CloudWatchLogs satisfies it.
type CloudWatchLogsClient interface {
	DescribeLogStreamsWithContext(ctx aws.Context, input *cloudwatchlogs.DescribeLogStreamsInput, opts ...request.Option) (*cloudwatchlogs.DescribeLogStreamsOutput, error)
	GetLogEventsWithContext(ctx aws.Context, input *cloudwatchlogs.GetLogEventsInput, opts ...request.Option) (*cloudwatchlogs.GetLogEventsOutput, error)
	FilterLogEventsWithContext(ctx aws.Context, input *cloudwatchlogs.FilterLogEventsInput, opts ...request.Option) (*cloudwatchlogs.FilterLogEventsOutput, error)
}

// SFNClient is the subset of the Step Functions API the workflow fetcher
// uses. *sfn.SFN satisfies it.
type SFNClient interface {
	ListExecutionsWithContext(ctx aws.Context, input *sfn.ListExecutionsInput, opts ...request.Option) (*sfn.ListExecutionsOutput, error)
	GetExecutionHistoryWithContext(ctx aws.Context, input *sfn.GetExecutionHistoryInput, opts ...request.Option) (*sfn.GetExecutionHistoryOutput, error)
}

// IsResourceNotFound reports whether err is the CloudWatch Logs "log group or
// stream does not exist" error. Absence of a per-enclave group is expected
// for enclaves that never produced output.
func IsResourceNotFound(err error) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		return aerr.Code() == cloudwatchlogs.ErrCodeResourceNotFoundException
	}
	return false
}
