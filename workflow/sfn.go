// Package workflow implements the external destroy-workflow trigger on top
// of Step Functions. It is the only component that starts executions; the
// workflow engine itself is out of scope.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/sfn"

	"github.com/enclaveops/enclave-console-backend/interfaces"
)

// StartExecutionClient is the subset of the Step Functions API the trigger
// uses. *sfn.SFN satisfies it.
type StartExecutionClient interface {
	StartExecutionWithContext(ctx aws.Context, input *sfn.StartExecutionInput, opts ...request.Option) (*sfn.StartExecutionOutput, error)
}

// SFNTrigger starts the cleanup state machine with a destroy directive.
type SFNTrigger struct {
	client          StartExecutionClient
	stateMachineARN string
	now             func() time.Time
	log             *slog.Logger
}

// NewSFNTrigger creates a trigger for the given cleanup state machine.
func NewSFNTrigger(client StartExecutionClient, stateMachineARN string, log *slog.Logger) *SFNTrigger {
	return &SFNTrigger{client: client, stateMachineARN: stateMachineARN, now: time.Now, log: log}
}

// TriggerDestroy starts one cleanup execution for the directive. The
// execution name embeds the enclave id and a timestamp so retriggering after
// a failure does not collide with the earlier attempt.
func (t *SFNTrigger) TriggerDestroy(ctx context.Context, directive interfaces.DestroyDirective) error {
	payload, err := json.Marshal(directive)
	if err != nil {
		return fmt.Errorf("encoding destroy directive: %w", err)
	}

	name := fmt.Sprintf("destroy-%s-%d", directive.EnclaveID, t.now().Unix())
	out, err := t.client.StartExecutionWithContext(ctx, &sfn.StartExecutionInput{
		StateMachineArn: aws.String(t.stateMachineARN),
		Name:            aws.String(name),
		Input:           aws.String(string(payload)),
	})
	if err != nil {
		return fmt.Errorf("starting destroy execution: %w", err)
	}

	t.log.Info("Started destroy execution",
		slog.String("enclave_id", directive.EnclaveID.String()),
		slog.String("execution_arn", aws.StringValue(out.ExecutionArn)))
	return nil
}
