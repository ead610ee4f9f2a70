package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"

	"github.com/enclaveops/enclave-console-backend/interfaces"
)

// ownerIndex is the GSI on the owner attribute used by ListByOwner.
const ownerIndex = "owner-index"

// DynamoDBClient is the subset of the DynamoDB API the store uses.
// *dynamodb.DynamoDB satisfies it.
type DynamoDBClient interface {
	GetItemWithContext(ctx aws.Context, input *dynamodb.GetItemInput, opts ...request.Option) (*dynamodb.GetItemOutput, error)
	PutItemWithContext(ctx aws.Context, input *dynamodb.PutItemInput, opts ...request.Option) (*dynamodb.PutItemOutput, error)
	UpdateItemWithContext(ctx aws.Context, input *dynamodb.UpdateItemInput, opts ...request.Option) (*dynamodb.UpdateItemOutput, error)
	DeleteItemWithContext(ctx aws.Context, input *dynamodb.DeleteItemInput, opts ...request.Option) (*dynamodb.DeleteItemOutput, error)
	QueryWithContext(ctx aws.Context, input *dynamodb.QueryInput, opts ...request.Option) (*dynamodb.QueryOutput, error)
}

// DynamoDBStore persists enclave records in a DynamoDB table keyed by id.
type DynamoDBStore struct {
	client    DynamoDBClient
	tableName string
	now       func() time.Time
	log       *slog.Logger
}

// NewDynamoDBStore creates a DynamoDB-backed store over the given table.
func NewDynamoDBStore(client DynamoDBClient, tableName string, log *slog.Logger) *DynamoDBStore {
	return &DynamoDBStore{client: client, tableName: tableName, now: time.Now, log: log}
}

func (s *DynamoDBStore) key(id interfaces.EnclaveID) map[string]*dynamodb.AttributeValue {
	return map[string]*dynamodb.AttributeValue{
		"id": {S: aws.String(id.String())},
	}
}

// Get fetches and decodes the record for id.
func (s *DynamoDBStore) Get(ctx context.Context, id interfaces.EnclaveID) (*interfaces.Enclave, error) {
	out, err := s.client.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            s.key(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, s.wrap("get", err)
	}
	if out.Item == nil {
		return nil, interfaces.ErrEnclaveNotFound
	}

	var enclave interfaces.Enclave
	if err := dynamodbattribute.UnmarshalMap(out.Item, &enclave); err != nil {
		return nil, fmt.Errorf("decoding enclave item: %w", err)
	}
	return &enclave, nil
}

// Put creates or replaces the full record.
func (s *DynamoDBStore) Put(ctx context.Context, enclave *interfaces.Enclave) error {
	item, err := dynamodbattribute.MarshalMap(enclave)
	if err != nil {
		return fmt.Errorf("encoding enclave item: %w", err)
	}

	_, err = s.client.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return s.wrap("put", err)
	}
	return nil
}

// UpdateStatus writes status and updated_at in a single UpdateItem call,
// conditioned on the record existing, and returns the updated record.
func (s *DynamoDBStore) UpdateStatus(ctx context.Context, id interfaces.EnclaveID, status interfaces.Status) (*interfaces.Enclave, error) {
	out, err := s.client.UpdateItemWithContext(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.tableName),
		Key:                 s.key(id),
		UpdateExpression:    aws.String("SET #status = :status, #updated = :updated"),
		ConditionExpression: aws.String("attribute_exists(id)"),
		ExpressionAttributeNames: map[string]*string{
			"#status":  aws.String("status"),
			"#updated": aws.String("updated_at"),
		},
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":status":  {S: aws.String(status.String())},
			":updated": {S: aws.String(s.now().UTC().Format(time.RFC3339Nano))},
		},
		ReturnValues: aws.String(dynamodb.ReturnValueAllNew),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == dynamodb.ErrCodeConditionalCheckFailedException {
			return nil, interfaces.ErrEnclaveNotFound
		}
		return nil, s.wrap("update status", err)
	}

	var enclave interfaces.Enclave
	if err := dynamodbattribute.UnmarshalMap(out.Attributes, &enclave); err != nil {
		return nil, fmt.Errorf("decoding updated enclave item: %w", err)
	}
	return &enclave, nil
}

// Delete removes the record if its status is terminal. The terminal check
// happens client-side after a consistent read; the console is the only
// writer of terminal states so this does not race in practice.
func (s *DynamoDBStore) Delete(ctx context.Context, id interfaces.EnclaveID) error {
	enclave, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !enclave.Status.Terminal() {
		return &interfaces.ConflictError{
			Action:  "delete",
			Current: enclave.Status,
			Allowed: []interfaces.Status{interfaces.StatusDestroyed, interfaces.StatusFailed},
		}
	}

	_, err = s.client.DeleteItemWithContext(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       s.key(id),
	})
	if err != nil {
		return s.wrap("delete", err)
	}
	return nil
}

// ListByOwner queries the owner GSI.
func (s *DynamoDBStore) ListByOwner(ctx context.Context, owner interfaces.OwnerAddress) ([]*interfaces.Enclave, error) {
	out, err := s.client.QueryWithContext(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String(ownerIndex),
		KeyConditionExpression: aws.String("#owner = :owner"),
		ExpressionAttributeNames: map[string]*string{
			"#owner": aws.String("owner"),
		},
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":owner": {S: aws.String(owner.Hex())},
		},
	})
	if err != nil {
		return nil, s.wrap("query by owner", err)
	}

	enclaves := make([]*interfaces.Enclave, 0, len(out.Items))
	for _, item := range out.Items {
		var enclave interfaces.Enclave
		if err := dynamodbattribute.UnmarshalMap(item, &enclave); err != nil {
			s.log.Warn("Skipping undecodable enclave item", "err", err)
			continue
		}
		enclaves = append(enclaves, &enclave)
	}
	return enclaves, nil
}

func (s *DynamoDBStore) wrap(op string, err error) error {
	s.log.Error("DynamoDB operation failed",
		slog.String("table", s.tableName),
		slog.String("op", op),
		"err", err)
	return fmt.Errorf("%w: %s: %v", interfaces.ErrStoreUnavailable, op, err)
}
