package storage

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"

	"github.com/enclaveops/enclave-console-backend/interfaces"
)

// StoreFactory creates enclave stores from URI strings.
type StoreFactory struct {
	log *slog.Logger
}

// NewStoreFactory creates a factory instance.
func NewStoreFactory(log *slog.Logger) *StoreFactory {
	return &StoreFactory{log: log}
}

// StoreFor creates an enclave store from a location URI.
//
// Supported schemes:
//   - memory:// - in-process map (tests, local development)
//   - file://   - one JSON file per enclave under the URI path
//   - dynamodb://table-name?region=us-east-1&endpoint=... - DynamoDB table
//   - vault://host:8200/mount/path?token=... - Vault KV v2 mount
//
// Returns an error if the URI is invalid or the scheme is unsupported.
func (f *StoreFactory) StoreFor(locationURI string) (interfaces.EnclaveStore, error) {
	u, err := url.Parse(locationURI)
	if err != nil {
		return nil, fmt.Errorf("invalid store URI: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "memory":
		return NewMemoryStore(), nil
	case "file":
		return NewFileStore(u.Path, f.log)
	case "dynamodb":
		return f.createDynamoDBStore(u)
	case "vault":
		return f.createVaultStore(u)
	default:
		return nil, fmt.Errorf("unsupported store scheme: %s", u.Scheme)
	}
}

// createDynamoDBStore builds a DynamoDB store from a URI like
// dynamodb://enclaves?region=us-east-1. The endpoint parameter targets local
// DynamoDB instances.
func (f *StoreFactory) createDynamoDBStore(u *url.URL) (interfaces.EnclaveStore, error) {
	tableName := u.Host
	if tableName == "" {
		return nil, fmt.Errorf("dynamodb store URI must name a table")
	}

	cfg := aws.Config{}
	if region := u.Query().Get("region"); region != "" {
		cfg.Region = aws.String(region)
	}
	if endpoint := u.Query().Get("endpoint"); endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
	}

	sess, err := session.NewSession(&cfg)
	if err != nil {
		return nil, fmt.Errorf("creating AWS session: %w", err)
	}

	f.log.Debug("Creating DynamoDB store", slog.String("table", tableName))
	return NewDynamoDBStore(dynamodb.New(sess), tableName, f.log), nil
}

// createVaultStore builds a Vault store from a URI like
// vault://vault.internal:8200/secret/enclaves. The first path segment is the
// KV mount, the rest the data path.
func (f *StoreFactory) createVaultStore(u *url.URL) (interfaces.EnclaveStore, error) {
	segments := strings.SplitN(strings.Trim(u.Path, "/"), "/", 2)
	if len(segments) < 2 || segments[0] == "" || segments[1] == "" {
		return nil, fmt.Errorf("vault store URI must have a /mount/path path")
	}

	scheme := "https"
	if u.Query().Get("insecure") == "true" {
		scheme = "http"
	}
	address := fmt.Sprintf("%s://%s", scheme, u.Host)

	f.log.Debug("Creating Vault store", slog.String("address", address), slog.String("mount", segments[0]))
	return NewVaultStore(address, segments[0], segments[1], u.Query().Get("token"), f.log)
}
