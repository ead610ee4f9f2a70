package attestation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/cloudwatchlogs"

	"github.com/enclaveops/enclave-console-backend/interfaces"
	"github.com/enclaveops/enclave-console-backend/logs"
	"github.com/enclaveops/enclave-console-backend/serviceresolver"
)

const (
	// streamScanLimit bounds how many of the newest application streams are
	// inspected per extraction.
	streamScanLimit = 3

	// eventsPerStream bounds how many entries are pulled per stream.
	eventsPerStream = 100

	// presentIntegrityScore is reported when any register was extracted.
	presentIntegrityScore = 95
)

// Verification states and trust levels of the attestation summary.
const (
	StatusVerified = "VERIFIED"
	StatusPending  = "PENDING"

	TrustHigh    = "HIGH"
	TrustUnknown = "UNKNOWN"
)

// Measurements is the result of a PCR extraction: a partial-or-complete map
// of canonical register index to hex value, plus an explanatory message when
// the map could not be filled.
type Measurements struct {
	PCRs    map[int]string `json:"pcrs"`
	Message string         `json:"message,omitempty"`
}

// Endpoints are the external verification surfaces for an enclave.
type Endpoints struct {
	VerificationURL string   `json:"verificationUrl"`
	APIEndpoint     string   `json:"apiEndpoint"`
	InstanceIPs     []string `json:"instance_ips,omitempty"`
}

// Verification is the deterministic trust block of the summary.
type Verification struct {
	VerificationStatus string `json:"verificationStatus"`
	IntegrityScore     int    `json:"integrityScore"`
	TrustLevel         string `json:"trustLevel"`
}

// Summary is a composed attestation response.
type Summary struct {
	AttestationDocument struct {
		PCRs map[int]string `json:"pcrs"`
	} `json:"attestationDocument"`
	Endpoints    Endpoints    `json:"endpoints"`
	Verification Verification `json:"verification"`
}

// Config carries the fixed external endpoints and optional DNS resolution
// for the summary's endpoint block.
type Config struct {
	// VerificationBaseURL prefixes the per-enclave verification URL.
	VerificationBaseURL string

	// APIBaseURL prefixes the per-enclave query endpoint.
	APIBaseURL string

	// Resolver, when non-nil, resolves the enclave's application domain to
	// instance IPs included in the endpoint block. Best-effort.
	Resolver *serviceresolver.Resolver
}

// Service extracts measurements from guest logs and composes attestation
// summaries.
type Service struct {
	store  interfaces.EnclaveStore
	client logs.CloudWatchLogsClient
	cfg    Config
	log    *slog.Logger
}

// NewService creates an attestation service.
func NewService(store interfaces.EnclaveStore, client logs.CloudWatchLogsClient, cfg Config, log *slog.Logger) *Service {
	if cfg.VerificationBaseURL == "" {
		cfg.VerificationBaseURL = "https://verify.enclave.example.com"
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://api.enclave.example.com/enclaves"
	}
	return &Service{store: store, client: client, cfg: cfg, log: log}
}

// ExtractMeasurements scans up to the three newest guest application log
// streams, newest entries first, for PCR marker lines. The first value seen
// per canonical register wins and scanning stops entirely once all four
// registers are found. A missing log group or a failing backend call yields
// an empty map with an explanatory message, not an error.
func (s *Service) ExtractMeasurements(ctx context.Context, id interfaces.EnclaveID) (*Measurements, error) {
	start := time.Now()
	group := logs.ApplicationLogGroup(id)

	streams, err := s.client.DescribeLogStreamsWithContext(ctx, &cloudwatchlogs.DescribeLogStreamsInput{
		LogGroupName: aws.String(group),
		OrderBy:      aws.String(cloudwatchlogs.OrderByLastEventTime),
		Descending:   aws.Bool(true),
		Limit:        aws.Int64(streamScanLimit),
	})
	if err != nil {
		if logs.IsResourceNotFound(err) {
			return &Measurements{
				PCRs:    map[int]string{},
				Message: "No application logs found for this enclave yet",
			}, nil
		}
		// Backend failures degrade to an empty result, same as a missing
		// group; only the enclave lookup may fail a request.
		s.log.Warn("Failed to list application streams for PCR extraction",
			slog.String("enclave_id", id.String()),
			"err", err)
		return &Measurements{
			PCRs:    map[int]string{},
			Message: "Application logs are temporarily unavailable",
		}, nil
	}

	pcrs := make(map[int]string, len(CanonicalPCRIndices))
	for _, stream := range streams.LogStreams {
		if len(pcrs) == len(CanonicalPCRIndices) {
			break
		}

		events, err := s.client.GetLogEventsWithContext(ctx, &cloudwatchlogs.GetLogEventsInput{
			LogGroupName:  aws.String(group),
			LogStreamName: stream.LogStreamName,
			Limit:         aws.Int64(eventsPerStream),
			StartFromHead: aws.Bool(false),
		})
		if err != nil {
			s.log.Warn("Failed to read application stream for PCR extraction",
				slog.String("enclave_id", id.String()),
				slog.String("stream", aws.StringValue(stream.LogStreamName)),
				"err", err)
			continue
		}

		// GetLogEvents returns oldest-first; walk backwards so the most
		// recent marker per register wins.
		for i := len(events.Events) - 1; i >= 0; i-- {
			index, value, ok := ParsePCRLine(aws.StringValue(events.Events[i].Message))
			if !ok {
				continue
			}
			if _, seen := pcrs[index]; seen {
				continue
			}
			pcrs[index] = value
			if len(pcrs) == len(CanonicalPCRIndices) {
				break
			}
		}
	}

	result := &Measurements{PCRs: pcrs}
	if len(pcrs) == 0 {
		result.Message = "No PCR measurements found in application logs"
	}

	s.log.Debug("Extracted measurements",
		slog.String("enclave_id", id.String()),
		slog.Int("registers", len(pcrs)),
		slog.Duration("duration", time.Since(start)))
	return result, nil
}

// ComposeAttestation builds the attestation summary for a DEPLOYED enclave.
// Any other status fails with a NotDeployedError echoing the current status.
func (s *Service) ComposeAttestation(ctx context.Context, id interfaces.EnclaveID) (*Summary, error) {
	enclave, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if enclave.Status != interfaces.StatusDeployed {
		return nil, &interfaces.NotDeployedError{Current: enclave.Status}
	}

	measurements, err := s.ExtractMeasurements(ctx, id)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Endpoints: Endpoints{
			VerificationURL: fmt.Sprintf("%s/%s", s.cfg.VerificationBaseURL, id),
			APIEndpoint:     fmt.Sprintf("%s/%s", s.cfg.APIBaseURL, id),
		},
	}
	summary.AttestationDocument.PCRs = measurements.PCRs

	if len(measurements.PCRs) > 0 {
		summary.Verification = Verification{
			VerificationStatus: StatusVerified,
			IntegrityScore:     presentIntegrityScore,
			TrustLevel:         TrustHigh,
		}
	} else {
		summary.Verification = Verification{
			VerificationStatus: StatusPending,
			IntegrityScore:     0,
			TrustLevel:         TrustUnknown,
		}
	}

	if s.cfg.Resolver != nil {
		// Best-effort: unresolvable domains just leave the list empty.
		summary.Endpoints.InstanceIPs = s.cfg.Resolver.ResolveApplication(id)
	}

	return summary, nil
}
