// Package flags holds the CLI flags and setup helpers shared by the
// console's binaries.
package flags

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/enclaveops/enclave-console-backend/api"
	"github.com/enclaveops/enclave-console-backend/common"
)

// SetupLogger builds the process logger from the logging flags.
func SetupLogger(cCtx *cli.Context) *slog.Logger {
	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   cCtx.Bool(LogDebugFlag.Name),
		JSON:    cCtx.Bool(LogJSONFlag.Name),
		Service: cCtx.String(LogServiceFlag.Name),
		Version: common.Version,
	})

	if cCtx.Bool(LogUIDFlag.Name) {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

// ConfigureServer builds the HTTP server config from the server flags.
func ConfigureServer(cCtx *cli.Context, logger *slog.Logger) *api.HTTPServerConfig {
	return &api.HTTPServerConfig{
		ListenAddr:               cCtx.String(ListenAddrFlag.Name),
		MetricsAddr:              cCtx.String(MetricsAddrFlag.Name),
		Log:                      logger,
		EnablePprof:              cCtx.Bool(PprofFlag.Name),
		DrainDuration:            time.Duration(cCtx.Int64(DrainSecondsFlag.Name)) * time.Second,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             30 * time.Second,
	}
}

var ListenAddrFlag = &cli.StringFlag{
	Name:  "listen-addr",
	Value: "127.0.0.1:8080",
	Usage: "address to listen on for API",
}

var MetricsAddrFlag = &cli.StringFlag{
	Name:  "metrics-addr",
	Value: "127.0.0.1:8090",
	Usage: "address to listen on for Prometheus metrics",
}

var AWSRegionFlag = &cli.StringFlag{
	Name:  "aws-region",
	Value: "us-east-1",
	Usage: "AWS region for CloudWatch Logs and Step Functions clients",
}

var StoreURIFlag = &cli.StringFlag{
	Name:  "store-uri",
	Value: "memory://",
	Usage: "enclave store location (memory://, file://, dynamodb://, vault://)",
}

var DeployStateMachineFlag = &cli.StringFlag{
	Name:  "deploy-sm-arn",
	Usage: "ARN of the deploy workflow state machine",
}

var CleanupStateMachineFlag = &cli.StringFlag{
	Name:  "cleanup-sm-arn",
	Usage: "ARN of the cleanup workflow state machine",
}

var ContainerLogGroupFlag = &cli.StringFlag{
	Name:  "container-log-group",
	Value: "/ecs/enclave-deployments",
	Usage: "shared ECS deployment log group",
}

var AppZoneFlag = &cli.StringFlag{
	Name:  "app-zone",
	Usage: "DNS zone enclave application domains live under (enables instance IP resolution)",
}

var DNSResolverFlag = &cli.StringFlag{
	Name:  "dns-resolver",
	Value: "",
	Usage: "DNS resolver address for application domain lookups (default: local stub resolver)",
}

var VerifyBaseURLFlag = &cli.StringFlag{
	Name:  "verify-base-url",
	Value: "https://verify.enclave.example.com",
	Usage: "base URL of the external attestation verification service",
}

var APIBaseURLFlag = &cli.StringFlag{
	Name:  "api-base-url",
	Value: "https://api.enclave.example.com/enclaves",
	Usage: "base URL of the per-enclave query endpoint",
}

var LogJSONFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}

var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}

var LogUIDFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}

var LogServiceFlag = &cli.StringFlag{
	Name:  "log-service",
	Value: common.PackageName,
	Usage: "add 'service' tag to logs",
}

var PprofFlag = &cli.BoolFlag{
	Name:  "pprof",
	Value: false,
	Usage: "enable pprof debug endpoint",
}

var DrainSecondsFlag = &cli.Int64Flag{
	Name:  "drain-seconds",
	Value: 45,
	Usage: "seconds to wait in drain HTTP request",
}

var CommonFlags = []cli.Flag{
	LogJSONFlag,
	LogDebugFlag,
	LogUIDFlag,
	LogServiceFlag,
	PprofFlag,
	DrainSecondsFlag,
	MetricsAddrFlag,
}
