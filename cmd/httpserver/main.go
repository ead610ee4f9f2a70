package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go/service/sfn"
	"github.com/urfave/cli/v2"

	"github.com/enclaveops/enclave-console-backend/api"
	"github.com/enclaveops/enclave-console-backend/attestation"
	"github.com/enclaveops/enclave-console-backend/cmd/flags"
	"github.com/enclaveops/enclave-console-backend/enclave"
	"github.com/enclaveops/enclave-console-backend/logs"
	"github.com/enclaveops/enclave-console-backend/serviceresolver"
	"github.com/enclaveops/enclave-console-backend/storage"
	"github.com/enclaveops/enclave-console-backend/workflow"
)

var appFlags = append([]cli.Flag{
	flags.ListenAddrFlag,
	flags.AWSRegionFlag,
	flags.StoreURIFlag,
	flags.DeployStateMachineFlag,
	flags.CleanupStateMachineFlag,
	flags.ContainerLogGroupFlag,
	flags.AppZoneFlag,
	flags.DNSResolverFlag,
	flags.VerifyBaseURLFlag,
	flags.APIBaseURLFlag,
}, flags.CommonFlags...)

func main() {
	app := &cli.App{
		Name:   "enclave-console",
		Usage:  "Serve the enclave console API: lifecycle transitions, aggregated logs and attestation",
		Flags:  appFlags,
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cCtx.String(flags.AWSRegionFlag.Name)),
	})
	if err != nil {
		logger.Error("Failed to create AWS session", "err", err)
		return err
	}
	cwClient := cloudwatchlogs.New(sess)
	sfnClient := sfn.New(sess)

	storeFactory := storage.NewStoreFactory(logger)
	store, err := storeFactory.StoreFor(cCtx.String(flags.StoreURIFlag.Name))
	if err != nil {
		logger.Error("Failed to create enclave store", "err", err)
		return err
	}

	providers := enclave.NewRegistry()
	if err := providers.Register(enclave.AWSNitroProvider()); err != nil {
		return err
	}

	trigger := workflow.NewSFNTrigger(sfnClient, cCtx.String(flags.CleanupStateMachineFlag.Name), logger)
	controller := enclave.NewController(store, trigger, providers, logger)

	stateMachines := []logs.StateMachine{
		{Name: "deploy", ARN: cCtx.String(flags.DeployStateMachineFlag.Name)},
		{Name: "cleanup", ARN: cCtx.String(flags.CleanupStateMachineFlag.Name)},
	}
	aggregator := logs.NewAggregator(store, []logs.Fetcher{
		logs.NewContainerFetcher(cwClient, cCtx.String(flags.ContainerLogGroupFlag.Name), nil, logger),
		logs.NewWorkflowFetcher(sfnClient, stateMachines, nil, logger),
		logs.NewFunctionFetcher(cwClient, nil, logger),
		logs.NewApplicationFetcher(cwClient, logger),
	}, nil, logger)

	attestationCfg := attestation.Config{
		VerificationBaseURL: cCtx.String(flags.VerifyBaseURLFlag.Name),
		APIBaseURL:          cCtx.String(flags.APIBaseURLFlag.Name),
	}
	if zone := cCtx.String(flags.AppZoneFlag.Name); zone != "" {
		attestationCfg.Resolver = serviceresolver.New(zone, cCtx.String(flags.DNSResolverFlag.Name), logger)
	}
	attestationSvc := attestation.NewService(store, cwClient, attestationCfg, logger)

	handler := api.NewHandler(controller, aggregator, attestationSvc, logger)
	srv, err := api.New(flags.ConfigureServer(cCtx, logger), handler)
	if err != nil {
		logger.Error("Failed to create server", "err", err)
		return err
	}

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

	srv.RunInBackground()
	<-exit

	srv.Shutdown()
	return nil
}
