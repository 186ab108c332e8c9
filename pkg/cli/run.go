package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/scangate/scangate/internal/domain-adapters/emitters"
	adapters "github.com/scangate/scangate/internal/domain-adapters/gateways"
	adaptersinks "github.com/scangate/scangate/internal/domain-adapters/sinks"
	orchestrators "github.com/scangate/scangate/internal/domain-orchestrators"
	"github.com/scangate/scangate/internal/domain/interfaces"
	"github.com/scangate/scangate/internal/external-adapters/gpg"
	configyaml "github.com/scangate/scangate/internal/external-adapters/yaml"
)

// Exit codes follow the common scanner convention: 0 on gate pass, 2 when
// the gate fails on findings, 3 on errors unrelated to vulnerability
// content (scanner unreachable, bad configuration).
const (
	exitPass  = 0
	exitFail  = 2
	exitError = 3
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run the scan pipeline for one artifact",
		Example: "scangate run --artifact registry.example.com/demo:sha-3f2a1b --config scangate.yaml",
		RunE:    runPipeline,
	}

	cmd.Flags().String("artifact", "", "Artifact reference to scan (required)")
	cmd.Flags().String("scanner", "", "Scanner gateway override (trivy or file)")
	cmd.Flags().String("report-path", "", "Pre-produced scan report for the file gateway")
	cmd.Flags().String("dashboard-url", "", "Code-scanning dashboard endpoint for interop uploads")

	_ = viper.BindPFlag("run.artifact", cmd.Flags().Lookup("artifact"))
	_ = viper.BindPFlag("run.scanner", cmd.Flags().Lookup("scanner"))
	_ = viper.BindPFlag("run.report-path", cmd.Flags().Lookup("report-path"))
	_ = viper.BindPFlag("run.dashboard-url", cmd.Flags().Lookup("dashboard-url"))

	return cmd
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	artifactRef := viper.GetString("run.artifact")
	if artifactRef == "" {
		return errors.New("please provide --artifact")
	}

	logger := &interfaces.StderrLogger{}

	data, err := os.ReadFile(viper.GetString("config"))
	if err != nil {
		return fmt.Errorf("read configuration: %w", err)
	}
	cfg, err := configyaml.NewConfigParser().Parse(data)
	if err != nil {
		return err
	}
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	scannerName := cfg.Scanner
	if override := viper.GetString("run.scanner"); override != "" {
		scannerName = override
	}
	reportPath := cfg.ReportPath
	if override := viper.GetString("run.report-path"); override != "" {
		reportPath = override
	}

	registry := adapters.NewRegistry(
		adapters.NewTrivyGateway(),
		adapters.NewFileGateway(reportPath),
	)
	scanner, err := registry.Get(scannerName)
	if err != nil {
		return err
	}

	sinks := orchestrators.Sinks{
		Store: adaptersinks.NewFSReportStore(viper.GetString("output")),
	}
	if url := viper.GetString("run.dashboard-url"); url != "" {
		sinks.Dashboard = adaptersinks.NewHTTPDashboardSink(url)
	}
	if cfg.SigningKey != "" {
		signer, err := gpg.NewSignerFromFile(cfg.SigningKey)
		if err != nil {
			return err
		}
		sinks.Signer = signer
	}

	pipeline := orchestrators.NewPipeline(scanner, emitters.DefaultRegistry(), sinks, logger, orchestrators.Config{
		RetryBound:  cfg.RetryBound,
		ScanTimeout: cfg.ScanTimeout,
		Retention:   cfg.Retention,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting pipeline",
		interfaces.F("artifact", artifactRef),
		interfaces.F("scanner", scannerName),
		interfaces.F("profiles", len(cfg.Profiles)))

	res, runErr := pipeline.Run(ctx, artifactRef, cfg.Profiles)
	fmt.Println(orchestrators.Summary(res))

	switch {
	case runErr != nil:
		os.Exit(exitError)
	case res.Status == orchestrators.StatusFail:
		os.Exit(exitFail)
	}
	return nil
}
