package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattfenwick/pickupscan/pkg/backend"
	"github.com/mattfenwick/pickupscan/pkg/telemetry"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func SetupServeCommand(rootFlags *RootFlags) *cobra.Command {
	command := &cobra.Command{
		Use:   "serve",
		Short: "run the scan backend (POST /api/scan, GET /api/scans)",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, as []string) error {
			v, err := loadConfig(cmd, rootFlags)
			if err != nil {
				return err
			}
			return RunServe(v)
		},
	}

	command.Flags().String("listen", ":8000", "address to listen on")
	command.Flags().String("registry", "", "yaml file of regions and pharmacies")
	command.Flags().Duration("duplicate-window", backend.DefaultDuplicateWindow, "repeat scans of a pharmacy by the same client within this window are flagged as duplicates")
	command.Flags().String("jaeger-url", "", "if set, send traces to this jaeger collector endpoint")

	return command
}

func RunServe(v *viper.Viper) error {
	registryPath := v.GetString("registry")
	if registryPath == "" {
		return errors.Errorf("a registry file is required (--registry)")
	}
	registry, err := backend.ParseRegistryFromFile(registryPath)
	if err != nil {
		return err
	}

	shutdownTracing, err := telemetry.SetUpTracing("pickupscan-backend", v.GetString("jaeger-url"))
	if err != nil {
		return err
	}
	defer shutdownTracing()
	telemetry.InitializeMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := backend.NewServer(registry, v.GetDuration("duplicate-window"))
	return errors.Wrapf(backend.RunServer(ctx, v.GetString("listen"), server), "http server on %s", v.GetString("listen"))
}
