package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattfenwick/pickupscan/pkg/camera"
	"github.com/mattfenwick/pickupscan/pkg/location"
	"github.com/mattfenwick/pickupscan/pkg/scanner"
	"github.com/mattfenwick/pickupscan/pkg/telemetry"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func SetupScanCommand(rootFlags *RootFlags) *cobra.Command {
	command := &cobra.Command{
		Use:   "scan",
		Short: "scan one pharmacy QR code and submit it",
		Long: `Starts the first available scanning device, waits for one QR code, stops
the device and submits the scan together with the device position.

Devices are line oriented: each line read from the device is one decoded
QR payload.  Use "-" for standard input.`,
		Args: cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, as []string) error {
			v, err := loadConfig(cmd, rootFlags)
			if err != nil {
				return err
			}
			success, err := RunScan(v)
			if err != nil {
				return err
			}
			if !success {
				os.Exit(1)
			}
			return nil
		},
	}

	defaults := scanner.DefaultDecodeConfig()
	command.Flags().String("server", "http://localhost:8000", "base URL of the scan backend")
	command.Flags().StringSlice("device", []string{camera.StdinDevice}, "scanning devices in order of preference; the first present one is used")
	command.Flags().Int("fps", defaults.FramesPerSecond, "decode attempts per second")
	command.Flags().Int("detection-box", defaults.DetectionBoxSize, "edge length in pixels of the detection region")
	command.Flags().Duration("geolocation-timeout", scanner.DefaultGeolocationTimeout, "how long to wait for a position fix")
	command.Flags().String("location-file", "", "yaml/json file holding the current position fix")
	command.Flags().Float64("latitude", 0, "fixed latitude of this device (requires --longitude)")
	command.Flags().Float64("longitude", 0, "fixed longitude of this device (requires --latitude)")
	command.Flags().Duration("submit-timeout", 0, "client timeout for the scan submission; 0 waits indefinitely")
	command.Flags().Bool("repeat", false, "start a fresh session after each finished scan")
	command.Flags().String("metrics-addr", "", "if set, serve prometheus metrics on this address")
	command.Flags().String("jaeger-url", "", "if set, send traces to this jaeger collector endpoint")

	return command
}

// RunScan runs one session, or one after another with repeat, and reports
// whether the last one succeeded.
func RunScan(v *viper.Viper) (bool, error) {
	shutdownTracing, err := telemetry.SetUpTracing("pickupscan-scanner", v.GetString("jaeger-url"))
	if err != nil {
		return false, err
	}
	defer shutdownTracing()
	if addr := v.GetString("metrics-addr"); addr != "" {
		telemetry.ServeMetrics(addr)
	}

	var static *scanner.Coordinates
	if v.IsSet("latitude") != v.IsSet("longitude") {
		return false, errors.Errorf("--latitude and --longitude must be given together")
	} else if v.IsSet("latitude") {
		static = &scanner.Coordinates{Latitude: v.GetFloat64("latitude"), Longitude: v.GetFloat64("longitude")}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	device := camera.NewLineCamera(v.GetStringSlice("device"))
	acquirer := scanner.NewAcquirer(location.NewProvider(v.GetString("location-file"), static))
	submitter := scanner.NewSubmitter(v.GetString("server"), v.GetDuration("submit-timeout"))
	status := scanner.NewTerminalStatus(os.Stdout)

	for {
		controller := scanner.NewSessionController(device, acquirer, submitter, status)
		controller.DecodeConfig = scanner.DecodeConfig{
			FramesPerSecond:  v.GetInt("fps"),
			DetectionBoxSize: v.GetInt("detection-box"),
		}
		controller.GeolocationTimeout = v.GetDuration("geolocation-timeout")

		outcome, err := controller.Run(ctx)
		if err != nil {
			return false, err
		}
		logrus.Debugf("session finished: success=%t, message=%s", outcome.Success, outcome.Message)

		deviceGone := outcome.Message == scanner.MessageNoCamera || outcome.Message == scanner.MessageCameraFailed
		if !v.GetBool("repeat") || ctx.Err() != nil || deviceGone {
			return outcome.Success, nil
		}
	}
}
