package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/mattfenwick/pickupscan/pkg/admin"
	"github.com/mattfenwick/pickupscan/pkg/scanner"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func SetupScansCommand(rootFlags *RootFlags) *cobra.Command {
	command := &cobra.Command{
		Use:   "scans",
		Short: "list recorded scans with timestamps in local time",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, as []string) error {
			v, err := loadConfig(cmd, rootFlags)
			if err != nil {
				return err
			}
			return RunScans(v)
		},
	}

	command.Flags().String("server", "http://localhost:8000", "base URL of the scan backend")
	command.Flags().String("timezone", "", "IANA time zone for displayed timestamps; defaults to the local zone")

	return command
}

func RunScans(v *viper.Viper) error {
	loc := time.Local
	if tz := v.GetString("timezone"); tz != "" {
		var err error
		loc, err = time.LoadLocation(tz)
		if err != nil {
			return errors.Wrapf(err, "unable to load time zone %s", tz)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rows, err := admin.FetchScans(ctx, scanner.NewRestyClient(v.GetString("server"), 0))
	if err != nil {
		return err
	}
	fmt.Printf("%d scans\n%s", len(rows), admin.ScansTable(rows, loc))
	return nil
}
