package cli

import (
	"strings"

	"github.com/mattfenwick/pickupscan/pkg/utils"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "PICKUPSCAN"

func RunRootCommand() {
	command := SetupRootCommand()
	utils.DoOrDie(errors.Wrapf(command.Execute(), "run root command"))
}

type RootFlags struct {
	Verbosity  string
	ConfigFile string
}

func SetupRootCommand() *cobra.Command {
	flags := &RootFlags{}
	command := &cobra.Command{
		Use:   "pickupscan",
		Short: "scan pharmacy pickup QR codes and collect the scans",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return utils.SetUpLogger(flags.Verbosity)
		},
		SilenceUsage: true,
	}

	command.PersistentFlags().StringVarP(&flags.Verbosity, "verbosity", "v", "info", "log level; one of [info, debug, trace, warn, error, fatal, panic]")
	command.PersistentFlags().StringVar(&flags.ConfigFile, "config", "", "config file; defaults to ./pickupscan.yaml if present")

	command.AddCommand(SetupVersionCommand())
	command.AddCommand(SetupScanCommand(flags))
	command.AddCommand(SetupServeCommand(flags))
	command.AddCommand(SetupScansCommand(flags))
	command.AddCommand(SetupPublicIDCommand())
	command.AddCommand(SetupRegistryCommand())

	return command
}

// loadConfig layers settings: flags over PICKUPSCAN_* env vars over the config
// file over flag defaults.  Keys are flag names, e.g. `geolocation-timeout: 3s`
// or PICKUPSCAN_GEOLOCATION_TIMEOUT=3s.
func loadConfig(cmd *cobra.Command, rootFlags *RootFlags) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, errors.Wrapf(err, "unable to bind flags")
	}

	if rootFlags.ConfigFile != "" {
		v.SetConfigFile(rootFlags.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "unable to read config file %s", rootFlags.ConfigFile)
		}
	} else {
		v.SetConfigName("pickupscan")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, errors.Wrapf(err, "unable to read config file")
			}
		}
	}
	if used := v.ConfigFileUsed(); used != "" {
		logrus.Infof("using config file %s", used)
	}
	return v, nil
}
