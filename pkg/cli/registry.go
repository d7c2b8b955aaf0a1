package cli

import (
	"fmt"

	"github.com/mattfenwick/pickupscan/pkg/backend"
	"github.com/mattfenwick/pickupscan/pkg/utils"
	"github.com/spf13/cobra"
)

type RegistryArgs struct {
	Path   string
	Domain string
	IDs    bool
}

func SetupRegistryCommand() *cobra.Command {
	args := &RegistryArgs{}

	command := &cobra.Command{
		Use:   "registry",
		Short: "validate a registry file and print its regions, pharmacies and QR links",
		Args:  cobra.ExactArgs(0),
		Run: func(cmd *cobra.Command, as []string) {
			RunRegistry(args)
		},
	}

	command.Flags().StringVar(&args.Path, "registry", "", "path to registry yaml file")
	utils.DoOrDie(command.MarkFlagRequired("registry"))

	command.Flags().StringVar(&args.Domain, "domain", "https://pickupscan.de", "base URL printed in the QR links")
	command.Flags().BoolVar(&args.IDs, "ids-only", false, "if true, print only the sorted pharmacy public ids")

	return command
}

func RunRegistry(args *RegistryArgs) {
	registry, err := backend.ParseRegistryFromFile(args.Path)
	utils.DoOrDie(err)

	if args.IDs {
		for _, id := range registry.PublicIDs() {
			fmt.Println(id)
		}
		return
	}
	fmt.Printf("regions:\n%s\n", registry.RegionsTable())
	fmt.Printf("pharmacies:\n%s\n", registry.PharmaciesTable(args.Domain))
}
