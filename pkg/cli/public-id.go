package cli

import (
	"fmt"

	"github.com/mattfenwick/pickupscan/pkg/backend"
	"github.com/mattfenwick/pickupscan/pkg/utils"
	"github.com/spf13/cobra"
)

type PublicIDArgs struct {
	Count  int
	Domain string
}

func SetupPublicIDCommand() *cobra.Command {
	args := &PublicIDArgs{}

	command := &cobra.Command{
		Use:   "public-id",
		Short: "generate opaque public ids and the QR links that carry them",
		Args:  cobra.ExactArgs(0),
		Run: func(cmd *cobra.Command, as []string) {
			RunPublicID(args)
		},
	}

	command.Flags().IntVar(&args.Count, "count", 1, "number of ids to generate")
	command.Flags().StringVar(&args.Domain, "domain", "https://pickupscan.de", "base URL printed in the QR link")

	return command
}

func RunPublicID(args *PublicIDArgs) {
	for i := 0; i < args.Count; i++ {
		id, err := backend.GeneratePublicID()
		utils.DoOrDie(err)
		fmt.Printf("%s\t%s\n", id, backend.QRLink(args.Domain, id))
	}
}
