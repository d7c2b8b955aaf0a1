package main

import (
	"github.com/mattfenwick/pickupscan/pkg/cli"
)

func main() {
	cli.RunRootCommand()
}
