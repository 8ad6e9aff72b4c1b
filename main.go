package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/soapywu/pbxedit/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		os.Exit(cli.GetExitCode(err))
	}
}
