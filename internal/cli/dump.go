package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/soapywu/pbxedit/pbxproj"
)

// ValidFormats defines the allowed dump formats.
var ValidFormats = []string{"json", "yaml"}

type dumpOptions struct {
	Format string
}

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &dumpOptions{}

	cmd := &cobra.Command{
		Use:   "dump <project.pbxproj>",
		Short: "Print the parsed project as JSON or YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(rootOpts, opts, args[0], cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "json", "output format (json|yaml)")

	return cmd
}

func runDump(rootOpts *RootOptions, opts *dumpOptions, projectPath string, out io.Writer) error {
	if !isValidFormat(opts.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
	}
	p := pbxproj.NewPbxProject(projectPath, rootOpts.projectOptions()...)
	if err := p.Parse(); err != nil {
		return err
	}
	if opts.Format == "yaml" {
		return p.DumpYAML(out)
	}
	return p.Dump(out)
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
