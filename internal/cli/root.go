package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/soapywu/pbxedit/internal/logging"
	"github.com/soapywu/pbxedit/manifest"
	"github.com/soapywu/pbxedit/pbxproj"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Strict  bool

	log zerolog.Logger
}

func (o *RootOptions) projectOptions() []pbxproj.ProjectOption {
	options := []pbxproj.ProjectOption{pbxproj.WithLogger(o.log)}
	if o.Strict {
		options = append(options, pbxproj.WithDocumentOptions(manifest.WithStrict()))
	}
	return options
}

// NewRootCommand creates the root command for the pbxedit CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{log: zerolog.Nop()}

	cmd := &cobra.Command{
		Use:           "pbxedit",
		Short:         "Edit Xcode project manifests",
		Long:          "Apply edit plans to project.pbxproj files without leaving dangling or duplicate references.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := zerolog.WarnLevel
			if opts.Verbose {
				level = zerolog.DebugLevel
			}
			opts.log = logging.New("pbxedit", cmd.ErrOrStderr(), level)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().BoolVar(&opts.Strict, "strict", false, "treat same-named entries of one kind as the same entry")

	cmd.AddCommand(NewApplyCommand(opts))
	cmd.AddCommand(NewDedupeCommand(opts))
	cmd.AddCommand(NewDumpCommand(opts))

	return cmd
}
