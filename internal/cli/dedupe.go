package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/soapywu/pbxedit/pbxproj"
)

type dedupeOptions struct {
	Collapse bool
}

// NewDedupeCommand creates the dedupe command.
func NewDedupeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &dedupeOptions{}

	cmd := &cobra.Command{
		Use:   "dedupe <project.pbxproj> [group...]",
		Short: "Drop repeated group children and build files",
		Long: `Drop repeated references from the named groups, or from every group and
build phase when no group is named. With --collapse, groups sharing a name
are first merged into the first of them.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDedupe(rootOpts, opts, args[0], args[1:], cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&opts.Collapse, "collapse", false, "merge groups that share a name")

	return cmd
}

func runDedupe(rootOpts *RootOptions, opts *dedupeOptions, projectPath string, groups []string, out io.Writer) error {
	if opts.Collapse && len(groups) == 0 {
		return NewExitError(ExitCommandError, "--collapse needs at least one group")
	}

	collapsed, removed := 0, 0
	err := pbxproj.Edit(projectPath, func(p *pbxproj.PbxProject) error {
		if len(groups) == 0 {
			refs, err := p.DeduplicateAll()
			removed = len(refs)
			return err
		}
		for _, group := range groups {
			if opts.Collapse {
				n, err := p.CollapseGroups(group)
				if err != nil {
					return err
				}
				collapsed += n
			}
			refs, err := p.Deduplicate(group)
			if err != nil {
				return err
			}
			removed += len(refs)
		}
		return nil
	}, rootOpts.projectOptions()...)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "collapsed %d groups, removed %d duplicate references\n", collapsed, removed)
	color.New(color.FgGreen).Fprintf(out, "wrote %s\n", projectPath)
	return nil
}
