package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/soapywu/pbxedit/internal/config"
	"github.com/soapywu/pbxedit/internal/plan"
	"github.com/soapywu/pbxedit/manifest"
	"github.com/soapywu/pbxedit/pbxproj"
)

type applyOptions struct {
	DryRun bool
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &applyOptions{}

	cmd := &cobra.Command{
		Use:   "apply <plan.toml> [project.pbxproj]",
		Short: "Apply an edit plan to a project",
		Long: `Apply the steps of a TOML edit plan to a project.pbxproj.

The project path comes from the second argument or the plan's "project" key.
Either every step applies or the file is left untouched.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(rootOpts, opts, args, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVarP(&opts.DryRun, "dry-run", "n", false, "print the resulting changes without writing")

	return cmd
}

func runApply(rootOpts *RootOptions, opts *applyOptions, args []string, out io.Writer) error {
	p, err := config.Load(args[0])
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid plan", err)
	}
	projectPath := p.Project
	if len(args) == 2 {
		projectPath = args[1]
	}
	if projectPath == "" {
		return NewExitError(ExitCommandError, "no project: pass it as an argument or set \"project\" in the plan")
	}

	projectOptions := rootOpts.projectOptions()
	if p.Strict && !rootOpts.Strict {
		projectOptions = append(projectOptions, pbxproj.WithDocumentOptions(manifest.WithStrict()))
	}

	if opts.DryRun {
		return dryRun(rootOpts, p, projectPath, projectOptions, out)
	}

	var report *plan.Report
	err = pbxproj.Edit(projectPath, func(project *pbxproj.PbxProject) error {
		var err error
		report, err = plan.NewRunner(project, rootOpts.log).Run(p)
		return err
	}, projectOptions...)
	if err != nil {
		return err
	}
	writeReport(out, report)
	color.New(color.FgGreen).Fprintf(out, "wrote %s\n", projectPath)
	return nil
}

func dryRun(rootOpts *RootOptions, p *config.Plan, projectPath string, options []pbxproj.ProjectOption, out io.Writer) error {
	project := pbxproj.NewPbxProject(projectPath, options...)
	if err := project.Parse(); err != nil {
		return err
	}
	before, err := project.Bytes()
	if err != nil {
		return err
	}
	report, err := plan.NewRunner(project, rootOpts.log).Run(p)
	if err != nil {
		return err
	}
	after, err := project.Bytes()
	if err != nil {
		return err
	}

	writeReport(out, report)
	if !writeLineDiff(out, string(before), string(after)) {
		color.New(color.FgYellow).Fprintln(out, "no changes")
	}
	return nil
}

func writeReport(out io.Writer, report *plan.Report) {
	for _, res := range report.Results {
		status := color.New(color.Faint).Sprint("unchanged")
		if res.Changed() {
			status = color.New(color.FgGreen).Sprint("changed")
		}
		fmt.Fprintf(out, "%-7s %-40s %s\n", res.Step, res.Detail, status)
		for _, a := range res.Actions {
			fmt.Fprintf(out, "        %s\n", a)
		}
	}
}
