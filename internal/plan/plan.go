package plan

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/soapywu/pbxedit/internal/config"
	"github.com/soapywu/pbxedit/manifest"
	"github.com/soapywu/pbxedit/pbxproj"
)

// Result records what one step changed.
type Result struct {
	Step    string
	Detail  string
	Actions []manifest.Action
	Added   int
	Removed int
}

func (r Result) Changed() bool {
	return len(r.Actions) > 0 || r.Added > 0 || r.Removed > 0
}

type Report struct {
	Results []Result
}

// Changes counts the steps that changed something.
func (r *Report) Changes() int {
	n := 0
	for _, res := range r.Results {
		if res.Changed() {
			n++
		}
	}
	return n
}

type Runner struct {
	project *pbxproj.PbxProject
	log     zerolog.Logger
}

func NewRunner(project *pbxproj.PbxProject, log zerolog.Logger) *Runner {
	return &Runner{project: project, log: log}
}

// Run applies every step of plan. If one fails the project is left as it
// was before Run.
func (r *Runner) Run(plan *config.Plan) (*Report, error) {
	report := &Report{}
	err := r.project.Engine().Atomic(func() error {
		for _, step := range plan.Dedupe {
			res, err := r.dedupe(step)
			if err != nil {
				return err
			}
			report.add(r.log, res)
		}
		for _, step := range plan.Add {
			res, err := r.addFile(step)
			if err != nil {
				return err
			}
			report.add(r.log, res)
		}
		for _, step := range plan.Group {
			ids, err := Select(r.project.FileReferences(), step.Selector)
			if err != nil {
				return err
			}
			actions, err := r.project.AddEntriesToGroup(ids, step.Group)
			if err != nil {
				return fmt.Errorf("group %q: %w", step.Group, err)
			}
			report.add(r.log, Result{Step: "group", Detail: step.Group, Actions: actions})
		}
		for _, step := range plan.Assign {
			ids, err := Select(r.project.FileReferences(), step.Selector)
			if err != nil {
				return err
			}
			actions, err := r.project.AssignEntries(ids, step.Targets...)
			if err != nil {
				return fmt.Errorf("assign %v: %w", step.Targets, err)
			}
			report.add(r.log, Result{Step: "assign", Detail: fmt.Sprint(step.Targets), Actions: actions})
		}
		for _, step := range plan.Remove {
			if err := r.project.RemoveSourceFile(step.Path, step.Group); err != nil {
				return fmt.Errorf("remove %s: %w", step.Path, err)
			}
			report.add(r.log, Result{Step: "remove", Detail: step.Path, Removed: 1})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (r *Report) add(log zerolog.Logger, res Result) {
	r.Results = append(r.Results, res)
	log.Info().Str("step", res.Step).Str("detail", res.Detail).
		Int("actions", len(res.Actions)).Int("added", res.Added).Int("removed", res.Removed).Msg("step done")
}

func (r *Runner) dedupe(step config.DedupeStep) (Result, error) {
	res := Result{Step: "dedupe", Detail: step.Group}
	if step.Collapse {
		n, err := r.project.CollapseGroups(step.Group)
		if err != nil {
			return res, fmt.Errorf("collapse %q: %w", step.Group, err)
		}
		res.Removed += n
	}

	var removed []manifest.Reference
	var err error
	if step.Group == "" {
		res.Detail = "*"
		removed, err = r.project.DeduplicateAll()
	} else {
		removed, err = r.project.Deduplicate(step.Group)
	}
	if err != nil {
		return res, fmt.Errorf("dedupe %q: %w", step.Group, err)
	}
	res.Removed += len(removed)
	return res, nil
}

func (r *Runner) addFile(step config.AddStep) (Result, error) {
	res := Result{Step: "add", Detail: step.Path}
	before := len(r.project.Document().Entries())
	options := pbxproj.PbxFileOptions{
		CompilerFlags: step.CompilerFlags,
		Weak:          step.Weak,
	}
	if err := r.project.AddSourceFileWithOptions(step.Path, step.Group, options, step.Targets...); err != nil {
		return res, fmt.Errorf("add %s: %w", step.Path, err)
	}
	res.Added = len(r.project.Document().Entries()) - before
	return res, nil
}
