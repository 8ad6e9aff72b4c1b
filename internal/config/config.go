package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

var ErrInvalidPlan = errors.New("invalid plan")

// Plan is an edit plan read from TOML. Steps run in a fixed order:
// dedupe, add, group, assign, remove.
type Plan struct {
	Project string       `toml:"project"`
	Strict  bool         `toml:"strict"`
	Dedupe  []DedupeStep `toml:"dedupe"`
	Add     []AddStep    `toml:"add"`
	Group   []GroupStep  `toml:"group"`
	Assign  []AssignStep `toml:"assign"`
	Remove  []RemoveStep `toml:"remove"`
}

// DedupeStep drops repeated children. An empty Group means every group and
// build phase. Collapse first merges groups sharing the name.
type DedupeStep struct {
	Group    string `toml:"group"`
	Collapse bool   `toml:"collapse"`
}

type AddStep struct {
	Path          string   `toml:"path"`
	Group         string   `toml:"group"`
	Targets       []string `toml:"targets"`
	CompilerFlags string   `toml:"compiler_flags"`
	Weak          bool     `toml:"weak"`
}

// Selector picks file references by name, by an expression over
// id, kind, name and path, or both.
type Selector struct {
	Files []string `toml:"files"`
	Where string   `toml:"where"`
}

func (s Selector) empty() bool {
	return len(s.Files) == 0 && strings.TrimSpace(s.Where) == ""
}

type GroupStep struct {
	Selector
	Group string `toml:"group"`
}

type AssignStep struct {
	Selector
	Targets []string `toml:"targets"`
}

type RemoveStep struct {
	Path  string `toml:"path"`
	Group string `toml:"group"`
}

func Load(path string) (*Plan, error) {
	var plan Plan
	meta, err := toml.DecodeFile(path, &plan)
	if err != nil {
		return nil, fmt.Errorf("load plan: %w", err)
	}
	if err := checkUndecoded(meta); err != nil {
		return nil, err
	}
	plan.normalize()
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return &plan, nil
}

func Parse(data string) (*Plan, error) {
	var plan Plan
	meta, err := toml.Decode(data, &plan)
	if err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}
	if err := checkUndecoded(meta); err != nil {
		return nil, err
	}
	plan.normalize()
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return &plan, nil
}

func checkUndecoded(meta toml.MetaData) error {
	undecoded := meta.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}
	keys := make([]string, 0, len(undecoded))
	for _, key := range undecoded {
		keys = append(keys, key.String())
	}
	sort.Strings(keys)
	return fmt.Errorf("%w: unknown keys %s", ErrInvalidPlan, strings.Join(keys, ", "))
}

func (p *Plan) normalize() {
	p.Project = strings.TrimSpace(p.Project)
	for i := range p.Add {
		p.Add[i].Path = strings.TrimSpace(p.Add[i].Path)
		p.Add[i].Group = strings.TrimSpace(p.Add[i].Group)
		p.Add[i].Targets = normalizeNames(p.Add[i].Targets)
	}
	for i := range p.Group {
		p.Group[i].Files = normalizeNames(p.Group[i].Files)
		p.Group[i].Group = strings.TrimSpace(p.Group[i].Group)
	}
	for i := range p.Assign {
		p.Assign[i].Files = normalizeNames(p.Assign[i].Files)
		p.Assign[i].Targets = normalizeNames(p.Assign[i].Targets)
	}
	for i := range p.Remove {
		p.Remove[i].Path = strings.TrimSpace(p.Remove[i].Path)
		p.Remove[i].Group = strings.TrimSpace(p.Remove[i].Group)
	}
}

// normalizeNames trims names and drops empty and repeated ones.
func normalizeNames(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, name := range in {
		v := strings.TrimSpace(name)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func (p *Plan) Validate() error {
	for i, step := range p.Dedupe {
		if step.Collapse && step.Group == "" {
			return fmt.Errorf("%w: dedupe[%d]: collapse needs a group", ErrInvalidPlan, i)
		}
	}
	for i, step := range p.Add {
		if step.Path == "" {
			return fmt.Errorf("%w: add[%d]: path is required", ErrInvalidPlan, i)
		}
		if step.Group == "" {
			return fmt.Errorf("%w: add[%d]: group is required", ErrInvalidPlan, i)
		}
	}
	for i, step := range p.Group {
		if step.Group == "" {
			return fmt.Errorf("%w: group[%d]: group is required", ErrInvalidPlan, i)
		}
		if step.empty() {
			return fmt.Errorf("%w: group[%d]: files or where is required", ErrInvalidPlan, i)
		}
	}
	for i, step := range p.Assign {
		if len(step.Targets) == 0 {
			return fmt.Errorf("%w: assign[%d]: targets are required", ErrInvalidPlan, i)
		}
		if step.empty() {
			return fmt.Errorf("%w: assign[%d]: files or where is required", ErrInvalidPlan, i)
		}
	}
	for i, step := range p.Remove {
		if step.Path == "" || step.Group == "" {
			return fmt.Errorf("%w: remove[%d]: path and group are required", ErrInvalidPlan, i)
		}
	}
	return nil
}

// Steps counts the steps in the plan.
func (p *Plan) Steps() int {
	return len(p.Dedupe) + len(p.Add) + len(p.Group) + len(p.Assign) + len(p.Remove)
}
