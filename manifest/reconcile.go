package manifest

import (
	"fmt"
)

// Placement declares where entries belong: in every Include container and in
// no Exclude container. Memberships in other containers are left alone.
type Placement struct {
	Entries []string
	Include []string
	Exclude []string
}

// Exclusive keeps entries in keep and out of every other candidate.
func Exclusive(entries, keep, candidates []string) Placement {
	var exclude []string
	for _, c := range candidates {
		if !containsString(keep, c) {
			exclude = append(exclude, c)
		}
	}
	return Placement{
		Entries: entries,
		Include: keep,
		Exclude: exclude,
	}
}

type Op int

const (
	OpLink Op = iota
	OpUnlink
	// OpCollapse drops repeated references to an entry, keeping the first.
	OpCollapse
)

func (o Op) String() string {
	switch o {
	case OpLink:
		return "link"
	case OpUnlink:
		return "unlink"
	case OpCollapse:
		return "collapse"
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

type Action struct {
	Op        Op
	Entry     string
	Container string
}

func (a Action) String() string {
	return fmt.Sprintf("%s %s %s", a.Op, a.Entry, a.Container)
}

// Reconciler drives an Engine toward declared placements with the fewest
// link and unlink calls.
type Reconciler struct {
	engine *Engine
}

func NewReconciler(engine *Engine) *Reconciler {
	return &Reconciler{engine: engine}
}

type membership struct {
	entry     string
	container string
}

// Diff computes the actions Apply would take. Placements are merged first,
// so an entry included in a container by one placement and excluded from it
// by another is a conflict. An empty result means the document already
// satisfies every placement.
func (r *Reconciler) Diff(placements ...Placement) ([]Action, error) {
	doc := r.engine.doc
	include := make(map[membership]bool)
	exclude := make(map[membership]bool)
	var entries []string
	for _, p := range placements {
		if err := r.engine.checkContainers(p.Include); err != nil {
			return nil, err
		}
		if err := r.engine.checkContainers(p.Exclude); err != nil {
			return nil, err
		}
		for _, id := range p.Entries {
			if !doc.HasEntry(id) {
				return nil, fmt.Errorf("%w: %s", ErrUnknownEntry, id)
			}
			if !containsString(entries, id) {
				entries = append(entries, id)
			}
			for _, c := range p.Include {
				include[membership{id, c}] = true
			}
			for _, c := range p.Exclude {
				exclude[membership{id, c}] = true
			}
		}
	}
	for m := range include {
		if exclude[m] {
			return nil, fmt.Errorf("%w: %s in %s", ErrConflictingPlacement, m.entry, m.container)
		}
	}

	var actions []Action
	for _, id := range entries {
		for _, c := range doc.containerOrder {
			m := membership{id, c}
			n := doc.containers[c].count(id)
			switch {
			case exclude[m] && n > 0:
				actions = append(actions, Action{Op: OpUnlink, Entry: id, Container: c})
			case include[m] && n == 0:
				actions = append(actions, Action{Op: OpLink, Entry: id, Container: c})
			case include[m] && n > 1:
				actions = append(actions, Action{Op: OpCollapse, Entry: id, Container: c})
			}
		}
	}
	return actions, nil
}

// Apply brings the document into the declared state and returns what it
// did.
func (r *Reconciler) Apply(placements ...Placement) ([]Action, error) {
	actions, err := r.Diff(placements...)
	if err != nil {
		return nil, err
	}
	if err := r.ApplyActions(actions); err != nil {
		return nil, err
	}
	return actions, nil
}

// ApplyActions runs actions computed earlier by Diff, unlinks before links.
// If one fails the document is left as it was.
func (r *Reconciler) ApplyActions(actions []Action) error {
	return r.engine.Atomic(func() error {
		for _, op := range []Op{OpUnlink, OpCollapse, OpLink} {
			for _, a := range actions {
				if a.Op != op {
					continue
				}
				if err := r.apply(a); err != nil {
					return fmt.Errorf("%s: %w", a, err)
				}
			}
		}
		return nil
	})
}

func (r *Reconciler) apply(a Action) error {
	switch a.Op {
	case OpUnlink:
		return r.engine.Reassign(a.Entry, []string{a.Container}, nil)
	case OpLink:
		if r.engine.doc.Contains(a.Container, a.Entry) {
			return nil
		}
		return r.engine.Reassign(a.Entry, nil, []string{a.Container})
	case OpCollapse:
		_, err := r.engine.collapse(a.Container, a.Entry)
		return err
	}
	return fmt.Errorf("unknown action %s", a)
}
