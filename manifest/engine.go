package manifest

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/soapywu/pbxedit/pegparser"
)

// Engine composes the document primitives into operations that never leave
// a dangling reference or a duplicate membership behind.
type Engine struct {
	doc *Document
	log zerolog.Logger
}

type EngineOption func(e *Engine)

func WithLogger(log zerolog.Logger) EngineOption {
	return func(e *Engine) {
		e.log = log
	}
}

func NewEngine(doc *Document, options ...EngineOption) *Engine {
	e := &Engine{
		doc: doc,
		log: zerolog.Nop(),
	}
	for _, option := range options {
		option(e)
	}
	return e
}

func (e *Engine) Document() *Document {
	return e.doc
}

func (e *Engine) checkContainers(ids []string) error {
	for _, id := range ids {
		if !e.doc.HasContainer(id) {
			return fmt.Errorf("%w: %s", ErrUnknownContainer, id)
		}
	}
	return nil
}

// InsertAndLink creates an entry and links it into every container that
// does not hold it yet. In strict mode an entry with the same kind and
// display name is reused, so repeating the call changes nothing.
func (e *Engine) InsertAndLink(kind, name string, attributes pegparser.Object, containers ...string) (*Entry, error) {
	if err := e.checkContainers(containers); err != nil {
		return nil, err
	}

	var entry *Entry
	if e.doc.strict {
		if found := e.doc.FindEntries(kind, name); len(found) > 0 {
			entry = found[0]
		}
	}
	if entry == nil {
		var err error
		entry, err = e.doc.AddEntry(kind, name, attributes)
		if err != nil {
			return nil, err
		}
		e.log.Debug().Str("entry", entry.ID).Str("kind", kind).Str("name", name).Msg("insert")
	}

	for _, c := range containers {
		if e.doc.Contains(c, entry.ID) {
			continue
		}
		if _, err := e.doc.Link(c, entry.ID, entry.DisplayName); err != nil {
			return entry, err
		}
		e.log.Debug().Str("entry", entry.ID).Str("container", c).Msg("link")
	}
	return entry, nil
}

// Deduplicate keeps the first reference to each entry and returns the ones
// it dropped, in their original order.
func (e *Engine) Deduplicate(containerID string) ([]Reference, error) {
	c, err := e.doc.container(containerID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(c.children))
	kept := make([]Reference, 0, len(c.children))
	var removed []Reference
	for _, ref := range c.children {
		if _, dup := seen[ref.Target]; dup {
			removed = append(removed, ref)
			continue
		}
		seen[ref.Target] = struct{}{}
		kept = append(kept, ref)
	}
	if len(removed) == 0 {
		return nil, nil
	}
	c.children = kept
	c.renumber()
	for _, ref := range removed {
		e.log.Debug().Str("entry", ref.Target).Str("container", containerID).Int("position", ref.Position).Msg("drop duplicate")
	}
	return removed, nil
}

// collapse keeps only the first reference to entryID in the container.
func (e *Engine) collapse(containerID, entryID string) (int, error) {
	c, err := e.doc.container(containerID)
	if err != nil {
		return 0, err
	}
	kept := make([]Reference, 0, len(c.children))
	removed := 0
	seen := false
	for _, ref := range c.children {
		if ref.Target == entryID {
			if seen {
				removed++
				continue
			}
			seen = true
		}
		kept = append(kept, ref)
	}
	c.children = kept
	c.renumber()
	return removed, nil
}

// Reassign moves an entry: it leaves every container in removeFrom, then
// joins every container in addTo it is not already in. All ids are checked
// before anything changes.
func (e *Engine) Reassign(entryID string, removeFrom, addTo []string) error {
	entry, err := e.doc.Entry(entryID)
	if err != nil {
		return err
	}
	if err := e.checkContainers(removeFrom); err != nil {
		return err
	}
	if err := e.checkContainers(addTo); err != nil {
		return err
	}

	for _, c := range removeFrom {
		n, err := e.doc.Unlink(c, entryID)
		if err != nil {
			return err
		}
		if n > 0 {
			e.log.Debug().Str("entry", entryID).Str("container", c).Int("references", n).Msg("unlink")
		}
	}
	for _, c := range addTo {
		if e.doc.Contains(c, entryID) {
			continue
		}
		if _, err := e.doc.Link(c, entryID, entry.DisplayName); err != nil {
			return err
		}
		e.log.Debug().Str("entry", entryID).Str("container", c).Msg("link")
	}
	return nil
}

// Atomic runs fn and puts the document back the way it was if fn fails.
func (e *Engine) Atomic(fn func() error) error {
	snapshot := e.doc.Clone()
	if err := fn(); err != nil {
		e.doc.restore(snapshot)
		e.log.Debug().Err(err).Msg("rolled back")
		return err
	}
	return nil
}
