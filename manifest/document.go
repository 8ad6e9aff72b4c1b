package manifest

import (
	"fmt"

	"github.com/soapywu/pbxedit/pegparser"
)

// Entry is one uniquely identified object of the manifest. ID and Kind must
// not be changed once the entry is registered.
type Entry struct {
	ID          string
	Kind        string
	DisplayName string
	Attributes  pegparser.Object
}

// Reference is a container's pointer to an entry. Position is the index in
// the container at the time the reference was read.
type Reference struct {
	Container  string
	Target     string
	Position   int
	Provenance string
}

// Container is an ordered membership list, e.g. a group's children or a
// build phase's files.
type Container struct {
	ID       string
	Kind     string
	Children []Reference
}

// Target is a build unit. Compilation names the container holding the files
// it compiles.
type Target struct {
	ID          string
	Name        string
	Compilation string
	Phases      []string
}

type container struct {
	id       string
	kind     string
	children []Reference
}

func (c *container) renumber() {
	for i := range c.children {
		c.children[i].Position = i
	}
}

func (c *container) count(entryID string) int {
	n := 0
	for _, ref := range c.children {
		if ref.Target == entryID {
			n++
		}
	}
	return n
}

func (c *container) snapshot() Container {
	children := make([]Reference, len(c.children))
	copy(children, c.children)
	return Container{ID: c.id, Kind: c.kind, Children: children}
}

// Document is an in-memory manifest: entries, containers that reference
// them, and targets. It is not safe for concurrent use.
type Document struct {
	// Comment is the leading comment line of the serialized form.
	Comment string
	// Attributes holds document-level values the adapter round-trips.
	Attributes pegparser.Object

	entries        map[string]*Entry
	entryOrder     []string
	containers     map[string]*container
	containerOrder []string
	targets        map[string]*Target
	targetOrder    []string

	ids    *IDGenerator
	strict bool
}

type Option func(d *Document)

// WithStrict makes AddEntry reject a second entry with the same kind and
// display name.
func WithStrict() Option {
	return func(d *Document) {
		d.strict = true
	}
}

func WithUUIDSource(source UUIDSource) Option {
	return func(d *Document) {
		d.ids = NewIDGenerator(d.inUse, source)
	}
}

func NewDocument(options ...Option) *Document {
	d := &Document{
		Attributes: pegparser.NewObject(),
		entries:    make(map[string]*Entry),
		containers: make(map[string]*container),
		targets:    make(map[string]*Target),
	}
	d.ids = NewIDGenerator(d.inUse, nil)
	for _, option := range options {
		option(d)
	}
	return d
}

func (d *Document) inUse(id string) bool {
	if _, ok := d.entries[id]; ok {
		return true
	}
	if _, ok := d.containers[id]; ok {
		return true
	}
	_, ok := d.targets[id]
	return ok
}

func (d *Document) Strict() bool {
	return d.strict
}

// NextID returns a fresh identifier without registering anything.
func (d *Document) NextID() (string, error) {
	return d.ids.Next()
}

// RegisterEntry adds an entry whose id is already known, as a loader does.
func (d *Document) RegisterEntry(e Entry) (*Entry, error) {
	if e.ID == "" {
		return nil, fmt.Errorf("%w: entry without id", ErrMalformedManifest)
	}
	if _, ok := d.entries[e.ID]; ok {
		return nil, fmt.Errorf("%w: id %s", ErrDuplicateEntry, e.ID)
	}
	if e.Attributes.SliceMap == nil {
		e.Attributes = pegparser.NewObject()
	}
	entry := &e
	d.entries[e.ID] = entry
	d.entryOrder = append(d.entryOrder, e.ID)
	d.ids.Reserve(e.ID)
	return entry, nil
}

func (d *Document) AddEntry(kind, name string, attributes pegparser.Object) (*Entry, error) {
	if d.strict && len(d.FindEntries(kind, name)) > 0 {
		return nil, fmt.Errorf("%w: %s %q", ErrDuplicateEntry, kind, name)
	}
	id, err := d.ids.Next()
	if err != nil {
		return nil, err
	}
	return d.RegisterEntry(Entry{
		ID:          id,
		Kind:        kind,
		DisplayName: name,
		Attributes:  attributes,
	})
}

func (d *Document) Entry(id string) (*Entry, error) {
	e, ok := d.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntry, id)
	}
	return e, nil
}

func (d *Document) HasEntry(id string) bool {
	_, ok := d.entries[id]
	return ok
}

// Entries returns every entry in document order.
func (d *Document) Entries() []*Entry {
	entries := make([]*Entry, 0, len(d.entryOrder))
	for _, id := range d.entryOrder {
		entries = append(entries, d.entries[id])
	}
	return entries
}

// FindEntries returns the entries of kind with the given display name. An
// empty kind matches any kind.
func (d *Document) FindEntries(kind, name string) []*Entry {
	var found []*Entry
	for _, id := range d.entryOrder {
		e := d.entries[id]
		if (kind == "" || e.Kind == kind) && e.DisplayName == name {
			found = append(found, e)
		}
	}
	return found
}

// RemoveEntry deletes an entry nothing references. A container or target
// registered under the same id goes with it.
func (d *Document) RemoveEntry(id string) error {
	if _, ok := d.entries[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEntry, id)
	}
	if in := d.Memberships(id); len(in) > 0 {
		return fmt.Errorf("%w: %s is in %v", ErrEntryInUse, id, in)
	}
	for _, tid := range d.targetOrder {
		for _, phase := range d.targets[tid].Phases {
			if phase == id {
				return fmt.Errorf("%w: %s is a phase of target %s", ErrEntryInUse, id, tid)
			}
		}
	}
	delete(d.entries, id)
	d.entryOrder = removeID(d.entryOrder, id)
	if _, ok := d.containers[id]; ok {
		delete(d.containers, id)
		d.containerOrder = removeID(d.containerOrder, id)
	}
	if _, ok := d.targets[id]; ok {
		delete(d.targets, id)
		d.targetOrder = removeID(d.targetOrder, id)
	}
	return nil
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

func (d *Document) RegisterContainer(id, kind string) (Container, error) {
	if id == "" {
		return Container{}, fmt.Errorf("%w: container without id", ErrMalformedManifest)
	}
	if _, ok := d.containers[id]; ok {
		return Container{}, fmt.Errorf("%w: container %s", ErrDuplicateEntry, id)
	}
	c := &container{id: id, kind: kind}
	d.containers[id] = c
	d.containerOrder = append(d.containerOrder, id)
	d.ids.Reserve(id)
	return c.snapshot(), nil
}

func (d *Document) container(id string) (*container, error) {
	c, ok := d.containers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownContainer, id)
	}
	return c, nil
}

// Container returns a copy of the container; changing it has no effect on
// the document.
func (d *Document) Container(id string) (Container, error) {
	c, err := d.container(id)
	if err != nil {
		return Container{}, err
	}
	return c.snapshot(), nil
}

func (d *Document) HasContainer(id string) bool {
	_, ok := d.containers[id]
	return ok
}

// ContainerIDs lists containers in document order, restricted to kinds when
// any are given.
func (d *Document) ContainerIDs(kinds ...string) []string {
	var ids []string
	for _, id := range d.containerOrder {
		if len(kinds) == 0 || containsString(kinds, d.containers[id].kind) {
			ids = append(ids, id)
		}
	}
	return ids
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Attach appends a reference without the membership check. Loaders use it
// to reproduce stored state, duplicates included.
func (d *Document) Attach(containerID, entryID, provenance string) (Reference, error) {
	c, err := d.container(containerID)
	if err != nil {
		return Reference{}, err
	}
	if !d.HasEntry(entryID) {
		return Reference{}, fmt.Errorf("%w: %s in %s", ErrDanglingReference, entryID, containerID)
	}
	ref := Reference{
		Container:  containerID,
		Target:     entryID,
		Position:   len(c.children),
		Provenance: provenance,
	}
	c.children = append(c.children, ref)
	return ref, nil
}

func (d *Document) Link(containerID, entryID, provenance string) (Reference, error) {
	c, err := d.container(containerID)
	if err != nil {
		return Reference{}, err
	}
	if !d.HasEntry(entryID) {
		return Reference{}, fmt.Errorf("%w: %s", ErrUnknownEntry, entryID)
	}
	if c.count(entryID) > 0 {
		return Reference{}, fmt.Errorf("%w: %s already in %s", ErrDuplicateMembership, entryID, containerID)
	}
	return d.Attach(containerID, entryID, provenance)
}

// Unlink drops every reference to entryID from the container and reports
// how many there were.
func (d *Document) Unlink(containerID, entryID string) (int, error) {
	c, err := d.container(containerID)
	if err != nil {
		return 0, err
	}
	kept := c.children[:0]
	removed := 0
	for _, ref := range c.children {
		if ref.Target == entryID {
			removed++
			continue
		}
		kept = append(kept, ref)
	}
	c.children = kept
	c.renumber()
	return removed, nil
}

func (d *Document) Contains(containerID, entryID string) bool {
	c, ok := d.containers[containerID]
	if !ok {
		return false
	}
	return c.count(entryID) > 0
}

// Memberships lists the containers referencing entryID, in document order.
func (d *Document) Memberships(entryID string) []string {
	var in []string
	for _, id := range d.containerOrder {
		if d.containers[id].count(entryID) > 0 {
			in = append(in, id)
		}
	}
	return in
}

func (d *Document) RegisterTarget(t Target) error {
	if t.ID == "" {
		return fmt.Errorf("%w: target without id", ErrMalformedManifest)
	}
	if _, ok := d.targets[t.ID]; ok {
		return fmt.Errorf("%w: target %s", ErrDuplicateEntry, t.ID)
	}
	if t.Compilation != "" && !d.HasContainer(t.Compilation) {
		return fmt.Errorf("%w: compilation phase %s of target %s", ErrUnknownContainer, t.Compilation, t.ID)
	}
	for _, phase := range t.Phases {
		if !d.HasEntry(phase) && !d.HasContainer(phase) {
			return fmt.Errorf("%w: phase %s of target %s", ErrDanglingReference, phase, t.ID)
		}
	}
	t.Phases = append([]string(nil), t.Phases...)
	d.targets[t.ID] = &t
	d.targetOrder = append(d.targetOrder, t.ID)
	d.ids.Reserve(t.ID)
	return nil
}

func (d *Document) Target(id string) (Target, error) {
	t, ok := d.targets[id]
	if !ok {
		return Target{}, fmt.Errorf("%w: %s", ErrUnknownTarget, id)
	}
	return *t, nil
}

func (d *Document) TargetByName(name string) (Target, error) {
	for _, id := range d.targetOrder {
		if d.targets[id].Name == name {
			return *d.targets[id], nil
		}
	}
	return Target{}, fmt.Errorf("%w: %q", ErrUnknownTarget, name)
}

func (d *Document) Targets() []Target {
	targets := make([]Target, 0, len(d.targetOrder))
	for _, id := range d.targetOrder {
		targets = append(targets, *d.targets[id])
	}
	return targets
}

// Validate reports the first reference whose target entry is missing.
func (d *Document) Validate() error {
	for _, id := range d.containerOrder {
		for _, ref := range d.containers[id].children {
			if !d.HasEntry(ref.Target) {
				return fmt.Errorf("%w: %s in %s", ErrDanglingReference, ref.Target, id)
			}
		}
	}
	return nil
}

// Clone returns an independent copy. The copy's id generator also avoids
// every id this document has handed out.
func (d *Document) Clone() *Document {
	c := &Document{
		Comment:        d.Comment,
		Attributes:     d.Attributes.Clone(),
		entries:        make(map[string]*Entry, len(d.entries)),
		entryOrder:     append([]string(nil), d.entryOrder...),
		containers:     make(map[string]*container, len(d.containers)),
		containerOrder: append([]string(nil), d.containerOrder...),
		targets:        make(map[string]*Target, len(d.targets)),
		targetOrder:    append([]string(nil), d.targetOrder...),
		strict:         d.strict,
	}
	for id, e := range d.entries {
		copied := *e
		copied.Attributes = e.Attributes.Clone()
		c.entries[id] = &copied
	}
	for id, ctr := range d.containers {
		c.containers[id] = &container{
			id:       ctr.id,
			kind:     ctr.kind,
			children: append([]Reference(nil), ctr.children...),
		}
	}
	for id, t := range d.targets {
		copied := *t
		copied.Phases = append([]string(nil), t.Phases...)
		c.targets[id] = &copied
	}
	c.ids = &IDGenerator{source: d.ids.source, inUse: c.inUse, issued: make(map[string]struct{}, len(d.ids.issued))}
	for id := range d.ids.issued {
		c.ids.issued[id] = struct{}{}
	}
	return c
}

// restore replaces the content with snapshot's. Ids issued since the
// snapshot stay reserved.
func (d *Document) restore(snapshot *Document) {
	s := snapshot.Clone()
	d.Comment = s.Comment
	d.Attributes = s.Attributes
	d.entries = s.entries
	d.entryOrder = s.entryOrder
	d.containers = s.containers
	d.containerOrder = s.containerOrder
	d.targets = s.targets
	d.targetOrder = s.targetOrder
}
