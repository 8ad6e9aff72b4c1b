/**
Licensed to the Apache Software Foundation (ASF) under one
or more contributor license agreements.  See the NOTICE file
distributed with this work for additional information
regarding copyright ownership.  The ASF licenses this file
to you under the Apache License, Version 2.0 (the
'License'); you may not use this file except in compliance
with the License.  You may obtain a copy of the License at
http://www.apache.org/licenses/LICENSE-2.0
Unless required by applicable law or agreed to in writing,
software distributed under the License is distributed on an
'AS IS' BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
KIND, either express or implied.  See the License for the
specific language governing permissions and limitations
under the License.
*/

package pbxproj

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog"

	"github.com/soapywu/pbxedit/manifest"
	"github.com/soapywu/pbxedit/pegparser"
)

const SourcesGroup = "Sources"

type ProjectOption func(p *PbxProject)

func WithLogger(log zerolog.Logger) ProjectOption {
	return func(p *PbxProject) {
		p.log = log
	}
}

func WithDocumentOptions(options ...manifest.Option) ProjectOption {
	return func(p *PbxProject) {
		p.docOptions = append(p.docOptions, options...)
	}
}

// FileInfo describes one PBXFileReference.
type FileInfo struct {
	ID   string
	Name string
	Path string
	Kind string
}

// PbxProject edits one project.pbxproj. Every workflow either completes or
// leaves the document as it was.
type PbxProject struct {
	filePath   string
	log        zerolog.Logger
	docOptions []manifest.Option

	doc        *manifest.Document
	engine     *manifest.Engine
	reconciler *manifest.Reconciler
}

func NewPbxProject(filename string, options ...ProjectOption) *PbxProject {
	p := &PbxProject{
		filePath: filename,
		log:      zerolog.Nop(),
	}
	for _, option := range options {
		option(p)
	}
	return p
}

// Edit loads the project at filename, runs fn and saves the result. Nothing
// is written if fn fails.
func Edit(filename string, fn func(p *PbxProject) error, options ...ProjectOption) error {
	p := NewPbxProject(filename, options...)
	store := NewFileStore(filename, p.docOptions...)
	return manifest.Session(store, func(e *manifest.Engine) error {
		p.attach(e)
		return fn(p)
	}, manifest.WithLogger(p.log))
}

func (p *PbxProject) attach(engine *manifest.Engine) {
	p.engine = engine
	p.doc = engine.Document()
	p.reconciler = manifest.NewReconciler(engine)
}

func (p *PbxProject) Parse() error {
	doc, err := NewFileStore(p.filePath, p.docOptions...).Load()
	if err != nil {
		return err
	}
	p.attach(manifest.NewEngine(doc, manifest.WithLogger(p.log)))
	return nil
}

// ParseReader loads the project from r instead of the file.
func (p *PbxProject) ParseReader(r io.Reader) error {
	contents, err := pegparser.ParseReader(p.filePath, r)
	if err != nil {
		return fmt.Errorf("%w: %w", manifest.ErrMalformedManifest, err)
	}
	doc, err := Decode(contents, p.docOptions...)
	if err != nil {
		return err
	}
	p.attach(manifest.NewEngine(doc, manifest.WithLogger(p.log)))
	return nil
}

func (p *PbxProject) Document() *manifest.Document {
	return p.doc
}

func (p *PbxProject) Engine() *manifest.Engine {
	return p.engine
}

func (p *PbxProject) Contents() (pegparser.Object, error) {
	return Encode(p.doc)
}

func (p *PbxProject) Bytes() ([]byte, error) {
	contents, err := p.Contents()
	if err != nil {
		return nil, err
	}
	return NewPbxWriter(contents).Bytes()
}

func (p *PbxProject) Dump(writer io.Writer) error {
	contents, err := p.Contents()
	if err != nil {
		return err
	}
	buffer := bytes.NewBuffer([]byte{})
	jsonEncoder := json.NewEncoder(buffer)
	jsonEncoder.SetEscapeHTML(false)
	jsonEncoder.SetIndent("", "  ")
	if err := jsonEncoder.Encode(contents); err != nil {
		return err
	}
	_, err = writer.Write(buffer.Bytes())
	return err
}

func (p *PbxProject) DumpYAML(writer io.Writer) error {
	contents, err := p.Contents()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(contents)
	if err != nil {
		return err
	}
	_, err = writer.Write(data)
	return err
}

func (p *PbxProject) Write(filePath string) error {
	return NewFileStore(filePath).Save(p.doc)
}

func (p *PbxProject) Save() error {
	return p.Write(p.filePath)
}

func (p *PbxProject) entryName(id string) string {
	e, err := p.doc.Entry(id)
	if err != nil {
		return ""
	}
	return e.DisplayName
}

// groupsNamed lists the groups shown as name, in document order. Groups
// without a comment match on their name or path attribute.
func (p *PbxProject) groupsNamed(name string) []string {
	var ids []string
	for _, id := range p.doc.ContainerIDs(groupKinds...) {
		e, err := p.doc.Entry(id)
		if err != nil {
			continue
		}
		label := e.DisplayName
		if label == "" {
			label = unquoted(e.Attributes.GetString("name"))
		}
		if label == "" {
			label = unquoted(e.Attributes.GetString("path"))
		}
		if label == name {
			ids = append(ids, id)
		}
	}
	return ids
}

func (p *PbxProject) pbxGroupByName(name string) (string, error) {
	ids := p.groupsNamed(name)
	if len(ids) == 0 {
		return "", fmt.Errorf("%w: group %q", manifest.ErrUnknownContainer, name)
	}
	return ids[0], nil
}

func (p *PbxProject) pbxSourcesBuildPhase(targetName string) (string, error) {
	target, err := p.doc.TargetByName(targetName)
	if err != nil {
		return "", err
	}
	if target.Compilation == "" {
		return "", fmt.Errorf("%w: target %q has no sources phase", manifest.ErrUnknownContainer, targetName)
	}
	return target.Compilation, nil
}

func (p *PbxProject) sourcesPhases(targets []string) ([]string, error) {
	phases := make([]string, 0, len(targets))
	for _, name := range targets {
		phase, err := p.pbxSourcesBuildPhase(name)
		if err != nil {
			return nil, err
		}
		phases = append(phases, phase)
	}
	return phases, nil
}

// fileInGroup finds the file reference with the given path among the
// group's children.
func (p *PbxProject) fileInGroup(groupID, filePath string) string {
	c, err := p.doc.Container(groupID)
	if err != nil {
		return ""
	}
	for _, ref := range c.Children {
		e, err := p.doc.Entry(ref.Target)
		if err != nil || e.Kind != PBXFileReference {
			continue
		}
		if unquoted(e.Attributes.GetString("path")) == filePath {
			return e.ID
		}
	}
	return ""
}

func (p *PbxProject) fileRefOf(buildFile string) string {
	e, err := p.doc.Entry(buildFile)
	if err != nil {
		return ""
	}
	return e.Attributes.GetString("fileRef")
}

// buildFilesOf lists the PBXBuildFile entries pointing at fileRef.
func (p *PbxProject) buildFilesOf(fileRef string) []string {
	var ids []string
	for _, e := range p.doc.Entries() {
		if e.Kind == PBXBuildFile && e.Attributes.GetString("fileRef") == fileRef {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

func (p *PbxProject) buildFileIn(phase, fileRef string) string {
	c, err := p.doc.Container(phase)
	if err != nil {
		return ""
	}
	for _, ref := range c.Children {
		if p.fileRefOf(ref.Target) == fileRef {
			return ref.Target
		}
	}
	return ""
}

func (p *PbxProject) newBuildFile(fileRef string) (*manifest.Entry, error) {
	pbxfile := &PbxFile{Basename: p.entryName(fileRef), Group: SourcesGroup}
	return p.insertBuildFile(pbxfile, fileRef)
}

// insertBuildFile always creates a new PBXBuildFile, even in strict mode:
// build files of one file in several phases share a display name.
func (p *PbxProject) insertBuildFile(pbxfile *PbxFile, fileRef string, phases ...string) (*manifest.Entry, error) {
	id, err := p.doc.NextID()
	if err != nil {
		return nil, err
	}
	entry, err := p.doc.RegisterEntry(manifest.Entry{
		ID:          id,
		Kind:        PBXBuildFile,
		DisplayName: longComment(pbxfile),
		Attributes:  buildFileAttributes(pbxfile, fileRef),
	})
	if err != nil {
		return nil, err
	}
	if err := p.engine.Reassign(id, nil, phases); err != nil {
		return nil, err
	}
	return entry, nil
}

func (p *PbxProject) AddSourceFile(filePath, group string, targets ...string) error {
	return p.AddSourceFileWithOptions(filePath, group, PbxFileOptions{}, targets...)
}

// AddSourceFileWithOptions puts a file reference for filePath into group and
// compiles it in each target. A reference already in the group is reused and
// a phase that already builds the file is left alone.
func (p *PbxProject) AddSourceFileWithOptions(filePath, group string, options PbxFileOptions, targets ...string) error {
	return p.engine.Atomic(func() error {
		groupID, err := p.pbxGroupByName(group)
		if err != nil {
			return err
		}
		phases, err := p.sourcesPhases(targets)
		if err != nil {
			return err
		}

		pbxfile := newPbxFile(filePath, options)
		fileRef := p.fileInGroup(groupID, pbxfile.Path)
		if fileRef == "" {
			entry, err := p.engine.InsertAndLink(PBXFileReference, pbxfile.Basename, fileReferenceAttributes(pbxfile), groupID)
			if err != nil {
				return err
			}
			fileRef = entry.ID
			p.log.Info().Str("file", pbxfile.Basename).Str("group", group).Msg("added file reference")
		}

		pbxfile.Group = SourcesGroup
		for i, phase := range phases {
			if p.buildFileIn(phase, fileRef) != "" {
				continue
			}
			if _, err := p.insertBuildFile(pbxfile, fileRef, phase); err != nil {
				return err
			}
			p.log.Info().Str("file", pbxfile.Basename).Str("target", targets[i]).Msg("added to sources")
		}
		return nil
	})
}

// RemoveSourceFile drops the file reference for filePath from group and
// every build file that compiles it.
func (p *PbxProject) RemoveSourceFile(filePath, group string) error {
	return p.engine.Atomic(func() error {
		groupID, err := p.pbxGroupByName(group)
		if err != nil {
			return err
		}
		pbxfile := newPbxFile(filePath, PbxFileOptions{})
		fileRef := p.fileInGroup(groupID, pbxfile.Path)
		if fileRef == "" {
			return fmt.Errorf("%w: %s in group %q", manifest.ErrUnknownEntry, pbxfile.Path, group)
		}
		for _, buildFile := range p.buildFilesOf(fileRef) {
			if err := p.engine.Reassign(buildFile, p.doc.Memberships(buildFile), nil); err != nil {
				return err
			}
			if err := p.doc.RemoveEntry(buildFile); err != nil {
				return err
			}
		}
		if err := p.engine.Reassign(fileRef, []string{groupID}, nil); err != nil {
			return err
		}
		if len(p.doc.Memberships(fileRef)) == 0 {
			if err := p.doc.RemoveEntry(fileRef); err != nil {
				return err
			}
		}
		p.log.Info().Str("file", pbxfile.Basename).Str("group", group).Msg("removed source file")
		return nil
	})
}

// fileReferencesNamed resolves display names to file reference ids, taking
// the first match for each name.
func (p *PbxProject) fileReferencesNamed(names []string) ([]string, error) {
	ids := make([]string, 0, len(names))
	for _, name := range names {
		found := p.doc.FindEntries(PBXFileReference, name)
		if len(found) == 0 {
			return nil, fmt.Errorf("%w: file %q", manifest.ErrUnknownEntry, name)
		}
		ids = append(ids, found[0].ID)
	}
	return ids, nil
}

func (p *PbxProject) AddToGroup(names []string, group string) ([]manifest.Action, error) {
	ids, err := p.fileReferencesNamed(names)
	if err != nil {
		return nil, err
	}
	return p.AddEntriesToGroup(ids, group)
}

// AddEntriesToGroup makes sure group holds each entry exactly once.
func (p *PbxProject) AddEntriesToGroup(ids []string, group string) ([]manifest.Action, error) {
	groupID, err := p.pbxGroupByName(group)
	if err != nil {
		return nil, err
	}
	return p.reconciler.Apply(manifest.Placement{Entries: ids, Include: []string{groupID}})
}

// Deduplicate drops repeated children from every group shown as name.
func (p *PbxProject) Deduplicate(group string) ([]manifest.Reference, error) {
	ids := p.groupsNamed(group)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: group %q", manifest.ErrUnknownContainer, group)
	}
	var removed []manifest.Reference
	for _, id := range ids {
		refs, err := p.engine.Deduplicate(id)
		if err != nil {
			return nil, err
		}
		removed = append(removed, refs...)
	}
	return removed, nil
}

// DeduplicateAll drops repeated children from every group and build phase.
func (p *PbxProject) DeduplicateAll() ([]manifest.Reference, error) {
	var removed []manifest.Reference
	for _, id := range p.doc.ContainerIDs() {
		refs, err := p.engine.Deduplicate(id)
		if err != nil {
			return nil, err
		}
		removed = append(removed, refs...)
	}
	return removed, nil
}

// CollapseGroups merges every group shown as name into the first one and
// removes the emptied copies. It returns how many groups were removed.
func (p *PbxProject) CollapseGroups(name string) (int, error) {
	ids := p.groupsNamed(name)
	if len(ids) < 2 {
		return 0, nil
	}
	keep := ids[0]
	for _, dup := range ids[1:] {
		if referrers := p.attributeReferrers(dup); len(referrers) > 0 {
			return 0, fmt.Errorf("%w: group %s is referenced by %s", manifest.ErrEntryInUse, dup, strings.Join(referrers, ", "))
		}
	}
	err := p.engine.Atomic(func() error {
		for _, dup := range ids[1:] {
			c, err := p.doc.Container(dup)
			if err != nil {
				return err
			}
			for _, ref := range c.Children {
				if ref.Target == keep {
					continue
				}
				if err := p.engine.Reassign(ref.Target, []string{dup}, []string{keep}); err != nil {
					return err
				}
			}
			if err := p.engine.Reassign(dup, p.doc.Memberships(dup), nil); err != nil {
				return err
			}
			if err := p.doc.RemoveEntry(dup); err != nil {
				return err
			}
			p.log.Info().Str("group", name).Str("removed", dup).Str("kept", keep).Msg("collapsed group")
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(ids) - 1, nil
}

// attributeReferrers lists the objects whose attributes name id, e.g. a
// PBXProject whose mainGroup is id. Container lists are not attributes.
func (p *PbxProject) attributeReferrers(id string) []string {
	var referrers []string
	if referencesID(p.doc.Attributes, id) {
		referrers = append(referrers, pegparser.ProjectKey)
	}
	for _, e := range p.doc.Entries() {
		if e.ID != id && referencesID(e.Attributes, id) {
			referrers = append(referrers, e.ID)
		}
	}
	return referrers
}

func referencesID(val interface{}, id string) bool {
	switch v := val.(type) {
	case string:
		return v == id
	case []interface{}:
		for _, item := range v {
			if referencesID(item, id) {
				return true
			}
		}
	case pegparser.Object:
		found := false
		v.ForeachWithFilter(func(key string, item interface{}) pegparser.IterateActionType {
			if referencesID(item, id) {
				found = true
				return pegparser.IterateActionBreak
			}
			return pegparser.IterateActionContinue
		}, nonCommentsFilter)
		return found
	}
	return false
}

func (p *PbxProject) AssignSources(names []string, targets ...string) ([]manifest.Action, error) {
	ids, err := p.fileReferencesNamed(names)
	if err != nil {
		return nil, err
	}
	return p.AssignEntries(ids, targets...)
}

// AssignEntries makes each file reference compile in exactly the given
// targets: one build file per Sources phase, none anywhere else. Build files
// left without a phase are removed.
func (p *PbxProject) AssignEntries(fileRefs []string, targets ...string) ([]manifest.Action, error) {
	var actions []manifest.Action
	err := p.engine.Atomic(func() error {
		keep, err := p.sourcesPhases(targets)
		if err != nil {
			return err
		}
		keep = uniqueStrings(keep)
		all := p.doc.ContainerIDs(PBXSourcesBuildPhase)

		var placements []manifest.Placement
		var orphans []string
		for _, fileRef := range uniqueStrings(fileRefs) {
			if !p.doc.HasEntry(fileRef) {
				return fmt.Errorf("%w: %s", manifest.ErrUnknownEntry, fileRef)
			}
			buildFiles := p.buildFilesOf(fileRef)
			include := make(map[string][]string)
			var order []string
			used := func(id string) bool {
				_, ok := include[id]
				return ok
			}
			choose := func(id, phase string) {
				if !used(id) {
					order = append(order, id)
				}
				include[id] = append(include[id], phase)
			}

			var open []string
			for _, phase := range keep {
				found := ""
				for _, bf := range buildFiles {
					if !used(bf) && p.doc.Contains(phase, bf) {
						found = bf
						break
					}
				}
				if found == "" {
					open = append(open, phase)
					continue
				}
				choose(found, phase)
			}
			for _, phase := range open {
				found := ""
				for _, bf := range buildFiles {
					if !used(bf) {
						found = bf
						break
					}
				}
				if found == "" {
					entry, err := p.newBuildFile(fileRef)
					if err != nil {
						return err
					}
					found = entry.ID
				}
				choose(found, phase)
			}

			for _, bf := range order {
				placements = append(placements, manifest.Exclusive([]string{bf}, include[bf], all))
			}
			for _, bf := range buildFiles {
				if !used(bf) {
					placements = append(placements, manifest.Placement{Entries: []string{bf}, Exclude: all})
					orphans = append(orphans, bf)
				}
			}
		}

		actions, err = p.reconciler.Apply(placements...)
		if err != nil {
			return err
		}
		for _, bf := range orphans {
			if len(p.doc.Memberships(bf)) > 0 {
				continue
			}
			if err := p.doc.RemoveEntry(bf); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return actions, nil
}

// SourcesOf lists the names of the files the target compiles.
func (p *PbxProject) SourcesOf(targetName string) ([]string, error) {
	phase, err := p.pbxSourcesBuildPhase(targetName)
	if err != nil {
		return nil, err
	}
	c, err := p.doc.Container(phase)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(c.Children))
	for _, ref := range c.Children {
		names = append(names, p.entryName(p.fileRefOf(ref.Target)))
	}
	return names, nil
}

// GroupChildren lists the names of the first group shown as group.
func (p *PbxProject) GroupChildren(group string) ([]string, error) {
	groupID, err := p.pbxGroupByName(group)
	if err != nil {
		return nil, err
	}
	c, err := p.doc.Container(groupID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(c.Children))
	for _, ref := range c.Children {
		names = append(names, p.entryName(ref.Target))
	}
	return names, nil
}

func (p *PbxProject) FileReferences() []FileInfo {
	var files []FileInfo
	for _, e := range p.doc.Entries() {
		if e.Kind != PBXFileReference {
			continue
		}
		files = append(files, FileInfo{
			ID:   e.ID,
			Name: e.DisplayName,
			Path: unquoted(e.Attributes.GetString("path")),
			Kind: unquoted(e.Attributes.GetString("lastKnownFileType")),
		})
	}
	return files
}
