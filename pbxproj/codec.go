package pbxproj

import (
	"fmt"
	"sort"
	"strings"

	"github.com/soapywu/pbxedit/manifest"
	"github.com/soapywu/pbxedit/pegparser"
)

const (
	PBXBuildFile         = "PBXBuildFile"
	PBXFileReference     = "PBXFileReference"
	PBXGroup             = "PBXGroup"
	PBXVariantGroup      = "PBXVariantGroup"
	XCVersionGroup       = "XCVersionGroup"
	PBXSourcesBuildPhase = "PBXSourcesBuildPhase"
	PBXNativeTarget      = "PBXNativeTarget"
	PBXAggregateTarget   = "PBXAggregateTarget"
	PBXLegacyTarget      = "PBXLegacyTarget"

	objectsKey = "objects"
)

var groupKinds = []string{PBXGroup, PBXVariantGroup, XCVersionGroup}

// containerField names the list that makes an object of this kind a
// container, or "" if it is not one.
func containerField(kind string) string {
	switch {
	case kind == PBXGroup, kind == PBXVariantGroup, kind == XCVersionGroup:
		return "children"
	case strings.HasSuffix(kind, "BuildPhase"):
		return "files"
	}
	return ""
}

func isTargetKind(kind string) bool {
	return kind == PBXNativeTarget || kind == PBXAggregateTarget || kind == PBXLegacyTarget
}

type pendingList struct {
	container string
	items     []interface{}
}

type pendingTarget struct {
	id  string
	obj pegparser.Object
}

// Decode turns a parsed manifest into a document. Every object becomes an
// entry; groups and build phases also become containers, targets become
// targets.
func Decode(contents pegparser.Object, options ...manifest.Option) (*manifest.Document, error) {
	project := contents.GetObject(pegparser.ProjectKey)
	if project.IsEmpty() {
		return nil, fmt.Errorf("%w: no root dictionary", manifest.ErrMalformedManifest)
	}
	rawObjects, ok := project.Get(objectsKey)
	if !ok || !isObject(rawObjects) {
		return nil, fmt.Errorf("%w: no objects dictionary", manifest.ErrMalformedManifest)
	}
	objects := toObject(rawObjects)

	doc := manifest.NewDocument(options...)
	doc.Comment = contents.GetString(pegparser.HeadCommentKey)
	doc.Attributes = project.Clone()
	doc.Attributes.Set(objectsKey, nil)

	var lists []pendingList
	var targets []pendingTarget
	for _, sectionName := range objects.Keys() {
		section := objects.GetObject(sectionName)
		for _, item := range section.Items() {
			id := item.Key().(string)
			if isCommentKey(id) {
				continue
			}
			if !isObject(item.Value()) {
				return nil, fmt.Errorf("%w: object %s is not a dictionary", manifest.ErrMalformedManifest, id)
			}
			obj := toObject(item.Value())
			kind := obj.GetString("isa")
			if kind == "" {
				kind = sectionName
			}

			attributes := obj.Clone()
			field := containerField(kind)
			if field != "" && attributes.Has(field) {
				lists = append(lists, pendingList{container: id, items: attributes.GetList(field)})
				attributes.Set(field, nil)
			}
			_, err := doc.RegisterEntry(manifest.Entry{
				ID:          id,
				Kind:        kind,
				DisplayName: section.GetString(toCommentKey(id)),
				Attributes:  attributes,
			})
			if err != nil {
				return nil, fmt.Errorf("%w: %w", manifest.ErrMalformedManifest, err)
			}
			if field != "" {
				if _, err := doc.RegisterContainer(id, kind); err != nil {
					return nil, fmt.Errorf("%w: %w", manifest.ErrMalformedManifest, err)
				}
			}
			if isTargetKind(kind) {
				targets = append(targets, pendingTarget{id: id, obj: obj})
			}
		}
	}

	for _, list := range lists {
		for _, item := range list.items {
			ref, ok := commentValueOf(item)
			if !ok {
				return nil, fmt.Errorf("%w: bad reference in %s", manifest.ErrMalformedManifest, list.container)
			}
			if _, err := doc.Attach(list.container, ref.Value, ref.Comment); err != nil {
				return nil, err
			}
		}
	}

	for _, t := range targets {
		target := manifest.Target{
			ID:   t.id,
			Name: unquoted(t.obj.GetString("name")),
		}
		for _, phase := range interfaceToStringSlice(t.obj.ForceGet("buildPhases")) {
			target.Phases = append(target.Phases, phase)
			if e, err := doc.Entry(phase); err == nil && e.Kind == PBXSourcesBuildPhase && target.Compilation == "" {
				target.Compilation = phase
			}
		}
		if err := doc.RegisterTarget(target); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// Encode renders a document back into the parsed shape, sections sorted by
// kind the way Xcode writes them.
func Encode(doc *manifest.Document) (pegparser.Object, error) {
	if err := doc.Validate(); err != nil {
		return pegparser.Object{}, fmt.Errorf("%w: %w", manifest.ErrSerialization, err)
	}
	for _, id := range doc.ContainerIDs() {
		if !doc.HasEntry(id) {
			return pegparser.Object{}, fmt.Errorf("%w: container %s has no object", manifest.ErrSerialization, id)
		}
	}

	sections := make(map[string]pegparser.Object)
	for _, e := range doc.Entries() {
		section, ok := sections[e.Kind]
		if !ok {
			section = pegparser.NewObject()
			sections[e.Kind] = section
		}
		attributes := e.Attributes.Clone()
		if attributes.IsEmpty() {
			attributes = pegparser.NewObject()
		}
		if c, err := doc.Container(e.ID); err == nil {
			field := containerField(c.Kind)
			if field == "" {
				return pegparser.Object{}, fmt.Errorf("%w: no list field for container kind %s", manifest.ErrSerialization, c.Kind)
			}
			attributes.Set(field, referenceList(c.Children))
		}
		section.Set(e.ID, attributes)
		if e.DisplayName != "" {
			section.Set(toCommentKey(e.ID), e.DisplayName)
		}
	}

	names := make([]string, 0, len(sections))
	for name := range sections {
		names = append(names, name)
	}
	sort.Strings(names)
	objects := pegparser.NewObject()
	for _, name := range names {
		objects.Set(name, sections[name])
	}

	project := doc.Attributes.Clone()
	if project.IsEmpty() {
		project = pegparser.NewObject()
	}
	project.Set(objectsKey, objects)

	contents := pegparser.NewObject()
	if doc.Comment != "" {
		contents.Set(pegparser.HeadCommentKey, doc.Comment)
	}
	contents.Set(pegparser.ProjectKey, project)
	return contents, nil
}

func referenceList(refs []manifest.Reference) []interface{} {
	list := make([]interface{}, 0, len(refs))
	for _, ref := range refs {
		if ref.Provenance == "" {
			list = append(list, ref.Target)
			continue
		}
		list = append(list, CommentValue{Value: ref.Target, Comment: ref.Provenance}.ToObject())
	}
	return list
}
