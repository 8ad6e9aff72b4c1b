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
	"fmt"
	"io"
	"strings"

	"github.com/soapywu/pbxedit/manifest"
	"github.com/soapywu/pbxedit/pegparser"
)

const (
	INDENT = "\t"
)

type PbxWriterOption func(w *PbxWriter)

func WithOmitEmpty() PbxWriterOption {
	return func(w *PbxWriter) {
		w.omitEmptyValues = true
	}
}

// PbxWriter renders parsed contents in the layout Xcode itself writes:
// tab indentation, one section per isa, PBXBuildFile and PBXFileReference
// records on a single line.
type PbxWriter struct {
	buf             bytes.Buffer
	omitEmptyValues bool
	contents        pegparser.Object
	indentLevel     int
	err             error
}

func NewPbxWriter(contents pegparser.Object, options ...PbxWriterOption) *PbxWriter {
	w := &PbxWriter{
		contents: contents,
	}
	for _, option := range options {
		option(w)
	}
	return w
}

func indent(x int) string {
	return strings.Repeat(INDENT, max(x, 0))
}

func getComment(key string, parent pegparser.Object) string {
	return parent.GetString(toCommentKey(key))
}

func withComment(value, comment string) string {
	if comment == "" {
		return value
	}
	return fmt.Sprintf("%s /* %s */", value, comment)
}

func (w *PbxWriter) fail(format string, args ...interface{}) {
	if w.err == nil {
		w.err = fmt.Errorf("%w: %s", manifest.ErrSerialization, fmt.Sprintf(format, args...))
	}
}

func (w *PbxWriter) write(format string, args ...interface{}) {
	w.buf.WriteString(indent(w.indentLevel))
	fmt.Fprintf(&w.buf, format, args...)
}

func (w *PbxWriter) writeNoIndent(format string, args ...interface{}) {
	fmt.Fprintf(&w.buf, format, args...)
}

// Bytes renders the whole document.
func (w *PbxWriter) Bytes() ([]byte, error) {
	w.buf.Reset()
	w.indentLevel = 0
	w.err = nil
	w.writeHeadComment()
	w.writeProject()
	if w.err != nil {
		return nil, w.err
	}
	return w.buf.Bytes(), nil
}

func (w *PbxWriter) WriteTo(out io.Writer) (int64, error) {
	data, err := w.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := out.Write(data)
	return int64(n), err
}

// Write replaces the file at filePath with the rendered document.
func (w *PbxWriter) Write(filePath string) error {
	data, err := w.Bytes()
	if err != nil {
		return err
	}
	return writeFileAtomic(filePath, data)
}

func (w *PbxWriter) writeHeadComment() {
	comment := w.contents.GetString(pegparser.HeadCommentKey)
	if comment != "" {
		w.writeNoIndent("// %s\n", comment)
	}
}

func (w *PbxWriter) writeProject() {
	proj := w.contents.GetObject(pegparser.ProjectKey)

	w.write("{\n")
	w.indentLevel++
	proj.ForeachWithFilter(func(key string, val interface{}) pegparser.IterateActionType {
		if key == objectsKey && isObject(val) {
			w.write("%s = {\n", key)
			w.indentLevel++
			w.writeObjectsSections(toObject(val))
			w.indentLevel--
			w.write("};\n")
			return pegparser.IterateActionContinue
		}
		w.writeValue(proj, key, val)
		return pegparser.IterateActionContinue
	}, nonCommentsFilter)
	w.indentLevel--

	w.write("}\n")
}

func (w *PbxWriter) writeObject(obj pegparser.Object) {
	obj.ForeachWithFilter(func(key string, val interface{}) pegparser.IterateActionType {
		w.writeValue(obj, key, val)
		return pegparser.IterateActionContinue
	}, nonCommentsFilter)
}

func (w *PbxWriter) writeValue(parent pegparser.Object, key string, val interface{}) {
	cmt := getComment(key, parent)
	switch {
	case isArray(val):
		w.writeArray(toArray(val), key)
	case isObject(val):
		w.write("%s = {\n", key)
		w.indentLevel++
		w.writeObject(toObject(val))
		w.indentLevel--
		w.write("};\n")
	case isString(val):
		str := toString(val)
		if w.omitEmptyValues && str == "" {
			return
		}
		w.write("%s = %s;\n", key, withComment(str, cmt))
	case isInt(val):
		w.write("%s = %s;\n", key, withComment(toIntString(val), cmt))
	default:
		w.fail("unsupported value for %s: %T", key, val)
	}
}

func (w *PbxWriter) writeObjectsSections(obj pegparser.Object) {
	obj.ForeachWithFilter(func(key string, val interface{}) pegparser.IterateActionType {
		if !isObject(val) {
			w.fail("section %s is not a dictionary", key)
			return pegparser.IterateActionBreak
		}
		section := toObject(val)
		if section.IsEmpty() {
			return pegparser.IterateActionContinue
		}
		w.writeNoIndent("\n")
		w.writeSectionComment(key, true)
		w.writeSection(section)
		w.writeSectionComment(key, false)
		return pegparser.IterateActionContinue
	}, nonCommentsFilter)
}

func (w *PbxWriter) writeArray(arr []interface{}, name string) {
	w.write("%s = (\n", name)
	w.indentLevel++
	for _, obj := range arr {
		switch {
		case isObject(obj):
			val := toObject(obj)
			if ref, ok := commentValueOf(val); ok && val.Size() <= 2 {
				w.write("%s,\n", withComment(ref.Value, ref.Comment))
				continue
			}
			w.write("{\n")
			w.indentLevel++
			w.writeObject(val)
			w.indentLevel--
			w.write("},\n")
		case isString(obj):
			w.write("%s,\n", toString(obj))
		case isInt(obj):
			w.write("%s,\n", toIntString(obj))
		default:
			w.fail("unsupported item in %s: %T", name, obj)
		}
	}
	w.indentLevel--
	w.write(");\n")
}

func (w *PbxWriter) writeSectionComment(name string, begin bool) {
	if begin {
		w.writeNoIndent("/* Begin %s section */\n", name)
	} else {
		w.writeNoIndent("/* End %s section */\n", name)
	}
}

func (w *PbxWriter) writeSection(section pegparser.Object) {
	section.ForeachWithFilter(func(key string, val interface{}) pegparser.IterateActionType {
		cmt := getComment(key, section)
		if !isObject(val) {
			w.fail("object %s is not a dictionary", key)
			return pegparser.IterateActionBreak
		}
		obj := toObject(val)
		isa := obj.GetString("isa")
		if isa == PBXBuildFile || isa == PBXFileReference {
			w.write("%s = %s;\n", withComment(key, cmt), w.inlineObject(obj))
			return pegparser.IterateActionContinue
		}
		w.write("%s = {\n", withComment(key, cmt))
		w.indentLevel++
		w.writeObject(obj)
		w.indentLevel--
		w.write("};\n")
		return pegparser.IterateActionContinue
	}, nonCommentsFilter)
}

// inlineObject renders obj on one line, e.g. `{isa = PBXBuildFile; fileRef = X; }`.
func (w *PbxWriter) inlineObject(obj pegparser.Object) string {
	var b strings.Builder
	b.WriteString("{")
	obj.ForeachWithFilter(func(key string, val interface{}) pegparser.IterateActionType {
		cmt := getComment(key, obj)
		switch {
		case isArray(val):
			b.WriteString(key + " = (")
			for _, item := range toArray(val) {
				b.WriteString(w.inlineItem(key, item) + ", ")
			}
			b.WriteString("); ")
		case isObject(val):
			b.WriteString(key + " = " + w.inlineObject(toObject(val)) + "; ")
		case isString(val):
			value := toString(val)
			if value == "" && w.omitEmptyValues {
				return pegparser.IterateActionContinue
			}
			b.WriteString(key + " = " + withComment(value, cmt) + "; ")
		case isInt(val):
			b.WriteString(key + " = " + withComment(toIntString(val), cmt) + "; ")
		default:
			w.fail("unsupported inline value for %s: %T", key, val)
		}
		return pegparser.IterateActionContinue
	}, nonCommentsFilter)
	b.WriteString("}")
	return b.String()
}

func (w *PbxWriter) inlineItem(key string, item interface{}) string {
	switch {
	case isString(item):
		return toString(item)
	case isInt(item):
		return toIntString(item)
	case isObject(item):
		if ref, ok := commentValueOf(item); ok {
			return withComment(ref.Value, ref.Comment)
		}
		return w.inlineObject(toObject(item))
	}
	w.fail("unsupported inline item in %s: %T", key, item)
	return ""
}
