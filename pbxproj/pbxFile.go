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
	"fmt"
	"path"
	"strings"

	"github.com/soapywu/pbxedit/pegparser"
)

const (
	DEFAULT_SOURCETREE   = "\"<group>\""
	DEFAULT_GROUP        = "Resources"
	DEFAULT_FILETYPE     = "unknown"
	DEFAULT_FILEENCODING = 4
)

var FILETYPE_BY_EXTENSION = map[string]string{
	"a":           "archive.ar",
	"app":         "wrapper.application",
	"appex":       "wrapper.app-extension",
	"bundle":      "wrapper.plug-in",
	"c":           "sourcecode.c.c",
	"cpp":         "sourcecode.cpp.cpp",
	"dylib":       "compiled.mach-o.dylib",
	"framework":   "wrapper.framework",
	"h":           "sourcecode.c.h",
	"json":        "text.json",
	"m":           "sourcecode.c.objc",
	"markdown":    "text",
	"mm":          "sourcecode.cpp.objcpp",
	"pch":         "sourcecode.c.h",
	"plist":       "text.plist.xml",
	"sh":          "text.script.sh",
	"storyboard":  "file.storyboard",
	"strings":     "text.plist.strings",
	"swift":       "sourcecode.swift",
	"tbd":         "sourcecode.text-based-dylib-definition",
	"xcassets":    "folder.assetcatalog",
	"xcconfig":    "text.xcconfig",
	"xcdatamodel": "wrapper.xcdatamodel",
	"xcodeproj":   "wrapper.pb-project",
	"xctest":      "wrapper.cfbundle",
	"xib":         "file.xib",
}

var GROUP_BY_FILETYPE = map[string]string{
	"archive.ar":                             "Frameworks",
	"compiled.mach-o.dylib":                  "Frameworks",
	"sourcecode.text-based-dylib-definition": "Frameworks",
	"wrapper.framework":                      "Frameworks",
	"sourcecode.c.h":                         "Resources",
	"sourcecode.c.c":                         "Sources",
	"sourcecode.c.objc":                      "Sources",
	"sourcecode.cpp.cpp":                     "Sources",
	"sourcecode.cpp.objcpp":                  "Sources",
	"sourcecode.swift":                       "Sources",
}

var ENCODING_BY_FILETYPE = map[string]int{
	"sourcecode.c.h":        DEFAULT_FILEENCODING,
	"sourcecode.c.c":        DEFAULT_FILEENCODING,
	"sourcecode.c.objc":     DEFAULT_FILEENCODING,
	"sourcecode.cpp.cpp":    DEFAULT_FILEENCODING,
	"sourcecode.cpp.objcpp": DEFAULT_FILEENCODING,
	"sourcecode.swift":      DEFAULT_FILEENCODING,
	"text":                  DEFAULT_FILEENCODING,
	"text.json":             DEFAULT_FILEENCODING,
	"text.plist.xml":        DEFAULT_FILEENCODING,
	"text.script.sh":        DEFAULT_FILEENCODING,
	"text.xcconfig":         DEFAULT_FILEENCODING,
	"text.plist.strings":    DEFAULT_FILEENCODING,
}

type PbxFileOptions struct {
	LastKnownFileType string
	SourceTree        string
	Weak              bool
	CompilerFlags     string
}

// PbxFile describes a file about to be added: the PBXFileReference it gets
// and the build phase its PBXBuildFile records belong to.
type PbxFile struct {
	Basename          string
	Path              string
	LastKnownFileType string
	Group             string
	FileEncoding      int
	SourceTree        string
	Settings          pegparser.Object
}

func newPbxFile(filePath string, options PbxFileOptions) *PbxFile {
	filePath = strings.ReplaceAll(filePath, `\`, "/")
	pbxfile := PbxFile{
		Basename: path.Base(filePath),
		Path:     path.Base(filePath),
	}
	if options.LastKnownFileType != "" {
		pbxfile.LastKnownFileType = options.LastKnownFileType
	} else {
		pbxfile.LastKnownFileType = detectType(filePath)
	}
	pbxfile.Group = pbxfile.detectGroup()
	pbxfile.FileEncoding = ENCODING_BY_FILETYPE[pbxfile.LastKnownFileType]

	if options.SourceTree != "" {
		pbxfile.SourceTree = options.SourceTree
	} else {
		pbxfile.SourceTree = DEFAULT_SOURCETREE
	}

	if options.Weak {
		if pbxfile.Settings.IsEmpty() {
			pbxfile.Settings = pegparser.NewObject()
		}
		pbxfile.Settings.Set("ATTRIBUTES", []interface{}{"Weak"})
	}

	if options.CompilerFlags != "" {
		if pbxfile.Settings.IsEmpty() {
			pbxfile.Settings = pegparser.NewObject()
		}
		pbxfile.Settings.Set("COMPILER_FLAGS", quoted(options.CompilerFlags))
	}
	return &pbxfile
}

func detectType(filePath string) string {
	extension := strings.TrimPrefix(path.Ext(filePath), ".")
	filetype, found := FILETYPE_BY_EXTENSION[strings.ToLower(extension)]
	if !found {
		return DEFAULT_FILETYPE
	}
	return filetype
}

func (pbxfile *PbxFile) detectGroup() string {
	groupName, ok := GROUP_BY_FILETYPE[unquoted(pbxfile.LastKnownFileType)]
	if !ok {
		groupName = DEFAULT_GROUP
	}
	return groupName
}

func fileReferenceAttributes(pbxfile *PbxFile) pegparser.Object {
	obj := pegparser.NewObject()
	obj.Set("isa", PBXFileReference)
	if pbxfile.FileEncoding != 0 {
		obj.Set("fileEncoding", pbxfile.FileEncoding)
	}
	obj.Set("lastKnownFileType", quoted(pbxfile.LastKnownFileType))
	obj.Set("path", quoted(pbxfile.Path))
	obj.Set("sourceTree", pbxfile.SourceTree)
	return obj
}

func buildFileAttributes(pbxfile *PbxFile, fileRef string) pegparser.Object {
	obj := pegparser.NewObject()
	obj.Set("isa", PBXBuildFile)
	obj.Set("fileRef", fileRef)
	obj.Set(toCommentKey("fileRef"), pbxfile.Basename)
	if !pbxfile.Settings.IsEmpty() {
		obj.Set("settings", pbxfile.Settings.Clone())
	}
	return obj
}

func longComment(pbxfile *PbxFile) string {
	return fmt.Sprintf("%s in %s", pbxfile.Basename, pbxfile.Group)
}
