package pbxproj

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soapywu/pbxedit/manifest"
	"github.com/soapywu/pbxedit/pegparser"
)

func copyFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "project.pbxproj")
	require.NoError(t, os.WriteFile(path, []byte(readFixture(t)), 0644))
	return path
}

func TestEditSaves(t *testing.T) {
	path := copyFixture(t)
	err := Edit(path, func(p *PbxProject) error {
		return p.AddSourceFile("Call.swift", "SDK", "TelnyxRTC")
	})
	require.NoError(t, err)

	p := NewPbxProject(path)
	require.NoError(t, p.Parse())
	sources, err := p.SourcesOf("TelnyxRTC")
	require.NoError(t, err)
	assert.Equal(t, []string{"String+Extensions.swift", "TxClient.swift", "Call.swift"}, sources)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestEditFailureWritesNothing(t *testing.T) {
	path := copyFixture(t)
	err := Edit(path, func(p *PbxProject) error {
		if err := p.AddSourceFile("Call.swift", "SDK", "TelnyxRTC"); err != nil {
			return err
		}
		return p.AddSourceFile("Other.swift", "Nope")
	})
	assert.True(t, errors.Is(err, manifest.ErrUnknownContainer))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, readFixture(t), string(data))
}

func TestFileStoreLoadErrors(t *testing.T) {
	cases := map[string]struct {
		src  string
		want error
	}{
		"syntax": {
			src:  "{ objects = ",
			want: manifest.ErrMalformedManifest,
		},
		"duplicate id": {
			src:  "{ objects = { X = { isa = PBXGroup; children = ( ); }; X = { isa = PBXGroup; children = ( ); }; }; }",
			want: manifest.ErrMalformedManifest,
		},
		"dangling child": {
			src:  "{ objects = { X = { isa = PBXGroup; children = ( Y ); }; }; }",
			want: manifest.ErrDanglingReference,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "project.pbxproj")
			require.NoError(t, os.WriteFile(path, []byte(tc.src), 0644))

			_, err := NewFileStore(path).Load()
			assert.True(t, errors.Is(err, tc.want), "%v", err)
		})
	}
}

func TestFileStoreSyntaxErrorPosition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project.pbxproj")
	require.NoError(t, os.WriteFile(path, []byte("{\n\tobjects = {\n\t\tX = y\n}"), 0644))

	_, err := NewFileStore(path).Load()
	var syntaxErr *pegparser.SyntaxError
	require.True(t, errors.As(err, &syntaxErr))
	assert.Equal(t, path, syntaxErr.Filename)
	assert.Equal(t, 4, syntaxErr.Line)
}

func TestFileStoreMissingFile(t *testing.T) {
	_, err := NewFileStore(filepath.Join(t.TempDir(), "none.pbxproj")).Load()
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestFileStoreSaveRejectsDangling(t *testing.T) {
	path := copyFixture(t)
	store := NewFileStore(path)
	doc, err := store.Load()
	require.NoError(t, err)
	_, err = doc.RegisterContainer("ORPHAN", PBXGroup)
	require.NoError(t, err)

	err = store.Save(doc)
	assert.True(t, errors.Is(err, manifest.ErrSerialization))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "// !$*UTF8*$!"))
}

func TestFileStoreSaveUnwritableDir(t *testing.T) {
	doc, err := NewFileStore(copyFixture(t)).Load()
	require.NoError(t, err)

	err = NewFileStore(filepath.Join(t.TempDir(), "missing", "project.pbxproj")).Save(doc)
	assert.True(t, errors.Is(err, manifest.ErrSerialization))
}
