package pbxproj

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/renameio/v2"

	"github.com/soapywu/pbxedit/manifest"
	"github.com/soapywu/pbxedit/pegparser"
)

// FileStore keeps a document in a project.pbxproj file.
type FileStore struct {
	Path    string
	Options []manifest.Option
}

var _ manifest.Store = (*FileStore)(nil)

func NewFileStore(path string, options ...manifest.Option) *FileStore {
	return &FileStore{Path: path, Options: options}
}

func (s *FileStore) Load() (*manifest.Document, error) {
	contents, err := parseFile(s.Path)
	if err != nil {
		return nil, err
	}
	return Decode(contents, s.Options...)
}

func (s *FileStore) Save(doc *manifest.Document) error {
	contents, err := Encode(doc)
	if err != nil {
		return err
	}
	return NewPbxWriter(contents).Write(s.Path)
}

func parseFile(path string) (pegparser.Object, error) {
	f, err := os.Open(path)
	if err != nil {
		return pegparser.Object{}, err
	}
	defer f.Close()

	contents, err := pegparser.ParseReader(path, f)
	if err != nil {
		var syntaxErr *pegparser.SyntaxError
		if errors.As(err, &syntaxErr) {
			return pegparser.Object{}, fmt.Errorf("%w: %w", manifest.ErrMalformedManifest, err)
		}
		return pegparser.Object{}, err
	}
	return contents, nil
}

// writeFileAtomic replaces path in one rename, so readers see either the
// old file or the new one.
func writeFileAtomic(path string, data []byte) error {
	if err := renameio.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("%w: %w", manifest.ErrSerialization, err)
	}
	return nil
}
