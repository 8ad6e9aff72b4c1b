package manifest

import (
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/require"

	"github.com/soapywu/pbxedit/pegparser"
)

type seqSource struct {
	ids []uuid.UUID
	i   int
}

func newSeqSource(ids ...string) *seqSource {
	s := &seqSource{}
	for _, id := range ids {
		s.ids = append(s.ids, uuid.Must(uuid.FromString(id)))
	}
	return s
}

func (s *seqSource) NewV4() (uuid.UUID, error) {
	u := s.ids[s.i%len(s.ids)]
	s.i++
	return u, nil
}

// entries are registered under their name so tests can refer to them by it
func register(t *testing.T, d *Document, names ...string) {
	t.Helper()
	for _, name := range names {
		_, err := d.RegisterEntry(Entry{ID: name, Kind: "source", DisplayName: name})
		require.NoError(t, err)
	}
}

func containerOf(t *testing.T, d *Document, id, kind string, members ...string) {
	t.Helper()
	_, err := d.RegisterContainer(id, kind)
	require.NoError(t, err)
	for _, m := range members {
		if !d.HasEntry(m) {
			register(t, d, m)
		}
		_, err := d.Attach(id, m, m)
		require.NoError(t, err)
	}
}

func children(t *testing.T, d *Document, id string) []string {
	t.Helper()
	c, err := d.Container(id)
	require.NoError(t, err)
	names := make([]string, 0, len(c.Children))
	for _, ref := range c.Children {
		e, err := d.Entry(ref.Target)
		require.NoError(t, err)
		names = append(names, e.DisplayName)
	}
	return names
}

func noAttrs() pegparser.Object {
	return pegparser.NewObject()
}
