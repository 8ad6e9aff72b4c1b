package manifest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDGeneratorFormat(t *testing.T) {
	g := NewIDGenerator(nil, nil)
	id, err := g.Next()
	require.NoError(t, err)
	assert.Len(t, id, IDLength)
	assert.Regexp(t, `^[0-9A-F]{24}$`, id)
}

func TestIDGeneratorSkipsIDsInUse(t *testing.T) {
	d := NewDocument(WithUUIDSource(newSeqSource(
		"aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa",
		"bbbbbbbb-bbbb-4bbb-8bbb-bbbbbbbbbbbb",
	)))
	register(t, d, "AAAAAAAAAAAAAAAAAAAAAAAA")

	id, err := d.NextID()
	require.NoError(t, err)
	assert.Equal(t, "BBBBBBBBBBBBBBBBBBBBBBBB", id)
}

func TestIDGeneratorNeverRepeats(t *testing.T) {
	g := NewIDGenerator(nil, newSeqSource(
		"aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa",
		"aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa",
		"cccccccc-cccc-4ccc-8ccc-cccccccccccc",
	))
	first, err := g.Next()
	require.NoError(t, err)
	second, err := g.Next()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Equal(t, "CCCCCCCCCCCCCCCCCCCCCCCC", second)
}

func TestIDGeneratorExhausted(t *testing.T) {
	g := NewIDGenerator(func(string) bool { return true }, newSeqSource("aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa"))
	_, err := g.Next()
	assert.True(t, errors.Is(err, ErrIdentifierSpaceExhausted))
}

func TestIDGeneratorSkipsFixedNibbles(t *testing.T) {
	g := NewIDGenerator(nil, newSeqSource("01234567-89ab-4def-8123-456789abcdef"))
	id, err := g.Next()
	require.NoError(t, err)
	assert.Equal(t, "0123456789ABDEF123456789", id)
}

func TestIDGeneratorDigitsAreRandom(t *testing.T) {
	g := NewIDGenerator(nil, nil)
	versions := map[byte]bool{}
	variants := map[byte]bool{}
	for i := 0; i < 200; i++ {
		id, err := g.Next()
		require.NoError(t, err)
		versions[id[12]] = true
		variants[id[16]] = true
	}
	assert.Greater(t, len(versions), 4)
	assert.Greater(t, len(variants), 4)
}
