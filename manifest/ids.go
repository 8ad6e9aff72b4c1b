package manifest

import (
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
)

const (
	// IDLength is the width of a generated identifier: 24 hex digits, 96 bits.
	IDLength = 24

	maxIDAttempts = 64

	// positions in the 32 hex digits of a UUID that are not random
	versionNibble = 12
	variantNibble = 16
)

// UUIDSource is the part of uuid.Generator the id generator draws from.
type UUIDSource interface {
	NewV4() (uuid.UUID, error)
}

// IDGenerator hands out identifiers that are not in use by the document it
// serves and were never handed out before.
type IDGenerator struct {
	source UUIDSource
	inUse  func(id string) bool
	issued map[string]struct{}
}

func NewIDGenerator(inUse func(id string) bool, source UUIDSource) *IDGenerator {
	if source == nil {
		source = uuid.DefaultGenerator
	}
	if inUse == nil {
		inUse = func(string) bool { return false }
	}
	return &IDGenerator{
		source: source,
		inUse:  inUse,
		issued: make(map[string]struct{}),
	}
}

func (g *IDGenerator) Next() (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		u, err := g.source.NewV4()
		if err != nil {
			return "", fmt.Errorf("generate identifier: %w", err)
		}
		id := randomDigits(u)
		if _, seen := g.issued[id]; seen || g.inUse(id) {
			continue
		}
		g.issued[id] = struct{}{}
		return id, nil
	}
	return "", fmt.Errorf("%w after %d attempts", ErrIdentifierSpaceExhausted, maxIDAttempts)
}

// randomDigits drops the version and variant nibbles of u, leaving 30
// random hex digits, and keeps the first IDLength of them.
func randomDigits(u uuid.UUID) string {
	hex := strings.ReplaceAll(u.String(), "-", "")
	digits := make([]byte, 0, len(hex))
	for i := 0; i < len(hex); i++ {
		if i == versionNibble || i == variantNibble {
			continue
		}
		digits = append(digits, hex[i])
	}
	return strings.ToUpper(string(digits[:IDLength]))
}

// Reserve marks id as taken without generating it.
func (g *IDGenerator) Reserve(id string) {
	g.issued[id] = struct{}{}
}
