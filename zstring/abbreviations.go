package zstring

import (
	"fmt"

	"github.com/gozcore/ztext/zcore"
)

// FindAbbreviation resolves and decodes abbreviation table entry
// 32*(z-1)+x, the same indexing scheme the teacher's FindAbbreviation used.
// It's a standalone convenience over the decoder's internal
// expandAbbreviation for callers that want to inspect a single
// abbreviation (tooling, tests) without decoding a whole string.
func FindAbbreviation(mem zcore.Memory, abbreviationBase uint32, alphabets *Alphabets, charSet *CharSet, z uint8, x uint8) (string, error) {
	if z < 1 || z > 3 {
		return "", fmt.Errorf("zstring: abbreviation selector must be 1-3, got %d", z)
	}

	index := uint32(32*(z-1)) + uint32(x)
	entryAddr := abbreviationBase + 2*index
	strAddr := uint32(mem.GetWord(entryAddr)) * 2

	str, _, err := decode(mem, strAddr, alphabets, charSet, abbreviationBase, maxAbbreviationDepth)
	return str, err
}
