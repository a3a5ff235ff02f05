package zstring

import "github.com/gozcore/ztext/zcore"

// Alphabets holds the three 26-entry CHARCODE tables (§3) that Z-characters
// 6..31 index into depending on shift state.
type Alphabets struct {
	A0 [26]uint8
	A1 [26]uint8
	A2 [26]uint8
}

// defaultAlphabets is the standard Latin lower/upper/punctuation table set.
// A2[0] is the shift-to-literal marker slot and A2[1] is newline, matching
// §3's data model exactly.
var defaultAlphabets = Alphabets{
	A0: [26]uint8{'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h', 'i', 'j', 'k', 'l', 'm', 'n', 'o', 'p', 'q', 'r', 's', 't', 'u', 'v', 'w', 'x', 'y', 'z'},
	A1: [26]uint8{'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H', 'I', 'J', 'K', 'L', 'M', 'N', 'O', 'P', 'Q', 'R', 'S', 'T', 'U', 'V', 'W', 'X', 'Y', 'Z'},
	A2: [26]uint8{0, '\n', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9', '.', ',', '!', '?', '_', '#', '\'', '"', '/', '\\', '-', ':', '(', ')'},
}

// DefaultAlphabets returns a copy of the baked-in A0/A1/A2 tables.
func DefaultAlphabets() *Alphabets {
	a := defaultAlphabets
	return &a
}

// LoadAlphabets resolves the alphabets in effect for a loaded story: the
// defaults, unless the memory collaborator reports a header-pointed
// override table (78 literal CHARCODEs: A0 then A1 then A2).
func LoadAlphabets(mem zcore.Memory) *Alphabets {
	base := mem.AlphabetTableBase()
	if base == 0 {
		return DefaultAlphabets()
	}

	alphabets := defaultAlphabets
	for i := 0; i < 26; i++ {
		alphabets.A0[i] = mem.GetByte(base + uint32(i))
		alphabets.A1[i] = mem.GetByte(base + 26 + uint32(i))
		alphabets.A2[i] = mem.GetByte(base + 52 + uint32(i))
	}
	// A2[0] is never read by Decode - index 0 (Z-character 6 on alphabet 2)
	// is always treated as the literal-escape marker regardless of table
	// contents, so it's left as whatever the override supplied.

	return &alphabets
}
