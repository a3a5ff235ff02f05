package zstring

import (
	"golang.org/x/text/encoding/charmap"

	"github.com/gozcore/ztext/zcore"
)

// defaultExtras is the ordered 69-entry "extra characters" table (§3): host
// runes for CHARCODEs 155..223. Order matches the teacher's
// DefaultUnicodeTranslationTable (zstring/unicode.go) sorted by CHARCODE
// rather than kept as a map, since decode needs O(1) index access and
// encode needs a stable reverse scan order.
var defaultExtras = [...]rune{
	'ä', 'ö', 'ü', 'Ä', 'Ö', 'Ü', 'ß', '»', '«', 'ë', // 155-164
	'ï', 'ÿ', 'Ë', 'Ï', 'á', 'é', 'í', 'ó', 'ú', 'ý', // 165-174
	'Á', 'É', 'Í', 'Ó', 'Ú', 'Ý', 'à', 'è', 'ì', 'ò', // 175-184
	'ù', 'À', 'È', 'Ì', 'Ò', 'Ù', 'â', 'ê', 'î', 'ô', // 185-194
	'û', 'Â', 'Ê', 'Î', 'Ô', 'Û', 'å', 'Å', 'ø', 'Ø', // 195-204
	'ã', 'ñ', 'õ', 'Ã', 'Ñ', 'Õ', 'æ', 'Æ', 'ç', 'Ç', // 205-214
	'þ', 'ð', 'Þ', 'Ð', '£', 'œ', 'Œ', '¡', '¿', // 215-223
}

const extrasBase = 155

// CharSet implements the bidirectional CHARCODE <-> host-Unicode mapping of
// §4.1: the base ASCII-ish range plus a contiguous extras table.
type CharSet struct {
	extras []rune
}

// DefaultCharSet returns a CharSet backed by the 69-entry default table.
func DefaultCharSet() *CharSet {
	return &CharSet{extras: defaultExtras[:]}
}

// NewCharSet returns a CharSet backed by a caller-supplied extras table,
// starting at the same base CHARCODE (155) as the default table. Used by
// charsetconfig to apply a YAML-configured override.
func NewCharSet(extras []rune) *CharSet {
	return &CharSet{extras: extras}
}

// LoadExtras resolves the extras table for a loaded story: the default,
// unless the memory collaborator points at a header-pointed override
// region (count byte, then that many big-endian Unicode code points) - the
// same layout the teacher's parseUnicodeTranslationTable walks.
func LoadExtras(mem zcore.Memory) *CharSet {
	base := mem.ExtrasTableBase()
	if base == 0 {
		return DefaultCharSet()
	}

	count := mem.GetByte(base)
	extras := make([]rune, count)
	for i := 0; i < int(count); i++ {
		extras[i] = rune(mem.GetWord(base + 1 + uint32(i)*2))
	}

	return &CharSet{extras: extras}
}

// Decode implements §4.1's decode(CHARCODE) -> host char.
func (c *CharSet) Decode(code uint8) rune {
	switch {
	case code == 13:
		return '\n'
	case int(code) >= extrasBase && int(code) < extrasBase+len(c.extras):
		return c.extras[int(code)-extrasBase]
	default:
		return rune(code)
	}
}

// Encode implements §4.1's encode(host char) -> CHARCODE. ok is false only
// when the character falls outside 0..255 and isn't present in the extras
// table; callers that still need a display-capable low-byte fallback
// should use the returned value anyway (see §4.1's round-trip note).
func (c *CharSet) Encode(r rune) (code uint8, ok bool) {
	if r == '\n' {
		return 13, true
	}
	for i, extra := range c.extras {
		if extra == r {
			return uint8(extrasBase + i), true
		}
	}
	if r >= 0 && r <= 255 {
		return uint8(r), true
	}
	return uint8(r), false
}

// UnicodeChecker is the capability-query collaborator of §4.1's
// "CheckUnicode" language: the core never filters output or input itself,
// it asks this collaborator whether a character is usable.
type UnicodeChecker interface {
	CheckUnicode(r rune) (canOutput bool, canInput bool)
}

// DefaultUnicodeChecker is a CharSet-backed UnicodeChecker suitable when no
// richer host capability query is wired in: it reports a character usable
// exactly when it round-trips through Encode. This also satisfies the core's
// guarantee that any character the checker reports input-capable survives
// encode -> decode with the same CHARCODE, since that's exactly what it
// tests.
type DefaultUnicodeChecker struct {
	CharSet *CharSet
}

func (d DefaultUnicodeChecker) CheckUnicode(r rune) (canOutput bool, canInput bool) {
	code, ok := d.CharSet.Encode(r)
	if !ok {
		return false, false
	}
	return d.CharSet.Decode(code) == r, d.CharSet.Decode(code) == r
}

// iso88591CrossCheck holds the golang.org/x/text Latin-1 table for
// comparing the default extras table against the standard charmap. No
// test in this package reads it, and Decode does not consult it.
var iso88591CrossCheck = charmap.ISO8859_1
