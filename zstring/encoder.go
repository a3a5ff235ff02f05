package zstring

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// lowerCaser folds host characters to lowercase before alphabet lookup
// (§4.3 step 1). Using golang.org/x/text/cases instead of a hand-rolled
// ASCII-only lowercaser means accented extras case-fold the same way a
// host terminal would.
var lowerCaser = cases.Lower(language.Und)

// EncodeArgError is returned when the caller asks for a fixed Z-character
// count that isn't zero (variable-width) or a positive multiple of three
// (§4.3, §7 kind 2).
type EncodeArgError struct {
	TargetZChars int
}

func (e *EncodeArgError) Error() string {
	return fmt.Sprintf("zstring: invalid target Z-character count %d (must be 0 or a positive multiple of 3)", e.TargetZChars)
}

// Encode implements §4.3: it turns a plain CHARCODE byte buffer into a
// packed sequence of 16-bit words. targetZChars is 0 for variable-width
// output or a positive multiple of 3 for a fixed-width key (the dictionary
// path uses 9).
func Encode(buf []byte, alphabets *Alphabets, charSet *CharSet, targetZChars int) ([]uint16, error) {
	if targetZChars < 0 || targetZChars%3 != 0 {
		return nil, &EncodeArgError{TargetZChars: targetZChars}
	}

	zchars := make([]uint8, 0, len(buf)*2)
	for _, b := range buf {
		zchars = append(zchars, encodeByte(b, alphabets, charSet)...)
	}

	if targetZChars == 0 {
		for len(zchars)%3 != 0 {
			zchars = append(zchars, 5)
		}
	} else if len(zchars) > targetZChars {
		zchars = zchars[:targetZChars]
	} else {
		for len(zchars) < targetZChars {
			zchars = append(zchars, 5)
		}
	}

	words := make([]uint16, len(zchars)/3)
	for i := range words {
		w := uint16(zchars[i*3])<<10 | uint16(zchars[i*3+1])<<5 | uint16(zchars[i*3+2])
		words[i] = w
	}
	if len(words) > 0 {
		words[len(words)-1] |= 0x8000
	}

	return words, nil
}

// EncodeBytes is Encode followed by big-endian packing into a byte slice,
// the form the dictionary lookup and memory-write paths want.
func EncodeBytes(buf []byte, alphabets *Alphabets, charSet *CharSet, targetZChars int) ([]byte, error) {
	words, err := Encode(buf, alphabets, charSet, targetZChars)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(words)*2)
	for i, w := range words {
		out[i*2] = byte(w >> 8)
		out[i*2+1] = byte(w)
	}
	return out, nil
}

// encodeByte implements the per-byte rules of §4.3 steps 1-6.
func encodeByte(b byte, alphabets *Alphabets, charSet *CharSet) []uint8 {
	h := foldCase(charSet.Decode(b))

	if h == ' ' {
		return []uint8{0}
	}
	if code, ok := charAt(h, alphabets.A0, charSet, false); ok {
		return []uint8{code}
	}
	if code, ok := charAt(h, alphabets.A1, charSet, false); ok {
		return []uint8{4, code}
	}
	if code, ok := charAt(h, alphabets.A2, charSet, true); ok {
		return []uint8{5, code}
	}

	// Literal fall-through uses the ORIGINAL byte, not the folded host char.
	return []uint8{5, 6, b >> 5, b & 31}
}

func foldCase(r rune) rune {
	folded := []rune(lowerCaser.String(string(r)))
	if len(folded) == 0 {
		return r
	}
	return folded[0]
}

// charAt searches a 26-entry alphabet table for h, returning Z-character
// i+6 on a hit. Each entry is itself a CHARCODE - decoded through charSet
// before comparison, so an overridden table placing an extras-range
// CHARCODE (≥155) in A0/A1/A2 matches the same host rune Decode would
// produce, not the raw byte. skipZero excludes index 0, which on A2 is the
// literal-escape marker slot and is never matched against a host char.
func charAt(h rune, table [26]uint8, charSet *CharSet, skipZero bool) (uint8, bool) {
	for i, chr := range table {
		if i == 0 && skipZero {
			continue
		}
		if charSet.Decode(chr) == h {
			return uint8(i + 6), true
		}
	}
	return 0, false
}
