package zstring

import "github.com/gozcore/ztext/zcore"

// maxAbbreviationDepth bounds the recursion triggered by abbreviation
// expansion (§9 design note: "abbreviations invoke the decoder recursively
// with a maximum depth of 1"). An abbreviation whose own text tries to
// reference another abbreviation is a malformed story file, not a case the
// core silently tolerates.
const maxAbbreviationDepth = 1

// ErrNestedAbbreviation is returned when an abbreviation's own encoded text
// contains an abbreviation marker - a violation of the source policy in
// §3's "Abbreviation table" row ("each entry decodes to a finite string
// containing no further abbreviation markers").
type ErrNestedAbbreviation struct {
	AbbreviationAddress uint32
}

func (e *ErrNestedAbbreviation) Error() string {
	return "zstring: abbreviation contains a nested abbreviation marker"
}

// decodeState is the text decoder's per-call state machine (§4.2): three
// alphabets, shift state and abbreviation mode.
type decodeState struct {
	mem              zcore.Memory
	alphabets        *Alphabets
	charSet          *CharSet
	abbreviationBase uint32 // 0 if this story has no abbreviation table
	depth            int

	alphabet    int // 0, 1 or 2
	abbrevMode  int // 0..5
	out         []rune
	pendingHigh uint8 // holds the 5 high bits of a 10-bit literal CHARCODE while abbrevMode==5
}

// Decode reads a contiguous stream of 16-bit words starting at addr and
// returns the decoded host string along with the number of bytes consumed,
// per §4.2. abbreviationBase is the value of the story's abbreviation table
// header field (0 if none).
func Decode(mem zcore.Memory, addr uint32, alphabets *Alphabets, charSet *CharSet, abbreviationBase uint32) (string, uint32, error) {
	return decode(mem, addr, alphabets, charSet, abbreviationBase, 0)
}

func decode(mem zcore.Memory, addr uint32, alphabets *Alphabets, charSet *CharSet, abbreviationBase uint32, depth int) (string, uint32, error) {
	st := &decodeState{
		mem:              mem,
		alphabets:        alphabets,
		charSet:          charSet,
		abbreviationBase: abbreviationBase,
		depth:            depth,
	}

	bytesRead := uint32(0)
	for {
		word := mem.GetWord(addr + bytesRead)
		bytesRead += 2
		last := word>>15 == 1

		zchars := [3]uint8{
			uint8((word >> 10) & 0b11111),
			uint8((word >> 5) & 0b11111),
			uint8(word & 0b11111),
		}

		for _, z := range zchars {
			if err := st.transition(z); err != nil {
				return "", 0, err
			}
		}

		if last {
			break
		}
	}

	return string(st.out), bytesRead, nil
}

// transition applies one Z-character to the state machine per the ordered
// rules of §4.2.
func (st *decodeState) transition(z uint8) error {
	switch {
	case st.abbrevMode == 1 || st.abbrevMode == 2 || st.abbrevMode == 3:
		str, err := st.expandAbbreviation(st.abbrevMode, z)
		if err != nil {
			return err
		}
		st.out = append(st.out, []rune(str)...)
		st.abbrevMode = 0

	case st.abbrevMode == 4:
		st.abbrevMode = 5
		st.pendingHigh = z

	case st.abbrevMode == 5:
		code := (st.pendingHigh << 5) | z
		st.out = append(st.out, st.charSet.Decode(code))
		st.abbrevMode = 0
		st.alphabet = 0

	case z == 0:
		st.out = append(st.out, ' ')

	case z == 1 || z == 2 || z == 3:
		st.abbrevMode = int(z)

	case z == 4:
		st.alphabet = 1

	case z == 5:
		st.alphabet = 2

	default: // z in 6..31
		i := int(z) - 6
		if st.alphabet == 2 && i == 0 {
			st.abbrevMode = 4
			return nil
		}

		var table [26]uint8
		switch st.alphabet {
		case 0:
			table = st.alphabets.A0
		case 1:
			table = st.alphabets.A1
		default:
			table = st.alphabets.A2
		}
		st.out = append(st.out, st.charSet.Decode(table[i]))
		st.alphabet = 0
	}

	return nil
}

// expandAbbreviation implements rule 1 of §4.2's transition table: look up
// abbreviation table entry 32*(z-1)+x, follow its packed word address and
// decode it recursively (bounded to one level deep).
func (st *decodeState) expandAbbreviation(z int, x uint8) (string, error) {
	if st.abbreviationBase == 0 {
		return "", nil
	}
	if st.depth >= maxAbbreviationDepth {
		return "", &ErrNestedAbbreviation{AbbreviationAddress: st.abbreviationBase}
	}

	index := uint32(32*(z-1)) + uint32(x)
	entryAddr := st.abbreviationBase + 2*index
	packedWordAddr := st.mem.GetWord(entryAddr)
	strAddr := uint32(packedWordAddr) * 2

	str, _, err := decode(st.mem, strAddr, st.alphabets, st.charSet, st.abbreviationBase, st.depth+1)
	return str, err
}
