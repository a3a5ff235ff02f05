package tokenizer

import (
	"encoding/binary"
	"testing"

	"github.com/gozcore/ztext/dictionary"
	"github.com/gozcore/ztext/zstring"
)

type testMemory struct {
	bytes []uint8
}

func newTestMemory(size int) *testMemory {
	return &testMemory{bytes: make([]uint8, size)}
}

func (m *testMemory) GetByte(addr uint32) uint8 { return m.bytes[addr] }
func (m *testMemory) GetWord(addr uint32) uint16 {
	return binary.BigEndian.Uint16(m.bytes[addr : addr+2])
}
func (m *testMemory) GetBytes(addr uint32, length int, dst []byte, dstOffset int) {
	copy(dst[dstOffset:dstOffset+length], m.bytes[addr:addr+uint32(length)])
}
func (m *testMemory) SetByte(addr uint32, v uint8) { m.bytes[addr] = v }
func (m *testMemory) SetWord(addr uint32, v uint16) {
	binary.BigEndian.PutUint16(m.bytes[addr:addr+2], v)
}
func (m *testMemory) SetWordChecked(addr uint32, v uint16) error {
	m.SetWord(addr, v)
	return nil
}
func (m *testMemory) Version() uint8                   { return 3 }
func (m *testMemory) RomStart() uint32                 { return uint32(len(m.bytes)) }
func (m *testMemory) DictionaryBase() uint32           { return 0 }
func (m *testMemory) AbbreviationTableBase() uint32    { return 0 }
func (m *testMemory) AlphabetTableBase() uint32        { return 0 }
func (m *testMemory) ExtrasTableBase() uint32          { return 0 }
func (m *testMemory) TerminatingCharTableBase() uint32 { return 0 }

// buildDictionary writes a tiny sorted built-in dictionary at addr with the
// given separators and (already 6-byte encoded, ascending) keys.
func buildDictionary(mem *testMemory, addr uint32, separators []uint8, keys [][]uint8) {
	mem.SetByte(addr, uint8(len(separators)))
	for i, s := range separators {
		mem.SetByte(addr+1+uint32(i), s)
	}
	entryLengthAddr := addr + 1 + uint32(len(separators))
	const entryLength = 6
	mem.SetByte(entryLengthAddr, entryLength)
	mem.SetWord(entryLengthAddr+1, uint16(len(keys)))

	entriesBase := entryLengthAddr + 3
	for i, key := range keys {
		base := entriesBase + uint32(i)*entryLength
		for j, b := range key {
			mem.SetByte(base+uint32(j), b)
		}
	}
}

// TestTokenizeS5 is scenario S5: tokenizing "look at door," with separator
// "," yields four tokens at the documented offsets and lengths.
func TestTokenizeS5(t *testing.T) {
	mem := newTestMemory(512)
	alphabets := zstring.DefaultAlphabets()
	charSet := zstring.DefaultCharSet()

	input := "look at door,"
	const bufferAddr = 0
	mem.SetByte(bufferAddr, uint8(len(input))) // max length, unused here
	mem.SetByte(bufferAddr+1, uint8(len(input)))
	for i := 0; i < len(input); i++ {
		mem.SetByte(bufferAddr+2+uint32(i), input[i])
	}

	const dictAddr = 64
	buildDictionary(mem, dictAddr, []uint8{','}, nil)
	dict, err := dictionary.Load(mem, dictAddr, true)
	if err != nil {
		t.Fatalf("unexpected error loading dictionary: %v", err)
	}

	const parseAddr = 256
	const maxTokens = 8
	mem.SetByte(parseAddr, maxTokens)

	Tokenize(mem, bufferAddr, parseAddr, dict, dict, alphabets, charSet, false)

	count := mem.GetByte(parseAddr + 1)
	if count != 4 {
		t.Fatalf("expected parse count 4, got %d", count)
	}

	type want struct {
		length int
		offset int
	}
	wants := []want{
		{4, 0},  // look
		{2, 5},  // at
		{4, 8},  // door
		{1, 12}, // ,
	}
	for i, w := range wants {
		quadAddr := parseAddr + 2 + uint32(i)*4
		gotLength := mem.GetByte(quadAddr + 2)
		gotOffset := mem.GetByte(quadAddr + 3)
		if int(gotLength) != w.length {
			t.Errorf("token %d: expected length %d, got %d", i, w.length, gotLength)
		}
		if int(gotOffset) != w.offset+2 {
			t.Errorf("token %d: expected stored offset %d, got %d", i, w.offset+2, gotOffset)
		}
	}
}

// TestTokenizeSkipUnrecognized confirms that skip_unrecognized drops
// dictionary misses instead of writing a zero-address quad.
func TestTokenizeSkipUnrecognized(t *testing.T) {
	mem := newTestMemory(512)
	alphabets := zstring.DefaultAlphabets()
	charSet := zstring.DefaultCharSet()

	input := "xyzzy plugh"
	const bufferAddr = 0
	mem.SetByte(bufferAddr, uint8(len(input)))
	mem.SetByte(bufferAddr+1, uint8(len(input)))
	for i := 0; i < len(input); i++ {
		mem.SetByte(bufferAddr+2+uint32(i), input[i])
	}

	const dictAddr = 64
	buildDictionary(mem, dictAddr, nil, nil)
	dict, err := dictionary.Load(mem, dictAddr, true)
	if err != nil {
		t.Fatalf("unexpected error loading dictionary: %v", err)
	}

	const parseAddr = 256
	mem.SetByte(parseAddr, 8)

	Tokenize(mem, bufferAddr, parseAddr, dict, dict, alphabets, charSet, true)

	count := mem.GetByte(parseAddr + 1)
	if count != 0 {
		t.Fatalf("expected both unrecognized tokens dropped, got count %d", count)
	}
}

// TestTokenizeWritesZeroAddressOnMiss confirms the §9 open-question
// resolution: with skip_unrecognized false, an unknown word still gets a
// quad written, with word-address 0.
func TestTokenizeWritesZeroAddressOnMiss(t *testing.T) {
	mem := newTestMemory(512)
	alphabets := zstring.DefaultAlphabets()
	charSet := zstring.DefaultCharSet()

	input := "xyzzy"
	const bufferAddr = 0
	mem.SetByte(bufferAddr, uint8(len(input)))
	mem.SetByte(bufferAddr+1, uint8(len(input)))
	for i := 0; i < len(input); i++ {
		mem.SetByte(bufferAddr+2+uint32(i), input[i])
	}

	const dictAddr = 64
	buildDictionary(mem, dictAddr, nil, nil)
	dict, err := dictionary.Load(mem, dictAddr, true)
	if err != nil {
		t.Fatalf("unexpected error loading dictionary: %v", err)
	}

	const parseAddr = 256
	mem.SetByte(parseAddr, 8)

	Tokenize(mem, bufferAddr, parseAddr, dict, dict, alphabets, charSet, false)

	count := mem.GetByte(parseAddr + 1)
	if count != 1 {
		t.Fatalf("expected one quad written even on a miss, got count %d", count)
	}
	wordAddr := mem.GetWord(parseAddr + 2)
	if wordAddr != 0 {
		t.Fatalf("expected word-address 0 on a miss, got %d", wordAddr)
	}
}
