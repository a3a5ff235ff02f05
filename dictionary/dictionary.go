// Package dictionary implements Dictionary Lookup (§4.5): resolving an
// encoded key against either the story's built-in sorted dictionary or a
// user-supplied dictionary that may be linear.
package dictionary

import (
	"bytes"
	"fmt"

	"github.com/dchest/siphash"

	"github.com/gozcore/ztext/zcore"
	"github.com/gozcore/ztext/zstring"
	"github.com/gozcore/ztext/zwarn"
)

// keyLength is the fixed encoded-key width used for every entry comparison,
// regardless of story version (§4.5 step 1: T=9 Z-characters, 6 bytes).
const keyLength = 6

// SeparatorSource is the single interface the tokenizer (§4.6) consumes for
// "the set of hard word separators", whether that's the VM's built-in table
// or a user dictionary's own leading separator list.
type SeparatorSource interface {
	Separators() []uint8
}

// Dictionary is a parsed dictionary header plus a handle on the entries
// still resident in story memory - entries are compared lazily out of mem,
// never copied into a Go slice up front, since a user dictionary can be
// arbitrarily large and is already exactly as the story laid it out.
type Dictionary struct {
	mem zcore.Memory

	separators  []uint8
	entryLength uint8
	entriesBase uint32
	entryCount  int
	sorted      bool

	cacheKey0, cacheKey1 uint64
	cache                map[uint64]uint16

	// Warnings receives a one-shot notice the first time a lookup misses.
	// A dictionary miss is never an error (§4 design note), so this is
	// purely diagnostic; leaving it nil keeps Find silent, matching the
	// pre-existing behavior for callers that don't care.
	Warnings *zwarn.Sink
}

// Load parses the dictionary header at headerAddr (§3's "Dictionary" row):
// a separator-count byte, that many separator CHARCODEs, an entry-length
// byte, a 16-bit entry count, then entryCount entries of entryLength bytes.
// builtin selects whether the count is interpreted unsigned (always sorted,
// the built-in dictionary) or signed (user dictionary; negative means
// unsorted, per §9's "signed vs unsigned entry count" design note).
func Load(mem zcore.Memory, headerAddr uint32, builtin bool) (*Dictionary, error) {
	sepCount := mem.GetByte(headerAddr)
	separators := make([]uint8, sepCount)
	for i := 0; i < int(sepCount); i++ {
		separators[i] = mem.GetByte(headerAddr + 1 + uint32(i))
	}

	entryLengthAddr := headerAddr + 1 + uint32(sepCount)
	entryLength := mem.GetByte(entryLengthAddr)
	if entryLength < keyLength {
		return nil, fmt.Errorf("dictionary: entry length %d shorter than the %d-byte key", entryLength, keyLength)
	}

	rawCount := mem.GetWord(entryLengthAddr + 1)
	entriesBase := entryLengthAddr + 3

	var count int
	sorted := true
	if builtin {
		count = int(rawCount)
	} else {
		signedCount := int16(rawCount)
		if signedCount < 0 {
			count = int(-signedCount)
			sorted = false
		} else {
			count = int(signedCount)
		}
	}

	return &Dictionary{
		mem:         mem,
		separators:  separators,
		entryLength: entryLength,
		entriesBase: entriesBase,
		entryCount:  count,
		sorted:      sorted,
		cacheKey0:   0x6f7a6d616368696e, // arbitrary fixed key: this cache is a same-process memoization layer, not a security boundary
		cacheKey1:   0x6463742d6c6f6f6b,
		cache:       make(map[uint64]uint16),
	}, nil
}

// Separators implements SeparatorSource.
func (d *Dictionary) Separators() []uint8 {
	return d.separators
}

// EntryCount reports the number of entries this dictionary actually holds.
func (d *Dictionary) EntryCount() int {
	return d.entryCount
}

// Find resolves an already-encoded 6-byte key to the entry's byte address,
// or 0 on a miss (§4.5 steps 4-5; a miss is not an error, per §4 design
// note "Dictionary miss is not an error"). Repeated lookups of the same key
// within a dictionary's lifetime skip the scan entirely: the key is hashed
// with siphash and memoized, since the same handful of common words (the
// articles, prepositions, direction names) recur constantly during a play
// session and the backing story memory is read-only after VM init.
func (d *Dictionary) Find(key []uint8) uint16 {
	if len(key) != keyLength {
		return 0
	}

	hash := siphash.Hash(d.cacheKey0, d.cacheKey1, key)
	if addr, ok := d.cache[hash]; ok {
		return addr
	}

	addr := d.find(key)
	if addr == 0 {
		d.Warnings.Once("dictionary_miss", "at least one tokenized word was not found in the dictionary")
	}
	d.cache[hash] = addr
	return addr
}

func (d *Dictionary) find(key []uint8) uint16 {
	if d.sorted {
		return d.binarySearch(key)
	}
	return d.linearSearch(key)
}

func (d *Dictionary) linearSearch(key []uint8) uint16 {
	buf := make([]uint8, keyLength)
	for i := 0; i < d.entryCount; i++ {
		addr := d.entryAddr(i)
		d.mem.GetBytes(addr, keyLength, buf, 0)
		if bytes.Equal(buf, key) {
			return uint16(addr)
		}
	}
	return 0
}

func (d *Dictionary) binarySearch(key []uint8) uint16 {
	buf := make([]uint8, keyLength)
	lo, hi := 0, d.entryCount-1
	for lo <= hi {
		mid := (lo + hi) / 2
		addr := d.entryAddr(mid)
		d.mem.GetBytes(addr, keyLength, buf, 0)
		switch bytes.Compare(buf, key) {
		case 0:
			return uint16(addr)
		case -1:
			lo = mid + 1
		default:
			hi = mid - 1
		}
	}
	return 0
}

func (d *Dictionary) entryAddr(index int) uint32 {
	return d.entriesBase + uint32(index)*uint32(d.entryLength)
}

// EncodeKey is a convenience wrapper over §4.3 with T=9, producing the
// fixed 6-byte key Find expects.
func EncodeKey(word []uint8, alphabets *zstring.Alphabets, charSet *zstring.CharSet) ([]uint8, error) {
	return zstring.EncodeBytes(word, alphabets, charSet, 9)
}
