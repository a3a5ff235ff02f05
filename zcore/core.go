// Package zcore implements the memory collaborator: the addressable byte
// array a story file is loaded into, plus the header fields the text and
// tokenizer/dictionary subsystems need to find their tables. Opcode
// decode/dispatch, objects, the call stack and screen geometry are not this
// package's concern - they're separate external collaborators (see §6 of
// the core specification).
package zcore

import "encoding/binary"

// Memory is the collaborator contract consumed by zstring, dictionary and
// tokenizer: an addressable byte array plus the handful of header-derived
// constants those packages need to locate their tables.
type Memory interface {
	GetByte(addr uint32) uint8
	GetWord(addr uint32) uint16
	GetBytes(addr uint32, length int, dst []byte, dstOffset int)
	SetByte(addr uint32, v uint8)
	SetWord(addr uint32, v uint16)
	// SetWordChecked fails if addr falls in the ROM (static memory) region.
	SetWordChecked(addr uint32, v uint16) error

	Version() uint8
	RomStart() uint32
	DictionaryBase() uint32
	AbbreviationTableBase() uint32
	// AlphabetTableBase is the header-pointed override for A0/A1/A2, or 0
	// to use the defaults.
	AlphabetTableBase() uint32
	// ExtrasTableBase is the header-pointed override for the extra
	// characters table, or 0 to use the defaults.
	ExtrasTableBase() uint32
	TerminatingCharTableBase() uint32
}

// Core is the concrete Memory backing a loaded story file. It mirrors the
// subset of the Z-machine header that the text/tokenizer/dictionary core
// actually consumes; screen geometry, colours, sound and save-state fields
// belong to other (out of scope) collaborators and are not tracked here.
type Core struct {
	bytes []uint8

	version                  uint8
	dictionaryBase           uint16
	abbreviationTableBase    uint16
	staticMemoryBase         uint16 // first address the story file may not write to ("ROM start")
	alternativeCharSetBase   uint16 // 0 unless overridden
	extensionTableBase       uint16
	unicodeExtensionTable    uint16 // resolved from the extension table, 0 if absent
	terminatingCharTableBase uint16
}

// LoadCore parses the header fields relevant to the text/tokenizer core out
// of a raw story file image. storyBytes becomes the backing array: writes
// through Core mutate it in place, same as the teacher's zcore.LoadCore.
func LoadCore(storyBytes []uint8) *Core {
	extensionTableBase := binary.BigEndian.Uint16(storyBytes[0x36:0x38])
	unicodeExtensionTable := uint16(0)
	if extensionTableBase != 0 && int(extensionTableBase)+8 <= len(storyBytes) {
		unicodeExtensionTable = binary.BigEndian.Uint16(storyBytes[extensionTableBase+6 : extensionTableBase+8])
	}

	return &Core{
		bytes:                    storyBytes,
		version:                  storyBytes[0x00],
		dictionaryBase:           binary.BigEndian.Uint16(storyBytes[0x08:0x0a]),
		abbreviationTableBase:    binary.BigEndian.Uint16(storyBytes[0x18:0x1a]),
		staticMemoryBase:         binary.BigEndian.Uint16(storyBytes[0x0e:0x10]),
		alternativeCharSetBase:   binary.BigEndian.Uint16(storyBytes[0x34:0x36]),
		extensionTableBase:       extensionTableBase,
		unicodeExtensionTable:    unicodeExtensionTable,
		terminatingCharTableBase: binary.BigEndian.Uint16(storyBytes[0x2e:0x30]),
	}
}

func (c *Core) Version() uint8 { return c.version }

func (c *Core) RomStart() uint32 { return uint32(c.staticMemoryBase) }

func (c *Core) DictionaryBase() uint32 { return uint32(c.dictionaryBase) }

func (c *Core) AbbreviationTableBase() uint32 { return uint32(c.abbreviationTableBase) }

func (c *Core) AlphabetTableBase() uint32 { return uint32(c.alternativeCharSetBase) }

func (c *Core) ExtrasTableBase() uint32 { return uint32(c.unicodeExtensionTable) }

func (c *Core) TerminatingCharTableBase() uint32 { return uint32(c.terminatingCharTableBase) }

func (c *Core) GetByte(addr uint32) uint8 {
	return c.bytes[addr]
}

func (c *Core) GetWord(addr uint32) uint16 {
	return binary.BigEndian.Uint16(c.bytes[addr : addr+2])
}

func (c *Core) GetBytes(addr uint32, length int, dst []byte, dstOffset int) {
	copy(dst[dstOffset:dstOffset+length], c.bytes[addr:addr+uint32(length)])
}

func (c *Core) SetByte(addr uint32, v uint8) {
	c.bytes[addr] = v
}

func (c *Core) SetWord(addr uint32, v uint16) {
	binary.BigEndian.PutUint16(c.bytes[addr:addr+2], v)
}

func (c *Core) SetWordChecked(addr uint32, v uint16) error {
	if addr >= c.RomStart() {
		return &WriteProtectedError{Address: addr}
	}
	c.SetWord(addr, v)
	return nil
}

// WriteProtectedError is returned by SetWordChecked when the target address
// falls in static memory (ROM).
type WriteProtectedError struct {
	Address uint32
}

func (e *WriteProtectedError) Error() string {
	return "zcore: write to read-only memory"
}

// MemoryLength reports the size of the backing story-file image.
func (c *Core) MemoryLength() uint32 {
	return uint32(len(c.bytes))
}
