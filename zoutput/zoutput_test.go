package zoutput

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/gozcore/ztext/zstring"
	"github.com/gozcore/ztext/zwarn"
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

type fakeIO struct {
	screen      strings.Builder
	transcript  strings.Builder
	transcript_ bool
	echo        bool
}

func (f *fakeIO) PutChar(r rune)            { f.screen.WriteRune(r) }
func (f *fakeIO) PutString(s string)        { f.screen.WriteString(s) }
func (f *fakeIO) PutTranscriptChar(r rune)  { f.transcript.WriteRune(r) }
func (f *fakeIO) PutTranscriptString(s string) { f.transcript.WriteString(s) }
func (f *fakeIO) SetTranscripting(on bool)  { f.transcript_ = on }
func (f *fakeIO) Transcripting() bool       { return f.transcript_ }
func (f *fakeIO) SetWritingCommandsToFile(on bool) { f.echo = on }
func (f *fakeIO) WritingCommandsToFile() bool      { return f.echo }

// TestCaptureS4 is scenario S4: enable stream 3 targeting 0x100, print
// "hi", disable - memory at 0x100..0x103 contains 00 02 'h' 'i'.
func TestCaptureS4(t *testing.T) {
	mem := newTestMemory(512)
	io := &fakeIO{}
	router := New(mem, io, zstring.DefaultCharSet())

	if err := router.SetOutputStream(3, 0x100); err != nil {
		t.Fatalf("unexpected error enabling stream 3: %v", err)
	}
	router.PutString("hi")
	if err := router.SetOutputStream(-3, 0); err != nil {
		t.Fatalf("unexpected error disabling stream 3: %v", err)
	}

	got := mem.bytes[0x100:0x104]
	want := []byte{0x00, 0x02, 'h', 'i'}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("memory at 0x100..0x103: expected %v, got %v", want, got)
		}
	}
}

// TestCaptureTranscodesCharcode confirms PutCharcode captures
// encode(decode_charcode(c)), not the raw byte c: CHARCODE 224 decodes to
// 'à' (Latin-1 224 is also 'à'), which re-encodes to its canonical extras
// slot 181, not 224.
func TestCaptureTranscodesCharcode(t *testing.T) {
	mem := newTestMemory(512)
	io := &fakeIO{}
	router := New(mem, io, zstring.DefaultCharSet())

	if err := router.SetOutputStream(3, 0x100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	router.PutCharcode(224)
	if err := router.SetOutputStream(-3, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := mem.bytes[0x102]
	if got != 181 {
		t.Fatalf("expected captured CHARCODE 181, got %d", got)
	}
}

// TestCaptureSuppressesOtherStreams confirms that while table_output is
// active, nothing reaches the screen or transcript.
func TestCaptureSuppressesOtherStreams(t *testing.T) {
	mem := newTestMemory(512)
	io := &fakeIO{}
	router := New(mem, io, zstring.DefaultCharSet())
	io.SetTranscripting(true)

	if err := router.SetOutputStream(3, 0x100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	router.PutString("captured")

	if io.screen.Len() != 0 {
		t.Fatalf("expected no screen output while capturing, got %q", io.screen.String())
	}
	if io.transcript.Len() != 0 {
		t.Fatalf("expected no transcript output while capturing, got %q", io.transcript.String())
	}
}

// TestCaptureNesting is testable property 7: nested enable-3/disable-3
// pairs flush exactly the bytes emitted while each frame was on top.
func TestCaptureNesting(t *testing.T) {
	mem := newTestMemory(512)
	io := &fakeIO{}
	router := New(mem, io, zstring.DefaultCharSet())

	if err := router.SetOutputStream(3, 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	router.PutString("outer-a")

	if err := router.SetOutputStream(3, 200); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	router.PutString("inner")
	if err := router.SetOutputStream(-3, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	router.PutString("outer-b")
	if err := router.SetOutputStream(-3, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	innerLen := mem.GetWord(200)
	if int(innerLen) != len("inner") {
		t.Fatalf("expected inner frame length %d, got %d", len("inner"), innerLen)
	}
	innerBytes := string(mem.bytes[202 : 202+innerLen])
	if innerBytes != "inner" {
		t.Fatalf("expected inner frame content %q, got %q", "inner", innerBytes)
	}

	outerLen := mem.GetWord(100)
	wantOuter := "outer-aouter-b"
	if int(outerLen) != len(wantOuter) {
		t.Fatalf("expected outer frame length %d, got %d", len(wantOuter), outerLen)
	}
	outerBytes := string(mem.bytes[102 : 102+outerLen])
	if outerBytes != wantOuter {
		t.Fatalf("expected outer frame content %q, got %q", wantOuter, outerBytes)
	}
}

// TestCaptureOverNestFails confirms pushing a 17th frame is rejected.
func TestCaptureOverNestFails(t *testing.T) {
	mem := newTestMemory(8192)
	io := &fakeIO{}
	router := New(mem, io, zstring.DefaultCharSet())

	for i := 0; i < maxCaptureDepth; i++ {
		if err := router.SetOutputStream(3, uint32(100+i*4)); err != nil {
			t.Fatalf("unexpected error on frame %d: %v", i, err)
		}
	}
	if err := router.SetOutputStream(3, 900); err == nil {
		t.Fatal("expected an error pushing a 17th capture frame")
	}
}

// TestCaptureUnrepresentableCharWarns confirms a captured character the
// charset can't encode still gets a (lossy) byte written, and fires the
// warnings sink rather than aborting the capture (§7 error kind 5: never
// an error).
func TestCaptureUnrepresentableCharWarns(t *testing.T) {
	mem := newTestMemory(512)
	io := &fakeIO{}
	router := New(mem, io, zstring.DefaultCharSet())
	router.Warnings = &zwarn.Sink{}

	if err := router.SetOutputStream(3, 0x100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	router.PutUnicode('日')
	router.PutUnicode('語')
	if err := router.SetOutputStream(-3, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !router.Warnings.Seen("unrepresentable_output_char") {
		t.Fatal("expected an unrepresentable character to fire the warnings sink")
	}
	if got := mem.GetWord(0x100); got != 2 {
		t.Fatalf("expected 2 bytes still captured despite the encode miss, got %d", got)
	}
}

// TestOutputStreamUnknownNumberFails confirms an invalid stream number is
// rejected (§7 error kind 1).
func TestOutputStreamUnknownNumberFails(t *testing.T) {
	mem := newTestMemory(64)
	io := &fakeIO{}
	router := New(mem, io, zstring.DefaultCharSet())

	if err := router.SetOutputStream(5, 0); err == nil {
		t.Fatal("expected an error for an unknown stream number")
	}
}
