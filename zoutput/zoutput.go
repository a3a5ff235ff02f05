// Package zoutput implements the Output Router (§4.4): the four logical
// output streams (screen, transcript, command-file echo, and a nestable
// memory-capture stack) that every print opcode funnels through.
package zoutput

import (
	"fmt"

	"github.com/gozcore/ztext/zcore"
	"github.com/gozcore/ztext/zstring"
	"github.com/gozcore/ztext/zwarn"
)

// maxCaptureDepth bounds the stream-3 frame stack (§4.4).
const maxCaptureDepth = 16

// IOCollaborator is the subset of §6's I/O collaborator contract the
// Output Router drives directly: the screen/transcript sinks and the two
// toggle flags it doesn't own itself.
type IOCollaborator interface {
	PutChar(r rune)
	PutString(s string)
	PutTranscriptChar(r rune)
	PutTranscriptString(s string)

	SetTranscripting(on bool)
	Transcripting() bool
	SetWritingCommandsToFile(on bool)
	WritingCommandsToFile() bool
}

// StreamControlError is returned by SetOutputStream on an invalid stream
// number, an over-nested stream 3, or a stream-3 target outside writable
// memory (§7 error kind 1).
type StreamControlError struct {
	Stream uint16
	Reason string
}

func (e *StreamControlError) Error() string {
	return fmt.Sprintf("zoutput: stream %d: %s", e.Stream, e.Reason)
}

type captureFrame struct {
	target uint32
	buf    []byte
}

// Router is the Text subsystem's output half (§9's "Mutable global-ish
// state" note: these flags and the capture stack are fields of a struct
// owned by the VM, not process globals).
type Router struct {
	mem zcore.Memory
	io  IOCollaborator

	charSet *zstring.CharSet

	normalOutput bool
	captures     []captureFrame

	transcriptTap func(string)

	// Warnings receives a one-shot notice the first time PutCharcode or
	// PutUnicode captures a character the charset can't represent (§7 error
	// kind 5: "never an error", so this is diagnostic only). Nil leaves the
	// Router silent, matching its pre-existing behavior.
	Warnings *zwarn.Sink
}

// New returns a Router with normal_output on and no active captures, per
// §4.4's stated defaults.
func New(mem zcore.Memory, io IOCollaborator, charSet *zstring.CharSet) *Router {
	return &Router{mem: mem, io: io, charSet: charSet, normalOutput: true}
}

// SetTranscriptTap installs an observer called with exactly the runes this
// Router forwards to the transcript stream, in call order. This is a pure
// tap for tooling built on top of the core (the transcript package's FSST
// recorder) - it never influences what §4.4 actually does.
func (r *Router) SetTranscriptTap(tap func(string)) {
	r.transcriptTap = tap
}

// TableOutput reports whether the capture-frame stack is non-empty.
func (r *Router) TableOutput() bool {
	return len(r.captures) > 0
}

// PutCharcode implements put_charcode(c).
func (r *Router) PutCharcode(c uint8) {
	if c == 0 {
		return
	}
	if r.TableOutput() {
		code, ok := r.charSet.Encode(r.charSet.Decode(c))
		if !ok {
			r.Warnings.Once("unrepresentable_output_char", "at least one output character had no charset representation")
		}
		r.captureByte(code)
		return
	}
	r.forward(r.charSet.Decode(c))
}

// PutUnicode implements put_unicode(u).
func (r *Router) PutUnicode(u rune) {
	if r.TableOutput() {
		code, ok := r.charSet.Encode(u)
		if !ok {
			r.Warnings.Once("unrepresentable_output_char", "at least one output character had no charset representation")
		}
		r.captureByte(code)
		return
	}
	r.forward(u)
}

// PutString implements put_string(s): applied per character, same rule as
// PutUnicode.
func (r *Router) PutString(s string) {
	for _, ru := range s {
		r.PutUnicode(ru)
	}
}

// PutRectangle implements put_rectangle: screen-only, never captured or
// transcripted.
func (r *Router) PutRectangle(lines []string) {
	for _, line := range lines {
		r.io.PutString(line)
	}
}

func (r *Router) captureByte(b uint8) {
	top := len(r.captures) - 1
	r.captures[top].buf = append(r.captures[top].buf, b)
}

func (r *Router) forward(ru rune) {
	if r.normalOutput {
		r.io.PutChar(ru)
	}
	if r.io.Transcripting() {
		r.io.PutTranscriptChar(ru)
		if r.transcriptTap != nil {
			r.transcriptTap(string(ru))
		}
	}
}

// SetOutputStream implements output-stream control (§4.4): stream numbers
// 1..4, signed, negative disables. addr is the stream-3 enable target and
// is ignored for the other streams.
func (r *Router) SetOutputStream(n int16, addr uint32) error {
	stream := n
	enable := stream > 0
	if stream < 0 {
		stream = -stream
	}

	switch stream {
	case 1:
		r.normalOutput = !r.normalOutput
		return nil
	case 2:
		r.io.SetTranscripting(!r.io.Transcripting())
		return nil
	case 3:
		if enable {
			return r.pushCapture(addr)
		}
		return r.popCapture()
	case 4:
		r.io.SetWritingCommandsToFile(!r.io.WritingCommandsToFile())
		return nil
	default:
		return &StreamControlError{Stream: uint16(stream), Reason: "unknown output stream"}
	}
}

// pushCapture implements stream 3 enable: fail if the stack would exceed
// 16 frames, if addr < 64, or if addr+1 is at or past ROM start.
func (r *Router) pushCapture(addr uint32) error {
	if len(r.captures) >= maxCaptureDepth {
		return &StreamControlError{Stream: 3, Reason: "capture stack would exceed depth 16"}
	}
	if addr < 64 {
		return &StreamControlError{Stream: 3, Reason: "capture target below address 64"}
	}
	if addr+1 >= r.mem.RomStart() {
		return &StreamControlError{Stream: 3, Reason: "capture target at or past ROM start"}
	}

	r.captures = append(r.captures, captureFrame{target: addr})
	return nil
}

// popCapture implements stream 3 disable: pop the top frame and flush a
// 16-bit big-endian length prefix followed by the captured bytes, capped
// so the write never crosses ROM start (§9's open-question resolution:
// the push-time check is authoritative, flush silently truncates).
func (r *Router) popCapture() error {
	if len(r.captures) == 0 {
		return &StreamControlError{Stream: 3, Reason: "no active capture frame to disable"}
	}

	top := r.captures[len(r.captures)-1]
	r.captures = r.captures[:len(r.captures)-1]

	available := int64(r.mem.RomStart()) - int64(top.target)
	if available < 2 {
		return nil
	}
	maxBytes := available - 2
	data := top.buf
	if int64(len(data)) > maxBytes {
		data = data[:maxBytes]
	}

	r.mem.SetWord(top.target, uint16(len(data)))
	for i, b := range data {
		r.mem.SetByte(top.target+2+uint32(i), b)
	}
	return nil
}
