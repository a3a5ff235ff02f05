// Package readpipeline implements the Read Pipeline (§4.7): the glue
// between the I/O collaborator's line/key read entries and timed-callback
// re-entrancy into the interpreter, finishing with tokenization via the
// dictionary/tokenizer packages.
package readpipeline

import (
	"github.com/gozcore/ztext/dictionary"
	"github.com/gozcore/ztext/tokenizer"
	"github.com/gozcore/ztext/zcore"
	"github.com/gozcore/ztext/zstring"
	"github.com/gozcore/ztext/zwarn"
)

// Cancelled is the terminator CHARCODE reported when a timed callback
// cancels a read (§4.7 step 5, §7 error kind 6: "not an error").
const Cancelled = 0

// Enter is the terminator CHARCODE for a normal line read.
const Enter = 13

// IOCollaborator is the subset of §6's I/O collaborator contract the read
// pipeline drives directly.
type IOCollaborator interface {
	// ReadLine blocks until the player submits a line or the timer cancels
	// it. timeTenths is the requested callback interval in tenths of a
	// second (0 disables timing); timerCB is invoked at that interval and
	// returns true to cancel the read. terminators is the set of
	// additional CHARCODEs (beyond Enter) that end the read early.
	// terminator reports which one fired, or Cancelled.
	ReadLine(timeTenths int, timerCB func() bool, terminators []uint8) (text string, terminator uint8)

	// ReadKey is the single-keystroke analogue. translate converts a
	// printable host rune to its CHARCODE for the collaborator to report
	// back; for non-printable keys the collaborator reports a CHARCODE of
	// its own choosing (function keys, arrows, etc).
	ReadKey(timeTenths int, timerCB func() bool, translate func(rune) uint8) (charcode uint8, cancelled bool)
}

// Interpreter is the subset of §6's interpreter collaborator contract used
// to re-enter the bytecode interpreter from inside a timed callback, and
// to bracket the wait itself.
type Interpreter interface {
	BeginExternalWait()
	EndExternalWait()
	// EnterFunction pushes a new call frame for routine at addr, to be run
	// to completion by JITLoop before StackPop reads its return value.
	EnterFunction(addr uint32, args []uint16, argc int, returnPC uint32) error
	JITLoop() error
	StackPop() (uint16, error)
}

// TimedCallback builds the synchronous callback thunk the I/O collaborator
// invokes at the requested interval: it re-enters the interpreter at
// routine via its call-frame API, runs it to completion, and treats a
// non-zero return as "cancel input" (§4.7's timed callback semantics, §9's
// "event/callback re-entry" design note). routine == 0 means no timed
// routine was supplied; the callback then never cancels.
func TimedCallback(interp Interpreter, routine uint32, returnPC uint32) func() bool {
	return func() bool {
		if routine == 0 {
			return false
		}
		if err := interp.EnterFunction(routine, nil, 0, returnPC); err != nil {
			return false
		}
		if err := interp.JITLoop(); err != nil {
			return false
		}
		result, err := interp.StackPop()
		if err != nil {
			return false
		}
		return result != 0
	}
}

// ReadLine implements §4.7's read_line: it reads the read buffer's header,
// brackets the I/O collaborator's line read with the external-wait calls,
// encodes the returned host string back through the character set, writes
// the read buffer, tokenizes into the parse buffer (skip_unrecognized is
// always false for this entry point, per §4.7 step 4), and returns the
// terminator CHARCODE the collaborator reported.
func ReadLine(
	mem zcore.Memory,
	io IOCollaborator,
	interp Interpreter,
	charSet *zstring.CharSet,
	alphabets *zstring.Alphabets,
	sep dictionary.SeparatorSource,
	dict *dictionary.Dictionary,
	bufferAddr, parseAddr uint32,
	timeTenths int,
	routine uint32,
	returnPC uint32,
	terminators []uint8,
	warnings *zwarn.Sink,
) uint8 {
	max := mem.GetByte(bufferAddr)
	offset := mem.GetByte(bufferAddr + 1)

	timerCB := TimedCallback(interp, routine, returnPC)

	interp.BeginExternalWait()
	text, terminator := io.ReadLine(timeTenths, timerCB, terminators)
	interp.EndExternalWait()

	if terminator == Cancelled {
		warnings.Once("timed_read_cancelled", "a timed callback cancelled a pending read_line")
	}

	typed := make([]byte, 0, len(text))
	for _, r := range text {
		code, _ := charSet.Encode(r)
		typed = append(typed, code)
	}

	avail := int(max) - int(offset)
	if avail < 0 {
		avail = 0
	}
	if len(typed) > avail {
		typed = typed[:avail]
	}

	mem.SetByte(bufferAddr+1, offset+uint8(len(typed)))
	for i, b := range typed {
		mem.SetByte(bufferAddr+2+uint32(offset)+uint32(i), b)
	}

	if parseAddr != 0 {
		tokenizer.Tokenize(mem, bufferAddr, parseAddr, sep, dict, alphabets, charSet, false)
	}

	return terminator
}

// ReadKey implements §4.7's read_key: a single-keystroke wrapper over the
// I/O collaborator's key read, bracketed by the same external-wait calls
// and the same timed-callback cancellation path. It passes charSet.Encode
// as the translator the collaborator invokes for printable keys.
func ReadKey(
	io IOCollaborator,
	interp Interpreter,
	charSet *zstring.CharSet,
	timeTenths int,
	routine uint32,
	returnPC uint32,
	warnings *zwarn.Sink,
) uint8 {
	timerCB := TimedCallback(interp, routine, returnPC)

	interp.BeginExternalWait()
	code, cancelled := io.ReadKey(timeTenths, timerCB, func(r rune) uint8 {
		c, _ := charSet.Encode(r)
		return c
	})
	interp.EndExternalWait()

	if cancelled {
		warnings.Once("timed_read_cancelled", "a timed callback cancelled a pending read_key")
		return Cancelled
	}
	return code
}
