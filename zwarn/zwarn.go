// Package zwarn implements the core's non-fatal-condition reporting: a
// dedup-by-key warning sink, the same idiom as the teacher's
// *ZMachine.warnOnce (zmachine/callstack.go's stack-underflow calls), pulled
// out so the text/tokenizer/dictionary components can share it without
// depending on a VM type.
package zwarn

import (
	"fmt"
	"os"
)

// Sink dedupes warnings by key: the first call for a given key emits, every
// later call for the same key is silent. Zero-value Sink writes to stderr;
// callers that want warnings routed elsewhere (a workbench log pane, a test
// spy) supply Emit.
type Sink struct {
	Emit func(string)
	seen map[string]bool
}

// Once emits the formatted message the first time key is seen and is a
// no-op on every subsequent call with that key. A nil Sink is a silent no-op,
// so callers that don't care about diagnostics can pass nil.
func (s *Sink) Once(key, format string, args ...any) {
	if s == nil {
		return
	}
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	if s.seen[key] {
		return
	}
	s.seen[key] = true

	msg := fmt.Sprintf(format, args...)
	if s.Emit != nil {
		s.Emit(msg)
		return
	}
	fmt.Fprintln(os.Stderr, msg)
}

// Seen reports whether key has already fired, for tests that want to assert
// dedup behavior without capturing Emit output.
func (s *Sink) Seen(key string) bool {
	if s == nil {
		return false
	}
	return s.seen[key]
}
