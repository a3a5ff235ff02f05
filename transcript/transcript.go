// Package transcript implements the Transcript Recorder: an opt-in,
// off-by-default tap on the Output Router's transcript stream (§4.4) that
// keeps an FSST-compressed in-memory copy of everything sent there, for
// tooling built on top of the core (debugging, replay) without the cost of
// holding the raw text. It never feeds back into VM semantics.
package transcript

import "github.com/axiomhq/fsst"

// trainThreshold is how many raw bytes are buffered before a symbol table
// is trained off of them. Below this, Observe keeps accumulating
// uncompressed - FSST needs a representative sample to build a useful
// table, and a story's first few screens of text are that sample.
const trainThreshold = 4096

// Recorder accumulates transcript bytes, training an FSST symbol table
// once enough sample text has arrived and compressing every write after
// that point. It is nil-safe in the sense that a zero-value Recorder is
// disabled and Observe is then a no-op; callers enable it explicitly.
type Recorder struct {
	enabled bool

	table   *fsst.Table
	pending [][]byte // raw writes buffered before training
	chunks  [][]byte // FSST-compressed writes, one per Observe call post-training

	rawBytes        int
	compressedBytes int
}

// New returns a disabled Recorder. Call Enable to start tapping the
// transcript stream.
func New() *Recorder {
	return &Recorder{}
}

// Enable turns recording on. Safe to call on an already-enabled Recorder.
func (r *Recorder) Enable() { r.enabled = true }

// Disable turns recording off; previously recorded bytes are retained.
func (r *Recorder) Disable() { r.enabled = false }

// Enabled reports whether Observe currently records.
func (r *Recorder) Enabled() bool { return r.enabled }

// Observe records one write the Output Router sent to the transcript
// stream. Called from zoutput.Router's transcript tap.
func (r *Recorder) Observe(s string) {
	if !r.enabled || s == "" {
		return
	}

	raw := []byte(s)
	r.rawBytes += len(raw)

	if r.table == nil {
		r.pending = append(r.pending, raw)
		if r.pendingSize() < trainThreshold {
			return
		}
		r.train()
		return
	}

	compressed := r.table.EncodeAll(raw)
	r.chunks = append(r.chunks, compressed)
	r.compressedBytes += len(compressed)
}

func (r *Recorder) pendingSize() int {
	n := 0
	for _, p := range r.pending {
		n += len(p)
	}
	return n
}

// train builds the symbol table from everything buffered so far and
// re-encodes it as the first compressed chunks, switching Observe into
// its steady-state compress-on-arrival mode.
func (r *Recorder) train() {
	r.table = fsst.Train(r.pending)
	for _, p := range r.pending {
		compressed := r.table.EncodeAll(p)
		r.chunks = append(r.chunks, compressed)
		r.compressedBytes += len(compressed)
	}
	r.pending = nil
}

// BytesRecorded reports the total raw (uncompressed) byte count observed
// so far, regardless of whether it has been through FSST yet.
func (r *Recorder) BytesRecorded() int {
	return r.rawBytes
}

// CompressedBytes reports the size of the FSST-compressed representation
// currently held (excludes any bytes still pending training).
func (r *Recorder) CompressedBytes() int {
	return r.compressedBytes
}

// Transcript decodes and concatenates everything recorded so far, in call
// order - used by tooling (the workbench's "show transcript" pane) that
// wants the readable text back.
func (r *Recorder) Transcript() string {
	var out []byte
	for _, p := range r.pending {
		out = append(out, p...)
	}
	if r.table != nil {
		for _, c := range r.chunks {
			out = append(out, r.table.DecodeAll(c)...)
		}
	}
	return string(out)
}
