// Package tokenizer implements the Input Tokenizer (§4.6): splitting a read
// buffer into words against a dictionary's separator set and writing the
// resulting quads into the parse buffer.
package tokenizer

import (
	"github.com/gozcore/ztext/dictionary"
	"github.com/gozcore/ztext/zcore"
	"github.com/gozcore/ztext/zstring"
)

const (
	tab   = 9
	space = 32
)

// token is one recognized run of input bytes before dictionary lookup.
type token struct {
	start  int // offset within the scratch buffer
	length int
}

// Tokenize implements §4.6 end to end: read the buffer, split it against
// sep's separator set, look each token up in dict, and write the parse
// buffer quads. skipUnrecognized drops tokens that miss the dictionary
// instead of writing a zero-address quad for them.
func Tokenize(mem zcore.Memory, bufferAddr, parseAddr uint32, sep dictionary.SeparatorSource, dict *dictionary.Dictionary, alphabets *zstring.Alphabets, charSet *zstring.CharSet, skipUnrecognized bool) {
	bufLen := mem.GetByte(bufferAddr + 1)
	scratch := make([]uint8, bufLen)
	mem.GetBytes(bufferAddr+2, int(bufLen), scratch, 0)

	tokens := split(scratch, sep.Separators())

	maxCount := mem.GetByte(parseAddr)
	count := uint8(0)
	quadAddr := parseAddr + 2

	for _, tok := range tokens {
		if count >= maxCount {
			break
		}

		word := scratch[tok.start : tok.start+tok.length]
		key, err := dictionary.EncodeKey(word, alphabets, charSet)
		wordAddr := uint16(0)
		if err == nil {
			wordAddr = dict.Find(key)
		}

		if wordAddr == 0 && skipUnrecognized {
			continue
		}

		// §9 open question: even on a miss with skip_unrecognized false, the
		// quad is still written with word-address 0 - games depend on this.
		mem.SetWord(quadAddr, wordAddr)
		mem.SetByte(quadAddr+2, uint8(tok.length))
		mem.SetByte(quadAddr+3, uint8(2+tok.start))

		quadAddr += 4
		count++
	}

	mem.SetByte(parseAddr+1, count)
}

// split walks scratch once, applying §4.6 step 3's whitespace/separator
// rules: runs of whitespace are skipped, a separator byte is always its own
// one-byte token, and everything else runs until the next whitespace or
// separator byte.
func split(scratch []uint8, separators []uint8) []token {
	var tokens []token
	i := 0
	for i < len(scratch) {
		b := scratch[i]
		if isWhitespace(b) {
			i++
			continue
		}
		if isSeparator(b, separators) {
			tokens = append(tokens, token{start: i, length: 1})
			i++
			continue
		}

		start := i
		for i < len(scratch) && !isWhitespace(scratch[i]) && !isSeparator(scratch[i], separators) {
			i++
		}
		tokens = append(tokens, token{start: start, length: i - start})
	}
	return tokens
}

func isWhitespace(b uint8) bool {
	return b == tab || b == space
}

func isSeparator(b uint8, separators []uint8) bool {
	for _, s := range separators {
		if b == s {
			return true
		}
	}
	return false
}
