// Package stream decodes the chat endpoint's streamed response body into
// text fragments.
package stream

import (
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// decodeBufferSize bounds the output of a single Transform call
const decodeBufferSize = 4096

// Decoder incrementally decodes UTF-8 bytes that arrive in arbitrary chunks.
// A multi-byte sequence split across chunks is held back until the rest of it
// arrives. Invalid bytes are replaced with U+FFFD.
type Decoder struct {
	t       transform.Transformer
	pending []byte
	buf     [decodeBufferSize]byte
}

// NewDecoder creates a new incremental UTF-8 decoder
func NewDecoder() *Decoder {
	return &Decoder{t: unicode.UTF8.NewDecoder()}
}

// Decode returns the text decodable from the pending bytes plus chunk.
// An incomplete trailing sequence stays pending for the next call.
func (d *Decoder) Decode(chunk []byte) string {
	src := make([]byte, 0, len(d.pending)+len(chunk))
	src = append(src, d.pending...)
	src = append(src, chunk...)

	var out strings.Builder
	out.Grow(len(src))

	for {
		nDst, nSrc, err := d.t.Transform(d.buf[:], src, false)
		out.Write(d.buf[:nDst])
		src = src[nSrc:]

		if err == transform.ErrShortDst {
			continue
		}
		if err != transform.ErrShortSrc {
			src = nil
		}
		break
	}

	d.pending = append(d.pending[:0], src...)
	return out.String()
}

// Pending returns the number of bytes held back awaiting the rest of a sequence
func (d *Decoder) Pending() int {
	return len(d.pending)
}

// Reset discards pending bytes and decoder state
func (d *Decoder) Reset() {
	d.pending = d.pending[:0]
	d.t.Reset()
}
