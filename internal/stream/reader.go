package stream

import (
	"io"

	apierrors "github.com/diogo/streamchat/internal/errors"
)

// DefaultChunkSize is the read size used when none is configured
const DefaultChunkSize = 4096

// Reader pulls chunks from a response body and yields their fragments
type Reader struct {
	r        io.Reader
	dec      *Decoder
	buf      []byte
	received int
	deferred error
}

// ReaderOption configures a Reader
type ReaderOption func(*Reader)

// WithChunkSize sets the maximum number of bytes read per chunk
func WithChunkSize(size int) ReaderOption {
	return func(r *Reader) {
		if size > 0 {
			r.buf = make([]byte, size)
		}
	}
}

// NewReader creates a Reader over r
func NewReader(r io.Reader, opts ...ReaderOption) *Reader {
	sr := &Reader{
		r:   r,
		dec: NewDecoder(),
	}
	for _, opt := range opts {
		opt(sr)
	}
	if sr.buf == nil {
		sr.buf = make([]byte, DefaultChunkSize)
	}
	return sr
}

// Next reads one chunk and returns its fragments in arrival order. The slice
// may be empty when the chunk holds no data blocks. Next returns io.EOF once
// the stream is exhausted; bytes of an unfinished sequence are dropped then.
// Any other read failure is returned as a *errors.StreamError.
func (r *Reader) Next() ([]string, error) {
	if r.deferred != nil {
		return nil, r.deferred
	}

	n, err := r.r.Read(r.buf)
	var frags []string
	if n > 0 {
		r.received += n
		frags = Fragments(r.dec.Decode(r.buf[:n]))
	}

	if err != nil {
		if err != io.EOF {
			err = apierrors.NewStreamError(r.received, err)
		}
		if n > 0 {
			r.deferred = err
			return frags, nil
		}
		return nil, err
	}

	return frags, nil
}

// Received returns the total number of bytes read so far
func (r *Reader) Received() int {
	return r.received
}
