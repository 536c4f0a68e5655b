package csvtable

// textreader.go cleans a CSV payload while it streams into the parser:
//
//   - a leading UTF-8 BOM (0xEF 0xBB 0xBF) is dropped
//   - invalid UTF-8 bytes become '?' so the output never grows
//   - bytes are counted for logging
//
// Decoding goes through bufio.Reader.ReadRune, which already waits for the
// rest of a multi-byte sequence that straddles two underlying reads.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// TextReader is an io.Reader producing valid UTF-8 without a BOM.
type TextReader struct {
	src       *bufio.Reader
	bomDone   bool
	pending   []byte
	bytesRead int64
}

// NewTextReader wraps r. An existing *bufio.Reader is reused.
func NewTextReader(r io.Reader) *TextReader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &TextReader{
		src:     br,
		pending: make([]byte, 0, utf8.UTFMax),
	}
}

// BytesRead returns the number of bytes handed to callers so far.
func (t *TextReader) BytesRead() int64 {
	return t.bytesRead
}

// Read implements io.Reader. It never blocks once some bytes are ready.
func (t *TextReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if !t.bomDone {
		t.bomDone = true
		if head, err := t.src.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
			_, _ = t.src.Discard(len(utf8BOM))
		}
	}

	n := copy(p, t.pending)
	t.pending = append(t.pending[:0], t.pending[n:]...)

	for n < len(p) {
		if n > 0 && t.src.Buffered() == 0 {
			break
		}
		r, size, err := t.src.ReadRune()
		if err != nil {
			t.bytesRead += int64(n)
			if n > 0 {
				return n, nil
			}
			return 0, err
		}
		if r == utf8.RuneError && size == 1 {
			p[n] = '?'
			n++
			continue
		}
		if size > len(p)-n {
			// Split the rune: emit what fits, hold back the rest.
			var enc [utf8.UTFMax]byte
			utf8.EncodeRune(enc[:], r)
			m := copy(p[n:], enc[:size])
			t.pending = append(t.pending, enc[m:size]...)
			n += m
			break
		}
		n += utf8.EncodeRune(p[n:], r)
	}

	t.bytesRead += int64(n)
	return n, nil
}

// capReader fails with ErrPayloadTooLarge once more than limit bytes arrive.
type capReader struct {
	r         io.Reader
	remaining int64
}

func newCapReader(r io.Reader, limit int64) *capReader {
	return &capReader{r: r, remaining: limit}
}

func (c *capReader) Read(p []byte) (int, error) {
	if c.remaining <= 0 {
		var probe [1]byte
		n, err := c.r.Read(probe[:])
		if n > 0 {
			return 0, ErrPayloadTooLarge
		}
		return 0, err
	}
	if int64(len(p)) > c.remaining {
		p = p[:c.remaining]
	}
	n, err := c.r.Read(p)
	c.remaining -= int64(n)
	return n, err
}
