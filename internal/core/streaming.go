package core

// streaming.go cleans import files while they are read.
//
// Spreadsheet exports on Windows often start with a UTF-8 byte order mark
// and sometimes carry bytes that are not valid UTF-8. WrapForImport strips
// the mark, replaces invalid bytes with '?' and counts what was read.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// SkipBOM returns a reader that drops a leading UTF-8 byte order mark.
func SkipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

const sanitizeBufSize = 32 << 10

// UTF8Sanitizer replaces invalid UTF-8 bytes with '?'. A multi-byte sequence
// split across two reads of the underlying reader is kept intact.
type UTF8Sanitizer struct {
	r      io.Reader
	buf    []byte
	carry  int // bytes at the start of buf held over from the last read
	out    []byte
	outBuf []byte
	err    error
}

// NewUTF8Sanitizer wraps r.
func NewUTF8Sanitizer(r io.Reader) *UTF8Sanitizer {
	return &UTF8Sanitizer{r: r, buf: make([]byte, sanitizeBufSize)}
}

// Read implements io.Reader.
func (s *UTF8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for len(s.out) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		n, err := s.r.Read(s.buf[s.carry:])
		data := s.buf[:s.carry+n]
		s.err = err

		tail := 0
		if err == nil {
			tail = incompleteTail(data)
		}
		s.outBuf = appendSanitized(s.outBuf[:0], data[:len(data)-tail])
		s.out = s.outBuf
		s.carry = copy(s.buf, data[len(data)-tail:])
	}
	n := copy(p, s.out)
	s.out = s.out[n:]
	return n, nil
}

func appendSanitized(dst, src []byte) []byte {
	if utf8.Valid(src) {
		return append(dst, src...)
	}
	for len(src) > 0 {
		r, size := utf8.DecodeRune(src)
		if r == utf8.RuneError && size == 1 {
			dst = append(dst, '?')
		} else {
			dst = append(dst, src[:size]...)
		}
		src = src[size:]
	}
	return dst
}

// incompleteTail returns how many trailing bytes of data start a multi-byte
// sequence that has not been fully read yet.
func incompleteTail(data []byte) int {
	for i := 1; i <= utf8.UTFMax-1 && i <= len(data); i++ {
		b := data[len(data)-i]
		if b&0xC0 == 0x80 {
			continue
		}
		if b >= 0xC0 && seqLen(b) > i {
			return i
		}
		return 0
	}
	return 0
}

func seqLen(lead byte) int {
	switch {
	case lead < 0xE0:
		return 2
	case lead < 0xF0:
		return 3
	default:
		return 4
	}
}

// CountingReader counts the bytes read through it.
type CountingReader struct {
	r         io.Reader
	BytesRead int64
	Total     int64 // 0 when unknown
}

// NewCountingReader wraps r. total is the expected size, or 0.
func NewCountingReader(r io.Reader, total int64) *CountingReader {
	return &CountingReader{r: r, Total: total}
}

// Read implements io.Reader.
func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.BytesRead += int64(n)
	return n, err
}

// Progress returns the percentage read, or 0 when Total is unknown.
func (c *CountingReader) Progress() int {
	if c.Total <= 0 {
		return 0
	}
	return int(c.BytesRead * 100 / c.Total)
}

// WrapForImport strips the BOM, sanitizes UTF-8 and counts bytes, in that
// order.
func WrapForImport(r io.Reader, total int64) *CountingReader {
	return NewCountingReader(NewUTF8Sanitizer(SkipBOM(r)), total)
}
