// Copyright © 2018-2020 Wei Shen <shenwei356@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package pepkit

import (
	"bytes"
	"io"
)

// readBlockSize is the chunker's read granularity.
const readBlockSize = 64 * 1024

var sentinel = []byte("\n//")

// Chunker slices a UniProt DAT byte stream at entry boundaries. A
// boundary is the byte pattern "\n//" followed by "\n" or
// end-of-stream, i.e. a "//" line of its own. It is a pull-based
// iterator: each Next call yields the byte block of exactly one entry.
type Chunker struct {
	r   io.Reader
	buf []byte // spill buffer: unconsumed bytes from previous reads
	eof bool
	err error
}

// NewChunker wraps r for entry-by-entry chunking.
func NewChunker(r io.Reader) *Chunker {
	return &Chunker{r: r, buf: make([]byte, 0, readBlockSize*2)}
}

// Next returns the byte block for one entry, including the leading ID
// line through the trailing "//" (the terminating "\n//" sentinel's own
// trailing newline is consumed but not included). Returns io.EOF when
// the stream is exhausted with no further entry.
func (c *Chunker) Next() ([]byte, error) {
	if c.err != nil && c.err != io.EOF {
		return nil, c.err
	}

	searchFrom := 0
	for {
		if idx := bytes.Index(c.buf[searchFrom:], sentinel); idx >= 0 {
			abs := searchFrom + idx
			end := abs + len(sentinel) // index just past the second '/'

			if end < len(c.buf) {
				if c.buf[end] == '\n' {
					entry := make([]byte, end)
					copy(entry, c.buf[:end])
					c.buf = append(c.buf[:0], c.buf[end+1:]...)
					return entry, nil
				}
				// Not a real boundary (e.g. "\n///" or "\n//x"):
				// keep scanning past this occurrence.
				searchFrom = abs + 1
				continue
			}

			// Pattern reaches the end of buffered data; we can't yet
			// tell whether the next byte (not read yet) is '\n'.
			if c.eof {
				entry := make([]byte, end)
				copy(entry, c.buf[:end])
				c.buf = c.buf[:0]
				return entry, nil
			}
			// Need more bytes to disambiguate; fall through to read,
			// keeping searchFrom pinned at the sentinel so we don't
			// rescan bytes already known not to contain it elsewhere.
			searchFrom = abs
		}

		if c.eof {
			if len(c.buf) == 0 {
				return nil, io.EOF
			}
			// Trailing bytes after the last recognized entry with no
			// terminator: malformed tail, dropped silently.
			c.buf = c.buf[:0]
			return nil, io.EOF
		}

		block := make([]byte, readBlockSize)
		n, err := c.r.Read(block)
		if n > 0 {
			c.buf = append(c.buf, block[:n]...)
		}
		if err != nil {
			if err == io.EOF {
				c.eof = true
			} else {
				c.err = err
				return nil, err
			}
		}
		// Lookback of up to len(sentinel)-1 bytes is implicit: we never
		// discard buffered bytes before a confirmed boundary, so a
		// "\n//" split across two reads is always visible to the next
		// bytes.Index call once the second read lands.
	}
}
