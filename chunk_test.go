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
	"io"
	"strings"
	"testing"
)

// oneByteReader yields its data one byte per Read call, forcing the
// "\n//" sentinel to be split across reads in every possible way.
type oneByteReader struct {
	data []byte
}

func (r *oneByteReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	p[0] = r.data[0]
	r.data = r.data[1:]
	return 1, nil
}

func collectChunks(t *testing.T, c *Chunker) []string {
	t.Helper()
	var chunks []string
	for {
		block, err := c.Next()
		if err == io.EOF {
			return chunks
		}
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		chunks = append(chunks, string(block))
	}
}

func TestChunkerTwoEntries(t *testing.T) {
	in := "ID   A\nAC   P1;\n//\nID   B\nAC   P2;\n//\n"
	chunks := collectChunks(t, NewChunker(strings.NewReader(in)))
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2: %q", len(chunks), chunks)
	}
	if chunks[0] != "ID   A\nAC   P1;\n//" {
		t.Errorf("chunk 0 = %q", chunks[0])
	}
	if chunks[1] != "ID   B\nAC   P2;\n//" {
		t.Errorf("chunk 1 = %q", chunks[1])
	}
}

// TestChunkerSentinelSplitAcrossReads drives the chunker with a reader
// that returns a single byte per call, so a read boundary lands
// between '\n' and '/' and between '/' and '/'.
func TestChunkerSentinelSplitAcrossReads(t *testing.T) {
	in := "ID   A\nAC   P1;\n//\nID   B\nAC   P2;\n//\n"
	chunks := collectChunks(t, NewChunker(&oneByteReader{data: []byte(in)}))
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2: %q", len(chunks), chunks)
	}
	if chunks[0] != "ID   A\nAC   P1;\n//" || chunks[1] != "ID   B\nAC   P2;\n//" {
		t.Errorf("chunks = %q", chunks)
	}
}

// TestChunkerEOFTerminatesEntry: end-of-stream right after "//" (no
// trailing newline) still closes the final entry.
func TestChunkerEOFTerminatesEntry(t *testing.T) {
	in := "ID   A\nAC   P1;\n//"
	chunks := collectChunks(t, NewChunker(strings.NewReader(in)))
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1: %q", len(chunks), chunks)
	}
	if chunks[0] != "ID   A\nAC   P1;\n//" {
		t.Errorf("chunk = %q", chunks[0])
	}
}

// TestChunkerIgnoresNonBoundarySlashes: a line beginning with "//" but
// carrying more text is not an entry terminator.
func TestChunkerIgnoresNonBoundarySlashes(t *testing.T) {
	in := "ID   A\nCC   x\n//not-a-boundary\nAC   P1;\n//\n"
	chunks := collectChunks(t, NewChunker(strings.NewReader(in)))
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1: %q", len(chunks), chunks)
	}
	if !strings.Contains(chunks[0], "//not-a-boundary") {
		t.Errorf("false boundary split the entry: %q", chunks[0])
	}
	if !strings.HasSuffix(chunks[0], "\n//") {
		t.Errorf("chunk should end with the real sentinel: %q", chunks[0])
	}
}

func TestChunkerEmptyStream(t *testing.T) {
	c := NewChunker(strings.NewReader(""))
	if _, err := c.Next(); err != io.EOF {
		t.Fatalf("got %v, want io.EOF", err)
	}
}

// A trailing fragment with no terminator is dropped, not returned as a
// partial entry.
func TestChunkerDropsUnterminatedTail(t *testing.T) {
	in := "ID   A\nAC   P1;\n//\nID   B\nAC   P2;\n"
	chunks := collectChunks(t, NewChunker(strings.NewReader(in)))
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1: %q", len(chunks), chunks)
	}
}
