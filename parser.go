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
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// EntryError wraps a non-fatal per-entry decode failure (missing AC,
// malformed OX, missing SQ). Next surfaces it so the caller can log
// and continue; it never terminates iteration.
type EntryError struct {
	Err error
}

func (e *EntryError) Error() string { return e.Err.Error() }
func (e *EntryError) Unwrap() error { return e.Err }

type parseResult struct {
	entry *Entry
	err   error
}

// Parser exposes one lazy sequence of parsed Entry values over a raw
// UniProt DAT stream, transparently single- or multi-threaded. With
// threads == 1 it owns the chunker and decoder directly; with
// threads > 1 it runs one chunker goroutine and `threads` decoder
// goroutines connected by bounded channels (capacity 2x threads each,
// backpressure in both directions); errgroup supervises lifecycle and
// first-error cancellation. Entry order across workers is not
// preserved.
type Parser struct {
	threads int

	single *Chunker

	results chan parseResult
	fatalCh chan error

	done     bool
	finalErr error
}

// NewParser constructs a Parser over r. threads == 0 selects
// runtime.NumCPU().
func NewParser(r io.Reader, threads int) *Parser {
	if threads == 0 {
		threads = runtime.NumCPU()
	}
	if threads < 1 {
		threads = 1
	}

	p := &Parser{threads: threads}
	if threads == 1 {
		p.single = NewChunker(r)
		return p
	}

	raw := make(chan []byte, 2*threads)
	out := make(chan parseResult, 2*threads)
	p.results = out
	p.fatalCh = make(chan error, 1)

	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		defer close(raw)
		c := NewChunker(r)
		for {
			block, err := c.Next()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			select {
			case raw <- block:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	var workers sync.WaitGroup
	workers.Add(p.threads)
	for i := 0; i < p.threads; i++ {
		g.Go(func() (err error) {
			defer workers.Done()
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("pepkit: decoder worker panic: %v", r)
				}
			}()
			for block := range raw {
				e, decErr := DecodeEntry(block)
				res := parseResult{entry: e}
				if decErr != nil {
					res.err = &EntryError{Err: decErr}
				}
				select {
				case out <- res:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})
	}

	go func() {
		workers.Wait()
		close(out)
	}()

	go func() {
		p.fatalCh <- g.Wait()
	}()

	return p
}

// Next returns the next parsed Entry. A non-nil *EntryError is a
// per-entry diagnostic: the caller should log it and call Next again.
// Any other non-nil error (other than io.EOF) is fatal. io.EOF means
// the stream is exhausted.
func (p *Parser) Next() (*Entry, error) {
	if p.single != nil {
		block, err := p.single.Next()
		if err != nil {
			return nil, err
		}
		e, err := DecodeEntry(block)
		if err != nil {
			return nil, &EntryError{Err: err}
		}
		return e, nil
	}

	res, ok := <-p.results
	if !ok {
		if !p.done {
			p.done = true
			p.finalErr = <-p.fatalCh
		}
		if p.finalErr != nil {
			return nil, p.finalErr
		}
		return nil, io.EOF
	}
	if res.err != nil {
		return nil, res.err
	}
	return res.entry, nil
}
