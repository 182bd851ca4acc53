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
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Logger is the subset of github.com/shenwei356/go-logging's *Logger
// TablesWriter needs; cmd/pepkit wires the real logging backend in,
// tests can pass a no-op stub.
type Logger interface {
	Infof(format string, args ...interface{})
	Warningf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})    {}
func (nopLogger) Warningf(string, ...interface{}) {}

// progressEvery is how often (in processed entries) TablesWriter logs
// a progress line.
const progressEvery = 100000

// TablesWriter turns entries into table rows: for each Entry it
// validates the organism against the taxonomy, tryptic-digests the
// sequence, and appends rows across six correlated TSVs under
// independent monotonic ids. It is single-threaded; the work is
// dominated by output I/O.
type TablesWriter struct {
	tax    *Taxonomy
	minLen int
	maxLen int
	logger Logger

	entries   *bufio.Writer
	peptides  *bufio.Writer
	goW       *bufio.Writer
	ecW       *bufio.Writer
	ipW       *bufio.Writer
	proteomes *bufio.Writer

	entryID     int64
	peptideID   int64
	goID        int64
	ecID        int64
	ipID        int64
	proteomeID  int64
	processed   int64
	filtered    int64
	seenInvalid map[int]bool
	started     time.Time
}

// TableSinks names the six output streams TablesWriter appends to.
// Proteomes may be nil if the caller doesn't want proteome
// cross-references.
type TableSinks struct {
	Entries   io.Writer
	Peptides  io.Writer
	GO        io.Writer
	EC        io.Writer
	InterPro  io.Writer
	Proteomes io.Writer
}

// NewTablesWriter builds a writer over the given taxonomy and output
// sinks. minLen/maxLen bound emitted peptide fragment lengths. A nil
// logger gets a no-op stand-in.
func NewTablesWriter(tax *Taxonomy, minLen, maxLen int, sinks TableSinks, logger Logger) *TablesWriter {
	if logger == nil {
		logger = nopLogger{}
	}
	w := &TablesWriter{
		tax:         tax,
		minLen:      minLen,
		maxLen:      maxLen,
		logger:      logger,
		entries:     bufio.NewWriter(sinks.Entries),
		peptides:    bufio.NewWriter(sinks.Peptides),
		goW:         bufio.NewWriter(sinks.GO),
		ecW:         bufio.NewWriter(sinks.EC),
		ipW:         bufio.NewWriter(sinks.InterPro),
		seenInvalid: make(map[int]bool),
		started:     time.Now(),
	}
	if sinks.Proteomes != nil {
		w.proteomes = bufio.NewWriter(sinks.Proteomes)
	}
	return w
}

// WriteEntry processes one entry: filter on taxon validity, write the
// entries.tsv row, write cross-reference rows, digest the sequence
// and write peptide rows.
func (w *TablesWriter) WriteEntry(e *Entry) error {
	w.processed++
	if w.processed%progressEvery == 0 {
		w.logger.Infof("processed %s entries (%s filtered) in %s",
			humanize.Comma(w.processed), humanize.Comma(w.filtered), time.Since(w.started))
	}

	if !w.tax.Valid(e.TaxonID) {
		w.filtered++
		if !w.seenInvalid[e.TaxonID] {
			w.seenInvalid[e.TaxonID] = true
			w.logger.Warningf("entry %s references invalid or unknown taxon id %d, dropping", e.Accession, e.TaxonID)
		}
		return nil
	}

	if e.Name == "" {
		w.logger.Warningf("entry %s carries no recommended or submitted name", e.Accession)
	}

	w.entryID++
	entryID := w.entryID
	if _, err := fmt.Fprintf(w.entries, "%d\t%s\t%s\t%d\t%s\t%s\t%s\n",
		entryID, e.Accession, e.Version, e.TaxonID, e.DBType.String(), e.Name, e.Sequence); err != nil {
		return err
	}

	for _, id := range e.GO {
		w.goID++
		if _, err := fmt.Fprintf(w.goW, "%d\t%d\t%s\n", w.goID, entryID, id); err != nil {
			return err
		}
	}
	for _, id := range e.EC {
		w.ecID++
		if _, err := fmt.Fprintf(w.ecW, "%d\t%d\t%s\n", w.ecID, entryID, id); err != nil {
			return err
		}
	}
	for _, id := range e.InterPro {
		w.ipID++
		if _, err := fmt.Fprintf(w.ipW, "%d\t%d\t%s\n", w.ipID, entryID, id); err != nil {
			return err
		}
	}
	if w.proteomes != nil {
		for _, id := range e.Proteome {
			w.proteomeID++
			if _, err := fmt.Fprintf(w.proteomes, "%d\t%d\t%s\n", w.proteomeID, entryID, id); err != nil {
				return err
			}
		}
	}

	annotations := joinAnnotations(e)
	for _, frag := range Digest(e.Sequence, w.minLen, w.maxLen) {
		original := e.Sequence[frag.Start:frag.End]
		equated := Equate(original)
		w.peptideID++
		if _, err := fmt.Fprintf(w.peptides, "%d\t%s\t%s\t%d\t%s\t%d\n",
			w.peptideID, equated, original, entryID, annotations, e.TaxonID); err != nil {
			return err
		}
	}

	return nil
}

// joinAnnotations builds the peptides.tsv annotations column: raw GO
// ids, then EC-prefixed EC ids, then IPR-prefixed InterPro ids, in
// that order, skipping empty references.
func joinAnnotations(e *Entry) string {
	parts := make([]string, 0, len(e.GO)+len(e.EC)+len(e.InterPro))
	for _, id := range e.GO {
		if id != "" {
			parts = append(parts, id)
		}
	}
	for _, id := range e.EC {
		if id != "" {
			parts = append(parts, "EC:"+id)
		}
	}
	for _, id := range e.InterPro {
		if id != "" {
			parts = append(parts, "IPR:"+id)
		}
	}
	return strings.Join(parts, ";")
}

// Counts reports the running totals, used by `pepkit tables`'s
// end-of-run stable-rendered summary.
func (w *TablesWriter) Counts() (processed, filtered, entries, peptides int64) {
	return w.processed, w.filtered, w.entryID, w.peptideID
}

// Close flushes every underlying writer, returning the first error
// encountered (if any) after attempting all of them.
func (w *TablesWriter) Close() error {
	var first error
	flushers := []*bufio.Writer{w.entries, w.peptides, w.goW, w.ecW, w.ipW, w.proteomes}
	for _, f := range flushers {
		if f == nil {
			continue
		}
		if err := f.Flush(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
