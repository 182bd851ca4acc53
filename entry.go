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

import "errors"

// DatabaseType distinguishes a UniProtKB entry's source section.
type DatabaseType uint8

// The two UniProtKB sections. Unknown is what DecodeEntry leaves in
// place when the first DT line names neither section; DecodeEntry does
// not reject such an entry.
const (
	Unknown DatabaseType = iota
	Swissprot
	Trembl
)

func (d DatabaseType) String() string {
	switch d {
	case Swissprot:
		return "swissprot"
	case Trembl:
		return "trembl"
	default:
		return "unknown"
	}
}

// ParseDatabaseType accepts the CLI spellings and the ones found in a
// DT line's "integrated into" suffix.
func ParseDatabaseType(s string) DatabaseType {
	switch s {
	case "swissprot", "Swiss-Prot", "reviewed":
		return Swissprot
	case "trembl", "TrEMBL", "unreviewed":
		return Trembl
	default:
		return Unknown
	}
}

// Entry is one decoded UniProtKB flat-file record. It is owned
// exclusively by the pipeline stage that produced it until it is
// consumed by the tables writer; nothing retains a reference to it
// afterwards.
type Entry struct {
	Accession string
	Version   string
	DBType    DatabaseType
	TaxonID   int
	Name      string
	Sequence  string

	EC       []string
	GO       []string
	InterPro []string
	Proteome []string
}

// ErrMissingAccession means no AC line was found in the block.
var ErrMissingAccession = errors.New("pepkit: missing AC line")

// ErrMissingSequence means no SQ block was found, or it was empty.
var ErrMissingSequence = errors.New("pepkit: missing SQ block")

// ErrMalformedTaxon means the OX line's NCBI_TaxID was not numeric.
var ErrMalformedTaxon = errors.New("pepkit: malformed or missing OX taxon id")

// dedupFirstSeen returns ids with duplicates removed, first-seen order
// preserved. Used only for the EC list; DR cross-references keep
// their duplicates in file order.
func dedupFirstSeen(ids []string) []string {
	if len(ids) < 2 {
		return ids
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
