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
	"errors"

	"github.com/shenwei356/bio/seq"
)

// Fragment is one tryptic cleavage product, described as a half-open
// range [Start, End) over the original sequence.
type Fragment struct {
	Start, End int
}

// ErrInvalidLengthBounds means min_length > max_length.
var ErrInvalidLengthBounds = errors.New("pepkit: peptide-min must be <= peptide-max")

// ValidateSequence checks the decoded sequence is drawn from the
// 20-letter amino-acid alphabet plus ambiguity codes.
func ValidateSequence(sequence string) error {
	_, err := seq.NewSeq(seq.Protein, []byte(sequence))
	return err
}

// Digest performs an in-memory tryptic digest of sequence: cut after
// any K or R unless immediately followed by P. Every resulting
// fragment whose length falls in [minLen, maxLen] is returned,
// start-to-end in sequence order; length-rejected fragments are not
// emitted but still account for every residue, so the digest remains
// a partition of the input.
func Digest(sequence string, minLen, maxLen int) []Fragment {
	if len(sequence) == 0 {
		return nil
	}

	var fragments []Fragment
	start := 0
	n := len(sequence)
	for i := 0; i < n; i++ {
		c := sequence[i]
		if c != 'K' && c != 'R' {
			continue
		}
		if i+1 < n && sequence[i+1] == 'P' {
			continue
		}
		end := i + 1
		if l := end - start; l >= minLen && l <= maxLen {
			fragments = append(fragments, Fragment{Start: start, End: end})
		}
		start = end
	}
	if start < n {
		if l := n - start; l >= minLen && l <= maxLen {
			fragments = append(fragments, Fragment{Start: start, End: n})
		}
	}
	return fragments
}

// Equate replaces every I with L, the standard I/L ambiguity collapse
// used to key peptides that are indistinguishable by mass
// spectrometry.
func Equate(sequence string) string {
	b := []byte(sequence)
	for i, c := range b {
		if c == 'I' {
			b[i] = 'L'
		}
	}
	return string(b)
}
