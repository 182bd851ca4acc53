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

// GroupLCA computes the lowest common ancestor across every taxon in
// ids (one peptide's co-occurring organisms), by walking lineage
// columns from root-most to most-specific and keeping the deepest
// rank at which every still-eligible lineage agrees.
//
// ids absent from the taxonomy contribute no lineage and are dropped
// silently.
//
// Rank columns 1..NumRanks-1 of Lineage (Domain..Forma) are walked in
// that order. At genus and species, a lineage only participates if
// its entry there is strictly positive (an ambiguous or invalid
// ancestor at exactly that rank disqualifies the taxon from the
// comparison, rather than being treated as agreement); at every other
// rank, zero ("not applicable"/"\N") participates as an ordinary value,
// so a lineage with no ancestor at that rank disagrees with one that
// has a real ancestor there, and only negative entries are left out.
// The walk stops the
// moment the surviving set disagrees; the last rank at which they
// all agreed (and that value was a real taxon, not the "\N" zero) is
// the answer. Default is the root (1).
func (t *Taxonomy) GroupLCA(ids []int32) int32 {
	var lineages [][]int32
	for _, id := range ids {
		if !t.Populated(int(id)) {
			continue
		}
		lineages = append(lineages, t.Lineage(id))
	}
	if len(lineages) == 0 {
		return rootID
	}
	if len(lineages) == 1 {
		return lineages[0][0]
	}

	lca := rootID
	for j := 1; j < NumRanks; j++ {
		requirePositive := Rank(j) == Genus || Rank(j) == Species

		var common int32
		haveCommon := false
		agree := true
		retained := 0

		for _, v := range lineages {
			val := v[j]
			if requirePositive {
				if val <= 0 {
					continue
				}
			} else if val < 0 {
				continue
			}
			retained++
			if !haveCommon {
				common = val
				haveCommon = true
				continue
			}
			if val != common {
				agree = false
				break
			}
		}

		if retained == 0 {
			continue // no information at this rank
		}
		if !agree {
			break // lineages diverge here; lca already holds the deepest agreement
		}
		if common > 0 {
			lca = common
		}
	}
	return lca
}

// LCA is the two-taxon convenience form of GroupLCA, for callers that
// only ever compare a pair. A zero on either side means "no
// information" and yields the other taxon.
func (t *Taxonomy) LCA(a, b int32) int32 {
	if a == 0 {
		return b
	}
	if b == 0 {
		return a
	}
	return t.GroupLCA([]int32{a, b})
}
