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
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shenwei356/breader"
	"github.com/twotwotwo/sorts"
)

// rootID is the NCBI taxonomy root, its own ancestor.
const rootID = int32(1)

// Hard-blacklisted taxa: synthetic construct, unclassified sequences,
// artificial sequences.
var blacklistedTaxa = map[int32]bool{
	28384:   true,
	48479:   true,
	1869227: true,
}

var badNameSubstrings = []string{
	"enrichment culture", "mixed culture", "uncultured",
	"unidentified", "unspecified", "undetermined", "sample",
}

// Taxonomy is the dense, parent-indexed taxon array. It is built once
// by LoadTaxonomy/LoadTaxaTable and never mutated afterwards; the
// tables writer (validity lookups) and the LCA engine (lineage
// lookups) both read it by reference without locking.
type Taxonomy struct {
	maxID int32

	populated []bool
	parent    []int32
	rank      []Rank
	name      []string
	valid     []bool

	validMemo []int8 // 0=unknown, 1=valid, -1=invalid; scratch space for Validate
}

type taxNode struct {
	ID     int32
	Parent int32
	Rank   string
}

type taxName struct {
	ID   int32
	Name string
}

// LoadTaxonomy reads nodes.dmp and names.dmp (NCBI taxdump format,
// tab-pipe-tab delimited) and returns a fully validated Taxonomy:
// Validate runs before this returns, so consumers always see a
// stable, read-only view.
func LoadTaxonomy(namesFile, nodesFile string) (*Taxonomy, error) {
	t := &Taxonomy{}

	nodeParse := func(line string) (interface{}, bool, error) {
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			return nil, false, nil
		}
		line = strings.TrimSuffix(line, "\t|")
		fields := strings.Split(line, "\t|\t")
		if len(fields) < 3 {
			return nil, false, fmt.Errorf("pepkit: malformed nodes.dmp line: %q", line)
		}
		id, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil {
			return nil, false, errors.Wrapf(err, "nodes.dmp taxid: %q", fields[0])
		}
		parent, err := strconv.Atoi(strings.TrimSpace(fields[1]))
		if err != nil {
			return nil, false, errors.Wrapf(err, "nodes.dmp parent id: %q", fields[1])
		}
		return taxNode{ID: int32(id), Parent: int32(parent), Rank: strings.TrimSpace(fields[2])}, true, nil
	}

	nodeReader, err := breader.NewBufferedReader(nodesFile, 8, 100, nodeParse)
	if err != nil {
		return nil, fmt.Errorf("pepkit: %s", err)
	}

	var nodes []taxNode
	for chunk := range nodeReader.Ch {
		if chunk.Err != nil {
			return nil, fmt.Errorf("pepkit: %s", chunk.Err)
		}
		for _, data := range chunk.Data {
			n := data.(taxNode)
			nodes = append(nodes, n)
			if n.ID > t.maxID {
				t.maxID = n.ID
			}
			if n.Parent > t.maxID {
				t.maxID = n.Parent
			}
		}
	}

	nameParse := func(line string) (interface{}, bool, error) {
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			return nil, false, nil
		}
		line = strings.TrimSuffix(line, "\t|")
		fields := strings.Split(line, "\t|\t")
		if len(fields) < 4 {
			return nil, false, fmt.Errorf("pepkit: malformed names.dmp line: %q", line)
		}
		if strings.TrimSpace(fields[3]) != "scientific name" {
			return nil, false, nil
		}
		id, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil {
			return nil, false, errors.Wrapf(err, "names.dmp taxid: %q", fields[0])
		}
		return taxName{ID: int32(id), Name: strings.TrimSpace(fields[1])}, true, nil
	}

	nameReader, err := breader.NewBufferedReader(namesFile, 8, 100, nameParse)
	if err != nil {
		return nil, fmt.Errorf("pepkit: %s", err)
	}

	size := t.maxID + 1
	t.populated = make([]bool, size)
	t.parent = make([]int32, size)
	t.rank = make([]Rank, size)
	t.name = make([]string, size)

	for chunk := range nameReader.Ch {
		if chunk.Err != nil {
			return nil, fmt.Errorf("pepkit: %s", chunk.Err)
		}
		for _, data := range chunk.Data {
			n := data.(taxName)
			t.name[n.ID] = n.Name
		}
	}

	for _, n := range nodes {
		if t.name[n.ID] == "" {
			return nil, fmt.Errorf("pepkit: taxon %d has no scientific name in names.dmp", n.ID)
		}
		r, err := ParseRank(n.Rank)
		if err != nil {
			return nil, errors.Wrapf(err, "taxon %d rank %q", n.ID, n.Rank)
		}
		t.populated[n.ID] = true
		t.parent[n.ID] = n.Parent
		t.rank[n.ID] = r
	}

	if !t.populated[rootID] {
		return nil, fmt.Errorf("pepkit: taxonomy has no root (id 1)")
	}
	for id := range t.populated {
		if !t.populated[id] || int32(id) == rootID {
			continue
		}
		p := t.parent[id]
		if p != rootID && (int(p) >= len(t.populated) || !t.populated[p]) {
			return nil, fmt.Errorf("pepkit: taxon %d has unknown parent %d", id, p)
		}
	}

	t.Validate()
	return t, nil
}

// Validate runs the validity propagation pass over every populated
// id. It is implemented iteratively (an explicit chain plus a memo
// table) rather than with native recursion, since ancestor chains can
// run thousands deep.
func (t *Taxonomy) Validate() {
	n := len(t.populated)
	t.validMemo = make([]int8, n)
	t.valid = make([]bool, n)

	for id := int32(0); int(id) < n; id++ {
		if !t.populated[id] {
			continue
		}
		t.valid[id] = t.resolveValid(id)
	}
}

func (t *Taxonomy) resolveValid(id int32) bool {
	if t.validMemo[id] != 0 {
		return t.validMemo[id] == 1
	}

	var chain []int32
	cur := id
	for {
		if t.validMemo[cur] != 0 {
			result := t.validMemo[cur] == 1
			for i := len(chain) - 1; i >= 0; i-- {
				memoize(t.validMemo, chain[i], result)
			}
			return t.validMemo[id] == 1
		}

		if localInvalid(cur, t.name[cur], t.rank[cur]) {
			memoize(t.validMemo, cur, false)
			for i := len(chain) - 1; i >= 0; i-- {
				memoize(t.validMemo, chain[i], false)
			}
			return false
		}

		if cur == rootID {
			memoize(t.validMemo, cur, true)
			for i := len(chain) - 1; i >= 0; i-- {
				memoize(t.validMemo, chain[i], true)
			}
			return t.validMemo[id] == 1
		}

		chain = append(chain, cur)
		cur = t.parent[cur]
	}
}

func memoize(memo []int8, id int32, valid bool) {
	if valid {
		memo[id] = 1
	} else {
		memo[id] = -1
	}
}

// localInvalid applies the per-taxon invalidity heuristics,
// independent of ancestry.
func localInvalid(id int32, name string, rank Rank) bool {
	if blacklistedTaxa[id] {
		return true
	}
	lower := strings.ToLower(name)

	if rank == Species {
		if containsDigit(name) && !strings.Contains(lower, "virus") {
			return true
		}
		if strings.HasSuffix(name, " sp.") ||
			strings.HasSuffix(name, " genomosp.") ||
			strings.HasSuffix(name, " bacterium") {
			return true
		}
	}

	for _, frag := range badNameSubstrings {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	if strings.HasSuffix(lower, "metagenome") || strings.HasSuffix(lower, "library") {
		return true
	}
	return false
}

func containsDigit(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			return true
		}
	}
	return false
}

// IDs returns every populated taxon id, ascending. The ids are
// collected by scanning the dense array in index order and then passed
// through a parallel sort (as unikmer/cmd/common.go uses for k-mer code
// slices), so both output tables are written in a deterministic order.
func (t *Taxonomy) IDs() []int32 {
	ids := make([]int32, 0, len(t.populated))
	for id, ok := range t.populated {
		if ok {
			ids = append(ids, int32(id))
		}
	}
	sorts.Quicksort(int32Slice(ids))
	return ids
}

// Valid reports whether id is a known, valid taxon. Out-of-range or
// unpopulated ids are never valid.
func (t *Taxonomy) Valid(id int) bool {
	if id < 0 || id >= len(t.populated) || !t.populated[id] {
		return false
	}
	return t.valid[id]
}

// Populated reports whether id exists in the taxonomy at all,
// regardless of validity.
func (t *Taxonomy) Populated(id int) bool {
	return id >= 0 && id < len(t.populated) && t.populated[id]
}

// RankOf returns the rank of a populated id.
func (t *Taxonomy) RankOf(id int32) Rank {
	return t.rank[id]
}

// rankedAncestor walks upward from id, skipping NoRank taxa, and
// returns the first taxon (possibly id itself) that carries a real
// rank — or the root, when the chain never leaves NoRank or id is not
// a descendant of the root.
func (t *Taxonomy) rankedAncestor(id int32) int32 {
	prev := int32(-1)
	for t.Populated(int(id)) && id != prev && t.rank[id] == NoRank {
		prev = id
		id = t.parent[id]
	}
	if t.Populated(int(id)) {
		return id
	}
	return rootID
}

// Lineage computes the rank-indexed lineage vector for id: position 0
// is the id itself, position j holds the signed id of the ancestor at
// rank j, 0 for the "\N" not-applicable sentinel. Columns are filled
// from the most specific rank down to 1 in one incremental walk over
// the ranked-ancestor chain: each ancestor is consumed at its own
// rank's column, and the gap columns in between inherit the validity
// of the last-consumed, more-specific taxon, so an invalid taxon
// keeps marking -1 until a ranked ancestor is reached. It is the same
// computation whether the vector is about to be written to
// lineages.tsv or consulted in-memory by the LCA engine after a
// taxa.tsv reload.
func (t *Taxonomy) Lineage(id int32) []int32 {
	v := make([]int32, NumRanks)
	v[0] = id

	cur := t.rankedAncestor(id)
	valid := t.valid[cur]

	for j := NumRanks - 1; j >= 1; j-- {
		if j > int(t.rank[cur]) {
			if !valid {
				v[j] = -1
			}
			continue
		}
		valid = t.valid[cur]
		if valid {
			v[j] = cur
		} else {
			v[j] = -cur
		}
		cur = t.rankedAncestor(t.parent[cur])
	}
	return v
}

// WriteTaxa writes taxa.tsv: id, name, rank, parent, validity byte
// (0x01 valid, 0x00 invalid). Rows are emitted in ascending id order.
func (t *Taxonomy) WriteTaxa(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, id := range t.IDs() {
		validByte := byte(0x00)
		if t.valid[id] {
			validByte = 0x01
		}
		if _, err := fmt.Fprintf(bw, "%d\t%s\t%s\t%d\t%c\n",
			id, t.name[id], t.rank[id].String(), t.parent[id], validByte); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteLineages writes lineages.tsv: one tab-separated column per
// rank for every populated id, "\N" for the not-applicable sentinel.
func (t *Taxonomy) WriteLineages(w io.Writer) error {
	bw := bufio.NewWriter(w)
	var sb strings.Builder
	for _, id := range t.IDs() {
		v := t.Lineage(id)
		sb.Reset()
		sb.WriteString(strconv.Itoa(int(v[0])))
		for j := 1; j < NumRanks; j++ {
			sb.WriteByte('\t')
			if v[j] == 0 {
				sb.WriteString(`\N`)
			} else {
				sb.WriteString(strconv.Itoa(int(v[j])))
			}
		}
		sb.WriteByte('\n')
		if _, err := bw.WriteString(sb.String()); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// LoadTaxaTable reconstructs a Taxonomy from a previously written
// taxa.tsv, without re-reading the NCBI dumps: the table alone
// carries id/name/rank/parent/validity, enough to rebuild the array
// and recompute lineage vectors on demand via Lineage.
func LoadTaxaTable(r io.Reader) (*Taxonomy, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	type row struct {
		id     int32
		name   string
		rank   string
		parent int32
		valid  bool
	}
	var rows []row
	var maxID int32
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 5 {
			return nil, fmt.Errorf("pepkit: malformed taxa.tsv line: %q", line)
		}
		id, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, errors.Wrapf(err, "taxa.tsv id: %q", fields[0])
		}
		parent, err := strconv.Atoi(fields[3])
		if err != nil {
			return nil, errors.Wrapf(err, "taxa.tsv parent: %q", fields[3])
		}
		valid := fields[4] == "\x01"
		rows = append(rows, row{id: int32(id), name: fields[1], rank: fields[2], parent: int32(parent), valid: valid})
		if int32(id) > maxID {
			maxID = int32(id)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	t := &Taxonomy{maxID: maxID}
	size := maxID + 1
	t.populated = make([]bool, size)
	t.parent = make([]int32, size)
	t.rank = make([]Rank, size)
	t.name = make([]string, size)
	t.valid = make([]bool, size)

	for _, r := range rows {
		rk, err := ParseRank(r.rank)
		if err != nil {
			return nil, errors.Wrapf(err, "taxa.tsv rank for id %d", r.id)
		}
		t.populated[r.id] = true
		t.parent[r.id] = r.parent
		t.rank[r.id] = rk
		t.name[r.id] = r.name
		t.valid[r.id] = r.valid
	}
	return t, nil
}

// int32Slice adapts []int32 to sort.Interface for twotwotwo/sorts'
// parallel Quicksort.
type int32Slice []int32

func (s int32Slice) Len() int           { return len(s) }
func (s int32Slice) Less(i, j int) bool { return s[i] < s[j] }
func (s int32Slice) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }
