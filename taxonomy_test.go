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
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type testNode struct {
	id     int32
	parent int32
	rank   string
	name   string
}

// writeTaxdump materializes nodes.dmp/names.dmp in the NCBI
// tab-pipe-tab format for LoadTaxonomy.
func writeTaxdump(t *testing.T, nodes []testNode) (namesFile, nodesFile string) {
	t.Helper()
	dir := t.TempDir()

	var nb, mb strings.Builder
	for _, n := range nodes {
		fmt.Fprintf(&nb, "%d\t|\t%d\t|\t%s\t|\n", n.id, n.parent, n.rank)
		fmt.Fprintf(&mb, "%d\t|\t%s\t|\t\t|\tscientific name\t|\n", n.id, n.name)
	}

	nodesFile = filepath.Join(dir, "nodes.dmp")
	namesFile = filepath.Join(dir, "names.dmp")
	if err := os.WriteFile(nodesFile, []byte(nb.String()), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(namesFile, []byte(mb.String()), 0644); err != nil {
		t.Fatal(err)
	}
	return
}

func loadTestTaxonomy(t *testing.T, nodes []testNode) *Taxonomy {
	t.Helper()
	names, nodesF := writeTaxdump(t, nodes)
	tax, err := LoadTaxonomy(names, nodesF)
	if err != nil {
		t.Fatalf("LoadTaxonomy: %s", err)
	}
	return tax
}

// TestSpeciesSpInvalidation: id 10 ("Escherichia sp.", species) is
// invalid by the " sp." rule; its genus parent stays valid; the
// lineage of 10 carries a negative marker at the species column.
func TestSpeciesSpInvalidation(t *testing.T) {
	tax := loadTestTaxonomy(t, []testNode{
		{1, 1, "no rank", "root"},
		{9, 1, "genus", "Escherichia"},
		{10, 9, "species", "Escherichia sp."},
	})

	if tax.Valid(10) {
		t.Error("id 10 (species ending in ' sp.') should be invalid")
	}
	if !tax.Valid(9) {
		t.Error("id 9 (genus) should be valid")
	}

	lin := tax.Lineage(10)
	if lin[0] != 10 {
		t.Errorf("lineage[0] = %d, want 10", lin[0])
	}
	if lin[Species] != -10 {
		t.Errorf("lineage[species] = %d, want -10 (invalid marker)", lin[Species])
	}
	if lin[Genus] != 9 {
		t.Errorf("lineage[genus] = %d, want 9", lin[Genus])
	}
}

func TestValidityCascadesToDescendants(t *testing.T) {
	// 20 is locally invalid ("uncultured"); 21 is locally fine but
	// inherits 20's invalidity.
	tax := loadTestTaxonomy(t, []testNode{
		{1, 1, "no rank", "root"},
		{20, 1, "genus", "uncultured things"},
		{21, 20, "species", "Fine name"},
	})
	if tax.Valid(20) {
		t.Error("id 20 should be invalid (name contains 'uncultured')")
	}
	if tax.Valid(21) {
		t.Error("id 21 should inherit its parent's invalidity")
	}
}

func TestValidityRules(t *testing.T) {
	tax := loadTestTaxonomy(t, []testNode{
		{1, 1, "no rank", "root"},
		{2, 1, "genus", "Escherichia"},
		{3, 2, "species", "Escherichia coli"},
		{4, 2, "species", "Escherichia phage T4"},     // digits, no "virus"
		{5, 2, "species", "Escherichia virus T4"},     // digits but virus
		{6, 2, "species", "Candidatus genomosp."},     // " genomosp." suffix
		{7, 2, "species", "marine bacterium"},         // " bacterium" suffix
		{8, 2, "genus", "Genus 12"},                   // digits but not species rank
		{9, 2, "species", "gut metagenome"},           // "metagenome" suffix
		{10, 2, "species", "clone library"},           // "library" suffix
		{11, 2, "species", "environmental sample ABC"}, // "sample" substring
		{28384, 1, "no rank", "other sequences"},      // hard blacklist
	})

	cases := []struct {
		id    int
		valid bool
	}{
		{1, true},
		{3, true},
		{4, false},
		{5, true},
		{6, false},
		{7, false},
		{8, true},
		{9, false},
		{10, false},
		{11, false},
		{28384, false},
	}
	for _, c := range cases {
		if got := tax.Valid(c.id); got != c.valid {
			t.Errorf("Valid(%d) = %v, want %v", c.id, got, c.valid)
		}
	}
}

// Validity is monotone along parent edges: a valid taxon implies a
// valid parent (except the root).
func TestValidityMonotone(t *testing.T) {
	tax := loadTestTaxonomy(t, []testNode{
		{1, 1, "no rank", "root"},
		{2, 1, "family", "Enterobacteriaceae"},
		{3, 2, "genus", "Escherichia"},
		{4, 3, "species", "Escherichia coli"},
		{5, 3, "species", "Escherichia sp."},
	})
	for _, id := range tax.IDs() {
		if id == 1 || !tax.Valid(int(id)) {
			continue
		}
		lin := tax.Lineage(id)
		for j := 1; j < NumRanks; j++ {
			if lin[j] < 0 {
				t.Errorf("valid taxon %d has invalid ancestor marker at rank %d", id, j)
			}
		}
	}
}

func TestLineageSkipsNoRankAncestors(t *testing.T) {
	// 30 sits under a no-rank clade under a genus: the species lineage
	// walks through the clade without surfacing it at any rank column.
	tax := loadTestTaxonomy(t, []testNode{
		{1, 1, "no rank", "root"},
		{2, 1, "genus", "Escherichia"},
		{3, 2, "no rank", "Escherichia clade A"},
		{30, 3, "species", "Escherichia coli"},
	})
	lin := tax.Lineage(30)
	if lin[Genus] != 2 {
		t.Errorf("lineage[genus] = %d, want 2 (no-rank ancestor skipped)", lin[Genus])
	}
	if lin[Species] != 30 {
		t.Errorf("lineage[species] = %d, want 30", lin[Species])
	}
}

// An invalid species keeps marking -1 through the unpopulated rank
// columns between its own rank and the next ranked ancestor; the gap
// inherits the validity of the more specific taxon, not the
// ancestor's.
func TestLineageCarriesInvalidityAcrossGaps(t *testing.T) {
	tax := loadTestTaxonomy(t, []testNode{
		{1, 1, "no rank", "root"},
		{200, 1, "genus", "Drosophila"},
		{220, 200, "species", "Drosophila sp."},
	})
	lin := tax.Lineage(220)
	if lin[Species] != -220 {
		t.Errorf("lineage[species] = %d, want -220", lin[Species])
	}
	for _, j := range []Rank{Subgenus, SpeciesGroup, SpeciesSubgroup} {
		if lin[j] != -1 {
			t.Errorf("lineage[%s] = %d, want -1 (stale invalidity)", j, lin[j])
		}
	}
	if lin[Genus] != 200 {
		t.Errorf("lineage[genus] = %d, want 200", lin[Genus])
	}

	// The valid sibling's gap columns stay "\N".
	tax2 := loadTestTaxonomy(t, []testNode{
		{1, 1, "no rank", "root"},
		{200, 1, "genus", "Drosophila"},
		{221, 200, "species", "Drosophila melanogaster"},
	})
	lin = tax2.Lineage(221)
	for _, j := range []Rank{Subgenus, SpeciesGroup, SpeciesSubgroup} {
		if lin[j] != 0 {
			t.Errorf("lineage[%s] = %d, want 0 for a valid species", j, lin[j])
		}
	}
}

func TestLineageColumnsPastOwnRank(t *testing.T) {
	tax := loadTestTaxonomy(t, []testNode{
		{1, 1, "no rank", "root"},
		{2, 1, "genus", "Escherichia"},
	})
	lin := tax.Lineage(2)
	// Genus is valid: every rank deeper than genus holds the 0 ("\N")
	// sentinel.
	for j := int(Genus) + 1; j < NumRanks; j++ {
		if lin[j] != 0 {
			t.Errorf("lineage[%d] = %d, want 0 for ranks deeper than the taxon's own", j, lin[j])
		}
	}
}

func TestMissingScientificNameIsFatal(t *testing.T) {
	dir := t.TempDir()
	nodesFile := filepath.Join(dir, "nodes.dmp")
	namesFile := filepath.Join(dir, "names.dmp")
	// node 2 has no scientific-name record at all.
	os.WriteFile(nodesFile, []byte("1\t|\t1\t|\tno rank\t|\n2\t|\t1\t|\tgenus\t|\n"), 0644)
	os.WriteFile(namesFile, []byte("1\t|\troot\t|\t\t|\tscientific name\t|\n2\t|\tnickname\t|\t\t|\tcommon name\t|\n"), 0644)
	if _, err := LoadTaxonomy(namesFile, nodesFile); err == nil {
		t.Fatal("expected an error for a node with no scientific name")
	}
}

func TestUnknownRankIsFatal(t *testing.T) {
	dir := t.TempDir()
	nodesFile := filepath.Join(dir, "nodes.dmp")
	namesFile := filepath.Join(dir, "names.dmp")
	os.WriteFile(nodesFile, []byte("1\t|\t1\t|\tno rank\t|\n2\t|\t1\t|\tmegagenus\t|\n"), 0644)
	os.WriteFile(namesFile, []byte("1\t|\troot\t|\t\t|\tscientific name\t|\n2\t|\tX\t|\t\t|\tscientific name\t|\n"), 0644)
	if _, err := LoadTaxonomy(namesFile, nodesFile); err == nil {
		t.Fatal("expected an error for an unknown rank string")
	}
}

// Round trip: WriteTaxa then LoadTaxaTable reproduces validity and
// lineage vectors, the same reload path the LCA stage uses.
func TestWriteTaxaRoundTrip(t *testing.T) {
	tax := loadTestTaxonomy(t, []testNode{
		{1, 1, "no rank", "root"},
		{2, 1, "family", "Enterobacteriaceae"},
		{3, 2, "genus", "Escherichia"},
		{4, 3, "species", "Escherichia sp."},
	})

	var buf bytes.Buffer
	if err := tax.WriteTaxa(&buf); err != nil {
		t.Fatalf("WriteTaxa: %s", err)
	}

	reloaded, err := LoadTaxaTable(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("LoadTaxaTable: %s", err)
	}

	for _, id := range tax.IDs() {
		if tax.Valid(int(id)) != reloaded.Valid(int(id)) {
			t.Errorf("validity of %d changed across round trip", id)
		}
		a, b := tax.Lineage(id), reloaded.Lineage(id)
		for j := 0; j < NumRanks; j++ {
			if a[j] != b[j] {
				t.Errorf("lineage of %d differs at rank %d: %d vs %d", id, j, a[j], b[j])
			}
		}
	}
}

// The taxa.tsv validity column is a raw 0x01/0x00 byte, not an ASCII
// digit.
func TestWriteTaxaValidityByte(t *testing.T) {
	tax := loadTestTaxonomy(t, []testNode{
		{1, 1, "no rank", "root"},
		{2, 1, "species", "Escherichia sp."},
	})
	var buf bytes.Buffer
	if err := tax.WriteTaxa(&buf); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if !strings.HasSuffix(lines[0], "\t\x01") {
		t.Errorf("root row should end with 0x01: %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], "\t\x00") {
		t.Errorf("invalid row should end with 0x00: %q", lines[1])
	}
}

func TestWriteLineagesSentinels(t *testing.T) {
	tax := loadTestTaxonomy(t, []testNode{
		{1, 1, "no rank", "root"},
		{2, 1, "genus", "Escherichia"},
	})
	var buf bytes.Buffer
	if err := tax.WriteLineages(&buf); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	for _, line := range lines {
		cols := strings.Split(line, "\t")
		if len(cols) != NumRanks {
			t.Fatalf("row has %d columns, want %d: %q", len(cols), NumRanks, line)
		}
	}
	genusRow := strings.Split(lines[1], "\t")
	if genusRow[0] != "2" {
		t.Errorf("column 0 = %q, want the taxon's own id", genusRow[0])
	}
	if genusRow[Genus] != "2" {
		t.Errorf("genus column = %q, want 2", genusRow[Genus])
	}
	if genusRow[Species] != `\N` {
		t.Errorf(`species column = %q, want \N for a valid genus`, genusRow[Species])
	}
}

func TestUnknownParentIsFatal(t *testing.T) {
	dir := t.TempDir()
	nodesFile := filepath.Join(dir, "nodes.dmp")
	namesFile := filepath.Join(dir, "names.dmp")
	os.WriteFile(nodesFile, []byte("1\t|\t1\t|\tno rank\t|\n5\t|\t4\t|\tgenus\t|\n"), 0644)
	os.WriteFile(namesFile, []byte("1\t|\troot\t|\t\t|\tscientific name\t|\n5\t|\tX\t|\t\t|\tscientific name\t|\n"), 0644)
	if _, err := LoadTaxonomy(namesFile, nodesFile); err == nil {
		t.Fatal("expected an error for a node whose parent is unknown")
	}
}
