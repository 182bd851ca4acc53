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
	"testing"
)

func TestCacheRoundTrip(t *testing.T) {
	tax := loadTestTaxonomy(t, []testNode{
		{1, 1, "no rank", "root"},
		{543, 1, "family", "Enterobacteriaceae"},
		{561, 543, "genus", "Escherichia"},
		{562, 561, "species", "Escherichia coli"},
		{563, 561, "species", "Escherichia sp."},
	})

	var buf bytes.Buffer
	if err := tax.SaveCache(&buf); err != nil {
		t.Fatalf("SaveCache: %s", err)
	}

	reloaded, err := LoadCache(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("LoadCache: %s", err)
	}

	ids := tax.IDs()
	reloadedIDs := reloaded.IDs()
	if len(ids) != len(reloadedIDs) {
		t.Fatalf("id count: got %d, want %d", len(reloadedIDs), len(ids))
	}
	for i := range ids {
		if ids[i] != reloadedIDs[i] {
			t.Fatalf("id %d: got %d, want %d", i, reloadedIDs[i], ids[i])
		}
	}

	// Validity and lineages survive, so the cache can stand in for a
	// taxa.tsv reload.
	for _, id := range ids {
		if tax.Valid(int(id)) != reloaded.Valid(int(id)) {
			t.Errorf("validity of %d changed across cache round trip", id)
		}
		a, b := tax.Lineage(id), reloaded.Lineage(id)
		for j := 0; j < NumRanks; j++ {
			if a[j] != b[j] {
				t.Errorf("lineage of %d differs at rank %d: %d vs %d", id, j, a[j], b[j])
			}
		}
	}

	var taxaA, taxaB bytes.Buffer
	if err := tax.WriteTaxa(&taxaA); err != nil {
		t.Fatal(err)
	}
	if err := reloaded.WriteTaxa(&taxaB); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(taxaA.Bytes(), taxaB.Bytes()) {
		t.Error("taxa.tsv output differs after cache round trip")
	}
}

func TestLoadCacheRejectsForeignFile(t *testing.T) {
	if _, err := LoadCache(bytes.NewReader([]byte("not a cache file at all"))); err == nil {
		t.Fatal("expected an error for a non-cache file")
	}
}

func TestLoadCacheRejectsWrongVersion(t *testing.T) {
	tax := loadTestTaxonomy(t, []testNode{{1, 1, "no rank", "root"}})
	var buf bytes.Buffer
	if err := tax.SaveCache(&buf); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()
	data[8]++ // bump the big-endian version field
	if _, err := LoadCache(bytes.NewReader(data)); err == nil {
		t.Fatal("expected an error for an unsupported cache version")
	}
}
