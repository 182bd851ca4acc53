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
	"fmt"
	"strings"
)

// Rank is a position in the closed taxonomic rank enumeration. Lineage
// vectors are indexed by Rank, so the numeric value of every constant
// below is load-bearing: it is the column index in lineages.tsv.
type Rank uint8

// The closed set of ranks, root-most first. NoRank has value 0 but no
// lineage column of its own: position 0 of a lineage vector always
// holds the taxon's own id.
const (
	NoRank Rank = iota
	Domain
	Realm
	Kingdom
	Subkingdom
	Superphylum
	Phylum
	Subphylum
	Superclass
	Class
	Subclass
	Superorder
	Order
	Suborder
	Infraorder
	Superfamily
	Family
	Subfamily
	Tribe
	Subtribe
	Genus
	Subgenus
	SpeciesGroup
	SpeciesSubgroup
	Species
	Subspecies
	Strain
	Varietas
	Forma

	// NumRanks is R, the fixed length of a lineage vector.
	NumRanks = int(Forma) + 1
)

var rankNames = [NumRanks]string{
	NoRank:          "no rank",
	Domain:          "domain",
	Realm:           "realm",
	Kingdom:         "kingdom",
	Subkingdom:      "subkingdom",
	Superphylum:     "superphylum",
	Phylum:          "phylum",
	Subphylum:       "subphylum",
	Superclass:      "superclass",
	Class:           "class",
	Subclass:        "subclass",
	Superorder:      "superorder",
	Order:           "order",
	Suborder:        "suborder",
	Infraorder:      "infraorder",
	Superfamily:     "superfamily",
	Family:          "family",
	Subfamily:       "subfamily",
	Tribe:           "tribe",
	Subtribe:        "subtribe",
	Genus:           "genus",
	Subgenus:        "subgenus",
	SpeciesGroup:    "species group",
	SpeciesSubgroup: "species subgroup",
	Species:         "species",
	Subspecies:      "subspecies",
	Strain:          "strain",
	Varietas:        "varietas",
	Forma:           "forma",
}

// rankAliases maps additional NCBI dump spellings onto the canonical
// rank string above. "superkingdom" is the rank string used by most
// historical taxdump releases; "domain" replaced it in later ones.
var rankAliases = map[string]Rank{
	"no rank":           NoRank,
	"clade":             NoRank,
	"superkingdom":      Domain,
	"domain":            Domain,
	"realm":             Realm,
	"kingdom":           Kingdom,
	"subkingdom":        Subkingdom,
	"superphylum":       Superphylum,
	"phylum":            Phylum,
	"subphylum":         Subphylum,
	"superclass":        Superclass,
	"class":             Class,
	"subclass":          Subclass,
	"superorder":        Superorder,
	"order":             Order,
	"suborder":          Suborder,
	"infraorder":        Infraorder,
	"superfamily":       Superfamily,
	"family":            Family,
	"subfamily":         Subfamily,
	"tribe":             Tribe,
	"subtribe":          Subtribe,
	"genus":             Genus,
	"subgenus":          Subgenus,
	"species group":     SpeciesGroup,
	"species subgroup":  SpeciesSubgroup,
	"species":           Species,
	"subspecies":        Subspecies,
	"strain":            Strain,
	"varietas":          Varietas,
	"forma":             Forma,
	"forma specialis":   Forma,
}

// ErrUnknownRank means a rank string in a nodes.dmp line doesn't match
// the closed enumeration.
var ErrUnknownRank = fmt.Errorf("pepkit: unknown taxonomic rank")

// ParseRank maps an NCBI nodes.dmp rank column to a Rank. The lookup is
// case-insensitive; NCBI itself is consistently lower-case but the
// dumps occasionally carry trailing whitespace from upstream mirrors.
func ParseRank(s string) (Rank, error) {
	r, ok := rankAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, ErrUnknownRank
	}
	return r, nil
}

// String returns the canonical rank string, the same spelling written
// to taxa.tsv's rank column.
func (r Rank) String() string {
	if int(r) >= NumRanks {
		return "no rank"
	}
	return rankNames[r]
}
