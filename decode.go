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
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// deScope tracks which part of the DE block a line belongs to:
// protein-level by default, component after "Contains:", domain after
// "Includes:".
type deScope int

const (
	scopeProtein deScope = iota
	scopeComponent
	scopeDomain
)

// DecodeEntry parses one chunker-delimited byte block into an Entry.
// Decoding is single-pass with a cursor over lines; unrecognized line
// codes are skipped.
func DecodeEntry(block []byte) (*Entry, error) {
	lines := splitLines(block)

	e := &Entry{}

	var recProtein, recComponent, recDomain string
	var subProtein, subComponent, subDomain string
	var ecSeen []string
	scope := scopeProtein

	var acSeen, oxSeen bool
	var dtCount int

	i := 0
	for ; i < len(lines); i++ {
		line := lines[i]
		if len(line) < 2 {
			continue
		}
		code := string(line[:2])

		switch code {
		case "AC":
			if acSeen {
				continue
			}
			acSeen = true
			payload := linePayload(line)
			tok := strings.SplitN(payload, ";", 2)[0]
			e.Accession = strings.TrimSpace(tok)

		case "DT":
			dtCount++
			payload := linePayload(line)
			switch dtCount {
			case 1:
				e.DBType = parseDTDatabaseType(payload)
			case 3:
				e.Version = parseDTVersion(payload)
			}

		case "DE":
			payload := stripMetadata(linePayload(line))
			trimmed := strings.TrimSpace(payload)
			switch trimmed {
			case "Contains:":
				scope = scopeComponent
				continue
			case "Includes:":
				scope = scopeDomain
				continue
			}

			if name, ok := extractTagged(payload, "RecName:"); ok {
				switch scope {
				case scopeComponent:
					recComponent = name
				case scopeDomain:
					recDomain = name
				default:
					recProtein = name
				}
			}
			if name, ok := extractTagged(payload, "SubName:"); ok {
				switch scope {
				case scopeComponent:
					subComponent = name
				case scopeDomain:
					subDomain = name
				default:
					subProtein = name
				}
			}
			for _, ec := range extractAll(payload, "EC=") {
				ecSeen = append(ecSeen, ec)
			}

		case "OX":
			if oxSeen {
				continue
			}
			payload := stripMetadata(linePayload(line))
			taxID, ok := extractTaxID(payload)
			if !ok {
				return nil, errors.Wrapf(ErrMalformedTaxon, "OX line: %q", payload)
			}
			oxSeen = true
			e.TaxonID = taxID

		case "DR":
			payload := linePayload(line)
			fields := strings.Split(payload, ";")
			if len(fields) < 2 {
				continue
			}
			db := strings.TrimSpace(fields[0])
			id := strings.TrimSpace(fields[1])
			switch db {
			case "GO":
				e.GO = append(e.GO, id)
			case "InterPro":
				e.InterPro = append(e.InterPro, id)
			case "Proteomes":
				e.Proteome = append(e.Proteome, id)
			}

		case "SQ":
			i++
			goto sequence
		}
	}

sequence:
	var seq strings.Builder
	for ; i < len(lines); i++ {
		line := lines[i]
		if string(line) == "//" {
			break
		}
		for _, b := range line {
			if b != ' ' {
				seq.WriteByte(b)
			}
		}
	}

	if e.Accession == "" {
		return nil, ErrMissingAccession
	}
	if seq.Len() == 0 {
		return nil, ErrMissingSequence
	}
	e.Sequence = seq.String()
	if err := ValidateSequence(e.Sequence); err != nil {
		return nil, errors.Wrapf(err, "SQ block of %s", e.Accession)
	}
	e.EC = dedupFirstSeen(ecSeen)

	switch {
	case recComponent != "":
		e.Name = recComponent
	case recDomain != "":
		e.Name = recDomain
	case recProtein != "":
		e.Name = recProtein
	case subComponent != "":
		e.Name = subComponent
	case subDomain != "":
		e.Name = subDomain
	default:
		e.Name = subProtein
	}

	return e, nil
}

// splitLines splits a chunked block on '\n' without allocating a copy
// per line; the block itself was already copied out of the chunker's
// spill buffer so these are safe byte-views for the duration of the
// decode.
func splitLines(block []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i, b := range block {
		if b == '\n' {
			lines = append(lines, block[start:i])
			start = i + 1
		}
	}
	if start < len(block) {
		lines = append(lines, block[start:])
	}
	return lines
}

// linePayload strips the 5-byte prefix (2-character line code plus
// three spaces) common to all DAT lines.
func linePayload(line []byte) string {
	if len(line) <= 5 {
		return ""
	}
	return string(line[5:])
}

// stripMetadata drops any trailing " {...}" evidence annotation.
func stripMetadata(s string) string {
	if idx := strings.Index(s, " {"); idx >= 0 {
		return s[:idx]
	}
	return s
}

func parseDTDatabaseType(payload string) DatabaseType {
	const marker = "integrated into "
	idx := strings.Index(payload, marker)
	if idx < 0 {
		return Unknown
	}
	tail := payload[idx+len(marker):]
	switch {
	case strings.Contains(tail, "Swiss-Prot"):
		return Swissprot
	case strings.Contains(tail, "TrEMBL"):
		return Trembl
	default:
		return Unknown
	}
}

func parseDTVersion(payload string) string {
	tail := strings.TrimSpace(payload)
	tail = strings.TrimSuffix(tail, ".")
	fields := strings.Fields(tail)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// extractTagged pulls the Full= value off a "RecName:"/"SubName:" line,
// e.g. "RecName: Full=ATP synthase subunit beta;" -> "ATP synthase subunit beta".
func extractTagged(payload, tag string) (string, bool) {
	idx := strings.Index(payload, tag)
	if idx < 0 {
		return "", false
	}
	rest := payload[idx+len(tag):]
	fidx := strings.Index(rest, "Full=")
	if fidx < 0 {
		return "", false
	}
	rest = stripMetadata(rest[fidx+len("Full="):])
	if semi := strings.Index(rest, ";"); semi >= 0 {
		rest = rest[:semi]
	}
	return strings.TrimSpace(rest), true
}

// extractAll returns every occurrence of "<prefix><value>;" in payload,
// in file order, used to collect "EC=1.1.1.1;" tokens (possibly more
// than one per DE line).
func extractAll(payload, prefix string) []string {
	var out []string
	rest := payload
	for {
		idx := strings.Index(rest, prefix)
		if idx < 0 {
			break
		}
		rest = rest[idx+len(prefix):]
		rest = stripMetadata(rest)
		end := strings.IndexByte(rest, ';')
		var val string
		if end >= 0 {
			val = rest[:end]
			rest = rest[end+1:]
		} else {
			val = rest
			rest = ""
		}
		val = strings.TrimSpace(val)
		if val != "" {
			out = append(out, val)
		}
		if rest == "" {
			break
		}
	}
	return out
}

const taxIDMarker = "NCBI_TaxID="

func extractTaxID(payload string) (int, bool) {
	idx := strings.Index(payload, taxIDMarker)
	if idx < 0 {
		return 0, false
	}
	rest := payload[idx+len(taxIDMarker):]
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	id, err := strconv.Atoi(rest[:end])
	if err != nil {
		return 0, false
	}
	return id, true
}
