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
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/mitchellh/go-homedir"
)

// cacheMagic/cacheVersion identify the on-disk lineage cache format:
// an 8-byte magic, a versioned header, then one row per taxon.
var cacheMagic = [8]byte{'p', 'e', 'p', 'k', 'i', 't', 'T', 'X'}

const cacheVersion uint32 = 1

// DefaultCacheDir resolves "~/.pepkit", the default home for the
// optional lineage cache, the one direct consumer go-homedir has in
// this toolkit.
func DefaultCacheDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return home + string(os.PathSeparator) + ".pepkit", nil
}

// SaveCache writes a binary snapshot of t to w: an 8-byte magic, a
// uint32 version, a uint32 row count, then one fixed-plus-variable row
// per populated taxon (id, parent, rank uint8, valid byte, name
// length-prefixed). Rebuilding from this file avoids re-parsing
// names.dmp/nodes.dmp on every run that only needs taxa.tsv/lineage
// lookups.
func (t *Taxonomy) SaveCache(w io.Writer) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.Write(cacheMagic[:]); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.BigEndian, cacheVersion); err != nil {
		return err
	}

	ids := t.IDs()
	if err := binary.Write(bw, binary.BigEndian, uint32(len(ids))); err != nil {
		return err
	}

	for _, id := range ids {
		if err := binary.Write(bw, binary.BigEndian, id); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.BigEndian, t.parent[id]); err != nil {
			return err
		}
		if err := bw.WriteByte(byte(t.rank[id])); err != nil {
			return err
		}
		validByte := byte(0)
		if t.valid[id] {
			validByte = 1
		}
		if err := bw.WriteByte(validByte); err != nil {
			return err
		}
		name := t.name[id]
		if err := binary.Write(bw, binary.BigEndian, uint16(len(name))); err != nil {
			return err
		}
		if _, err := bw.WriteString(name); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// LoadCache reconstructs a Taxonomy previously written by SaveCache.
// A magic or version mismatch is reported as an error so the caller
// can fall back to rebuilding from the NCBI dumps.
func LoadCache(r io.Reader) (*Taxonomy, error) {
	br := bufio.NewReader(r)

	var magic [8]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, fmt.Errorf("pepkit: reading cache magic: %w", err)
	}
	if magic != cacheMagic {
		return nil, fmt.Errorf("pepkit: not a pepkit lineage cache file")
	}

	var version uint32
	if err := binary.Read(br, binary.BigEndian, &version); err != nil {
		return nil, err
	}
	if version != cacheVersion {
		return nil, fmt.Errorf("pepkit: unsupported cache version %d", version)
	}

	var count uint32
	if err := binary.Read(br, binary.BigEndian, &count); err != nil {
		return nil, err
	}

	type row struct {
		id, parent int32
		rank       Rank
		valid      bool
		name       string
	}
	rows := make([]row, 0, count)
	var maxID int32

	for i := uint32(0); i < count; i++ {
		var id, parent int32
		if err := binary.Read(br, binary.BigEndian, &id); err != nil {
			return nil, err
		}
		if err := binary.Read(br, binary.BigEndian, &parent); err != nil {
			return nil, err
		}
		rankByte, err := br.ReadByte()
		if err != nil {
			return nil, err
		}
		validByte, err := br.ReadByte()
		if err != nil {
			return nil, err
		}
		var nameLen uint16
		if err := binary.Read(br, binary.BigEndian, &nameLen); err != nil {
			return nil, err
		}
		nameBuf := make([]byte, nameLen)
		if _, err := io.ReadFull(br, nameBuf); err != nil {
			return nil, err
		}

		rows = append(rows, row{id: id, parent: parent, rank: Rank(rankByte), valid: validByte == 1, name: string(nameBuf)})
		if id > maxID {
			maxID = id
		}
	}

	t := &Taxonomy{maxID: maxID}
	size := maxID + 1
	t.populated = make([]bool, size)
	t.parent = make([]int32, size)
	t.rank = make([]Rank, size)
	t.name = make([]string, size)
	t.valid = make([]bool, size)

	for _, r := range rows {
		t.populated[r.id] = true
		t.parent[r.id] = r.parent
		t.rank[r.id] = r.rank
		t.name[r.id] = r.name
		t.valid[r.id] = r.valid
	}
	return t, nil
}
