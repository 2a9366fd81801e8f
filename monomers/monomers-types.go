// centroFlye: resolving read placements in tandemly duplicated regions.
// (c) 2020-2021 by Authors.
// This file is a part of the centroFlye program.
// Released under the BSD license (see LICENSE file).

package monomers

import (
	"log"

	"github.com/zzsunday/centroFlye/utils"
)

// Gap is the monostring symbol for positions whose monomer call is
// not reliable.
const Gap = -1

// A Monomer is one unit of the monomer alphabet: a short repeated
// sequence composing a tandem repeat array.
type Monomer struct {
	Name  utils.Symbol
	Index int
	Seq   []byte
}

// A MonomerDB is the monomer alphabet shared by all reads of a
// sequencing run. Monomer indices are assigned deterministically in
// lexicographic order of the monomer names.
type MonomerDB struct {
	Monomers []Monomer
	index    map[utils.Symbol]int
}

// NewMonomerDB builds a MonomerDB from a slice of monomers, in
// order. Monomer indices must match the slice positions.
func NewMonomerDB(ms []Monomer) *MonomerDB {
	db := &MonomerDB{Monomers: ms, index: make(map[utils.Symbol]int)}
	for _, m := range ms {
		if m.Index != len(db.index) {
			log.Panicf("monomer %v has index %v, want %v", *m.Name, m.Index, len(db.index))
		}
		db.index[m.Name] = m.Index
	}
	return db
}

// Size returns the size of the monomer alphabet.
func (db *MonomerDB) Size() int {
	return len(db.Monomers)
}

// Index returns the index of the monomer with the given name.
func (db *MonomerDB) Index(name utils.Symbol) (int, bool) {
	index, ok := db.index[name]
	return index, ok
}

// A MonoInstance is one monomer call on a read: a monomer index, the
// nucleotide segment of the read it was called on, and the identity
// and reliability of the call. Coordinates are on the (possibly
// reverse-complemented, see MonoRead.Reversed) read sequence.
type MonoInstance struct {
	MonoIndex int
	Start     int
	End       int
	Identity  float64
	Reversed  bool
	Reliable  bool
	Segment   []byte
}

// A MonoRead is a read re-encoded as its ordered sequence of monomer
// calls. Reads whose calls are predominantly on the reverse strand
// are stored reverse-complemented, with Reversed set. MonoReads are
// read-only after construction.
type MonoRead struct {
	ID        utils.Symbol
	Reversed  bool
	Instances []MonoInstance
}

// Len returns the number of monomer instances of the read.
func (read *MonoRead) Len() int {
	return len(read.Instances)
}

/*
Monostring returns the read as a string of symbols over the monomer
alphabet. Reliable forward instances map to their monomer index,
reliable reverse-strand instances to the index offset by the alphabet
size, and unreliable instances to Gap.
*/
func (read *MonoRead) Monostring(db *MonomerDB) []int {
	monostring := make([]int, len(read.Instances))
	for i, minst := range read.Instances {
		switch {
		case !minst.Reliable:
			monostring[i] = Gap
		case minst.Reversed:
			monostring[i] = minst.MonoIndex + db.Size()
		default:
			monostring[i] = minst.MonoIndex
		}
	}
	return monostring
}

/*
CheckValidity checks that every read's monomer instances are
consistent with the read it was built from and with the monomer
alphabet: instances must be ordered by start coordinate, lie within
the read, and reference existing monomers. Violations indicate a
malformed monomer decomposition and are fatal.
*/
func CheckValidity(monoreads map[utils.Symbol]*MonoRead, db *MonomerDB) {
	for rid, read := range monoreads {
		previousStart := -1
		for _, minst := range read.Instances {
			if minst.Start < previousStart || minst.Start >= minst.End {
				log.Panicf("invalid monomer instance order in read %v", *rid)
			}
			if len(minst.Segment) != minst.End-minst.Start {
				log.Panicf("invalid segment length in read %v", *rid)
			}
			if minst.MonoIndex < 0 || minst.MonoIndex >= db.Size() {
				log.Panicf("unknown monomer index %v in read %v", minst.MonoIndex, *rid)
			}
			previousStart = minst.Start
		}
	}
}

var complementTable = map[byte]byte{
	'A': 'T', 'a': 't',
	'C': 'G', 'c': 'g',
	'G': 'C', 'g': 'c',
	'T': 'A', 't': 'a',
	'N': 'N', 'n': 'n',
}

// ReverseComplement returns the reverse complement of a nucleotide
// sequence. Ambiguity codes map to N.
func ReverseComplement(seq []byte) []byte {
	rc := make([]byte, len(seq))
	for i, c := range seq {
		if r, ok := complementTable[c]; ok {
			rc[len(seq)-1-i] = r
		} else {
			rc[len(seq)-1-i] = 'N'
		}
	}
	return rc
}
