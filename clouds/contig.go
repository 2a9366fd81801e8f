// centroFlye: resolving read placements in tandemly duplicated regions.
// (c) 2020-2021 by Authors.
// This file is a part of the centroFlye program.
// Released under the BSD license (see LICENSE file).

package clouds

import (
	"log"
)

/*
A CloudContig accumulates the k-mer clouds of reads placed at
discrete scaffold positions, and scores how uniquely the accumulated
k-mers pin down positions.

The accumulation is append-only and commutative: the state after a
set of AddRead calls does not depend on the order of the calls, so a
score computed from a CloudContig is independent of the
read-processing order.
*/
type CloudContig struct {
	// MinFreq is the minimum total count across all positions for a
	// k-mer to participate in scoring.
	MinFreq int

	clouds        map[int]map[string]int
	kmerPositions map[string][]int
	totals        map[string]int
	freqKmers     map[string]bool
}

// NewCloudContig returns an empty CloudContig with the given minimum
// scoring frequency.
func NewCloudContig(minFreq int) *CloudContig {
	return &CloudContig{
		MinFreq:       minFreq,
		clouds:        make(map[int]map[string]int),
		kmerPositions: make(map[string][]int),
		totals:        make(map[string]int),
		freqKmers:     make(map[string]bool),
	}
}

/*
AddRead places a read's k-mer cloud at the given scaffold position.
The cloud's per-instance sets are flattened into one multiset; every
occurrence increments the k-mer's count at the position. A position
is registered for a k-mer at most once, however often the k-mer is
observed there. Entries are never removed.
*/
func (contig *CloudContig) AddRead(cloud *ReadKMerCloud, position int) {
	bucket := contig.clouds[position]
	if bucket == nil {
		bucket = make(map[string]int)
		contig.clouds[position] = bucket
	}
	for _, unit := range cloud.Units {
		for kmer := range unit {
			if bucket[kmer] == 0 {
				contig.kmerPositions[kmer] = append(contig.kmerPositions[kmer], position)
			}
			bucket[kmer]++
			contig.totals[kmer]++
			if contig.totals[kmer] >= contig.MinFreq {
				contig.freqKmers[kmer] = true
			}
		}
	}
}

/*
Score returns the number of frequent k-mers that concentrate at
exactly one position: a k-mer counts when exactly one position holds
it with a count above maxFreq. A k-mer that exceeds the noise level
at several positions is ambiguous evidence, and a k-mer that exceeds
it nowhere is no evidence at all; neither contributes.

maxFreq must be non-negative; a negative value is a caller bug and
panics.
*/
func (contig *CloudContig) Score(maxFreq int) int {
	if maxFreq < 0 {
		log.Panicf("invalid maximum noise frequency %v", maxFreq)
	}
	score := 0
	for kmer := range contig.freqKmers {
		positions := 0
		for _, pos := range contig.kmerPositions[kmer] {
			if contig.clouds[pos][kmer] > maxFreq {
				positions++
			}
		}
		if positions == 1 {
			score++
		}
	}
	return score
}
