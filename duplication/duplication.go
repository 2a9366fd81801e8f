// centroFlye: resolving read placements in tandemly duplicated regions.
// (c) 2020-2021 by Authors.
// This file is a part of the centroFlye program.
// Released under the BSD license (see LICENSE file).

/*
Package duplication resolves the ambiguous placement of reads inside
a tandemly duplicated region of a monoscaffold. Reads mapping to
exactly one location inside the duplication seed a positional k-mer
index; every possible assignment of the ambiguous reads to their two
candidate locations is then enumerated and scored against that
baseline, and the winning assignment collapses each ambiguous read to
a single resolved location.
*/
package duplication

import (
	"log"
	"sort"

	"github.com/bits-and-blooms/bitset"
	"github.com/exascience/pargo/parallel"
	psort "github.com/exascience/pargo/sort"

	"github.com/zzsunday/centroFlye/clouds"
	"github.com/zzsunday/centroFlye/monomers"
	"github.com/zzsunday/centroFlye/scaffold"
	"github.com/zzsunday/centroFlye/utils"
)

// SortByLength sorts read ids by the length of their monoread,
// longest first. Ties are broken by read id, so the order is
// reproducible whatever the input order.
func SortByLength(ids []utils.Symbol, monoreads map[utils.Symbol]*monomers.MonoRead) {
	sort.SliceStable(ids, func(i, j int) bool {
		li, lj := monoreads[ids[i]].Len(), monoreads[ids[j]].Len()
		if li != lj {
			return li > lj
		}
		return *ids[i] < *ids[j]
	})
}

type stableLengthSorter struct {
	ids       []utils.Symbol
	monoreads map[utils.Symbol]*monomers.MonoRead
}

func (s stableLengthSorter) SequentialSort(i, j int) {
	SortByLength(s.ids[i:j], s.monoreads)
}

func (s stableLengthSorter) NewTemp() psort.StableSorter {
	return stableLengthSorter{make([]utils.Symbol, len(s.ids)), s.monoreads}
}

func (s stableLengthSorter) Len() int {
	return len(s.ids)
}

func (s stableLengthSorter) Less(i, j int) bool {
	li, lj := s.monoreads[s.ids[i]].Len(), s.monoreads[s.ids[j]].Len()
	if li != lj {
		return li > lj
	}
	return *s.ids[i] < *s.ids[j]
}

func (s stableLengthSorter) Assign(source psort.StableSorter) func(i, j, len int) {
	dst, src := s.ids, source.(stableLengthSorter).ids
	return func(i, j, len int) {
		copy(dst[i:i+len], src[j:j+len])
	}
}

// ParallelSortByLength sorts read ids by monoread length, longest
// first, using a parallel stable sort.
func ParallelSortByLength(ids []utils.Symbol, monoreads map[utils.Symbol]*monomers.MonoRead) {
	psort.StableSort(stableLengthSorter{ids, monoreads})
}

/*
CertainReads returns the reads with exactly one candidate location,
that location overlapping the certain window (end beyond leftBorder,
start before rightBorder). The result is sorted by monoread length,
longest first.
*/
func CertainReads(locations map[utils.Symbol][]scaffold.Interval, monoreads map[utils.Symbol]*monomers.MonoRead, leftBorder, rightBorder int) []utils.Symbol {
	var ids []utils.Symbol
	for rid, locs := range locations {
		if len(locs) != 1 {
			continue
		}
		if locs[0].End > leftBorder && locs[0].Start < rightBorder {
			ids = append(ids, rid)
		}
	}
	ParallelSortByLength(ids, monoreads)
	return ids
}

/*
AmbiguousReads returns the reads with exactly two candidate
locations straddling the duplication: the first location ending at or
beyond leftBorder and the second starting at or before rightBorder.
The result is sorted by monoread length, longest first; its order
fixes the bit positions of the variant vectors.
*/
func AmbiguousReads(locations map[utils.Symbol][]scaffold.Interval, monoreads map[utils.Symbol]*monomers.MonoRead, leftBorder, rightBorder int) []utils.Symbol {
	var ids []utils.Symbol
	for rid, locs := range locations {
		if len(locs) != 2 {
			continue
		}
		if locs[0].End >= leftBorder && locs[1].Start <= rightBorder {
			ids = append(ids, rid)
		}
	}
	ParallelSortByLength(ids, monoreads)
	return ids
}

/*
AssessVariant scores one candidate placement assignment of the
ambiguous reads. A fresh CloudContig is seeded with every certain
read at its single known position; the ambiguous reads covered by the
variant vector are then added at the candidate location selected by
their bit (0 selects the first candidate, 1 the second), and the
marginal score over the certain-read baseline is returned.

The result is a pure function of the variant and the read data, so
variants can be assessed concurrently.
*/
func AssessVariant(variant *bitset.BitSet, qIDs, certainIDs []utils.Symbol, kmerClouds map[utils.Symbol]*clouds.ReadKMerCloud, locations map[utils.Symbol][]scaffold.Interval, minFreq int) int {
	contig := clouds.NewCloudContig(minFreq)
	for _, rid := range certainIDs {
		contig.AddRead(kmerClouds[rid], locations[rid][0].Start)
	}
	baseScore := contig.Score(0)

	n := int(variant.Len())
	if len(qIDs) < n {
		n = len(qIDs)
	}
	for i := 0; i < n; i++ {
		rid := qIDs[i]
		loc := locations[rid][0]
		if variant.Test(uint(i)) {
			loc = locations[rid][1]
		}
		contig.AddRead(kmerClouds[rid], loc.Start)
	}
	return contig.Score(0) - baseScore
}

func variantFromIndex(v, nrepeat int) *bitset.BitSet {
	variant := bitset.New(uint(nrepeat))
	for i := 0; i < nrepeat; i++ {
		if (v>>uint(i))&1 == 1 {
			variant.Set(uint(i))
		}
	}
	return variant
}

type variantResult struct {
	index int
	score int
}

func betterVariant(left, right variantResult) variantResult {
	if left.index < 0 {
		return right
	}
	if right.index < 0 {
		return left
	}
	if right.score > left.score {
		return right
	}
	if left.score > right.score {
		return left
	}
	if right.index < left.index {
		return right
	}
	return left
}

/*
BestVariant enumerates every assignment of the first nrepeat
ambiguous reads to their candidate locations and returns the
highest-scoring one together with its score. Variant index v encodes
bit i of the vector as (v >> i) & 1, so the bit of the first
ambiguous read varies fastest; ties are broken towards the smallest
index, which makes the selection deterministic however the
evaluations are scheduled. When no variant scores above zero, the
all-zero vector is returned.

All 2^nrepeat variants are assessed, in parallel; nrepeat must be
small enough for that to be affordable.
*/
func BestVariant(nrepeat int, qIDs, certainIDs []utils.Symbol, kmerClouds map[utils.Symbol]*clouds.ReadKMerCloud, locations map[utils.Symbol][]scaffold.Interval, minFreq int) (*bitset.BitSet, int) {
	if nrepeat < 0 {
		log.Panicf("invalid number of ambiguous reads to resolve %v", nrepeat)
	}
	nvariants := 1 << uint(nrepeat)
	best := parallel.RangeReduce(0, nvariants, 0, func(low, high int) interface{} {
		best := variantResult{index: -1}
		for v := low; v < high; v++ {
			variant := variantFromIndex(v, nrepeat)
			score := AssessVariant(variant, qIDs, certainIDs, kmerClouds, locations, minFreq)
			best = betterVariant(best, variantResult{index: v, score: score})
		}
		return best
	}, func(left, right interface{}) interface{} {
		return betterVariant(left.(variantResult), right.(variantResult))
	}).(variantResult)

	if best.score <= 0 {
		// no assignment improves on the baseline
		zero := variantFromIndex(0, nrepeat)
		return zero, AssessVariant(zero, qIDs, certainIDs, kmerClouds, locations, minFreq)
	}
	return variantFromIndex(best.index, nrepeat), best.score
}

/*
PatchLocations applies a winning variant to the location table. Every
ambiguous read covered by the variant vector has its two-candidate
location list replaced by a singleton holding the chosen candidate;
ambiguous reads beyond the vector length are left untouched. Reads
whose location list is already a singleton are not patched again, so
patching is idempotent. The returned table contains only reads with
exactly one location; the input table is not modified.
*/
func PatchLocations(variant *bitset.BitSet, qIDs []utils.Symbol, locations map[utils.Symbol][]scaffold.Interval) map[utils.Symbol][]scaffold.Interval {
	patched := make(map[utils.Symbol][]scaffold.Interval, len(locations))
	for rid, locs := range locations {
		patched[rid] = locs
	}

	n := int(variant.Len())
	if len(qIDs) < n {
		n = len(qIDs)
	}
	for i := 0; i < n; i++ {
		rid := qIDs[i]
		locs := locations[rid]
		if len(locs) < 2 {
			continue
		}
		choice := 0
		if variant.Test(uint(i)) {
			choice = 1
		}
		patched[rid] = []scaffold.Interval{locs[choice]}
	}

	resolved := make(map[utils.Symbol][]scaffold.Interval, len(patched))
	for rid, locs := range patched {
		if len(locs) == 1 {
			resolved[rid] = locs
		}
	}
	return resolved
}
