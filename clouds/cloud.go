// centroFlye: resolving read placements in tandemly duplicated regions.
// (c) 2020-2021 by Authors.
// This file is a part of the centroFlye program.
// Released under the BSD license (see LICENSE file).

package clouds

import (
	"log"
	"sort"
	"sync/atomic"

	"github.com/exascience/pargo/parallel"
	psync "github.com/exascience/pargo/sync"

	"github.com/zzsunday/centroFlye/internal"
	"github.com/zzsunday/centroFlye/monomers"
	"github.com/zzsunday/centroFlye/utils"
)

/*
A ReadKMerCloud holds, for one read, an ordered list of k-mer sets,
one set per monomer instance. Only k-mers that occur exactly once in
their instance's nucleotide segment are kept, and a k-mer occurring
in too many instances of the same read is dropped from every set.
ReadKMerClouds are immutable after construction.
*/
type ReadKMerCloud struct {
	ID    utils.Symbol
	Units []map[string]bool
}

/*
FromMonoRead builds the k-mer cloud of one read. Within every monomer
instance, all length-k substrings of the nucleotide segment are
enumerated with a sliding window, and only substrings occurring
exactly once in the segment survive. A surviving k-mer occurring in
maxMult or more instances of the read is then dropped from every
instance's set, since within-read repeats carry no positional signal.
Instances shorter than k contribute no k-mers.
*/
func FromMonoRead(read *monomers.MonoRead, k, maxMult int) *ReadKMerCloud {
	units := make([]map[string]bool, len(read.Instances))
	crossUnit := make(map[string]int)
	for i, minst := range read.Instances {
		segment := minst.Segment
		counts := make(map[string]int)
		for j := 0; j+k <= len(segment); j++ {
			counts[string(segment[j:j+k])]++
		}
		unit := make(map[string]bool)
		for kmer, count := range counts {
			if count == 1 {
				unit[kmer] = true
				crossUnit[kmer]++
			}
		}
		units[i] = unit
	}
	for _, unit := range units {
		for kmer := range unit {
			if crossUnit[kmer] >= maxMult {
				delete(unit, kmer)
			}
		}
	}
	return &ReadKMerCloud{ID: read.ID, Units: units}
}

func sortedCloudIDs(clouds map[utils.Symbol]*ReadKMerCloud) []utils.Symbol {
	ids := make([]utils.Symbol, 0, len(clouds))
	for rid := range clouds {
		ids = append(ids, rid)
	}
	sort.Slice(ids, func(i, j int) bool { return *ids[i] < *ids[j] })
	return ids
}

/*
BuildClouds builds the k-mer clouds for the given reads, in parallel.
An id without a monomer decomposition is fatal.
*/
func BuildClouds(monoreads map[utils.Symbol]*monomers.MonoRead, ids []utils.Symbol, k, maxMult int) map[utils.Symbol]*ReadKMerCloud {
	results := make([]*ReadKMerCloud, len(ids))
	parallel.Range(0, len(ids), 0, func(low, high int) {
		for i := low; i < high; i++ {
			read, found := monoreads[ids[i]]
			if !found {
				log.Panicf("read %v has no monomer decomposition", *ids[i])
			}
			results[i] = FromMonoRead(read, k, maxMult)
		}
	})
	clouds := make(map[utils.Symbol]*ReadKMerCloud, len(ids))
	for i, rid := range ids {
		clouds[rid] = results[i]
	}
	return clouds
}

type kmerKey string

func (k kmerKey) Hash() uint64 {
	return internal.StringHash(string(k))
}

/*
FilterClouds removes from every read's cloud the k-mers whose
population-wide multiplicity is below minMult. The multiplicity of a
k-mer is the number of instance sets across the whole batch that
contain it: a k-mer seen in too few reads cannot serve as shared
positional evidence. The input clouds are not modified; a filtered
copy of the batch is returned.
*/
func FilterClouds(clouds map[utils.Symbol]*ReadKMerCloud, minMult int) map[utils.Symbol]*ReadKMerCloud {
	ids := sortedCloudIDs(clouds)

	counts := psync.NewMap(0)
	parallel.Range(0, len(ids), 0, func(low, high int) {
		for i := low; i < high; i++ {
			for _, unit := range clouds[ids[i]].Units {
				for kmer := range unit {
					entry, _ := counts.LoadOrStore(kmerKey(kmer), new(int64))
					atomic.AddInt64(entry.(*int64), 1)
				}
			}
		}
	})

	results := make([]*ReadKMerCloud, len(ids))
	parallel.Range(0, len(ids), 0, func(low, high int) {
		for i := low; i < high; i++ {
			cloud := clouds[ids[i]]
			units := make([]map[string]bool, len(cloud.Units))
			for u, unit := range cloud.Units {
				kept := make(map[string]bool)
				for kmer := range unit {
					entry, _ := counts.Load(kmerKey(kmer))
					if *entry.(*int64) >= int64(minMult) {
						kept[kmer] = true
					}
				}
				units[u] = kept
			}
			results[i] = &ReadKMerCloud{ID: cloud.ID, Units: units}
		}
	})

	filtered := make(map[utils.Symbol]*ReadKMerCloud, len(ids))
	for i, rid := range ids {
		filtered[rid] = results[i]
	}
	return filtered
}
