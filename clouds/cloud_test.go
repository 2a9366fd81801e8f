// centroFlye: resolving read placements in tandemly duplicated regions.
// (c) 2020-2021 by Authors.
// This file is a part of the centroFlye program.
// Released under the BSD license (see LICENSE file).

package clouds

import (
	"testing"

	"github.com/zzsunday/centroFlye/monomers"
	"github.com/zzsunday/centroFlye/utils"
)

func monoread(id string, segments ...string) *monomers.MonoRead {
	instances := make([]monomers.MonoInstance, len(segments))
	pos := 0
	for i, segment := range segments {
		instances[i] = monomers.MonoInstance{
			MonoIndex: i,
			Start:     pos,
			End:       pos + len(segment),
			Identity:  1,
			Reliable:  true,
			Segment:   []byte(segment),
		}
		pos += len(segment)
	}
	return &monomers.MonoRead{ID: utils.Intern(id), Instances: instances}
}

func unitKmers(unit map[string]bool) []string {
	kmers := make([]string, 0, len(unit))
	for kmer := range unit {
		kmers = append(kmers, kmer)
	}
	return kmers
}

func countOccurrences(segment, kmer string) (count int) {
	for i := 0; i+len(kmer) <= len(segment); i++ {
		if segment[i:i+len(kmer)] == kmer {
			count++
		}
	}
	return count
}

func TestFromMonoReadUnitUniqueness(t *testing.T) {
	// ACG occurs twice in the segment and must not survive.
	cloud := FromMonoRead(monoread("r1", "ACGTACG"), 3, 2)
	if len(cloud.Units) != 1 {
		t.Fatalf("got %v units, want 1", len(cloud.Units))
	}
	unit := cloud.Units[0]
	if unit["ACG"] {
		t.Error("repeated k-mer ACG survived the unit filter")
	}
	for _, kmer := range []string{"CGT", "GTA", "TAC"} {
		if !unit[kmer] {
			t.Errorf("unique k-mer %v missing from the unit", kmer)
		}
	}
}

func TestFromMonoReadCrossUnitCeiling(t *testing.T) {
	cloud := FromMonoRead(monoread("r1", "AAACCC", "TTAAAC"), 3, 2)
	for u, unit := range cloud.Units {
		for _, kmer := range []string{"AAA", "AAC"} {
			if unit[kmer] {
				t.Errorf("cross-unit k-mer %v survived in unit %v", kmer, u)
			}
		}
	}
	if !cloud.Units[0]["CCC"] {
		t.Error("k-mer CCC missing from unit 0")
	}
	if !cloud.Units[1]["TTA"] {
		t.Error("k-mer TTA missing from unit 1")
	}
}

func TestFromMonoReadShortUnit(t *testing.T) {
	cloud := FromMonoRead(monoread("r1", "AC", "ACGTT"), 3, 2)
	if len(cloud.Units[0]) != 0 {
		t.Error("unit shorter than k produced k-mers")
	}
	if len(cloud.Units[1]) == 0 {
		t.Error("unit longer than k produced no k-mers")
	}
}

func TestCloudPurity(t *testing.T) {
	segments := []string{
		"ACGTTGCAACGGTTAACCGGAT",
		"TTGACCAGTTGACGGATTACAG",
		"GGCATTACGGCCAATTGGCCAA",
	}
	read := monoread("r1", segments...)
	cloud := FromMonoRead(read, 5, 2)
	for u, unit := range cloud.Units {
		for _, kmer := range unitKmers(unit) {
			if n := countOccurrences(segments[u], kmer); n != 1 {
				t.Errorf("k-mer %v occurs %v times in unit %v", kmer, n, u)
			}
		}
	}
}

func TestBuildClouds(t *testing.T) {
	monoreads := map[utils.Symbol]*monomers.MonoRead{}
	var ids []utils.Symbol
	for _, id := range []string{"r1", "r2", "r3"} {
		read := monoread(id, "ACGTTGCA", "GGTTAACC")
		monoreads[read.ID] = read
		ids = append(ids, read.ID)
	}
	kmerClouds := BuildClouds(monoreads, ids, 4, 2)
	if len(kmerClouds) != 3 {
		t.Fatalf("got %v clouds, want 3", len(kmerClouds))
	}
	for _, rid := range ids {
		cloud := kmerClouds[rid]
		if cloud == nil || cloud.ID != rid {
			t.Errorf("missing or mislabeled cloud for read %v", *rid)
		}
	}
}

func cloudSize(cloud *ReadKMerCloud) (size int) {
	for _, unit := range cloud.Units {
		size += len(unit)
	}
	return size
}

func TestFilterClouds(t *testing.T) {
	// The k-mer ACGT appears in three reads, GGCC in two, TTAA in one.
	kmerClouds := map[utils.Symbol]*ReadKMerCloud{}
	for id, kmers := range map[string][]string{
		"r1": {"ACGT", "GGCC"},
		"r2": {"ACGT", "GGCC"},
		"r3": {"ACGT", "TTAA"},
	} {
		unit := make(map[string]bool)
		for _, kmer := range kmers {
			unit[kmer] = true
		}
		rid := utils.Intern(id)
		kmerClouds[rid] = &ReadKMerCloud{ID: rid, Units: []map[string]bool{unit}}
	}

	filtered := FilterClouds(kmerClouds, 3)
	for _, rid := range []string{"r1", "r2", "r3"} {
		unit := filtered[utils.Intern(rid)].Units[0]
		if !unit["ACGT"] {
			t.Errorf("population-wide frequent k-mer removed from read %v", rid)
		}
		if unit["GGCC"] || unit["TTAA"] {
			t.Errorf("rare k-mer survived the cross-read filter in read %v", rid)
		}
	}

	// input clouds must not be modified
	if cloudSize(kmerClouds[utils.Intern("r1")]) != 2 {
		t.Error("FilterClouds modified its input")
	}
}

func TestFilterCloudsMonotone(t *testing.T) {
	kmerClouds := map[utils.Symbol]*ReadKMerCloud{}
	for id, kmers := range map[string][]string{
		"r1": {"ACGT", "GGCC", "TTAA"},
		"r2": {"ACGT", "GGCC"},
		"r3": {"ACGT"},
	} {
		unit := make(map[string]bool)
		for _, kmer := range kmers {
			unit[kmer] = true
		}
		rid := utils.Intern(id)
		kmerClouds[rid] = &ReadKMerCloud{ID: rid, Units: []map[string]bool{unit}}
	}

	// raising the threshold never grows any cloud
	previous := FilterClouds(kmerClouds, 1)
	for minMult := 2; minMult <= 4; minMult++ {
		filtered := FilterClouds(kmerClouds, minMult)
		for rid := range kmerClouds {
			if cloudSize(filtered[rid]) > cloudSize(previous[rid]) {
				t.Errorf("cloud of read %v grew when raising min-mult to %v", *rid, minMult)
			}
		}
		previous = filtered
	}
}
