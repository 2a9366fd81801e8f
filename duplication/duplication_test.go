// centroFlye: resolving read placements in tandemly duplicated regions.
// (c) 2020-2021 by Authors.
// This file is a part of the centroFlye program.
// Released under the BSD license (see LICENSE file).

package duplication

import (
	"reflect"
	"testing"

	"github.com/zzsunday/centroFlye/clouds"
	"github.com/zzsunday/centroFlye/monomers"
	"github.com/zzsunday/centroFlye/scaffold"
	"github.com/zzsunday/centroFlye/utils"
)

func testRead(id string, nunits int) *monomers.MonoRead {
	return &monomers.MonoRead{
		ID:        utils.Intern(id),
		Instances: make([]monomers.MonoInstance, nunits),
	}
}

func testCloud(id string, kmers ...string) *clouds.ReadKMerCloud {
	unit := make(map[string]bool)
	for _, kmer := range kmers {
		unit[kmer] = true
	}
	return &clouds.ReadKMerCloud{ID: utils.Intern(id), Units: []map[string]bool{unit}}
}

// Two certain reads anchor two positions of the duplication via
// k-mers K1 and K2; each ambiguous read shares the anchor k-mer of
// its first candidate location, so candidate 0 is the right choice
// for both.
func duplicationFixture() (qIDs, certainIDs []utils.Symbol, kmerClouds map[utils.Symbol]*clouds.ReadKMerCloud, locations map[utils.Symbol][]scaffold.Interval) {
	c1, c2 := utils.Intern("c1"), utils.Intern("c2")
	q1, q2 := utils.Intern("q1"), utils.Intern("q2")
	kmerClouds = map[utils.Symbol]*clouds.ReadKMerCloud{
		c1: testCloud("c1", "AACCGGTTACGTACGTACG"),
		c2: testCloud("c2", "TTGGCCAATGCATGCATGC"),
		q1: testCloud("q1", "AACCGGTTACGTACGTACG"),
		q2: testCloud("q2", "TTGGCCAATGCATGCATGC"),
	}
	locations = map[utils.Symbol][]scaffold.Interval{
		c1: {{Start: 100, End: 110}},
		c2: {{Start: 400, End: 410}},
		q1: {{Start: 100, End: 111}, {Start: 200, End: 211}},
		q2: {{Start: 400, End: 412}, {Start: 300, End: 312}},
	}
	return []utils.Symbol{q1, q2}, []utils.Symbol{c1, c2}, kmerClouds, locations
}

func TestAssessVariant(t *testing.T) {
	qIDs, certainIDs, kmerClouds, locations := duplicationFixture()
	scores := make([]int, 4)
	for v := 0; v < 4; v++ {
		variant := variantFromIndex(v, 2)
		scores[v] = AssessVariant(variant, qIDs, certainIDs, kmerClouds, locations, 2)
	}
	if want := []int{2, 1, 1, 0}; !reflect.DeepEqual(scores, want) {
		t.Errorf("got variant scores %v, want %v", scores, want)
	}
}

func TestAssessVariantDeterminism(t *testing.T) {
	qIDs, certainIDs, kmerClouds, locations := duplicationFixture()
	variant := variantFromIndex(2, 2)
	first := AssessVariant(variant, qIDs, certainIDs, kmerClouds, locations, 2)
	for i := 0; i < 10; i++ {
		if score := AssessVariant(variant, qIDs, certainIDs, kmerClouds, locations, 2); score != first {
			t.Fatalf("got score %v on re-evaluation, want %v", score, first)
		}
	}
}

func TestBestVariant(t *testing.T) {
	qIDs, certainIDs, kmerClouds, locations := duplicationFixture()
	variant, score := BestVariant(2, qIDs, certainIDs, kmerClouds, locations, 2)
	if score != 2 {
		t.Errorf("got best score %v, want 2", score)
	}
	if variant.Any() {
		t.Errorf("got best variant %v, want the all-zero vector", variant)
	}
}

func TestBestVariantCompleteness(t *testing.T) {
	qIDs, certainIDs, kmerClouds, locations := duplicationFixture()
	best, bestScore := BestVariant(2, qIDs, certainIDs, kmerClouds, locations, 2)
	for v := 0; v < 4; v++ {
		score := AssessVariant(variantFromIndex(v, 2), qIDs, certainIDs, kmerClouds, locations, 2)
		if score > bestScore {
			t.Errorf("variant %v scores %v, better than the selected %v with %v", v, score, best, bestScore)
		}
	}
}

func TestBestVariantTieBreak(t *testing.T) {
	// Both candidate locations of q1 coincide, so both assignments
	// score the same; the lexicographically first vector must win.
	c1, q1 := utils.Intern("c1"), utils.Intern("q1")
	kmerClouds := map[utils.Symbol]*clouds.ReadKMerCloud{
		c1: testCloud("c1", "AACCGGTTACGTACGTACG"),
		q1: testCloud("q1", "AACCGGTTACGTACGTACG"),
	}
	locations := map[utils.Symbol][]scaffold.Interval{
		c1: {{Start: 100, End: 110}},
		q1: {{Start: 100, End: 111}, {Start: 100, End: 113}},
	}
	variant, score := BestVariant(1, []utils.Symbol{q1}, []utils.Symbol{c1}, kmerClouds, locations, 2)
	if score != 1 {
		t.Errorf("got best score %v, want 1", score)
	}
	if variant.Any() {
		t.Errorf("got best variant %v, want the all-zero vector on a tie", variant)
	}
}

func TestBestVariantNoImprovement(t *testing.T) {
	// Empty clouds: every variant scores 0, so the baseline all-zero
	// vector must be selected.
	q1 := utils.Intern("q1")
	kmerClouds := map[utils.Symbol]*clouds.ReadKMerCloud{
		q1: testCloud("q1"),
	}
	locations := map[utils.Symbol][]scaffold.Interval{
		q1: {{Start: 100, End: 111}, {Start: 200, End: 211}},
	}
	variant, score := BestVariant(1, []utils.Symbol{q1}, nil, kmerClouds, locations, 2)
	if score != 0 {
		t.Errorf("got best score %v, want 0", score)
	}
	if variant.Any() {
		t.Errorf("got best variant %v, want the all-zero vector", variant)
	}
}

func TestBestVariantEmpty(t *testing.T) {
	qIDs, certainIDs, kmerClouds, locations := duplicationFixture()
	variant, score := BestVariant(0, qIDs, certainIDs, kmerClouds, locations, 2)
	if variant.Len() != 0 {
		t.Errorf("got variant of length %v, want 0", variant.Len())
	}
	if score != 0 {
		t.Errorf("got score %v for the empty search, want 0", score)
	}
}

func TestPatchLocations(t *testing.T) {
	qIDs, _, _, locations := duplicationFixture()
	variant := variantFromIndex(1, 1) // patch only q1, to its second candidate

	resolved := PatchLocations(variant, qIDs, locations)

	q1, q2 := qIDs[0], qIDs[1]
	if got := resolved[q1]; len(got) != 1 || got[0].Start != 200 {
		t.Errorf("got %v for the patched read, want its second candidate", got)
	}
	if _, found := resolved[q2]; found {
		t.Error("unpatched ambiguous read survived the singleton filter")
	}
	if got := resolved[utils.Intern("c1")]; len(got) != 1 || got[0].Start != 100 {
		t.Errorf("got %v for a certain read, want it untouched", got)
	}
	if len(locations[q1]) != 2 {
		t.Error("PatchLocations modified its input table")
	}
}

func TestPatchLocationsIdempotent(t *testing.T) {
	qIDs, _, _, locations := duplicationFixture()
	variant := variantFromIndex(2, 2)

	once := PatchLocations(variant, qIDs, locations)
	twice := PatchLocations(variant, qIDs, once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("got %v after patching twice, want %v", twice, once)
	}
}

func TestPatchLocationsLongVariant(t *testing.T) {
	qIDs, _, _, locations := duplicationFixture()
	// a variant longer than the ambiguous read list patches only the prefix
	variant := variantFromIndex(0, 5)
	resolved := PatchLocations(variant, qIDs, locations)
	for _, rid := range qIDs {
		if got := resolved[rid]; len(got) != 1 || got[0] != locations[rid][0] {
			t.Errorf("got %v for read %v, want its first candidate", got, *rid)
		}
	}
}

func TestSortByLength(t *testing.T) {
	monoreads := map[utils.Symbol]*monomers.MonoRead{}
	for id, n := range map[string]int{"a": 3, "b": 7, "c": 7, "d": 1} {
		read := testRead(id, n)
		monoreads[read.ID] = read
	}
	ids := []utils.Symbol{
		utils.Intern("a"), utils.Intern("b"), utils.Intern("c"), utils.Intern("d"),
	}
	SortByLength(ids, monoreads)
	got := []string{*ids[0], *ids[1], *ids[2], *ids[3]}
	if want := []string{"b", "c", "a", "d"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got order %v, want %v", got, want)
	}

	shuffled := []utils.Symbol{
		utils.Intern("d"), utils.Intern("c"), utils.Intern("a"), utils.Intern("b"),
	}
	ParallelSortByLength(shuffled, monoreads)
	if !reflect.DeepEqual(shuffled, ids) {
		t.Error("ParallelSortByLength disagrees with SortByLength")
	}
}

func TestCertainAndAmbiguousReads(t *testing.T) {
	monoreads := map[utils.Symbol]*monomers.MonoRead{}
	for id, n := range map[string]int{"c1": 10, "c2": 12, "far": 9, "q1": 11, "q2": 13, "outside": 8} {
		read := testRead(id, n)
		monoreads[read.ID] = read
	}
	locations := map[utils.Symbol][]scaffold.Interval{
		utils.Intern("c1"):      {{Start: 100, End: 120}},
		utils.Intern("c2"):      {{Start: 140, End: 160}},
		utils.Intern("far"):     {{Start: 900, End: 920}},
		utils.Intern("q1"):      {{Start: 100, End: 210}, {Start: 300, End: 410}},
		utils.Intern("q2"):      {{Start: 90, End: 205}, {Start: 310, End: 425}},
		utils.Intern("outside"): {{Start: 10, End: 90}, {Start: 500, End: 580}},
	}

	certain := CertainReads(locations, monoreads, 90, 200)
	got := make([]string, len(certain))
	for i, rid := range certain {
		got[i] = *rid
	}
	if want := []string{"c2", "c1"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got certain reads %v, want %v", got, want)
	}

	ambiguous := AmbiguousReads(locations, monoreads, 200, 320)
	got = make([]string, len(ambiguous))
	for i, rid := range ambiguous {
		got[i] = *rid
	}
	if want := []string{"q2", "q1"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got ambiguous reads %v, want %v", got, want)
	}
}
