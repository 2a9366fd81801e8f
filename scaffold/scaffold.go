// centroFlye: resolving read placements in tandemly duplicated regions.
// (c) 2020-2021 by Authors.
// This file is a part of the centroFlye program.
// Released under the BSD license (see LICENSE file).

package scaffold

import (
	"bufio"
	"log"
	"sort"
	"strconv"
	"strings"

	"github.com/exascience/pargo/parallel"

	"github.com/zzsunday/centroFlye/internal"
	"github.com/zzsunday/centroFlye/monomers"
	"github.com/zzsunday/centroFlye/utils"
)

// Interval is a half-open [Start, End) candidate location of a read
// on the monoscaffold, in monomer units.
type Interval struct {
	Start, End int
}

/*
ParseMonoscaffold parses a monoscaffold file: a single line of
space-separated symbols over the monomer alphabet. Integer tokens are
monomer indices; any other token is a gap.
*/
func ParseMonoscaffold(filename string) []int {
	f := internal.FileOpen(filename)
	defer internal.Close(f)

	reader := bufio.NewReader(f)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		log.Panicf("empty monoscaffold file %v", filename)
	}

	var scaffold []int
	for _, token := range strings.Fields(line) {
		if symbol, err := strconv.Atoi(token); err == nil {
			scaffold = append(scaffold, symbol)
		} else {
			scaffold = append(scaffold, monomers.Gap)
		}
	}
	if len(scaffold) == 0 {
		log.Panicf("empty monoscaffold file %v", filename)
	}
	return scaffold
}

func mapRead(monostring, scaffold []int, maxLoc int, minIdentity float64) []Interval {
	n := len(monostring)
	if n == 0 || n > len(scaffold) {
		return nil
	}
	var locations []Interval
	for start := 0; start+n <= len(scaffold); start++ {
		matches, comparable := 0, 0
		for j, symbol := range monostring {
			if symbol == monomers.Gap || scaffold[start+j] == monomers.Gap {
				continue
			}
			comparable++
			if symbol == scaffold[start+j] {
				matches++
			}
		}
		if comparable == 0 {
			continue
		}
		if float64(matches) >= minIdentity*float64(comparable) {
			locations = append(locations, Interval{Start: start, End: start + n})
			if len(locations) > maxLoc {
				// too ambiguous to be of any use
				return locations
			}
		}
	}
	return locations
}

/*
MapReads maps every monoread onto the scaffold by sliding its
monostring along the scaffold. A window is a candidate location when
the fraction of matching symbols is at least minIdentity; gaps on
either side are excluded from the comparison. The result contains
only reads with between 1 and maxLoc candidate locations; reads with
no or too many candidates are dropped.

Reads are mapped independently of each other, in parallel.
*/
func MapReads(monoreads map[utils.Symbol]*monomers.MonoRead, db *monomers.MonomerDB, scaffold []int, maxLoc int, minIdentity float64) map[utils.Symbol][]Interval {
	ids := make([]utils.Symbol, 0, len(monoreads))
	for rid := range monoreads {
		ids = append(ids, rid)
	}
	sort.Slice(ids, func(i, j int) bool { return *ids[i] < *ids[j] })

	results := make([][]Interval, len(ids))
	parallel.Range(0, len(ids), 0, func(low, high int) {
		for i := low; i < high; i++ {
			monostring := monoreads[ids[i]].Monostring(db)
			results[i] = mapRead(monostring, scaffold, maxLoc, minIdentity)
		}
	})

	locations := make(map[utils.Symbol][]Interval)
	for i, rid := range ids {
		if nloc := len(results[i]); nloc >= 1 && nloc <= maxLoc {
			locations[rid] = results[i]
		}
	}
	return locations
}
