// centroFlye: resolving read placements in tandemly duplicated regions.
// (c) 2020-2021 by Authors.
// This file is a part of the centroFlye program.
// Released under the BSD license (see LICENSE file).

package cmd

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/zzsunday/centroFlye/clouds"
	"github.com/zzsunday/centroFlye/duplication"
	"github.com/zzsunday/centroFlye/internal"
	"github.com/zzsunday/centroFlye/monomers"
	"github.com/zzsunday/centroFlye/scaffold"
	"github.com/zzsunday/centroFlye/utils"
)

// ResolveHelp is the help string for this command.
const ResolveHelp = "Resolve parameters:\n" +
	"centroflye resolve\n" +
	"--sd-reads file\n" +
	"--monomers fasta-file\n" +
	"--reads fasta-file\n" +
	"--monoscaffold file\n" +
	"--outdir /path/to/output/\n" +
	"[--left-border nr]\n" +
	"[--right-border nr]\n" +
	"[--left-certain-border nr]\n" +
	"[--right-certain-border nr]\n" +
	"[--k nr]\n" +
	"[--max-unit-mult nr]\n" +
	"[--min-mult nr]\n" +
	"[--nrepeat nr]\n" +
	"[--cloud-contig-minfreq nr]\n" +
	"[--max-locations nr]\n" +
	"[--min-map-identity nr]\n" +
	"[--nr-of-threads nr]\n"

// Resolve implements the centroflye resolve command.
func Resolve() error {
	var (
		sdReads, monomersFn, readsFn, monoscaffoldFn, outdir string

		leftBorder, rightBorder               int
		leftCertainBorder, rightCertainBorder int
		k, maxUnitMult, minMult, nrepeat      int
		cloudContigMinFreq, maxLocations      int
		nrOfThreads                           int
		minMapIdentity                        float64
	)

	var flags flag.FlagSet

	flags.StringVar(&sdReads, "sd-reads", "", "monomer decomposition report for the reads")
	flags.StringVar(&monomersFn, "monomers", "", "monomer fasta file")
	flags.StringVar(&readsFn, "reads", "", "reads fasta file")
	flags.StringVar(&monoscaffoldFn, "monoscaffold", "", "monoscaffold file")
	flags.StringVar(&outdir, "outdir", "", "output directory")
	flags.IntVar(&leftBorder, "left-border", 11924, "left border of the ambiguity window")
	flags.IntVar(&rightBorder, "right-border", 14393, "right border of the ambiguity window")
	flags.IntVar(&leftCertainBorder, "left-certain-border", 11000, "left border of the certain window")
	flags.IntVar(&rightCertainBorder, "right-certain-border", 13000, "right border of the certain window")
	flags.IntVar(&k, "k", 19, "k-mer length")
	flags.IntVar(&maxUnitMult, "max-unit-mult", 2, "within-read multiplicity ceiling for cloud k-mers")
	flags.IntVar(&minMult, "min-mult", 3, "minimum cross-read multiplicity for cloud k-mers")
	flags.IntVar(&nrepeat, "nrepeat", 12, "number of ambiguous reads to resolve")
	flags.IntVar(&cloudContigMinFreq, "cloud-contig-minfreq", 4, "minimum k-mer frequency for scoring")
	flags.IntVar(&maxLocations, "max-locations", 2, "maximum number of candidate locations per read")
	flags.Float64Var(&minMapIdentity, "min-map-identity", 0.95, "minimum identity for mapping reads to the monoscaffold")
	flags.IntVar(&nrOfThreads, "nr-of-threads", 0, "number of worker threads")

	parseFlags(flags, 2, ResolveHelp)

	// sanity checks

	var sanityChecksFailed bool

	if !checkExist("--sd-reads", sdReads) {
		sanityChecksFailed = true
	}
	if !checkExist("--monomers", monomersFn) {
		sanityChecksFailed = true
	}
	if !checkExist("--reads", readsFn) {
		sanityChecksFailed = true
	}
	if !checkExist("--monoscaffold", monoscaffoldFn) {
		sanityChecksFailed = true
	}
	if outdir == "" {
		log.Println("Error: Missing output directory.")
		sanityChecksFailed = true
	}
	if k <= 0 {
		log.Println("Error: Invalid k-mer length: ", k)
		sanityChecksFailed = true
	}
	if nrepeat < 0 {
		log.Println("Error: Invalid nrepeat: ", nrepeat)
		sanityChecksFailed = true
	}
	if maxLocations < 2 {
		log.Println("Error: Invalid max-locations: ", maxLocations)
		sanityChecksFailed = true
	}
	if nrOfThreads < 0 {
		log.Println("Error: Invalid nr-of-threads: ", nrOfThreads)
		sanityChecksFailed = true
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, ResolveHelp)
		os.Exit(1)
	}

	// building output command line

	var command bytes.Buffer
	fmt.Fprint(&command, os.Args[0], " resolve")
	fmt.Fprint(&command, " --sd-reads ", sdReads)
	fmt.Fprint(&command, " --monomers ", monomersFn)
	fmt.Fprint(&command, " --reads ", readsFn)
	fmt.Fprint(&command, " --monoscaffold ", monoscaffoldFn)
	fmt.Fprint(&command, " --outdir ", outdir)
	fmt.Fprint(&command, " --left-border ", leftBorder)
	fmt.Fprint(&command, " --right-border ", rightBorder)
	fmt.Fprint(&command, " --left-certain-border ", leftCertainBorder)
	fmt.Fprint(&command, " --right-certain-border ", rightCertainBorder)
	fmt.Fprint(&command, " --k ", k)
	fmt.Fprint(&command, " --max-unit-mult ", maxUnitMult)
	fmt.Fprint(&command, " --min-mult ", minMult)
	fmt.Fprint(&command, " --nrepeat ", nrepeat)
	fmt.Fprint(&command, " --cloud-contig-minfreq ", cloudContigMinFreq)
	fmt.Fprint(&command, " --max-locations ", maxLocations)
	fmt.Fprint(&command, " --min-map-identity ", minMapIdentity)
	if nrOfThreads > 0 {
		runtime.GOMAXPROCS(nrOfThreads)
		fmt.Fprint(&command, " --nr-of-threads ", nrOfThreads)
	}

	// executing command

	fullOutdir, err := internal.FullPathname(outdir)
	if err != nil {
		return err
	}
	internal.MkdirAll(fullOutdir, 0700)
	setLogOutput(fullOutdir)

	log.Println("Executing command:\n", command.String())

	log.Println("Reading monomer database")
	db := monomers.ParseMonomers(monomersFn)
	log.Println("Reading reads")
	reads := monomers.ParseFasta(readsFn)
	log.Println("Reading monomer decomposition report")
	monoreads := monomers.ParseSDReport(sdReads, db, reads)
	monomers.CheckValidity(monoreads, db)
	log.Println("Reading monoscaffold")
	monoscaffold := scaffold.ParseMonoscaffold(monoscaffoldFn)

	log.Println("Mapping reads to the monoscaffold")
	locations := scaffold.MapReads(monoreads, db, monoscaffold, maxLocations, minMapIdentity)
	log.Printf("Mapped %v reads\n", len(locations))

	qIDs := duplication.AmbiguousReads(locations, monoreads, leftBorder, rightBorder)
	log.Println("Ambiguous reads around the duplication:")
	for _, rid := range qIDs {
		log.Printf("%v %v\n", *rid, locations[rid])
	}
	certainIDs := duplication.CertainReads(locations, monoreads, leftCertainBorder, rightCertainBorder)
	log.Println("Certain reads:")
	for _, rid := range certainIDs {
		log.Printf("%v %v\n", *rid, locations[rid])
	}

	log.Println("Building k-mer clouds")
	ids := append(append([]utils.Symbol{}, certainIDs...), qIDs...)
	kmerClouds := clouds.BuildClouds(monoreads, ids, k, maxUnitMult)
	log.Println("Filtering k-mer clouds")
	kmerClouds = clouds.FilterClouds(kmerClouds, minMult)

	log.Println("Searching for the best placement assignment")
	variant, score := duplication.BestVariant(nrepeat, qIDs, certainIDs, kmerClouds, locations, cloudContigMinFreq)
	log.Printf("Best variant %v with score %v\n", variant.String(), score)
	npatch := int(variant.Len())
	if len(qIDs) < npatch {
		npatch = len(qIDs)
	}
	for i := 0; i < npatch; i++ {
		choice := 0
		if variant.Test(uint(i)) {
			choice = 1
		}
		log.Printf("%v %v\n", *qIDs[i], choice)
	}

	log.Println("Patching locations")
	resolved := duplication.PatchLocations(variant, qIDs, locations)

	output := filepath.Join(fullOutdir, "resolved_locations.tsv")
	writeLocations(output, resolved)
	log.Println("Wrote resolved locations to", output)

	return nil
}

func writeLocations(filename string, locations map[utils.Symbol][]scaffold.Interval) {
	file := internal.FileCreate(filename)
	defer internal.Close(file)

	ids := make([]utils.Symbol, 0, len(locations))
	for rid := range locations {
		ids = append(ids, rid)
	}
	sort.Slice(ids, func(i, j int) bool {
		li, lj := locations[ids[i]][0], locations[ids[j]][0]
		if li.Start != lj.Start {
			return li.Start < lj.Start
		}
		return *ids[i] < *ids[j]
	})

	for _, rid := range ids {
		loc := locations[rid][0]
		fmt.Fprintf(file, "%v\t%v\t%v\n", *rid, loc.Start, loc.End)
	}
}
