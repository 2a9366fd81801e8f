// centroFlye: resolving read placements in tandemly duplicated regions.
// (c) 2020-2021 by Authors.
// This file is a part of the centroFlye program.
// Released under the BSD license (see LICENSE file).

package monomers

import (
	"bufio"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/exascience/pargo/pipeline"

	"github.com/zzsunday/centroFlye/internal"
	"github.com/zzsunday/centroFlye/utils"
)

func contigFromHeader(b []byte) string {
	i := 1
	for ; i < len(b); i++ {
		if c := b[i]; c >= '!' && c <= '~' {
			break
		}
	}
	j := i + 1
	for ; j < len(b); j++ {
		if c := b[j]; c < '!' || c > '~' {
			break
		}
	}
	return string(b[i:j])
}

// ParseFasta sequentially parses a FASTA file into a map from
// sequence names to sequences.
func ParseFasta(filename string) (fasta map[string][]byte) {
	f := internal.FileOpen(filename)
	defer internal.Close(f)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)

	fasta = make(map[string][]byte)
	var contig string
	var seq []byte

	for scanner.Scan() {
		b := scanner.Bytes()
		if len(b) == 0 {
			continue
		}
		if b[0] == '>' {
			if contig != "" {
				fasta[contig] = seq
			}
			contig = contigFromHeader(b)
			seq = nil
		} else {
			if contig == "" {
				log.Panicf("invalid fasta file %v - missing first header", filename)
			}
			seq = append(seq, b...)
		}
	}
	if contig == "" {
		log.Panicf("empty fasta file %v", filename)
	}
	fasta[contig] = seq

	if err := scanner.Err(); err != nil {
		log.Panic(err)
	}

	return fasta
}

/*
ParseMonomers parses a monomer FASTA file into a MonomerDB. Monomer
indices are assigned in lexicographic order of the monomer names, so
the alphabet is independent of file order.
*/
func ParseMonomers(filename string) *MonomerDB {
	fasta := ParseFasta(filename)
	names := make([]string, 0, len(fasta))
	for name := range fasta {
		names = append(names, name)
	}
	sort.Strings(names)
	ms := make([]Monomer, 0, len(names))
	for i, name := range names {
		ms = append(ms, Monomer{Name: utils.Intern(name), Index: i, Seq: fasta[name]})
	}
	return NewMonomerDB(ms)
}

type sdRecord struct {
	rid       utils.Symbol
	monoIndex int
	reversed  bool
	start     int
	end       int
	identity  float64
	reliable  bool
}

func parseSDLine(p *pipeline.Pipeline, db *MonomerDB, str string) (rec sdRecord, ok bool) {
	fields := strings.Split(str, "\t")
	if len(fields) != 6 {
		p.SetErr(fmt.Errorf("invalid monomer decomposition line %v", str))
		return rec, false
	}
	rec.rid = utils.Intern(fields[0])
	name := fields[1]
	if strings.HasSuffix(name, "'") {
		rec.reversed = true
		name = name[:len(name)-1]
	}
	index, found := db.Index(utils.Intern(name))
	if !found {
		p.SetErr(fmt.Errorf("unknown monomer %v in decomposition line %v", name, str))
		return rec, false
	}
	rec.monoIndex = index
	rec.start = int(internal.ParseInt(fields[2], 10, 64))
	rec.end = int(internal.ParseInt(fields[3], 10, 64))
	rec.identity = internal.ParseFloat(fields[4], 64)
	switch fields[5] {
	case "+":
		rec.reliable = true
	case "?":
		rec.reliable = false
	default:
		p.SetErr(fmt.Errorf("invalid reliability flag %v in decomposition line %v", fields[5], str))
		return rec, false
	}
	return rec, true
}

/*
ParseSDReport parses a monomer decomposition report. The report is
tab-separated with one monomer call per line:

	read-id	monomer	start	end	identity	reliability

A trailing ' on the monomer name marks a reverse-strand call;
reliability is + or ?. Nucleotide segments are sliced from the given
reads; reads present in the report but absent from the read set are
skipped. A read whose calls are predominantly reverse-strand is
normalized to the forward orientation of the scaffold by
reverse-complementing its sequence and mirroring its calls.

Unknown monomers and malformed lines are fatal.
*/
func ParseSDReport(filename string, db *MonomerDB, reads map[string][]byte) map[utils.Symbol]*MonoRead {
	f := internal.FileOpen(filename)
	defer internal.Close(f)
	input := bufio.NewReader(f)

	var p pipeline.Pipeline
	p.Source(pipeline.NewScanner(input))
	p.Add(pipeline.LimitedPar(0, pipeline.Receive(func(_ int, data interface{}) interface{} {
		strs := data.([]string)
		records := make([]sdRecord, 0, len(strs))
		for _, str := range strs {
			if len(str) == 0 || str[0] == '#' {
				continue
			}
			if rec, ok := parseSDLine(&p, db, str); ok {
				records = append(records, rec)
			}
		}
		return records
	})))
	recordsByRead := make(map[utils.Symbol][]sdRecord)
	p.Add(pipeline.Ord(pipeline.Receive(func(_ int, data interface{}) interface{} {
		for _, rec := range data.([]sdRecord) {
			recordsByRead[rec.rid] = append(recordsByRead[rec.rid], rec)
		}
		return data
	})))
	internal.RunPipeline(&p)

	monoreads := make(map[utils.Symbol]*MonoRead)
	var skipped []string
	for rid, records := range recordsByRead {
		seq, found := reads[*rid]
		if !found {
			skipped = append(skipped, *rid)
			continue
		}
		monoreads[rid] = buildMonoRead(rid, records, seq)
	}
	if len(skipped) > 0 {
		sort.Strings(skipped)
		log.Printf("Skipping %v reads present in the decomposition report but missing from the read set: %v.\n", len(skipped), skipped)
	}
	return monoreads
}

func buildMonoRead(rid utils.Symbol, records []sdRecord, seq []byte) *MonoRead {
	var reliable, reliableReversed int
	for _, rec := range records {
		if rec.reliable {
			reliable++
			if rec.reversed {
				reliableReversed++
			}
		}
	}
	reversed := 2*reliableReversed > reliable

	if reversed {
		seq = ReverseComplement(seq)
		flipped := make([]sdRecord, len(records))
		for i, rec := range records {
			rec.start, rec.end = len(seq)-rec.end, len(seq)-rec.start
			rec.reversed = !rec.reversed
			flipped[len(records)-1-i] = rec
		}
		records = flipped
	}

	instances := make([]MonoInstance, len(records))
	for i, rec := range records {
		if rec.start < 0 || rec.start >= rec.end || rec.end > len(seq) {
			log.Panicf("monomer instance [%v, %v) out of bounds in read %v", rec.start, rec.end, *rid)
		}
		instances[i] = MonoInstance{
			MonoIndex: rec.monoIndex,
			Start:     rec.start,
			End:       rec.end,
			Identity:  rec.identity,
			Reversed:  rec.reversed,
			Reliable:  rec.reliable,
			Segment:   seq[rec.start:rec.end],
		}
	}
	return &MonoRead{ID: rid, Reversed: reversed, Instances: instances}
}
