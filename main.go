// centroFlye: resolving read placements in tandemly duplicated regions.
// (c) 2020-2021 by Authors.
// This file is a part of the centroFlye program.
// Released under the BSD license (see LICENSE file).

// centroFlye resolves the ambiguous placement of long reads inside
// tandemly duplicated regions of a centromere scaffold, using k-mer
// fingerprints shared between reads as positional evidence.
//
// Please see http://github.com/zzsunday/centroFlye for a documentation
// of the tool.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/zzsunday/centroFlye/cmd"
)

func printHelp() {
	fmt.Fprintln(os.Stderr, "Available commands: resolve")
	fmt.Fprint(os.Stderr, "\n", cmd.ResolveHelp)
}

func main() {
	fmt.Fprintln(os.Stderr, cmd.ProgramMessage)
	if len(os.Args) < 2 {
		log.Println("Incorrect number of parameters.")
		fmt.Fprint(os.Stderr, cmd.HelpMessage, "\n")
		printHelp()
		os.Exit(1)
	}
	switch os.Args[1] {
	case "resolve":
		if err := cmd.Resolve(); err != nil {
			log.Fatal(err)
		}
	case "help", "-h", "--h", "-help", "--help":
		printHelp()
	default:
		log.Println("Invalid command:", os.Args[1])
		fmt.Fprint(os.Stderr, cmd.HelpMessage, "\n")
		printHelp()
		os.Exit(1)
	}
}
