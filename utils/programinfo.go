// centroFlye: resolving read placements in tandemly duplicated regions.
// (c) 2020-2021 by Authors.
// This file is a part of the centroFlye program.
// Released under the BSD license (see LICENSE file).

package utils

const (
	// ProgramName is "centroflye"
	ProgramName = "centroflye"

	// ProgramVersion is the version of the centroflye binary
	ProgramVersion = "1.1.0"

	// ProgramURL is the repository for the centroflye source code
	ProgramURL = "http://github.com/zzsunday/centroFlye"
)
