//go:build linux

package cmd

import (
	"fmt"

	perf "github.com/hodgesds/perf-utils"
)

// countSerial counts the instructions and cycles f runs on the calling thread.
func countSerial(f func() error) (c *perfCounts, err error) {
	var instr, cycles *perf.ProfileValue
	if instr, err = perf.CPUInstructions(f); err != nil {
		return nil, fmt.Errorf("instruction counter: %w", err)
	}
	if cycles, err = perf.CPUCycles(f); err != nil {
		return nil, fmt.Errorf("cycle counter: %w", err)
	}
	return &perfCounts{Instructions: instr.Value, Cycles: cycles.Value}, nil
}
