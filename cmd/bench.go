/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/felocate/locator"
	"github.com/notargets/felocate/utils"
)

type Bench struct {
	CaseFile   string
	Repeat     int
	Profile    string // "", "cpu" or "mem"
	ProfileDir string
	Perf       bool
}

// BenchCmd represents the bench command
var BenchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Time the location of the points of a case file",
	Long: `
Locates the points of a case file repeatedly and reports the time per point,
optionally under the CPU or memory profiler or, on linux, with hardware
instruction and cycle counters of a serial run.

felocate bench -I case.yaml -r 100 --profile cpu`,
	RunE: func(cmd *cobra.Command, args []string) error {
		b := &Bench{}
		b.CaseFile, _ = cmd.Flags().GetString("inputFile")
		b.Repeat, _ = cmd.Flags().GetInt("repeat")
		b.Profile, _ = cmd.Flags().GetString("profile")
		b.ProfileDir, _ = cmd.Flags().GetString("profileDir")
		b.Perf, _ = cmd.Flags().GetBool("perf")
		if len(b.CaseFile) == 0 {
			return fmt.Errorf("must supply a case file (-I, --inputFile)")
		}
		return RunBench(cmd.OutOrStdout(), b, viper.GetInt("parallel"), viper.GetBool("verbose"))
	},
}

func init() {
	rootCmd.AddCommand(BenchCmd)
	BenchCmd.Flags().StringP("inputFile", "I", "", "YAML case file with the mesh, the points and the options")
	BenchCmd.Flags().IntP("repeat", "r", 10, "number of passes over the points")
	BenchCmd.Flags().String("profile", "", "profile the passes: cpu or mem")
	BenchCmd.Flags().String("profileDir", ".", "directory of the profile output")
	BenchCmd.Flags().Bool("perf", false, "count instructions and cycles of a serial pass (linux)")
}

func RunBench(w io.Writer, b *Bench, parallel int, verbose bool) (err error) {
	if b.Repeat < 1 {
		return fmt.Errorf("repeat count %d is not positive", b.Repeat)
	}
	cp, err := readCase(b.CaseFile, verbose)
	if err != nil {
		return
	}
	start := time.Now()
	lc, err := newLocator(cp, parallel, false)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "setup: %v, %s\n", time.Since(start), utils.GetMemUsage())

	switch b.Profile {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(b.ProfileDir), profile.Quiet).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath(b.ProfileDir), profile.Quiet).Stop()
	default:
		return fmt.Errorf("unknown profile %q", b.Profile)
	}

	nPoints := len(cp.Points)
	start = time.Now()
	for r := 0; r < b.Repeat; r++ {
		// failures are part of the workload
		_, _ = lc.LocatePoints(cp.Points)
	}
	elapsed := time.Since(start)
	fmt.Fprintf(w, "%d passes over %d points with %d goroutines: %v", b.Repeat, nPoints, lc.ParallelDegree, elapsed)
	if nPoints > 0 {
		fmt.Fprintf(w, ", %v per point", elapsed/time.Duration(b.Repeat*nPoints))
	}
	fmt.Fprintf(w, "\n")

	if b.Perf {
		var counts *perfCounts
		if counts, err = countSerial(func() error { return locateSerial(lc, cp.Points) }); err != nil {
			return
		}
		fmt.Fprintf(w, "serial pass: %d instructions, %d cycles\n", counts.Instructions, counts.Cycles)
	}
	return
}

func locateSerial(lc *locator.Locator, points [][]float64) error {
	for _, p := range points {
		_, _ = lc.LocatePoint(p)
	}
	return nil
}

type perfCounts struct {
	Instructions, Cycles uint64
}
