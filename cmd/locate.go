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
	"os"

	"github.com/ghodss/yaml"
	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/felocate/InputParameters"
	"github.com/notargets/felocate/locator"
)

const exampleFile = `
########################################
Title: "Test Case"
SpaceDimension: 2
Nodes: [[0, 0], [1, 0], [1, 1], [0, 1]]
Cells:
  - {Type: QUAD4, Nodes: [0, 1, 2, 3]}
Points: [[0.25, 0.5], [1.05, 0.5]]
Field: # optional nodal field
  Components: 1
  Values: [0, 1, 1, 0]
Options:
  ProjectionOnSurface: true
  ProjectionMaxDistance: 0.1
########################################
`

// Report is the output of the locate command.
type Report struct {
	Title     string             `json:"Title"`
	Locations []locator.Location `json:"Locations"`
	Field     []float64          `json:"Field,omitempty"`
	Errors    []string           `json:"Errors,omitempty"`
}

// LocateCmd represents the locate command
var LocateCmd = &cobra.Command{
	Use:   "locate",
	Short: "Locate the points of a case file in its mesh",
	Long: `
Reads a YAML case file holding a mesh, target points, an optional nodal field
and locator options, and writes the location of every point and the
interpolated field as JSON or YAML.

felocate locate -I case.yaml -f yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		caseFile, _ := cmd.Flags().GetString("inputFile")
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")
		if len(caseFile) == 0 {
			fmt.Printf("Example File:%s\n", exampleFile)
			return fmt.Errorf("must supply a case file (-I, --inputFile)")
		}
		var w io.Writer = cmd.OutOrStdout()
		if len(output) != 0 {
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		return RunLocate(w, caseFile, format, viper.GetInt("parallel"), viper.GetBool("verbose"))
	},
}

func init() {
	rootCmd.AddCommand(LocateCmd)
	LocateCmd.Flags().StringP("inputFile", "I", "", "YAML case file with the mesh, the points and the options")
	LocateCmd.Flags().StringP("format", "f", "json", "output format: json or yaml")
	LocateCmd.Flags().StringP("output", "o", "", "output file, stdout if not set")
}

func readCase(caseFile string, verbose bool) (cp *InputParameters.CaseParameters, err error) {
	var data []byte
	if data, err = os.ReadFile(caseFile); err != nil {
		return
	}
	cp = &InputParameters.CaseParameters{}
	if err = cp.Parse(data); err != nil {
		return nil, fmt.Errorf("%s: %w", caseFile, err)
	}
	if verbose {
		cp.Print()
	}
	return
}

func newLocator(cp *InputParameters.CaseParameters, parallel int, verbose bool) (lc *locator.Locator, err error) {
	m, err := cp.Mesh()
	if err != nil {
		return
	}
	if verbose {
		m.PrintStatistics()
	}
	opts, err := cp.LocatorOptions(parallel, verbose)
	if err != nil {
		return
	}
	return locator.New(m, opts...)
}

// RunLocate locates the points of a case file and writes the report to w.
// Points that cannot be located are listed in the report and make the
// returned error non nil.
func RunLocate(w io.Writer, caseFile, format string, parallel int, verbose bool) (err error) {
	var (
		cp *InputParameters.CaseParameters
		lc *locator.Locator
	)
	if format != "json" && format != "yaml" {
		return fmt.Errorf("unknown output format %q", format)
	}
	if cp, err = readCase(caseFile, verbose); err != nil {
		return
	}
	if lc, err = newLocator(cp, parallel, verbose); err != nil {
		return
	}
	report := &Report{Title: cp.Title}
	var locErr error
	report.Locations, locErr = lc.LocatePoints(cp.Points)
	if locErr == nil && cp.Field != nil {
		var em *locator.EvaluationMatrix
		if em, err = lc.EvaluationMatrix(report.Locations); err != nil {
			return
		}
		if verbose {
			nr, nc := em.Dims()
			fmt.Printf("evaluation matrix: %d x %d, %d non zeros\n", nr, nc, em.NNZ())
		}
		if report.Field, err = em.Apply(cp.Field.Values, cp.Field.Components); err != nil {
			return
		}
	}
	if locErr != nil {
		if joined, ok := locErr.(interface{ Unwrap() []error }); ok {
			for _, e := range joined.Unwrap() {
				report.Errors = append(report.Errors, e.Error())
			}
		} else {
			report.Errors = append(report.Errors, locErr.Error())
		}
	}
	var out []byte
	switch format {
	case "yaml":
		out, err = yaml.Marshal(report)
	default:
		out, err = json.MarshalIndent(report, "", "  ")
		out = append(out, '\n')
	}
	if err != nil {
		return
	}
	if _, err = w.Write(out); err != nil {
		return
	}
	return locErr
}
