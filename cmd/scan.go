/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

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
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/texproof/internal/document"
	"github.com/valpere/texproof/internal/segment"
)

var scanInput string

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Segment a document without calling any service",
	Long: `Segment a LaTeX document and print the units that would be
proofread: kind, byte span, enclosing section, and a text preview. No
network calls are made. Useful for checking what the pipeline will and will
not touch before spending API quota.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := document.Read(scanInput)
		if err != nil {
			return err
		}

		units, segErrs := segment.Split(doc.Text)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "#\tKIND\tSPAN\tSECTION\tPREVIEW")
		for i, u := range units {
			section := segment.SectionAt(units, u.Start)
			fmt.Fprintf(w, "%d\t%s\t%d-%d\t%s\t%s\n",
				i, u.Kind, u.Start, u.End, truncate(section, 24), truncate(u.Text, 48))
		}
		if err := w.Flush(); err != nil {
			return err
		}

		counts := segment.CountKinds(units)
		fmt.Printf("\n%d units: %d section titles, %d environment bodies, %d captions, %d paragraphs\n",
			len(units), counts[segment.SectionTitle], counts[segment.EnvironmentBody],
			counts[segment.Caption], counts[segment.Paragraph])

		for _, e := range segErrs {
			fmt.Fprintf(os.Stderr, "warning: %v\n", e)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVarP(&scanInput, "input", "i", "", "LaTeX document to segment (required)")
	scanCmd.MarkFlagRequired("input")
}
