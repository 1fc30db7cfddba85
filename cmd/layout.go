package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/videomind/internal/layout"
	"github.com/ziadkadry99/videomind/internal/mindmap"
)

var layoutJSON bool

var layoutCmd = &cobra.Command{
	Use:   "layout [file]",
	Short: "Print the radial layout of a mind map",
	Long:  `Computes vertex positions for a mind-map file, or the configured built-in tier, and prints them as a table or JSON.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := documentArg(args)
		if err != nil {
			return err
		}
		res := layout.Compute(doc)

		if layoutJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}

		fmt.Printf("Canvas %.0fx%.0f, ring radius %.1f\n\n", res.Width, res.Height, res.Ring)
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "INDEX\tX\tY\tANGLE\tRANGE\tLABEL")
		fmt.Fprintf(tw, "root\t%.1f\t%.1f\t-\t-\t%s\n", res.Root.X, res.Root.Y, res.Root.Label)
		for _, v := range res.Nodes {
			fmt.Fprintf(tw, "%d\t%.1f\t%.1f\t%.1f\t%s\t%s\n", v.Index, v.X, v.Y, v.Angle,
				mindmap.RangeLabel(doc.Nodes[v.Index].Timestamp), v.Label)
		}
		return tw.Flush()
	},
}

func init() {
	layoutCmd.Flags().BoolVar(&layoutJSON, "json", false, "print the layout as JSON")
	rootCmd.AddCommand(layoutCmd)
}
