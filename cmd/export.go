package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/videomind/internal/diagrams"
	"github.com/ziadkadry99/videomind/internal/mindmap"
	"github.com/ziadkadry99/videomind/internal/summary"
)

var (
	exportFormat string
	exportKind   string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export a mind map as Markdown, Mermaid, HTML or JSON",
	Long: `Renders a mind-map file, or the built-in document of the configured tier
when no file is given. Formats: markdown (summary and diagram), mermaid
(--kind mindmap, flowchart or timeline), html (rendered markdown) and json
(canonical document).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "markdown", "output format: markdown, mermaid, html, json")
	exportCmd.Flags().StringVar(&exportKind, "kind", string(diagrams.KindMindMap), "diagram kind: mindmap, flowchart, timeline")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	doc, err := documentArg(args)
	if err != nil {
		return err
	}
	out, err := renderExport(doc, exportFormat, diagrams.Kind(exportKind))
	if err != nil {
		return err
	}
	return writeOutput(exportOut, out)
}

func renderExport(doc *mindmap.Document, format string, kind diagrams.Kind) ([]byte, error) {
	switch format {
	case "markdown", "md":
		diagram, err := diagrams.Render(kind, doc)
		if err != nil {
			return nil, err
		}
		return summary.Markdown(doc, diagram), nil
	case "mermaid":
		diagram, err := diagrams.Render(kind, doc)
		if err != nil {
			return nil, err
		}
		return []byte(diagram), nil
	case "html":
		diagram, err := diagrams.Render(kind, doc)
		if err != nil {
			return nil, err
		}
		html, err := summary.RenderHTML(summary.Markdown(doc, diagram))
		if err != nil {
			return nil, fmt.Errorf("rendering html: %w", err)
		}
		return []byte(html), nil
	case "json":
		return mindmap.Serialize(doc)
	default:
		return nil, fmt.Errorf("unknown format %q: must be one of markdown, mermaid, html, json", format)
	}
}

// documentArg reads the mind-map file named by args, or the configured
// built-in tier when args is empty.
func documentArg(args []string) (*mindmap.Document, error) {
	if len(args) == 1 {
		return readDocument(args[0])
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	tier, err := defaultTier(cfg)
	if err != nil {
		return nil, err
	}
	return mindmap.Builtin(tier)
}

func writeOutput(path string, data []byte) error {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		defer f.Close()
		w = f
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	if path != "" {
		fmt.Fprintf(os.Stderr, "Wrote %s\n", path)
	}
	return nil
}
