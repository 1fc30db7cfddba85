package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/videomind/internal/mindmap"
	"github.com/ziadkadry99/videomind/internal/progress"
)

var (
	good   = color.New(color.FgGreen)
	bad    = color.New(color.FgRed)
	subtle = color.New(color.FgHiBlack)
)

var validateCmd = &cobra.Command{
	Use:   "validate <pattern>...",
	Short: "Check mind-map JSON files",
	Long: `Validates mind-map files against the document rules: root_topic and nodes
present, every timestamp a finite [start, end] pair with 0 <= start <= end,
and transcript lines likewise. Patterns support ** globs, e.g. maps/**/*.json.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

type validateResult struct {
	path  string
	nodes int
	err   error
}

func runValidate(cmd *cobra.Command, args []string) error {
	files, err := expandPatterns(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no files match %v", args)
	}

	reporter := progress.NewReporter()
	reporter.Start(len(files))
	results := make([]validateResult, 0, len(files))
	for i, path := range files {
		reporter.Update(i+1, path)
		doc, err := readDocument(path)
		res := validateResult{path: path, err: err}
		if doc != nil {
			res.nodes = len(doc.Nodes)
		}
		results = append(results, res)
	}
	reporter.Finish()

	failed := 0
	for _, res := range results {
		if res.err != nil {
			failed++
			fmt.Printf("%s %s  %s\n", bad.Sprint("FAIL"), res.path, describeError(res.err))
			continue
		}
		if verbose {
			fmt.Printf("%s   %s  %s\n", good.Sprint("OK"), res.path, subtle.Sprintf("%d topics", res.nodes))
		}
	}

	fmt.Printf("\n%d files checked, %s, %s\n", len(results),
		good.Sprintf("%d valid", len(results)-failed), bad.Sprintf("%d invalid", failed))
	if failed > 0 {
		return fmt.Errorf("%d of %d files are invalid", failed, len(results))
	}
	return nil
}

// expandPatterns resolves glob patterns to a sorted, de-duplicated file list.
// A pattern without matches that names an existing file is kept as is.
func expandPatterns(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			if info, err := os.Stat(pattern); err == nil && !info.IsDir() {
				matches = []string{pattern}
			}
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

func describeError(err error) string {
	kind := mindmap.KindOf(err)
	if kind == "" {
		return err.Error()
	}
	return subtle.Sprintf("[%s] ", kind) + err.Error()
}
