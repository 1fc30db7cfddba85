package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/videomind/internal/db"
	"github.com/ziadkadry99/videomind/internal/generate"
	"github.com/ziadkadry99/videomind/internal/library"
	"github.com/ziadkadry99/videomind/internal/lifecycle"
	"github.com/ziadkadry99/videomind/internal/mindmap"
	"github.com/ziadkadry99/videomind/internal/progress"
	"github.com/ziadkadry99/videomind/internal/search"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a mind map from a transcript with an LLM",
	Long: `Sends a transcript to the configured provider and writes the resulting
mind map. The transcript is either a JSON array of {text, start, end} lines
(--transcript) or plain text (--text).`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().String("transcript", "", "JSON file with timed transcript lines")
	generateCmd.Flags().String("text", "", "plain-text transcript file")
	generateCmd.Flags().String("title", "", "video title")
	generateCmd.Flags().String("video-url", "", "URL of the video the mind map belongs to")
	generateCmd.Flags().Float64("duration", 0, "video duration in seconds")
	generateCmd.Flags().Int("max-topics", 0, "maximum number of topics (overrides config)")
	generateCmd.Flags().StringP("out", "o", "", "output file (default stdout)")
	generateCmd.Flags().Bool("save", false, "also save the result to the library")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	start := time.Now()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	defer logger.Sync()

	req, err := generateRequestFromFlags(cmd)
	if err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}

	gen, err := createGeneratorFromConfig(cfg, logger)
	if err != nil {
		return err
	}
	if gen == nil {
		return fmt.Errorf("no generation provider configured; set provider in %s", cfgFile)
	}

	ctx, cancel := context.WithTimeout(context.Background(), generationTimeout(cfg))
	defer cancel()

	spinner := progress.StartSpinner(fmt.Sprintf("Generating mind map with %s", gen.Name()))
	res, err := gen.Generate(ctx, req)
	spinner.Stop()
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	doc, err := mindmap.Validate(res.Data)
	if err != nil {
		return fmt.Errorf("generated mind map is invalid: %w", err)
	}
	data, err := mindmap.Serialize(doc)
	if err != nil {
		return err
	}

	out, _ := cmd.Flags().GetString("out")
	if err := writeOutput(out, data); err != nil {
		return err
	}

	if save, _ := cmd.Flags().GetBool("save"); save {
		entry, err := saveToLibrary(cmd.Context(), doc, req.Title)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved to library as %s\n", entry.ID)
	}

	fmt.Fprintf(os.Stderr, "Generated %d topics in %s\n", len(doc.Nodes), time.Since(start).Round(time.Millisecond))
	return nil
}

func generateRequestFromFlags(cmd *cobra.Command) (generate.Request, error) {
	var req generate.Request
	req.Title, _ = cmd.Flags().GetString("title")
	req.VideoURL, _ = cmd.Flags().GetString("video-url")
	req.Duration, _ = cmd.Flags().GetFloat64("duration")
	req.MaxTopics, _ = cmd.Flags().GetInt("max-topics")

	transcriptPath, _ := cmd.Flags().GetString("transcript")
	textPath, _ := cmd.Flags().GetString("text")
	switch {
	case transcriptPath != "" && textPath != "":
		return req, fmt.Errorf("use either --transcript or --text, not both")
	case transcriptPath != "":
		data, err := os.ReadFile(transcriptPath)
		if err != nil {
			return req, fmt.Errorf("reading transcript: %w", err)
		}
		if err := json.Unmarshal(data, &req.Transcript); err != nil {
			return req, fmt.Errorf("parsing transcript %s: %w", transcriptPath, err)
		}
	case textPath != "":
		data, err := os.ReadFile(textPath)
		if err != nil {
			return req, fmt.Errorf("reading text: %w", err)
		}
		req.Text = string(data)
	default:
		return req, fmt.Errorf("one of --transcript or --text is required")
	}
	return req, nil
}

// saveToLibrary stores doc in the library and indexes its topics for search.
func saveToLibrary(ctx context.Context, doc *mindmap.Document, title string) (*library.Entry, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	database, err := db.Open(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	index, err := search.NewIndex(embedder, cfg.SearchDir())
	if err != nil {
		return nil, fmt.Errorf("opening search index: %w", err)
	}
	return library.NewStore(database, index).Save(ctx, doc, title, string(lifecycle.StateGenerated))
}
