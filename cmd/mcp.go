package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/videomind/internal/audit"
	"github.com/ziadkadry99/videomind/internal/db"
	mcpserver "github.com/ziadkadry99/videomind/internal/mcp"
	"github.com/ziadkadry99/videomind/internal/search"
	"github.com/ziadkadry99/videomind/internal/session"
)

var mcpLoad string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing the active mind map and topic search to AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg)
		defer logger.Sync()

		tier, err := defaultTier(cfg)
		if err != nil {
			return err
		}

		sessCfg := session.Config{
			Tier:            tier,
			DefaultVideoURL: cfg.DefaultVideoURL,
			Logger:          logger,
		}
		var searcher mcpserver.Searcher
		if _, err := os.Stat(cfg.DatabasePath()); err == nil {
			database, err := db.Open(cfg.DatabasePath())
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer database.Close()
			sessCfg.History = audit.NewStore(database)

			embedder, err := createEmbedderFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("creating embedder: %w", err)
			}
			index, err := search.NewIndex(embedder, cfg.SearchDir())
			if err != nil {
				// Search is optional; the remaining tools still work.
				fmt.Fprintf(os.Stderr, "Warning: could not open search index: %v\n", err)
			} else {
				searcher = index
			}
		}

		sess, err := session.New(sessCfg)
		if err != nil {
			return fmt.Errorf("starting session: %w", err)
		}
		defer sess.Close()

		if mcpLoad != "" {
			data, err := os.ReadFile(mcpLoad)
			if err != nil {
				return fmt.Errorf("reading %s: %w", mcpLoad, err)
			}
			if err := sess.LoadSaved(data); err != nil {
				return fmt.Errorf("loading %s: %w", mcpLoad, err)
			}
		}

		// Set version from the cmd package variable.
		mcpserver.Version = Version

		doc, state := sess.ActiveDocument()
		fmt.Fprintf(os.Stderr, "videomind MCP server started on stdio (state=%s, topics=%d)\n", state, len(doc.Nodes))

		srv := mcpserver.NewServer(sess, searcher)
		return srv.Serve()
	},
}

func init() {
	mcpCmd.Flags().StringVar(&mcpLoad, "load", "", "mind-map JSON file to make active at startup")
	rootCmd.AddCommand(mcpCmd)
}
