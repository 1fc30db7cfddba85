package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/videomind/internal/audit"
	"github.com/ziadkadry99/videomind/internal/config"
	"github.com/ziadkadry99/videomind/internal/db"
	"github.com/ziadkadry99/videomind/internal/library"
	"github.com/ziadkadry99/videomind/internal/media"
	"github.com/ziadkadry99/videomind/internal/metrics"
	"github.com/ziadkadry99/videomind/internal/mindmap"
	"github.com/ziadkadry99/videomind/internal/search"
	"github.com/ziadkadry99/videomind/internal/server"
	"github.com/ziadkadry99/videomind/internal/session"
	"github.com/ziadkadry99/videomind/internal/viewer"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the video mind-map viewer",
	Long:  `Starts the HTTP server with the player page, the mind-map and playback API, the player WebSocket, the saved-map library and topic search.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.Port = servePort
	}
	logger := newLogger(cfg)
	defer logger.Sync()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	database, err := db.Open(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	mediaStore, err := media.NewStore(cfg.MediaDir(), logger)
	if err != nil {
		return fmt.Errorf("opening media store: %w", err)
	}
	defer mediaStore.Close()

	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	index, err := search.NewIndex(embedder, cfg.SearchDir())
	if err != nil {
		return fmt.Errorf("opening search index: %w", err)
	}

	history := audit.NewStore(database)
	pruneHistory(cmd.Context(), history, cfg.HistoryRetentionDays, logger)

	tier, err := defaultTier(cfg)
	if err != nil {
		return err
	}
	collector := metrics.NewCollector()
	hub := viewer.NewHub(logger, collector)

	sessCfg := session.Config{
		Tier:              tier,
		DefaultVideoURL:   cfg.DefaultVideoURL,
		GenerationTimeout: generationTimeout(cfg),
		Releaser:          mediaStore,
		History:           history,
		Metrics:           collector,
		Listener:          hub,
		Logger:            logger,
	}
	gen, err := createGeneratorFromConfig(cfg, logger)
	if err != nil {
		return err
	}
	if gen != nil {
		sessCfg.Generator = gen
	} else {
		logger.Info("generation disabled, no provider configured")
	}
	sess, err := session.New(sessCfg)
	if err != nil {
		return fmt.Errorf("starting session: %w", err)
	}
	defer sess.Close()

	srv := server.New(server.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		AllowAll: cfg.AllowAllOrigins,
	}, logger, collector)

	r := srv.Router()
	viewer.New(sess, hub, mediaStore, logger).RegisterRoutes(r)
	media.RegisterRoutes(r, mediaStore)
	library.RegisterRoutes(r, library.NewStore(database, index), sess)
	search.RegisterRoutes(r, index)
	audit.RegisterRoutes(r, history)

	// Graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		fmt.Fprintln(os.Stderr, "\nShutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	fmt.Fprintf(os.Stderr, "videomind %s listening on http://%s\n", Version, srv.Addr())
	fmt.Fprintf(os.Stderr, "  Data: %s\n", cfg.DataDir)
	fmt.Fprintf(os.Stderr, "  Topics indexed: %d\n", index.Count())

	return srv.Start()
}

// pruneHistory drops history entries older than the retention window.
func pruneHistory(ctx context.Context, history *audit.Store, days int, logger *zap.Logger) {
	if days <= 0 {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	n, err := history.DeleteBefore(ctx, time.Now().AddDate(0, 0, -days))
	if err != nil {
		logger.Warn("pruning history", zap.Error(err))
		return
	}
	if n > 0 {
		logger.Info("pruned history", zap.Int64("entries", n), zap.Int("retention_days", days))
	}
}

// defaultTier parses the configured tier.
func defaultTier(cfg *config.Config) (mindmap.Tier, error) {
	return mindmap.ParseTier(cfg.DefaultTier)
}
