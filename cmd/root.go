package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/videomind/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "videomind",
	Short: "Interactive mind maps synchronized with video playback",
	Long: `videomind shows a video next to a radial mind map of its topics. The
topic under discussion is highlighted as the video plays, clicking a topic
seeks the video, and mind maps can be uploaded, generated from a transcript
with an LLM, saved and searched. Agents can read the active mind map via MCP.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
