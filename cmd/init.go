package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/videomind/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize videomind configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to choose a generation provider, default tier, video and data directory, and writes a .videomind.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
