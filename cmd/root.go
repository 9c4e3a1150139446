package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:     "ark",
	Short:   "ark - content-addressed file index for a managed directory",
	Version: "v0.1.0",
	Long:    "ark - maintains a content-addressed index of files under a managed root directory and keeps it live via a filesystem watch.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ark: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
}
