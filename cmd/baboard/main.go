package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev" // Will be set during build

var rootCmd = &cobra.Command{
	Use:   "baboard",
	Short: "Breathing apparatus entry control board",
	Long: `Baboard tracks firefighters on breathing apparatus during an incident.

It predicts remaining air time per operator, raises whistle and overdue
alerts, and serves a priority-sorted board view for the entry control
operator's console.`,
	Version: version,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(versionCmd)
}
