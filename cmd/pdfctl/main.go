package main

import (
	"os"

	"pdf-chat-be/internal/config"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "pdfctl",
	Short: "Operator tools for the PDF chat backend",
	Long:  `Inspect retrieval context, chunk local PDFs, probe the LLM provider and tail document events.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(contextCmd, chunkCmd, probeCmd, watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}
