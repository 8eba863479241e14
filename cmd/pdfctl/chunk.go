package main

import (
	"fmt"
	"os"
	"unicode/utf8"

	"pdf-chat-be/pkg/chunker"
	"pdf-chat-be/pkg/pdf"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var chunkCmd = &cobra.Command{
	Use:   "chunk [file.pdf]",
	Short: "Extract and chunk a local PDF",
	Args:  cobra.ExactArgs(1),
	RunE:  runChunk,
}

var chunkSize int

func init() {
	chunkCmd.Flags().IntVar(&chunkSize, "size", 0, "Maximum chunk size in characters (defaults to CHUNK_SIZE)")
}

func runChunk(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	result, err := pdf.NewExtractor(os.TempDir()).ExtractText(cmd.Context(), data)
	if err != nil {
		return err
	}

	size := chunkSize
	if size <= 0 {
		size = cfg.Upload.ChunkSize
	}
	chunks := chunker.Split(result.Text, size)

	color.Green("%s: %d pages, %d chunks", args[0], result.PageCount, len(chunks))
	for i, chunk := range chunks {
		color.Yellow("\n[%d] %d chars", i+1, utf8.RuneCountInString(chunk))
		fmt.Println(chunk)
	}
	return nil
}
