package main

import (
	"fmt"
	"os"

	"pdf-chat-be/internal/bootstrap"
	"pdf-chat-be/internal/pkg/logger"
	"pdf-chat-be/internal/repository/unitofwork"
	"pdf-chat-be/internal/service"
	"pdf-chat-be/pkg/database"
	"pdf-chat-be/pkg/lock"
	"pdf-chat-be/pkg/pdf"
	ragcontext "pdf-chat-be/pkg/rag/context"
	"pdf-chat-be/pkg/relevance"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var contextCmd = &cobra.Command{
	Use:   "context [documentId] [question]",
	Short: "Print the context block the model would receive",
	Args:  cobra.ExactArgs(2),
	RunE:  runContext,
}

var showScores bool

func init() {
	contextCmd.Flags().BoolVar(&showScores, "scores", false, "Also print the relevance score of every stored chunk")
}

func runContext(cmd *cobra.Command, args []string) error {
	documentId, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid document id: %w", err)
	}
	question := args[1]

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		return err
	}

	objects, err := bootstrap.NewObjectStore(cmd.Context(), cfg.Storage)
	if err != nil {
		return err
	}

	terms, err := relevance.LoadConfig(cfg.Ai.TermsFile)
	if err != nil {
		return err
	}
	scorer := relevance.NewScorer(terms)

	// Keep worker logs in the log file so stdout carries only the context block.
	fileLogger := logger.NewIsolatedLogger(cfg.App.LogFilePath)

	documents := unitofwork.NewDocumentStore(unitofwork.NewRepositoryFactory(db))
	processing := service.NewProcessingService(
		documents,
		objects,
		pdf.NewExtractor(os.TempDir()),
		lock.NewMemoryLocker(),
		cfg.App.StaleProcessingAfter,
		cfg.Upload.ChunkSize,
		nil,
		fileLogger,
	)
	assembler := ragcontext.NewAssembler(documents, processing, scorer, cfg.Upload.ChunkSize, nil)

	result := assembler.BuildContext(cmd.Context(), documentId, question)
	if result == ragcontext.ContextUnavailable {
		color.Yellow("%s", result)
		return nil
	}
	color.Cyan("Context for %s:\n", documentId)
	fmt.Println(result)

	if !showScores {
		return nil
	}
	doc, err := documents.FindByID(cmd.Context(), documentId)
	if err != nil {
		return err
	}
	color.Cyan("\nChunk scores:")
	for i, chunk := range doc.Chunks {
		score := scorer.Score(chunk, question)
		line := fmt.Sprintf("[%d] score=%d %.60q", i+1, score, chunk)
		if score > 0 {
			color.Green("%s", line)
		} else {
			fmt.Println(line)
		}
	}
	return nil
}
