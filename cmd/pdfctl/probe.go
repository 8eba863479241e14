package main

import (
	"fmt"

	"pdf-chat-be/pkg/llm/factory"
	"pdf-chat-be/pkg/rag/response"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check that the configured LLM provider answers",
	Args:  cobra.NoArgs,
	RunE:  runProbe,
}

func runProbe(cmd *cobra.Command, args []string) error {
	provider, err := factory.NewLLMProvider(cmd.Context(), factory.Settings{
		Provider: cfg.Ai.LLMProvider,
		Model:    cfg.Ai.LLMModel,
		BaseURL:  cfg.Ai.LLMBaseURL,
		APIKey:   cfg.Ai.LLMAPIKey,
	})
	if err != nil {
		return err
	}

	generator := response.NewGenerator(provider, nil, nil,
		response.WithModel(cfg.Ai.LLMModel),
		response.WithTimeout(cfg.Ai.LLMTimeout),
	)

	color.Cyan("Probing %s (%s)...", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)
	if !generator.TestConnection(cmd.Context()) {
		return fmt.Errorf("provider %s is not reachable", cfg.Ai.LLMProvider)
	}
	color.Green("Connected")
	return nil
}
