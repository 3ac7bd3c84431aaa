package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/omegabytes/ecocode-sentinel/config"
	"github.com/omegabytes/ecocode-sentinel/llm"
	"github.com/omegabytes/ecocode-sentinel/logger"
)

func newProbeCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Check that the configured model provider is usable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			slog.SetDefault(logger.New(os.Stderr, cfg))

			out := cmd.OutOrStdout()
			switch cfg.LLM.Provider {
			case llm.Ollama:
				fmt.Fprintf(out, "Using Ollama's local models - %s\n", cfg.LLM.Model)
				models, err := llm.ProbeOllama(cmd.Context(), &http.Client{Timeout: timeout}, cfg.LLM.OllamaHost, cfg.LLM.Model)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Ollama at %s has %d models installed\n", cfg.LLM.OllamaHost, len(models))
				for _, m := range models {
					fmt.Fprintf(out, "  - %s\n", m)
				}
			default:
				// Load already refused a missing GROQ_API_KEY.
				fmt.Fprintf(out, "Using Groq's accelerated inference - %s\n", cfg.LLM.Model)
				fmt.Fprintf(out, "Endpoint: %s\n", cfg.LLM.BaseURL)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "time to wait for the provider")
	return cmd
}
